package kafka_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booking-intelligence/internal/kafka"
	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
)

func quietLogger() *logger.Logger { return logger.New(logger.LevelFatal, io.Discard) }

func bookingMessage(t *testing.T, offset int64, event *models.BookingEvent) *sarama.ConsumerMessage {
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "booking-events", Offset: offset, Value: data}
}

func TestBookingConsumerHandler(t *testing.T) {
	confirmed := bookingMessage(t, 0, &models.BookingEvent{Type: models.EventBookingConfirmed, BookingID: "b-1", RoomType: "suite"})
	garbage := &sarama.ConsumerMessage{Topic: "booking-events", Offset: 1, Value: []byte("{not json")}
	failing := bookingMessage(t, 2, &models.BookingEvent{Type: models.EventBookingConfirmed, BookingID: "b-fail"})

	msgChan := make(chan *sarama.ConsumerMessage, 3)
	msgChan <- confirmed
	msgChan <- garbage
	msgChan <- failing
	close(msgChan)

	mockClaim := &MockConsumerGroupClaim{}
	mockClaim.On("Messages").Return(msgChan)

	mockSession := &MockConsumerGroupSession{}
	mockSession.On("MarkMessage", confirmed, "").Return()
	mockSession.On("MarkMessage", garbage, "").Return()

	var handled []string
	handler := &kafka.BookingConsumerHandler{
		Log: quietLogger(),
		Handler: func(event *models.BookingEvent) error {
			handled = append(handled, event.BookingID)
			if event.BookingID == "b-fail" {
				return errors.New("store unavailable")
			}
			return nil
		},
	}

	require.NoError(t, handler.Setup(mockSession))
	err := handler.ConsumeClaim(mockSession, mockClaim)
	assert.ErrorIs(t, err, kafka.ErrBookingNotHandled)
	require.NoError(t, handler.Cleanup(mockSession))

	assert.Equal(t, []string{"b-1", "b-fail"}, handled)
	mockSession.AssertExpectations(t)
	// A failed event stays unmarked so it is redelivered.
	mockSession.AssertNotCalled(t, "MarkMessage", failing, "")
	mockClaim.AssertExpectations(t)
}

// TestBookingConsumerIntegration requires a running Kafka broker.
func TestBookingConsumerHandlerStopsAtFailedEvent(t *testing.T) {
	failing := bookingMessage(t, 5, &models.BookingEvent{Type: models.EventBookingConfirmed, BookingID: "b-fail"})
	next := bookingMessage(t, 6, &models.BookingEvent{Type: models.EventBookingConfirmed, BookingID: "b-next"})

	msgChan := make(chan *sarama.ConsumerMessage, 2)
	msgChan <- failing
	msgChan <- next
	close(msgChan)

	mockClaim := &MockConsumerGroupClaim{}
	mockClaim.On("Messages").Return(msgChan)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mockSession := &MockConsumerGroupSession{}
	mockSession.On("Context").Return(ctx)

	var handled []string
	handler := &kafka.BookingConsumerHandler{
		Log:          quietLogger(),
		RetryBackoff: time.Minute,
		Handler: func(event *models.BookingEvent) error {
			handled = append(handled, event.BookingID)
			if event.BookingID == "b-fail" {
				return errors.New("store unavailable")
			}
			return nil
		},
	}

	err := handler.ConsumeClaim(mockSession, mockClaim)
	require.ErrorIs(t, err, kafka.ErrBookingNotHandled)
	assert.Contains(t, err.Error(), "offset 5")

	// Marking the later event would commit past the failed one.
	assert.Equal(t, []string{"b-fail"}, handled)
	mockSession.AssertNotCalled(t, "MarkMessage", mock.Anything, mock.Anything)
	mockSession.AssertExpectations(t)
}

func TestBookingConsumerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:29092"
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Net.DialTimeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer([]string{brokers}, config)
	if err != nil {
		t.Skip("Skipping test because Kafka is not available:", err)
		return
	}
	defer producer.Close()

	topic := "booking-events-test"
	consumer, err := kafka.NewBookingConsumer([]string{brokers}, "test-group-"+time.Now().Format("20060102150405"), topic, quietLogger())
	require.NoError(t, err)
	defer consumer.Close()

	bookingID := fmt.Sprintf("test-booking-%d", time.Now().UnixNano())
	received := make(chan *models.BookingEvent, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := consumer.ConsumeBookings(ctx, func(event *models.BookingEvent) error {
			if event.BookingID == bookingID {
				received <- event
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Consumer error: %v", err)
		}
	}()

	data, err := json.Marshal(&models.BookingEvent{Type: models.EventBookingConfirmed, BookingID: bookingID, RoomType: "deluxe"})
	require.NoError(t, err)
	_, _, err = producer.SendMessage(&sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(data)})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "deluxe", event.RoomType)
	case <-time.After(20 * time.Second):
		t.Fatalf("Timeout waiting for booking %s", bookingID)
	}
}

type MockConsumerGroupSession struct {
	mock.Mock
}

func (m *MockConsumerGroupSession) Claims() map[string][]int32 {
	args := m.Called()
	return args.Get(0).(map[string][]int32)
}

func (m *MockConsumerGroupSession) MemberID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConsumerGroupSession) GenerationID() int32 {
	args := m.Called()
	return int32(args.Int(0))
}

func (m *MockConsumerGroupSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {
	m.Called(topic, partition, offset, metadata)
}

func (m *MockConsumerGroupSession) Commit() {
	m.Called()
}

func (m *MockConsumerGroupSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {
	m.Called(topic, partition, offset, metadata)
}

func (m *MockConsumerGroupSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	m.Called(msg, metadata)
}

func (m *MockConsumerGroupSession) Context() context.Context {
	args := m.Called()
	return args.Get(0).(context.Context)
}

type MockConsumerGroupClaim struct {
	mock.Mock
}

func (m *MockConsumerGroupClaim) Topic() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConsumerGroupClaim) Partition() int32 {
	args := m.Called()
	return int32(args.Int(0))
}

func (m *MockConsumerGroupClaim) InitialOffset() int64 {
	args := m.Called()
	return int64(args.Int(0))
}

func (m *MockConsumerGroupClaim) HighWaterMarkOffset() int64 {
	args := m.Called()
	return int64(args.Int(0))
}

func (m *MockConsumerGroupClaim) Messages() <-chan *sarama.ConsumerMessage {
	args := m.Called()
	return args.Get(0).(chan *sarama.ConsumerMessage)
}

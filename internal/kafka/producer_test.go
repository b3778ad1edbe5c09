package kafka_test

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-intelligence/internal/kafka"
	"booking-intelligence/internal/models"
)

func TestTopicForEvent(t *testing.T) {
	assert.Equal(t, "recommendation-served", kafka.TopicForEvent(models.EventRecommendationServed))
	assert.Equal(t, "price-quoted", kafka.TopicForEvent(models.EventPriceQuoted))
	assert.Equal(t, "model-trained", kafka.TopicForEvent(models.EventModelTrained))
	assert.Equal(t, "booking-intelligence-events", kafka.TopicForEvent("other"))
}

func TestPublishEvent(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var event models.Event
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		if event.Type != models.EventPriceQuoted || event.Key != "qt_1" || event.Timestamp.IsZero() {
			return errors.New("unexpected event envelope")
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := kafka.NewProducerWith(sp, quietLogger())

	require.NoError(t, producer.PublishEvent(&models.Event{Type: models.EventPriceQuoted, Key: "qt_1", Payload: map[string]int{"n": 1}}))
	err := producer.PublishEvent(&models.Event{Type: models.EventModelTrained, Key: "v2"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.NoError(t, producer.Close())
}

func TestMockModeProducer(t *testing.T) {
	producer, err := kafka.NewProducer(nil, true, quietLogger())
	require.NoError(t, err)
	assert.NoError(t, producer.PublishEvent(&models.Event{Type: models.EventModelTrained, Key: "v1"}))
	assert.NoError(t, producer.Close())
}

package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
)

// ErrBookingNotHandled ends a claim so the failed event is redelivered.
var ErrBookingNotHandled = errors.New("booking event not handled")

// consumeRetryBackoff paces redelivery of an event whose handler keeps failing.
const consumeRetryBackoff = 2 * time.Second

type Consumer struct {
	consumer sarama.ConsumerGroup
	topics   []string
	log      *logger.Logger
}

func NewBookingConsumer(brokers []string, groupID, topic string, log *logger.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.LogKafka("CONNECTED", topic, fmt.Sprintf("Consumer group %s joined brokers %v", groupID, brokers))
	return &Consumer{
		consumer: consumer,
		topics:   []string{topic},
		log:      log,
	}, nil
}

// ConsumeBookings blocks until ctx is cancelled or the group fails.
func (c *Consumer) ConsumeBookings(ctx context.Context, handler func(*models.BookingEvent) error) error {
	consumerHandler := &BookingConsumerHandler{Handler: handler, Log: c.log, RetryBackoff: consumeRetryBackoff}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consumer.Consume(ctx, c.topics, consumerHandler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return nil
				}
				c.log.Error("KAFKA", fmt.Sprintf("Error consuming messages: %v", err))
				return err
			}
		}
	}
}

func (c *Consumer) Close() error {
	c.log.LogKafka("CLOSING", "consumer", "Closing Kafka consumer group")
	return c.consumer.Close()
}

// BookingConsumerHandler decodes booking events and hands them to Handler.
// Undecodable messages are marked so they do not block the partition. A
// handler failure ends the claim without marking, so the partition offset
// never moves past the failed event and it is redelivered after the group
// rejoins. RetryBackoff delays that return.
type BookingConsumerHandler struct {
	Handler      func(*models.BookingEvent) error
	Log          *logger.Logger
	RetryBackoff time.Duration
}

func (h *BookingConsumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *BookingConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *BookingConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event models.BookingEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			h.Log.Warn("KAFKA", fmt.Sprintf("Skipping undecodable message at %s/%d/%d: %v",
				message.Topic, message.Partition, message.Offset, err))
			session.MarkMessage(message, "")
			continue
		}

		if err := h.Handler(&event); err != nil {
			h.Log.Error("KAFKA", fmt.Sprintf("Failed to handle booking event %s (%s) at %s/%d/%d, stopping claim: %v",
				event.BookingID, event.Type, message.Topic, message.Partition, message.Offset, err))
			if h.RetryBackoff > 0 {
				select {
				case <-session.Context().Done():
				case <-time.After(h.RetryBackoff):
				}
			}
			return fmt.Errorf("%w: offset %d: %v", ErrBookingNotHandled, message.Offset, err)
		}

		session.MarkMessage(message, "")
	}

	return nil
}

package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/metrics"
	"booking-intelligence/internal/models"
)

type Producer struct {
	producer sarama.SyncProducer
	mockMode bool
	log      *logger.Logger
}

func NewProducer(brokers []string, mockMode bool, log *logger.Logger) (*Producer, error) {
	if mockMode {
		log.LogKafka("MOCK_MODE", "producer", "Running in mock mode - no actual Kafka connection")
		return &Producer{
			producer: nil,
			mockMode: true,
			log:      log,
		}, nil
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	log.LogKafka("CONNECTED", "producer", fmt.Sprintf("Connected to Kafka brokers: %v", brokers))
	return NewProducerWith(producer, log), nil
}

// NewProducerWith wraps an existing sync producer, e.g. sarama's mocks.
func NewProducerWith(producer sarama.SyncProducer, log *logger.Logger) *Producer {
	return &Producer{producer: producer, log: log}
}

func (p *Producer) PublishEvent(event *models.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := TopicForEvent(event.Type)

	if p.mockMode {
		p.log.LogKafka("MOCK_PUBLISH", topic, fmt.Sprintf("Mock publishing event: %s for key: %s", event.Type, event.Key))
		p.log.LogKafka("MOCK_DATA", topic, string(data))
		metrics.RecordPublish(topic, nil)
		return nil
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.Key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	metrics.RecordPublish(topic, err)
	if err != nil {
		p.log.Error("KAFKA", fmt.Sprintf("Failed to send message to topic %s: %v", topic, err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.log.LogKafka("PUBLISHED", topic, fmt.Sprintf("Message sent to partition %d at offset %d for key %s", partition, offset, event.Key))
	return nil
}

func TopicForEvent(eventType string) string {
	switch eventType {
	case models.EventRecommendationServed:
		return "recommendation-served"
	case models.EventPriceQuoted:
		return "price-quoted"
	case models.EventModelTrained:
		return "model-trained"
	default:
		return "booking-intelligence-events"
	}
}

func (p *Producer) Close() error {
	if p.mockMode {
		p.log.LogKafka("MOCK_CLOSE", "producer", "Mock producer closed")
		return nil
	}

	if p.producer != nil {
		p.log.LogKafka("CLOSING", "producer", "Closing Kafka producer connection")
		return p.producer.Close()
	}
	return nil
}

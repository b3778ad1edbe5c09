package services

import (
	"context"
	"fmt"
	"time"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(event *models.Event) error
}

// QuoteCache and RecommendationCache are satisfied by *redis.Redis.
type QuoteCache interface {
	SaveQuote(ctx context.Context, quote *models.PriceQuote, ttl time.Duration) error
	GetQuote(ctx context.Context, quoteID string) (*models.PriceQuote, error)
}

type RecommendationCache interface {
	SaveRecommendation(ctx context.Context, key string, resp *models.RecommendationResponse, ttl time.Duration) error
	GetRecommendation(ctx context.Context, key string) (*models.RecommendationResponse, error)
	InvalidateRecommendations(ctx context.Context) error
}

// publish sends an event without failing the caller; analytics events are
// best effort.
func publish(producer EventPublisher, log *logger.Logger, eventType, key string, payload interface{}) {
	if producer == nil {
		return
	}
	event := &models.Event{
		Type:      eventType,
		Key:       key,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	if err := producer.PublishEvent(event); err != nil {
		log.Error("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", eventType, key, err))
	}
}

// defaultCheckIn is tomorrow at midnight UTC.
func defaultCheckIn(now time.Time) time.Time {
	y, m, d := now.UTC().AddDate(0, 0, 1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

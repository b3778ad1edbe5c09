package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("MODEL_RIDGE", "")

	cfg := Load()

	assert.Equal(t, ":8085", cfg.Server.Port)
	assert.Equal(t, []string{"localhost:29092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 0.001, cfg.Model.Ridge)
	assert.Equal(t, 15*time.Minute, cfg.Redis.QuoteTTL)
	assert.Equal(t, 3, cfg.Recommend.DefaultK)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("KAFKA_MOCK", "true")
	t.Setenv("STRIPE_CURRENCY", "EUR")
	t.Setenv("QUOTE_TTL", "2m")
	t.Setenv("RECOMMEND_DEFAULT_K", "not-a-number")

	cfg := Load()

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.MockMode)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.Equal(t, 2*time.Minute, cfg.Redis.QuoteTTL)
	assert.Equal(t, 3, cfg.Recommend.DefaultK)
}

// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_intelligence_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_intelligence_recommendations_total",
			Help: "Recommendations served by source, A/B group and cache outcome",
		},
		[]string{"source", "group", "cached"},
	)

	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_intelligence_quotes_total",
			Help: "Price quotes issued by A/B group",
		},
		[]string{"group"},
	)

	QuoteMultiplier = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_intelligence_quote_multiplier",
			Help:    "Dynamic price multiplier applied to quotes",
			Buckets: []float64{0.7, 0.8, 0.9, 0.95, 1.0, 1.05, 1.1, 1.2, 1.3, 1.45, 1.6},
		},
		[]string{"group"},
	)

	ModelReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_intelligence_model_reloads_total",
			Help: "Model reload attempts by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_intelligence_model_version",
			Help: "Version of the loaded room model, 0 when running on rules",
		},
	)

	BookingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_intelligence_booking_events_total",
			Help: "Booking events consumed by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	KafkaPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_intelligence_kafka_published_total",
			Help: "Events published to Kafka by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	RatePublisherBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_intelligence_rate_publisher_breaker_state",
			Help: "Stripe circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

func ObserveRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func RecordRecommendation(source, group string, cached bool) {
	RecommendationsTotal.WithLabelValues(source, group, strconv.FormatBool(cached)).Inc()
}

func RecordQuote(group string, multiplier float64) {
	QuotesTotal.WithLabelValues(group).Inc()
	QuoteMultiplier.WithLabelValues(group).Observe(multiplier)
}

func RecordModelReload(trigger string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ModelReloadsTotal.WithLabelValues(trigger, outcome).Inc()
}

func RecordBookingEvent(eventType string, err error) {
	outcome := "handled"
	if err != nil {
		outcome = "error"
	}
	BookingEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func RecordPublish(topic string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	KafkaPublishedTotal.WithLabelValues(topic, outcome).Inc()
}

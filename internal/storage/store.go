package storage

import (
	"errors"
	"time"

	"booking-intelligence/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Store interface {
	// Room type catalog
	ListRoomTypes() ([]*models.RoomType, error)
	GetRoomType(code string) (*models.RoomType, error)
	UpsertRoomType(rt *models.RoomType) error

	// Price quotes
	SaveQuote(quote *models.PriceQuote) error
	GetQuote(quoteID string) (*models.PriceQuote, error)
	UpdateQuoteStatus(quoteID string, status models.QuoteStatus) error

	// Training observations, keyed by booking id
	UpsertObservation(obs *models.Observation) error
	GetObservation(bookingID string) (*models.Observation, error)
	ListObservations() ([]*models.Observation, error)

	// Recommendation impressions and A/B funnel
	SaveImpression(imp *models.Impression) error
	GroupStats(since time.Time) (map[models.ABGroup]*models.GroupReport, error)

	HealthCheck() error
	Close() error
}

// emptyReports returns one zeroed report per cohort.
func emptyReports() map[models.ABGroup]*models.GroupReport {
	out := make(map[models.ABGroup]*models.GroupReport, len(models.ABGroups))
	for _, g := range models.ABGroups {
		out[g] = &models.GroupReport{Group: g}
	}
	return out
}

// finishReports turns the accumulated sums into rates and averages.
// AverageNightlyRate holds the nightly sum on entry.
func finishReports(reports map[models.ABGroup]*models.GroupReport) {
	for _, r := range reports {
		if r.Quotes > 0 {
			r.ConversionRate = float64(r.Conversions) / float64(r.Quotes)
			r.AverageNightlyRate = roundCents(r.AverageNightlyRate / float64(r.Quotes))
		} else {
			r.AverageNightlyRate = 0
		}
		r.Revenue = roundCents(r.Revenue)
	}
}

func roundCents(v float64) float64 {
	if v < 0 {
		return -roundCents(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}

package services

import (
	"context"
	"fmt"
	"time"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/storage"
)

const defaultReportWindow = 30 * 24 * time.Hour

type AnalyticsService struct {
	store storage.Store
	log   *logger.Logger
}

func NewAnalyticsService(store storage.Store, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, log: log}
}

// ABReport summarises the funnel per cohort since the given time, defaulting
// to the last 30 days. Groups come back in fixed cohort order.
func (s *AnalyticsService) ABReport(ctx context.Context, since time.Time) ([]models.GroupReport, error) {
	if since.IsZero() {
		since = time.Now().UTC().Add(-defaultReportWindow)
	}
	stats, err := s.store.GroupStats(since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate A/B stats: %w", err)
	}

	out := make([]models.GroupReport, 0, len(models.ABGroups))
	for _, g := range models.ABGroups {
		if r, ok := stats[g]; ok {
			out = append(out, *r)
		} else {
			out = append(out, models.GroupReport{Group: g})
		}
	}
	return out, nil
}

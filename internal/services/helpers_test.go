package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"booking-intelligence/internal/abtest"
	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/pricing"
	"booking-intelligence/internal/recommend"
	"booking-intelligence/internal/redis"
	"booking-intelligence/internal/storage"
)

// 2025-03-10 is a Monday.
var fixedNow = time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

func quietLogger() *logger.Logger { return logger.New(logger.LevelFatal, io.Discard) }

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.Event
}

func (f *fakePublisher) PublishEvent(event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// fakeCache copies values in and out the way a Redis round trip would.
type fakeCache struct {
	mu            sync.Mutex
	quotes        map[string]models.PriceQuote
	recs          map[string]models.RecommendationResponse
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		quotes: map[string]models.PriceQuote{},
		recs:   map[string]models.RecommendationResponse{},
	}
}

func (c *fakeCache) SaveQuote(_ context.Context, quote *models.PriceQuote, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[quote.QuoteID] = *quote
	return nil
}

func (c *fakeCache) GetQuote(_ context.Context, quoteID string) (*models.PriceQuote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[quoteID]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return &q, nil
}

func (c *fakeCache) SaveRecommendation(_ context.Context, key string, resp *models.RecommendationResponse, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *resp
	cp.Rooms = append([]models.RecommendedRoom(nil), resp.Rooms...)
	c.recs[key] = cp
	return nil
}

func (c *fakeCache) GetRecommendation(_ context.Context, key string) (*models.RecommendationResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.recs[key]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	r.Rooms = append([]models.RecommendedRoom(nil), r.Rooms...)
	return &r, nil
}

func (c *fakeCache) InvalidateRecommendations(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = map[string]models.RecommendationResponse{}
	c.invalidations++
	return nil
}

// fakeGroups pins users to cohorts.
type fakeGroups map[string]models.ABGroup

func (f fakeGroups) AssignGroup(_ context.Context, userID string, group models.ABGroup, _ time.Duration) (models.ABGroup, bool, error) {
	if g, ok := f[userID]; ok {
		return g, false, nil
	}
	f[userID] = group
	return group, true, nil
}

func (f fakeGroups) SetGroup(_ context.Context, userID string, group models.ABGroup, _ time.Duration) error {
	f[userID] = group
	return nil
}

type fixture struct {
	store           *storage.InMemoryStore
	engine          *recommend.Engine
	groups          fakeGroups
	cache           *fakeCache
	producer        *fakePublisher
	catalog         *CatalogService
	recommendations *RecommendationService
	pricing         *PricingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := quietLogger()

	f := &fixture{
		store:    storage.NewInMemoryStore(),
		engine:   recommend.NewEngine(recommend.DefaultConfig(), log),
		groups:   fakeGroups{},
		cache:    newFakeCache(),
		producer: &fakePublisher{},
	}
	assigner := abtest.NewAssigner(f.groups, time.Hour, log)
	adjuster := pricing.NewAdjuster()

	f.catalog = NewCatalogService(f.store, f.cache, log)
	f.recommendations = NewRecommendationService(f.engine, assigner, adjuster, f.catalog, f.store, f.cache, f.producer, log, 5*time.Minute)
	f.recommendations.now = func() time.Time { return fixedNow }
	f.pricing = NewPricingService(f.engine, assigner, adjuster, f.catalog, f.store, f.cache, f.producer, log, 15*time.Minute)
	f.pricing.now = func() time.Time { return fixedNow }
	return f
}

// suiteModel prefers suites, then standard rooms, for everyone.
func suiteModel(enc *recommend.Encoder) *recommend.LinearModel {
	names := enc.FeatureNames()
	coef := make([][]float64, len(names))
	for i, n := range names {
		switch n {
		case "room_type=suite":
			coef[i] = []float64{0.5, 0.4, 1.0}
		case "room_type=standard":
			coef[i] = []float64{0.3, 0.3, 0.5}
		default:
			coef[i] = []float64{0, 0, 0}
		}
	}
	return &recommend.LinearModel{
		Version:      1,
		Samples:      50,
		Features:     names,
		Outputs:      recommend.OutputNames(),
		Intercepts:   []float64{0.2, 0.2, 3.0},
		Coefficients: coef,
	}
}

package storage

import (
	"sort"
	"sync"
	"time"

	"booking-intelligence/internal/models"
)

type InMemoryStore struct {
	roomTypes    map[string]*models.RoomType
	quotes       map[string]*models.PriceQuote
	observations map[string]*models.Observation
	impressions  []*models.Impression
	mutex        sync.RWMutex
}

// NewInMemoryStore returns a store seeded with the default catalog.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		roomTypes:    make(map[string]*models.RoomType),
		quotes:       make(map[string]*models.PriceQuote),
		observations: make(map[string]*models.Observation),
	}
	for _, rt := range models.DefaultRoomTypes() {
		s.roomTypes[rt.Code] = rt
	}
	return s
}

func (s *InMemoryStore) ListRoomTypes() ([]*models.RoomType, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*models.RoomType, 0, len(s.roomTypes))
	for _, rt := range s.roomTypes {
		cp := *rt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemoryStore) GetRoomType(code string) (*models.RoomType, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rt, exists := s.roomTypes[code]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (s *InMemoryStore) UpsertRoomType(rt *models.RoomType) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp := *rt
	s.roomTypes[rt.Code] = &cp
	return nil
}

func (s *InMemoryStore) SaveQuote(quote *models.PriceQuote) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp := *quote
	s.quotes[quote.QuoteID] = &cp
	return nil
}

func (s *InMemoryStore) GetQuote(quoteID string) (*models.PriceQuote, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	quote, exists := s.quotes[quoteID]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *quote
	return &cp, nil
}

func (s *InMemoryStore) UpdateQuoteStatus(quoteID string, status models.QuoteStatus) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	quote, exists := s.quotes[quoteID]
	if !exists {
		return ErrNotFound
	}
	quote.Status = status
	return nil
}

func (s *InMemoryStore) UpsertObservation(obs *models.Observation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp := *obs
	s.observations[obs.BookingID] = &cp
	return nil
}

func (s *InMemoryStore) GetObservation(bookingID string) (*models.Observation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	obs, exists := s.observations[bookingID]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *obs
	return &cp, nil
}

func (s *InMemoryStore) ListObservations() ([]*models.Observation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*models.Observation, 0, len(s.observations))
	for _, obs := range s.observations {
		cp := *obs
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	return out, nil
}

func (s *InMemoryStore) SaveImpression(imp *models.Impression) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp := *imp
	s.impressions = append(s.impressions, &cp)
	return nil
}

func (s *InMemoryStore) GroupStats(since time.Time) (map[models.ABGroup]*models.GroupReport, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	reports := emptyReports()
	for _, imp := range s.impressions {
		if r, ok := reports[imp.Group]; ok && !imp.CreatedAt.Before(since) {
			r.Impressions++
		}
	}
	for _, q := range s.quotes {
		r, ok := reports[q.Group]
		if !ok || q.CreatedAt.Before(since) {
			continue
		}
		r.Quotes++
		r.AverageNightlyRate += q.NightlyPrice
		if q.Status == models.QuoteConverted {
			r.Conversions++
			r.Revenue += q.TotalPrice
		}
	}
	finishReports(reports)
	return reports, nil
}

func (s *InMemoryStore) HealthCheck() error { return nil }

func (s *InMemoryStore) Close() error { return nil }

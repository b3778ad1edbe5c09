package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/metrics"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/storage"
)

// BookingEventService folds booking-platform events into quote state and
// training observations. Every handler is an upsert, so redelivered events
// are harmless.
type BookingEventService struct {
	store storage.Store
	cache QuoteCache
	log   *logger.Logger
}

func NewBookingEventService(store storage.Store, cache QuoteCache, log *logger.Logger) *BookingEventService {
	return &BookingEventService{store: store, cache: cache, log: log}
}

// Handle returns an error only for failures worth redelivering.
func (s *BookingEventService) Handle(event *models.BookingEvent) error {
	if event.BookingID == "" {
		s.log.Warn("BOOKING", fmt.Sprintf("Ignoring %s event without booking id", event.Type))
		return nil
	}

	var err error
	switch event.Type {
	case models.EventBookingConfirmed:
		err = s.setBooked(event, true, models.QuoteConverted)
	case models.EventBookingCancelled, models.EventBookingRefunded:
		err = s.setBooked(event, false, models.QuoteCancelled)
	case models.EventReviewCreated:
		err = s.setRating(event)
	default:
		s.log.Info("BOOKING", fmt.Sprintf("Ignoring event type %q for booking %s", event.Type, event.BookingID))
		return nil
	}

	metrics.RecordBookingEvent(event.Type, err)
	if err != nil {
		s.log.Error("BOOKING", fmt.Sprintf("Failed to apply %s for booking %s: %v", event.Type, event.BookingID, err))
		return err
	}
	s.log.Info("BOOKING", fmt.Sprintf("Applied %s for booking %s", event.Type, event.BookingID))
	return nil
}

func (s *BookingEventService) setBooked(event *models.BookingEvent, booked bool, quoteStatus models.QuoteStatus) error {
	roomType := event.RoomType
	if event.QuoteID != "" {
		quote, err := s.updateQuote(event.QuoteID, quoteStatus)
		if err != nil {
			return err
		}
		if roomType == "" && quote != nil {
			roomType = quote.RoomType
		}
	}

	obs, err := s.observation(event, roomType)
	if err != nil {
		return err
	}
	if obs == nil {
		s.log.Warn("BOOKING", fmt.Sprintf("Booking %s has no room type, not recorded for training", event.BookingID))
		return nil
	}
	obs.Booked = booked
	return s.store.UpsertObservation(obs)
}

func (s *BookingEventService) setRating(event *models.BookingEvent) error {
	if event.Rating < 1 || event.Rating > 5 {
		s.log.Warn("BOOKING", fmt.Sprintf("Ignoring review for booking %s with rating %d", event.BookingID, event.Rating))
		return nil
	}

	existing, err := s.store.GetObservation(event.BookingID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load observation: %w", err)
	}

	obs, err := s.observation(event, event.RoomType)
	if err != nil {
		return err
	}
	if obs == nil {
		s.log.Warn("BOOKING", fmt.Sprintf("Review for unknown booking %s has no room type", event.BookingID))
		return nil
	}
	if existing == nil {
		// A review implies a completed stay.
		obs.Booked = true
	}
	obs.Rating = event.Rating
	return s.store.UpsertObservation(obs)
}

// observation merges the event into the stored row for its booking. It
// returns nil when no room type is known.
func (s *BookingEventService) observation(event *models.BookingEvent, roomType string) (*models.Observation, error) {
	obs, err := s.store.GetObservation(event.BookingID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load observation: %w", err)
		}
		at := event.OccurredAt
		if at.IsZero() {
			at = time.Now()
		}
		obs = &models.Observation{BookingID: event.BookingID, CreatedAt: at.UTC()}
	}

	if event.UserID != "" {
		obs.UserID = event.UserID
	}
	if roomType != "" {
		obs.RoomType = strings.ToLower(strings.TrimSpace(roomType))
	}
	if event.Profile != nil {
		p := event.Profile.Normalized()
		obs.UserType = p.UserType
		obs.Budget = p.Budget
		obs.Season = p.Season
		obs.StayLength = p.StayLength
		obs.PartySize = p.PartySize
	}
	if obs.RoomType == "" {
		return nil, nil
	}
	return obs, nil
}

// updateQuote moves the quote to status and refreshes the cached copy.
// Unknown quotes are not an error.
func (s *BookingEventService) updateQuote(quoteID string, status models.QuoteStatus) (*models.PriceQuote, error) {
	if err := s.store.UpdateQuoteStatus(quoteID, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("BOOKING", fmt.Sprintf("Quote %s not found", quoteID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	quote, err := s.store.GetQuote(quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quote: %w", err)
	}
	if s.cache != nil {
		if ttl := time.Until(quote.ExpiresAt); ttl > 0 {
			if err := s.cache.SaveQuote(context.Background(), quote, ttl); err != nil {
				s.log.Warn("REDIS", fmt.Sprintf("Failed to refresh cached quote %s: %v", quoteID, err))
			}
		}
	}
	return quote, nil
}

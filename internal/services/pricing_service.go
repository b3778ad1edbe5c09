package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-intelligence/internal/abtest"
	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/metrics"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/pricing"
	"booking-intelligence/internal/recommend"
	"booking-intelligence/internal/redis"
	"booking-intelligence/internal/storage"
	"booking-intelligence/internal/utils"
)

var (
	ErrQuoteNotFound  = errors.New("quote not found")
	ErrQuoteExpired   = errors.New("quote has expired")
	ErrInvalidCheckIn = errors.New("check-in date is in the past")
)

type PricingService struct {
	engine   *recommend.Engine
	assigner *abtest.Assigner
	adjuster *pricing.Adjuster
	catalog  *CatalogService
	store    storage.Store
	cache    QuoteCache
	producer EventPublisher
	log      *logger.Logger
	quoteTTL time.Duration
	now      func() time.Time
}

func NewPricingService(
	engine *recommend.Engine,
	assigner *abtest.Assigner,
	adjuster *pricing.Adjuster,
	catalog *CatalogService,
	store storage.Store,
	cache QuoteCache,
	producer EventPublisher,
	log *logger.Logger,
	quoteTTL time.Duration,
) *PricingService {
	return &PricingService{
		engine:   engine,
		assigner: assigner,
		adjuster: adjuster,
		catalog:  catalog,
		store:    store,
		cache:    cache,
		producer: producer,
		log:      log,
		quoteTTL: quoteTTL,
		now:      time.Now,
	}
}

func (s *PricingService) Quote(ctx context.Context, userID string, req *models.QuoteRequest) (*models.PriceQuote, error) {
	code := strings.ToLower(strings.TrimSpace(req.RoomType))
	rt, err := s.catalog.ActiveRoomType(code)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.CheckIn.UTC().Before(today) {
		return nil, ErrInvalidCheckIn
	}
	nights := req.Nights
	if nights < 1 {
		nights = 1
	}

	assignment := s.assigner.Assign(ctx, userID)

	var probability *float64
	if assignment.Group == models.GroupPriceOptimized {
		profile := models.Profile{}
		if req.Profile != nil {
			profile = *req.Profile
		}
		profile.UserID = userID
		if profile.CheckIn.IsZero() {
			profile.CheckIn = req.CheckIn
		}
		if profile.Nights == 0 {
			profile.Nights = nights
		}
		pred, source := s.engine.Predict(profile, code, true)
		p := pred.BookingProbability
		probability = &p
		s.log.LogPricing("DEMAND", code, fmt.Sprintf("booking probability %.3f from %s", p, source))
	}

	breakdown, err := s.adjuster.Quote(pricing.QuoteInput{
		BasePrice:          rt.BasePrice,
		Group:              assignment.Group,
		At:                 now,
		CheckIn:            req.CheckIn,
		Nights:             nights,
		BookingProbability: probability,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to price room type %s: %w", code, err)
	}

	quote := &models.PriceQuote{
		QuoteID:      utils.GenerateQuoteID(),
		UserID:       userID,
		RoomType:     code,
		Group:        breakdown.Group,
		BasePrice:    breakdown.BasePrice,
		Multiplier:   breakdown.Multiplier,
		NightlyPrice: breakdown.NightlyPrice,
		TotalPrice:   breakdown.TotalPrice,
		Currency:     rt.Currency,
		Factors:      breakdown.Factors,
		CheckIn:      req.CheckIn.UTC(),
		Nights:       breakdown.Nights,
		Status:       models.QuoteQuoted,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.quoteTTL),
	}

	if err := s.store.SaveQuote(quote); err != nil {
		s.log.Error("PRICING", fmt.Sprintf("Failed to save quote %s: %v", quote.QuoteID, err))
		return nil, fmt.Errorf("failed to save quote: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SaveQuote(ctx, quote, s.quoteTTL); err != nil {
			s.log.Warn("REDIS", fmt.Sprintf("Failed to cache quote %s: %v", quote.QuoteID, err))
		}
	}

	metrics.RecordQuote(string(quote.Group), quote.Multiplier)
	s.log.LogPricing("QUOTE", quote.QuoteID, fmt.Sprintf("%s x%d for %s: %.2f -> %.2f/night (x%.4f, %s)",
		code, quote.Nights, userID, quote.BasePrice, quote.NightlyPrice, quote.Multiplier, quote.Group))

	publish(s.producer, s.log, models.EventPriceQuoted, quote.QuoteID, quote)
	return quote, nil
}

// GetQuote reads through the cache. An open quote past its expiry returns
// ErrQuoteExpired; converted and cancelled quotes stay readable.
func (s *PricingService) GetQuote(ctx context.Context, quoteID string) (*models.PriceQuote, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return s.checkExpiry(quote)
}

// GetQuoteForUser is GetQuote restricted to the quote's owner. Other users
// get ErrQuoteNotFound whether or not the quote has expired.
func (s *PricingService) GetQuoteForUser(ctx context.Context, quoteID, userID string) (*models.PriceQuote, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.UserID != userID {
		return nil, ErrQuoteNotFound
	}
	return s.checkExpiry(quote)
}

func (s *PricingService) loadQuote(ctx context.Context, quoteID string) (*models.PriceQuote, error) {
	if s.cache != nil {
		cached, err := s.cache.GetQuote(ctx, quoteID)
		switch {
		case err == nil:
			return cached, nil
		case !errors.Is(err, redis.ErrCacheMiss):
			s.log.Warn("REDIS", fmt.Sprintf("Quote cache read failed for %s: %v", quoteID, err))
		}
	}

	stored, err := s.store.GetQuote(quoteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	return stored, nil
}

func (s *PricingService) checkExpiry(quote *models.PriceQuote) (*models.PriceQuote, error) {
	if quote.Status == models.QuoteQuoted && s.now().After(quote.ExpiresAt) {
		return nil, ErrQuoteExpired
	}
	return quote, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/storage"
)

var (
	ErrRoomTypeNotFound = errors.New("room type not found")
	ErrInvalidRoomType  = errors.New("unknown room type code")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO code")
	ErrInvalidBasePrice = errors.New("base price must be greater than zero")
)

type CatalogService struct {
	store storage.Store
	cache RecommendationCache
	log   *logger.Logger
}

func NewCatalogService(store storage.Store, cache RecommendationCache, log *logger.Logger) *CatalogService {
	return &CatalogService{store: store, cache: cache, log: log}
}

// ListRoomTypes returns the catalog in encoder order.
func (s *CatalogService) ListRoomTypes(ctx context.Context, includeInactive bool) ([]*models.RoomType, error) {
	all, err := s.store.ListRoomTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	byCode := make(map[string]*models.RoomType, len(all))
	for _, rt := range all {
		byCode[rt.Code] = rt
	}
	out := make([]*models.RoomType, 0, len(all))
	for _, code := range models.RoomTypeCodes {
		if rt, ok := byCode[code]; ok && (includeInactive || rt.Active) {
			out = append(out, rt)
		}
	}
	return out, nil
}

// ActiveRoomType returns the room type if it exists and is bookable.
func (s *CatalogService) ActiveRoomType(code string) (*models.RoomType, error) {
	rt, err := s.store.GetRoomType(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("failed to load room type: %w", err)
	}
	if !rt.Active {
		return nil, ErrRoomTypeNotFound
	}
	return rt, nil
}

func (s *CatalogService) UpsertRoomType(ctx context.Context, code string, req *models.RoomTypeUpdateRequest) (*models.RoomType, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !models.IsRoomType(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRoomType, code)
	}
	if req.BasePrice <= 0 {
		return nil, ErrInvalidBasePrice
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency != "" && !isCurrencyCode(currency) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, req.Currency)
	}

	rt, err := s.store.GetRoomType(code)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load room type: %w", err)
		}
		rt = &models.RoomType{Code: code, Currency: "usd", MaxGuests: 2, Active: true}
	}

	rt.BasePrice = req.BasePrice
	if req.Name != "" {
		rt.Name = req.Name
	}
	if rt.Name == "" {
		rt.Name = strings.ToUpper(code[:1]) + code[1:]
	}
	if currency != "" {
		rt.Currency = currency
	}
	if req.MaxGuests > 0 {
		rt.MaxGuests = req.MaxGuests
	}
	if req.Active != nil {
		rt.Active = *req.Active
	}
	rt.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertRoomType(rt); err != nil {
		return nil, fmt.Errorf("failed to save room type: %w", err)
	}
	s.log.LogPricing("CATALOG", code, fmt.Sprintf("base price %.2f %s, active=%t", rt.BasePrice, rt.Currency, rt.Active))

	if s.cache != nil {
		if err := s.cache.InvalidateRecommendations(ctx); err != nil {
			s.log.Warn("REDIS", fmt.Sprintf("Failed to invalidate recommendation cache: %v", err))
		}
	}
	return rt, nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

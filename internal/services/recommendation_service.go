package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

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

type RecommendationService struct {
	engine   *recommend.Engine
	assigner *abtest.Assigner
	adjuster *pricing.Adjuster
	catalog  *CatalogService
	store    storage.Store
	cache    RecommendationCache
	producer EventPublisher
	log      *logger.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

func NewRecommendationService(
	engine *recommend.Engine,
	assigner *abtest.Assigner,
	adjuster *pricing.Adjuster,
	catalog *CatalogService,
	store storage.Store,
	cache RecommendationCache,
	producer EventPublisher,
	log *logger.Logger,
	cacheTTL time.Duration,
) *RecommendationService {
	return &RecommendationService{
		engine:   engine,
		assigner: assigner,
		adjuster: adjuster,
		catalog:  catalog,
		store:    store,
		cache:    cache,
		producer: producer,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Recommend ranks room types for the caller. userID comes from the bearer
// token and overrides any id in the profile.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	profile := req.Profile
	if userID != "" {
		profile.UserID = userID
	}
	profile = profile.Normalized()

	assignment := s.assigner.Assign(ctx, profile.UserID)
	group := assignment.Group
	limit := s.engine.ResolveK(req.Limit)

	key := cacheKey(group, profile, req.RoomTypes, limit)
	if s.cache != nil && s.cacheTTL > 0 {
		cached, err := s.cache.GetRecommendation(ctx, key)
		switch {
		case err == nil:
			cached.UserID = profile.UserID
			cached.Cached = true
			s.served(cached)
			return cached, nil
		case !errors.Is(err, redis.ErrCacheMiss):
			s.log.Warn("REDIS", fmt.Sprintf("Recommendation cache read failed: %v", err))
		}
	}

	candidates, err := s.candidates(ctx, req.RoomTypes)
	if err != nil {
		return nil, err
	}

	engineK := limit
	if group == models.GroupPriceOptimized {
		// Score everything, re-rank by revenue, then cut.
		engineK = len(models.RoomTypeCodes)
	}
	ranked, err := s.engine.Recommend(ctx, recommend.Request{
		Profile:   profile,
		RoomTypes: candidates,
		K:         engineK,
		UseModel:  group != models.GroupControl,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	checkIn := profile.CheckIn
	if checkIn.IsZero() {
		checkIn = defaultCheckIn(now)
	}

	rooms := make([]models.RecommendedRoom, 0, len(ranked.Items))
	for _, item := range ranked.Items {
		room := models.RecommendedRoom{
			RoomType:           item.RoomType,
			Compatibility:      round4(item.Compatibility),
			BookingProbability: round4(item.BookingProbability),
			PredictedRating:    round4(item.Rating),
			Reason:             item.Reason,
		}
		if rt, err := s.catalog.ActiveRoomType(item.RoomType); err == nil {
			p := item.BookingProbability
			quote, err := s.adjuster.Quote(pricing.QuoteInput{
				BasePrice:          rt.BasePrice,
				Group:              group,
				At:                 now,
				CheckIn:            checkIn,
				Nights:             profile.Nights,
				BookingProbability: &p,
			})
			if err == nil {
				room.NightlyPrice = quote.NightlyPrice
				room.Currency = rt.Currency
				room.ExpectedRevenue = round2(item.BookingProbability * quote.NightlyPrice)
			}
		}
		rooms = append(rooms, room)
	}

	if group == models.GroupPriceOptimized {
		RankByRevenue(rooms)
	}
	if len(rooms) > limit {
		rooms = rooms[:limit]
	}

	resp := &models.RecommendationResponse{
		UserID:       profile.UserID,
		Group:        group,
		Source:       ranked.Source,
		ModelVersion: ranked.ModelVersion,
		Rooms:        rooms,
		GeneratedAt:  now.UTC(),
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SaveRecommendation(ctx, key, resp, s.cacheTTL); err != nil {
			s.log.Warn("REDIS", fmt.Sprintf("Recommendation cache write failed: %v", err))
		}
	}

	s.served(resp)
	return resp, nil
}

// served records the impression, metrics and analytics event for a response.
func (s *RecommendationService) served(resp *models.RecommendationResponse) {
	top := ""
	if len(resp.Rooms) > 0 {
		top = resp.Rooms[0].RoomType
	}
	imp := &models.Impression{
		ImpressionID: utils.GenerateImpressionID(),
		UserID:       resp.UserID,
		Group:        resp.Group,
		Source:       resp.Source,
		TopRoomType:  top,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.SaveImpression(imp); err != nil {
		s.log.Warn("RECOMMEND", fmt.Sprintf("Failed to record impression: %v", err))
	}

	metrics.RecordRecommendation(resp.Source, string(resp.Group), resp.Cached)
	s.log.LogRecommend("SERVED", resp.UserID, fmt.Sprintf("group=%s source=%s top=%s rooms=%d cached=%t",
		resp.Group, resp.Source, top, len(resp.Rooms), resp.Cached))

	publish(s.producer, s.log, models.EventRecommendationServed, imp.ImpressionID, map[string]interface{}{
		"impression_id": imp.ImpressionID,
		"user_id":       resp.UserID,
		"ab_group":      resp.Group,
		"source":        resp.Source,
		"model_version": resp.ModelVersion,
		"rooms":         resp.Rooms,
		"cached":        resp.Cached,
	})
}

// candidates intersects the requested room types with the active catalog.
func (s *RecommendationService) candidates(ctx context.Context, requested []string) ([]string, error) {
	active, err := s.catalog.ListRoomTypes(ctx, false)
	if err != nil {
		s.log.Warn("RECOMMEND", fmt.Sprintf("Catalog unavailable, ranking requested room types as-is: %v", err))
		return requested, nil
	}
	if len(requested) == 0 {
		out := make([]string, 0, len(active))
		for _, rt := range active {
			out = append(out, rt.Code)
		}
		if len(out) == 0 {
			return nil, recommend.ErrNoCandidates
		}
		return out, nil
	}

	isActive := make(map[string]bool, len(active))
	for _, rt := range active {
		isActive[rt.Code] = true
	}
	var out []string
	for _, code := range requested {
		code = strings.ToLower(strings.TrimSpace(code))
		if isActive[code] {
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		return nil, recommend.ErrNoCandidates
	}
	return out, nil
}

// RankByRevenue orders by expected revenue, then compatibility, then name.
func RankByRevenue(rooms []models.RecommendedRoom) {
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i], rooms[j]
		if a.ExpectedRevenue != b.ExpectedRevenue {
			return a.ExpectedRevenue > b.ExpectedRevenue
		}
		if a.Compatibility != b.Compatibility {
			return a.Compatibility > b.Compatibility
		}
		return a.RoomType < b.RoomType
	})
}

func cacheKey(group models.ABGroup, p models.Profile, roomTypes []string, limit int) string {
	types := make([]string, 0, len(roomTypes))
	for _, rt := range roomTypes {
		types = append(types, strings.ToLower(strings.TrimSpace(rt)))
	}
	sort.Strings(types)

	checkIn := ""
	if !p.CheckIn.IsZero() {
		checkIn = p.CheckIn.UTC().Format("2006-01-02")
	}
	data, _ := json.Marshal([]interface{}{
		p.UserType, p.Budget, p.Season, p.StayLength, p.PartySize, checkIn, p.Nights, types, limit,
	})
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%s:%x", group, h.Sum64())
}

func round2(v float64) float64 { return float64(int64(v*100+0.5)) / 100 }

func round4(v float64) float64 { return float64(int64(v*10000+0.5)) / 10000 }

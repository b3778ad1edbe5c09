package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-intelligence/internal/models"
	"booking-intelligence/internal/recommend"
)

func roomCodes(rooms []models.RecommendedRoom) []string {
	out := make([]string, len(rooms))
	for i, r := range rooms {
		out[i] = r.RoomType
	}
	return out
}

func TestRecommendControlUsesRules(t *testing.T) {
	f := newFixture(t)
	f.groups["u-control"] = models.GroupControl
	require.NoError(t, f.engine.SetModel(suiteModel(f.engine.Encoder())))

	resp, err := f.recommendations.Recommend(context.Background(), "u-control", &models.RecommendationRequest{
		Profile: models.Profile{UserType: "family"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.GroupControl, resp.Group)
	assert.Equal(t, recommend.SourceRules, resp.Source)
	assert.Equal(t, []string{"family", "suite", "deluxe"}, roomCodes(resp.Rooms))

	top := resp.Rooms[0]
	assert.Equal(t, 0.95, top.Compatibility)
	assert.Equal(t, 220.0, top.NightlyPrice)
	assert.Equal(t, "usd", top.Currency)
	assert.Equal(t, 104.5, top.ExpectedRevenue)
	assert.Equal(t, 1, f.producer.count(models.EventRecommendationServed))
}

func TestRecommendAIEnhancedUsesModel(t *testing.T) {
	f := newFixture(t)
	f.groups["u-ai"] = models.GroupAIEnhanced
	require.NoError(t, f.engine.SetModel(suiteModel(f.engine.Encoder())))

	resp, err := f.recommendations.Recommend(context.Background(), "u-ai", &models.RecommendationRequest{
		Profile: models.Profile{UserType: "family"},
		Limit:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, recommend.SourceModel, resp.Source)
	assert.Equal(t, 1, resp.ModelVersion)
	assert.Equal(t, []string{"suite", "standard"}, roomCodes(resp.Rooms))
	assert.Equal(t, 0.7, resp.Rooms[0].Compatibility)
}

func TestRecommendPriceOptimizedRanksByRevenue(t *testing.T) {
	f := newFixture(t)
	f.groups["u-rev"] = models.GroupPriceOptimized
	require.NoError(t, f.engine.SetModel(suiteModel(f.engine.Encoder())))

	// Thursday in March, ten days out, asked at 10:00.
	checkIn := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	resp, err := f.recommendations.Recommend(context.Background(), "u-rev", &models.RecommendationRequest{
		Profile: models.Profile{UserType: "solo", CheckIn: checkIn, Nights: 1},
		Limit:   3,
	})
	require.NoError(t, err)

	// By compatibility the third room would be deluxe; by expected revenue
	// executive wins.
	assert.Equal(t, []string{"suite", "standard", "executive"}, roomCodes(resp.Rooms))
	assert.Equal(t, 304.0, resp.Rooms[0].NightlyPrice)
	assert.Equal(t, 182.4, resp.Rooms[0].ExpectedRevenue)
	assert.Equal(t, 227.24, resp.Rooms[2].NightlyPrice)
}

func TestRecommendServesFromCache(t *testing.T) {
	f := newFixture(t)
	f.groups["u-cache"] = models.GroupControl
	req := &models.RecommendationRequest{Profile: models.Profile{UserType: "business"}}

	first, err := f.recommendations.Recommend(context.Background(), "u-cache", req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := f.recommendations.Recommend(context.Background(), "u-cache", req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, roomCodes(first.Rooms), roomCodes(second.Rooms))

	stats, err := f.store.GroupStats(fixedNow.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, stats[models.GroupControl].Impressions)
	assert.Equal(t, 2, f.producer.count(models.EventRecommendationServed))
}

func TestRecommendSkipsInactiveRoomTypes(t *testing.T) {
	f := newFixture(t)
	f.groups["u-inactive"] = models.GroupControl
	inactive := false
	_, err := f.catalog.UpsertRoomType(context.Background(), "suite", &models.RoomTypeUpdateRequest{BasePrice: 320, Active: &inactive})
	require.NoError(t, err)

	resp, err := f.recommendations.Recommend(context.Background(), "u-inactive", &models.RecommendationRequest{
		Profile: models.Profile{UserType: "family"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"family", "deluxe", "standard"}, roomCodes(resp.Rooms))

	_, err = f.recommendations.Recommend(context.Background(), "u-inactive", &models.RecommendationRequest{
		Profile:   models.Profile{UserType: "family"},
		RoomTypes: []string{"suite", "penthouse"},
	})
	assert.ErrorIs(t, err, recommend.ErrNoCandidates)
}

func TestRankByRevenueTieBreaks(t *testing.T) {
	rooms := []models.RecommendedRoom{
		{RoomType: "suite", ExpectedRevenue: 50, Compatibility: 0.4},
		{RoomType: "deluxe", ExpectedRevenue: 50, Compatibility: 0.4},
		{RoomType: "family", ExpectedRevenue: 50, Compatibility: 0.9},
		{RoomType: "standard", ExpectedRevenue: 80},
	}
	RankByRevenue(rooms)
	assert.Equal(t, []string{"standard", "family", "deluxe", "suite"}, roomCodes(rooms))
}

package recommend

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelFatal, io.Discard)
}

// testModel favours executive rooms, then family rooms, and adds a small
// bonus for business guests.
func testModel(enc *Encoder, version int) *LinearModel {
	names := enc.FeatureNames()
	coef := make([][]float64, len(names))
	for i, n := range names {
		switch n {
		case "room_type=executive":
			coef[i] = []float64{0.5, 0.4, 1.0}
		case "room_type=family":
			coef[i] = []float64{0.3, 0.1, 0.5}
		case "user_type=business":
			coef[i] = []float64{0.1, 0.0, 0.0}
		default:
			coef[i] = []float64{0, 0, 0}
		}
	}
	return &LinearModel{
		Version:      version,
		Samples:      100,
		Features:     names,
		Outputs:      OutputNames(),
		Intercepts:   []float64{0.3, 0.2, 3.0},
		Coefficients: coef,
	}
}

func TestRecommendFallsBackToRulesWithoutModel(t *testing.T) {
	e := NewEngine(Config{DefaultK: 3}, quietLogger())

	resp, err := e.Recommend(context.Background(), Request{
		Profile:  models.Profile{UserType: "family"},
		UseModel: true,
	})
	require.NoError(t, err)

	assert.Equal(t, SourceRules, resp.Source)
	assert.Equal(t, 5, resp.Candidates)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, models.RoomFamily, resp.Items[0].RoomType)
	assert.Equal(t, 0.95, resp.Items[0].Compatibility)
	assert.InDelta(t, 0.475, resp.Items[0].BookingProbability, 1e-9)
	assert.InDelta(t, 4.8, resp.Items[0].Rating, 1e-9)
	assert.Equal(t, models.RoomSuite, resp.Items[1].RoomType)
}

func TestRecommendWithModel(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	require.NoError(t, e.SetModel(testModel(e.Encoder(), 4)))

	resp, err := e.Recommend(context.Background(), Request{
		Profile:  models.Profile{UserType: "business"},
		K:        5,
		UseModel: true,
	})
	require.NoError(t, err)

	assert.Equal(t, SourceModel, resp.Source)
	assert.Equal(t, 4, resp.ModelVersion)
	got := make([]string, len(resp.Items))
	for i, it := range resp.Items {
		got[i] = it.RoomType
	}
	// Ties at equal compatibility and probability are broken by name.
	assert.Equal(t, []string{"executive", "family", "deluxe", "standard", "suite"}, got)
	assert.InDelta(t, 0.9, resp.Items[0].Compatibility, 1e-9)
	assert.Contains(t, resp.Items[0].Reason, "business")
}

func TestRecommendUseModelFalseForcesRules(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	require.NoError(t, e.SetModel(testModel(e.Encoder(), 1)))

	resp, err := e.Recommend(context.Background(), Request{Profile: models.Profile{UserType: "solo"}})
	require.NoError(t, err)
	assert.Equal(t, SourceRules, resp.Source)
	assert.Equal(t, models.RoomStandard, resp.Items[0].RoomType)
}

func TestRecommendFallsBackToRulesOnPredictionError(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	m := testModel(e.Encoder(), 3)
	for i, n := range m.Features {
		if n == "room_type=suite" {
			m.Coefficients[i] = []float64{math.Inf(1), 0, 0}
		}
	}
	require.NoError(t, e.SetModel(m))

	resp, err := e.Recommend(context.Background(), Request{
		Profile:  models.Profile{UserType: "business"},
		K:        5,
		UseModel: true,
	})
	require.NoError(t, err)

	assert.Equal(t, SourceRules, resp.Source)
	assert.Zero(t, resp.ModelVersion)
	rules := RuleScores("business")
	require.Len(t, resp.Items, len(rules))
	for i, rs := range rules {
		assert.Equal(t, rs.RoomType, resp.Items[i].RoomType)
		assert.Equal(t, RulePrediction(rs.Score), resp.Items[i].Prediction)
	}
}

func TestRecommendCandidatesAndLimits(t *testing.T) {
	e := NewEngine(Config{DefaultK: 2, MaxK: 10}, quietLogger())

	resp, err := e.Recommend(context.Background(), Request{
		Profile:   models.Profile{UserType: "couple"},
		RoomTypes: []string{"Family", "standard", "penthouse", "standard"},
		K:         99,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Candidates)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, models.RoomStandard, resp.Items[0].RoomType)

	_, err = e.Recommend(context.Background(), Request{RoomTypes: []string{"penthouse"}})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestRecommendHonoursCancelledContext(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Recommend(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReloadKeepsModelOnFailure(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, SaveModel(good, testModel(e.Encoder(), 2)))

	require.NoError(t, e.Reload(good))
	assert.Equal(t, 2, e.Model().Version)

	err := e.Reload(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	assert.Equal(t, 2, e.Model().Version)

	info := e.Info()
	assert.True(t, info.Loaded)
	assert.Equal(t, SourceModel, info.Source)
	assert.NotEmpty(t, info.LoadError)
}

func TestSetModelValidates(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	bad := testModel(e.Encoder(), 1)
	bad.Features = bad.Features[:3]

	assert.ErrorIs(t, e.SetModel(bad), ErrModelShape)
	assert.Nil(t, e.Model())

	require.NoError(t, e.SetModel(nil))
	assert.False(t, e.Info().Loaded)
}

func TestPredictSingleRoom(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())

	pred, source := e.Predict(models.Profile{UserType: "business"}, "Executive", true)
	assert.Equal(t, SourceRules, source)
	assert.Equal(t, 0.9, pred.Compatibility)

	require.NoError(t, e.SetModel(testModel(e.Encoder(), 1)))
	pred, source = e.Predict(models.Profile{UserType: "business"}, models.RoomExecutive, true)
	assert.Equal(t, SourceModel, source)
	assert.InDelta(t, 0.6, pred.BookingProbability, 1e-9)
}

func TestEngineConcurrentUse(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			_ = e.SetModel(testModel(e.Encoder(), v))
		}(i)
		go func() {
			defer wg.Done()
			resp, err := e.Recommend(context.Background(), Request{Profile: models.Profile{UserType: "leisure"}, UseModel: true})
			assert.NoError(t, err)
			assert.NotEmpty(t, resp.Items)
		}()
	}
	wg.Wait()
}

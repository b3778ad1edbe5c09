package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/metrics"
	"booking-intelligence/internal/models"
)

const (
	SourceModel = "model"
	SourceRules = "rules"
)

var ErrNoCandidates = errors.New("no valid room types to rank")

type Config struct {
	DefaultK int
	MaxK     int
}

func DefaultConfig() Config {
	return Config{DefaultK: 3, MaxK: len(models.RoomTypeCodes)}
}

type Request struct {
	Profile   models.Profile
	RoomTypes []string
	K         int
	// UseModel selects the regression model; false forces the rule table.
	UseModel bool
}

type Scored struct {
	RoomType string
	Prediction
	Reason string
}

type Response struct {
	Items        []Scored
	Source       string
	ModelVersion int
	Candidates   int
}

// Engine ranks room types for a profile. It holds the current model and
// falls back to the rule table when none is loaded. Safe for concurrent use.
type Engine struct {
	cfg     Config
	encoder *Encoder
	log     *logger.Logger

	mu      sync.RWMutex
	model   *LinearModel
	path    string
	loadErr error
}

func NewEngine(cfg Config, log *logger.Logger) *Engine {
	def := DefaultConfig()
	if cfg.MaxK <= 0 || cfg.MaxK > def.MaxK {
		cfg.MaxK = def.MaxK
	}
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = def.DefaultK
	}
	if cfg.DefaultK > cfg.MaxK {
		cfg.DefaultK = cfg.MaxK
	}
	return &Engine{cfg: cfg, encoder: NewEncoder(), log: log}
}

func (e *Engine) Encoder() *Encoder { return e.encoder }

// SetModel validates and installs m. A nil model switches the engine to
// rules.
func (e *Engine) SetModel(m *LinearModel) error {
	if m != nil {
		if err := m.Validate(e.encoder.FeatureNames()); err != nil {
			return err
		}
	}
	e.mu.Lock()
	e.model = m
	e.loadErr = nil
	e.mu.Unlock()
	setVersionGauge(m)
	return nil
}

func (e *Engine) Model() *LinearModel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// Reload reads the model at path. On failure the current model stays in
// place and the error is remembered for Info.
func (e *Engine) Reload(path string) error {
	m, err := LoadModel(path, e.encoder.FeatureNames())

	e.mu.Lock()
	defer e.mu.Unlock()
	e.path = path
	if err != nil {
		e.loadErr = err
		e.log.Warn("MODEL", fmt.Sprintf("Model reload from %s failed, keeping current model: %v", path, err))
		return err
	}
	e.model = m
	e.loadErr = nil
	setVersionGauge(m)
	e.log.Info("MODEL", fmt.Sprintf("Loaded model v%d (%d samples) from %s", m.Version, m.Samples, path))
	return nil
}

func (e *Engine) Info() models.ModelInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	info := models.ModelInfo{Path: e.path, Source: SourceRules}
	if e.loadErr != nil {
		info.LoadError = e.loadErr.Error()
	}
	if e.model != nil {
		info.Loaded = true
		info.Source = SourceModel
		info.Version = e.model.Version
		info.Samples = e.model.Samples
		info.TrainedAt = e.model.TrainedAt
	}
	return info
}

// Predict scores a single room type. It reports which source produced the
// prediction.
func (e *Engine) Predict(p models.Profile, roomType string, useModel bool) (Prediction, string) {
	p = p.Normalized()
	roomType = normalizeRoomType(roomType)
	if m := e.Model(); useModel && m != nil {
		pred, err := m.Predict(e.encoder.Encode(p, roomType))
		if err == nil {
			return pred, SourceModel
		}
		e.log.Warn("RECOMMEND", fmt.Sprintf("Model prediction failed, using rules: %v", err))
	}
	for _, rs := range RuleScores(p.UserType) {
		if rs.RoomType == roomType {
			return RulePrediction(rs.Score), SourceRules
		}
	}
	return RulePrediction(0), SourceRules
}

func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile := req.Profile.Normalized()
	candidates := e.candidates(req.RoomTypes)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	k := e.ResolveK(req.K)

	resp := &Response{Candidates: len(candidates)}

	var items []Scored
	if m := e.Model(); req.UseModel && m != nil {
		scored, err := e.scoreWithModel(m, profile, candidates)
		if err == nil {
			items = scored
			resp.Source = SourceModel
			resp.ModelVersion = m.Version
		} else {
			e.log.Warn("RECOMMEND", fmt.Sprintf("Model scoring failed, falling back to rules: %v", err))
		}
	}
	if items == nil {
		items = e.scoreWithRules(profile, candidates)
		resp.Source = SourceRules
	}

	Rank(items)
	if len(items) > k {
		items = items[:k]
	}
	resp.Items = items
	return resp, nil
}

// ResolveK applies the default and the cap to a requested result count.
func (e *Engine) ResolveK(k int) int {
	if k <= 0 {
		k = e.cfg.DefaultK
	}
	if k > e.cfg.MaxK {
		k = e.cfg.MaxK
	}
	return k
}

// Rank orders by compatibility, then booking probability, then name.
func Rank(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Compatibility != b.Compatibility {
			return a.Compatibility > b.Compatibility
		}
		if a.BookingProbability != b.BookingProbability {
			return a.BookingProbability > b.BookingProbability
		}
		return a.RoomType < b.RoomType
	})
}

func (e *Engine) candidates(requested []string) []string {
	if len(requested) == 0 {
		return append([]string(nil), models.RoomTypeCodes...)
	}
	seen := make(map[string]bool, len(requested))
	var out []string
	for _, rt := range requested {
		rt = normalizeRoomType(rt)
		if models.IsRoomType(rt) && !seen[rt] {
			seen[rt] = true
			out = append(out, rt)
		}
	}
	return out
}

func (e *Engine) scoreWithModel(m *LinearModel, p models.Profile, candidates []string) ([]Scored, error) {
	items := make([]Scored, 0, len(candidates))
	for _, rt := range candidates {
		pred, err := m.Predict(e.encoder.Encode(p, rt))
		if err != nil {
			return nil, err
		}
		items = append(items, Scored{
			RoomType:   rt,
			Prediction: pred,
			Reason: fmt.Sprintf("%.0f%% match for %s guests, %.0f%% likely to book",
				pred.Compatibility*100, guestLabel(p.UserType), pred.BookingProbability*100),
		})
	}
	return items, nil
}

func (e *Engine) scoreWithRules(p models.Profile, candidates []string) []Scored {
	want := make(map[string]bool, len(candidates))
	for _, rt := range candidates {
		want[rt] = true
	}
	var items []Scored
	for _, rs := range RuleScores(p.UserType) {
		if !want[rs.RoomType] {
			continue
		}
		reason := fmt.Sprintf("Popular with %s guests", guestLabel(p.UserType))
		if rs.Score < 0.5 {
			reason = fmt.Sprintf("Alternative option for %s guests", guestLabel(p.UserType))
		}
		items = append(items, Scored{RoomType: rs.RoomType, Prediction: RulePrediction(rs.Score), Reason: reason})
	}
	return items
}

func setVersionGauge(m *LinearModel) {
	if m == nil {
		metrics.ModelVersion.Set(0)
		return
	}
	metrics.ModelVersion.Set(float64(m.Version))
}

func guestLabel(userType string) string {
	if userType == "" {
		return "all"
	}
	return userType
}

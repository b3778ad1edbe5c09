package recommend

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

const (
	OutputCompatibility      = "compatibility"
	OutputBookingProbability = "booking_probability"
	OutputRating             = "rating"

	NumOutputs = 3
)

const (
	MinRating = 1.0
	MaxRating = 5.0
)

var ErrModelShape = errors.New("model file does not match encoder")

func OutputNames() []string {
	return []string{OutputCompatibility, OutputBookingProbability, OutputRating}
}

// LinearModel is the on-disk room model.
type LinearModel struct {
	Version      int         `json:"version"`
	TrainedAt    time.Time   `json:"trained_at"`
	Samples      int         `json:"samples"`
	Ridge        float64     `json:"ridge"`
	Features     []string    `json:"features"`
	Outputs      []string    `json:"outputs"`
	Intercepts   []float64   `json:"intercepts"`
	Coefficients [][]float64 `json:"coefficients"`
}

// Prediction is always clamped into its documented ranges.
type Prediction struct {
	Compatibility      float64 `json:"compatibility"`
	BookingProbability float64 `json:"booking_probability"`
	Rating             float64 `json:"rating"`
}

func (p Prediction) clamped() Prediction {
	return Prediction{
		Compatibility:      clamp(p.Compatibility, 0, 1),
		BookingProbability: clamp(p.BookingProbability, 0, 1),
		Rating:             clamp(p.Rating, MinRating, MaxRating),
	}
}

// Validate checks the model against the encoder's feature names.
func (m *LinearModel) Validate(features []string) error {
	if len(m.Features) != len(features) {
		return fmt.Errorf("%w: %d features, encoder has %d", ErrModelShape, len(m.Features), len(features))
	}
	for i := range features {
		if m.Features[i] != features[i] {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrModelShape, i, m.Features[i], features[i])
		}
	}
	want := OutputNames()
	if len(m.Outputs) != len(want) {
		return fmt.Errorf("%w: %d outputs, want %d", ErrModelShape, len(m.Outputs), len(want))
	}
	for i := range want {
		if m.Outputs[i] != want[i] {
			return fmt.Errorf("%w: output %d is %q, want %q", ErrModelShape, i, m.Outputs[i], want[i])
		}
	}
	if len(m.Intercepts) != NumOutputs {
		return fmt.Errorf("%w: %d intercepts", ErrModelShape, len(m.Intercepts))
	}
	if len(m.Coefficients) != len(features) {
		return fmt.Errorf("%w: %d coefficient rows", ErrModelShape, len(m.Coefficients))
	}
	for i, row := range m.Coefficients {
		if len(row) != NumOutputs {
			return fmt.Errorf("%w: coefficient row %d has width %d", ErrModelShape, i, len(row))
		}
	}
	return nil
}

// Predict multiplies x by the coefficients and clamps the result.
func (m *LinearModel) Predict(x []float64) (Prediction, error) {
	if len(x) != len(m.Coefficients) {
		return Prediction{}, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(x), len(m.Coefficients))
	}
	var y [NumOutputs]float64
	copy(y[:], m.Intercepts)
	for f, v := range x {
		if v == 0 {
			continue
		}
		for k := 0; k < NumOutputs; k++ {
			y[k] += v * m.Coefficients[f][k]
		}
	}
	for k := range y {
		if math.IsNaN(y[k]) || math.IsInf(y[k], 0) {
			return Prediction{}, fmt.Errorf("non-finite %s prediction", OutputNames()[k])
		}
	}
	return Prediction{Compatibility: y[0], BookingProbability: y[1], Rating: y[2]}.clamped(), nil
}

// LoadModel reads and validates a model file.
func LoadModel(path string, features []string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(features); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveModel writes the model atomically next to path.
func SaveModel(path string, m *LinearModel) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp model: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename model: %w", err)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

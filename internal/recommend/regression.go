package recommend

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInsufficientData = errors.New("not enough observations to fit model")
	ErrSingularMatrix   = errors.New("normal equations are singular")
	ErrFeatureMismatch  = errors.New("feature vector width does not match model")
)

const pivotEpsilon = 1e-12

// Fit solves ridge-regularised least squares for all outputs at once:
//
//	(XᵀX + λI') β = XᵀY
//
// where X carries a leading column of ones and I' leaves that intercept
// column unpenalised. The result is a model with one intercept and one
// coefficient row per feature.
func Fit(rows [][]float64, targets [][NumOutputs]float64, ridge float64, minSamples int) (*LinearModel, error) {
	if len(rows) != len(targets) {
		return nil, fmt.Errorf("rows (%d) and targets (%d) differ", len(rows), len(targets))
	}
	if minSamples < 1 {
		minSamples = 1
	}
	if len(rows) < minSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(rows), minSamples)
	}
	if ridge < 0 {
		ridge = 0
	}

	width := len(rows[0])
	n := width + 1

	// Augmented system [A | B] with A = XᵀX + λI', B = XᵀY.
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n+NumOutputs)
	}

	aug := make([]float64, n)
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrFeatureMismatch, r, len(row), width)
		}
		aug[0] = 1
		copy(aug[1:], row)
		for i := 0; i < n; i++ {
			if aug[i] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				a[i][j] += aug[i] * aug[j]
			}
			for k := 0; k < NumOutputs; k++ {
				a[i][n+k] += aug[i] * targets[r][k]
			}
		}
	}
	for i := 1; i < n; i++ {
		a[i][i] += ridge
	}

	beta, err := solve(a, n, NumOutputs)
	if err != nil {
		return nil, err
	}

	m := &LinearModel{
		TrainedAt:    time.Now().UTC(),
		Samples:      len(rows),
		Ridge:        ridge,
		Outputs:      OutputNames(),
		Coefficients: make([][]float64, width),
	}
	for k := 0; k < NumOutputs; k++ {
		m.Intercepts = append(m.Intercepts, beta[0][k])
	}
	for f := 0; f < width; f++ {
		m.Coefficients[f] = append([]float64(nil), beta[f+1]...)
	}
	return m, nil
}

// solve runs Gauss-Jordan elimination with partial pivoting on an n×(n+m)
// augmented matrix in place and returns the n×m solution.
func solve(a [][]float64, n, m int) ([][]float64, error) {
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < pivotEpsilon {
			return nil, fmt.Errorf("%w: column %d", ErrSingularMatrix, col)
		}
		a[col], a[pivot] = a[pivot], a[col]

		p := a[col][col]
		for j := col; j < n+m; j++ {
			a[col][j] /= p
		}
		for r := 0; r < n; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			f := a[r][col]
			for j := col; j < n+m; j++ {
				a[r][j] -= f * a[col][j]
			}
		}
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = append([]float64(nil), a[i][n:n+m]...)
	}
	return out, nil
}

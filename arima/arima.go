// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goensemble/stats"
)

var (
	// ErrNotFitted is returned when forecasting with an unfitted model.
	ErrNotFitted = errors.New("model must be fitted before prediction")

	// ErrInsufficientData is returned when the input is too short for the order.
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

// MinObservations returns the shortest input Fit accepts for the order.
func (o Order) MinObservations() int {
	return o.D + max(o.P, o.Q) + 2
}

// Model represents an ARIMA model.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // AR coefficients (phi)
	MACoeffs  []float64 // MA coefficients (theta)
	Intercept float64
	Variance  float64 // Residual variance
	AIC       float64
	AICc      float64 // Corrected AIC for small sample sizes
	BIC       float64
	LogLik    float64
	fitted    bool
	nobs      int
	residuals []float64
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// Fit estimates the coefficients from values with conditional sum of squares.
func (m *Model) Fit(values []float64) error {
	if m.Order.P < 0 || m.Order.D < 0 || m.Order.Q < 0 {
		return errors.Errorf("negative order %+v", m.Order)
	}
	if len(values) < m.Order.MinObservations() {
		return errors.Wrapf(ErrInsufficientData, "%d observations for ARIMA(%d,%d,%d)",
			len(values), m.Order.P, m.Order.D, m.Order.Q)
	}

	y := stats.Diff(values, m.Order.D)
	m.nobs = len(values)
	m.fitCSS(y)
	m.calculateIC()

	m.fitted = true
	return nil
}

// fitCSS initializes AR terms with Yule-Walker and refines all coefficients
// by gradient descent on the conditional sum of squares.
func (m *Model) fitCSS(y []float64) {
	p := m.Order.P
	q := m.Order.Q
	m.Intercept = stat.Mean(y, nil)

	if p > 0 {
		if acf := stats.ACF(y, p); len(acf) > p {
			if phi := stats.YuleWalker(acf, p); phi != nil {
				copy(m.ARCoeffs, phi)
			}
		}
		clamp(m.ARCoeffs)
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	if p+q > 0 {
		m.optimizeCSS(y)
	}

	m.residuals = m.filter(y)

	startIdx := max(p, q)
	sse := 0.0
	count := 0
	for t := startIdx; t < len(y); t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	switch {
	case count > p+q+1:
		m.Variance = sse / float64(count-p-q-1)
	case count > 0:
		m.Variance = sse / float64(count)
	default:
		m.Variance = 0
	}
}

// optimizeCSS runs bounded gradient steps until the sum of squares settles.
func (m *Model) optimizeCSS(y []float64) {
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	const (
		maxIter      = 100
		tolerance    = 1e-6
		learningRate = 0.01
	)

	startIdx := max(p, q)
	prevSSE := math.Inf(1)
	for iter := 0; iter < maxIter; iter++ {
		residuals := m.filter(y)

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		sse := 0.0
		for t := startIdx; t < n; t++ {
			sse += residuals[t] * residuals[t]
			for i := 0; i < p; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		if math.Abs(prevSSE-sse) < tolerance {
			break
		}
		prevSSE = sse

		for i := 0; i < p; i++ {
			m.ARCoeffs[i] -= learningRate * arGrad[i] / float64(n)
		}
		for i := 0; i < q; i++ {
			m.MACoeffs[i] -= learningRate * maGrad[i] / float64(n)
		}
		// Keep AR stationary and MA invertible
		clamp(m.ARCoeffs)
		clamp(m.MACoeffs)
	}
}

// filter returns the one-step residuals of the differenced series y.
// Observations before max(p, q) are predicted with the intercept.
func (m *Model) filter(y []float64) []float64 {
	n := len(y)
	residuals := make([]float64, n)

	startIdx := max(m.Order.P, m.Order.Q)
	for t := 0; t < n; t++ {
		pred := m.Intercept
		if t >= startIdx {
			pred = m.step(y, residuals, t)
		}
		residuals[t] = y[t] - pred
	}
	return residuals
}

// step returns the one-step prediction of y[t]. Lags before the start of the
// series contribute nothing.
func (m *Model) step(y, residuals []float64, t int) float64 {
	pred := m.Intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}
	return pred
}

// calculateIC calculates AIC, AICc, and BIC.
func (m *Model) calculateIC() {
	n := len(m.residuals)
	k := m.Order.P + m.Order.Q + 1 // number of parameters (AR + MA + intercept)

	// Log-likelihood (assuming Gaussian errors)
	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*float64(k)

	kf := float64(k)
	nf := float64(n)
	if nf-kf-1 > 0 {
		m.AICc = m.AIC + 2*kf*(kf+1)/(nf-kf-1)
	} else {
		m.AICc = math.Inf(1)
	}

	m.BIC = -2*m.LogLik + float64(k)*math.Log(nf)
}

// Predict forecasts steps values following history with the fitted
// coefficients. history is on the original scale; it is differenced d times,
// filtered to recover the residuals and the forecast is integrated back
// level by level from the last observed values.
func (m *Model) Predict(history []float64, steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}
	if len(history) <= m.Order.D {
		return nil, errors.Wrapf(ErrInsufficientData, "history of %d for d=%d", len(history), m.Order.D)
	}

	// levels[k] is history differenced k times
	levels := make([][]float64, m.Order.D+1)
	levels[0] = history
	for k := 1; k <= m.Order.D; k++ {
		levels[k] = stats.Diff(levels[k-1], 1)
	}

	y := levels[m.Order.D]
	n := len(y)
	residuals := m.filter(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extResiduals := make([]float64, n+steps)
	copy(extResiduals, residuals)

	// Future residuals are zero in expectation
	for h := 0; h < steps; h++ {
		extY[n+h] = m.step(extY, extResiduals, n+h)
	}

	forecasts := make([]float64, steps)
	copy(forecasts, extY[n:])
	for k := m.Order.D - 1; k >= 0; k-- {
		last := levels[k][len(levels[k])-1]
		for j := range forecasts {
			last += forecasts[j]
			forecasts[j] = last
		}
	}
	return forecasts, nil
}

// Summary holds the estimates and residual diagnostics of a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64 // Corrected AIC
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  m.ARCoeffs,
		MACoeffs:  m.MACoeffs,
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.nobs,
		LjungBox:  stats.LjungBox(m.residuals, 10, m.Order.P+m.Order.Q),
	}
}

func clamp(coeffs []float64) {
	for i, c := range coeffs {
		coeffs[i] = math.Max(-0.99, math.Min(0.99, c))
	}
}

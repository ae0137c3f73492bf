package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// KPSSResult represents the result of a level-stationarity KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	IsStationary bool
}

// minKPSSObservations is the shortest input KPSS is evaluated on.
const minKPSSObservations = 10

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test with a constant.
// The null hypothesis is that the series is level stationary; it is rejected
// when the statistic exceeds the 5% critical value. nlags <= 0 selects the Schwert lag.
func KPSS(values []float64, nlags int) *KPSSResult {
	n := len(values)
	if n < minKPSSObservations {
		return nil
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	mean := stat.Mean(values, nil)
	residuals := make([]float64, n)
	for i, v := range values {
		residuals[i] = v - mean
	}

	// Newey-West long-run variance with Bartlett weights
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	eta := 0.0
	partial := 0.0
	for _, r := range residuals {
		partial += r
		eta += partial * partial
	}
	statistic := eta / (float64(n) * float64(n) * s2)

	return &KPSSResult{
		Statistic:    statistic,
		PValue:       kpssPValue(statistic),
		Lags:         nlags,
		IsStationary: statistic <= kpssCritical5,
	}
}

// kpssCritical5 is the 5% critical value of the level-stationarity test.
const kpssCritical5 = 0.463

// kpssTable holds the level-stationarity critical values by p-value.
var kpssTable = []struct{ stat, p float64 }{
	{0.347, 0.10},
	{kpssCritical5, 0.05},
	{0.574, 0.025},
	{0.739, 0.01},
}

// kpssPValue interpolates linearly between the critical values, so any
// statistic above the 5% value maps below 0.05.
func kpssPValue(stat float64) float64 {
	first, last := kpssTable[0], kpssTable[len(kpssTable)-1]
	switch {
	case stat >= last.stat:
		return last.p
	case stat <= first.stat:
		return first.p + (first.stat-stat)*0.5
	}
	for i := 1; i < len(kpssTable); i++ {
		lo, hi := kpssTable[i-1], kpssTable[i]
		if stat <= hi.stat {
			return lo.p + (stat-lo.stat)/(hi.stat-lo.stat)*(hi.p-lo.p)
		}
	}
	return last.p
}

// Diff returns the d-th order difference of values. The result is empty
// when values is not longer than d.
func Diff(values []float64, d int) []float64 {
	out := values
	for i := 0; i < d; i++ {
		if len(out) < 2 {
			return []float64{}
		}
		next := make([]float64, len(out)-1)
		for j := 1; j < len(out); j++ {
			next[j-1] = out[j] - out[j-1]
		}
		out = next
	}
	return out
}

// NDiffs returns the number of first differences, at most maxD, needed for
// the KPSS test to accept stationarity. Differencing stops early once fewer
// than ten observations would remain.
func NDiffs(values []float64, maxD int) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := values
	for d := 0; d < maxD; d++ {
		result := KPSS(current, 0)
		if result == nil || result.IsStationary {
			return d
		}
		current = Diff(current, 1)
		if len(current) < minKPSSObservations {
			return d + 1
		}
	}
	return maxD
}

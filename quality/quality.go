// Package quality implements the error measures used to rank and filter models.
package quality

import (
	"math"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/timeseries"
)

// ErrSizeMismatch is returned when compared series are empty or differ in length.
var ErrSizeMismatch = errors.New("time series sizes do not match")

// MAPE calculates the mean absolute percentage error of calc against fact.
// Values are paired by time index.
func MAPE(fact, calc *timeseries.TimeSeries) (float64, error) {
	size := calc.Len()
	if size == 0 || size != fact.Len() {
		return 0, errors.Wrapf(ErrSizeMismatch, "fact=%d calc=%d", fact.Len(), size)
	}

	sum := 0.0
	for _, t := range calc.Keys() {
		f, err := fact.TimeValue(t)
		if err != nil {
			return 0, err
		}
		c, _ := calc.TimeValue(t)
		sum += PercentError(f, c)
	}
	return sum / float64(size), nil
}

// SMAPE measures the symmetric divergence between a train and a test MAPE.
// Two zero errors do not diverge.
func SMAPE(mapeTrain, mapeTest float64) float64 {
	denom := mapeTrain + mapeTest
	if denom == 0 {
		return 0
	}
	return math.Abs(mapeTrain-mapeTest) / denom
}

// PercentError returns the absolute error of calc relative to fact. An exact
// forecast has no error even when fact is zero; any other forecast of a zero
// fact is infinitely wrong.
func PercentError(fact, calc float64) float64 {
	if fact == calc {
		return 0
	}
	return math.Abs(fact-calc) / fact
}

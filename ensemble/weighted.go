package ensemble

import (
	"context"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

// WeightedAverage forecasts the weighted sum of its models' forecasts.
// Model i with train error e_i gets weight (1 - e_i) / (n - Σe). Weights are
// used as computed: they are not clamped, so a model whose error exceeds one
// gets a negative weight.
type WeightedAverage struct {
	*Ensemble
	cache   *ErrorCache
	weights []float64
}

// NewWeightedAverage creates an empty weighted ensemble over series.
func NewWeightedAverage(series *timeseries.TimeSeries, horizon int, split model.Split, opts ...Option) (*WeightedAverage, error) {
	e, err := newEnsemble(series, horizon, split)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &WeightedAverage{Ensemble: e, cache: o.cache}, nil
}

// Fit fits the models and derives their weights from the mean percent
// error over train indices Order()+1..len(train).
func (w *WeightedAverage) Fit(ctx context.Context) error {
	if err := w.fitChildren(ctx); err != nil {
		return err
	}
	from, to, err := w.trainRange()
	if err != nil {
		return err
	}

	n := len(w.models)
	mapes := make([]float64, n)
	sum := 0.0
	for i, m := range w.models {
		e, err := w.cache.TrainError(m, from, to)
		if err != nil {
			return err
		}
		mapes[i] = e / float64(to-from+1)
		sum += mapes[i]
	}

	weights := make([]float64, n)
	for i, mape := range mapes {
		weights[i] = (1 - mape) / (float64(n) - sum)
	}

	predictions := make([]float64, w.Horizon())
	for i := range predictions {
		values, err := w.childPredictions(i)
		if err != nil {
			return err
		}
		predictions[i] = dot(weights, values)
	}

	w.weights = weights
	w.SetPredictions(predictions)
	w.SetFit()
	return nil
}

// Forecast returns the weighted sum of the models' forecasts for index t.
func (w *WeightedAverage) Forecast(t int) (float64, error) {
	if err := w.CheckForecast(t); err != nil {
		return 0, err
	}
	values, err := w.childForecasts(t)
	if err != nil {
		return 0, err
	}
	return dot(w.weights, values), nil
}

// Weights returns the weight of each model in insertion order.
func (w *WeightedAverage) Weights() []float64 {
	return append([]float64(nil), w.weights...)
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

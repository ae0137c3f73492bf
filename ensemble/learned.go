package ensemble

import (
	"context"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/neural"
	"github.com/sartorproj/goensemble/timeseries"
)

// Combiner is a regressor from one forecast per model to a combined value.
type Combiner interface {
	Fit(features [][]float64, labels []float64) error
	Predict(features []float64) (float64, error)
}

// CombinerFactory creates an untrained Combiner for the given input width.
type CombinerFactory func(inputs int) (Combiner, error)

// NeuralCombiner is the default factory: a seeded feed-forward network.
func NeuralCombiner(inputs int) (Combiner, error) {
	n, err := neural.New(neural.CombinerConfig(inputs))
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Learned forecasts by feeding its models' forecasts through a trained
// Combiner.
type Learned struct {
	*Ensemble
	factory  CombinerFactory
	combiner Combiner
}

// NewLearned creates an empty learned ensemble over series.
func NewLearned(series *timeseries.TimeSeries, horizon int, split model.Split, opts ...Option) (*Learned, error) {
	e, err := newEnsemble(series, horizon, split)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Learned{Ensemble: e, factory: o.combiner}, nil
}

// Fit fits the models, then trains a fresh combiner on their forecasts at
// train indices Order()+1..len(train) against the actual values.
func (l *Learned) Fit(ctx context.Context) error {
	if err := l.fitChildren(ctx); err != nil {
		return err
	}
	from, to, err := l.trainRange()
	if err != nil {
		return err
	}

	features := make([][]float64, 0, to-from+1)
	labels := make([]float64, 0, to-from+1)
	for t := from; t <= to; t++ {
		x, err := l.childForecasts(t)
		if err != nil {
			return err
		}
		y, err := l.Train().TimeValue(t)
		if err != nil {
			return err
		}
		features = append(features, x)
		labels = append(labels, y)
	}

	combiner, err := l.factory(len(l.models))
	if err != nil {
		return model.BackendError(err, "combiner init")
	}
	if err := combiner.Fit(features, labels); err != nil {
		return model.BackendError(err, "combiner fit")
	}

	predictions := make([]float64, l.Horizon())
	for i := range predictions {
		x, err := l.childPredictions(i)
		if err != nil {
			return err
		}
		if predictions[i], err = combiner.Predict(x); err != nil {
			return model.BackendError(err, "combiner predict")
		}
	}

	l.combiner = combiner
	l.SetPredictions(predictions)
	l.SetFit()
	return nil
}

// Forecast feeds the models' forecasts for index t through the combiner.
func (l *Learned) Forecast(t int) (float64, error) {
	if err := l.CheckForecast(t); err != nil {
		return 0, err
	}
	x, err := l.childForecasts(t)
	if err != nil {
		return 0, err
	}
	v, err := l.combiner.Predict(x)
	if err != nil {
		return 0, model.BackendError(err, "combiner predict")
	}
	return v, nil
}

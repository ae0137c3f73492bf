// Package ensemble combines fitted models behind a single model.Model.
//
// An Ensemble holds child models built on one series. Fitting an ensemble
// fits any unfit children and then its meta-algorithm: WeightedAverage
// weighs children by their train error, Learned trains a Combiner on their
// in-sample forecasts.
package ensemble

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

// ErrEmpty is returned when fitting an ensemble without models.
var ErrEmpty = errors.New("ensemble has no models")

// Option configures an ensemble.
type Option func(*options)

type options struct {
	cache    *ErrorCache
	combiner CombinerFactory
}

// WithErrorCache shares child train errors between weighted ensembles.
func WithErrorCache(c *ErrorCache) Option {
	return func(o *options) { o.cache = c }
}

// WithCombiner sets the regressor a Learned ensemble trains.
func WithCombiner(f CombinerFactory) Option {
	return func(o *options) { o.combiner = f }
}

func buildOptions(opts []Option) options {
	o := options{combiner: NeuralCombiner}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Ensemble is the state shared by every combination strategy. Its order is
// the largest order among its models.
type Ensemble struct {
	*model.Base
	models []model.Model
}

func newEnsemble(series *timeseries.TimeSeries, horizon int, split model.Split) (*Ensemble, error) {
	base, err := model.NewBase(series, 0, horizon, split)
	if err != nil {
		return nil, err
	}
	return &Ensemble{Base: base}, nil
}

// AddModel appends m. It fails with ErrSeriesMismatch unless m was built on
// a series equal to the ensemble's.
func (e *Ensemble) AddModel(m model.Model) error {
	if !e.Series().Equal(m.Series()) {
		return errors.Wrapf(model.ErrSeriesMismatch, "model of order %d", m.Order())
	}
	if m.Order() > e.Order() {
		e.SetOrder(m.Order())
	}
	e.models = append(e.models, m)
	return nil
}

// RemoveModel removes the first occurrence of m.
func (e *Ensemble) RemoveModel(m model.Model) {
	for i, c := range e.models {
		if c == m {
			e.models = append(e.models[:i], e.models[i+1:]...)
			break
		}
	}
	order := 0
	for _, c := range e.models {
		order = max(order, c.Order())
	}
	e.SetOrder(order)
}

// Models returns the child models in insertion order.
func (e *Ensemble) Models() []model.Model {
	return append([]model.Model(nil), e.models...)
}

// Len returns the number of child models.
func (e *Ensemble) Len() int { return len(e.models) }

// fitChildren fits every child that is not fit yet.
func (e *Ensemble) fitChildren(ctx context.Context) error {
	if len(e.models) == 0 {
		return ErrEmpty
	}
	for _, m := range e.models {
		if m.IsFit() {
			continue
		}
		if err := m.Fit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// trainRange returns the first and last train index the meta-algorithm
// learns from.
func (e *Ensemble) trainRange() (int, int, error) {
	from, to := e.Order()+1, e.Train().Len()
	if to < from {
		return 0, 0, errors.Wrapf(model.ErrSizeMismatch, "order %d leaves no train points out of %d", e.Order(), to)
	}
	return from, to, nil
}

// childForecasts returns every child's forecast for index t.
func (e *Ensemble) childForecasts(t int) ([]float64, error) {
	out := make([]float64, len(e.models))
	for i, m := range e.models {
		f, err := m.Forecast(t)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// childPredictions returns the children's multi-step forecasts at step i.
func (e *Ensemble) childPredictions(i int) ([]float64, error) {
	out := make([]float64, len(e.models))
	for j, m := range e.models {
		p := m.Predictions()
		if i >= len(p) {
			return nil, errors.Wrapf(model.ErrSizeMismatch, "model %d predicts %d steps, need %d", j, len(p), i+1)
		}
		out[j] = p[i]
	}
	return out, nil
}

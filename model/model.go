// Package model defines the contract shared by every forecasting model and
// ensemble, together with the train/test partitioning all of them use.
package model

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/quality"
	"github.com/sartorproj/goensemble/timeseries"
)

// Model is a forecasting model bound to one time series.
//
// Fit trains the model; a model is fit at most once from the caller's point
// of view and never returns to the unfit state. Forecast returns the
// in-sample forecast for a 1-based time index in [Order()+1, Len()+1].
// Predictions returns the multi-step forecast past the end of the series.
type Model interface {
	Fit(ctx context.Context) error
	Forecast(t int) (float64, error)
	Predictions() []float64
	Order() int
	IsFit() bool
	Series() *timeseries.TimeSeries
	Train() *timeseries.TimeSeries
	Test() *timeseries.TimeSeries
	Validate() *timeseries.TimeSeries
}

// Split holds train and test percentages. Whatever is left after train and
// test forms the validation part.
type Split struct {
	Train int
	Test  int
}

// DefaultSplit is the split used while searching for ensembles.
var DefaultSplit = Split{Train: 70, Test: 20}

// ReplaySplit is the split used when a described model is rebuilt.
var ReplaySplit = Split{Train: 90, Test: 10}

// Base carries the state every model shares. Concrete models embed *Base
// and implement Fit and Forecast.
type Base struct {
	series      *timeseries.TimeSeries
	train       *timeseries.TimeSeries
	test        *timeseries.TimeSeries
	validate    *timeseries.TimeSeries
	order       int
	horizon     int
	predictions []float64
	fit         bool
}

// NewBase partitions series once according to split. The series is shared,
// never copied or modified.
func NewBase(series *timeseries.TimeSeries, order, horizon int, split Split) (*Base, error) {
	if series == nil {
		return nil, errors.Wrap(ErrInvalidOrder, "nil series")
	}
	if order < 0 || order >= series.Len() {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d for series of length %d", order, series.Len())
	}
	if horizon < 0 {
		horizon = 0
	}

	train, test, validate := series.Split(split.Train, split.Test)
	return &Base{
		series:   series,
		train:    train,
		test:     test,
		validate: validate,
		order:    order,
		horizon:  horizon,
	}, nil
}

// Order returns the number of observations the model needs before its first
// in-sample forecast.
func (b *Base) Order() int { return b.order }

// SetOrder changes the order. Ensembles raise it as members are added.
func (b *Base) SetOrder(order int) { b.order = order }

// Horizon returns the number of steps predicted past the end of the series.
func (b *Base) Horizon() int { return b.horizon }

// IsFit reports whether Fit has completed successfully.
func (b *Base) IsFit() bool { return b.fit }

// SetFit marks the model as fit.
func (b *Base) SetFit() { b.fit = true }

func (b *Base) Series() *timeseries.TimeSeries   { return b.series }
func (b *Base) Train() *timeseries.TimeSeries    { return b.train }
func (b *Base) Test() *timeseries.TimeSeries     { return b.test }
func (b *Base) Validate() *timeseries.TimeSeries { return b.validate }

// Predictions returns the multi-step forecast computed by Fit.
func (b *Base) Predictions() []float64 { return b.predictions }

// SetPredictions stores the multi-step forecast.
func (b *Base) SetPredictions(p []float64) { b.predictions = p }

// CheckForecast fails unless the model is fit and t lies in
// [Order()+1, Len()+1].
func (b *Base) CheckForecast(t int) error {
	if !b.fit {
		return ErrNotFit
	}
	if t <= b.order || t > b.series.Len()+1 {
		return errors.Wrapf(ErrInvalidTimeIndex, "t=%d outside [%d, %d]", t, b.order+1, b.series.Len()+1)
	}
	return nil
}

// TrainMAPE compares the train split with the model's in-sample forecasts
// at positions Order()+1..len(train).
func TrainMAPE(m Model) (float64, error) {
	return splitMAPE(m, m.Train(), 0)
}

// TestMAPE compares the test split with the model's in-sample forecasts.
func TestMAPE(m Model) (float64, error) {
	return splitMAPE(m, m.Test(), m.Train().Len())
}

// ValidateMAPE compares the validation split with the model's in-sample
// forecasts. It fails with ErrSizeMismatch when there is no validation split.
func ValidateMAPE(m Model) (float64, error) {
	return splitMAPE(m, m.Validate(), m.Train().Len()+m.Test().Len())
}

// splitMAPE pairs split values at position i with the forecast for the
// absolute index offset+i, skipping indices the model cannot forecast.
func splitMAPE(m Model, split *timeseries.TimeSeries, offset int) (float64, error) {
	fact := timeseries.New()
	calc := timeseries.New()
	for i := 1; i <= split.Len(); i++ {
		t := offset + i
		if t <= m.Order() {
			continue
		}
		v, err := split.TimeValue(i)
		if err != nil {
			return 0, err
		}
		f, err := m.Forecast(t)
		if err != nil {
			return 0, err
		}
		fact.Add(i, v)
		calc.Add(i, f)
	}
	return quality.MAPE(fact, calc)
}

// SMAPE returns the divergence between the train and the test MAPE.
func SMAPE(m Model) (float64, error) {
	train, err := TrainMAPE(m)
	if err != nil {
		return 0, err
	}
	test, err := TestMAPE(m)
	if err != nil {
		return 0, err
	}
	return quality.SMAPE(train, test), nil
}

// IsOverfit reports whether the divergence between train and test error
// exceeds border. An undefined divergence counts as overfit.
func IsOverfit(m Model, border float64) (bool, error) {
	if !m.IsFit() {
		return false, ErrNotFit
	}
	s, err := SMAPE(m)
	if err != nil {
		return false, err
	}
	return math.IsNaN(s) || s > border, nil
}

// InSample returns the in-sample forecasts for Order()+1..Len() keyed by
// time index.
func InSample(m Model) (*timeseries.TimeSeries, error) {
	out := timeseries.New()
	for t := m.Order() + 1; t <= m.Series().Len(); t++ {
		f, err := m.Forecast(t)
		if err != nil {
			return nil, err
		}
		out.Add(t, f)
	}
	return out, nil
}

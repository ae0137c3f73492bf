// Package modeltest provides a deterministic model for tests of the
// packages that consume model.Model.
package modeltest

import (
	"context"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

// Stub forecasts every value as the actual value scaled by 1+Bias, so its
// percent error at every index of a positive series is exactly |Bias|.
type Stub struct {
	*model.Base
	Bias   float64
	FitErr error
	Fits   int
}

// New creates an unfit stub.
func New(series *timeseries.TimeSeries, order, horizon int, split model.Split, bias float64) (*Stub, error) {
	base, err := model.NewBase(series, order, horizon, split)
	if err != nil {
		return nil, err
	}
	return &Stub{Base: base, Bias: bias}, nil
}

// MustNew is New for fixtures that cannot fail.
func MustNew(series *timeseries.TimeSeries, order int, split model.Split, bias float64) *Stub {
	s, err := New(series, order, 3, split, bias)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Stub) Fit(ctx context.Context) error {
	s.Fits++
	if s.FitErr != nil {
		return s.FitErr
	}
	last, err := s.Series().TimeValue(s.Series().Len())
	if err != nil {
		return err
	}
	p := make([]float64, s.Horizon())
	for i := range p {
		p[i] = last * (1 + s.Bias)
	}
	s.SetPredictions(p)
	s.SetFit()
	return nil
}

func (s *Stub) Forecast(t int) (float64, error) {
	if err := s.CheckForecast(t); err != nil {
		return 0, err
	}
	if t == s.Series().Len()+1 {
		t--
	}
	v, err := s.Series().TimeValue(t)
	if err != nil {
		return 0, err
	}
	return v * (1 + s.Bias), nil
}

// Series10 is the ten point series used throughout the tests.
func Series10() *timeseries.TimeSeries {
	return timeseries.FromValues([]float64{1.0, 2.0, 1.3, 1.0, 1.1, 2.2, 1.1, 1.7, 1.5, 1.9})
}

// Ramp returns n positive values with a mild seasonal wiggle.
func Ramp(n int) *timeseries.TimeSeries {
	values := make([]float64, n)
	for i := range values {
		values[i] = 10 + float64(i)/4 + float64(i%5-2)/3
	}
	return timeseries.FromValues(values)
}

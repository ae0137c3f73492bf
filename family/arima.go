package family

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/arima"
	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

// Arima is an ARIMA(p,d,q) model. Its order is max(p,q)+d, the history the
// estimator needs before its first one-step forecast.
type Arima struct {
	*model.Base
	p, d, q  int
	est      *arima.Model
	insample map[int]float64
}

// NewArima creates an unfit ARIMA(p,d,q) model over series.
func NewArima(series *timeseries.TimeSeries, p, d, q, horizon int, split model.Split) (*Arima, error) {
	if p < 0 || d < 0 || q < 0 || p+q == 0 {
		return nil, errors.Wrapf(model.ErrInvalidOrder, "ARIMA(%d,%d,%d)", p, d, q)
	}
	base, err := model.NewBase(series, max(p, q)+d, horizon, split)
	if err != nil {
		return nil, err
	}
	return &Arima{Base: base, p: p, d: d, q: q}, nil
}

// P returns the autoregressive order.
func (a *Arima) P() int { return a.p }

// D returns the differencing order.
func (a *Arima) D() int { return a.d }

// Q returns the moving-average order.
func (a *Arima) Q() int { return a.q }

// Fit estimates the coefficients on the train split, then computes the
// one-step forecast for every addressable index from the observations
// preceding it and the multi-step forecast from the whole series.
func (a *Arima) Fit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	est := arima.New(a.p, a.d, a.q)
	if err := est.Fit(a.Train().Values()); err != nil {
		return model.BackendError(err, "arima fit")
	}

	values := a.Series().Values()
	insample := make(map[int]float64, len(values)-a.Order()+1)
	for t := a.Order() + 1; t <= len(values)+1; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := est.Predict(values[:t-1], 1)
		if err != nil {
			return model.BackendError(err, "arima forecast")
		}
		insample[t] = f[0]
	}

	var predictions []float64
	if a.Horizon() > 0 {
		var err error
		predictions, err = est.Predict(values, a.Horizon())
		if err != nil {
			return model.BackendError(err, "arima predict")
		}
	}

	a.est = est
	a.insample = insample
	a.SetPredictions(predictions)
	a.SetFit()
	return nil
}

// Forecast returns the one-step forecast for index t.
func (a *Arima) Forecast(t int) (float64, error) {
	if err := a.CheckForecast(t); err != nil {
		return 0, err
	}
	return a.insample[t], nil
}

// Summary returns the estimator summary, or nil before Fit.
func (a *Arima) Summary() *arima.Summary {
	if a.est == nil {
		return nil
	}
	return a.est.Summary()
}

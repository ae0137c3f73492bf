package family

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/neural"
	"github.com/sartorproj/goensemble/timeseries"
)

// Neural forecasts a value from the order values preceding it.
type Neural struct {
	*model.Base
	net *neural.Network
}

// NewNeural creates an unfit network model with order input lags.
func NewNeural(series *timeseries.TimeSeries, order, horizon int, split model.Split) (*Neural, error) {
	if order < 1 {
		return nil, errors.Wrapf(model.ErrInvalidOrder, "neural order %d", order)
	}
	base, err := model.NewBase(series, order, horizon, split)
	if err != nil {
		return nil, err
	}
	return &Neural{Base: base}, nil
}

// Fit trains a fresh network on sliding windows over the train split and
// predicts the horizon recursively, feeding forecasts back as lags.
func (n *Neural) Fit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	order := n.Order()
	train := n.Train().Values()
	if len(train) <= order {
		return errors.Wrapf(model.ErrInvalidOrder, "order %d leaves no windows in %d train points", order, len(train))
	}

	features := make([][]float64, 0, len(train)-order)
	labels := make([]float64, 0, len(train)-order)
	for t := order; t < len(train); t++ {
		features = append(features, train[t-order:t])
		labels = append(labels, train[t])
	}

	net, err := neural.New(neural.FamilyConfig(order))
	if err != nil {
		return model.BackendError(err, "neural init")
	}
	if err := net.Fit(features, labels); err != nil {
		return model.BackendError(err, "neural fit")
	}

	window := append([]float64(nil), n.Series().Values()...)
	predictions := make([]float64, n.Horizon())
	for i := range predictions {
		f, err := net.Predict(window[len(window)-order:])
		if err != nil {
			return model.BackendError(err, "neural predict")
		}
		predictions[i] = f
		window = append(window, f)
	}

	n.net = net
	n.SetPredictions(predictions)
	n.SetFit()
	return nil
}

// Forecast feeds the order values before t through the network.
func (n *Neural) Forecast(t int) (float64, error) {
	if err := n.CheckForecast(t); err != nil {
		return 0, err
	}

	order := n.Order()
	lags := make([]float64, order)
	for i := 0; i < order; i++ {
		v, err := n.Series().TimeValue(t - order + i)
		if err != nil {
			return 0, err
		}
		lags[i] = v
	}
	return n.net.Predict(lags)
}

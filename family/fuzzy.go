package family

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

// Point is one observation exchanged with the fuzzy backend.
type Point struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

// FuzzyPayload is the document sent to and returned by the fuzzy backend.
// The request carries the observed series in Rows; the response carries one
// forecast per index followed by the forecast horizon.
type FuzzyPayload struct {
	Name          string  `json:"Name"`
	Rows          []Point `json:"ROW"`
	Order         int     `json:"order"`
	ForecastCount int     `json:"ForecastCount"`
	ActualCount   int     `json:"ActualCount"`
	Type          string  `json:"type,omitempty"`
}

// FuzzyBackend computes fuzzy-inference forecasts remotely.
type FuzzyBackend interface {
	Forecast(ctx context.Context, req *FuzzyPayload) (*FuzzyPayload, error)
}

// Fuzzy delegates fitting to a FuzzyBackend.
type Fuzzy struct {
	*model.Base
	backend FuzzyBackend
	rows    []Point
}

// NewFuzzy creates an unfit fuzzy model of the given order.
func NewFuzzy(series *timeseries.TimeSeries, order, horizon int, split model.Split, backend FuzzyBackend) (*Fuzzy, error) {
	if order < 1 {
		return nil, errors.Wrapf(model.ErrInvalidOrder, "fuzzy order %d", order)
	}
	if backend == nil {
		return nil, errors.New("fuzzy model needs a backend")
	}
	base, err := model.NewBase(series, order, horizon, split)
	if err != nil {
		return nil, err
	}
	return &Fuzzy{Base: base, backend: backend}, nil
}

// Fit sends the whole series to the backend. Row t-1 of the response is the
// forecast for index t; rows Len()..Len()+horizon-1 form the predictions.
func (f *Fuzzy) Fit(ctx context.Context) error {
	series := f.Series()
	req := &FuzzyPayload{
		Name:          "fuzzy",
		Order:         f.Order(),
		ForecastCount: f.Horizon(),
		ActualCount:   series.Len() - f.Train().Len(),
		Rows:          make([]Point, 0, series.Len()),
	}
	for i, v := range series.Values() {
		req.Rows = append(req.Rows, Point{X: float64(i + 1), Y: v})
	}

	resp, err := f.backend.Forecast(ctx, req)
	if err != nil {
		return model.BackendError(err, "fuzzy fit")
	}

	need := series.Len() + max(f.Horizon(), 1)
	if resp == nil || len(resp.Rows) < need {
		got := 0
		if resp != nil {
			got = len(resp.Rows)
		}
		return model.BackendError(errors.Errorf("response has %d rows, need %d", got, need), "fuzzy fit")
	}

	predictions := make([]float64, f.Horizon())
	for i := range predictions {
		predictions[i] = resp.Rows[series.Len()+i].Y
	}

	f.rows = resp.Rows
	f.SetPredictions(predictions)
	f.SetFit()
	return nil
}

// Forecast returns the backend's value for index t.
func (f *Fuzzy) Forecast(t int) (float64, error) {
	if err := f.CheckForecast(t); err != nil {
		return 0, err
	}
	return f.rows[t-1].Y, nil
}

package sortout

import (
	"github.com/sartorproj/goensemble/description"
	"github.com/sartorproj/goensemble/ensemble"
	"github.com/sartorproj/goensemble/family"
	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

// Factory builds unfit models and ensembles over one series. It implements
// description.Factory.
type Factory struct {
	Series   *timeseries.TimeSeries
	Horizon  int
	Split    model.Split
	Fuzzy    family.FuzzyBackend
	Cache    *ensemble.ErrorCache
	Combiner ensemble.CombinerFactory
}

var _ description.Factory = (*Factory)(nil)

func (f *Factory) Arima(p, d, q int) (model.Model, error) {
	m, err := family.NewArima(f.Series, p, d, q, f.Horizon, f.Split)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (f *Factory) Neural(order int) (model.Model, error) {
	m, err := family.NewNeural(f.Series, order, f.Horizon, f.Split)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (f *Factory) Fuzzy(order int) (model.Model, error) {
	m, err := family.NewFuzzy(f.Series, order, f.Horizon, f.Split, f.Fuzzy)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (f *Factory) Weighted() (description.Container, error) {
	w, err := ensemble.NewWeightedAverage(f.Series, f.Horizon, f.Split, f.options()...)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (f *Factory) Learned() (description.Container, error) {
	l, err := ensemble.NewLearned(f.Series, f.Horizon, f.Split, f.options()...)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (f *Factory) options() []ensemble.Option {
	var opts []ensemble.Option
	if f.Cache != nil {
		opts = append(opts, ensemble.WithErrorCache(f.Cache))
	}
	if f.Combiner != nil {
		opts = append(opts, ensemble.WithCombiner(f.Combiner))
	}
	return opts
}

package ensemble_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goensemble/ensemble"
	"github.com/sartorproj/goensemble/internal/modeltest"
	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

var split8020 = model.Split{Train: 80, Test: 20}

func TestAddModelSeriesMismatch(t *testing.T) {
	w, err := ensemble.NewWeightedAverage(modeltest.Series10(), 3, split8020)
	require.NoError(t, err)

	// An equal series built separately is accepted
	require.NoError(t, w.AddModel(modeltest.MustNew(modeltest.Series10(), 1, split8020, 0.1)))

	other := timeseries.FromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	err = w.AddModel(modeltest.MustNew(other, 1, split8020, 0.1))
	assert.ErrorIs(t, err, model.ErrSeriesMismatch)
	assert.Equal(t, 1, w.Len())
}

func TestOrderIsMaxChildOrder(t *testing.T) {
	s := modeltest.Series10()
	w, err := ensemble.NewWeightedAverage(s, 3, split8020)
	require.NoError(t, err)
	assert.Equal(t, 0, w.Order())

	a := modeltest.MustNew(s, 1, split8020, 0.1)
	b := modeltest.MustNew(s, 3, split8020, 0.1)
	require.NoError(t, w.AddModel(a))
	require.NoError(t, w.AddModel(b))
	assert.Equal(t, 3, w.Order())

	w.RemoveModel(b)
	assert.Equal(t, 1, w.Order())
	assert.Equal(t, []model.Model{a}, w.Models())
}

func TestWeightedScenario(t *testing.T) {
	s := modeltest.Series10()
	w, err := ensemble.NewWeightedAverage(s, 3, split8020)
	require.NoError(t, err)

	a := modeltest.MustNew(s, 1, split8020, 0.1)
	b := modeltest.MustNew(s, 1, split8020, 0.2)
	require.NoError(t, w.AddModel(a))
	require.NoError(t, w.AddModel(b))
	require.NoError(t, w.Fit(context.Background()))

	weights := w.Weights()
	require.Len(t, weights, 2)
	assert.InDelta(t, 0.9/1.7, weights[0], 1e-9)
	assert.InDelta(t, 0.8/1.7, weights[1], 1e-9)
	assert.Greater(t, weights[0], weights[1], "lower error gets the larger weight")

	fa, _ := a.Forecast(5)
	fb, _ := b.Forecast(5)
	got, err := w.Forecast(5)
	require.NoError(t, err)
	assert.InDelta(t, weights[0]*fa+weights[1]*fb, got, 1e-12)

	require.Len(t, w.Predictions(), 3)
	assert.InDelta(t, weights[0]*a.Predictions()[0]+weights[1]*b.Predictions()[0], w.Predictions()[0], 1e-12)
}

func TestWeightFormulaWithLargeErrors(t *testing.T) {
	s := modeltest.Series10()
	w, err := ensemble.NewWeightedAverage(s, 1, split8020)
	require.NoError(t, err)
	require.NoError(t, w.AddModel(modeltest.MustNew(s, 1, split8020, 0.5)))
	require.NoError(t, w.AddModel(modeltest.MustNew(s, 1, split8020, 0.6)))
	require.NoError(t, w.Fit(context.Background()))

	weights := w.Weights()
	assert.InDelta(t, 0.5/0.9, weights[0], 1e-9)
	assert.InDelta(t, 0.4/0.9, weights[1], 1e-9)
}

func TestWeightNegativeForErrorAboveOne(t *testing.T) {
	s := modeltest.Series10()
	w, err := ensemble.NewWeightedAverage(s, 1, split8020)
	require.NoError(t, err)
	require.NoError(t, w.AddModel(modeltest.MustNew(s, 1, split8020, 0.1)))
	require.NoError(t, w.AddModel(modeltest.MustNew(s, 1, split8020, 1.5)))
	require.NoError(t, w.Fit(context.Background()))

	// (1-0.1)/(2-1.6) and (1-1.5)/(2-1.6), used as computed
	weights := w.Weights()
	assert.InDelta(t, 2.25, weights[0], 1e-9)
	assert.InDelta(t, -1.25, weights[1], 1e-9)
}

func TestFitFitsUnfitChildren(t *testing.T) {
	s := modeltest.Series10()
	w, err := ensemble.NewWeightedAverage(s, 3, split8020)
	require.NoError(t, err)

	fitted := modeltest.MustNew(s, 1, split8020, 0.1)
	require.NoError(t, fitted.Fit(context.Background()))
	fresh := modeltest.MustNew(s, 2, split8020, 0.1)

	require.NoError(t, w.AddModel(fitted))
	require.NoError(t, w.AddModel(fresh))
	require.NoError(t, w.Fit(context.Background()))

	assert.Equal(t, 1, fitted.Fits)
	assert.Equal(t, 1, fresh.Fits)
	assert.True(t, w.IsFit())
}

func TestFitPropagatesChildFailure(t *testing.T) {
	s := modeltest.Series10()
	l, err := ensemble.NewLearned(s, 3, split8020)
	require.NoError(t, err)

	broken := modeltest.MustNew(s, 1, split8020, 0.1)
	broken.FitErr = model.BackendError(errors.New("connection refused"), "fuzzy fit")
	require.NoError(t, l.AddModel(broken))

	err = l.Fit(context.Background())
	assert.ErrorIs(t, err, model.ErrBackend)
	assert.False(t, l.IsFit())

	_, err = l.Forecast(5)
	assert.ErrorIs(t, err, model.ErrNotFit)
}

func TestFitEmpty(t *testing.T) {
	w, err := ensemble.NewWeightedAverage(modeltest.Series10(), 3, split8020)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Fit(context.Background()), ensemble.ErrEmpty)
}

func TestIsOverfitBeforeFit(t *testing.T) {
	w, err := ensemble.NewWeightedAverage(modeltest.Series10(), 3, split8020)
	require.NoError(t, err)
	_, err = model.IsOverfit(w, 0.5)
	assert.ErrorIs(t, err, model.ErrNotFit)
}

func TestErrorCacheSharedAcrossEnsembles(t *testing.T) {
	s := modeltest.Series10()
	cache, err := ensemble.NewErrorCache(16)
	require.NoError(t, err)

	a := modeltest.MustNew(s, 1, split8020, 0.1)
	b := modeltest.MustNew(s, 1, split8020, 0.2)
	c := modeltest.MustNew(s, 1, split8020, 0.3)

	for _, pair := range [][]model.Model{{a, b}, {a, c}, {b, c}} {
		w, err := ensemble.NewWeightedAverage(s, 3, split8020, ensemble.WithErrorCache(cache))
		require.NoError(t, err)
		for _, m := range pair {
			require.NoError(t, w.AddModel(m))
		}
		require.NoError(t, w.Fit(context.Background()))
	}
	assert.Equal(t, 3, cache.Len())

	sum, err := cache.TrainError(a, 2, 8)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, sum, 1e-9)
}

type meanCombiner struct {
	inputs int
	fitted bool
}

func (m *meanCombiner) Fit(features [][]float64, labels []float64) error {
	if len(features) != len(labels) {
		return errors.New("shape")
	}
	m.fitted = true
	return nil
}

func (m *meanCombiner) Predict(x []float64) (float64, error) {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s / float64(len(x)), nil
}

func TestLearnedUsesCombiner(t *testing.T) {
	s := modeltest.Series10()
	var built *meanCombiner
	factory := func(inputs int) (ensemble.Combiner, error) {
		built = &meanCombiner{inputs: inputs}
		return built, nil
	}

	l, err := ensemble.NewLearned(s, 3, split8020, ensemble.WithCombiner(factory))
	require.NoError(t, err)
	a := modeltest.MustNew(s, 1, split8020, 0.1)
	b := modeltest.MustNew(s, 2, split8020, -0.1)
	require.NoError(t, l.AddModel(a))
	require.NoError(t, l.AddModel(b))
	require.NoError(t, l.Fit(context.Background()))

	require.NotNil(t, built)
	assert.Equal(t, 2, built.inputs)
	assert.True(t, built.fitted)

	v, err := l.Forecast(6)
	require.NoError(t, err)
	actual, _ := s.TimeValue(6)
	assert.InDelta(t, actual, v, 1e-12)

	_, err = l.Forecast(2)
	assert.ErrorIs(t, err, model.ErrInvalidTimeIndex)
}

var errCombiner = errors.New("combiner unavailable")

type flakyCombiner struct {
	meanCombiner
	fail bool
}

func (f *flakyCombiner) Predict(x []float64) (float64, error) {
	if f.fail {
		return 0, errCombiner
	}
	return f.meanCombiner.Predict(x)
}

func TestLearnedForecastCombinerFailure(t *testing.T) {
	s := modeltest.Series10()
	flaky := &flakyCombiner{}
	factory := func(int) (ensemble.Combiner, error) { return flaky, nil }

	l, err := ensemble.NewLearned(s, 3, split8020, ensemble.WithCombiner(factory))
	require.NoError(t, err)
	require.NoError(t, l.AddModel(modeltest.MustNew(s, 1, split8020, 0.1)))
	require.NoError(t, l.AddModel(modeltest.MustNew(s, 1, split8020, 0.2)))
	require.NoError(t, l.Fit(context.Background()))

	flaky.fail = true
	_, err = l.Forecast(6)
	require.Error(t, err)
	assert.Equal(t, model.KindBackend, model.KindOf(err))
	assert.ErrorIs(t, err, errCombiner)
}

func TestLearnedNeuralCombiner(t *testing.T) {
	s := modeltest.Series10()
	s.Normalize()

	l, err := ensemble.NewLearned(s, 3, split8020)
	require.NoError(t, err)
	require.NoError(t, l.AddModel(modeltest.MustNew(s, 1, split8020, 0.1)))
	require.NoError(t, l.AddModel(modeltest.MustNew(s, 1, split8020, 0.2)))
	require.NoError(t, l.Fit(context.Background()))

	require.Len(t, l.Predictions(), 3)
	for t2 := l.Order() + 1; t2 <= s.Len()+1; t2++ {
		v, err := l.Forecast(t2)
		require.NoError(t, err)
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	_, err = model.TestMAPE(l)
	require.NoError(t, err)
}

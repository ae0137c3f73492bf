package model_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goensemble/internal/modeltest"
	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

func TestNewBasePartitions(t *testing.T) {
	base, err := model.NewBase(modeltest.Series10(), 3, 2, model.Split{Train: 80, Test: 20})
	require.NoError(t, err)

	assert.Equal(t, 8, base.Train().Len())
	assert.Equal(t, 2, base.Test().Len())
	assert.Equal(t, 0, base.Validate().Len())

	v, err := base.Train().TimeValue(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	v, err = base.Train().TimeValue(8)
	require.NoError(t, err)
	assert.Equal(t, 1.7, v)
	v, err = base.Test().TimeValue(2)
	require.NoError(t, err)
	assert.Equal(t, 1.9, v)
}

func TestNewBaseInvalidOrder(t *testing.T) {
	series := modeltest.Series10()

	for _, order := range []int{-1, 10, 11} {
		_, err := model.NewBase(series, order, 1, model.DefaultSplit)
		assert.True(t, errors.Is(err, model.ErrInvalidOrder), "order %d: %v", order, err)
		assert.Equal(t, model.KindInvalidOrder, model.KindOf(err))
	}

	_, err := model.NewBase(series, 9, 1, model.DefaultSplit)
	assert.NoError(t, err)
}

func TestCheckForecast(t *testing.T) {
	stub := modeltest.MustNew(modeltest.Series10(), 2, model.DefaultSplit, 0.1)

	_, err := stub.Forecast(5)
	assert.True(t, errors.Is(err, model.ErrNotFit))

	require.NoError(t, stub.Fit(context.Background()))
	assert.True(t, stub.IsFit())

	tests := []struct {
		t       int
		wantErr bool
	}{
		{1, true},
		{2, true},
		{3, false},
		{10, false},
		{11, false},
		{12, true},
	}
	for _, tt := range tests {
		_, err := stub.Forecast(tt.t)
		if tt.wantErr {
			assert.True(t, errors.Is(err, model.ErrInvalidTimeIndex), "t=%d: %v", tt.t, err)
		} else {
			assert.NoError(t, err, "t=%d", tt.t)
		}
	}
}

func TestTrainTestMAPE(t *testing.T) {
	stub := modeltest.MustNew(modeltest.Series10(), 2, model.DefaultSplit, 0.1)
	require.NoError(t, stub.Fit(context.Background()))

	train, err := model.TrainMAPE(stub)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, train, 1e-9)

	test, err := model.TestMAPE(stub)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, test, 1e-9)

	validate, err := model.ValidateMAPE(stub)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, validate, 1e-9)

	s, err := model.SMAPE(stub)
	require.NoError(t, err)
	assert.InDelta(t, 0, s, 1e-9)
}

func TestMAPEDegenerateSplit(t *testing.T) {
	// order covers the whole train split, so nothing is left to compare
	stub := modeltest.MustNew(modeltest.Series10(), 7, model.DefaultSplit, 0.1)
	require.NoError(t, stub.Fit(context.Background()))

	_, err := model.TrainMAPE(stub)
	assert.True(t, errors.Is(err, model.ErrSizeMismatch), "got %v", err)
	assert.Equal(t, model.KindSizeMismatch, model.KindOf(err))

	_, err = model.ValidateMAPE(modeltest.MustNew(modeltest.Series10(), 1, model.Split{Train: 80, Test: 20}, 0))
	assert.Error(t, err)
}

func TestIsOverfit(t *testing.T) {
	stub := modeltest.MustNew(modeltest.Series10(), 2, model.DefaultSplit, 0.1)

	_, err := model.IsOverfit(stub, 0.5)
	assert.True(t, errors.Is(err, model.ErrNotFit))

	require.NoError(t, stub.Fit(context.Background()))
	over, err := model.IsOverfit(stub, 0.5)
	require.NoError(t, err)
	assert.False(t, over)
}

func TestIsOverfitPerfectModel(t *testing.T) {
	// zero train and test error is not overfit
	stub := modeltest.MustNew(modeltest.Series10(), 2, model.DefaultSplit, 0)
	require.NoError(t, stub.Fit(context.Background()))

	over, err := model.IsOverfit(stub, 0)
	require.NoError(t, err)
	assert.False(t, over)
}

func TestInSample(t *testing.T) {
	stub := modeltest.MustNew(modeltest.Series10(), 4, model.DefaultSplit, 0)
	require.NoError(t, stub.Fit(context.Background()))

	in, err := model.InSample(stub)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7, 8, 9, 10}, in.Keys())
	assert.True(t, in.Equal(func() *timeseries.TimeSeries {
		s := timeseries.New()
		for _, k := range in.Keys() {
			v, _ := stub.Series().TimeValue(k)
			s.Add(k, v)
		}
		return s
	}()))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, model.KindUnknown, model.KindOf(nil))
	assert.Equal(t, model.KindUnknown, model.KindOf(errors.New("plain")))
	assert.Equal(t, model.KindNotFit, model.KindOf(errors.Wrap(model.ErrNotFit, "ctx")))

	cause := errors.New("connection refused")
	err := model.BackendError(cause, "fuzzy fit")
	assert.Equal(t, model.KindBackend, model.KindOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, model.BackendError(nil, "noop"))
}

func TestErrorValuesAreKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind model.Kind
		msg  string
	}{
		{model.ErrInvalidOrder, model.KindInvalidOrder, "invalid model order"},
		{model.ErrSeriesMismatch, model.KindSeriesMismatch, "models of the ensemble use different time series"},
		{model.ErrNotFit, model.KindNotFit, "model is not fit"},
		{model.ErrInvalidTimeIndex, model.KindInvalidTimeIndex, "invalid time index of the forecast value"},
		{model.ErrInvalidDescription, model.KindInvalidDescription, "invalid model description"},
		{model.ErrBackend, model.KindBackend, "model backend failure"},
	}
	for _, tt := range tests {
		wrapped := errors.Wrap(tt.err, "ctx")
		assert.ErrorIs(t, wrapped, tt.kind)
		assert.Equal(t, tt.kind, model.KindOf(wrapped))
		assert.EqualError(t, tt.err, tt.msg)
	}
	assert.Equal(t, "time index not present in series", model.KindMissingKey.Error())
	assert.Equal(t, "unknown error", model.Kind(200).Error())
}

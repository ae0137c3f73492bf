package sink_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goensemble/family"
	"github.com/sartorproj/goensemble/internal/modeltest"
	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/sink"
	"github.com/sartorproj/goensemble/sortout"
	"github.com/sartorproj/goensemble/timeseries"
)

// scaled answers every index with the observed value times 1.5.
type scaled struct{}

func (scaled) Forecast(_ context.Context, req *family.FuzzyPayload) (*family.FuzzyPayload, error) {
	resp := *req
	resp.Rows = nil
	for _, p := range req.Rows {
		resp.Rows = append(resp.Rows, family.Point{X: p.X, Y: p.Y * 1.5})
	}
	for i := 0; i < max(req.ForecastCount, 1); i++ {
		resp.Rows = append(resp.Rows, family.Point{X: float64(len(req.Rows) + i + 1), Y: 1})
	}
	return &resp, nil
}

func fitted(t *testing.T) model.Model {
	t.Helper()
	f := &sortout.Factory{Series: modeltest.Series10(), Horizon: 2, Split: model.DefaultSplit, Fuzzy: scaled{}}
	m, err := f.Fuzzy(1)
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background()))
	return m
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func parse(t *testing.T, field string) float64 {
	t.Helper()
	v, err := timeseries.ParseFloat(field, nil)
	require.NoError(t, err)
	return v
}

func TestCounter(t *testing.T) {
	c := sink.NewCounter(0)
	assert.Equal(t, 0, c.Next())
	assert.Equal(t, 1, c.Next())

	c = sink.NewCounter(1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, 51, c.Next())
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	w := sink.NewWriter(dir, sink.NewCounter(1))
	m := fitted(t)

	n, err := w.Write(m, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ts := readCSV(t, filepath.Join(dir, "ts1.csv"))
	require.Len(t, ts, 9)
	assert.Equal(t, []string{"2", "6"}, ts[0]) // 2.0 * 1.5 * 2
	assert.Equal(t, []string{"4", "3"}, ts[2]) // 1.0 * 1.5 * 2
	assert.Equal(t, "10", ts[8][0])
	assert.InDelta(t, 5.7, parse(t, ts[8][1]), 1e-9)

	params := readCSV(t, filepath.Join(dir, "params1.csv"))
	require.Len(t, params, 4)
	assert.InDelta(t, 0.5, parse(t, params[0][0]), 1e-9)
	assert.InDelta(t, 0.5, parse(t, params[1][0]), 1e-9)
	assert.InDelta(t, 0, parse(t, params[2][0]), 1e-9)
	assert.Equal(t, "Fuzzy(1)", params[3][0])
}

func TestWriteAllNumbering(t *testing.T) {
	dir := t.TempDir()
	w := sink.NewWriter(dir, sink.NewCounter(0))

	n, err := w.WriteAll([]model.Model{fitted(t), fitted(t)}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, file := range []string{"ts0.csv", "params0.csv", "ts1.csv", "params1.csv"} {
		assert.FileExists(t, filepath.Join(dir, file))
	}
	assert.NoFileExists(t, filepath.Join(dir, "ts2.csv"))
}

func TestWriteQuotesEnsembleDescription(t *testing.T) {
	f := &sortout.Factory{Series: modeltest.Series10(), Horizon: 2, Split: model.DefaultSplit, Fuzzy: scaled{}}
	w, err := f.Weighted()
	require.NoError(t, err)
	for _, order := range []int{1, 2} {
		m, err := f.Fuzzy(order)
		require.NoError(t, err)
		require.NoError(t, w.AddModel(m))
	}
	require.NoError(t, w.Fit(context.Background()))

	dir := t.TempDir()
	_, err = sink.NewWriter(dir, nil).Write(w, 1)
	require.NoError(t, err)

	params := readCSV(t, filepath.Join(dir, "params1.csv"))
	assert.Equal(t, "Weighted(Fuzzy(1); Fuzzy(2))", params[3][0])
}

func TestWriteUnfitModel(t *testing.T) {
	f := &sortout.Factory{Series: modeltest.Series10(), Horizon: 2, Split: model.DefaultSplit, Fuzzy: scaled{}}
	m, err := f.Fuzzy(1)
	require.NoError(t, err)

	_, err = sink.NewWriter(t.TempDir(), nil).Write(m, 1)
	assert.ErrorIs(t, err, model.ErrNotFit)
}

func TestWriteError(t *testing.T) {
	dir := t.TempDir()
	w := sink.NewWriter(dir, nil)

	err := errors.Wrap(model.ErrInvalidOrder, "neural order 0")
	require.NoError(t, w.WriteError(err))

	rows := readCSV(t, filepath.Join(dir, sink.ErrorFile))
	require.Len(t, rows, 2)
	assert.Equal(t, "invalid model order", rows[0][0])
	assert.Equal(t, "neural order 0: invalid model order", rows[1][0])

	assert.NoError(t, w.WriteError(nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "model is not fit", sink.Message(errors.Wrap(model.ErrNotFit, "forecast")))
	assert.Equal(t, "invalid time series length", sink.Message(errors.Wrap(model.ErrSizeMismatch, "mape")))
	assert.Equal(t, "open series file: no such file", sink.Message(errors.New("open series file: no such file")))
}

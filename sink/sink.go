// Package sink writes search results the way downstream spreadsheets read
// them: one ts<N>.csv with the denormalized in-sample forecast and one
// params<N>.csv with the quality figures and the description of every
// candidate, or a single error.csv when the run fails.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sartorproj/goensemble/description"
	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/timeseries"
)

// File names inside the output directory.
const (
	ErrorFile    = "error.csv"
	seriesFormat = "ts%d.csv"
	paramsFormat = "params%d.csv"
)

// Counter numbers output files. Next returns the current value and advances.
type Counter struct {
	mu   sync.Mutex
	next int
}

// NewCounter returns a counter whose first number is start.
func NewCounter(start int) *Counter {
	return &Counter{next: start}
}

func (c *Counter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.next
	c.next++
	return n
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the writer logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// WithCSVOptions sets the delimiter and decimal separator of written files.
func WithCSVOptions(o *timeseries.CSVOptions) Option {
	return func(w *Writer) { w.csv = o }
}

// Writer writes result files into one directory.
type Writer struct {
	dir     string
	counter *Counter
	csv     *timeseries.CSVOptions
	logger  *zap.Logger
}

// NewWriter creates a writer numbering files with counter. A nil counter
// starts at 1.
func NewWriter(dir string, counter *Counter, opts ...Option) *Writer {
	w := &Writer{dir: dir, counter: counter}
	for _, opt := range opts {
		opt(w)
	}
	if w.counter == nil {
		w.counter = NewCounter(1)
	}
	if w.csv == nil {
		w.csv = timeseries.DefaultCSVOptions()
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write stores one fitted candidate and returns its number. The in-sample
// forecasts are multiplied by maxValue before writing.
func (w *Writer) Write(m model.Model, maxValue float64) (int, error) {
	desc, err := description.Render(m)
	if err != nil {
		return 0, err
	}
	calc, err := model.InSample(m)
	if err != nil {
		return 0, errors.Wrapf(err, "in-sample forecast of %s", desc)
	}
	calc.DenormalizeWith(maxValue)

	train, err := model.TrainMAPE(m)
	if err != nil {
		return 0, errors.Wrapf(err, "train MAPE of %s", desc)
	}
	test, err := model.TestMAPE(m)
	if err != nil {
		return 0, errors.Wrapf(err, "test MAPE of %s", desc)
	}
	smape, err := model.SMAPE(m)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create output directory")
	}

	n := w.counter.Next()
	rows := make([][]string, 0, calc.Len())
	for _, t := range calc.Keys() {
		v, _ := calc.TimeValue(t)
		rows = append(rows, []string{strconv.Itoa(t), timeseries.FormatFloat(v, w.csv)})
	}
	if err := w.writeFile(name(seriesFormat, n), rows); err != nil {
		return 0, err
	}

	params := [][]string{
		{timeseries.FormatFloat(train, w.csv)},
		{timeseries.FormatFloat(test, w.csv)},
		{timeseries.FormatFloat(smape, w.csv)},
		{desc},
	}
	if err := w.writeFile(name(paramsFormat, n), params); err != nil {
		return 0, err
	}

	w.logger.Debug("candidate written",
		zap.Int("n", n),
		zap.String("model", desc),
		zap.Float64("train_mape", train),
		zap.Float64("test_mape", test),
	)
	return n, nil
}

// WriteAll writes every model in order and returns the number of file
// pairs written.
func (w *Writer) WriteAll(models []model.Model, maxValue float64) (int, error) {
	for i, m := range models {
		if _, err := w.Write(m, maxValue); err != nil {
			return i, err
		}
	}
	w.logger.Info("results written", zap.String("dir", w.dir), zap.Int("candidates", len(models)))
	return len(models), nil
}

// WriteError stores the user-facing message for err followed by the error
// chain itself.
func (w *Writer) WriteError(err error) error {
	if err == nil {
		return nil
	}
	if mkErr := os.MkdirAll(w.dir, 0o755); mkErr != nil {
		return errors.Wrap(mkErr, "create output directory")
	}
	return w.writeFile(ErrorFile, [][]string{{Message(err)}, {err.Error()}})
}

// Message maps a classified error to its fixed message and returns the
// error text for anything else.
func Message(err error) string {
	if k := model.KindOf(err); k != model.KindUnknown {
		return k.Error()
	}
	return err.Error()
}

func (w *Writer) writeFile(file string, rows [][]string) (err error) {
	path := filepath.Join(w.dir, file)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", file)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", file)
		}
	}()

	cw := csv.NewWriter(f)
	cw.Comma = w.csv.Delimiter
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "write %s", file)
	}
	return nil
}

func name(format string, n int) string {
	return fmt.Sprintf(format, n)
}

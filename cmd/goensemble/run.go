package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sartorproj/goensemble/config"
	"github.com/sartorproj/goensemble/family"
	"github.com/sartorproj/goensemble/metrics"
	"github.com/sartorproj/goensemble/sink"
	"github.com/sartorproj/goensemble/sortout"
	"github.com/sartorproj/goensemble/timeseries"
)

type options struct {
	configFile  string
	paramsFile  string
	inputDir    string
	outputDir   string
	metricsFile string
	verbose     bool
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// execute runs one search or replay. Any failure after the output directory
// is known is also reported in error.csv.
func execute(ctx context.Context, opts *options, mode string) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	defer func() {
		if opts.metricsFile == "" {
			return
		}
		if err := metrics.WriteTextfile(opts.metricsFile, reg); err != nil {
			logger.Warn("metrics not written", zap.String("path", opts.metricsFile), zap.Error(err))
		}
	}()

	cfg, err := loadConfig(opts, mode)
	if err != nil {
		report(logger, sink.NewWriter(fallbackOutput(opts), nil), err)
		return err
	}

	r := &runner{cfg: cfg, logger: logger, recorder: metrics.New(reg)}
	if err := r.run(ctx); err != nil {
		report(logger, sink.NewWriter(cfg.IO.OutputDir, nil), err)
		return err
	}
	return nil
}

// loadConfig reads --config, else the legacy params file, else the
// defaults, and then applies the command line overrides.
func loadConfig(opts *options, mode string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.configFile != "":
		cfg, err = config.Load(opts.configFile)
	case opts.paramsFile != "":
		cfg, err = config.LoadParams(opts.paramsFile)
	default:
		legacy := filepath.Join(inputDir(opts), config.ParamsFile)
		if _, statErr := os.Stat(legacy); statErr == nil {
			cfg, err = config.LoadParams(legacy)
		} else {
			cfg, err = config.Default()
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.inputDir != "" {
		cfg.IO.InputDir = opts.inputDir
	}
	if opts.outputDir != "" {
		cfg.IO.OutputDir = opts.outputDir
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func inputDir(opts *options) string {
	if opts.inputDir != "" {
		return opts.inputDir
	}
	return "input"
}

func fallbackOutput(opts *options) string {
	if opts.outputDir != "" {
		return opts.outputDir
	}
	return "output"
}

func report(logger *zap.Logger, w *sink.Writer, err error) {
	logger.Error("run failed", zap.String("reason", sink.Message(err)), zap.Error(err))
	if werr := w.WriteError(err); werr != nil {
		logger.Error("error report not written", zap.String("dir", w.Dir()), zap.Error(werr))
	}
}

type runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
}

func (r *runner) run(ctx context.Context) error {
	path := filepath.Join(r.cfg.IO.InputDir, config.SeriesFile)
	series, err := timeseries.LoadCSV(path, nil)
	if err != nil {
		return err
	}
	maxValue := series.MaxValue()
	series.Normalize()
	r.logger.Info("series loaded",
		zap.String("path", path),
		zap.Int("size", series.Len()),
		zap.Float64("max", maxValue),
		zap.String("mode", r.cfg.Mode),
	)

	if r.cfg.Replay() {
		return r.replay(ctx, series, maxValue)
	}
	return r.search(ctx, series, maxValue)
}

// fuzzy returns the fuzzy backend, or nil when no URL is configured.
func (r *runner) fuzzy() family.FuzzyBackend {
	if r.cfg.Fuzzy.URL == "" {
		return nil
	}
	return family.NewFuzzyClient(r.cfg.Fuzzy.URL,
		family.WithTimeout(r.cfg.Fuzzy.Timeout),
		family.WithLogger(r.logger.Named("fuzzy")),
	)
}

func (r *runner) search(ctx context.Context, series *timeseries.TimeSeries, maxValue float64) error {
	opts := []sortout.Option{
		sortout.WithLogger(r.logger.Named("sortout")),
		sortout.WithRecorder(r.recorder),
	}
	if b := r.fuzzy(); b != nil {
		opts = append(opts, sortout.WithFuzzyBackend(b))
	}

	engine, err := sortout.New(series, r.cfg.SortOut(), opts...)
	if err != nil {
		return err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	dir := r.cfg.IO.OutputDir
	if r.cfg.IO.PerRunDir {
		dir = filepath.Join(dir, result.RunID)
	}
	w := sink.NewWriter(dir, sink.NewCounter(1), sink.WithLogger(r.logger.With(zap.String("run_id", result.RunID))))
	_, err = w.WriteAll(result.Candidates(), maxValue)
	return err
}

func (r *runner) replay(ctx context.Context, series *timeseries.TimeSeries, maxValue float64) error {
	desc, err := readDescription(filepath.Join(r.cfg.IO.InputDir, config.DescriptionFile))
	if err != nil {
		return err
	}

	f := &sortout.Factory{
		Series:  series,
		Horizon: r.cfg.ForecastCount,
		Split:   r.cfg.ReplaySplit.Model(),
		Fuzzy:   r.fuzzy(),
	}
	m, err := sortout.Replay(ctx, desc, f)
	if err != nil {
		return err
	}
	r.logger.Info("model refitted", zap.String("model", desc), zap.Int("order", m.Order()))

	w := sink.NewWriter(r.cfg.IO.OutputDir, sink.NewCounter(0), sink.WithLogger(r.logger))
	_, err = w.Write(m, maxValue)
	return err
}

// readDescription returns the file's lines joined, without the quotes a
// spreadsheet adds around a cell holding the delimiter.
func readDescription(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read model description")
	}
	desc := strings.Join(strings.Fields(string(b)), " ")
	return strings.Trim(desc, `"`), nil
}

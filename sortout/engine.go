package sortout

import (
	"context"
	"fmt"
	"math/bits"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goensemble/description"
	"github.com/sartorproj/goensemble/ensemble"
	"github.com/sartorproj/goensemble/family"
	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/stats"
	"github.com/sartorproj/goensemble/timeseries"
)

// Model family and ensemble strategy names used in logs and metrics.
const (
	KindArima    = "arima"
	KindNeural   = "neural"
	KindFuzzy    = "fuzzy"
	KindWeighted = "weighted"
	KindLearned  = "learned"
)

// Spec identifies one base model of the pool.
type Spec struct {
	Kind    string
	Order   int // lag order for neural and fuzzy models
	P, D, Q int // ARIMA orders
}

func (s Spec) String() string {
	if s.Kind == KindArima {
		return fmt.Sprintf("%s(%d,%d,%d)", s.Kind, s.P, s.D, s.Q)
	}
	return fmt.Sprintf("%s(%d)", s.Kind, s.Order)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithFuzzyBackend sets the backend of the fuzzy family.
func WithFuzzyBackend(b family.FuzzyBackend) Option {
	return func(e *Engine) { e.fuzzy = b }
}

// WithCombiner sets the regressor of learned ensembles.
func WithCombiner(f ensemble.CombinerFactory) Option {
	return func(e *Engine) { e.combiner = f }
}

// Engine runs the search over one series.
type Engine struct {
	series   *timeseries.TimeSeries
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
	fuzzy    family.FuzzyBackend
	combiner ensemble.CombinerFactory
	factory  *Factory
}

// New creates an engine. The series is shared read-only by every model.
func New(series *timeseries.TimeSeries, cfg Config, opts ...Option) (*Engine, error) {
	if series == nil || series.Len() == 0 {
		return nil, errors.New("empty series")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid search config")
	}
	if cfg.Stationarity == "" {
		cfg.Stationarity = Stationary
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	e := &Engine{series: series, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.recorder == nil {
		e.recorder = nopRecorder{}
	}
	if cfg.Fuzzy.Enabled && e.fuzzy == nil {
		return nil, errors.New("fuzzy family enabled without a backend")
	}

	cache, err := ensemble.NewErrorCache(0)
	if err != nil {
		return nil, err
	}
	e.factory = &Factory{
		Series:   series,
		Horizon:  cfg.ForecastCount,
		Split:    cfg.Split,
		Fuzzy:    e.fuzzy,
		Cache:    cache,
		Combiner: e.combiner,
	}
	return e, nil
}

// Factory returns the factory the engine builds models with.
func (e *Engine) Factory() *Factory { return e.factory }

// Run fits the pool, fits one ensemble per strategy for every subset of
// more than one model and returns the candidates passing the quality gate.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))
	start := time.Now()

	specs := e.Specs()
	if e.cfg.MaxPoolSize > 0 && len(specs) > e.cfg.MaxPoolSize {
		return nil, errors.Wrapf(ErrBudgetExceeded, "pool of %d models exceeds %d", len(specs), e.cfg.MaxPoolSize)
	}
	if _, err := SubsetCount(len(specs), e.cfg.MaxSubsets); err != nil {
		return nil, err
	}
	logger.Info("fitting pool", zap.Int("models", len(specs)), zap.Int("workers", e.cfg.Workers))

	pool, err := e.fitPool(ctx, logger, specs)
	if err != nil {
		return nil, err
	}
	e.recorder.SetPoolSize(len(pool))

	masks, err := Masks(len(pool), e.cfg.MaxSubsets)
	if err != nil {
		return nil, err
	}
	e.recorder.AddSubsets(len(masks))
	if total := uint64(1)<<uint(len(pool)) - 1; uint64(len(masks)) < total {
		logger.Warn("subset enumeration truncated", zap.Int("masks", len(masks)), zap.Uint64("total", total))
	}

	weighted, learned, err := e.fitSubsets(ctx, logger, pool, masks)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, PoolSize: len(pool), Subsets: len(masks)}
	if result.Models, err = filter(e, logger, "model", pool); err != nil {
		return nil, err
	}
	if result.Weighted, err = filter(e, logger, KindWeighted, weighted); err != nil {
		return nil, err
	}
	if result.Learned, err = filter(e, logger, KindLearned, learned); err != nil {
		return nil, err
	}

	logger.Info("search finished",
		zap.Int("pool", len(pool)),
		zap.Int("masks", len(masks)),
		zap.Int("models", len(result.Models)),
		zap.Int("weighted", len(result.Weighted)),
		zap.Int("learned", len(result.Learned)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// Specs lists the pool in family order: ARIMA for p and q in 0..max
// without (0,0), then neural and fuzzy for orders 1..max.
func (e *Engine) Specs() []Spec {
	var specs []Spec
	if e.cfg.Arima.Enabled {
		d := e.differencing()
		for p := 0; p <= e.cfg.Arima.MaxOrder; p++ {
			for q := 0; q <= e.cfg.Arima.MaxOrder; q++ {
				if p == 0 && q == 0 {
					continue
				}
				specs = append(specs, Spec{Kind: KindArima, P: p, D: d, Q: q})
			}
		}
	}
	for _, f := range []struct {
		kind string
		Family
	}{{KindNeural, e.cfg.Neural}, {KindFuzzy, e.cfg.Fuzzy}} {
		if !f.Enabled {
			continue
		}
		for order := 1; order <= f.MaxOrder; order++ {
			specs = append(specs, Spec{Kind: f.kind, Order: order})
		}
	}
	return specs
}

func (e *Engine) differencing() int {
	switch e.cfg.Stationarity {
	case NonStationary:
		return 2
	case AutoStationarity:
		train, _, _ := e.series.Split(e.cfg.Split.Train, e.cfg.Split.Test)
		return stats.NDiffs(train.Values(), 2)
	default:
		return 0
	}
}

// Build creates the unfit model described by spec.
func (e *Engine) Build(spec Spec) (model.Model, error) {
	switch spec.Kind {
	case KindArima:
		return e.factory.Arima(spec.P, spec.D, spec.Q)
	case KindNeural:
		return e.factory.Neural(spec.Order)
	case KindFuzzy:
		return e.factory.Fuzzy(spec.Order)
	}
	return nil, errors.Errorf("unknown model kind %q", spec.Kind)
}

// fitPool fits every spec concurrently and returns the models in spec order.
func (e *Engine) fitPool(ctx context.Context, logger *zap.Logger, specs []Spec) ([]model.Model, error) {
	fitted := make([]model.Model, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, spec := range specs {
		g.Go(func() error {
			start := time.Now()
			m, err := e.Build(spec)
			if err == nil {
				err = m.Fit(gctx)
			}
			e.recorder.ObserveFit(spec.Kind, time.Since(start), err)
			if err != nil {
				if e.cfg.SkipFailed && ctx.Err() == nil {
					logger.Warn("skipping model", zap.Stringer("spec", spec), zap.Error(err))
					return nil
				}
				return errors.Wrapf(err, "fit %s", spec)
			}
			if ce := logger.Check(zap.DebugLevel, "model fitted"); ce != nil {
				ce.Write(append([]zap.Field{zap.Stringer("spec", spec), zap.Int("order", m.Order())}, diagnostics(m)...)...)
			}
			fitted[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pool := fitted[:0]
	for _, m := range fitted {
		if m != nil {
			pool = append(pool, m)
		}
	}
	return pool, nil
}

// diagnostics returns the information criteria and the Ljung-Box residual
// test of a fitted ARIMA model. Other models have none.
func diagnostics(m model.Model) []zap.Field {
	a, ok := m.(*family.Arima)
	if !ok {
		return nil
	}
	summary := a.Summary()
	if summary == nil {
		return nil
	}
	fields := []zap.Field{
		zap.Float64("aic", summary.AIC),
		zap.Float64("aicc", summary.AICc),
		zap.Float64("bic", summary.BIC),
	}
	if lb := summary.LjungBox; lb != nil {
		fields = append(fields, zap.Float64("ljung_box", lb.Statistic), zap.Float64("ljung_box_p", lb.PValue))
	}
	return fields
}

// fitSubsets builds and fits the enabled strategies for every mask selecting
// more than one model. Results keep mask order.
func (e *Engine) fitSubsets(ctx context.Context, logger *zap.Logger, pool []model.Model, masks []uint64) ([]*ensemble.WeightedAverage, []*ensemble.Learned, error) {
	weighted := make([]*ensemble.WeightedAverage, len(masks))
	learned := make([]*ensemble.Learned, len(masks))
	if !e.cfg.Weighted && !e.cfg.Learned {
		return nil, nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, mask := range masks {
		if bits.OnesCount64(mask) < 2 {
			continue
		}
		members := Select(pool, mask)
		g.Go(func() error {
			if e.cfg.Weighted {
				w, err := e.factory.Weighted()
				if err == nil {
					err = e.fitEnsemble(gctx, KindWeighted, w, members)
				}
				if err != nil {
					return e.subsetFailure(ctx, logger, KindWeighted, mask, err)
				}
				weighted[i] = w.(*ensemble.WeightedAverage)
			}
			if e.cfg.Learned {
				l, err := e.factory.Learned()
				if err == nil {
					err = e.fitEnsemble(gctx, KindLearned, l, members)
				}
				if err != nil {
					return e.subsetFailure(ctx, logger, KindLearned, mask, err)
				}
				learned[i] = l.(*ensemble.Learned)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return compact(weighted), compact(learned), nil
}

func (e *Engine) fitEnsemble(ctx context.Context, kind string, c description.Container, members []model.Model) error {
	for _, m := range members {
		if err := c.AddModel(m); err != nil {
			return err
		}
	}
	start := time.Now()
	err := c.Fit(ctx)
	e.recorder.ObserveFit(kind, time.Since(start), err)
	return err
}

func (e *Engine) subsetFailure(ctx context.Context, logger *zap.Logger, kind string, mask uint64, err error) error {
	if e.cfg.SkipFailed && ctx.Err() == nil {
		logger.Warn("skipping ensemble", zap.String("strategy", kind), zap.Uint64("mask", mask), zap.Error(err))
		return nil
	}
	return errors.Wrapf(err, "fit %s ensemble for mask %b", kind, mask)
}

// filter applies the quality gate. With SkipFailed, candidates whose
// evaluation fails are dropped instead of failing the run.
func filter[M model.Model](e *Engine, logger *zap.Logger, kind string, items []M) ([]M, error) {
	var (
		kept []M
		err  error
	)
	if e.cfg.SkipFailed {
		for _, m := range items {
			ok, qerr := Qualifies(m, e.cfg.QualityBorder, e.cfg.OverfitBorder)
			if qerr != nil {
				logger.Warn("dropping candidate", zap.String("kind", kind), zap.Error(qerr))
				continue
			}
			if ok {
				kept = append(kept, m)
			}
		}
	} else {
		kept, err = Filter(items, e.cfg.QualityBorder, e.cfg.OverfitBorder)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %s", kind)
		}
	}

	e.recorder.ObserveFilter(kind, len(kept), len(items)-len(kept))
	logger.Debug("filtered", zap.String("kind", kind), zap.Int("kept", len(kept)), zap.Int("dropped", len(items)-len(kept)))
	return kept, nil
}

func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, v := range items {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

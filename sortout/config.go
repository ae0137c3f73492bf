package sortout

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/model"
)

// Stationarity selects the differencing order of the ARIMA family.
type Stationarity string

const (
	// Stationary fits every ARIMA model with d = 0.
	Stationary Stationarity = "stationary"
	// NonStationary fits every ARIMA model with d = 2.
	NonStationary Stationarity = "nonstationary"
	// AutoStationarity picks d with a KPSS test on the train split.
	AutoStationarity Stationarity = "auto"
)

// Family enables a model family up to a maximum order.
type Family struct {
	Enabled  bool
	MaxOrder int
}

// Config controls one search.
type Config struct {
	Arima        Family
	Neural       Family
	Fuzzy        Family
	Stationarity Stationarity

	// QualityBorder is the largest acceptable test MAPE.
	QualityBorder float64
	// OverfitBorder is the largest acceptable train/test divergence.
	OverfitBorder float64

	Weighted bool
	Learned  bool

	ForecastCount int
	Split         model.Split

	// MaxPoolSize fails the run before fitting when the pool would be
	// larger. Zero disables the check.
	MaxPoolSize int
	// MaxSubsets stops enumeration after that many masks. Zero means all,
	// which fails with ErrBudgetExceeded past MaxMasks.
	MaxSubsets int
	Timeout    time.Duration

	// Workers bounds concurrent fits. Zero uses GOMAXPROCS.
	Workers int
	// SkipFailed drops candidates whose fit or evaluation fails instead of
	// aborting the run.
	SkipFailed bool
}

// DefaultConfig returns a search over ARIMA and neural models up to order 2
// with both ensemble strategies.
func DefaultConfig() Config {
	return Config{
		Arima:         Family{Enabled: true, MaxOrder: 2},
		Neural:        Family{Enabled: true, MaxOrder: 2},
		Stationarity:  Stationary,
		QualityBorder: 0.2,
		OverfitBorder: 0.5,
		Weighted:      true,
		Learned:       true,
		ForecastCount: 5,
		Split:         model.DefaultSplit,
		MaxPoolSize:   12,
	}
}

// Validate checks the config for values the search cannot run with.
func (c Config) Validate() error {
	for name, f := range map[string]Family{"arima": c.Arima, "neural": c.Neural, "fuzzy": c.Fuzzy} {
		if f.Enabled && f.MaxOrder < 1 {
			return errors.Errorf("%s family enabled with max order %d", name, f.MaxOrder)
		}
	}
	switch c.Stationarity {
	case Stationary, NonStationary, AutoStationarity:
	case "":
	default:
		return errors.Errorf("unknown stationarity %q", c.Stationarity)
	}
	if c.QualityBorder < 0 || c.OverfitBorder < 0 {
		return errors.Errorf("negative border: quality %v, overfit %v", c.QualityBorder, c.OverfitBorder)
	}
	if c.ForecastCount < 0 {
		return errors.Errorf("negative forecast count %d", c.ForecastCount)
	}
	if c.Split.Train <= 0 || c.Split.Test < 0 || c.Split.Train+c.Split.Test > 100 {
		return errors.Errorf("invalid split %d/%d", c.Split.Train, c.Split.Test)
	}
	if c.MaxPoolSize < 0 || c.MaxSubsets < 0 || c.Workers < 0 || c.Timeout < 0 {
		return errors.New("budgets must not be negative")
	}
	return nil
}

// Package config loads the settings of a search or replay run from YAML or
// from the legacy semicolon separated params file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/sortout"
)

// Run modes.
const (
	ModeSearch = "search"
	ModeReplay = "replay"
)

// Input and output file names.
const (
	SeriesFile      = "ts.csv"
	ParamsFile      = "params.csv"
	DescriptionFile = "model.csv"
)

// Stationarity is "true", "false" or "auto". YAML booleans are accepted.
type Stationarity string

const (
	StationarityTrue  Stationarity = "true"
	StationarityFalse Stationarity = "false"
	StationarityAuto  Stationarity = "auto"
)

func (s *Stationarity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: stationary must be a scalar", node.Line)
	}
	*s = Stationarity(strings.ToLower(strings.TrimSpace(node.Value)))
	return nil
}

// Family enables a model family up to a maximum order.
type Family struct {
	Enabled  bool `yaml:"enabled"`
	MaxOrder int  `yaml:"max_order" default:"2" validate:"required_if=Enabled true,gte=0,lte=63"`
}

// Fuzzy is the fuzzy family together with its remote backend.
type Fuzzy struct {
	Enabled  bool          `yaml:"enabled"`
	MaxOrder int           `yaml:"max_order" default:"2" validate:"required_if=Enabled true,gte=0,lte=63"`
	URL      string        `yaml:"url" validate:"required_if=Enabled true"`
	Timeout  time.Duration `yaml:"timeout" default:"30s" validate:"gte=0"`
}

// Split holds train and test percentages.
type Split struct {
	Train int `yaml:"train" validate:"gt=0,lte=100"`
	Test  int `yaml:"test" validate:"gte=0,lte=100"`
}

// Model converts the split for model construction.
func (s Split) Model() model.Split {
	return model.Split{Train: s.Train, Test: s.Test}
}

// Strategies enables the ensemble strategies.
type Strategies struct {
	Weighted bool `yaml:"weighted" default:"true"`
	Learned  bool `yaml:"learned" default:"true"`
}

// Budget bounds the search.
type Budget struct {
	MaxPoolSize int           `yaml:"max_pool_size" default:"12" validate:"gte=0"`
	MaxSubsets  int           `yaml:"max_subsets" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// IO names the input and output directories.
type IO struct {
	InputDir  string `yaml:"input_dir" default:"input" validate:"required"`
	OutputDir string `yaml:"output_dir" default:"output" validate:"required"`
	// PerRunDir writes the results of each search into a sub-directory
	// named after the run id.
	PerRunDir bool `yaml:"per_run_dir"`
}

// Config is the complete run configuration.
type Config struct {
	Mode string `yaml:"mode" default:"search" validate:"oneof=search replay"`

	Arima      Family       `yaml:"arima"`
	Neural     Family       `yaml:"neural"`
	Fuzzy      Fuzzy        `yaml:"fuzzy"`
	Stationary Stationarity `yaml:"stationary" default:"true" validate:"oneof=true false auto"`

	QualityBorder float64 `yaml:"quality_border" default:"0.2" validate:"gte=0"`
	OverfitBorder float64 `yaml:"overfit_border" default:"0.5" validate:"gte=0"`

	Strategies    Strategies `yaml:"strategies"`
	ForecastCount int        `yaml:"forecast_count" default:"5" validate:"gte=0"`

	Split       Split `yaml:"split"`
	ReplaySplit Split `yaml:"replay_split"`

	Budget     Budget `yaml:"budget"`
	Workers    int    `yaml:"workers" validate:"gte=0"`
	SkipFailed bool   `yaml:"skip_failed"`

	IO IO `yaml:"io"`
}

// SetDefaults fills what struct tags cannot express: the splits share a
// type but not their defaults, and only two of the families are enabled.
func (c *Config) SetDefaults() {
	if c.Split == (Split{}) {
		c.Split = Split{Train: model.DefaultSplit.Train, Test: model.DefaultSplit.Test}
	}
	if c.ReplaySplit == (Split{}) {
		c.ReplaySplit = Split{Train: model.ReplaySplit.Train, Test: model.ReplaySplit.Test}
	}
	c.Arima.Enabled = true
	c.Neural.Enabled = true
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(Split)
		if s.Train+s.Test > 100 {
			sl.ReportError(s.Test, "Test", "Test", "split", "")
		}
	}, Split{})
	return v
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, errors.Wrap(err, "set config defaults")
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(b)
}

// Parse applies defaults, then the YAML document, then validation.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "validate config")
	}
	return nil
}

// Replay reports whether the run rebuilds a described model.
func (c *Config) Replay() bool { return c.Mode == ModeReplay }

// SortOut returns the search settings.
func (c *Config) SortOut() sortout.Config {
	return sortout.Config{
		Arima:         sortout.Family{Enabled: c.Arima.Enabled, MaxOrder: c.Arima.MaxOrder},
		Neural:        sortout.Family{Enabled: c.Neural.Enabled, MaxOrder: c.Neural.MaxOrder},
		Fuzzy:         sortout.Family{Enabled: c.Fuzzy.Enabled, MaxOrder: c.Fuzzy.MaxOrder},
		Stationarity:  c.Stationary.SortOut(),
		QualityBorder: c.QualityBorder,
		OverfitBorder: c.OverfitBorder,
		Weighted:      c.Strategies.Weighted,
		Learned:       c.Strategies.Learned,
		ForecastCount: c.ForecastCount,
		Split:         c.Split.Model(),
		MaxPoolSize:   c.Budget.MaxPoolSize,
		MaxSubsets:    c.Budget.MaxSubsets,
		Timeout:       c.Budget.Timeout,
		Workers:       c.Workers,
		SkipFailed:    c.SkipFailed,
	}
}

// SortOut maps the setting onto the search stationarity.
func (s Stationarity) SortOut() sortout.Stationarity {
	switch s {
	case StationarityFalse:
		return sortout.NonStationary
	case StationarityAuto:
		return sortout.AutoStationarity
	default:
		return sortout.Stationary
	}
}

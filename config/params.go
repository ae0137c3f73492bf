package config

import (
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/timeseries"
)

// Positions in the legacy params file.
const (
	paramArima = iota
	paramNeural
	paramFuzzy
	paramQualityBorder
	paramOverfitBorder
	paramArimaOrder
	paramNeuralOrder
	paramFuzzyOrder
	paramLearned
	paramWeighted
	paramForecastCount
	paramStationary
	paramMode

	paramCount
)

// legacySearchMode is the mode token selecting a search. Any other token
// selects a replay.
const legacySearchMode = "Test"

// ParseParams builds a configuration from the thirteen tokens of the legacy
// params file. Flags are "1" or "0", borders may use a comma as the decimal
// separator. Settings the tokens do not carry keep their defaults. The
// result is not validated since the tokens carry no fuzzy backend URL;
// callers fill in what is missing and call Validate.
func ParseParams(tokens []string) (*Config, error) {
	if len(tokens) != paramCount {
		return nil, errors.Errorf("params: expected %d tokens, got %d", paramCount, len(tokens))
	}
	c, err := Default()
	if err != nil {
		return nil, err
	}

	c.Arima.Enabled = flag(tokens[paramArima])
	c.Neural.Enabled = flag(tokens[paramNeural])
	c.Fuzzy.Enabled = flag(tokens[paramFuzzy])
	c.Strategies.Learned = flag(tokens[paramLearned])
	c.Strategies.Weighted = flag(tokens[paramWeighted])
	if flag(tokens[paramStationary]) {
		c.Stationary = StationarityTrue
	} else {
		c.Stationary = StationarityFalse
	}

	if c.QualityBorder, err = timeseries.ParseFloat(tokens[paramQualityBorder], nil); err != nil {
		return nil, errors.Wrap(err, "params: quality border")
	}
	if c.OverfitBorder, err = timeseries.ParseFloat(tokens[paramOverfitBorder], nil); err != nil {
		return nil, errors.Wrap(err, "params: overfit border")
	}

	ints := []struct {
		name string
		pos  int
		dst  *int
	}{
		{"arima order", paramArimaOrder, &c.Arima.MaxOrder},
		{"neural order", paramNeuralOrder, &c.Neural.MaxOrder},
		{"fuzzy order", paramFuzzyOrder, &c.Fuzzy.MaxOrder},
		{"forecast count", paramForecastCount, &c.ForecastCount},
	}
	for _, p := range ints {
		if *p.dst, err = strconv.Atoi(tokens[p.pos]); err != nil {
			return nil, errors.Wrapf(err, "params: %s", p.name)
		}
	}

	if tokens[paramMode] == legacySearchMode {
		c.Mode = ModeSearch
	} else {
		c.Mode = ModeReplay
	}
	return c, nil
}

// ReadParams reads the legacy params file from r.
func ReadParams(r io.Reader) (*Config, error) {
	tokens, err := timeseries.ReadFields(r, nil)
	if err != nil {
		return nil, errors.Wrap(err, "params")
	}
	return ParseParams(tokens)
}

// LoadParams reads the legacy params file at path.
func LoadParams(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open params file")
	}
	defer f.Close()
	return ReadParams(f)
}

func flag(token string) bool { return token == "1" }

package ensemble

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/model"
	"github.com/sartorproj/goensemble/quality"
)

// DefaultCacheSize bounds an ErrorCache when no size is given.
const DefaultCacheSize = 4096

type errorKey struct {
	m        model.Model
	from, to int
}

// ErrorCache memoizes the summed train percent error of a model over an
// index range. The search builds one weighted ensemble per subset, so each
// pool model's error is otherwise recomputed for every subset containing it.
// It is safe for concurrent use.
type ErrorCache struct {
	lru *lru.Cache[errorKey, float64]
}

// NewErrorCache creates a cache holding up to size entries.
func NewErrorCache(size int) (*ErrorCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[errorKey, float64](size)
	if err != nil {
		return nil, errors.Wrap(err, "create error cache")
	}
	return &ErrorCache{lru: c}, nil
}

// Len returns the number of cached entries.
func (c *ErrorCache) Len() int { return c.lru.Len() }

// TrainError returns the sum of percent errors of m against its train split
// over indices from..to. A nil cache computes without memoizing.
func (c *ErrorCache) TrainError(m model.Model, from, to int) (float64, error) {
	key := errorKey{m: m, from: from, to: to}
	if c != nil {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
	}

	sum := 0.0
	for t := from; t <= to; t++ {
		actual, err := m.Train().TimeValue(t)
		if err != nil {
			return 0, err
		}
		f, err := m.Forecast(t)
		if err != nil {
			return 0, err
		}
		sum += quality.PercentError(actual, f)
	}

	if c != nil {
		c.lru.Add(key, sum)
	}
	return sum, nil
}

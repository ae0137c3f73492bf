// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
)

// ErrMissingKey is returned when a time index is not present in the series.
var ErrMissingKey = errors.New("time index not present in series")

// tolerance used by Equal for value comparison.
const tolerance = 1e-9

// TimeSeries maps 1-based time indices to values and tracks the running
// maximum of every value ever inserted.
type TimeSeries struct {
	values   map[int]float64
	maxValue float64
}

// New creates an empty time series.
func New() *TimeSeries {
	return &TimeSeries{values: make(map[int]float64)}
}

// FromValues creates a time series keyed 1..len(values).
func FromValues(values []float64) *TimeSeries {
	s := New()
	for _, v := range values {
		s.AddTimeValue(v)
	}
	return s
}

// AddTimeValue appends a value at index Len()+1.
func (s *TimeSeries) AddTimeValue(value float64) {
	s.Add(len(s.values)+1, value)
}

// Add sets the value at index t, overwriting any previous value.
func (s *TimeSeries) Add(t int, value float64) {
	if value > s.maxValue {
		s.maxValue = value
	}
	s.values[t] = value
}

// Remove deletes the value at index t. The tracked maximum is kept.
func (s *TimeSeries) Remove(t int) {
	delete(s.values, t)
}

// TimeValue returns the value at index t.
func (s *TimeSeries) TimeValue(t int) (float64, error) {
	v, ok := s.values[t]
	if !ok {
		return 0, errors.Wrapf(ErrMissingKey, "index %d", t)
	}
	return v, nil
}

// Len returns the number of stored points, not the largest index.
func (s *TimeSeries) Len() int {
	return len(s.values)
}

// MaxValue returns the running maximum used by Normalize and Denormalize.
func (s *TimeSeries) MaxValue() float64 {
	return s.maxValue
}

// Keys returns the stored indices in ascending order.
func (s *TimeSeries) Keys() []int {
	keys := make([]int, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Values returns the stored values ordered by index.
func (s *TimeSeries) Values() []float64 {
	keys := s.Keys()
	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = s.values[k]
	}
	return values
}

// Normalize divides every value by the tracked maximum in place.
// A series whose maximum is zero is left unchanged.
func (s *TimeSeries) Normalize() {
	if s.maxValue == 0 {
		return
	}
	for k, v := range s.values {
		s.values[k] = v / s.maxValue
	}
}

// Denormalize multiplies every value by the tracked maximum in place.
func (s *TimeSeries) Denormalize() {
	s.DenormalizeWith(s.maxValue)
}

// DenormalizeWith multiplies every value by an external maximum in place.
func (s *TimeSeries) DenormalizeWith(maxValue float64) {
	for k, v := range s.values {
		s.values[k] = v * maxValue
	}
}

// Equal reports whether both series have the same size and every value of s
// matches the value stored under the same index in other.
func (s *TimeSeries) Equal(other *TimeSeries) bool {
	if s == other {
		return true
	}
	if other == nil || s.Len() != other.Len() {
		return false
	}
	for k, v := range s.values {
		ov, ok := other.values[k]
		if !ok || !scalar.EqualWithinAbsOrRel(v, ov, tolerance, tolerance) {
			return false
		}
	}
	return true
}

// Copy creates a deep copy of the series, including the tracked maximum.
func (s *TimeSeries) Copy() *TimeSeries {
	c := &TimeSeries{
		values:   make(map[int]float64, len(s.values)),
		maxValue: s.maxValue,
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Split partitions the series by position: the first trainPercent of points
// form train, the next testPercent form test and the remainder forms
// validate. Each part is re-keyed from 1.
func (s *TimeSeries) Split(trainPercent, testPercent int) (train, test, validate *TimeSeries) {
	keys := s.Keys()
	size := len(keys)
	trainSize := PartSize(size, trainPercent)
	testSize := PartSize(size, testPercent)
	if trainSize+testSize > size {
		testSize = size - trainSize
	}

	train, test, validate = New(), New(), New()
	for i, k := range keys {
		switch {
		case i < trainSize:
			train.AddTimeValue(s.values[k])
		case i < trainSize+testSize:
			test.AddTimeValue(s.values[k])
		default:
			validate.AddTimeValue(s.values[k])
		}
	}
	return train, test, validate
}

// PartSize returns floor(size*percent/100).
func PartSize(size, percent int) int {
	if percent <= 0 || size <= 0 {
		return 0
	}
	return size * percent / 100
}

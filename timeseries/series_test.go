package timeseries

import (
	"errors"
	"math"
	"testing"
)

func scenarioSeries() *TimeSeries {
	return FromValues([]float64{1.0, 2.0, 1.3, 1.0, 1.1, 2.2, 1.1, 1.7, 1.5, 1.9})
}

func TestAddTimeValue(t *testing.T) {
	s := New()
	s.AddTimeValue(3)
	s.AddTimeValue(5)
	s.AddTimeValue(4)

	if s.Len() != 3 {
		t.Errorf("Expected length 3, got %d", s.Len())
	}
	if s.MaxValue() != 5 {
		t.Errorf("Expected max 5, got %f", s.MaxValue())
	}

	v, err := s.TimeValue(3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v != 4 {
		t.Errorf("Expected value 4 at index 3, got %f", v)
	}
}

func TestAddOverwrite(t *testing.T) {
	s := FromValues([]float64{1, 2, 3})
	s.Add(2, 10)
	s.Add(7, 1)

	if s.Len() != 4 {
		t.Errorf("Expected length 4 after overwrite and insert, got %d", s.Len())
	}
	if s.MaxValue() != 10 {
		t.Errorf("Expected max 10, got %f", s.MaxValue())
	}

	keys := s.Keys()
	expected := []int{1, 2, 3, 7}
	for i, k := range expected {
		if keys[i] != k {
			t.Errorf("Key %d: expected %d, got %d", i, k, keys[i])
		}
	}
}

func TestTimeValueMissingKey(t *testing.T) {
	s := FromValues([]float64{1, 2})

	_, err := s.TimeValue(5)
	if !errors.Is(err, ErrMissingKey) {
		t.Errorf("Expected ErrMissingKey, got %v", err)
	}

	s.Remove(1)
	if _, err := s.TimeValue(1); !errors.Is(err, ErrMissingKey) {
		t.Errorf("Expected ErrMissingKey after remove, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Expected length 1 after remove, got %d", s.Len())
	}
}

func TestNormalizeDenormalize(t *testing.T) {
	values := []float64{3, 9, 4.5, 0.3, 6}
	s := FromValues(values)

	s.Normalize()
	for i, v := range s.Values() {
		if math.Abs(v-values[i]/9) > 1e-12 {
			t.Errorf("Normalized value %d: expected %f, got %f", i, values[i]/9, v)
		}
	}

	s.Denormalize()
	for i, v := range s.Values() {
		if math.Abs(v-values[i]) > 1e-12 {
			t.Errorf("Round trip value %d: expected %f, got %f", i, values[i], v)
		}
	}
}

func TestDenormalizeWith(t *testing.T) {
	s := FromValues([]float64{0.5, 0.25})
	s.DenormalizeWith(4)

	expected := []float64{2, 1}
	for i, v := range s.Values() {
		if v != expected[i] {
			t.Errorf("Value %d: expected %f, got %f", i, expected[i], v)
		}
	}
}

func TestNormalizeZeroMax(t *testing.T) {
	s := FromValues([]float64{0, -1, -2})
	s.Normalize()

	for _, v := range s.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("Normalize produced %f for a series without a positive maximum", v)
		}
	}
}

func TestEqual(t *testing.T) {
	a := scenarioSeries()
	b := scenarioSeries()

	if !a.Equal(b) {
		t.Error("Expected identical series to be equal")
	}

	b.Add(3, 1.3+1e-13)
	if !a.Equal(b) {
		t.Error("Expected series within tolerance to be equal")
	}

	b.Add(4, 1.5)
	if a.Equal(b) {
		t.Error("Expected series with a different value to differ")
	}

	c := FromValues([]float64{1.0, 2.0})
	if a.Equal(c) {
		t.Error("Expected series of different size to differ")
	}

	if a.Equal(nil) {
		t.Error("Expected nil series to differ")
	}
}

func TestSplitScenario(t *testing.T) {
	train, test, validate := scenarioSeries().Split(80, 20)

	if train.Len() != 8 {
		t.Errorf("Expected train length 8, got %d", train.Len())
	}
	if test.Len() != 2 {
		t.Errorf("Expected test length 2, got %d", test.Len())
	}
	if validate.Len() != 0 {
		t.Errorf("Expected empty validate split, got %d", validate.Len())
	}

	checks := []struct {
		series *TimeSeries
		index  int
		want   float64
	}{
		{train, 1, 1.0},
		{train, 8, 1.7},
		{test, 1, 1.5},
		{test, 2, 1.9},
	}
	for _, c := range checks {
		v, err := c.series.TimeValue(c.index)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v != c.want {
			t.Errorf("Index %d: expected %f, got %f", c.index, c.want, v)
		}
	}
}

func TestSplitSizes(t *testing.T) {
	for size := 1; size <= 40; size++ {
		values := make([]float64, size)
		for i := range values {
			values[i] = float64(i + 1)
		}
		s := FromValues(values)

		for trainPct := 0; trainPct <= 100; trainPct += 10 {
			for testPct := 0; trainPct+testPct <= 100; testPct += 10 {
				train, test, validate := s.Split(trainPct, testPct)

				want := size*trainPct/100 + size*testPct/100
				if train.Len()+test.Len() != want {
					t.Fatalf("size=%d split=%d/%d: expected %d points, got %d",
						size, trainPct, testPct, want, train.Len()+test.Len())
				}
				if train.Len()+test.Len()+validate.Len() != size {
					t.Fatalf("size=%d split=%d/%d: parts do not cover the series", size, trainPct, testPct)
				}

				// train precedes test positionally
				if train.Len() > 0 && test.Len() > 0 {
					last, _ := train.TimeValue(train.Len())
					first, _ := test.TimeValue(1)
					if last >= first {
						t.Fatalf("size=%d split=%d/%d: train does not precede test", size, trainPct, testPct)
					}
				}
			}
		}
	}
}

func TestSplitUsesPositionNotIndex(t *testing.T) {
	s := New()
	s.Add(10, 1)
	s.Add(20, 2)
	s.Add(30, 3)
	s.Add(40, 4)

	train, test, _ := s.Split(50, 50)

	if v, _ := train.TimeValue(2); v != 2 {
		t.Errorf("Expected second train value 2, got %f", v)
	}
	if v, _ := test.TimeValue(1); v != 3 {
		t.Errorf("Expected first test value 3, got %f", v)
	}
}

func TestCopy(t *testing.T) {
	s := FromValues([]float64{1, 2, 3})
	c := s.Copy()
	c.Add(1, 100)

	if v, _ := s.TimeValue(1); v != 1 {
		t.Errorf("Copy shares storage with the original")
	}
	if c.MaxValue() != 100 || s.MaxValue() != 3 {
		t.Errorf("Unexpected max values: original %f, copy %f", s.MaxValue(), c.MaxValue())
	}
}

package sortout

import (
	"math"

	"github.com/sartorproj/goensemble/model"
)

// Qualifies reports whether m's test MAPE is within qualityBorder and its
// train/test divergence within overfitBorder. An undefined MAPE never
// qualifies.
func Qualifies(m model.Model, qualityBorder, overfitBorder float64) (bool, error) {
	test, err := model.TestMAPE(m)
	if err != nil {
		return false, err
	}
	if math.IsNaN(test) || test > qualityBorder {
		return false, nil
	}
	overfit, err := model.IsOverfit(m, overfitBorder)
	if err != nil {
		return false, err
	}
	return !overfit, nil
}

// Filter returns the items that qualify, keeping their order.
func Filter[M model.Model](items []M, qualityBorder, overfitBorder float64) ([]M, error) {
	out := make([]M, 0, len(items))
	for _, m := range items {
		ok, err := Qualifies(m, qualityBorder, overfitBorder)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

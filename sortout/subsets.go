package sortout

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/model"
)

// ErrBudgetExceeded is returned when a search would exceed its pool budget.
var ErrBudgetExceeded = errors.New("search budget exceeded")

// maxMaskBits is the largest pool a uint64 mask can address.
const maxMaskBits = 63

// MaxMasks bounds the masks a single search enumerates. Larger pools need
// MaxSubsets to run.
const MaxMasks = 1 << 16

// SubsetCount returns how many masks a pool of n models enumerates when at
// most limit masks are taken. A positive limit truncates the count. It fails
// with ErrBudgetExceeded when the count is over MaxMasks.
func SubsetCount(n, limit int) (int, error) {
	if n < 0 || n > maxMaskBits {
		return 0, errors.Wrapf(ErrBudgetExceeded, "pool of %d models", n)
	}
	total := uint64(1)<<uint(n) - 1
	if limit > 0 && uint64(limit) < total {
		total = uint64(limit)
	}
	if total > MaxMasks {
		return 0, errors.Wrapf(ErrBudgetExceeded, "pool of %d models needs %d subsets, limit is %d", n, total, MaxMasks)
	}
	return int(total), nil
}

// Masks returns the non-empty selection masks 1..2^n-1 in increasing order.
// Bit i of a mask selects pool model i. A positive limit truncates the list.
func Masks(n, limit int) ([]uint64, error) {
	count, err := SubsetCount(n, limit)
	if err != nil {
		return nil, err
	}
	masks := make([]uint64, count)
	for i := range masks {
		masks[i] = uint64(i + 1)
	}
	return masks, nil
}

// Select returns the pool models chosen by mask in pool order.
func Select[M model.Model](pool []M, mask uint64) []M {
	out := make([]M, 0, bits.OnesCount64(mask))
	for i, m := range pool {
		if mask&(1<<uint(i)) != 0 {
			out = append(out, m)
		}
	}
	return out
}

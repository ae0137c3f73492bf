package model

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/quality"
	"github.com/sartorproj/goensemble/timeseries"
)

// Kind classifies the failures a model, an ensemble or the search can raise.
// A Kind is itself an error, so the Err values below are Kinds and serve as
// sentinels for errors.Is.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidOrder
	KindSeriesMismatch
	KindNotFit
	KindInvalidTimeIndex
	KindInvalidDescription
	KindBackend
	KindSizeMismatch
	KindMissingKey
)

var (
	ErrInvalidOrder       error = KindInvalidOrder
	ErrSeriesMismatch     error = KindSeriesMismatch
	ErrNotFit             error = KindNotFit
	ErrInvalidTimeIndex   error = KindInvalidTimeIndex
	ErrInvalidDescription error = KindInvalidDescription
	ErrBackend            error = KindBackend
)

// Comparison and lookup failures originate in the quality and timeseries
// packages; they are re-exported so callers only need this package.
var (
	ErrSizeMismatch = quality.ErrSizeMismatch
	ErrMissingKey   = timeseries.ErrMissingKey
)

var kindMessages = map[Kind]string{
	KindUnknown:            "unknown error",
	KindInvalidOrder:       "invalid model order",
	KindSeriesMismatch:     "models of the ensemble use different time series",
	KindNotFit:             "model is not fit",
	KindInvalidTimeIndex:   "invalid time index of the forecast value",
	KindInvalidDescription: "invalid model description",
	KindBackend:            "model backend failure",
	KindSizeMismatch:       "invalid time series length",
	KindMissingKey:         "time index not present in series",
}

func (k Kind) Error() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[KindUnknown]
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	switch {
	case errors.Is(err, ErrSizeMismatch):
		return KindSizeMismatch
	case errors.Is(err, ErrMissingKey):
		return KindMissingKey
	}
	return KindUnknown
}

// BackendError marks err as a failure of a concrete model backend while
// keeping err itself in the chain.
func BackendError(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}

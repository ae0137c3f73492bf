package sortout

import "time"

// Recorder observes a search. Implementations must be safe for concurrent
// use since fits run in parallel.
type Recorder interface {
	// ObserveFit records one fit of a base model family or ensemble strategy.
	ObserveFit(kind string, elapsed time.Duration, err error)
	// SetPoolSize records the number of fitted base models.
	SetPoolSize(n int)
	// AddSubsets records enumerated masks.
	AddSubsets(n int)
	// ObserveFilter records how many candidates of a kind survived filtering.
	ObserveFilter(kind string, kept, dropped int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFit(string, time.Duration, error) {}
func (nopRecorder) SetPoolSize(int)                        {}
func (nopRecorder) AddSubsets(int)                         {}
func (nopRecorder) ObserveFilter(string, int, int)         {}

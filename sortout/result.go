package sortout

import (
	"github.com/sartorproj/goensemble/ensemble"
	"github.com/sartorproj/goensemble/model"
)

// Result holds the candidates that passed the quality gate.
type Result struct {
	RunID    string
	Models   []model.Model
	Weighted []*ensemble.WeightedAverage
	Learned  []*ensemble.Learned

	PoolSize int // fitted base models before filtering
	Subsets  int // masks enumerated
}

// Candidates returns standalone models, then weighted and then learned
// ensembles.
func (r *Result) Candidates() []model.Model {
	out := make([]model.Model, 0, len(r.Models)+len(r.Weighted)+len(r.Learned))
	out = append(out, r.Models...)
	for _, w := range r.Weighted {
		out = append(out, w)
	}
	for _, l := range r.Learned {
		out = append(out, l)
	}
	return out
}

// Collect places a single model into the matching result list.
func Collect(m model.Model) *Result {
	r := &Result{}
	switch v := m.(type) {
	case *ensemble.WeightedAverage:
		r.Weighted = append(r.Weighted, v)
	case *ensemble.Learned:
		r.Learned = append(r.Learned, v)
	default:
		r.Models = append(r.Models, m)
	}
	return r
}

package sortout

import (
	"context"

	"github.com/sartorproj/goensemble/description"
	"github.com/sartorproj/goensemble/model"
)

// Replay rebuilds the model graph of a description with f and fits it.
func Replay(ctx context.Context, desc string, f *Factory) (model.Model, error) {
	m, err := description.Parse(desc, f)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

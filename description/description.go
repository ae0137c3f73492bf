// Package description renders models and ensembles as text and rebuilds
// them from that text.
//
// The grammar is
//
//	model    = "Arima" "(" int "," int "," int ")"
//	         | "Neural" "(" int ")"
//	         | "Fuzzy" "(" int ")"
//	         | ("Weighted" | "Learned") "(" model { ";" model } [";"] ")"
//
// so an ensemble of an ARIMA(1,0,1) and an order-2 network reads
// "Weighted(Arima(1,0,1); Neural(2))".
package description

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/ensemble"
	"github.com/sartorproj/goensemble/family"
	"github.com/sartorproj/goensemble/model"
)

// Tags naming each model kind.
const (
	TagArima    = "Arima"
	TagNeural   = "Neural"
	TagFuzzy    = "Fuzzy"
	TagWeighted = "Weighted"
	TagLearned  = "Learned"
)

// Container is an ensemble that can be populated after construction.
type Container interface {
	model.Model
	AddModel(m model.Model) error
	Models() []model.Model
}

// Factory builds unfit models bound to one series.
type Factory interface {
	Arima(p, d, q int) (model.Model, error)
	Neural(order int) (model.Model, error)
	Fuzzy(order int) (model.Model, error)
	Weighted() (Container, error)
	Learned() (Container, error)
}

// Render returns the description of m.
func Render(m model.Model) (string, error) {
	var b strings.Builder
	if err := render(&b, m); err != nil {
		return "", err
	}
	return b.String(), nil
}

func render(b *strings.Builder, m model.Model) error {
	switch v := m.(type) {
	case *family.Arima:
		fmt.Fprintf(b, "%s(%d,%d,%d)", TagArima, v.P(), v.D(), v.Q())
	case *family.Neural:
		fmt.Fprintf(b, "%s(%d)", TagNeural, v.Order())
	case *family.Fuzzy:
		fmt.Fprintf(b, "%s(%d)", TagFuzzy, v.Order())
	case *ensemble.WeightedAverage:
		return renderEnsemble(b, TagWeighted, v.Models())
	case *ensemble.Learned:
		return renderEnsemble(b, TagLearned, v.Models())
	default:
		return errors.Wrapf(model.ErrInvalidDescription, "cannot describe %T", m)
	}
	return nil
}

func renderEnsemble(b *strings.Builder, tag string, models []model.Model) error {
	b.WriteString(tag)
	b.WriteByte('(')
	for i, m := range models {
		if i > 0 {
			b.WriteString("; ")
		}
		if err := render(b, m); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

package description

import (
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"

	"github.com/sartorproj/goensemble/model"
)

// Parse rebuilds the model graph described by s using f. Every failure,
// including one raised by f, is an ErrInvalidDescription unless f returned
// a classified error of its own.
func Parse(s string, f Factory) (model.Model, error) {
	p := newParser(s)
	m, err := p.model(f)
	if err != nil {
		return nil, err
	}
	if p.tok != scanner.EOF {
		return nil, p.errorf("unexpected %q after description", p.s.TokenText())
	}
	return m, nil
}

type parser struct {
	s      scanner.Scanner
	tok    rune
	lexErr string
}

func newParser(src string) *parser {
	p := &parser{}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts
	p.s.Error = func(_ *scanner.Scanner, msg string) { p.lexErr = msg }
	p.next()
	return p
}

func (p *parser) next() { p.tok = p.s.Scan() }

func (p *parser) errorf(format string, args ...any) error {
	err := errors.Wrapf(model.ErrInvalidDescription, format, args...)
	return errors.Wrapf(err, "at %s", p.s.Position)
}

func (p *parser) expect(tok rune) error {
	if p.lexErr != "" {
		return p.errorf("%s", p.lexErr)
	}
	if p.tok != tok {
		if p.tok == scanner.EOF {
			return p.errorf("expected %s, got end of input", scanner.TokenString(tok))
		}
		return p.errorf("expected %s, got %q", scanner.TokenString(tok), p.s.TokenText())
	}
	p.next()
	return nil
}

func (p *parser) integer() (int, error) {
	if p.tok != scanner.Int {
		if p.tok == scanner.EOF {
			return 0, p.errorf("expected integer, got end of input")
		}
		return 0, p.errorf("expected integer, got %q", p.s.TokenText())
	}
	v, err := strconv.Atoi(p.s.TokenText())
	if err != nil {
		return 0, p.errorf("integer %q", p.s.TokenText())
	}
	p.next()
	return v, nil
}

// ints reads n comma separated integers.
func (p *parser) ints(n int) ([]int, error) {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		v, err := p.integer()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *parser) model(f Factory) (model.Model, error) {
	if p.tok != scanner.Ident {
		if p.tok == scanner.EOF {
			return nil, p.errorf("empty description")
		}
		return nil, p.errorf("expected model tag, got %q", p.s.TokenText())
	}
	tag := p.s.TokenText()
	p.next()
	if err := p.expect('('); err != nil {
		return nil, err
	}

	var (
		m   model.Model
		err error
	)
	switch tag {
	case TagArima:
		var args []int
		if args, err = p.ints(3); err != nil {
			return nil, err
		}
		m, err = f.Arima(args[0], args[1], args[2])
	case TagNeural, TagFuzzy:
		var order int
		if order, err = p.integer(); err != nil {
			return nil, err
		}
		if tag == TagNeural {
			m, err = f.Neural(order)
		} else {
			m, err = f.Fuzzy(order)
		}
	case TagWeighted, TagLearned:
		m, err = p.ensemble(tag, f)
		if err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf("unknown model tag %q", tag)
	}
	if err != nil {
		return nil, classify(err)
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return m, nil
}

// ensemble reads the member list of an ensemble, stopping before ')'.
func (p *parser) ensemble(tag string, f Factory) (model.Model, error) {
	var (
		c   Container
		err error
	)
	if tag == TagWeighted {
		c, err = f.Weighted()
	} else {
		c, err = f.Learned()
	}
	if err != nil {
		return nil, classify(err)
	}

	for {
		child, err := p.model(f)
		if err != nil {
			return nil, err
		}
		if err := c.AddModel(child); err != nil {
			return nil, err
		}
		if p.tok != ';' {
			break
		}
		p.next()
		if p.tok == ')' {
			break
		}
	}
	return c, nil
}

// classify keeps factory errors that already carry a kind and marks the
// rest as invalid descriptions.
func classify(err error) error {
	if model.KindOf(err) != model.KindUnknown {
		return err
	}
	return errors.Wrap(model.ErrInvalidDescription, err.Error())
}

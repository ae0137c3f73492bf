// Package neural implements a small feed-forward regressor with one scalar
// output, trained by minibatch gradient descent with Nesterov momentum.
package neural

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when inputs do not match the network layout.
var ErrShape = errors.New("input shape does not match network")

// Activation is an element-wise layer activation.
type Activation int

const (
	Identity Activation = iota
	HardTanh
	Sigmoid
)

func (a Activation) apply(z float64) float64 {
	switch a {
	case HardTanh:
		return math.Max(-1, math.Min(1, z))
	case Sigmoid:
		return 1 / (1 + math.Exp(-z))
	default:
		return z
	}
}

// derivative returns d out / d z given the pre-activation z and output out.
func (a Activation) derivative(z, out float64) float64 {
	switch a {
	case HardTanh:
		if z > -1 && z < 1 {
			return 1
		}
		return 0
	case Sigmoid:
		return out * (1 - out)
	default:
		return 1
	}
}

// Layer describes one dense layer.
type Layer struct {
	Units      int
	Activation Activation
}

// Config describes the network layout and its training schedule.
type Config struct {
	Inputs       int
	Layers       []Layer // the last layer must have one unit
	LearningRate float64
	Momentum     float64
	Epochs       int // passes over the training set
	BatchSize    int
	Seed         int64
}

// FamilyConfig is the layout of a network forecasting from order lags:
// order -> 10 (hardtanh) -> 1 (sigmoid).
func FamilyConfig(order int) Config {
	return Config{
		Inputs:       order,
		Layers:       []Layer{{10, HardTanh}, {1, Sigmoid}},
		LearningRate: 0.01,
		Momentum:     0.9,
		Epochs:       50,
		BatchSize:    100,
		Seed:         12345,
	}
}

// CombinerConfig is the layout of a network combining n member forecasts:
// n -> 7 (hardtanh) -> 5 (hardtanh) -> 1 (sigmoid).
func CombinerConfig(n int) Config {
	return Config{
		Inputs:       n,
		Layers:       []Layer{{7, HardTanh}, {5, HardTanh}, {1, Sigmoid}},
		LearningRate: 0.01,
		Momentum:     0.9,
		Epochs:       5,
		BatchSize:    100,
		Seed:         12345,
	}
}

type dense struct {
	w, b   *mat.Dense // in x out, 1 x out
	vw, vb *mat.Dense // momentum
	act    Activation
}

// Network is a dense feed-forward network. Predict may be called
// concurrently; Fit may not run alongside any other call.
type Network struct {
	cfg    Config
	layers []*dense
}

// New builds a network with Xavier-initialized weights drawn from a source
// seeded with cfg.Seed, so equal configs yield equal networks.
func New(cfg Config) (*Network, error) {
	if cfg.Inputs < 1 {
		return nil, errors.Errorf("network needs at least one input, got %d", cfg.Inputs)
	}
	if len(cfg.Layers) == 0 || cfg.Layers[len(cfg.Layers)-1].Units != 1 {
		return nil, errors.New("network must end in a single-unit layer")
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	n := &Network{cfg: cfg}
	in := cfg.Inputs
	for _, l := range cfg.Layers {
		if l.Units < 1 {
			return nil, errors.Errorf("layer with %d units", l.Units)
		}
		scale := math.Sqrt(2 / float64(in+l.Units))
		w := mat.NewDense(in, l.Units, nil)
		w.Apply(func(_, _ int, _ float64) float64 { return rng.NormFloat64() * scale }, w)
		n.layers = append(n.layers, &dense{
			w:   w,
			b:   mat.NewDense(1, l.Units, nil),
			vw:  mat.NewDense(in, l.Units, nil),
			vb:  mat.NewDense(1, l.Units, nil),
			act: l.Activation,
		})
		in = l.Units
	}
	return n, nil
}

// Inputs returns the width of a feature vector.
func (n *Network) Inputs() int { return n.cfg.Inputs }

// Fit trains the network on rows of features against labels with mean
// squared error loss. Batches are taken in order.
func (n *Network) Fit(features [][]float64, labels []float64) error {
	x, err := n.matrix(features)
	if err != nil {
		return err
	}
	if len(labels) != len(features) {
		return errors.Wrapf(ErrShape, "%d rows and %d labels", len(features), len(labels))
	}

	rows := len(features)
	for epoch := 0; epoch < n.cfg.Epochs; epoch++ {
		for start := 0; start < rows; start += n.cfg.BatchSize {
			end := min(start+n.cfg.BatchSize, rows)
			batch := x.Slice(start, end, 0, n.cfg.Inputs).(*mat.Dense)
			n.step(batch, labels[start:end])
		}
	}
	return nil
}

// Predict returns the network output for one feature vector.
func (n *Network) Predict(features []float64) (float64, error) {
	if len(features) != n.cfg.Inputs {
		return 0, errors.Wrapf(ErrShape, "%d features for %d inputs", len(features), n.cfg.Inputs)
	}
	_, post := n.forward(mat.NewDense(1, n.cfg.Inputs, append([]float64(nil), features...)))
	return post[len(post)-1].At(0, 0), nil
}

// Loss returns the mean squared error over a data set.
func (n *Network) Loss(features [][]float64, labels []float64) (float64, error) {
	x, err := n.matrix(features)
	if err != nil {
		return 0, err
	}
	if len(labels) != len(features) {
		return 0, errors.Wrapf(ErrShape, "%d rows and %d labels", len(features), len(labels))
	}
	_, post := n.forward(x)
	out := mat.Col(nil, 0, post[len(post)-1])
	floats.Sub(out, labels)
	return floats.Dot(out, out) / float64(len(labels)), nil
}

func (n *Network) matrix(features [][]float64) (*mat.Dense, error) {
	if len(features) == 0 {
		return nil, errors.Wrap(ErrShape, "empty training set")
	}
	x := mat.NewDense(len(features), n.cfg.Inputs, nil)
	for i, row := range features {
		if len(row) != n.cfg.Inputs {
			return nil, errors.Wrapf(ErrShape, "row %d has %d features for %d inputs", i, len(row), n.cfg.Inputs)
		}
		x.SetRow(i, row)
	}
	return x, nil
}

// forward returns pre-activations per layer and activations including the
// input as post[0].
func (n *Network) forward(x *mat.Dense) (pre, post []*mat.Dense) {
	post = append(post, x)
	a := x
	for _, l := range n.layers {
		r, _ := a.Dims()
		_, c := l.w.Dims()
		z := mat.NewDense(r, c, nil)
		z.Mul(a, l.w)
		z.Apply(func(_, j int, v float64) float64 { return v + l.b.At(0, j) }, z)

		out := mat.NewDense(r, c, nil)
		out.Apply(func(_, _ int, v float64) float64 { return l.act.apply(v) }, z)

		pre = append(pre, z)
		post = append(post, out)
		a = out
	}
	return pre, post
}

// step performs one backpropagation pass over a batch.
func (n *Network) step(x *mat.Dense, labels []float64) {
	pre, post := n.forward(x)
	rows, _ := x.Dims()

	out := post[len(post)-1]
	delta := mat.NewDense(rows, 1, nil)
	delta.Apply(func(i, _ int, _ float64) float64 {
		return 2 * (out.At(i, 0) - labels[i]) / float64(rows)
	}, delta)

	for k := len(n.layers) - 1; k >= 0; k-- {
		l := n.layers[k]
		delta.Apply(func(i, j int, v float64) float64 {
			return v * l.act.derivative(pre[k].At(i, j), post[k+1].At(i, j))
		}, delta)

		in, units := l.w.Dims()
		gw := mat.NewDense(in, units, nil)
		gw.Mul(post[k].T(), delta)
		gb := mat.NewDense(1, units, nil)
		for j := 0; j < units; j++ {
			gb.Set(0, j, floats.Sum(mat.Col(nil, j, delta)))
		}

		var next *mat.Dense
		if k > 0 {
			next = mat.NewDense(rows, in, nil)
			next.Mul(delta, l.w.T())
		}

		n.nesterov(l.w, l.vw, gw)
		n.nesterov(l.b, l.vb, gb)
		delta = next
	}
}

// nesterov applies v' = mu*v - lr*g; w += -mu*v + (1+mu)*v'.
func (n *Network) nesterov(w, v, g *mat.Dense) {
	mu := n.cfg.Momentum
	lr := n.cfg.LearningRate
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			prev := v.At(i, j)
			nv := mu*prev - lr*g.At(i, j)
			v.Set(i, j, nv)
			w.Set(i, j, w.At(i, j)-mu*prev+(1+mu)*nv)
		}
	}
}

package distribution

import (
	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Normal is an isotropic gaussian: every dimension shares one mean and one
// standard deviation.
type Normal struct {
	dim       int
	mean, std float32
	g         *rng.GaussianGenerator
}

// NewNormal returns an isotropic gaussian prior over dim dimensions. The
// seed drives Sample and nothing else.
func NewNormal(dim int, mean, std float64, seed int64) (*Normal, error) {
	if dim < 1 {
		return nil, errors.Errorf("normal prior needs at least 1 dimension, got %d", dim)
	}
	if std <= 0 {
		return nil, errors.Errorf("normal prior needs a positive standard deviation, got %v", std)
	}
	return &Normal{
		dim:  dim,
		mean: float32(mean),
		std:  float32(std),
		g:    rng.NewGaussianGenerator(seed),
	}, nil
}

// Dim implements Prior.
func (n *Normal) Dim() int { return n.dim }

// LogProb emits -0.5*sum(((y-mean)/std)^2) - dim*(log(std) + 0.5*log(2π))
// per example.
func (n *Normal) LogProb(y *G.Node) (*G.Node, error) {
	if y == nil || y.Shape().Dims() != 2 || y.Shape()[1] != n.dim {
		return nil, errors.Errorf("normal prior over %d dims cannot score shape %v", n.dim, y.Shape())
	}
	centered, err := G.Sub(y, G.NewConstant(n.mean))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	scaled, err := G.Mul(centered, G.NewConstant(1/n.std))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sq, err := G.Square(scaled)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	quad, err := G.Sum(sq, 1)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	halved, err := G.Mul(quad, G.NewConstant(float32(-0.5)))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	z := float32(n.dim) * (math32.Log(n.std) + 0.5*math32.Log(2*math32.Pi))
	lp, err := G.Sub(halved, G.NewConstant(z))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return lp, nil
}

// Sample implements Prior.
func (n *Normal) Sample(count int) (*tensor.Dense, error) {
	if count < 1 {
		return nil, errors.Errorf("cannot draw %d samples", count)
	}
	backing := make([]float32, count*n.dim)
	for i := range backing {
		backing[i] = float32(n.g.Gaussian(float64(n.mean), float64(n.std)))
	}
	return tensor.New(tensor.WithShape(count, n.dim), tensor.WithBacking(backing)), nil
}

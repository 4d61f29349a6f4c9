package nvp

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// Subnet is a differentiable function approximator R^D → R^D. Apply emits
// ops against the graph owning the subnet's parameters; it may be called any
// number of times (the forward and inverse paths both evaluate it) and every
// application shares the same parameters.
type Subnet interface {
	Apply(x *G.Node) (*G.Node, error)
}

type maebe struct {
	err error
}

// generic monad... may be useful
func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) mul(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.HadamardProd(a, b) })
}

func (m *maebe) add(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Add(a, b) })
}

func (m *maebe) sub(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Sub(a, b) })
}

func (m *maebe) exp(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Exp(a) })
}

func (m *maebe) neg(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Neg(a) })
}

func (m *maebe) sum(a *G.Node, along int) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Sum(a, along) })
}

func (m *maebe) mean(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Mean(a) })
}

func (m *maebe) tanh(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Tanh(a) })
}

// leaky is a leaky rectifier built from ops the graph compiler treats well:
// alpha*x + (1-alpha)*max(x, 0).
func (m *maebe) leaky(a *G.Node, alpha float64) *G.Node {
	low := m.do(func() (*G.Node, error) { return G.Mul(a, G.NewConstant(float32(alpha))) })
	rect := m.do(func() (*G.Node, error) { return G.Rectify(a) })
	high := m.do(func() (*G.Node, error) { return G.Mul(rect, G.NewConstant(float32(1-alpha))) })
	return m.add(low, high)
}

// feedforward is the dense network both subnet constructors share: one linear
// layer per hidden size plus a final linear back to dim, joined by leaky
// rectifiers. Biases carry the batch dimension, same trick as the masks.
type feedforward struct {
	dim     int
	alpha   float64
	bounded bool // squash the output into (-1,1)

	ws []*G.Node
	bs []*G.Node
}

func newFeedforward(g *G.ExprGraph, dim, batch int, hidden []int, name string, init G.InitWFn, alpha float64, bounded bool) *feedforward {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, dim)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, dim)

	n := &feedforward{dim: dim, alpha: alpha, bounded: bounded}
	for i := 0; i < len(sizes)-1; i++ {
		w := G.NewMatrix(g, Float, G.WithShape(sizes[i], sizes[i+1]), G.WithName(fmt.Sprintf("%s_w%d", name, i)), G.WithInit(init))
		b := G.NewMatrix(g, Float, G.WithShape(batch, sizes[i+1]), G.WithName(fmt.Sprintf("%s_b%d", name, i)), G.WithInit(G.Zeroes()))
		n.ws = append(n.ws, w)
		n.bs = append(n.bs, b)
	}
	return n
}

func (n *feedforward) Apply(x *G.Node) (*G.Node, error) {
	var m maebe
	h := x
	last := len(n.ws) - 1
	for i := range n.ws {
		w, b := n.ws[i], n.bs[i]
		h = m.do(func() (*G.Node, error) { return G.Mul(h, w) })
		h = m.add(h, b)
		if i != last {
			h = m.leaky(h, n.alpha)
		}
	}
	if n.bounded {
		h = m.tanh(h)
	}
	return h, m.err
}

// NewTranslate builds the translation approximator: hidden linear layers with
// leaky rectifiers, final linear back to dim, unbounded output.
func NewTranslate(g *G.ExprGraph, dim, batch int, hidden []int, name string, init G.InitWFn, alpha float64) Subnet {
	return newFeedforward(g, dim, batch, hidden, name, init, alpha, false)
}

// NewScale builds the scale approximator: same topology as NewTranslate with
// a final tanh. The scale output feeds an exponential in the coupling
// transform, so its range has to be bounded or exp overflows and gradients
// blow up.
func NewScale(g *G.ExprGraph, dim, batch int, hidden []int, name string, init G.InitWFn, alpha float64) Subnet {
	return newFeedforward(g, dim, batch, hidden, name, init, alpha, true)
}

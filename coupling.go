package nvp

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// CouplingLayer is the atomic invertible transform. Dimensions where the
// mask is true pass through untouched; the rest are scaled and shifted by an
// amount computed from the pass-through half only. That triangular structure
// is what makes the Jacobian determinant a plain sum of scales in log space,
// and the inverse analytic.
type CouplingLayer struct {
	name  string
	mask  Mask
	batch int

	scale     Subnet
	translate Subnet

	keep   *G.Node // mask as a [batch, D] 0/1 constant
	change *G.Node // its complement
}

// NewCoupling builds a coupling layer over a fixed [batch, len(mask)] input
// shape. The scale and translate subnets must map R^D → R^D; anything else
// surfaces as a ShapeError on the first Forward or Inverse call.
func NewCoupling(g *G.ExprGraph, name string, mask Mask, batch int, scale, translate Subnet) (*CouplingLayer, error) {
	if len(mask) == 0 {
		return nil, validationErr("coupling layer "+name, "empty mask")
	}
	if batch <= 0 {
		return nil, validationErr("coupling layer "+name, "batch size %d", batch)
	}
	if scale == nil || translate == nil {
		return nil, validationErr("coupling layer "+name, "nil subnet")
	}
	return &CouplingLayer{
		name:      name,
		mask:      mask,
		batch:     batch,
		scale:     scale,
		translate: translate,
		keep:      G.NewConstant(mask.Dense(batch), G.WithName(name+"_mask")),
		change:    G.NewConstant(mask.Complement().Dense(batch), G.WithName(name+"_maskc")),
	}, nil
}

// Name returns the layer's construction name.
func (l *CouplingLayer) Name() string { return l.name }

// Mask returns the layer's pass-through mask.
func (l *CouplingLayer) Mask() Mask { return l.mask }

// Dim implements Transform.
func (l *CouplingLayer) Dim() int { return len(l.mask) }

// Forward emits y = mask*x + (1-mask)*(x*exp(s) + t) where s and t are the
// subnets evaluated on the masked input, and the per-example log-det
// sum((1-mask)*s, axis=1).
func (l *CouplingLayer) Forward(x *G.Node) (*G.Node, *G.Node, error) {
	if err := l.checkInput("Forward", x); err != nil {
		return nil, nil, err
	}
	var m maebe
	xPass := m.mul(x, l.keep)
	s := l.applySubnet("Forward", &m, l.scale, xPass)
	t := l.applySubnet("Forward", &m, l.translate, xPass)
	moved := m.add(m.mul(x, m.exp(s)), t)
	y := m.add(xPass, m.mul(l.change, moved))
	logDet := m.sum(m.mul(l.change, s), 1)
	if m.err != nil {
		return nil, nil, m.err
	}
	return y, logDet, nil
}

// Inverse recomputes s and t from the pass-through half, which forward left
// untouched, and solves the affine map analytically:
// x = mask*y + (1-mask)*(y - t)*exp(-s).
func (l *CouplingLayer) Inverse(y *G.Node) (*G.Node, error) {
	if err := l.checkInput("Inverse", y); err != nil {
		return nil, err
	}
	var m maebe
	yPass := m.mul(y, l.keep)
	s := l.applySubnet("Inverse", &m, l.scale, yPass)
	t := l.applySubnet("Inverse", &m, l.translate, yPass)
	back := m.mul(m.sub(y, t), m.exp(m.neg(s)))
	x := m.add(yPass, m.mul(l.change, back))
	if m.err != nil {
		return nil, m.err
	}
	return x, nil
}

func (l *CouplingLayer) applySubnet(op string, m *maebe, net Subnet, in *G.Node) *G.Node {
	out := m.do(func() (*G.Node, error) { return net.Apply(in) })
	if m.err != nil {
		return nil
	}
	if !out.Shape().Eq(in.Shape()) {
		m.err = shapeErr(l.name+"."+op+": subnet output", in.Shape(), out.Shape())
		return nil
	}
	return out
}

func (l *CouplingLayer) checkInput(op string, x *G.Node) error {
	want := tensor.Shape{l.batch, len(l.mask)}
	if x == nil {
		return validationErr("coupling layer "+l.name, "nil input to %s", op)
	}
	if !x.Shape().Eq(want) {
		return shapeErr(l.name+"."+op, want, x.Shape())
	}
	return nil
}

package nvp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	G "gorgonia.org/gorgonia"
)

// With zero-initialized subnets the scale is tanh(0)=0 and the translation 0,
// so the layer must be the identity with zero log-det.
func TestCouplingZeroInitIdentity(t *testing.T) {
	g := G.NewGraph()
	l := testCoupling(t, g, Mask{true, false}, 1, []int{4}, G.Zeroes())

	x := G.NewMatrix(g, Float, G.WithShape(1, 2), G.WithName("x"))
	y, logDet, err := l.Forward(x)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	x2, err := l.Inverse(y)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	yVal, ldVal, x2Val := readVal(y), readVal(logDet), readVal(x2)

	runGraph(t, g, x, denseOf(1, 2, []float32{1.0, 2.0}))

	assert.Equal(t, []float32{1.0, 2.0}, vals(t, *yVal))
	assert.Equal(t, []float32{0.0}, vals(t, *ldVal))
	assert.Equal(t, []float32{1.0, 2.0}, vals(t, *x2Val))
}

func TestCouplingRoundTrip(t *testing.T) {
	const batch, dim = 4, 6
	g := G.NewGraph()
	l := testCoupling(t, g, alternatingMask(dim), batch, []int{8, 8}, G.GlorotN(1.0))

	x := G.NewMatrix(g, Float, G.WithShape(batch, dim), G.WithName("x"))
	y, _, err := l.Forward(x)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	x2, err := l.Inverse(y)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	yVal, x2Val := readVal(y), readVal(x2)

	in := randomBatch(batch, dim)
	runGraph(t, g, x, in)

	want := in.Data().([]float32)
	got := vals(t, *x2Val)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "dimension %d did not survive the round trip", i)
	}

	// the transformed half must actually have moved
	assert.NotEqual(t, want, vals(t, *yVal))
}

func TestCouplingShapeErrors(t *testing.T) {
	g := G.NewGraph()
	l := testCoupling(t, g, Mask{true, false, true}, 2, []int{4}, G.GlorotN(1.0))

	// wrong feature dimension
	bad := G.NewMatrix(g, Float, G.WithShape(2, 4), G.WithName("bad"))
	if _, _, err := l.Forward(bad); err == nil {
		t.Error("expected a shape error on a 4-wide input into a 3-wide layer")
	} else {
		_, ok := err.(ShapeError)
		assert.True(t, ok, "got %T: %v", err, err)
	}

	// wrong batch
	badBatch := G.NewMatrix(g, Float, G.WithShape(3, 3), G.WithName("badbatch"))
	if _, err := l.Inverse(badBatch); err == nil {
		t.Error("expected a shape error on a batch mismatch")
	}
}

func TestCouplingConstructionErrors(t *testing.T) {
	g := G.NewGraph()
	scale := NewScale(g, 2, 1, nil, "s", G.Zeroes(), 0.01)

	if _, err := NewCoupling(g, "l", nil, 1, scale, scale); err == nil {
		t.Error("expected an error on an empty mask")
	}
	if _, err := NewCoupling(g, "l", Mask{true, false}, 0, scale, scale); err == nil {
		t.Error("expected an error on batch 0")
	}
	if _, err := NewCoupling(g, "l", Mask{true, false}, 1, nil, scale); err == nil {
		t.Error("expected an error on a nil subnet")
	}
}

// a subnet that changes dimensionality must surface as a ShapeError at call
// time, not a silent broadcast
func TestCouplingBadSubnet(t *testing.T) {
	g := G.NewGraph()
	good := NewTranslate(g, 2, 1, nil, "t", G.Zeroes(), 0.01)
	shrinking := newFeedforward(g, 2, 1, nil, "bad", G.Zeroes(), 0.01, false)
	shrinking.ws[0] = G.NewMatrix(g, Float, G.WithShape(2, 1), G.WithName("bad_w"), G.WithInit(G.Zeroes()))
	shrinking.bs[0] = G.NewMatrix(g, Float, G.WithShape(1, 1), G.WithName("bad_b"), G.WithInit(G.Zeroes()))

	l, err := NewCoupling(g, "l", Mask{true, false}, 1, shrinking, good)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	x := G.NewMatrix(g, Float, G.WithShape(1, 2), G.WithName("x"))
	if _, _, err := l.Forward(x); err == nil {
		t.Error("expected a shape error from a dimension-shrinking subnet")
	} else {
		_, ok := err.(ShapeError)
		assert.True(t, ok, "got %T: %v", err, err)
	}
}

package nvp

import (
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// vals extracts a flat []float32 regardless of whether gorgonia kept the
// value as a tensor or collapsed it to a scalar.
func vals(t *testing.T, v G.Value) []float32 {
	t.Helper()
	switch d := v.Data().(type) {
	case []float32:
		return d
	case float32:
		return []float32{d}
	default:
		t.Fatalf("unexpected value type %T", d)
		return nil
	}
}

// readVal attaches a Read to n so its value survives the tape machine's
// register reuse. Reading intermediate nodes through Value() directly may
// return an aliased buffer.
func readVal(n *G.Node) *G.Value {
	var v G.Value
	G.Read(n, &v)
	return &v
}

func runGraph(t *testing.T, g *G.ExprGraph, input *G.Node, data *tensor.Dense) {
	t.Helper()
	m := G.NewTapeMachine(g)
	defer m.Close()
	if err := G.Let(input, data); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := m.RunAll(); err != nil {
		t.Fatalf("%+v", err)
	}
}

func denseOf(rows, cols int, backing []float32) *tensor.Dense {
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
}

// testCoupling builds a coupling layer over a [batch, dim] input with the
// given init.
func namedCoupling(t *testing.T, g *G.ExprGraph, name string, mask Mask, batch int, hidden []int, init G.InitWFn) *CouplingLayer {
	t.Helper()
	dim := len(mask)
	scale := NewScale(g, dim, batch, hidden, name+"_s", init, 0.01)
	translate := NewTranslate(g, dim, batch, hidden, name+"_t", init, 0.01)
	l, err := NewCoupling(g, name, mask, batch, scale, translate)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return l
}

func testCoupling(t *testing.T, g *G.ExprGraph, mask Mask, batch int, hidden []int, init G.InitWFn) *CouplingLayer {
	t.Helper()
	return namedCoupling(t, g, "layer", mask, batch, hidden, init)
}

func alternatingMask(dim int) Mask {
	m := make(Mask, dim)
	for i := range m {
		m[i] = i%2 == 0
	}
	return m
}

func randomBatch(rows, cols int) *tensor.Dense {
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(tensor.Random(Float, rows*cols)))
}

package nvp

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Sampler holds a forward-only inverse graph and a VM for a trained
// *Generator, so repeated sampling does not rebuild either. It rebuilds the
// flow with the generator's masks at the requested batch size and copies the
// parameter values over by model index.
//
// A Sampler snapshots the parameters at construction; resample after further
// training by constructing a new one.
type Sampler struct {
	gen   *Generator
	count int

	g   *G.ExprGraph
	z   *G.Node
	out *G.Node
	m   G.VM

	outVal G.Value
}

// NewSampler prepares drawing count samples at a time from gen, which must
// be initialized.
func NewSampler(gen *Generator, count int) (*Sampler, error) {
	if gen == nil || gen.g == nil {
		return nil, validationErr("sampler", "generator not initialized")
	}
	if count < 1 {
		return nil, validationErr("sampler", "sample count %d", count)
	}

	conf := gen.Config
	conf.FwdOnly = true
	conf.BatchSize = count

	s := &Sampler{
		gen:   gen,
		count: count,
		g:     G.NewGraph(),
	}
	flow, err := BuildFlowWithMasks(s.g, conf, gen.masks)
	if err != nil {
		return nil, err
	}
	s.z = G.NewMatrix(s.g, Float, G.WithShape(count, conf.Dim), G.WithName("Z"))
	if s.out, err = flow.Inverse(s.z); err != nil {
		return nil, err
	}
	G.Read(s.out, &s.outVal)

	// both graphs were built in the same order, so the models line up
	model := gen.Model()
	params := s.model()
	if len(model) != len(params) {
		return nil, validationErr("sampler", "model mismatch: %d vs %d parameters", len(model), len(params))
	}
	for i, n := range model {
		if err := copyParam(params[i], n); err != nil {
			return nil, err
		}
	}

	s.m = G.NewTapeMachine(s.g)
	return s, nil
}

// Sample draws count latents from the prior and runs them through the
// inverse flow, returning a fresh [count, Dim] tensor.
func (s *Sampler) Sample() (*tensor.Dense, error) {
	z, err := s.gen.prior.Sample(s.count)
	if err != nil {
		return nil, errors.Wrap(err, "prior sample")
	}
	s.m.Reset()
	if err = G.Let(s.z, z); err != nil {
		return nil, errors.WithStack(err)
	}
	if err = s.m.RunAll(); err != nil {
		return nil, errors.WithStack(err)
	}
	data := s.outVal.Data().([]float32)
	backing := make([]float32, len(data))
	copy(backing, data)
	return tensor.New(tensor.WithShape(s.count, s.gen.Dim), tensor.WithBacking(backing)), nil
}

// copyParam fills dst's value from src's. Weight matrices keep their shape
// between graphs and copy flat; the subnet biases carry the batch in their
// first dimension, which differs when the sample count differs from the
// generator's batch size, so their rows are tiled modulo the source rows.
func copyParam(dst, src *G.Node) error {
	original := src.Value().Data().([]float32)
	cloned := dst.Value().Data().([]float32)
	if len(original) == len(cloned) {
		copy(cloned, original)
		return nil
	}
	srcShape, dstShape := src.Shape(), dst.Shape()
	if srcShape.Dims() != 2 || dstShape.Dims() != 2 || srcShape[1] != dstShape[1] {
		return validationErr("sampler", "cannot copy parameter %v into %v", srcShape, dstShape)
	}
	cols := srcShape[1]
	for r := 0; r < dstShape[0]; r++ {
		sr := r % srcShape[0]
		copy(cloned[r*cols:(r+1)*cols], original[sr*cols:(sr+1)*cols])
	}
	return nil
}

func (s *Sampler) model() G.Nodes {
	retVal := make(G.Nodes, 0, s.g.Nodes().Len())
	for _, n := range s.g.AllNodes() {
		if n.IsVar() && n != s.z {
			retVal = append(retVal, n)
		}
	}
	return retVal
}

// Close implements a closer, because well, a gorgonia VM is a resource.
func (s *Sampler) Close() error { return s.m.Close() }

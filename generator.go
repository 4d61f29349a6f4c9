package nvp

import (
	"github.com/gorgonia/nvp/distribution"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Generator pairs a flow with a prior over the latent space, turning the
// invertible transform into a trainable density model. Its graph computes,
// for a [BatchSize, Dim] input x:
//
//	y, logDet = flow.Forward(x)
//	logp      = prior.LogProb(y) + logDet    (change of variables, per example)
//	cost      = -mean(logp)                  (negative log-likelihood)
//
// Structure is immutable after Init; only the subnet parameters change, and
// only the external solver changes them.
type Generator struct {
	Config
	prior distribution.Prior

	g     *G.ExprGraph
	flow  *Stack
	masks []Mask

	x    *G.Node
	y    *G.Node
	cost *G.Node

	logPVal G.Value
	costVal G.Value

	m G.VM // lazily built, reused across LogProb/Loss calls
}

// New returns a new, uninitialized *Generator.
func New(conf Config, prior distribution.Prior) *Generator {
	return &Generator{
		Config: conf,
		prior:  prior,
	}
}

// Init builds the graph. A prior whose dimensionality disagrees with the
// flow's fails here, before any data is processed.
func (gen *Generator) Init() error {
	if !gen.IsValid() {
		return validationErr("generator config", "%+v", gen.Config)
	}
	if gen.prior == nil {
		return validationErr("generator", "nil prior")
	}
	if gen.prior.Dim() != gen.Dim {
		return validationErr("generator", "prior has dim %d, flow has dim %d", gen.prior.Dim(), gen.Dim)
	}

	gen.g = G.NewGraph()
	var err error
	if gen.masks == nil {
		if gen.flow, gen.masks, err = BuildFlow(gen.g, gen.Config); err != nil {
			return err
		}
	} else if gen.flow, err = BuildFlowWithMasks(gen.g, gen.Config, gen.masks); err != nil {
		return err
	}

	gen.x = G.NewMatrix(gen.g, Float, G.WithShape(gen.BatchSize, gen.Dim), G.WithName("X"))
	var logDet *G.Node
	if gen.y, logDet, err = gen.flow.Forward(gen.x); err != nil {
		return err
	}

	priorLP, err := gen.prior.LogProb(gen.y)
	if err != nil {
		return errors.Wrap(err, "prior log-density")
	}

	var m maebe
	logP := m.add(priorLP, logDet)
	gen.cost = m.neg(m.mean(logP))
	if m.err != nil {
		return m.err
	}
	G.Read(logP, &gen.logPVal)
	G.Read(gen.cost, &gen.costVal)

	if gen.FwdOnly {
		return nil
	}
	if _, err = G.Grad(gen.cost, gen.Model()...); err != nil {
		return errors.Wrap(err, "grad")
	}
	return nil
}

// Flow returns the composed transform. Nil before Init.
func (gen *Generator) Flow() *Stack { return gen.flow }

// Masks returns the per-block masks the flow was built with. Nil before Init.
func (gen *Generator) Masks() []Mask { return gen.masks }

// Model returns the trainable parameters: every variable in the graph except
// the input.
func (gen *Generator) Model() G.Nodes {
	retVal := make(G.Nodes, 0, gen.g.Nodes().Len())
	for _, n := range gen.g.AllNodes() {
		if n.IsVar() && n != gen.x {
			retVal = append(retVal, n)
		}
	}
	return retVal
}

// LogProb evaluates the exact per-example log-density of xs, which must be
// shaped [BatchSize, Dim].
func (gen *Generator) LogProb(xs *tensor.Dense) ([]float32, error) {
	if err := gen.run(xs); err != nil {
		return nil, err
	}
	data := gen.logPVal.Data().([]float32)
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// Loss evaluates the negative mean log-likelihood of xs.
func (gen *Generator) Loss(xs *tensor.Dense) (float32, error) {
	if err := gen.run(xs); err != nil {
		return 0, err
	}
	return gen.costVal.Data().(float32), nil
}

// Sample draws count latent vectors from the prior and maps them through the
// flow's inverse into data space. For repeated sampling construct a Sampler
// once instead; this builds and throws away one per call.
func (gen *Generator) Sample(count int) (*tensor.Dense, error) {
	s, err := NewSampler(gen, count)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Sample()
}

func (gen *Generator) run(xs *tensor.Dense) error {
	if gen.g == nil {
		return validationErr("generator", "not initialized")
	}
	if !xs.Shape().Eq(gen.x.Shape()) {
		return shapeErr("Generator input", gen.x.Shape(), xs.Shape())
	}
	if gen.m == nil {
		gen.m = G.NewTapeMachine(gen.g)
	}
	gen.m.Reset()
	if err := G.Let(gen.x, xs); err != nil {
		return errors.WithStack(err)
	}
	if err := gen.m.RunAll(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Close implements a closer, because well, a gorgonia VM is a resource.
// Generators that never evaluated anything close trivially.
func (gen *Generator) Close() error {
	if gen.m == nil {
		return nil
	}
	return gen.m.Close()
}

package nvp

import (
	"fmt"
	"math/rand"

	G "gorgonia.org/gorgonia"
)

// Config configures a flow.
type Config struct {
	Dim       int     // feature dimensionality D
	Depth     int     // number of paired coupling blocks
	BatchSize int     // examples per graph evaluation
	MaskProp  float64 // target pass-through proportion handed to NewMask

	HiddenTranslate []int   // hidden layer widths of the translate subnets
	HiddenScale     []int   // hidden layer widths of the scale subnets
	Alpha           float64 // leaky rectifier slope

	Seed    int64 // drives mask generation
	FwdOnly bool  // is this a fwd only graph?

	Init G.InitWFn // weight init; GlorotN(1.0) when nil
}

// DefaultConf returns a workable configuration for dimensionality dim.
func DefaultConf(dim int) Config {
	return Config{
		Dim:             dim,
		Depth:           4,
		BatchSize:       256,
		MaskProp:        0.5,
		HiddenTranslate: []int{8, 8},
		HiddenScale:     []int{8, 8},
		Alpha:           0.01,
		Seed:            1337,
	}
}

func (conf Config) IsValid() bool {
	return conf.Dim >= 1 &&
		conf.Depth >= 1 &&
		conf.BatchSize >= 1 &&
		conf.MaskProp >= 0 && conf.MaskProp <= 1 &&
		conf.Alpha >= 0 && conf.Alpha < 1
}

func (conf Config) init() G.InitWFn {
	if conf.Init == nil {
		return G.GlorotN(1.0)
	}
	return conf.Init
}

// PairedBlock builds one flow block: two coupling layers sharing
// complementary masks wrapped in a Stack, so a single pass through the block
// transforms every dimension exactly once.
func PairedBlock(g *G.ExprGraph, conf Config, mask Mask, name string) (*Stack, error) {
	if len(mask) != conf.Dim {
		return nil, shapeErr(name+": mask", []int{conf.Dim}, []int{len(mask)})
	}
	first, err := blockLayer(g, conf, mask, name+"_a")
	if err != nil {
		return nil, err
	}
	second, err := blockLayer(g, conf, mask.Complement(), name+"_b")
	if err != nil {
		return nil, err
	}
	return NewStack(first, second)
}

func blockLayer(g *G.ExprGraph, conf Config, mask Mask, name string) (*CouplingLayer, error) {
	scale := NewScale(g, conf.Dim, conf.BatchSize, conf.HiddenScale, name+"_s", conf.init(), conf.Alpha)
	translate := NewTranslate(g, conf.Dim, conf.BatchSize, conf.HiddenTranslate, name+"_t", conf.init(), conf.Alpha)
	return NewCoupling(g, name, mask, conf.BatchSize, scale, translate)
}

// BuildFlow stacks conf.Depth independently parameterized paired blocks, in
// x-to-latent order, each with a freshly drawn mask. The masks are returned
// so the flow can be rebuilt elsewhere with identical structure (the Sampler
// does this).
func BuildFlow(g *G.ExprGraph, conf Config) (*Stack, []Mask, error) {
	r := rand.New(rand.NewSource(conf.Seed))
	masks := make([]Mask, conf.Depth)
	for i := range masks {
		masks[i] = NewMask(conf.Dim, conf.MaskProp, r)
	}
	flow, err := BuildFlowWithMasks(g, conf, masks)
	return flow, masks, err
}

// BuildFlowWithMasks is BuildFlow with the block masks supplied by the
// caller instead of drawn from conf.Seed.
func BuildFlowWithMasks(g *G.ExprGraph, conf Config, masks []Mask) (*Stack, error) {
	if !conf.IsValid() {
		return nil, validationErr("flow config", "%+v", conf)
	}
	if len(masks) != conf.Depth {
		return nil, validationErr("flow config", "%d masks for depth %d", len(masks), conf.Depth)
	}
	blocks := make([]Transform, conf.Depth)
	for i, mask := range masks {
		block, err := PairedBlock(g, conf, mask, fmt.Sprintf("block%d", i))
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}
	return NewStack(blocks...)
}

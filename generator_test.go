package nvp

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gorgonia/nvp/distribution"
	"github.com/gorgonia/nvp/toy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func testConf(dim, depth, batch int) Config {
	conf := DefaultConf(dim)
	conf.Depth = depth
	conf.BatchSize = batch
	conf.HiddenTranslate = []int{8}
	conf.HiddenScale = []int{8}
	return conf
}

func testPrior(t *testing.T, dim int) *distribution.Normal {
	t.Helper()
	prior, err := distribution.NewNormal(dim, 0, 1, 42)
	require.NoError(t, err)
	return prior
}

func TestGeneratorValidation(t *testing.T) {
	if err := New(testConf(2, 2, 10), nil).Init(); err == nil {
		t.Error("expected an error on a nil prior")
	}

	// prior/transform dimensionality mismatch fails before any data flows
	if err := New(testConf(2, 2, 10), testPrior(t, 3)).Init(); err == nil {
		t.Error("expected an error on a dim mismatch")
	} else if _, ok := err.(ValidationError); !ok {
		t.Errorf("got %T: %v", err, err)
	}

	conf := testConf(2, 2, 10)
	conf.Depth = 0
	if err := New(conf, testPrior(t, 2)).Init(); err == nil {
		t.Error("expected an error on an invalid config")
	}
}

// A two-block flow fed 100 of its own samples must assign every one of them
// a finite log-density.
func TestGeneratorLogProbFinite(t *testing.T) {
	conf := testConf(2, 2, 100)
	gen := New(conf, testPrior(t, 2))
	require.NoError(t, gen.Init())
	defer gen.Close()

	xs, err := gen.Sample(100)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 2}, []int(xs.Shape()))

	lps, err := gen.LogProb(xs)
	require.NoError(t, err)
	require.Len(t, lps, 100)
	for i, lp := range lps {
		if math32.IsNaN(lp) || math32.IsInf(lp, 0) {
			t.Errorf("example %d has log-density %v", i, lp)
		}
	}

	loss, err := gen.Loss(xs)
	require.NoError(t, err)
	assert.False(t, math32.IsNaN(loss) || math32.IsInf(loss, 0), "loss is %v", loss)
}

// With zero-initialized subnets the whole flow is the identity, so log_p is
// exactly the prior's log-density and the loss is the prior's mean NLL.
func TestGeneratorZeroInitMatchesPrior(t *testing.T) {
	conf := testConf(2, 1, 4)
	conf.Init = G.Zeroes()

	gen := New(conf, testPrior(t, 2))
	require.NoError(t, gen.Init())

	xs := denseOf(4, 2, []float32{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
	})
	lps, err := gen.LogProb(xs)
	require.NoError(t, err)

	c := math32.Log(2 * math32.Pi) // per-dim constant, for D=2 just log(2π)
	want := []float32{-c, -0.5 - c, -0.5 - c, -1 - c}
	for i := range want {
		assert.InDelta(t, want[i], lps[i], 1e-5, "example %d", i)
	}
}

// Evaluation reuses one tape machine; repeated calls must stay deterministic
// and must see parameter updates made after the first compilation.
func TestGeneratorRepeatedEval(t *testing.T) {
	gen := New(testConf(2, 1, 10), testPrior(t, 2))
	require.NoError(t, gen.Init())
	defer gen.Close()

	xs := randomBatch(10, 2)
	a, err := gen.LogProb(xs)
	require.NoError(t, err)
	b, err := gen.LogProb(xs)
	require.NoError(t, err)
	assert.Equal(t, a, b, "re-evaluating the same batch must be deterministic")

	before, err := gen.Loss(xs)
	require.NoError(t, err)
	require.NoError(t, Train(gen, xs, 1, 5, 0.1))
	after, err := gen.Loss(xs)
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "the reused machine must see the trained parameters")
}

func TestGeneratorInputShape(t *testing.T) {
	gen := New(testConf(2, 1, 10), testPrior(t, 2))
	require.NoError(t, gen.Init())

	if _, err := gen.LogProb(randomBatch(5, 2)); err == nil {
		t.Error("expected a shape error on a half batch")
	} else if _, ok := err.(ShapeError); !ok {
		t.Errorf("got %T: %v", err, err)
	}
}

func TestTrainReducesLoss(t *testing.T) {
	const batch, batches = 50, 2
	conf := testConf(2, 2, batch)
	conf.Seed = 7

	gen := New(conf, testPrior(t, 2))
	require.NoError(t, gen.Init())
	defer gen.Close()

	data := toy.Moons(batch*batches, 0.05, 7)
	firstBatch := denseOf(batch, 2, append([]float32{}, data.Data().([]float32)[:batch*2]...))

	before, err := gen.Loss(firstBatch)
	require.NoError(t, err)

	require.NoError(t, Train(gen, data, batches, 60, 0.1))

	after, err := gen.Loss(firstBatch)
	require.NoError(t, err)

	if !(after < before) {
		t.Errorf("expected the loss to drop, got %v → %v", before, after)
	}
}

func TestTrainValidation(t *testing.T) {
	gen := New(testConf(2, 1, 10), testPrior(t, 2))
	require.NoError(t, gen.Init())

	// not enough rows for the requested batches
	if err := Train(gen, randomBatch(10, 2), 2, 1, 0.1); err == nil {
		t.Error("expected an error on an undersized dataset")
	}

	fwd := testConf(2, 1, 10)
	fwd.FwdOnly = true
	fgen := New(fwd, testPrior(t, 2))
	require.NoError(t, fgen.Init())
	if err := Train(fgen, randomBatch(10, 2), 1, 1, 0.1); err == nil {
		t.Error("expected an error on a forward-only generator")
	}
}

func TestSamplerReuse(t *testing.T) {
	gen := New(testConf(2, 2, 10), testPrior(t, 2))
	require.NoError(t, gen.Init())

	s, err := NewSampler(gen, 25)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.Sample()
	require.NoError(t, err)
	b, err := s.Sample()
	require.NoError(t, err)

	assert.Equal(t, []int{25, 2}, []int(a.Shape()))
	assert.NotEqual(t, a.Data(), b.Data(), "consecutive draws should differ")

	if _, err := NewSampler(gen, 0); err == nil {
		t.Error("expected an error on a zero sample count")
	}
	if _, err := NewSampler(New(testConf(2, 1, 4), testPrior(t, 2)), 5); err == nil {
		t.Error("expected an error on an uninitialized generator")
	}
}

package nvp

import (
	"math/rand"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// Train is a basic maximum-likelihood trainer: plain SGD on the negative
// log-likelihood, minibatched over xs. xs must hold at least
// batches*BatchSize rows; rows are reshuffled between iterations.
func Train(gen *Generator, xs *tensor.Dense, batches, iterations int, learnRate float64) error {
	if gen == nil || gen.g == nil {
		return validationErr("trainer", "generator not initialized")
	}
	if gen.FwdOnly {
		return validationErr("trainer", "forward-only generator has no gradients")
	}
	if need := batches * gen.BatchSize; xs.Shape()[0] < need {
		return shapeErr("Train", tensor.Shape{need, gen.Dim}, xs.Shape())
	}

	r := rand.New(rand.NewSource(gen.Seed))
	var s slicer
	for i := 0; i < iterations; i++ {
		for bat := 0; bat < batches; bat++ {
			m := G.NewTapeMachine(gen.g, G.BindDualValues(gen.Model()...))
			model := G.NodesToValueGrads(gen.Model())
			solver := G.NewVanillaSolver(G.WithLearnRate(learnRate), G.WithBatchSize(float64(gen.BatchSize)))

			batchStart := bat * gen.BatchSize
			batchEnd := batchStart + gen.BatchSize
			batch := s.Slice(xs, sli(batchStart, batchEnd))
			if s.err != nil {
				return s.err
			}

			if err := G.Let(gen.x, batch); err != nil {
				return errors.WithStack(err)
			}
			if err := m.RunAll(); err != nil {
				m.Close()
				return errors.WithStack(err)
			}
			if err := solver.Step(model); err != nil {
				m.Close()
				return errors.WithStack(err)
			}
			m.Close()
			tensor.ReturnTensor(batch)
		}
		if err := shuffleRows(xs, r); err != nil {
			return err
		}
	}
	return nil
}

type slicer struct {
	v   tensor.View
	err error
}

func (s *slicer) Slice(a *tensor.Dense, slices ...tensor.Slice) *tensor.Dense {
	if s.err != nil {
		return nil
	}
	if s.v, s.err = a.Slice(slices...); s.err != nil {
		s.err = errors.Wrapf(s.err, "batch slice failed") // get a stack trace
		return nil
	}
	return s.v.(*tensor.Dense)
}

type rs struct{ start, end int }

func (s rs) Start() int { return s.start }
func (s rs) End() int   { return s.end }
func (s rs) Step() int  { return 1 }

func sli(start, end int) rs { return rs{start: start, end: end} }

// shuffleRows Fisher-Yates shuffles the rows of a [n, D] tensor in place.
func shuffleRows(xs *tensor.Dense, r *rand.Rand) error {
	mat, err := native.MatrixF32(xs)
	if err != nil {
		return errors.Wrap(err, "shuffle rows failed")
	}
	tmp := make([]float32, xs.Shape()[1])
	for i := range mat {
		j := r.Intn(i + 1)
		rowI := mat[i]
		rowJ := mat[j]
		copy(tmp, rowI)
		copy(rowI, rowJ)
		copy(rowJ, tmp)
	}
	return nil
}

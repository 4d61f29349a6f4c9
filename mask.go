package nvp

import (
	"math/rand"

	"gorgonia.org/tensor"
)

// Mask is a fixed boolean partition of feature dimensions. True marks a
// pass-through dimension, false a transformed one.
type Mask []bool

// NewMask partitions n dimensions with a target pass-through proportion
// p ∈ [0,1]. It draws a uniform random permutation of 0..n-1 and keeps the
// positions whose permuted index exceeds p*(n-1).
//
// The split is approximate on purpose: the threshold rule does not guarantee
// an exact count of pass-through dimensions for every p. What matters is the
// per-block coverage invariant, which Complement provides. The same r state
// yields the same mask, so reproducibility is the caller's seed away.
func NewMask(n int, p float64, r *rand.Rand) Mask {
	if n <= 0 {
		return nil
	}
	threshold := p * float64(n-1)
	m := make(Mask, n)
	for i, k := range r.Perm(n) {
		m[i] = float64(k) > threshold
	}
	return m
}

// Complement returns the exact logical complement, so that a pair of layers
// sharing m and m.Complement() transforms every dimension exactly once.
func (m Mask) Complement() Mask {
	c := make(Mask, len(m))
	for i, b := range m {
		c[i] = !b
	}
	return c
}

// Count returns the number of pass-through dimensions.
func (m Mask) Count() int {
	var n int
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}

// Dense materializes the mask as a [batch, D] float32 tensor of 0s and 1s,
// one identical row per example. Graphs here are fixed-batch, so baking the
// batch dimension in keeps every elementwise op broadcast-free.
func (m Mask) Dense(batch int) *tensor.Dense {
	d := len(m)
	backing := make([]float32, batch*d)
	for i, b := range m {
		if b {
			backing[i] = 1
		}
	}
	row := backing[:d]
	for i := 1; i < batch; i++ {
		copy(backing[i*d:(i+1)*d], row)
	}
	return tensor.New(tensor.WithShape(batch, d), tensor.WithBacking(backing))
}

func (m Mask) String() string {
	buf := make([]byte, len(m))
	for i, b := range m {
		if b {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

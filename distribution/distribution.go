// Package distribution provides the prior distributions a flow maps into.
package distribution

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Prior is a distribution over the latent space with tractable sampling and
// log-density. LogProb is symbolic so it can sit inside a training graph and
// be differentiated through; Sample is concrete because sampling never needs
// gradients.
type Prior interface {
	// Dim returns the dimensionality of one sample.
	Dim() int

	// LogProb emits ops computing the per-example log-density of a
	// [batch, Dim] node, shaped [batch].
	LogProb(y *G.Node) (*G.Node, error)

	// Sample draws n samples, shaped [n, Dim].
	Sample(n int) (*tensor.Dense, error)
}

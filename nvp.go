// Package nvp implements a real-valued non-volume-preserving normalizing
// flow: an invertible, differentiable transform between a data distribution
// and a simple prior, built as a stack of affine coupling layers on top of
// Gorgonia's expression graphs.
//
// The flow is used in two directions. Forward maps data x to latents y while
// accumulating the exact log-determinant of the Jacobian, which combined with
// the prior's log-density gives the exact data log-likelihood. Inverse maps
// latents drawn from the prior back to data space, which is how sampling
// works.
package nvp

import (
	G "gorgonia.org/gorgonia"
)

// Float is the dtype used for all model math.
var Float = G.Float32

// Transform is an invertible, differentiable map over batched feature
// vectors. Implementations build symbolic ops against the graph that owns
// their parameters; they do not evaluate anything themselves.
//
// The contract: Inverse(Forward(x)) == x up to floating point error, and the
// log-det returned by Forward is the exact log |det J| of the map. Both
// CouplingLayer and Stack satisfy it, so stacks nest transparently.
type Transform interface {
	// Dim returns the feature dimensionality the transform was built for.
	Dim() int

	// Forward emits the x→y ops and returns y along with the per-example
	// log-determinant of the Jacobian, shaped [batch].
	Forward(x *G.Node) (y, logDet *G.Node, err error)

	// Inverse emits the y→x ops. No log-det is computed on this path.
	Inverse(y *G.Node) (x *G.Node, err error)
}

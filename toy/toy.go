// Package toy generates small 2D datasets for exercising density models.
// Every generator is deterministic under its seed and returns a [n, 2]
// float32 tensor.
package toy

import (
	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// Moons draws n points from two interleaving half circles, the classic
// crescent pair, jittered by gaussian noise.
func Moons(n int, noise float64, seed int64) *tensor.Dense {
	uniform := rng.NewUniformGenerator(seed)
	gauss := rng.NewGaussianGenerator(seed + 1)

	backing := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		θ := float32(uniform.Float64Range(0, float64(math32.Pi)))
		var x, y float32
		if i%2 == 0 {
			x = math32.Cos(θ)
			y = math32.Sin(θ) - 0.25
		} else {
			x = 1 - math32.Cos(θ)
			y = 0.25 - math32.Sin(θ)
		}
		backing[2*i] = x + float32(gauss.Gaussian(0, noise))
		backing[2*i+1] = y + float32(gauss.Gaussian(0, noise))
	}
	// pull the crescents toward the prior's scale
	vecf32.Scale(backing, 0.8)
	return tensor.New(tensor.WithShape(n, 2), tensor.WithBacking(backing))
}

// Ring draws n points from a circle of the given radius, jittered by
// gaussian noise.
func Ring(n int, radius, noise float64, seed int64) *tensor.Dense {
	uniform := rng.NewUniformGenerator(seed)
	gauss := rng.NewGaussianGenerator(seed + 1)

	backing := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		θ := float32(uniform.Float64Range(0, 2*float64(math32.Pi)))
		backing[2*i] = float32(radius)*math32.Cos(θ) + float32(gauss.Gaussian(0, noise))
		backing[2*i+1] = float32(radius)*math32.Sin(θ) + float32(gauss.Gaussian(0, noise))
	}
	return tensor.New(tensor.WithShape(n, 2), tensor.WithBacking(backing))
}

// Blobs draws n points round-robin from isotropic gaussians at the given
// centers.
func Blobs(n int, centers [][2]float32, noise float64, seed int64) *tensor.Dense {
	gauss := rng.NewGaussianGenerator(seed)

	backing := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		c := centers[i%len(centers)]
		backing[2*i] = c[0] + float32(gauss.Gaussian(0, noise))
		backing[2*i+1] = c[1] + float32(gauss.Gaussian(0, noise))
	}
	return tensor.New(tensor.WithShape(n, 2), tensor.WithBacking(backing))
}

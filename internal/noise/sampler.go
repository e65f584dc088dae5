package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Source is a seeded gradient noise function returning values in about [-1, 1].
// opensimplex.Noise satisfies it.
type Source interface {
	Eval2(x, y float64) float64
	Eval3(x, y, z float64) float64
}

// NewSource returns the simplex noise source for a seed.
func NewSource(seed uint32) Source {
	return opensimplex.New(int64(seed))
}

// Octaves holds the fractal parameters shared by the 2D and 3D samplers.
type Octaves struct {
	Count       int
	Persistence float64
	Lacunarity  float64
	// Output range; samples are rescaled from [-1, 1] into [Lower, Upper].
	Lower, Upper float64
}

// DefaultOctaves matches the usual terrain settings: 4 octaves, halving
// amplitude and doubling frequency, output in [0, 1].
func DefaultOctaves() Octaves {
	return Octaves{Count: 4, Persistence: 0.5, Lacunarity: 2, Lower: 0, Upper: 1}
}

func (o Octaves) rescale(v float64) float64 {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return o.Lower + (v+1)/2*(o.Upper-o.Lower)
}

// Sampler2D samples fractal noise on a plane.
type Sampler2D struct {
	Octaves
	ScaleX, ScaleY float64
}

func (s Sampler2D) Sample(x, y float64, src Source) float64 {
	amp, freq := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := 0; i < s.Count; i++ {
		sum += src.Eval2(x*s.ScaleX*freq, y*s.ScaleY*freq) * amp
		norm += amp
		amp *= s.Persistence
		freq *= s.Lacunarity
	}
	if norm == 0 {
		return s.rescale(0)
	}
	return s.rescale(sum / norm)
}

// Sampler3D samples fractal noise in a volume.
type Sampler3D struct {
	Octaves
	ScaleX, ScaleY, ScaleZ float64
}

func (s Sampler3D) Sample(x, y, z float64, src Source) float64 {
	amp, freq := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := 0; i < s.Count; i++ {
		sum += src.Eval3(x*s.ScaleX*freq, y*s.ScaleY*freq, z*s.ScaleZ*freq) * amp
		norm += amp
		amp *= s.Persistence
		freq *= s.Lacunarity
	}
	if norm == 0 {
		return s.rescale(0)
	}
	return s.rescale(sum / norm)
}

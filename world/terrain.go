package world

import opensimplex "github.com/ojrac/opensimplex-go"

// Terrain provides the ground height under any world position.
// The zero value is flat ground at y=0.
type Terrain struct {
	noise     opensimplex.Noise
	amplitude float64
	scale     float64
}

// NewTerrain creates an uneven terrain from coherent noise.
func NewTerrain(seed int64, amplitude, scale float64) *Terrain {
	return &Terrain{
		noise:     opensimplex.NewNormalized(seed),
		amplitude: amplitude,
		scale:     scale,
	}
}

// Height returns the ground level at (x, z).
func (t *Terrain) Height(x, z float32) float32 {
	if t == nil || t.noise == nil {
		return 0
	}
	n := t.noise.Eval2(float64(x)*t.scale, float64(z)*t.scale)
	return float32(n * t.amplitude)
}

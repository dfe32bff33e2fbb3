package noise

import (
	"math"
	"math/rand"
)

// Classic 2D gradient noise with a seeded permutation table.
// A Field is immutable after construction, so a single instance per seed
// can be shared by every caller.

const tableSize = 256

// Field evaluates seeded gradient noise. Sample returns values in [-1, 1]
// and identical seed + coordinates always produce identical output.
type Field struct {
	perm  [tableSize * 2]int
	grads [tableSize][2]float64
}

// NewField builds the permutation table and gradient set for the given seed.
func NewField(seed int64) *Field {
	f := &Field{}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < tableSize; i++ {
		f.perm[i] = i
	}
	// Fisher-Yates shuffle, then duplicate to avoid wrapping in lookups
	for i := tableSize - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		f.perm[i], f.perm[j] = f.perm[j], f.perm[i]
	}
	for i := 0; i < tableSize; i++ {
		f.perm[tableSize+i] = f.perm[i]
	}

	// Unit gradients at evenly spaced angles
	for i := 0; i < tableSize; i++ {
		a := 2 * math.Pi * float64(i) / tableSize
		f.grads[i] = [2]float64{math.Cos(a), math.Sin(a)}
	}

	return f
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// gradDot returns the dot product of the lattice gradient at (ix, iy) with
// the offset vector from that corner to the sample point.
func (f *Field) gradDot(ix, iy int, dx, dy float64) float64 {
	g := f.grads[f.perm[f.perm[ix&(tableSize-1)]+(iy&(tableSize-1))]&(tableSize-1)]
	return g[0]*dx + g[1]*dy
}

// Sample evaluates the base noise at (x, y). Output is in [-1, 1].
func (f *Field) Sample(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix := int(x0)
	iy := int(y0)

	dx := x - x0
	dy := y - y0

	u := fade(dx)
	v := fade(dy)

	n00 := f.gradDot(ix, iy, dx, dy)
	n10 := f.gradDot(ix+1, iy, dx-1, dy)
	n01 := f.gradDot(ix, iy+1, dx, dy-1)
	n11 := f.gradDot(ix+1, iy+1, dx-1, dy-1)

	i0 := lerp(n00, n10, u)
	i1 := lerp(n01, n11, u)

	// Raw 2D gradient noise is bounded by sqrt(2)/2; rescale to [-1, 1].
	return lerp(i0, i1, v) * math.Sqrt2
}

// Fractal sums octaves of Sample at doubling frequency and decaying
// amplitude, normalized by total amplitude so output stays in [-1, 1].
// The base frequency is scale.
func (f *Field) Fractal(x, y float64, octaves int, persistence, scale float64) float64 {
	amplitude := 1.0
	frequency := scale
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += f.Sample(x*frequency, y*frequency) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Ridged is Fractal with each octave transformed n = (1-|n|)^2, producing
// sharp ridge lines. Output is in [0, 1].
func (f *Field) Ridged(x, y float64, octaves int, persistence, scale float64) float64 {
	amplitude := 1.0
	frequency := scale
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		n := 1 - math.Abs(f.Sample(x*frequency, y*frequency))
		sum += n * n * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Billow is Fractal with each octave transformed n = |n|, producing rounded
// humps. Output is in [0, 1].
func (f *Field) Billow(x, y float64, octaves int, persistence, scale float64) float64 {
	amplitude := 1.0
	frequency := scale
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += math.Abs(f.Sample(x*frequency, y*frequency)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

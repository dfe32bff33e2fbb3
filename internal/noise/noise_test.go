package noise

import (
	"math"
	"math/rand"
	"testing"
)

// TestSampleDeterministic verifies a field produces identical results for
// the same coordinates, and that two fields with the same seed agree.
func TestSampleDeterministic(t *testing.T) {
	f := NewField(42)

	var results [100]float64
	for i := range results {
		results[i] = f.Sample(1.5, 2.7)
	}
	first := results[0]
	for i := 1; i < len(results); i++ {
		if results[i] != first {
			t.Errorf("Sample not deterministic: results[0]=%f, results[%d]=%f", first, i, results[i])
		}
	}

	g := NewField(42)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		x := rng.Float64()*100 - 50
		y := rng.Float64()*100 - 50
		if f.Sample(x, y) != g.Sample(x, y) {
			t.Fatalf("fields with same seed disagree at (%f, %f)", x, y)
		}
	}
}

// TestSampleSeedSensitivity verifies different seeds produce different fields.
func TestSampleSeedSensitivity(t *testing.T) {
	f := NewField(100)
	g := NewField(200)

	same := 0
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		x := rng.Float64() * 50
		y := rng.Float64() * 50
		if f.Sample(x, y) == g.Sample(x, y) {
			same++
		}
	}
	if same > 5 {
		t.Errorf("different seeds produced %d/100 identical samples", same)
	}
}

// TestSampleRange verifies Sample stays within [-1, 1].
func TestSampleRange(t *testing.T) {
	f := NewField(12345)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 2000; i++ {
		x := rng.Float64()*400 - 200
		y := rng.Float64()*400 - 200
		v := f.Sample(x, y)
		if v < -1 || v > 1 {
			t.Errorf("Sample(%f, %f) = %f, expected in [-1,1]", x, y, v)
		}
	}
}

// TestSampleZeroAtLattice verifies gradient noise is zero at integer lattice
// points (the defining property of Perlin-style noise).
func TestSampleZeroAtLattice(t *testing.T) {
	f := NewField(7)
	for ix := -3; ix <= 3; ix++ {
		for iy := -3; iy <= 3; iy++ {
			v := f.Sample(float64(ix), float64(iy))
			if math.Abs(v) > 1e-12 {
				t.Errorf("Sample(%d, %d) = %g, expected 0 at lattice point", ix, iy, v)
			}
		}
	}
}

// TestSampleContinuity verifies that nearby samples stay close.
func TestSampleContinuity(t *testing.T) {
	f := NewField(42)
	v1 := f.Sample(1.37, 5.91)
	v2 := f.Sample(1.38, 5.91)
	if diff := math.Abs(v1 - v2); diff >= 0.1 {
		t.Errorf("Sample not continuous: diff=%f >= 0.1 for step 0.01", diff)
	}
}

// TestFractalRange verifies octave composition stays within [-1, 1].
func TestFractalRange(t *testing.T) {
	f := NewField(9001)
	rng := rand.New(rand.NewSource(4))

	for i := 0; i < 1000; i++ {
		x := rng.Float64()*1000 - 500
		y := rng.Float64()*1000 - 500
		v := f.Fractal(x, y, 5, 0.5, 0.01)
		if v < -1 || v > 1 {
			t.Errorf("Fractal(%f, %f) = %f, expected in [-1,1]", x, y, v)
		}
	}
}

// TestFractalDeterministic verifies repeated fractal calls match exactly.
func TestFractalDeterministic(t *testing.T) {
	f := NewField(42)
	first := f.Fractal(3.3, -8.1, 4, 0.5, 0.05)
	for i := 0; i < 50; i++ {
		if v := f.Fractal(3.3, -8.1, 4, 0.5, 0.05); v != first {
			t.Fatalf("Fractal not deterministic: %f != %f", v, first)
		}
	}
}

// TestRidgedBillowRange verifies the transformed compositions stay in [0, 1].
func TestRidgedBillowRange(t *testing.T) {
	f := NewField(555)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 1000; i++ {
		x := rng.Float64()*800 - 400
		y := rng.Float64()*800 - 400

		r := f.Ridged(x, y, 4, 0.5, 0.02)
		if r < 0 || r > 1 {
			t.Errorf("Ridged(%f, %f) = %f, expected in [0,1]", x, y, r)
		}
		b := f.Billow(x, y, 4, 0.5, 0.02)
		if b < 0 || b > 1 {
			t.Errorf("Billow(%f, %f) = %f, expected in [0,1]", x, y, b)
		}
	}
}

// TestZeroOctaves verifies degenerate octave counts return 0 instead of NaN.
func TestZeroOctaves(t *testing.T) {
	f := NewField(1)
	if v := f.Fractal(1, 1, 0, 0.5, 1); v != 0 {
		t.Errorf("Fractal with 0 octaves = %f, expected 0", v)
	}
	if v := f.Ridged(1, 1, 0, 0.5, 1); v != 0 {
		t.Errorf("Ridged with 0 octaves = %f, expected 0", v)
	}
	if v := f.Billow(1, 1, 0, 0.5, 1); v != 0 {
		t.Errorf("Billow with 0 octaves = %f, expected 0", v)
	}
}

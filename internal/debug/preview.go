// Package debug renders offline diagnostic images of the generated world.
package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/deanbilledo/zen-drive/internal/profiling"
	"github.com/deanbilledo/zen-drive/internal/terrain"
)

// previewHeightRange maps terrain height onto brightness. Heights outside
// the range clamp rather than wrap.
const previewHeightRange = 300.0

var biomeColors = map[terrain.Biome]color.NRGBA{
	terrain.BiomePlains:   {R: 110, G: 170, B: 70, A: 255},
	terrain.BiomeForest:   {R: 40, G: 110, B: 50, A: 255},
	terrain.BiomeDesert:   {R: 210, G: 185, B: 120, A: 255},
	terrain.BiomeMountain: {R: 150, G: 145, B: 150, A: 255},
	terrain.BiomeCity:     {R: 120, G: 120, B: 130, A: 255},
}

// Preview samples a classifier over a square region and renders a biome
// map shaded by height. The region is sampled at one point per world unit
// of resolution given by samples, then scaled down to size pixels with
// Catmull-Rom filtering so steep height gradients stay readable.
func Preview(c *terrain.Classifier, centerX, centerZ, extent float64, samples, size int) (image.Image, error) {
	defer profiling.Track("debug.Preview")()

	if samples < 2 || size < 1 {
		return nil, fmt.Errorf("preview needs at least 2 samples and 1 output pixel, got %d and %d", samples, size)
	}

	full := image.NewNRGBA(image.Rect(0, 0, samples, samples))
	for py := 0; py < samples; py++ {
		for px := 0; px < samples; px++ {
			wx := centerX + (float64(px)/float64(samples-1)-0.5)*2*extent
			wz := centerZ + (float64(py)/float64(samples-1)-0.5)*2*extent
			full.SetNRGBA(px, py, shade(c.At(wx, wz)))
		}
	}

	if size == samples {
		return full, nil
	}
	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(out, out.Bounds(), full, full.Bounds(), draw.Src, nil)
	return out, nil
}

// WritePreview renders a preview and encodes it as PNG.
func WritePreview(w io.Writer, c *terrain.Classifier, centerX, centerZ, extent float64, samples, size int) error {
	img, err := Preview(c, centerX, centerZ, extent, samples, size)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SavePreview writes a preview PNG to path.
func SavePreview(path string, c *terrain.Classifier, centerX, centerZ, extent float64, samples, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating preview file: %w", err)
	}
	defer f.Close()

	if err := WritePreview(f, c, centerX, centerZ, extent, samples, size); err != nil {
		return err
	}
	return f.Close()
}

// shade darkens the biome base color for low terrain and lightens it for
// high terrain.
func shade(s terrain.Sample) color.NRGBA {
	base := biomeColors[s.Biome]

	t := s.Height/previewHeightRange + 0.5
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	// 0.5 maps to the base color untouched.
	scale := 0.6 + 0.8*t

	return color.NRGBA{
		R: clampByte(float64(base.R) * scale),
		G: clampByte(float64(base.G) * scale),
		B: clampByte(float64(base.B) * scale),
		A: 255,
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

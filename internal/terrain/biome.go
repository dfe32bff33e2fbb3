package terrain

import (
	"math"

	"github.com/deanbilledo/zen-drive/internal/noise"
)

// Biome labels a terrain type. The numeric value doubles as the material id
// written into chunk vertex buffers.
type Biome uint8

const (
	BiomePlains Biome = iota
	BiomeForest
	BiomeDesert
	BiomeMountain
	BiomeCity
)

func (b Biome) String() string {
	switch b {
	case BiomePlains:
		return "plains"
	case BiomeForest:
		return "forest"
	case BiomeDesert:
		return "desert"
	case BiomeMountain:
		return "mountain"
	case BiomeCity:
		return "city"
	default:
		return "unknown"
	}
}

// Sample is the classifier output for one world (x, z) coordinate.
type Sample struct {
	Biome  Biome
	Height float64
}

// Decorrelation offsets for the four channels, fixed so that a base seed
// fully determines the world.
const (
	temperatureSeedOffset = 1013
	humiditySeedOffset    = 2029
	elevationSeedOffset   = 3067
	densitySeedOffset     = 4093
)

// Channel frequencies and height scales. These are tuning values, not
// contract: mountain must stay the tallest and city the flattest.
const (
	elevationScale   = 0.0008
	temperatureScale = 0.0004
	humidityScale    = 0.0005
	densityScale     = 0.004
	ridgeScale       = 0.0018
	duneScale        = 0.01

	baseHeightScale   = 30
	mountainElevScale = 170
	mountainRidgeAmp  = 100
	duneAmp           = 8
	detailAmp         = 2.5
	cityFlatten       = 0.05
)

// Classifier derives a biome label and a blended height from world (x, z).
// It is a pure function of its seed: identical inputs always yield
// identical outputs.
type Classifier struct {
	temperature *noise.Field
	humidity    *noise.Field
	elevation   *noise.Field
	density     *noise.Field
}

// NewClassifier builds the four decorrelated noise channels from one seed.
func NewClassifier(seed int64) *Classifier {
	return &Classifier{
		temperature: noise.NewField(seed + temperatureSeedOffset),
		humidity:    noise.NewField(seed + humiditySeedOffset),
		elevation:   noise.NewField(seed + elevationSeedOffset),
		density:     noise.NewField(seed + densitySeedOffset),
	}
}

// At returns the biome and blended height for world (x, z).
func (c *Classifier) At(x, z float64) Sample {
	e := c.elevation.Fractal(x, z, 4, 0.5, elevationScale)
	t := c.temperature.Fractal(x, z, 3, 0.5, temperatureScale)
	h := c.humidity.Fractal(x, z, 3, 0.5, humidityScale)

	return Sample{
		Biome:  classify(e, t, h),
		Height: c.blendHeight(x, z, e, t, h),
	}
}

// HeightAt returns only the blended terrain height at world (x, z).
func (c *Classifier) HeightAt(x, z float64) float64 {
	e := c.elevation.Fractal(x, z, 4, 0.5, elevationScale)
	t := c.temperature.Fractal(x, z, 3, 0.5, temperatureScale)
	h := c.humidity.Fractal(x, z, 3, 0.5, humidityScale)
	return c.blendHeight(x, z, e, t, h)
}

// BiomeAt returns only the biome label at world (x, z).
func (c *Classifier) BiomeAt(x, z float64) Biome {
	e := c.elevation.Fractal(x, z, 4, 0.5, elevationScale)
	t := c.temperature.Fractal(x, z, 3, 0.5, temperatureScale)
	h := c.humidity.Fractal(x, z, 3, 0.5, humidityScale)
	return classify(e, t, h)
}

// classify applies the priority rules; first match wins.
func classify(e, t, h float64) Biome {
	switch {
	case e > 0.6:
		return BiomeMountain
	case t < -0.3: // cold enough for snow peaks regardless of elevation
		return BiomeMountain
	case h < -0.3 && t > 0.2:
		return BiomeDesert
	case h > 0.4 && t > -0.1:
		return BiomeForest
	case e < 0.1 && math.Abs(t) < 0.3:
		return BiomeCity
	default:
		return BiomePlains
	}
}

// blendHeight composes the height from the elevation base plus biome-scaled
// secondary terms. Contributions fade in with smoothstep weights across the
// same thresholds classify uses, so the height stays continuous even where
// the discrete label flips.
func (c *Classifier) blendHeight(x, z, e, t, h float64) float64 {
	base := e * baseHeightScale

	mountainW := math.Max(smoothstep(0.45, 0.7, e), smoothstep(0.2, 0.4, -t))
	desertW := smoothstep(0.2, 0.4, -h) * smoothstep(0.1, 0.3, t)
	cityW := (1 - smoothstep(0.0, 0.15, e)) * (1 - smoothstep(0.2, 0.35, math.Abs(t)))

	height := base
	height += c.density.Fractal(x, z, 2, 0.5, densityScale) * detailAmp * (1 - cityW)

	if mountainW > 0 {
		ridge := c.elevation.Ridged(x, z, 3, 0.5, ridgeScale)
		height += mountainW * (e*mountainElevScale + ridge*mountainRidgeAmp)
	}
	if desertW > 0 {
		dune := c.humidity.Billow(x, z, 3, 0.5, duneScale)
		height += desertW * dune * duneAmp
	}
	// City blocks sit on nearly level ground.
	height = height*(1-cityW) + height*cityFlatten*cityW

	return height
}

// smoothstep maps x across [edge0, edge1] to [0, 1] with zero derivative at
// both edges.
func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

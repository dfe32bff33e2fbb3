// Package config handles loading and validation of world settings.
package config

import (
	"errors"
	"fmt"
)

// Config holds all runtime settings.
type Config struct {
	Graphics Graphics `yaml:"graphics"`
	World    World    `yaml:"world"`
	Road     Road     `yaml:"road"`
	Logging  Logging  `yaml:"logging"`
}

// Graphics holds display settings.
type Graphics struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
	FOV    int  `yaml:"fov"`
}

// World holds terrain streaming settings. Geometry-affecting fields
// (resolution, chunk size) trigger a full chunk regeneration when re-applied.
type World struct {
	Seed                int64   `yaml:"seed"`
	ChunkResolution     int     `yaml:"chunk_resolution"`
	ChunkWorldSize      float64 `yaml:"chunk_world_size"`
	RenderDistance      float64 `yaml:"render_distance"`
	LODLevels           int     `yaml:"lod_levels"`
	FrustumCulling      bool    `yaml:"frustum_culling"`
	MaxChunkGensPerTick int     `yaml:"max_chunk_gens_per_tick"`
}

// Road holds road generation settings. Geometry-affecting fields (width,
// shoulder width, banking, stations) trigger a full segment rebuild when
// re-applied.
type Road struct {
	SegmentLength       float64 `yaml:"segment_length"`
	LookAhead           float64 `yaml:"look_ahead"`
	Curviness           float64 `yaml:"curviness"`
	TerrainFollow       float64 `yaml:"terrain_follow"`
	HeightOffset        float64 `yaml:"height_offset"`
	Width               float64 `yaml:"width"`
	ShoulderWidth       float64 `yaml:"shoulder_width"`
	Banking             float64 `yaml:"banking"`
	StationsPerSegment  int     `yaml:"stations_per_segment"`
	WaypointsPerSegment int     `yaml:"waypoints_per_segment"`
	// MaxWaypoints caps path growth; 0 keeps the path unbounded.
	MaxWaypoints int `yaml:"max_waypoints"`
}

// Logging holds logging settings.
type Logging struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: Graphics{
			Width:  1280,
			Height: 720,
			VSync:  true,
			FOV:    60,
		},
		World: World{
			Seed:                12345,
			ChunkResolution:     64,
			ChunkWorldSize:      500,
			RenderDistance:      1500,
			LODLevels:           4,
			FrustumCulling:      true,
			MaxChunkGensPerTick: 8,
		},
		Road: Road{
			SegmentLength:       25,
			LookAhead:           500,
			Curviness:           0.3,
			TerrainFollow:       0.25,
			HeightOffset:        0.5,
			Width:               12,
			ShoulderWidth:       2.5,
			Banking:             1.2,
			StationsPerSegment:  16,
			WaypointsPerSegment: 8,
			MaxWaypoints:        4096,
		},
		Logging: Logging{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every section. Misconfiguration fails here, at apply
// time, so steady-state generation never has to.
func (c *Config) Validate() error {
	if err := c.World.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if err := c.Road.Validate(); err != nil {
		return fmt.Errorf("road: %w", err)
	}
	return nil
}

// Validate checks terrain streaming settings.
func (w World) Validate() error {
	if w.ChunkWorldSize <= 0 {
		return fmt.Errorf("chunk_world_size must be positive, got %g", w.ChunkWorldSize)
	}
	if w.ChunkResolution < 2 {
		return fmt.Errorf("chunk_resolution must be at least 2, got %d", w.ChunkResolution)
	}
	if w.RenderDistance <= 0 {
		return fmt.Errorf("render_distance must be positive, got %g", w.RenderDistance)
	}
	if w.LODLevels < 1 {
		return fmt.Errorf("lod_levels must be at least 1, got %d", w.LODLevels)
	}
	if w.MaxChunkGensPerTick < 1 {
		return errors.New("max_chunk_gens_per_tick must be at least 1")
	}
	return nil
}

// Validate checks road generation settings.
func (r Road) Validate() error {
	if r.SegmentLength <= 0 {
		return fmt.Errorf("segment_length must be positive, got %g", r.SegmentLength)
	}
	if r.LookAhead <= 0 {
		return fmt.Errorf("look_ahead must be positive, got %g", r.LookAhead)
	}
	if r.Width <= 0 {
		return fmt.Errorf("width must be positive, got %g", r.Width)
	}
	if r.ShoulderWidth < 0 {
		return fmt.Errorf("shoulder_width must not be negative, got %g", r.ShoulderWidth)
	}
	if r.TerrainFollow < 0 || r.TerrainFollow > 1 {
		return fmt.Errorf("terrain_follow must be in [0,1], got %g", r.TerrainFollow)
	}
	if r.StationsPerSegment < 2 {
		return fmt.Errorf("stations_per_segment must be at least 2, got %d", r.StationsPerSegment)
	}
	if r.WaypointsPerSegment < 1 {
		return fmt.Errorf("waypoints_per_segment must be at least 1, got %d", r.WaypointsPerSegment)
	}
	if r.MaxWaypoints < 0 {
		return fmt.Errorf("max_waypoints must not be negative, got %d", r.MaxWaypoints)
	}
	return nil
}

package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.World.ChunkResolution != 64 {
		t.Errorf("expected chunk resolution 64, got %d", cfg.World.ChunkResolution)
	}
	if cfg.World.ChunkWorldSize != 500 {
		t.Errorf("expected chunk world size 500, got %g", cfg.World.ChunkWorldSize)
	}
	if cfg.World.LODLevels != 4 {
		t.Errorf("expected 4 LOD levels, got %d", cfg.World.LODLevels)
	}
	if !cfg.World.FrustumCulling {
		t.Error("expected frustum culling enabled by default")
	}

	if cfg.Road.SegmentLength != 25 {
		t.Errorf("expected segment length 25, got %g", cfg.Road.SegmentLength)
	}
	if cfg.Road.Curviness != 0.3 {
		t.Errorf("expected curviness 0.3, got %g", cfg.Road.Curviness)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got: %v", err)
	}
}

func TestValidateRejectsBadWorld(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero chunk size", func(c *Config) { c.World.ChunkWorldSize = 0 }, "chunk_world_size"},
		{"negative chunk size", func(c *Config) { c.World.ChunkWorldSize = -10 }, "chunk_world_size"},
		{"tiny resolution", func(c *Config) { c.World.ChunkResolution = 1 }, "chunk_resolution"},
		{"zero lod levels", func(c *Config) { c.World.LODLevels = 0 }, "lod_levels"},
		{"zero render distance", func(c *Config) { c.World.RenderDistance = 0 }, "render_distance"},
		{"zero road width", func(c *Config) { c.Road.Width = 0 }, "width"},
		{"zero segment length", func(c *Config) { c.Road.SegmentLength = 0 }, "segment_length"},
		{"follow factor out of range", func(c *Config) { c.Road.TerrainFollow = 1.5 }, "terrain_follow"},
		{"one station", func(c *Config) { c.Road.StationsPerSegment = 1 }, "stations_per_segment"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadFrom(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")

	cfg := Default()
	cfg.World.Seed = 987
	cfg.World.RenderDistance = 2500
	cfg.Road.Curviness = 0.7
	if err := cfg.Save(path); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if loaded.World.Seed != 987 {
		t.Errorf("expected seed 987, got %d", loaded.World.Seed)
	}
	if loaded.World.RenderDistance != 2500 {
		t.Errorf("expected render distance 2500, got %g", loaded.World.RenderDistance)
	}
	if loaded.Road.Curviness != 0.7 {
		t.Errorf("expected curviness 0.7, got %g", loaded.Road.Curviness)
	}
	// Untouched values fall back to defaults.
	if loaded.World.ChunkResolution != 64 {
		t.Errorf("expected default resolution 64, got %d", loaded.World.ChunkResolution)
	}
}

func TestLoadFromRejectsInvalidFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")

	cfg := Default()
	cfg.World.LODLevels = 0
	if err := cfg.Save(path); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected invalid file to fail validation")
	}
}

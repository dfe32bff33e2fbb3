package terrain

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/deanbilledo/zen-drive/internal/config"
	"github.com/deanbilledo/zen-drive/internal/cull"
	"github.com/deanbilledo/zen-drive/internal/logger"
	"github.com/deanbilledo/zen-drive/internal/profiling"
	"github.com/deanbilledo/zen-drive/internal/render"
)

// Streamer maintains the set of loaded terrain chunks around a moving
// anchor. Each Update runs unload, then generate, then visibility, so a
// caller never observes a partially built chunk.
//
// Every chunk key goes unloaded -> loaded(LOD=k); a LOD change regenerates
// the chunk wholesale, and leaving the radius returns it to the pool.
type Streamer struct {
	cfg        config.World
	classifier *Classifier
	backend    render.Backend

	chunks map[ChunkKey]*Chunk
	pool   chunkPool
}

// NewStreamer validates the configuration and prepares an empty streamer.
func NewStreamer(cfg config.World, backend render.Backend) (*Streamer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Streamer{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Seed),
		backend:    backend,
		chunks:     make(map[ChunkKey]*Chunk),
	}, nil
}

// Configure re-applies settings at runtime. Geometry-affecting changes
// unload every chunk; the following updates regenerate them under the
// normal per-tick budget.
func (s *Streamer) Configure(cfg config.World) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	regen := cfg.ChunkResolution != s.cfg.ChunkResolution ||
		cfg.ChunkWorldSize != s.cfg.ChunkWorldSize ||
		cfg.LODLevels != s.cfg.LODLevels ||
		cfg.Seed != s.cfg.Seed
	if cfg.Seed != s.cfg.Seed {
		s.classifier = NewClassifier(cfg.Seed)
	}
	s.cfg = cfg
	if regen {
		logger.Log.Info("terrain settings changed, regenerating all chunks",
			zap.Int("loaded", len(s.chunks)))
		for key, c := range s.chunks {
			s.unload(key, c)
		}
	}
	return nil
}

// HeightAt returns the terrain height at world (x, z). It is independent of
// chunk state, so the road generator can query ahead of the loaded area.
func (s *Streamer) HeightAt(x, z float64) float64 {
	return s.classifier.HeightAt(x, z)
}

// BiomeAt returns the biome at world (x, z).
func (s *Streamer) BiomeAt(x, z float64) Biome {
	return s.classifier.BiomeAt(x, z)
}

// Chunks returns all loaded chunks. The slice and the chunks it points to
// are only valid until the next Update.
func (s *Streamer) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, c)
	}
	return out
}

// Loaded reports whether a chunk key is currently loaded.
func (s *Streamer) Loaded(key ChunkKey) bool {
	_, ok := s.chunks[key]
	return ok
}

// LoadedCount returns the number of loaded chunks.
func (s *Streamer) LoadedCount() int { return len(s.chunks) }

// PooledCount returns the number of idle chunk records in the pool.
func (s *Streamer) PooledCount() int { return s.pool.size() }

// Update advances the streaming state for this tick: compute the required
// (key, LOD) set around the anchor, unload chunks that left it, generate
// missing ones nearest-first under the per-tick budget, then recompute
// visibility from distance and (optionally) the supplied frustum.
func (s *Streamer) Update(anchor mgl32.Vec3, frustum *cull.Frustum) {
	defer profiling.Track("terrain.Update")()

	required := s.requiredSet(anchor)

	for key, c := range s.chunks {
		lod, ok := required[key]
		if !ok || lod != c.LOD {
			s.unload(key, c)
		}
	}

	type candidate struct {
		key  ChunkKey
		lod  int
		dist float64
	}
	var missing []candidate
	for key, lod := range required {
		if _, ok := s.chunks[key]; !ok {
			missing = append(missing, candidate{key, lod, s.distanceTo(anchor, key)})
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].dist < missing[j].dist })
	if len(missing) > s.cfg.MaxChunkGensPerTick {
		missing = missing[:s.cfg.MaxChunkGensPerTick]
	}
	for _, m := range missing {
		s.chunks[m.key] = s.generateChunk(m.key, m.lod)
	}

	for _, c := range s.chunks {
		if c.GPU == 0 {
			s.tryUpload(c)
		}
		visible := s.distanceTo(anchor, c.Key) <= s.cfg.RenderDistance
		if visible && s.cfg.FrustumCulling && frustum != nil {
			visible = frustum.ContainsAABB(c.Bounds)
		}
		c.Visible = visible
	}
}

// requiredSet maps every chunk key within the render distance of the anchor
// to its LOD bucket (0 nearest).
func (s *Streamer) requiredSet(anchor mgl32.Vec3) map[ChunkKey]int {
	size := s.cfg.ChunkWorldSize
	cx := int(math.Floor(float64(anchor.X()) / size))
	cz := int(math.Floor(float64(anchor.Z()) / size))
	radius := int(math.Ceil(s.cfg.RenderDistance / size))

	lodStep := s.cfg.RenderDistance / float64(s.cfg.LODLevels)

	required := make(map[ChunkKey]int)
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			key := ChunkKey{X: cx + dx, Z: cz + dz}
			dist := s.distanceTo(anchor, key)
			if dist > s.cfg.RenderDistance {
				continue
			}
			lod := int(dist / lodStep)
			if lod > s.cfg.LODLevels-1 {
				lod = s.cfg.LODLevels - 1
			}
			required[key] = lod
		}
	}
	return required
}

// distanceTo is the XZ distance from the anchor to the chunk's center.
func (s *Streamer) distanceTo(anchor mgl32.Vec3, key ChunkKey) float64 {
	size := s.cfg.ChunkWorldSize
	cx := (float64(key.X) + 0.5) * size
	cz := (float64(key.Z) + 0.5) * size
	dx := float64(anchor.X()) - cx
	dz := float64(anchor.Z()) - cz
	return math.Sqrt(dx*dx + dz*dz)
}

// unload releases the chunk's GPU resources exactly once and returns the
// record to the pool.
func (s *Streamer) unload(key ChunkKey, c *Chunk) {
	if c.GPU != 0 {
		s.backend.Release(c.GPU)
	}
	delete(s.chunks, key)
	s.pool.release(c)
	logger.Log.Debug("chunk unloaded", zap.Int("cx", key.X), zap.Int("cz", key.Z))
}

// generateChunk builds a complete chunk synchronously: heightfield mesh,
// normals, bounds, then a GPU upload attempt. Generation itself never
// fails; a failed upload is retried on the next update.
func (s *Streamer) generateChunk(key ChunkKey, lod int) *Chunk {
	defer profiling.Track("terrain.generateChunk")()

	c := s.pool.acquire()
	c.Key = key
	c.LOD = lod
	c.Origin = mgl32.Vec3{
		float32(float64(key.X) * s.cfg.ChunkWorldSize),
		0,
		float32(float64(key.Z) * s.cfg.ChunkWorldSize),
	}

	s.buildMesh(c)
	s.tryUpload(c)

	logger.Log.Debug("chunk generated",
		zap.Int("cx", key.X), zap.Int("cz", key.Z),
		zap.Int("lod", lod), zap.Int("triangles", c.TriangleCount))
	return c
}

func (s *Streamer) tryUpload(c *Chunk) {
	h, err := s.backend.Upload(render.Mesh{Vertices: c.Vertices, Indices: c.Indices})
	if err != nil {
		logger.Log.Warn("chunk mesh upload failed, will retry next tick",
			zap.Int("cx", c.Key.X), zap.Int("cz", c.Key.Z), zap.Error(err))
		return
	}
	c.GPU = h
}

// lodResolution halves the grid resolution per LOD step with a floor of 8
// (never above the configured base resolution).
func lodResolution(base, lod int) int {
	res := base >> lod
	floor := 8
	if base < floor {
		floor = base
	}
	if res < floor {
		res = floor
	}
	return res
}

// buildMesh fills the chunk's vertex/index buffers with a res x res
// heightfield: interleaved position, normal, uv and biome id per vertex,
// two triangles per quad, and an AABB spanning the sampled height range.
func (s *Streamer) buildMesh(c *Chunk) {
	res := lodResolution(s.cfg.ChunkResolution, c.LOD)
	size := s.cfg.ChunkWorldSize
	step := size / float64(res-1)
	ox := float64(c.Origin.X())
	oz := float64(c.Origin.Z())

	// Sample a one-cell ring beyond the chunk so border normals use real
	// neighbor heights instead of clamped ones.
	n := res + 2
	heights := make([]float64, n*n)
	biomes := make([]Biome, res*res)
	minH := math.Inf(1)
	maxH := math.Inf(-1)
	for gz := 0; gz < n; gz++ {
		for gx := 0; gx < n; gx++ {
			wx := ox + float64(gx-1)*step
			wz := oz + float64(gz-1)*step
			inner := gx >= 1 && gx <= res && gz >= 1 && gz <= res
			if inner {
				sample := s.classifier.At(wx, wz)
				heights[gz*n+gx] = sample.Height
				biomes[(gz-1)*res+(gx-1)] = sample.Biome
				if sample.Height < minH {
					minH = sample.Height
				}
				if sample.Height > maxH {
					maxH = sample.Height
				}
			} else {
				heights[gz*n+gx] = s.classifier.HeightAt(wx, wz)
			}
		}
	}

	c.Vertices = c.Vertices[:0]
	if cap(c.Vertices) < res*res*render.FloatsPerVertex {
		c.Vertices = make([]float32, 0, res*res*render.FloatsPerVertex)
	}
	for iz := 0; iz < res; iz++ {
		for ix := 0; ix < res; ix++ {
			gx, gz := ix+1, iz+1
			h := heights[gz*n+gx]

			// Central differences over the 4-neighborhood.
			hw := heights[gz*n+gx-1]
			he := heights[gz*n+gx+1]
			hn := heights[(gz-1)*n+gx]
			hs := heights[(gz+1)*n+gx]
			normal := mgl32.Vec3{
				float32(hw - he),
				float32(2 * step),
				float32(hn - hs),
			}.Normalize()

			c.Vertices = append(c.Vertices,
				float32(ox+float64(ix)*step), float32(h), float32(oz+float64(iz)*step),
				normal.X(), normal.Y(), normal.Z(),
				float32(ix)/float32(res-1), float32(iz)/float32(res-1),
				float32(biomes[iz*res+ix]),
			)
		}
	}

	c.Indices = c.Indices[:0]
	quads := (res - 1) * (res - 1)
	if cap(c.Indices) < quads*6 {
		c.Indices = make([]uint32, 0, quads*6)
	}
	for iz := 0; iz < res-1; iz++ {
		for ix := 0; ix < res-1; ix++ {
			i0 := uint32(iz*res + ix)
			i1 := i0 + 1
			i2 := i0 + uint32(res)
			i3 := i2 + 1
			c.Indices = append(c.Indices, i0, i2, i1, i1, i2, i3)
		}
	}
	c.TriangleCount = quads * 2

	half := size / 2
	c.Bounds = cull.AABB{
		Center: mgl32.Vec3{
			float32(ox + half),
			float32((minH + maxH) / 2),
			float32(oz + half),
		},
		Extents: mgl32.Vec3{
			float32(half),
			float32((maxH-minH)/2) + 0.5,
			float32(half),
		},
	}
}

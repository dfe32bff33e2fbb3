package terrain

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/deanbilledo/zen-drive/internal/cull"
	"github.com/deanbilledo/zen-drive/internal/render"
)

// ChunkKey identifies a chunk by its integer grid coordinates.
type ChunkKey struct {
	X, Z int
}

// Chunk is one streamed terrain tile. Chunks are owned exclusively by the
// Streamer; external holders must not keep references across an Update.
type Chunk struct {
	Key    ChunkKey
	LOD    int
	Origin mgl32.Vec3 // world-space minimum corner

	Vertices      []float32 // interleaved per render.FloatsPerVertex
	Indices       []uint32
	TriangleCount int

	Bounds  cull.AABB
	Visible bool

	// GPU is the backend handle; zero means upload is still pending and
	// will be retried on the next update pass.
	GPU render.Handle
}

// reset clears every mutable field so a pooled chunk carries nothing over
// from its previous tenant. Buffers keep their capacity.
func (c *Chunk) reset() {
	c.Key = ChunkKey{}
	c.LOD = 0
	c.Origin = mgl32.Vec3{}
	c.Vertices = c.Vertices[:0]
	c.Indices = c.Indices[:0]
	c.TriangleCount = 0
	c.Bounds = cull.AABB{}
	c.Visible = false
	c.GPU = 0
}

// chunkPool is a free-list of reusable chunk records. Acquire and release
// both reset the record, so stale geometry can never leak between tenants.
type chunkPool struct {
	free []*Chunk
}

func (p *chunkPool) acquire() *Chunk {
	n := len(p.free)
	if n == 0 {
		return &Chunk{}
	}
	c := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	c.reset()
	return c
}

func (p *chunkPool) release(c *Chunk) {
	c.reset()
	p.free = append(p.free, c)
}

func (p *chunkPool) size() int {
	return len(p.free)
}

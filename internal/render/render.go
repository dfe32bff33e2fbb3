// Package render is the GPU boundary for the streaming core. The terrain
// and road generators hand finished CPU-side meshes to a Backend and get an
// opaque handle back; releasing that handle is the only GPU cleanup they do.
package render

// FloatsPerVertex is the interleaved vertex layout shared by terrain and
// road meshes: position (3), normal (3), uv (2), material id (1).
const FloatsPerVertex = 9

// Handle identifies an uploaded mesh. Zero means "not uploaded".
type Handle uint32

// Mesh is a CPU-side geometry buffer ready for upload.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// TriangleCount returns the number of triangles in the mesh.
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Backend owns GPU-side mesh resources. Upload may fail (driver/allocation
// limits); callers keep their CPU mesh and retry on the next tick.
// Release must be called exactly once per successful Upload.
type Backend interface {
	Upload(mesh Mesh) (Handle, error)
	Release(h Handle)
}

package render

// Null is a headless Backend. It hands out unique handles and counts
// lifecycle calls, which is all tests and headless runs need.
type Null struct {
	next     Handle
	Uploads  int
	Releases int
	Live     map[Handle]int // handle -> triangle count
	FailNext int            // fail this many upcoming uploads
}

// NewNull returns an empty headless backend.
func NewNull() *Null {
	return &Null{Live: make(map[Handle]int)}
}

// Upload records the mesh and returns a fresh handle.
func (n *Null) Upload(mesh Mesh) (Handle, error) {
	if n.FailNext > 0 {
		n.FailNext--
		return 0, errUploadFailed
	}
	n.next++
	n.Uploads++
	n.Live[n.next] = mesh.TriangleCount()
	return n.next, nil
}

// Release forgets the handle.
func (n *Null) Release(h Handle) {
	n.Releases++
	delete(n.Live, h)
}

type uploadError struct{}

func (uploadError) Error() string { return "render: upload failed" }

var errUploadFailed = uploadError{}

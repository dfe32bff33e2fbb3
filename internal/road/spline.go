package road

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// defaultForward is returned when a tangent is undefined (degenerate paths,
// zero-length derivatives) so callers never see NaN.
var defaultForward = mgl64.Vec3{0, 0, 1}

// Spline is a uniform Catmull-Rom curve through an ordered list of control
// points. It is a stateless wrapper: the road generator rebuilds it after
// every path extension. End segments reuse the nearest real point as their
// virtual control, so the curve never extrapolates beyond the path.
type Spline struct {
	points []mgl64.Vec3
}

// NewSpline wraps the given control points. The slice is not copied; the
// caller must not mutate it while the spline is in use.
func NewSpline(points []mgl64.Vec3) *Spline {
	return &Spline{points: points}
}

// Len returns the number of control points.
func (s *Spline) Len() int { return len(s.points) }

// locate maps global t in [0,1] to a segment index and local parameter.
func (s *Spline) locate(t float64) (int, float64) {
	segments := len(s.points) - 1
	if t <= 0 {
		return 0, 0
	}
	if t >= 1 {
		return segments - 1, 1
	}
	ft := t * float64(segments)
	i := int(math.Floor(ft))
	if i > segments-1 {
		i = segments - 1
	}
	return i, ft - float64(i)
}

// controls returns the four control points for segment i, clamping the
// virtual end points to the nearest real point.
func (s *Spline) controls(i int) (p0, p1, p2, p3 mgl64.Vec3) {
	n := len(s.points)
	i0 := i - 1
	if i0 < 0 {
		i0 = 0
	}
	i3 := i + 2
	if i3 > n-1 {
		i3 = n - 1
	}
	return s.points[i0], s.points[i], s.points[i+1], s.points[i3]
}

// PointAt evaluates the curve position at t in [0,1]. Fewer than two
// control points degrade to the sole point or the origin.
func (s *Spline) PointAt(t float64) mgl64.Vec3 {
	switch len(s.points) {
	case 0:
		return mgl64.Vec3{}
	case 1:
		return s.points[0]
	}

	i, u := s.locate(t)
	p0, p1, p2, p3 := s.controls(i)

	u2 := u * u
	u3 := u2 * u

	// Standard uniform Catmull-Rom basis.
	c0 := -0.5*u3 + u2 - 0.5*u
	c1 := 1.5*u3 - 2.5*u2 + 1
	c2 := -1.5*u3 + 2*u2 + 0.5*u
	c3 := 0.5*u3 - 0.5*u2

	return p0.Mul(c0).Add(p1.Mul(c1)).Add(p2.Mul(c2)).Add(p3.Mul(c3))
}

// TangentAt evaluates the normalized curve derivative at t. Degenerate
// inputs fall back to the default forward vector instead of NaN.
func (s *Spline) TangentAt(t float64) mgl64.Vec3 {
	if len(s.points) < 2 {
		return defaultForward
	}

	i, u := s.locate(t)
	p0, p1, p2, p3 := s.controls(i)

	u2 := u * u

	// Analytic derivative of the Catmull-Rom cubic.
	d0 := -1.5*u2 + 2*u - 0.5
	d1 := 4.5*u2 - 5*u
	d2 := -4.5*u2 + 4*u + 0.5
	d3 := 1.5*u2 - u

	d := p0.Mul(d0).Add(p1.Mul(d1)).Add(p2.Mul(d2)).Add(p3.Mul(d3))
	if d.Len() < 1e-12 {
		return defaultForward
	}
	return d.Normalize()
}

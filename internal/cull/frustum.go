package cull

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is one half-space boundary in normal + distance form:
// points p with Normal·p + D >= 0 are inside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Frustum holds the six camera planes in order:
// left, right, bottom, top, near, far.
type Frustum [6]Plane

// AABB is an axis-aligned bounding box as center + half-extents.
type AABB struct {
	Center  mgl32.Vec3
	Extents mgl32.Vec3
}

// Min returns the minimum corner of the box.
func (b AABB) Min() mgl32.Vec3 {
	return b.Center.Sub(b.Extents)
}

// Max returns the maximum corner of the box.
func (b AABB) Max() mgl32.Vec3 {
	return b.Center.Add(b.Extents)
}

// FromMatrix builds the six frustum planes from the combined
// projection*view matrix. mgl32 matrices are column-major.
func FromMatrix(clip mgl32.Mat4) Frustum {
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	var f Frustum
	f[0] = normalizePlane(Plane{mgl32.Vec3{m30 + m00, m31 + m01, m32 + m02}, m33 + m03}) // left
	f[1] = normalizePlane(Plane{mgl32.Vec3{m30 - m00, m31 - m01, m32 - m02}, m33 - m03}) // right
	f[2] = normalizePlane(Plane{mgl32.Vec3{m30 + m10, m31 + m11, m32 + m12}, m33 + m13}) // bottom
	f[3] = normalizePlane(Plane{mgl32.Vec3{m30 - m10, m31 - m11, m32 - m12}, m33 - m13}) // top
	f[4] = normalizePlane(Plane{mgl32.Vec3{m30 + m20, m31 + m21, m32 + m22}, m33 + m23}) // near
	f[5] = normalizePlane(Plane{mgl32.Vec3{m30 - m20, m31 - m21, m32 - m22}, m33 - m23}) // far
	return f
}

func normalizePlane(p Plane) Plane {
	l := float32(math.Sqrt(float64(p.Normal.X()*p.Normal.X() + p.Normal.Y()*p.Normal.Y() + p.Normal.Z()*p.Normal.Z())))
	if l == 0 {
		return p
	}
	return Plane{p.Normal.Mul(1 / l), p.D / l}
}

// ContainsAABB tests the box against all six planes using the
// positive-vertex test: if the box's extremal vertex along a plane's
// normal is behind that plane, the box is fully outside.
func (f Frustum) ContainsAABB(box AABB) bool {
	min := box.Min()
	max := box.Max()

	for i := 0; i < 6; i++ {
		p := f[i]
		px := max.X()
		if p.Normal.X() < 0 {
			px = min.X()
		}
		py := max.Y()
		if p.Normal.Y() < 0 {
			py = min.Y()
		}
		pz := max.Z()
		if p.Normal.Z() < 0 {
			pz = min.Z()
		}
		if p.Normal.X()*px+p.Normal.Y()*py+p.Normal.Z()*pz+p.D < 0 {
			return false
		}
	}
	return true
}

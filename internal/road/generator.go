package road

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/deanbilledo/zen-drive/internal/config"
	"github.com/deanbilledo/zen-drive/internal/cull"
	"github.com/deanbilledo/zen-drive/internal/logger"
	"github.com/deanbilledo/zen-drive/internal/profiling"
	"github.com/deanbilledo/zen-drive/internal/render"
)

// Turn noise frequency along the path; the second input runs at 0.7x the
// first so successive turns decorrelate.
const turnNoiseScale = 0.005

// asphaltMaterial is the material id written into road vertices.
const asphaltMaterial = 5

var worldUp = mgl64.Vec3{0, 1, 0}

// Waypoint is one generated point of the road centerline plus the heading
// that produced it. Waypoints are appended monotonically; the path only
// ever shrinks from the front, and only when a max-waypoint cap is set.
type Waypoint struct {
	Position mgl64.Vec3
	Heading  mgl64.Vec3
}

// Segment is one meshed stretch of road covering [StartT, EndT] of the
// spline at build time. Segments are regenerated wholesale on every path
// extension, never patched.
type Segment struct {
	StartT, EndT float64

	Vertices      []float32
	Indices       []uint32
	TriangleCount int

	Bounds  cull.AABB
	Visible bool

	GPU render.Handle
}

// Info is the result of a nearest-point-on-road query.
type Info struct {
	Position mgl64.Vec3
	Tangent  mgl64.Vec3
	Distance float64
	T        float64
}

// HeightSampler provides terrain height lookups; satisfied by
// terrain.Streamer.
type HeightSampler interface {
	HeightAt(x, z float64) float64
}

// Generator extends a waypoint path ahead of the anchor, keeps the road
// glued to the terrain, and meshes it into banked, culled segments.
type Generator struct {
	cfg     config.Road
	noise   noiseSource
	terrain HeightSampler
	backend render.Backend

	start        mgl64.Vec3
	startHeading mgl64.Vec3

	waypoints []Waypoint
	spline    *Spline
	segments  []*Segment

	// progress is the total centerline distance generated so far; it
	// drives the turn noise so the path never repeats.
	progress float64
}

// noiseSource is the slice of the noise field the generator needs.
type noiseSource interface {
	Fractal(x, y float64, octaves int, persistence, scale float64) float64
}

// NewGenerator validates the configuration and prepares an empty road
// starting at the origin heading +Z.
func NewGenerator(cfg config.Road, n noiseSource, terrain HeightSampler, backend render.Backend) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		cfg:          cfg,
		noise:        n,
		terrain:      terrain,
		backend:      backend,
		start:        mgl64.Vec3{},
		startHeading: mgl64.Vec3{0, 0, 1},
		spline:       NewSpline(nil),
	}, nil
}

// Configure re-applies settings at runtime. Changes to the cross-section
// (width, shoulders, banking, stations) rebuild every segment from the
// existing path.
func (g *Generator) Configure(cfg config.Road) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	rebuild := cfg.Width != g.cfg.Width ||
		cfg.ShoulderWidth != g.cfg.ShoulderWidth ||
		cfg.Banking != g.cfg.Banking ||
		cfg.StationsPerSegment != g.cfg.StationsPerSegment ||
		cfg.WaypointsPerSegment != g.cfg.WaypointsPerSegment
	g.cfg = cfg
	if rebuild && len(g.waypoints) > 0 {
		logger.Log.Info("road settings changed, rebuilding all segments",
			zap.Int("segments", len(g.segments)))
		g.rebuild()
	}
	return nil
}

// Waypoints returns the current path. Valid until the next Extend.
func (g *Generator) Waypoints() []Waypoint { return g.waypoints }

// Segments returns the current road segments. Valid until the next update.
func (g *Generator) Segments() []*Segment { return g.segments }

// Extend grows the path forward by at least the requested distance in
// fixed segment-length steps, then rebuilds the spline and every segment
// mesh.
func (g *Generator) Extend(distance float64) {
	defer profiling.Track("road.Extend")()

	steps := int(math.Ceil(distance / g.cfg.SegmentLength))
	if len(g.waypoints) == 0 && steps > 0 {
		g.waypoints = append(g.waypoints, Waypoint{Position: g.start, Heading: g.startHeading})
		steps--
	}
	for i := 0; i < steps; i++ {
		g.step()
	}
	g.trimPath()
	g.rebuild()
}

// step appends one waypoint: perturb the heading with fractal noise, walk
// one segment length in the XZ plane, then blend the height toward the
// terrain so the road has inertia relative to raw ground.
func (g *Generator) step() {
	last := g.waypoints[len(g.waypoints)-1]

	turn := g.noise.Fractal(g.progress, g.progress*0.7, 2, 0.5, turnNoiseScale) * g.cfg.Curviness * 0.5
	heading := mgl64.Rotate3DY(turn).Mul3x1(last.Heading)
	heading[1] = 0
	heading = heading.Normalize()

	pos := last.Position.Add(heading.Mul(g.cfg.SegmentLength))
	target := g.terrain.HeightAt(pos.X(), pos.Z()) + g.cfg.HeightOffset
	pos[1] = last.Position.Y() + (target-last.Position.Y())*g.cfg.TerrainFollow

	g.progress += g.cfg.SegmentLength
	g.waypoints = append(g.waypoints, Waypoint{Position: pos, Heading: heading})
}

// trimPath drops the oldest waypoints once the configured cap is exceeded.
// A zero cap keeps the path unbounded.
func (g *Generator) trimPath() {
	if g.cfg.MaxWaypoints <= 0 || len(g.waypoints) <= g.cfg.MaxWaypoints {
		return
	}
	drop := len(g.waypoints) - g.cfg.MaxWaypoints
	g.waypoints = append(g.waypoints[:0], g.waypoints[drop:]...)
	logger.Log.Debug("road path trimmed", zap.Int("dropped", drop))
}

// rebuild recomputes the spline over the whole path and regenerates every
// segment mesh, releasing the old meshes' GPU resources first.
func (g *Generator) rebuild() {
	defer profiling.Track("road.rebuild")()

	for _, seg := range g.segments {
		if seg.GPU != 0 {
			g.backend.Release(seg.GPU)
		}
	}
	g.segments = g.segments[:0]

	pts := make([]mgl64.Vec3, len(g.waypoints))
	for i, w := range g.waypoints {
		pts[i] = w.Position
	}
	g.spline = NewSpline(pts)

	if len(pts) < 2 {
		return
	}
	count := (len(pts) - 1) / g.cfg.WaypointsPerSegment
	if count < 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		t0 := float64(i) / float64(count)
		t1 := float64(i+1) / float64(count)
		seg := g.buildSegment(t0, t1)
		g.tryUpload(seg)
		g.segments = append(g.segments, seg)
	}
}

// Update keeps the road generated ahead of the anchor and culls segments
// left far behind. Segment visibility is distance-only.
func (g *Generator) Update(anchor mgl32.Vec3) {
	defer profiling.Track("road.Update")()

	a := mgl64.Vec3{float64(anchor.X()), float64(anchor.Y()), float64(anchor.Z())}

	if len(g.waypoints) == 0 {
		g.Extend(g.cfg.LookAhead)
	} else {
		last := g.waypoints[len(g.waypoints)-1].Position
		dx := a.X() - last.X()
		dz := a.Z() - last.Z()
		if math.Sqrt(dx*dx+dz*dz) < g.cfg.LookAhead/2 {
			g.Extend(g.cfg.LookAhead)
		}
	}

	kept := g.segments[:0]
	for _, seg := range g.segments {
		if g.segmentDistance(seg, a) > 2*g.cfg.LookAhead {
			if seg.GPU != 0 {
				g.backend.Release(seg.GPU)
			}
			continue
		}
		kept = append(kept, seg)
	}
	g.segments = kept

	for _, seg := range g.segments {
		if seg.GPU == 0 {
			g.tryUpload(seg)
		}
		seg.Visible = g.segmentDistance(seg, a) <= g.cfg.LookAhead
	}
}

func (g *Generator) segmentDistance(seg *Segment, a mgl64.Vec3) float64 {
	dx := a.X() - float64(seg.Bounds.Center.X())
	dz := a.Z() - float64(seg.Bounds.Center.Z())
	return math.Sqrt(dx*dx + dz*dz)
}

func (g *Generator) tryUpload(seg *Segment) {
	h, err := g.backend.Upload(render.Mesh{Vertices: seg.Vertices, Indices: seg.Indices})
	if err != nil {
		logger.Log.Warn("road segment upload failed, will retry next tick",
			zap.Float64("startT", seg.StartT), zap.Error(err))
		return
	}
	seg.GPU = h
}

// buildSegment meshes one [t0, t1] stretch: at each station it derives a
// tangent/right/up basis from the spline, rolls it about the tangent by the
// local curvature times the banking factor, and emits five cross-section
// vertices (left shoulder, left edge, center, right edge, right shoulder).
// Adjacent stations are stitched into a continuous strip.
func (g *Generator) buildSegment(t0, t1 float64) *Segment {
	stations := g.cfg.StationsPerSegment
	dt := (t1 - t0) / float64(stations-1)
	halfW := g.cfg.Width / 2
	shoulder := halfW + g.cfg.ShoulderWidth
	offsets := [5]float64{-shoulder, -halfW, 0, halfW, shoulder}

	seg := &Segment{
		StartT:   t0,
		EndT:     t1,
		Vertices: make([]float32, 0, stations*5*render.FloatsPerVertex),
		Indices:  make([]uint32, 0, (stations-1)*4*6),
	}

	min := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	for j := 0; j < stations; j++ {
		tj := t0 + dt*float64(j)
		pos := g.spline.PointAt(tj)
		tangent := g.spline.TangentAt(tj)

		right := tangent.Cross(worldUp)
		if right.Len() < 1e-9 {
			right = mgl64.Vec3{1, 0, 0}
		}
		right = right.Normalize()
		up := right.Cross(tangent).Normalize()

		roll := g.curvatureAt(tj, dt) * g.cfg.Banking
		if roll != 0 {
			rot := mgl64.QuatRotate(roll, tangent)
			right = rot.Rotate(right)
			up = rot.Rotate(up)
		}

		v := float32(j) / float32(stations-1)
		for k, off := range offsets {
			p := pos.Add(right.Mul(off))
			seg.Vertices = append(seg.Vertices,
				float32(p.X()), float32(p.Y()), float32(p.Z()),
				float32(up.X()), float32(up.Y()), float32(up.Z()),
				float32(k)/4, v,
				asphaltMaterial,
			)
			for i := 0; i < 3; i++ {
				if p[i] < min[i] {
					min[i] = p[i]
				}
				if p[i] > max[i] {
					max[i] = p[i]
				}
			}
		}
	}

	for j := 0; j < stations-1; j++ {
		for k := 0; k < 4; k++ {
			a := uint32(j*5 + k)
			b := a + 1
			c := a + 5
			d := c + 1
			seg.Indices = append(seg.Indices, a, c, b, b, c, d)
		}
	}
	seg.TriangleCount = len(seg.Indices) / 3

	center := min.Add(max).Mul(0.5)
	extents := max.Sub(min).Mul(0.5)
	seg.Bounds = cull.AABB{
		Center:  mgl32.Vec3{float32(center.X()), float32(center.Y()), float32(center.Z())},
		Extents: mgl32.Vec3{float32(extents.X()), float32(extents.Y()) + 0.25, float32(extents.Z())},
	}
	return seg
}

// curvatureAt estimates heading change per station by averaging the yaw
// deltas between the previous, current and next tangents.
func (g *Generator) curvatureAt(t, dt float64) float64 {
	yaw := func(t float64) float64 {
		tan := g.spline.TangentAt(clamp01(t))
		return math.Atan2(tan.Z(), tan.X())
	}
	prev := yaw(t - dt)
	cur := yaw(t)
	next := yaw(t + dt)
	return (wrapAngle(next-cur) + wrapAngle(cur-prev)) / 2
}

// RoadInfo finds the nearest point on the road to pos: a coarse uniform
// scan of the whole spline followed by a fine pass over a small window
// around the best coarse parameter.
func (g *Generator) RoadInfo(pos mgl64.Vec3) Info {
	defer profiling.Track("road.RoadInfo")()

	switch g.spline.Len() {
	case 0:
		return Info{Tangent: defaultForward}
	case 1:
		p := g.spline.PointAt(0)
		return Info{Position: p, Tangent: defaultForward, Distance: pos.Sub(p).Len()}
	}

	const coarse = 256
	bestT := 0.0
	bestD := math.Inf(1)
	for i := 0; i <= coarse; i++ {
		t := float64(i) / coarse
		if d := g.spline.PointAt(t).Sub(pos).Len(); d < bestD {
			bestD = d
			bestT = t
		}
	}

	const fine = 64
	lo := clamp01(bestT - 1.0/coarse)
	hi := clamp01(bestT + 1.0/coarse)
	for i := 0; i <= fine; i++ {
		t := lo + (hi-lo)*float64(i)/fine
		if d := g.spline.PointAt(t).Sub(pos).Len(); d < bestD {
			bestD = d
			bestT = t
		}
	}

	return Info{
		Position: g.spline.PointAt(bestT),
		Tangent:  g.spline.TangentAt(bestT),
		Distance: bestD,
		T:        bestT,
	}
}

// IsOnRoad reports whether pos lies within the road surface plus tolerance.
func (g *Generator) IsOnRoad(pos mgl64.Vec3, tolerance float64) bool {
	return g.RoadInfo(pos).Distance <= g.cfg.Width/2+tolerance
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// wrapAngle normalizes an angle difference to (-pi, pi].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

package road

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/deanbilledo/zen-drive/internal/config"
	"github.com/deanbilledo/zen-drive/internal/noise"
	"github.com/deanbilledo/zen-drive/internal/render"
)

// flatTerrain is a constant-height sampler.
type flatTerrain struct{ height float64 }

func (f flatTerrain) HeightAt(x, z float64) float64 { return f.height }

func testRoadConfig() config.Road {
	cfg := config.Default().Road
	return cfg
}

func newTestGenerator(t *testing.T, cfg config.Road, ground float64) (*Generator, *render.Null) {
	t.Helper()
	backend := render.NewNull()
	gen, err := NewGenerator(cfg, noise.NewField(12345), flatTerrain{height: ground}, backend)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen, backend
}

func TestGeneratorRejectsInvalidConfig(t *testing.T) {
	cfg := testRoadConfig()
	cfg.SegmentLength = 0
	if _, err := NewGenerator(cfg, noise.NewField(1), flatTerrain{}, render.NewNull()); err == nil {
		t.Fatal("expected error for zero segment length")
	}
}

func TestExtendWaypointCountAndSpacing(t *testing.T) {
	gen, _ := newTestGenerator(t, testRoadConfig(), 0)

	gen.Extend(500)

	wpts := gen.Waypoints()
	if len(wpts) != 20 {
		t.Fatalf("got %d waypoints after extending 500 at segment length 25, want 20", len(wpts))
	}
	if wpts[0].Position != (mgl64.Vec3{}) {
		t.Errorf("first waypoint = %v, want origin", wpts[0].Position)
	}
	for i := 1; i < len(wpts); i++ {
		dx := wpts[i].Position.X() - wpts[i-1].Position.X()
		dz := wpts[i].Position.Z() - wpts[i-1].Position.Z()
		if d := math.Sqrt(dx*dx + dz*dz); math.Abs(d-25) > 1e-9 {
			t.Errorf("waypoint %d is %v from its predecessor in XZ, want exactly 25", i, d)
		}
	}
}

func TestExtendIsDeterministic(t *testing.T) {
	a, _ := newTestGenerator(t, testRoadConfig(), 0)
	b, _ := newTestGenerator(t, testRoadConfig(), 0)

	a.Extend(500)
	b.Extend(500)

	wa, wb := a.Waypoints(), b.Waypoints()
	if len(wa) != len(wb) {
		t.Fatalf("waypoint counts differ: %d vs %d", len(wa), len(wb))
	}
	for i := range wa {
		if wa[i].Position != wb[i].Position {
			t.Fatalf("waypoint %d differs: %v vs %v", i, wa[i].Position, wb[i].Position)
		}
	}
}

func TestHeightConvergesToTerrainPlusOffset(t *testing.T) {
	cfg := testRoadConfig()
	gen, _ := newTestGenerator(t, cfg, 40)

	gen.Extend(2000)

	wpts := gen.Waypoints()
	want := 40 + cfg.HeightOffset
	got := wpts[len(wpts)-1].Position.Y()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("final waypoint height = %v, want near %v", got, want)
	}

	// Height must move monotonically toward the target from the origin.
	for i := 1; i < len(wpts); i++ {
		prev := wpts[i-1].Position.Y()
		cur := wpts[i].Position.Y()
		if cur < prev-1e-9 {
			t.Fatalf("waypoint %d height %v dropped below predecessor %v while climbing to %v", i, cur, prev, want)
		}
	}
}

func TestRoadInfoAtStart(t *testing.T) {
	gen, _ := newTestGenerator(t, testRoadConfig(), 0)
	gen.Extend(500)

	info := gen.RoadInfo(mgl64.Vec3{})
	if info.Distance > 1e-6 {
		t.Errorf("RoadInfo at start: distance = %v, want ~0", info.Distance)
	}
	if info.T > 1e-6 {
		t.Errorf("RoadInfo at start: t = %v, want ~0", info.T)
	}
	if l := info.Tangent.Len(); math.Abs(l-1) > 1e-9 {
		t.Errorf("RoadInfo tangent length = %v, want 1", l)
	}
}

func TestRoadInfoNearMidpoint(t *testing.T) {
	gen, _ := newTestGenerator(t, testRoadConfig(), 0)
	gen.Extend(500)

	wpts := gen.Waypoints()
	mid := wpts[len(wpts)/2].Position
	probe := mid.Add(mgl64.Vec3{3, 0, 0})

	info := gen.RoadInfo(probe)
	if info.Distance > 4 {
		t.Errorf("RoadInfo near centerline: distance = %v, want small", info.Distance)
	}
	if info.T <= 0 || info.T >= 1 {
		t.Errorf("RoadInfo near midpoint: t = %v, want interior of (0, 1)", info.T)
	}
}

func TestRoadInfoEmptyPath(t *testing.T) {
	gen, _ := newTestGenerator(t, testRoadConfig(), 0)

	info := gen.RoadInfo(mgl64.Vec3{5, 0, 5})
	if info.Tangent != defaultForward {
		t.Errorf("empty road tangent = %v, want %v", info.Tangent, defaultForward)
	}
}

func TestIsOnRoad(t *testing.T) {
	cfg := testRoadConfig()
	gen, _ := newTestGenerator(t, cfg, 0)
	gen.Extend(500)

	if !gen.IsOnRoad(mgl64.Vec3{}, 0.5) {
		t.Error("start of the road should count as on the road")
	}
	off := mgl64.Vec3{cfg.Width * 20, 0, 0}
	if gen.IsOnRoad(off, 0.5) {
		t.Errorf("point %v far beside the road should not count as on the road", off)
	}
}

func TestSegmentMeshCounts(t *testing.T) {
	cfg := testRoadConfig()
	gen, _ := newTestGenerator(t, cfg, 0)
	gen.Extend(500)

	segs := gen.Segments()
	wantSegs := (20 - 1) / cfg.WaypointsPerSegment
	if len(segs) != wantSegs {
		t.Fatalf("got %d segments for 20 waypoints, want %d", len(segs), wantSegs)
	}

	wantVerts := cfg.StationsPerSegment * 5 * render.FloatsPerVertex
	wantTris := (cfg.StationsPerSegment - 1) * 4 * 2
	for i, seg := range segs {
		if len(seg.Vertices) != wantVerts {
			t.Errorf("segment %d has %d vertex floats, want %d", i, len(seg.Vertices), wantVerts)
		}
		if seg.TriangleCount != wantTris {
			t.Errorf("segment %d has %d triangles, want %d", i, seg.TriangleCount, wantTris)
		}
		if seg.GPU == 0 {
			t.Errorf("segment %d was never uploaded", i)
		}
	}
}

func TestSegmentBoundsContainVertices(t *testing.T) {
	gen, _ := newTestGenerator(t, testRoadConfig(), 25)
	gen.Extend(500)

	for i, seg := range gen.Segments() {
		min, max := seg.Bounds.Min(), seg.Bounds.Max()
		for v := 0; v < len(seg.Vertices); v += render.FloatsPerVertex {
			for axis := 0; axis < 3; axis++ {
				p := seg.Vertices[v+axis]
				if p < min[axis]-1e-3 || p > max[axis]+1e-3 {
					t.Fatalf("segment %d vertex axis %d = %v outside bounds [%v, %v]",
						i, axis, p, min[axis], max[axis])
				}
			}
		}
	}
}

func TestRebuildReleasesOldSegmentMeshes(t *testing.T) {
	gen, backend := newTestGenerator(t, testRoadConfig(), 0)

	gen.Extend(500)
	first := len(gen.Segments())
	if backend.Releases != 0 {
		t.Fatalf("unexpected releases after first extend: %d", backend.Releases)
	}

	gen.Extend(500)
	if backend.Releases != first {
		t.Errorf("got %d releases after rebuild, want %d (every old segment)", backend.Releases, first)
	}
	if live := len(backend.Live); live != len(gen.Segments()) {
		t.Errorf("backend tracks %d live meshes, want %d", live, len(gen.Segments()))
	}
}

func TestUpdateExtendsAheadOfAnchor(t *testing.T) {
	cfg := testRoadConfig()
	gen, _ := newTestGenerator(t, cfg, 0)

	gen.Update(mgl32.Vec3{})
	if len(gen.Waypoints()) == 0 {
		t.Fatal("update on an empty path should seed the road")
	}

	// Chase the end of the path; every update within half the look-ahead
	// of the last waypoint must grow it further.
	for i := 0; i < 5; i++ {
		before := len(gen.Waypoints())
		last := gen.Waypoints()[before-1].Position
		anchor := mgl32.Vec3{float32(last.X()), 0, float32(last.Z())}
		gen.Update(anchor)
		if len(gen.Waypoints()) <= before {
			t.Fatalf("update %d near path end did not extend the road", i)
		}
	}
}

func TestUpdateCullsFarSegments(t *testing.T) {
	cfg := testRoadConfig()
	gen, backend := newTestGenerator(t, cfg, 0)
	gen.Extend(500)
	built := len(gen.Segments())

	// An anchor far behind the whole path is nowhere near the last
	// waypoint, so nothing extends and everything culls.
	gen.Update(mgl32.Vec3{0, 0, -1e6})

	if len(gen.Segments()) != 0 {
		t.Errorf("%d segments survived an anchor far behind the road, want 0", len(gen.Segments()))
	}
	if backend.Releases != built {
		t.Errorf("got %d releases after culling, want %d", backend.Releases, built)
	}
}

func TestUpdateVisibilityByDistance(t *testing.T) {
	cfg := testRoadConfig()
	cfg.MaxWaypoints = 0
	gen, _ := newTestGenerator(t, cfg, 0)
	gen.Extend(2000)

	start := gen.Waypoints()[0].Position
	gen.Update(mgl32.Vec3{float32(start.X()), 0, float32(start.Z())})

	sawVisible, sawHidden := false, false
	for _, seg := range gen.Segments() {
		if seg.Visible {
			sawVisible = true
		} else {
			sawHidden = true
		}
	}
	if !sawVisible {
		t.Error("no segment visible near the start of a long road")
	}
	if !sawHidden {
		t.Error("no segment hidden beyond the look-ahead on a long road")
	}
}

func TestMaxWaypointsCap(t *testing.T) {
	cfg := testRoadConfig()
	cfg.MaxWaypoints = 30
	gen, _ := newTestGenerator(t, cfg, 0)

	gen.Extend(500)
	gen.Extend(500)

	if got := len(gen.Waypoints()); got != 30 {
		t.Fatalf("got %d waypoints with a cap of 30, want 30", got)
	}
}

func TestUploadRetryAfterFailure(t *testing.T) {
	gen, backend := newTestGenerator(t, testRoadConfig(), 0)
	backend.FailNext = 1

	gen.Extend(500)
	pending := 0
	for _, seg := range gen.Segments() {
		if seg.GPU == 0 {
			pending++
		}
	}
	if pending != 1 {
		t.Fatalf("got %d pending segments after one failed upload, want 1", pending)
	}

	gen.Update(mgl32.Vec3{})
	for i, seg := range gen.Segments() {
		if seg.GPU == 0 {
			t.Errorf("segment %d still not uploaded after retry", i)
		}
	}
}

func TestConfigureRebuildsOnCrossSectionChange(t *testing.T) {
	cfg := testRoadConfig()
	gen, backend := newTestGenerator(t, cfg, 0)
	gen.Extend(500)
	built := len(gen.Segments())

	cfg.Width = 20
	if err := gen.Configure(cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if backend.Releases != built {
		t.Errorf("got %d releases after reconfigure, want %d", backend.Releases, built)
	}

	bad := cfg
	bad.Width = -1
	if err := gen.Configure(bad); err == nil {
		t.Fatal("expected error for negative width")
	}
}

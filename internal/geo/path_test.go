package geo

import (
	"math"
	"testing"
)

func TestLinearPathHitsWaypointsExactly(t *testing.T) {
	p := NewPath(InterpLinear)
	waypoints := []Coord{
		{Pos: Vec3{0, 0, 0}, T: 0},
		{Pos: Vec3{10, -2, 4}, T: 1},
		{Pos: Vec3{20, 6, 8}, T: 3},
	}
	// Insert out of order to exercise the sorted insert.
	p.AddCoord(waypoints[2])
	p.AddCoord(waypoints[0])
	p.AddCoord(waypoints[1])
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	for _, w := range waypoints {
		got, err := p.Position(w.T)
		if err != nil {
			t.Fatalf("position at %v: %v", w.T, err)
		}
		if got != w.Pos {
			t.Errorf("position at t=%v = %+v, want %+v", w.T, got, w.Pos)
		}
	}

	// Midpoint between the first two waypoints is the exact linear blend.
	got, err := p.Position(0.5)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	want := Vec3{5, -1, 2}
	if math.Abs(got.X-want.X) > 1e-15 || math.Abs(got.Y-want.Y) > 1e-15 || math.Abs(got.Z-want.Z) > 1e-15 {
		t.Errorf("midpoint = %+v, want %+v", got, want)
	}
}

func TestLinearPathClampsAtEndpoints(t *testing.T) {
	p := NewPath(InterpLinear)
	p.AddCoord(Coord{Pos: Vec3{1, 2, 3}, T: 1})
	p.AddCoord(Coord{Pos: Vec3{4, 5, 6}, T: 2})
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	before, _ := p.Position(-100)
	if before != (Vec3{1, 2, 3}) {
		t.Errorf("before first waypoint = %+v, want first waypoint", before)
	}
	after, _ := p.Position(100)
	if after != (Vec3{4, 5, 6}) {
		t.Errorf("after last waypoint = %+v, want last waypoint", after)
	}
}

func TestStaticPathIgnoresTime(t *testing.T) {
	p := NewPath(InterpStatic)
	p.AddCoord(Coord{Pos: Vec3{7, 8, 9}, T: 5})
	p.AddCoord(Coord{Pos: Vec3{1, 1, 1}, T: 10})
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	for _, tm := range []float64{-1, 0, 5, 100} {
		got, _ := p.Position(tm)
		if got != (Vec3{7, 8, 9}) {
			t.Errorf("static position at %v = %+v, want first waypoint", tm, got)
		}
	}
}

func TestCubicPathInterpolatesWaypoints(t *testing.T) {
	p := NewPath(InterpCubic)
	for i := 0; i <= 4; i++ {
		x := float64(i)
		p.AddCoord(Coord{Pos: Vec3{x * x, math.Sin(x), -x}, T: x})
	}
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	for i := 0; i <= 4; i++ {
		x := float64(i)
		got, err := p.Position(x)
		if err != nil {
			t.Fatalf("position: %v", err)
		}
		want := Vec3{x * x, math.Sin(x), -x}
		if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 || math.Abs(got.Z-want.Z) > 1e-12 {
			t.Errorf("cubic at t=%v = %+v, want %+v", x, got, want)
		}
	}
}

func TestCubicSecondDerivativeVanishesAtEndpoints(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	ys := []float64{0, 2, -1, 4}
	dd := naturalSplineDD(times, ys)
	if dd[0] != 0 || dd[len(dd)-1] != 0 {
		t.Errorf("endpoint second derivatives = %v, %v; want both zero", dd[0], dd[len(dd)-1])
	}
}

func TestPositionBeforeFinalizeFails(t *testing.T) {
	p := NewPath(InterpLinear)
	p.AddCoord(Coord{Pos: Vec3{1, 0, 0}, T: 0})
	if _, err := p.Position(0); err == nil {
		t.Fatal("expected error sampling non-finalized path")
	}
}

func TestConstantRateRotation(t *testing.T) {
	p := NewRotationPath(InterpStatic)
	p.SetConstantRate(
		RotationCoord{Azimuth: 0.5, Elevation: 0.1},
		RotationCoord{Azimuth: math.Pi, Elevation: 0.2},
	)

	got, err := p.Rotation(1)
	if err != nil {
		t.Fatalf("rotation: %v", err)
	}
	wantAz := math.Mod(0.5+math.Pi, 2*math.Pi)
	if math.Abs(got.Azimuth-wantAz) > 1e-12 {
		t.Errorf("azimuth = %v, want %v", got.Azimuth, wantAz)
	}
	if math.Abs(got.Elevation-0.3) > 1e-12 {
		t.Errorf("elevation = %v, want 0.3", got.Elevation)
	}

	// Azimuth wraps modulo 2 pi; elevation accumulates unwrapped.
	got, _ = p.Rotation(5)
	if got.Azimuth < 0 || got.Azimuth >= 2*math.Pi {
		t.Errorf("azimuth %v not wrapped into [0, 2pi)", got.Azimuth)
	}
	if math.Abs(got.Elevation-1.1) > 1e-12 {
		t.Errorf("elevation = %v, want 1.1 (unwrapped)", got.Elevation)
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	vectors := []Vec3{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {3, -4, 12}, {-2, -2, 1},
	}
	for _, v := range vectors {
		back := ToVec(ToSVec(v))
		if math.Abs(back.X-v.X) > 1e-12 || math.Abs(back.Y-v.Y) > 1e-12 || math.Abs(back.Z-v.Z) > 1e-12 {
			t.Errorf("round trip %+v -> %+v", v, back)
		}
	}
}

func TestRotationZMatrix(t *testing.T) {
	m := RotationZ(math.Pi / 2)
	got := m.Apply(Vec3{1, 0, 0})
	if math.Abs(got.X) > 1e-12 || math.Abs(got.Y-1) > 1e-12 || math.Abs(got.Z) > 1e-12 {
		t.Errorf("rotating x-hat by 90 degrees = %+v, want y-hat", got)
	}
}

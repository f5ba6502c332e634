package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNotFinalized is returned when a path is sampled before Finalize.
var ErrNotFinalized = errors.New("path sampled before finalize")

// InterpType selects the interpolation mode of a path.
type InterpType int

const (
	// InterpStatic holds the first waypoint for all time.
	InterpStatic InterpType = iota
	// InterpLinear blends linearly between waypoints and clamps at the ends.
	InterpLinear
	// InterpCubic uses a natural cubic spline through the waypoints.
	InterpCubic
	// InterpConstantRate applies a fixed angular rate (rotation paths only).
	InterpConstantRate
)

// Coord is a position waypoint on a motion path.
type Coord struct {
	Pos Vec3
	T   float64
}

// RotationCoord is an orientation waypoint on a rotation path.
type RotationCoord struct {
	Azimuth   float64
	Elevation float64
	T         float64
}

// Path is a time-interpolated motion track. Waypoints are kept sorted by
// time; Finalize computes the spline state and freezes the path. Sampling
// clamps to the first and last waypoints outside the covered interval.
type Path struct {
	interp    InterpType
	coords    []Coord
	dd        []Vec3
	finalized bool
}

// NewPath creates a motion path with the given interpolation mode.
func NewPath(interp InterpType) *Path {
	return &Path{interp: interp}
}

// AddCoord inserts a waypoint, preserving time order. Adding a waypoint
// un-finalizes the path.
func (p *Path) AddCoord(c Coord) {
	i := sort.Search(len(p.coords), func(i int) bool { return p.coords[i].T >= c.T })
	p.coords = append(p.coords, Coord{})
	copy(p.coords[i+1:], p.coords[i:])
	p.coords[i] = c
	p.finalized = false
}

// Interp returns the interpolation mode of the path.
func (p *Path) Interp() InterpType { return p.interp }

// Coords returns the waypoints in time order.
func (p *Path) Coords() []Coord { return p.coords }

// Finalize computes derived state and freezes the path.
func (p *Path) Finalize() error {
	if len(p.coords) == 0 {
		return fmt.Errorf("finalize path: no waypoints")
	}
	if p.interp == InterpCubic {
		times := make([]float64, len(p.coords))
		xs := make([]float64, len(p.coords))
		ys := make([]float64, len(p.coords))
		zs := make([]float64, len(p.coords))
		for i, c := range p.coords {
			times[i], xs[i], ys[i], zs[i] = c.T, c.Pos.X, c.Pos.Y, c.Pos.Z
		}
		ddx := naturalSplineDD(times, xs)
		ddy := naturalSplineDD(times, ys)
		ddz := naturalSplineDD(times, zs)
		p.dd = make([]Vec3, len(p.coords))
		for i := range p.dd {
			p.dd[i] = Vec3{ddx[i], ddy[i], ddz[i]}
		}
	}
	p.finalized = true
	return nil
}

// Position returns the interpolated position at time t.
func (p *Path) Position(t float64) (Vec3, error) {
	if !p.finalized {
		return Vec3{}, ErrNotFinalized
	}
	switch p.interp {
	case InterpStatic:
		return p.coords[0].Pos, nil
	case InterpLinear:
		lo, hi, u, edge := bracket(t, len(p.coords), func(i int) float64 { return p.coords[i].T })
		if edge {
			return p.coords[lo].Pos, nil
		}
		a := p.coords[lo].Pos.Scale(1 - u)
		b := p.coords[hi].Pos.Scale(u)
		return a.Add(b), nil
	case InterpCubic:
		lo, hi, _, edge := bracket(t, len(p.coords), func(i int) float64 { return p.coords[i].T })
		if edge {
			return p.coords[lo].Pos, nil
		}
		a, b, c, d := splineBlend(t, p.coords[lo].T, p.coords[hi].T)
		v := p.coords[lo].Pos.Scale(a)
		v = v.Add(p.coords[hi].Pos.Scale(b))
		v = v.Add(p.dd[lo].Scale(c))
		v = v.Add(p.dd[hi].Scale(d))
		return v, nil
	}
	return Vec3{}, fmt.Errorf("position: unsupported interpolation mode %d", p.interp)
}

// RotationPath is a time-interpolated orientation track.
type RotationPath struct {
	interp    InterpType
	coords    []RotationCoord
	ddAz      []float64
	ddEl      []float64
	start     RotationCoord
	rate      RotationCoord
	finalized bool
}

// NewRotationPath creates a rotation path with the given interpolation mode.
func NewRotationPath(interp InterpType) *RotationPath {
	return &RotationPath{interp: interp}
}

// AddCoord inserts an orientation waypoint, preserving time order.
func (p *RotationPath) AddCoord(c RotationCoord) {
	i := sort.Search(len(p.coords), func(i int) bool { return p.coords[i].T >= c.T })
	p.coords = append(p.coords, RotationCoord{})
	copy(p.coords[i+1:], p.coords[i:])
	p.coords[i] = c
	p.finalized = false
}

// SetConstantRate switches the path to constant-rate rotation starting at
// start and advancing at rate (radians per second). The path is finalized
// immediately.
func (p *RotationPath) SetConstantRate(start, rate RotationCoord) {
	p.start = start
	p.rate = rate
	p.interp = InterpConstantRate
	p.finalized = true
}

// Finalize computes derived state and freezes the path.
func (p *RotationPath) Finalize() error {
	if p.interp == InterpConstantRate {
		p.finalized = true
		return nil
	}
	if len(p.coords) == 0 {
		return fmt.Errorf("finalize rotation path: no waypoints")
	}
	if p.interp == InterpCubic {
		times := make([]float64, len(p.coords))
		azs := make([]float64, len(p.coords))
		els := make([]float64, len(p.coords))
		for i, c := range p.coords {
			times[i], azs[i], els[i] = c.T, c.Azimuth, c.Elevation
		}
		p.ddAz = naturalSplineDD(times, azs)
		p.ddEl = naturalSplineDD(times, els)
	}
	p.finalized = true
	return nil
}

// Rotation returns the interpolated orientation at time t as a unit-length
// spherical vector.
func (p *RotationPath) Rotation(t float64) (SVec3, error) {
	if !p.finalized {
		return SVec3{}, ErrNotFinalized
	}
	switch p.interp {
	case InterpStatic:
		return SVec3{1, p.coords[0].Azimuth, p.coords[0].Elevation}, nil
	case InterpLinear:
		lo, hi, u, edge := bracket(t, len(p.coords), func(i int) float64 { return p.coords[i].T })
		if edge {
			return SVec3{1, p.coords[lo].Azimuth, p.coords[lo].Elevation}, nil
		}
		az := p.coords[lo].Azimuth*(1-u) + p.coords[hi].Azimuth*u
		el := p.coords[lo].Elevation*(1-u) + p.coords[hi].Elevation*u
		return SVec3{1, az, el}, nil
	case InterpCubic:
		lo, hi, _, edge := bracket(t, len(p.coords), func(i int) float64 { return p.coords[i].T })
		if edge {
			return SVec3{1, p.coords[lo].Azimuth, p.coords[lo].Elevation}, nil
		}
		a, b, c, d := splineBlend(t, p.coords[lo].T, p.coords[hi].T)
		az := a*p.coords[lo].Azimuth + b*p.coords[hi].Azimuth + c*p.ddAz[lo] + d*p.ddAz[hi]
		el := a*p.coords[lo].Elevation + b*p.coords[hi].Elevation + c*p.ddEl[lo] + d*p.ddEl[hi]
		return SVec3{1, az, el}, nil
	case InterpConstantRate:
		az := wrapTwoPi(p.start.Azimuth + p.rate.Azimuth*t)
		el := p.start.Elevation + p.rate.Elevation*t
		return SVec3{1, az, el}, nil
	}
	return SVec3{}, fmt.Errorf("rotation: unsupported interpolation mode %d", p.interp)
}

// bracket locates t within the sorted waypoint times. It returns the indices
// of the bracketing waypoints and the blend weight of the upper one. When t
// falls at or beyond either end, edge is true and lo holds the clamped index.
func bracket(t float64, n int, timeAt func(int) float64) (lo, hi int, u float64, edge bool) {
	i := sort.Search(n, func(i int) bool { return timeAt(i) > t })
	if i == 0 {
		return 0, 0, 0, true
	}
	if i == n {
		return n - 1, n - 1, 0, true
	}
	lo, hi = i-1, i
	u = (t - timeAt(lo)) / (timeAt(hi) - timeAt(lo))
	return lo, hi, u, false
}

// splineBlend computes the natural-spline A/B/C/D blend weights for t in
// [tLo, tHi].
func splineBlend(t, tLo, tHi float64) (a, b, c, d float64) {
	w := tHi - tLo
	a = (tHi - t) / w
	b = 1 - a
	ws := w * w / 6.0
	c = (a*a*a - a) * ws
	d = (b*b*b - b) * ws
	return a, b, c, d
}

// naturalSplineDD solves the tridiagonal system for the second derivatives
// of a natural cubic spline (zero curvature at both endpoints). This is the
// forward/backward pass from Numerical Recipes.
func naturalSplineDD(xs, ys []float64) []float64 {
	n := len(xs)
	dd := make([]float64, n)
	if n < 3 {
		return dd
	}
	tmp := make([]float64, n)
	for i := 1; i < n-1; i++ {
		sig := (xs[i] - xs[i-1]) / (xs[i+1] - xs[i-1])
		p := sig*dd[i-1] + 2.0
		dd[i] = (sig - 1.0) / p
		tmp[i] = (ys[i+1]-ys[i])/(xs[i+1]-xs[i]) - (ys[i]-ys[i-1])/(xs[i]-xs[i-1])
		tmp[i] = (6.0*tmp[i]/(xs[i+1]-xs[i-1]) - sig*tmp[i-1]) / p
	}
	for i := n - 2; i > 0; i-- {
		dd[i] = dd[i]*dd[i+1] + tmp[i]
	}
	return dd
}

func wrapTwoPi(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return x
}

package dsp

import (
	"fmt"
	"math"
	"sort"
)

// InterpSet is a sorted table of (x, y) samples with linear interpolation
// between them. It backs tabulated antenna gain and RCS patterns.
type InterpSet struct {
	xs []float64
	ys []float64
}

// NewInterpSet returns an empty interpolation set.
func NewInterpSet() *InterpSet { return &InterpSet{} }

// Insert adds a single sample, preserving x order. A duplicate x replaces
// the previous sample.
func (s *InterpSet) Insert(x, y float64) {
	i := sort.SearchFloat64s(s.xs, x)
	if i < len(s.xs) && s.xs[i] == x {
		s.ys[i] = y
		return
	}
	s.xs = append(s.xs, 0)
	s.ys = append(s.ys, 0)
	copy(s.xs[i+1:], s.xs[i:])
	copy(s.ys[i+1:], s.ys[i:])
	s.xs[i], s.ys[i] = x, y
}

// Load adds a batch of samples.
func (s *InterpSet) Load(xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("interp set: mismatched sample vectors (%d vs %d)", len(xs), len(ys))
	}
	for i := range xs {
		s.Insert(xs[i], ys[i])
	}
	return nil
}

// Len returns the number of samples in the set.
func (s *InterpSet) Len() int { return len(s.xs) }

// Value returns the linearly interpolated value at x, clamping to the first
// and last samples outside the covered range.
func (s *InterpSet) Value(x float64) (float64, error) {
	if len(s.xs) == 0 {
		return 0, fmt.Errorf("interp set: value lookup on empty set")
	}
	i := sort.SearchFloat64s(s.xs, x)
	if i == 0 {
		return s.ys[0], nil
	}
	if i == len(s.xs) {
		return s.ys[len(s.ys)-1], nil
	}
	if s.xs[i] == x {
		return s.ys[i], nil
	}
	x1, x2 := s.xs[i-1], s.xs[i]
	y1, y2 := s.ys[i-1], s.ys[i]
	return y2*(x-x1)/(x2-x1) + y1*(x2-x)/(x2-x1), nil
}

// Max returns the largest absolute sample value in the set.
func (s *InterpSet) Max() float64 {
	var max float64
	for _, y := range s.ys {
		if math.Abs(y) > max {
			max = math.Abs(y)
		}
	}
	return max
}

// Divide scales every sample by 1/a.
func (s *InterpSet) Divide(a float64) {
	for i := range s.ys {
		s.ys[i] /= a
	}
}

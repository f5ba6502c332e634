// Package testutil provides shared scenario-construction helpers for engine
// tests.
package testutil

import (
	"testing"

	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/world"
)

// Params returns simulation parameters over [0, end] at the given output
// rate and master seed 42, with the other fields at their defaults.
func Params(end, rate float64) world.Parameters {
	p := world.DefaultParameters()
	p.EndTime = end
	p.Rate = rate
	p.RandomSeed = 42
	return p
}

// StaticPlatform builds a finalized stationary platform.
func StaticPlatform(t *testing.T, name string, pos geo.Vec3) *radar.Platform {
	t.Helper()
	motion := geo.NewPath(geo.InterpStatic)
	motion.AddCoord(geo.Coord{Pos: pos})
	if err := motion.Finalize(); err != nil {
		t.Fatalf("finalize motion for %s: %v", name, err)
	}
	rotation := geo.NewRotationPath(geo.InterpStatic)
	rotation.AddCoord(geo.RotationCoord{})
	if err := rotation.Finalize(); err != nil {
		t.Fatalf("finalize rotation for %s: %v", name, err)
	}
	p, err := radar.NewPlatform(name, motion, rotation)
	if err != nil {
		t.Fatalf("new platform %s: %v", name, err)
	}
	return p
}

// LinearPlatform builds a finalized platform moving linearly from one
// waypoint to another.
func LinearPlatform(t *testing.T, name string, from, to geo.Vec3, t0, t1 float64) *radar.Platform {
	t.Helper()
	motion := geo.NewPath(geo.InterpLinear)
	motion.AddCoord(geo.Coord{Pos: from, T: t0})
	motion.AddCoord(geo.Coord{Pos: to, T: t1})
	if err := motion.Finalize(); err != nil {
		t.Fatalf("finalize motion for %s: %v", name, err)
	}
	rotation := geo.NewRotationPath(geo.InterpStatic)
	rotation.AddCoord(geo.RotationCoord{})
	if err := rotation.Finalize(); err != nil {
		t.Fatalf("finalize rotation for %s: %v", name, err)
	}
	p, err := radar.NewPlatform(name, motion, rotation)
	if err != nil {
		t.Fatalf("new platform %s: %v", name, err)
	}
	return p
}

// BoxcarPulse builds a pulsed waveform of n unit samples at the given rate.
func BoxcarPulse(t *testing.T, name string, n int, rate, power, carrier float64, oversample int) *signal.RadarSignal {
	t.Helper()
	data := make([]complex128, n)
	for i := range data {
		data[i] = 1
	}
	sig := signal.NewSignal(data, rate, oversample)
	pulse, err := signal.NewPulse(name, power, carrier, float64(n)/rate, sig)
	if err != nil {
		t.Fatalf("new pulse %s: %v", name, err)
	}
	return pulse
}

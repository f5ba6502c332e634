package radar

import (
	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/simerr"
)

// Platform carries radar entities along a motion path with an orientation
// track. A platform's lifetime spans the simulation; any number of radars
// and targets may attach to it.
type Platform struct {
	name     string
	motion   *geo.Path
	rotation *geo.RotationPath
}

// NewPlatform creates a platform over the given finalized paths.
func NewPlatform(name string, motion *geo.Path, rotation *geo.RotationPath) (*Platform, error) {
	if motion == nil || rotation == nil {
		return nil, simerr.Config("platform %q: motion and rotation paths are required", name)
	}
	return &Platform{name: name, motion: motion, rotation: rotation}, nil
}

// Name returns the platform name.
func (p *Platform) Name() string { return p.name }

// Motion returns the platform's motion path.
func (p *Platform) Motion() *geo.Path { return p.motion }

// RotationPath returns the platform's rotation path.
func (p *Platform) RotationPath() *geo.RotationPath { return p.rotation }

// Position returns the platform position at time t.
func (p *Platform) Position(t float64) (geo.Vec3, error) {
	v, err := p.motion.Position(t)
	if err != nil {
		return v, simerr.Internal("platform %q: %v", p.name, err)
	}
	return v, nil
}

// Rotation returns the platform orientation at time t.
func (p *Platform) Rotation(t float64) (geo.SVec3, error) {
	r, err := p.rotation.Rotation(t)
	if err != nil {
		return r, simerr.Internal("platform %q: %v", p.name, err)
	}
	return r, nil
}

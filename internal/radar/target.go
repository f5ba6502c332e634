package radar

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/echosim/internal/dsp"
	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/noise"
	"github.com/banshee-data/echosim/internal/simerr"
)

// RCSKind selects the target's cross-section model.
type RCSKind int

const (
	// RCSIsotropic is a constant cross-section independent of aspect.
	RCSIsotropic RCSKind = iota
	// RCSTable interpolates a measured angle table.
	RCSTable
)

// FluctuationKind selects the target's RCS fluctuation model.
type FluctuationKind int

const (
	// FluctConstant applies no fluctuation (factor of one).
	FluctConstant FluctuationKind = iota
	// FluctChiSquare draws a Gamma-distributed factor with unit mean,
	// the Swerling family of fluctuation models.
	FluctChiSquare
)

// Target reflects transmitted energy back to receivers. Each target owns a
// distinct random stream for its fluctuation model; RCS sampling is
// serialized through an internal mutex because both the driver and the
// finalizers query it.
type Target struct {
	name     string
	platform *Platform

	rcsKind RCSKind
	rcs     float64
	azTable *dsp.InterpSet
	elTable *dsp.InterpSet

	fluctKind FluctuationKind
	mu        sync.Mutex
	gamma     distuv.Gamma
}

// NewIsoTarget creates a target with a constant cross-section in square
// meters.
func NewIsoTarget(platform *Platform, name string, rcs float64, seed uint64) (*Target, error) {
	if platform == nil {
		return nil, simerr.Config("target %q: platform is required", name)
	}
	if rcs < 0 {
		return nil, simerr.Config("target %q: negative RCS %v", name, rcs)
	}
	return &Target{
		name:     name,
		platform: platform,
		rcsKind:  RCSIsotropic,
		rcs:      rcs,
		gamma:    distuv.Gamma{Alpha: 1, Beta: 1, Src: newTargetSource(seed)},
	}, nil
}

// NewTableTarget creates a target whose cross-section is interpolated from
// azimuth and elevation angle tables, as loaded by an external pattern
// loader.
func NewTableTarget(platform *Platform, name string, azTable, elTable *dsp.InterpSet, seed uint64) (*Target, error) {
	if platform == nil {
		return nil, simerr.Config("target %q: platform is required", name)
	}
	if azTable == nil || azTable.Len() == 0 || elTable == nil || elTable.Len() == 0 {
		return nil, simerr.Config("target %q: empty RCS tables", name)
	}
	return &Target{
		name:     name,
		platform: platform,
		rcsKind:  RCSTable,
		azTable:  azTable,
		elTable:  elTable,
		gamma:    distuv.Gamma{Alpha: 1, Beta: 1, Src: newTargetSource(seed)},
	}, nil
}

func newTargetSource(seed uint64) rand.Source {
	return noise.NewSource(noise.DeriveSeed(seed, 3))
}

// SetChiSquareFluctuation enables Swerling-style chi-square fluctuation with
// shape parameter k. The Gamma(k, k) draw has unit mean, so the configured
// RCS stays the ensemble average.
func (t *Target) SetChiSquareFluctuation(k float64) error {
	if k <= 0 {
		return simerr.Config("target %q: chi-square shape %v must be positive", t.name, k)
	}
	t.fluctKind = FluctChiSquare
	t.gamma.Alpha = k
	t.gamma.Beta = k
	return nil
}

// Name returns the target name.
func (t *Target) Name() string { return t.name }

// Platform returns the carrying platform.
func (t *Target) Platform() *Platform { return t.platform }

// Position returns the target position at time t.
func (t *Target) Position(tm float64) (geo.Vec3, error) { return t.platform.Position(tm) }

// RCS returns the radar cross-section for energy arriving along in and
// leaving along out, including a fluctuation draw when enabled.
func (t *Target) RCS(in, out geo.SVec3) (float64, error) {
	var base float64
	switch t.rcsKind {
	case RCSIsotropic:
		base = t.rcs
	case RCSTable:
		// Half-angle approximation over the bistatic geometry.
		azv, err := t.azTable.Value((in.Azimuth + out.Azimuth) / 2.0)
		if err != nil {
			return 0, simerr.Internal("target %q: %v", t.name, err)
		}
		elv, err := t.elTable.Value((in.Elevation + out.Elevation) / 2.0)
		if err != nil {
			return 0, simerr.Internal("target %q: %v", t.name, err)
		}
		base = math.Sqrt(azv * elv)
	}
	if t.fluctKind == FluctChiSquare {
		t.mu.Lock()
		base *= t.gamma.Rand()
		t.mu.Unlock()
	}
	return base, nil
}

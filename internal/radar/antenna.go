// Package radar defines the simulated entities: platforms, transmitters,
// receivers, targets, and their antenna and RCS models.
package radar

import (
	"math"

	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/simerr"
)

// AntennaKind selects the gain model of an antenna.
type AntennaKind int

const (
	// AntennaIsotropic radiates equally in all directions.
	AntennaIsotropic AntennaKind = iota
	// AntennaSinc is the alpha*sinc(beta*theta)^gamma pattern.
	AntennaSinc
	// AntennaGaussian is a Gaussian beam with separate az/el scales.
	AntennaGaussian
	// AntennaSquareHorn models a square aperture horn of dimension D.
	AntennaSquareHorn
	// AntennaParabolic models a parabolic reflector of diameter D.
	AntennaParabolic
	// AntennaPattern interpolates a preloaded 2D gain table.
	AntennaPattern
)

// Pattern is a 2D gain table over azimuth and elevation, bilinearly
// interpolated. Tables are loaded by external pattern loaders and handed in
// ready to sample.
type Pattern struct {
	gains [][]float64 // [azimuth bin][elevation bin]
}

// NewPattern wraps a gain table. Rows index azimuth over [-pi, pi], columns
// elevation over [-pi/2, pi/2].
func NewPattern(gains [][]float64) (*Pattern, error) {
	if len(gains) < 2 || len(gains[0]) < 2 {
		return nil, simerr.Config("antenna pattern: table must be at least 2x2")
	}
	width := len(gains[0])
	for _, row := range gains {
		if len(row) != width {
			return nil, simerr.Config("antenna pattern: ragged table")
		}
	}
	return &Pattern{gains: gains}, nil
}

// Gain samples the table at the given azimuth and elevation.
func (p *Pattern) Gain(az, el float64) float64 {
	naz := len(p.gains)
	nel := len(p.gains[0])
	x := (az + math.Pi) / (2 * math.Pi) * float64(naz-1)
	y := (el + math.Pi/2) / math.Pi * float64(nel-1)
	x = math.Min(math.Max(x, 0), float64(naz-1))
	y = math.Min(math.Max(y, 0), float64(nel-1))

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= naz {
		x1 = naz - 1
	}
	if y1 >= nel {
		y1 = nel - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)
	top := p.gains[x0][y0]*(1-fx) + p.gains[x1][y0]*fx
	bot := p.gains[x0][y1]*(1-fx) + p.gains[x1][y1]*fx
	return top*(1-fy) + bot*fy
}

// Antenna is a named gain model. The kind tag selects which parameters are
// meaningful; Gain is total over all kinds.
type Antenna struct {
	name       string
	kind       AntennaKind
	efficiency float64
	noiseTemp  float64

	// Sinc parameters.
	alpha, beta, gamma float64
	// Gaussian parameters.
	azScale, elScale float64
	// Aperture dimension (square horn) or diameter (parabolic).
	dimension float64
	// Pattern table.
	pattern *Pattern
}

// NewIsotropicAntenna creates an isotropic radiator.
func NewIsotropicAntenna(name string) *Antenna {
	return &Antenna{name: name, kind: AntennaIsotropic, efficiency: 1}
}

// NewSincAntenna creates an alpha*sinc(beta*theta)^gamma pattern antenna.
func NewSincAntenna(name string, alpha, beta, gamma float64) *Antenna {
	return &Antenna{name: name, kind: AntennaSinc, efficiency: 1, alpha: alpha, beta: beta, gamma: gamma}
}

// NewGaussianAntenna creates a Gaussian beam antenna.
func NewGaussianAntenna(name string, azScale, elScale float64) *Antenna {
	return &Antenna{name: name, kind: AntennaGaussian, efficiency: 1, azScale: azScale, elScale: elScale}
}

// NewSquareHornAntenna creates a square horn of the given aperture dimension
// in meters.
func NewSquareHornAntenna(name string, dimension float64) *Antenna {
	return &Antenna{name: name, kind: AntennaSquareHorn, efficiency: 1, dimension: dimension}
}

// NewParabolicAntenna creates a parabolic reflector of the given diameter in
// meters.
func NewParabolicAntenna(name string, diameter float64) *Antenna {
	return &Antenna{name: name, kind: AntennaParabolic, efficiency: 1, dimension: diameter}
}

// NewPatternAntenna creates an antenna sampling a preloaded gain table.
func NewPatternAntenna(name string, pattern *Pattern) *Antenna {
	return &Antenna{name: name, kind: AntennaPattern, efficiency: 1, pattern: pattern}
}

// Name returns the antenna's registry name.
func (a *Antenna) Name() string { return a.name }

// SetEfficiency sets the efficiency factor in (0, 1] that scales the gain.
func (a *Antenna) SetEfficiency(eff float64) error {
	if eff <= 0 || eff > 1 {
		return simerr.Config("antenna %q: efficiency %v outside (0, 1]", a.name, eff)
	}
	a.efficiency = eff
	return nil
}

// SetNoiseTemperature sets the antenna noise temperature in kelvin.
func (a *Antenna) SetNoiseTemperature(temp float64) error {
	if temp < 0 {
		return simerr.Config("antenna %q: negative noise temperature %v", a.name, temp)
	}
	a.noiseTemp = temp
	return nil
}

// NoiseTemperature returns the antenna noise temperature looking in the
// given direction.
func (a *Antenna) NoiseTemperature(_ geo.SVec3) float64 { return a.noiseTemp }

// angleOff returns the angle in radians between the look direction and the
// boresight.
func angleOff(angle, boresight geo.SVec3) float64 {
	v := geo.ToVec(angle.Unit())
	ref := geo.ToVec(boresight.Unit())
	d := v.Dot(ref)
	d = math.Min(math.Max(d, -1), 1)
	return math.Acos(d)
}

// unnormalized sin(x)/x, continuous at the origin.
func sincUnnorm(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

// Gain evaluates the antenna pattern for a signal arriving (or leaving)
// along angle while the antenna boresight points along boresight.
func (a *Antenna) Gain(angle, boresight geo.SVec3, wavelength float64) float64 {
	switch a.kind {
	case AntennaIsotropic:
		return a.efficiency
	case AntennaSinc:
		theta := angleOff(angle, boresight)
		return a.alpha * math.Pow(sincUnnorm(a.beta*theta), a.gamma) * a.efficiency
	case AntennaGaussian:
		dAz := angle.Azimuth - boresight.Azimuth
		dEl := angle.Elevation - boresight.Elevation
		return math.Exp(-dAz*dAz*a.azScale-dEl*dEl*a.elScale) * a.efficiency
	case AntennaSquareHorn:
		ge := 4 * math.Pi * a.dimension * a.dimension / (wavelength * wavelength)
		x := math.Pi * a.dimension * math.Sin(angleOff(angle, boresight)) / wavelength
		s := sincUnnorm(x)
		return ge * s * s * a.efficiency
	case AntennaParabolic:
		ge := math.Pow(math.Pi*a.dimension/wavelength, 2)
		x := math.Pi * a.dimension * math.Sin(angleOff(angle, boresight)) / wavelength
		j := j1c(x)
		return ge * 4 * j * j * a.efficiency
	case AntennaPattern:
		dAz := angle.Azimuth - boresight.Azimuth
		dEl := angle.Elevation - boresight.Elevation
		return a.pattern.Gain(dAz, dEl) * a.efficiency
	}
	return 0
}

// j1c is the first-order Bessel function of the first kind divided by its
// argument, continuous at the origin.
func j1c(x float64) float64 {
	if x == 0 {
		return 0.5
	}
	return math.J1(x) / x
}

// Package world owns the simulated scenario: the asset registries, the
// entity collections, the shared simulation parameters, and the event queue
// that drives the engine.
package world

// BoltzmannK is the Boltzmann constant in joules per kelvin.
const BoltzmannK = 1.3806503e-23

// Parameters is the process-wide simulation configuration. It is populated
// by the scenario loader before the run and treated as immutable while the
// simulation executes.
type Parameters struct {
	// StartTime and EndTime bound the simulated interval in seconds.
	StartTime float64
	EndTime   float64
	// C is the propagation speed in the medium.
	C float64
	// Rate is the output sampling rate in Hz.
	Rate float64
	// SimSamplingRate is the density of channel interpolation points for
	// pulsed responses, in points per second.
	SimSamplingRate float64
	// OversampleRatio raises the internal render rate above Rate; the
	// finalizer decimates back before emission.
	OversampleRatio int
	// ADCBits selects quantizer resolution; zero normalizes to unit peak
	// instead.
	ADCBits int
	// RandomSeed seeds the master seeder for bit-reproducible runs.
	RandomSeed uint64
	// ExportCSV and ExportBinary are passed through to the output stage.
	ExportCSV    bool
	ExportBinary bool
	// CoordFrame and Origin tag the scenario's geodetic reference for
	// external serializers; the engine itself never reads them.
	CoordFrame string
	OriginLat  float64
	OriginLon  float64
	OriginAlt  float64
}

// DefaultParameters returns the parameter defaults applied at scenario load.
func DefaultParameters() Parameters {
	return Parameters{
		C:               299792458.0,
		SimSamplingRate: 1000,
		OversampleRatio: 1,
	}
}

// Reset restores the defaults; called when a new scenario is loaded.
func (p *Parameters) Reset() { *p = DefaultParameters() }

// RenderRate returns the internal processing rate: the output rate raised by
// the oversample ratio.
func (p Parameters) RenderRate() float64 {
	if p.OversampleRatio > 1 {
		return p.Rate * float64(p.OversampleRatio)
	}
	return p.Rate
}

package radar

import (
	"fmt"
	"io"

	"github.com/banshee-data/echosim/internal/signal"
)

// Response is the per-pulse record of how one transmission arrived at one
// receiver along one propagation path. The ordered interpolation points
// describe the pulse's time-varying power, delay, Doppler, and phase.
type Response struct {
	transmitter *Transmitter
	signal      *signal.RadarSignal
	points      []signal.InterpPoint
}

// NewResponse creates an empty response for the given transmission.
func NewResponse(tx *Transmitter, sig *signal.RadarSignal) *Response {
	return &Response{transmitter: tx, signal: sig}
}

// AddPoint appends one interpolation point. Points must be added in time
// order; only one goroutine owns a response while it is being built.
func (r *Response) AddPoint(p signal.InterpPoint) {
	r.points = append(r.points, p)
}

// Points returns the ordered interpolation points.
func (r *Response) Points() []signal.InterpPoint { return r.points }

// Transmitter returns the originating transmitter.
func (r *Response) Transmitter() *Transmitter { return r.transmitter }

// TransmitterName returns the originating transmitter's name.
func (r *Response) TransmitterName() string { return r.transmitter.Name() }

// Signal returns the transmitted waveform.
func (r *Response) Signal() *signal.RadarSignal { return r.signal }

// Start returns the time the pulse's energy first reaches the receiver.
func (r *Response) Start() float64 {
	if len(r.points) == 0 {
		return 0
	}
	return r.points[0].Time
}

// End returns the time the pulse's energy stops arriving: the arrival time
// of the final interpolation point, which sits at the trailing edge of the
// pulse.
func (r *Response) End() float64 {
	if len(r.points) == 0 {
		return 0
	}
	return r.points[len(r.points)-1].Time
}

// Render produces the received I/Q samples for this response. fracDelay is
// the window's fractional sample offset.
func (r *Response) Render(fracDelay float64) ([]complex128, float64, error) {
	return r.signal.Render(r.points, fracDelay)
}

// WriteCSV writes the response's interpolation points as CSV rows of
// time, power, phase, and received Doppler shift, mirroring the diagnostic
// export of the legacy renderer.
func (r *Response) WriteCSV(w io.Writer) error {
	for _, p := range r.points {
		shift := r.signal.Carrier() * (1 - p.DopplerFactor)
		if _, err := fmt.Fprintf(w, "%e, %e, %e, %e\n", p.Time, p.Power, p.Phase, shift); err != nil {
			return err
		}
	}
	return nil
}

// RenderingJob is the packet produced at a receive-window close and consumed
// by the receiver's finalizer goroutine. A negative Duration is the shutdown
// sentinel.
type RenderingJob struct {
	// IdealStart is the jitter-free start time of the window.
	IdealStart float64
	// Duration is the window length in seconds.
	Duration float64
	// Responses are the pulses that arrived during the window.
	Responses []*Response
	// ActiveCWSources snapshots the CW transmitters active at window close.
	ActiveCWSources []*Transmitter
}

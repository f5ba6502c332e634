package radar

import (
	"sync"

	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/simerr"
	"github.com/banshee-data/echosim/internal/timing"
)

// Mode is a radar's operating mode.
type Mode int

const (
	// Pulsed radars transmit discrete pulses and receive in fixed windows.
	Pulsed Mode = iota
	// CW radars emit and integrate continuously.
	CW
)

func (m Mode) String() string {
	if m == CW {
		return "cw"
	}
	return "pulsed"
}

// unit holds the state common to transmitters and receivers.
type unit struct {
	name     string
	platform *Platform
	antenna  *Antenna
	timing   *timing.Timing
	mode     Mode
}

// Name returns the radar name.
func (u *unit) Name() string { return u.name }

// Platform returns the carrying platform.
func (u *unit) Platform() *Platform { return u.platform }

// Antenna returns the radar's antenna.
func (u *unit) Antenna() *Antenna { return u.antenna }

// Timing returns the radar's clock instance.
func (u *unit) Timing() *timing.Timing { return u.timing }

// Mode returns the operating mode.
func (u *unit) Mode() Mode { return u.mode }

// Position returns the radar position at time t.
func (u *unit) Position(t float64) (geo.Vec3, error) { return u.platform.Position(t) }

// Rotation returns the antenna boresight at time t.
func (u *unit) Rotation(t float64) (geo.SVec3, error) { return u.platform.Rotation(t) }

// Gain evaluates the antenna pattern for the given look direction and
// boresight at the given wavelength.
func (u *unit) Gain(angle, boresight geo.SVec3, wavelength float64) float64 {
	return u.antenna.Gain(angle, boresight, wavelength)
}

func (u *unit) validate() error {
	if u.platform == nil {
		return simerr.Config("radar %q: platform is required", u.name)
	}
	if u.antenna == nil {
		return simerr.Config("radar %q: antenna is required", u.name)
	}
	if u.timing == nil {
		return simerr.Config("radar %q: timing is required", u.name)
	}
	return nil
}

// TransmitterConfig collects the parameters of a transmitter.
type TransmitterConfig struct {
	Name     string
	Platform *Platform
	Antenna  *Antenna
	Timing   *timing.Timing
	Mode     Mode
	// PRF is the pulse repetition frequency; required positive for pulsed
	// transmitters and ignored for CW.
	PRF float64
	// Signal is the transmitted waveform.
	Signal *signal.RadarSignal
}

// Transmitter emits the radar signal, either as discrete pulses at a PRF or
// as a continuous carrier.
type Transmitter struct {
	unit
	prf      float64
	signal   *signal.RadarSignal
	attached *Receiver
}

// NewTransmitter validates the configuration and creates a transmitter.
func NewTransmitter(cfg TransmitterConfig) (*Transmitter, error) {
	t := &Transmitter{
		unit:   unit{name: cfg.Name, platform: cfg.Platform, antenna: cfg.Antenna, timing: cfg.Timing, mode: cfg.Mode},
		prf:    cfg.PRF,
		signal: cfg.Signal,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	if cfg.Signal == nil {
		return nil, simerr.Config("transmitter %q: signal is required", cfg.Name)
	}
	switch cfg.Mode {
	case Pulsed:
		if cfg.PRF <= 0 {
			return nil, simerr.Config("transmitter %q: pulsed mode requires PRF > 0, got %v", cfg.Name, cfg.PRF)
		}
		if cfg.Signal.Form() != signal.FormPulse {
			return nil, simerr.Config("transmitter %q: pulsed mode requires a pulse waveform", cfg.Name)
		}
	case CW:
		if cfg.Signal.Form() != signal.FormCW {
			return nil, simerr.Config("transmitter %q: cw mode requires a cw waveform", cfg.Name)
		}
	}
	return t, nil
}

// PRF returns the pulse repetition frequency.
func (t *Transmitter) PRF() float64 { return t.prf }

// Signal returns the transmitted waveform.
func (t *Transmitter) Signal() *signal.RadarSignal { return t.signal }

// Attached returns the monostatic partner receiver, if any.
func (t *Transmitter) Attached() *Receiver { return t.attached }

// ReceiverConfig collects the parameters of a receiver.
type ReceiverConfig struct {
	Name     string
	Platform *Platform
	Antenna  *Antenna
	Timing   *timing.Timing
	Mode     Mode
	// WindowLength, WindowPRF, and WindowSkip control pulsed receive
	// windows; required for pulsed receivers and ignored for CW.
	WindowLength float64
	WindowPRF    float64
	WindowSkip   float64
	// NoiseTemperature is the receiver's thermal noise temperature in
	// kelvin.
	NoiseTemperature float64
	// NoDirect suppresses the direct Tx->Rx path.
	NoDirect bool
	// NoPropagationLoss drops the free-space loss term from the radar
	// equation.
	NoPropagationLoss bool
	// Seed drives the receiver's thermal-noise stream.
	Seed uint64
	// FinalizerQueueDepth bounds the rendering-job queue; the driver blocks
	// when the queue is full. Zero selects the default depth.
	FinalizerQueueDepth int
}

const defaultFinalizerQueueDepth = 64

// Receiver collects incoming signal energy. Pulsed receivers accumulate
// Response objects into an inbox per window and hand completed windows to a
// dedicated finalizer goroutine; CW receivers integrate per-sample into a
// simulation-long I/Q buffer.
type Receiver struct {
	unit
	noDirect   bool
	noPropLoss bool
	noiseTemp  float64
	seed       uint64

	windowLength float64
	windowPRF    float64
	windowSkip   float64

	active bool

	inboxMu sync.Mutex
	inbox   []*Response

	jobs chan RenderingJob

	cwMu   sync.Mutex
	cwData []complex128

	intfMu          sync.Mutex
	interferenceLog []*Response

	attached *Transmitter
}

// NewReceiver validates the configuration and creates a receiver.
func NewReceiver(cfg ReceiverConfig) (*Receiver, error) {
	r := &Receiver{
		unit:         unit{name: cfg.Name, platform: cfg.Platform, antenna: cfg.Antenna, timing: cfg.Timing, mode: cfg.Mode},
		noDirect:     cfg.NoDirect,
		noPropLoss:   cfg.NoPropagationLoss,
		noiseTemp:    cfg.NoiseTemperature,
		seed:         cfg.Seed,
		windowLength: cfg.WindowLength,
		windowPRF:    cfg.WindowPRF,
		windowSkip:   cfg.WindowSkip,
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	if cfg.NoiseTemperature < 0 {
		return nil, simerr.Config("receiver %q: negative noise temperature %v", cfg.Name, cfg.NoiseTemperature)
	}
	if cfg.Mode == Pulsed {
		if cfg.WindowLength <= 0 {
			return nil, simerr.Config("receiver %q: window length %v must be positive", cfg.Name, cfg.WindowLength)
		}
		if cfg.WindowPRF <= 0 {
			return nil, simerr.Config("receiver %q: window PRF %v must be positive", cfg.Name, cfg.WindowPRF)
		}
		if cfg.WindowSkip < 0 {
			return nil, simerr.Config("receiver %q: window skip %v must be non-negative", cfg.Name, cfg.WindowSkip)
		}
	}
	depth := cfg.FinalizerQueueDepth
	if depth <= 0 {
		depth = defaultFinalizerQueueDepth
	}
	r.jobs = make(chan RenderingJob, depth)
	return r, nil
}

// NoDirect reports whether the direct path is suppressed.
func (r *Receiver) NoDirect() bool { return r.noDirect }

// NoPropagationLoss reports whether free-space loss is dropped.
func (r *Receiver) NoPropagationLoss() bool { return r.noPropLoss }

// NoiseTemperature returns the receiver's base noise temperature.
func (r *Receiver) NoiseTemperature() float64 { return r.noiseTemp }

// NoiseTemperatureAt returns the combined receiver and antenna noise
// temperature looking in the given direction.
func (r *Receiver) NoiseTemperatureAt(direction geo.SVec3) float64 {
	return r.noiseTemp + r.antenna.NoiseTemperature(direction)
}

// Seed returns the receiver's noise stream seed.
func (r *Receiver) Seed() uint64 { return r.seed }

// WindowLength returns the receive window duration in seconds.
func (r *Receiver) WindowLength() float64 { return r.windowLength }

// WindowPRF returns the receive window repetition frequency.
func (r *Receiver) WindowPRF() float64 { return r.windowPRF }

// WindowSkip returns the delay before the first window opens.
func (r *Receiver) WindowSkip() float64 { return r.windowSkip }

// WindowStart returns the start time of the n-th receive window, including
// one clock jitter draw when the timing model is enabled.
func (r *Receiver) WindowStart(n int) float64 {
	return r.windowSkip + float64(n)/r.windowPRF + r.timing.JitterSample()
}

// Active reports whether the receiver is currently listening. Only the
// driver goroutine touches this flag.
func (r *Receiver) Active() bool { return r.active }

// SetActive flips the listening state.
func (r *Receiver) SetActive(active bool) { r.active = active }

// Attached returns the monostatic partner transmitter, if any.
func (r *Receiver) Attached() *Transmitter { return r.attached }

// AttachMonostatic links a transmitter and receiver as a monostatic pair
// with mutual back-references. Both must sit on the same platform.
func AttachMonostatic(t *Transmitter, r *Receiver) error {
	if t.platform != r.platform {
		return simerr.Config("monostatic pair %q/%q: radars must share a platform", t.name, r.name)
	}
	t.attached = r
	r.attached = t
	return nil
}

// AddResponse appends a response to the pulsed inbox. The mutex guards the
// append against optional concurrent response builders.
func (r *Receiver) AddResponse(resp *Response) {
	r.inboxMu.Lock()
	r.inbox = append(r.inbox, resp)
	r.inboxMu.Unlock()
}

// DrainInbox atomically empties the inbox, replacing it with a fresh
// container, and returns the drained responses.
func (r *Receiver) DrainInbox() []*Response {
	r.inboxMu.Lock()
	drained := r.inbox
	r.inbox = nil
	r.inboxMu.Unlock()
	return drained
}

// AddInterference logs a pulsed response that lands during CW reception.
func (r *Receiver) AddInterference(resp *Response) {
	r.intfMu.Lock()
	r.interferenceLog = append(r.interferenceLog, resp)
	r.intfMu.Unlock()
}

// InterferenceLog returns the logged pulsed interferences.
func (r *Receiver) InterferenceLog() []*Response {
	r.intfMu.Lock()
	defer r.intfMu.Unlock()
	return append([]*Response(nil), r.interferenceLog...)
}

// PrepareCWData allocates the simulation-long CW I/Q buffer.
func (r *Receiver) PrepareCWData(samples int) {
	r.cwMu.Lock()
	r.cwData = make([]complex128, samples)
	r.cwMu.Unlock()
}

// SetCWSample stores one integrated sample. Indexes beyond the prepared
// buffer are dropped.
func (r *Receiver) SetCWSample(index int, sample complex128) {
	if index < 0 || index >= len(r.cwData) {
		return
	}
	r.cwData[index] = sample
}

// CWData returns the CW I/Q buffer for finalization.
func (r *Receiver) CWData() []complex128 { return r.cwData }

// EnqueueFinalizerJob hands a completed window to the receiver's finalizer.
// The call blocks when the bounded queue is full.
func (r *Receiver) EnqueueFinalizerJob(job RenderingJob) {
	r.jobs <- job
}

// DequeueFinalizerJob blocks until a job is available. It returns ok=false
// when the shutdown sentinel (negative duration) is received.
func (r *Receiver) DequeueFinalizerJob() (RenderingJob, bool) {
	job := <-r.jobs
	if job.Duration < 0 {
		return job, false
	}
	return job, true
}

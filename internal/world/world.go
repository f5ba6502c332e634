package world

import (
	"golang.org/x/exp/rand"

	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/simerr"
	"github.com/banshee-data/echosim/internal/timing"
)

// SimState is the mutable state of a running simulation: the clock and the
// set of currently transmitting CW sources. Only the driver goroutine
// mutates it.
type SimState struct {
	CurrentTime          float64
	ActiveCWTransmitters []*radar.Transmitter
}

// World owns every entity of a scenario plus the registries of named assets
// shared between them, the event queue, and the simulation state.
type World struct {
	params Parameters
	seeder *rand.Rand

	platforms    []*radar.Platform
	transmitters []*radar.Transmitter
	receivers    []*radar.Receiver
	targets      []*radar.Target

	antennas map[string]*radar.Antenna
	signals  map[string]*signal.RadarSignal
	timings  map[string]*timing.Prototype

	queue     *EventQueue
	state     SimState
	scheduled bool
}

// New creates an empty world with the given parameters. The master seeder is
// seeded from Parameters.RandomSeed; entity seeds are drawn from it in
// registration order so runs are bit-reproducible.
func New(params Parameters) *World {
	return &World{
		params:   params,
		seeder:   rand.New(rand.NewSource(params.RandomSeed)),
		antennas: make(map[string]*radar.Antenna),
		signals:  make(map[string]*signal.RadarSignal),
		timings:  make(map[string]*timing.Prototype),
		queue:    NewEventQueue(params.EndTime),
		state:    SimState{CurrentTime: params.StartTime},
	}
}

// Params returns the simulation parameters.
func (w *World) Params() Parameters { return w.params }

// NextSeed draws the next entity seed from the master seeder.
func (w *World) NextSeed() uint64 { return w.seeder.Uint64() }

// AddPlatform registers a platform.
func (w *World) AddPlatform(p *radar.Platform) {
	w.platforms = append(w.platforms, p)
}

// AddTransmitter registers a transmitter. Pulsed and CW transmitters cannot
// be mixed within one scenario.
func (w *World) AddTransmitter(t *radar.Transmitter) error {
	for _, existing := range w.transmitters {
		if existing.Mode() != t.Mode() {
			return simerr.Config("transmitter %q: cannot mix %s and %s transmitters in one scenario",
				t.Name(), existing.Mode(), t.Mode())
		}
	}
	w.transmitters = append(w.transmitters, t)
	return nil
}

// AddReceiver registers a receiver.
func (w *World) AddReceiver(r *radar.Receiver) {
	w.receivers = append(w.receivers, r)
}

// AddTarget registers a target.
func (w *World) AddTarget(t *radar.Target) {
	w.targets = append(w.targets, t)
}

// AddAntenna registers a named antenna asset. Duplicate names fail.
func (w *World) AddAntenna(a *radar.Antenna) error {
	if _, ok := w.antennas[a.Name()]; ok {
		return simerr.Config("an antenna named %q already exists", a.Name())
	}
	w.antennas[a.Name()] = a
	return nil
}

// AddSignal registers a named waveform asset. Duplicate names fail.
func (w *World) AddSignal(s *signal.RadarSignal) error {
	if _, ok := w.signals[s.Name()]; ok {
		return simerr.Config("a waveform named %q already exists", s.Name())
	}
	w.signals[s.Name()] = s
	return nil
}

// AddTimingPrototype registers a named timing asset. Duplicate names fail.
func (w *World) AddTimingPrototype(t *timing.Prototype) error {
	if _, ok := w.timings[t.Name]; ok {
		return simerr.Config("a timing source named %q already exists", t.Name)
	}
	w.timings[t.Name] = t
	return nil
}

// FindAntenna looks up an antenna by name.
func (w *World) FindAntenna(name string) (*radar.Antenna, bool) {
	a, ok := w.antennas[name]
	return a, ok
}

// FindSignal looks up a waveform by name.
func (w *World) FindSignal(name string) (*signal.RadarSignal, bool) {
	s, ok := w.signals[name]
	return s, ok
}

// FindTimingPrototype looks up a timing prototype by name.
func (w *World) FindTimingPrototype(name string) (*timing.Prototype, bool) {
	t, ok := w.timings[name]
	return t, ok
}

// Platforms returns the registered platforms.
func (w *World) Platforms() []*radar.Platform { return w.platforms }

// Transmitters returns the registered transmitters.
func (w *World) Transmitters() []*radar.Transmitter { return w.transmitters }

// Receivers returns the registered receivers.
func (w *World) Receivers() []*radar.Receiver { return w.receivers }

// Targets returns the registered targets.
func (w *World) Targets() []*radar.Target { return w.targets }

// Queue returns the event queue.
func (w *World) Queue() *EventQueue { return w.queue }

// State returns the mutable simulation state.
func (w *World) State() *SimState { return &w.state }

// IsCWSimulation reports whether the scenario's transmitters operate in CW
// mode.
func (w *World) IsCWSimulation() bool {
	return len(w.transmitters) > 0 && w.transmitters[0].Mode() == radar.CW
}

// Clear resets the world to empty, including the event queue and state.
func (w *World) Clear() {
	w.platforms = nil
	w.transmitters = nil
	w.receivers = nil
	w.targets = nil
	w.antennas = make(map[string]*radar.Antenna)
	w.signals = make(map[string]*signal.RadarSignal)
	w.timings = make(map[string]*timing.Prototype)
	w.queue = NewEventQueue(w.params.EndTime)
	w.state = SimState{CurrentTime: w.params.StartTime}
	w.scheduled = false
}

// Scheduled reports whether initial events have been placed on the queue.
func (w *World) Scheduled() bool { return w.scheduled }

// ScheduleInitialEvents seeds the event queue with the first event for every
// transmitter and receiver:
//
//   - pulsed transmitters fire their first pulse at t=0;
//   - CW transmitters start at the scenario start and stop at its end;
//   - pulsed receivers open their first window at WindowStart(0) when that
//     falls before the end time;
//   - CW receivers listen across the whole scenario.
func (w *World) ScheduleInitialEvents() {
	if w.scheduled {
		return
	}
	for _, tx := range w.transmitters {
		if tx.Mode() == radar.Pulsed {
			w.queue.Push(Event{Time: 0, Type: EventTxPulsedStart, Tx: tx})
		} else {
			w.queue.Push(Event{Time: w.params.StartTime, Type: EventTxCwStart, Tx: tx})
			w.queue.Push(Event{Time: w.params.EndTime, Type: EventTxCwEnd, Tx: tx})
		}
	}
	for _, rx := range w.receivers {
		if rx.Mode() == radar.Pulsed {
			if first := rx.WindowStart(0); first < w.params.EndTime {
				w.queue.Push(Event{Time: first, Type: EventRxPulsedWindowStart, Rx: rx})
			}
		} else {
			w.queue.Push(Event{Time: w.params.StartTime, Type: EventRxCwStart, Rx: rx})
			w.queue.Push(Event{Time: w.params.EndTime, Type: EventRxCwEnd, Rx: rx})
		}
	}
	w.scheduled = true
}

// DumpEventQueue renders the pending event queue for diagnostics.
func (w *World) DumpEventQueue() string { return w.queue.Dump() }

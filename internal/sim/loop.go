// Package sim runs the event-driven simulation: a time-ordered event loop
// over a shared clock, with per-sample CW physics integration between
// discrete events and asynchronous finalization of receiver output.
package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/echosim/internal/channel"
	"github.com/banshee-data/echosim/internal/finalize"
	"github.com/banshee-data/echosim/internal/pool"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/simerr"
	"github.com/banshee-data/echosim/internal/sink"
	"github.com/banshee-data/echosim/internal/world"
)

// Progress is invoked on initialization, on each event dispatch, and on
// completion.
type Progress func(message string, done, total int)

// Config carries the collaborators of a run.
type Config struct {
	// Pool executes CW finalization tasks and other offloaded work. A nil
	// pool creates a private one sized to one worker per receiver plus one.
	Pool *pool.Pool
	// Sinks opens the per-receiver output. A nil factory captures output in
	// memory and discards it.
	Sinks sink.Factory
	// Progress receives run progress; may be nil.
	Progress Progress
}

// Summary describes a completed run.
type Summary struct {
	RunID            string
	EventsDispatched int
	CWSamples        int
	ChunksEmitted    map[string]int
	SamplesEmitted   map[string]int
}

// Run executes the event-driven simulation over the world. It schedules the
// initial events if the caller has not, drives the loop to completion, joins
// every finalizer, and aggregates their status into a single result.
func Run(w *world.World, cfg Config) (*Summary, error) {
	p := w.Params()
	if p.EndTime <= p.StartTime {
		return nil, simerr.Config("end time %v must be after start time %v", p.EndTime, p.StartTime)
	}
	if p.Rate <= 0 {
		return nil, simerr.Config("sampling rate %v must be positive", p.Rate)
	}

	progress := cfg.Progress
	if progress == nil {
		progress = func(string, int, int) {}
	}
	sinks := cfg.Sinks
	if sinks == nil {
		sinks = func(string) (sink.Sink, error) { return sink.NewMemory(), nil }
	}
	workers := cfg.Pool
	if workers == nil {
		workers = pool.New(len(w.Receivers()) + 1)
		defer workers.Shutdown()
	}

	if !w.Scheduled() {
		w.ScheduleInitialEvents()
	}

	progress("initializing event-driven simulation", 0, 100)

	summary := &Summary{
		RunID:          uuid.NewString(),
		ChunksEmitted:  make(map[string]int),
		SamplesEmitted: make(map[string]int),
	}

	queue := w.Queue()
	state := w.State()
	endTime := p.EndTime
	dtSim := 1.0 / p.RenderRate()

	// Size the CW buffers to tile the whole simulated interval.
	totalCWSamples := int(math.Ceil((endTime - p.StartTime) / dtSim))
	for _, rx := range w.Receivers() {
		if rx.Mode() == radar.CW {
			rx.PrepareCWData(totalCWSamples)
		}
	}

	// One dedicated finalizer goroutine per pulsed receiver.
	var finalizers sync.WaitGroup
	results := make(chan finalize.Result, len(w.Receivers()))
	for _, rx := range w.Receivers() {
		if rx.Mode() != radar.Pulsed {
			continue
		}
		rx := rx
		finalizers.Add(1)
		go func() {
			defer finalizers.Done()
			results <- finalize.RunPulsed(p, rx, w.Targets(), sinks)
		}()
	}

	opsf("starting unified event-driven simulation loop")

	var loopErr error
	for queue.Len() > 0 && state.CurrentTime <= endTime {
		event, _ := queue.Pop()

		// Time-stepped CW integration over [t_current, t_event). Adjacent
		// event pairs tile the interval without gap or overlap.
		if event.Time > state.CurrentTime {
			startIndex := int(math.Ceil((state.CurrentTime - p.StartTime) / dtSim))
			endIndex := int(math.Ceil((event.Time - p.StartTime) / dtSim))
			for i := startIndex; i < endIndex; i++ {
				tStep := p.StartTime + float64(i)*dtSim
				for _, rx := range w.Receivers() {
					if rx.Mode() != radar.CW || !rx.Active() {
						continue
					}
					var acc complex128
					for _, tx := range state.ActiveCWTransmitters {
						if !rx.NoDirect() {
							c, err := channel.DirectCW(p, tx, rx, tStep)
							if err != nil {
								loopErr = err
								break
							}
							acc += c
						}
						for _, tgt := range w.Targets() {
							c, err := channel.ReflectedCW(p, tx, rx, tgt, tStep)
							if err != nil {
								loopErr = err
								break
							}
							acc += c
						}
					}
					rx.SetCWSample(i, acc)
				}
				summary.CWSamples++
				if loopErr != nil {
					break
				}
			}
		}
		if loopErr != nil {
			break
		}

		state.CurrentTime = event.Time

		if err := dispatch(w, event, queue, state, workers, sinks, results); err != nil {
			loopErr = err
			break
		}
		summary.EventsDispatched++

		progress(fmt.Sprintf("simulating t=%.6fs / %.6fs", state.CurrentTime, endTime),
			int(state.CurrentTime/endTime*100), 100)
	}

	// Shutdown: poison pills for the pulsed finalizers, then join everything.
	opsf("main simulation loop finished, waiting for finalization tasks")
	for _, rx := range w.Receivers() {
		if rx.Mode() == radar.Pulsed {
			rx.EnqueueFinalizerJob(radar.RenderingJob{Duration: -1})
		}
	}
	finalizers.Wait()
	workers.Wait()
	close(results)

	for res := range results {
		summary.ChunksEmitted[res.Receiver] += res.ChunksEmitted
		summary.SamplesEmitted[res.Receiver] += res.SamplesEmitted
		if res.Err != nil && loopErr == nil {
			loopErr = fmt.Errorf("finalizer for %q: %w", res.Receiver, res.Err)
		}
	}

	if loopErr != nil {
		return nil, loopErr
	}
	progress("simulation complete", 100, 100)
	return summary, nil
}

// dispatch handles one discrete event.
func dispatch(w *world.World, event world.Event, queue *world.EventQueue, state *world.SimState,
	workers *pool.Pool, sinks sink.Factory, results chan<- finalize.Result) error {
	p := w.Params()

	switch event.Type {
	case world.EventTxPulsedStart:
		tx := event.Tx
		// Each pulse interacts with every receiver and every target.
		for _, rx := range w.Receivers() {
			if !rx.NoDirect() && tx.Attached() != rx {
				resp, err := channel.BuildResponse(p, tx, rx, tx.Signal(), event.Time, nil)
				if err != nil {
					return err
				}
				routeResponse(rx, resp)
			}
			for _, tgt := range w.Targets() {
				resp, err := channel.BuildResponse(p, tx, rx, tx.Signal(), event.Time, tgt)
				if err != nil {
					return err
				}
				routeResponse(rx, resp)
			}
		}
		// Schedule the next pulse.
		queue.Push(world.Event{Time: event.Time + 1.0/tx.PRF(), Type: world.EventTxPulsedStart, Tx: tx})

	case world.EventRxPulsedWindowStart:
		rx := event.Rx
		rx.SetActive(true)
		queue.Push(world.Event{Time: event.Time + rx.WindowLength(), Type: world.EventRxPulsedWindowEnd, Rx: rx})

	case world.EventRxPulsedWindowEnd:
		rx := event.Rx
		rx.SetActive(false)
		job := radar.RenderingJob{
			IdealStart:      event.Time - rx.WindowLength(),
			Duration:        rx.WindowLength(),
			Responses:       rx.DrainInbox(),
			ActiveCWSources: append([]*radar.Transmitter(nil), state.ActiveCWTransmitters...),
		}
		rx.EnqueueFinalizerJob(job)
		queue.Push(world.Event{
			Time: event.Time - rx.WindowLength() + 1.0/rx.WindowPRF(),
			Type: world.EventRxPulsedWindowStart,
			Rx:   rx,
		})

	case world.EventTxCwStart:
		state.ActiveCWTransmitters = append(state.ActiveCWTransmitters, event.Tx)

	case world.EventTxCwEnd:
		for i, tx := range state.ActiveCWTransmitters {
			if tx == event.Tx {
				state.ActiveCWTransmitters = append(state.ActiveCWTransmitters[:i], state.ActiveCWTransmitters[i+1:]...)
				break
			}
		}

	case world.EventRxCwStart:
		event.Rx.SetActive(true)

	case world.EventRxCwEnd:
		rx := event.Rx
		rx.SetActive(false)
		// CW finalization is a one-shot task on the shared pool.
		if err := workers.Submit(func() {
			results <- finalize.FinalizeCW(p, rx, sinks)
		}); err != nil {
			return simerr.Internal("submit cw finalization for %q: %v", rx.Name(), err)
		}
	}
	return nil
}

// routeResponse delivers a response to a pulsed receiver's inbox or a CW
// receiver's interference log.
func routeResponse(rx *radar.Receiver, resp *radar.Response) {
	if rx.Mode() == radar.Pulsed {
		rx.AddResponse(resp)
	} else {
		rx.AddInterference(resp)
	}
}

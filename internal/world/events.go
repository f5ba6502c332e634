package world

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/echosim/internal/radar"
)

// EventType enumerates the discrete events of the simulation.
type EventType int

const (
	// EventTxPulsedStart fires when a pulsed transmitter begins a pulse.
	EventTxPulsedStart EventType = iota
	// EventRxPulsedWindowStart opens a pulsed receiver's listening window.
	EventRxPulsedWindowStart
	// EventRxPulsedWindowEnd closes a pulsed receiver's listening window.
	EventRxPulsedWindowEnd
	// EventTxCwStart activates a CW transmitter.
	EventTxCwStart
	// EventTxCwEnd deactivates a CW transmitter.
	EventTxCwEnd
	// EventRxCwStart activates a CW receiver.
	EventRxCwStart
	// EventRxCwEnd deactivates a CW receiver.
	EventRxCwEnd
)

func (t EventType) String() string {
	switch t {
	case EventTxPulsedStart:
		return "TxPulsedStart"
	case EventRxPulsedWindowStart:
		return "RxPulsedWindowStart"
	case EventRxPulsedWindowEnd:
		return "RxPulsedWindowEnd"
	case EventTxCwStart:
		return "TxCwStart"
	case EventTxCwEnd:
		return "TxCwEnd"
	case EventRxCwStart:
		return "RxCwStart"
	case EventRxCwEnd:
		return "RxCwEnd"
	}
	return "UnknownEvent"
}

// Event is one entry in the simulation's time-ordered queue. Exactly one of
// Tx or Rx is set, matching the event type.
type Event struct {
	Time float64
	Type EventType
	Tx   *radar.Transmitter
	Rx   *radar.Receiver

	seq uint64
}

// SourceName returns the name of the radar that generated the event.
func (e Event) SourceName() string {
	if e.Tx != nil {
		return e.Tx.Name()
	}
	if e.Rx != nil {
		return e.Rx.Name()
	}
	return "?"
}

// EventQueue is a min-heap of events ordered by timestamp. Ties break on
// insertion order, which is deterministic for a given scenario. Events
// scheduled past the queue's end time are discarded at insertion.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
	endTime float64
}

// NewEventQueue creates a queue that discards events beyond endTime.
func NewEventQueue(endTime float64) *EventQueue {
	return &EventQueue{endTime: endTime}
}

// Push inserts an event unless it falls past the end time.
func (q *EventQueue) Push(e Event) {
	if e.Time > q.endTime {
		return
	}
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.events, e)
}

// Pop removes and returns the earliest event.
func (q *EventQueue) Pop() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.events).(Event), true
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return len(q.events) }

// Snapshot returns the pending events in dispatch order without draining
// the queue.
func (q *EventQueue) Snapshot() []Event {
	out := append([]Event(nil), q.events...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Dump renders the pending queue as a fixed-width table for diagnostics.
func (q *EventQueue) Dump() string {
	if q.Len() == 0 {
		return "Event queue is empty.\n"
	}
	var b strings.Builder
	sep := strings.Repeat("-", 68)
	fmt.Fprintf(&b, "%s\n| Event queue contents (%d events)\n%s\n", sep, q.Len(), sep)
	fmt.Fprintf(&b, "| %-12s | %-21s | %-25s |\n", "Timestamp", "Event Type", "Source Object")
	fmt.Fprintln(&b, sep)
	for _, e := range q.Snapshot() {
		fmt.Fprintf(&b, "| %12.6f | %-21s | %-25s |\n", e.Time, e.Type, e.SourceName())
	}
	fmt.Fprintln(&b, sep)
	return b.String()
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

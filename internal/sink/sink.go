// Package sink defines the per-receiver output contract of the simulation
// and several implementations: in-memory capture, CSV export, a SQLite
// store, and Parquet files.
package sink

import "sync"

// CWAttributes annotate a continuous-wave dataset.
type CWAttributes struct {
	SamplingRate     float64
	StartTime        float64
	CarrierFrequency float64
}

// Chunk is one finalized receive window.
type Chunk struct {
	Samples   []complex128
	StartTime float64
	Fullscale float64
	Index     int
}

// Sink receives finalized output for a single receiver. A pulsed finalizer
// calls AddChunk once per window in index order; a CW finalization task
// calls WriteCW exactly once. Close is called when the finalizer exits.
type Sink interface {
	AddChunk(samples []complex128, startTime, fullscale float64, index int) error
	WriteCW(iData, qData []float64, attrs CWAttributes) error
	Close() error
}

// Factory opens the sink for a named receiver.
type Factory func(receiver string) (Sink, error)

// Memory captures output in memory, mainly for tests and programmatic use.
type Memory struct {
	mu     sync.Mutex
	chunks []Chunk
	iData  []float64
	qData  []float64
	attrs  CWAttributes
	hasCW  bool
	closed bool
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory { return &Memory{} }

// MemoryFactory returns a factory handing out per-receiver memory sinks and
// a map to retrieve them by receiver name.
func MemoryFactory() (Factory, map[string]*Memory) {
	sinks := make(map[string]*Memory)
	var mu sync.Mutex
	return func(receiver string) (Sink, error) {
		mu.Lock()
		defer mu.Unlock()
		s := NewMemory()
		sinks[receiver] = s
		return s, nil
	}, sinks
}

// AddChunk stores a copy of the window.
func (m *Memory) AddChunk(samples []complex128, startTime, fullscale float64, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, Chunk{
		Samples:   append([]complex128(nil), samples...),
		StartTime: startTime,
		Fullscale: fullscale,
		Index:     index,
	})
	return nil
}

// WriteCW stores a copy of the CW dataset.
func (m *Memory) WriteCW(iData, qData []float64, attrs CWAttributes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iData = append([]float64(nil), iData...)
	m.qData = append([]float64(nil), qData...)
	m.attrs = attrs
	m.hasCW = true
	return nil
}

// Close marks the sink closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Chunks returns the captured windows in emission order.
func (m *Memory) Chunks() []Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Chunk(nil), m.chunks...)
}

// CW returns the captured CW dataset, if any.
func (m *Memory) CW() (iData, qData []float64, attrs CWAttributes, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.iData, m.qData, m.attrs, m.hasCW
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

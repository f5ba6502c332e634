package sink

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/echosim/internal/simerr"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sim_runs (
	run_id TEXT PRIMARY KEY,
	created_unix_nanos INTEGER NOT NULL,
	master_seed INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sim_chunks (
	run_id TEXT NOT NULL,
	receiver TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	start_time REAL NOT NULL,
	fullscale REAL NOT NULL,
	samples BLOB NOT NULL,
	PRIMARY KEY (run_id, receiver, chunk_index)
);
CREATE TABLE IF NOT EXISTS sim_cw (
	run_id TEXT NOT NULL,
	receiver TEXT NOT NULL,
	sampling_rate REAL NOT NULL,
	start_time REAL NOT NULL,
	carrier_frequency REAL NOT NULL,
	i_data BLOB NOT NULL,
	q_data BLOB NOT NULL,
	PRIMARY KEY (run_id, receiver)
);
`

// Store is a SQLite-backed output store. One store serves every receiver of
// a run; per-receiver sinks serialize their writes through the store.
type Store struct {
	mu    sync.Mutex
	db    *sql.DB
	runID string
}

// OpenStore opens (or creates) the SQLite database at path and registers a
// new run stamped with the master seed.
func OpenStore(path string, masterSeed uint64) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, simerr.Resource("open sqlite store %q: %v", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, simerr.Resource("apply sqlite schema: %v", err)
	}
	s := &Store{db: db, runID: uuid.NewString()}
	if _, err := db.Exec(
		`INSERT INTO sim_runs (run_id, created_unix_nanos, master_seed) VALUES (?, ?, ?)`,
		s.runID, time.Now().UnixNano(), int64(masterSeed),
	); err != nil {
		db.Close()
		return nil, simerr.Resource("register run: %v", err)
	}
	return s, nil
}

// RunID returns the identifier of the run this store records.
func (s *Store) RunID() string { return s.runID }

// Factory returns a sink factory bound to this store.
func (s *Store) Factory() Factory {
	return func(receiver string) (Sink, error) {
		return &sqliteSink{store: s, receiver: receiver}, nil
	}
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// ChunkCount returns the number of stored chunks for a receiver in this run.
func (s *Store) ChunkCount(receiver string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sim_chunks WHERE run_id = ? AND receiver = ?`,
		s.runID, receiver,
	).Scan(&n)
	return n, err
}

// ReadChunk loads one stored chunk back.
func (s *Store) ReadChunk(receiver string, index int) (Chunk, error) {
	var (
		start, fullscale float64
		blob             []byte
	)
	err := s.db.QueryRow(
		`SELECT start_time, fullscale, samples FROM sim_chunks
		 WHERE run_id = ? AND receiver = ? AND chunk_index = ?`,
		s.runID, receiver, index,
	).Scan(&start, &fullscale, &blob)
	if err != nil {
		return Chunk{}, err
	}
	samples, err := decodeComplexBlob(blob)
	if err != nil {
		return Chunk{}, err
	}
	return Chunk{Samples: samples, StartTime: start, Fullscale: fullscale, Index: index}, nil
}

type sqliteSink struct {
	store    *Store
	receiver string
}

func (s *sqliteSink) AddChunk(samples []complex128, startTime, fullscale float64, index int) error {
	blob := encodeComplexBlob(samples)
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, err := s.store.db.Exec(
		`INSERT INTO sim_chunks (run_id, receiver, chunk_index, start_time, fullscale, samples)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.store.runID, s.receiver, index, startTime, fullscale, blob,
	); err != nil {
		return simerr.Resource("store chunk %d for %q: %v", index, s.receiver, err)
	}
	return nil
}

func (s *sqliteSink) WriteCW(iData, qData []float64, attrs CWAttributes) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, err := s.store.db.Exec(
		`INSERT INTO sim_cw (run_id, receiver, sampling_rate, start_time, carrier_frequency, i_data, q_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.store.runID, s.receiver, attrs.SamplingRate, attrs.StartTime, attrs.CarrierFrequency,
		encodeFloatBlob(iData), encodeFloatBlob(qData),
	); err != nil {
		return simerr.Resource("store cw data for %q: %v", s.receiver, err)
	}
	return nil
}

func (s *sqliteSink) Close() error { return nil }

func encodeComplexBlob(samples []complex128) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(samples)*16))
	for _, c := range samples {
		binary.Write(buf, binary.LittleEndian, real(c))
		binary.Write(buf, binary.LittleEndian, imag(c))
	}
	return buf.Bytes()
}

func decodeComplexBlob(blob []byte) ([]complex128, error) {
	if len(blob)%16 != 0 {
		return nil, simerr.Internal("chunk blob length %d is not a whole number of samples", len(blob))
	}
	r := bytes.NewReader(blob)
	samples := make([]complex128, len(blob)/16)
	for i := range samples {
		var re, im float64
		if err := binary.Read(r, binary.LittleEndian, &re); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &im); err != nil {
			return nil, err
		}
		samples[i] = complex(re, im)
	}
	return samples, nil
}

func encodeFloatBlob(data []float64) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)*8))
	for _, v := range data {
		binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

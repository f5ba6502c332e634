package sink

import (
	"fmt"
	"os"
	"strconv"

	"github.com/segmentio/parquet-go"

	"github.com/banshee-data/echosim/internal/simerr"
)

// iqRow is one output sample in the Parquet schema. Pulsed chunks carry
// their chunk index; CW datasets use index -1.
type iqRow struct {
	ChunkIndex int32   `parquet:"chunk_index"`
	Sample     int32   `parquet:"sample"`
	StartTime  float64 `parquet:"start_time"`
	I          float64 `parquet:"i"`
	Q          float64 `parquet:"q"`
}

// Parquet writes receiver output as a Parquet file of I/Q rows with the
// receiver name and seed attached as file metadata.
type Parquet struct {
	f      *os.File
	writer *parquet.GenericWriter[iqRow]
}

// NewParquet opens a Parquet sink for a receiver at the given path.
func NewParquet(path, receiver string, masterSeed uint64) (*Parquet, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, simerr.Resource("open parquet output %q: %v", path, err)
	}
	w := parquet.NewGenericWriter[iqRow](f,
		parquet.KeyValueMetadata("receiver", receiver),
		parquet.KeyValueMetadata("master_seed", strconv.FormatUint(masterSeed, 10)),
	)
	return &Parquet{f: f, writer: w}, nil
}

// ParquetFactory returns a factory creating one Parquet file per receiver
// with the given name pattern (a %s receives the receiver name).
func ParquetFactory(pattern string, masterSeed uint64) Factory {
	return func(receiver string) (Sink, error) {
		return NewParquet(fmt.Sprintf(pattern, receiver), receiver, masterSeed)
	}
}

// AddChunk appends one receive window as rows.
func (p *Parquet) AddChunk(samples []complex128, startTime, fullscale float64, index int) error {
	rows := make([]iqRow, len(samples))
	for i, s := range samples {
		rows[i] = iqRow{
			ChunkIndex: int32(index),
			Sample:     int32(i),
			StartTime:  startTime,
			I:          real(s),
			Q:          imag(s),
		}
	}
	if _, err := p.writer.Write(rows); err != nil {
		return simerr.Resource("write parquet chunk %d: %v", index, err)
	}
	return nil
}

// WriteCW appends the CW dataset as rows with chunk index -1.
func (p *Parquet) WriteCW(iData, qData []float64, attrs CWAttributes) error {
	rows := make([]iqRow, len(iData))
	for i := range iData {
		rows[i] = iqRow{
			ChunkIndex: -1,
			Sample:     int32(i),
			StartTime:  attrs.StartTime,
			I:          iData[i],
			Q:          qData[i],
		}
	}
	if _, err := p.writer.Write(rows); err != nil {
		return simerr.Resource("write parquet cw data: %v", err)
	}
	return nil
}

// Close finishes the Parquet file and closes it.
func (p *Parquet) Close() error {
	if err := p.writer.Close(); err != nil {
		p.f.Close()
		return simerr.Resource("close parquet writer: %v", err)
	}
	if err := p.f.Close(); err != nil {
		return simerr.Resource("close parquet file: %v", err)
	}
	return nil
}

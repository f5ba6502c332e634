package sink

import (
	"bufio"
	"fmt"
	"os"

	"github.com/banshee-data/echosim/internal/simerr"
)

// CSV writes receiver output in the text chunk format: a file header, then
// per chunk a start/rate preamble followed by one I/Q pair per line in
// scientific notation.
type CSV struct {
	f        *os.File
	w        *bufio.Writer
	receiver string
	rate     float64
}

// NewCSV opens a CSV sink for a receiver at the given path. rate is the
// output sampling rate recorded in each chunk preamble.
func NewCSV(path, receiver string, rate float64) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, simerr.Resource("open csv output %q: %v", path, err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# EchoSim CSV simulation results\n")
	fmt.Fprintf(w, "# Received at %s\n", receiver)
	return &CSV{f: f, w: w, receiver: receiver, rate: rate}, nil
}

// CSVFactory returns a factory creating one file per receiver with the
// given name pattern (a %s receives the receiver name).
func CSVFactory(pattern string, rate float64) Factory {
	return func(receiver string) (Sink, error) {
		return NewCSV(fmt.Sprintf(pattern, receiver), receiver, rate)
	}
}

// AddChunk appends one receive window.
func (c *CSV) AddChunk(samples []complex128, startTime, fullscale float64, index int) error {
	fmt.Fprintf(c.w, "\n\n# Start of return pulse %d (fullscale %e)\n", index, fullscale)
	fmt.Fprintf(c.w, "%f, %f\n", startTime, c.rate)
	for _, s := range samples {
		fmt.Fprintf(c.w, "%20.12e, %20.12e\n", real(s), imag(s))
	}
	if err := c.w.Flush(); err != nil {
		return simerr.Resource("write csv chunk for %q: %v", c.receiver, err)
	}
	return nil
}

// WriteCW appends the full CW dataset as one block.
func (c *CSV) WriteCW(iData, qData []float64, attrs CWAttributes) error {
	fmt.Fprintf(c.w, "\n\n# CW dataset (rate %f, start %f, carrier %f)\n",
		attrs.SamplingRate, attrs.StartTime, attrs.CarrierFrequency)
	for i := range iData {
		fmt.Fprintf(c.w, "%20.12e, %20.12e\n", iData[i], qData[i])
	}
	if err := c.w.Flush(); err != nil {
		return simerr.Resource("write csv cw data for %q: %v", c.receiver, err)
	}
	return nil
}

// Close flushes and closes the file.
func (c *CSV) Close() error {
	if err := c.w.Flush(); err != nil {
		c.f.Close()
		return simerr.Resource("flush csv output for %q: %v", c.receiver, err)
	}
	if err := c.f.Close(); err != nil {
		return simerr.Resource("close csv output for %q: %v", c.receiver, err)
	}
	return nil
}

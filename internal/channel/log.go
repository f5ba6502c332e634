package channel

import (
	"io"
	"log"
)

var warnLogger *log.Logger

// SetLogWriter configures the package's warning stream. Pass nil to disable
// logging.
func SetLogWriter(w io.Writer) {
	if w == nil {
		warnLogger = nil
		return
	}
	warnLogger = log.New(w, "[channel] ", log.LstdFlags|log.Lmicroseconds)
}

// warnf logs degenerate-geometry warnings during CW integration. These do
// not abort the run; the affected sample contributes zero.
func warnf(format string, args ...interface{}) {
	if warnLogger != nil {
		warnLogger.Printf(format, args...)
	}
}

package finalize

import (
	"io"
	"log"
)

var opsLogger *log.Logger

// SetLogWriter configures the package's ops logging stream. Pass nil to
// disable logging.
func SetLogWriter(w io.Writer) {
	if w == nil {
		opsLogger = nil
		return
	}
	opsLogger = log.New(w, "[finalize] ", log.LstdFlags|log.Lmicroseconds)
}

// opsf logs to the ops stream (lifecycle and data-loss messages).
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

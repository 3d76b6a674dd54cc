package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger builds the command line logger at the named level, writing to
// stderr.
func SetupLogger(level string) (*log.Logger, error) {
	return SetupLoggerTo(os.Stderr, level)
}

// SetupLoggerTo builds a logger at the named level writing to w.
func SetupLoggerTo(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

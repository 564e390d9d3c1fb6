// --- Copyright © 2025 Gjorgji J. ---

package setuplogging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// --- builds the run-wide logger ---
// Debug mode also surfaces raw registry responses from the gateways.
func NewLogger(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// --- Copyright © 2025 Gjorgji J. ---

package setuplogging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger(t *testing.T) {
	t.Run("Info level by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, false)

		if logger.GetLevel() != zerolog.InfoLevel {
			t.Errorf("Expected info level, got %v", logger.GetLevel())
		}

		logger.Debug().Msg("hidden")
		logger.Info().Msg("visible")
		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("Debug message should be suppressed, got: %s", out)
		}
		if !strings.Contains(out, "visible") {
			t.Errorf("Info message should be written, got: %s", out)
		}
	})

	t.Run("Debug level when requested", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug().Msg("now visible")
		if !strings.Contains(buf.String(), "now visible") {
			t.Errorf("Debug message should be written, got: %s", buf.String())
		}
	})
}

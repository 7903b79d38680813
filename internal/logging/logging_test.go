package logging_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formflow/internal/logging"
)

func TestNew_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
	}
	for input, want := range cases {
		logger, err := logging.New(input, false)
		if err != nil {
			t.Fatalf("New(%q): %v", input, err)
		}
		if !logger.Core().Enabled(want) {
			t.Fatalf("New(%q): level %s disabled", input, want)
		}
		if want > zapcore.DebugLevel && logger.Core().Enabled(want-1) {
			t.Fatalf("New(%q): level below %s enabled", input, want)
		}
	}
}

func TestNew_Development(t *testing.T) {
	logger, err := logging.New("debug", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug enabled")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := logging.New("loud", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

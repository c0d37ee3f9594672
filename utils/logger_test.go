package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, LevelInfo)

	l.Debug("hidden %d", 1)
	l.Info("scraped %d plans", 3)
	l.Warn("slow provider")
	l.Error("save failed")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out.String(), "scraped 3 plans") || !strings.Contains(out.String(), "slow provider") {
		t.Errorf("stdout = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "save failed") || strings.Contains(out.String(), "save failed") {
		t.Errorf("errors not routed to errOut: out=%q err=%q", out.String(), errOut.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

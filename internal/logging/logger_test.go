package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_ConsoleHonorsLevel(t *testing.T) {
	t.Parallel()

	log, err := New("debug", "console")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level should be enabled")
	}
}

func TestNew_JSONDefaultsToInfo(t *testing.T) {
	t.Parallel()

	log, err := New("", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level should be disabled at info")
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info level should be enabled")
	}
}

func TestNew_RejectsUnknownValues(t *testing.T) {
	t.Parallel()

	if _, err := New("verbose", "console"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"Warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil || got != want {
			t.Fatalf("parse %q: expected %v, got %v (%v)", input, want, got, err)
		}
	}
}

package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerBeforeInitIsNop(t *testing.T) {
	prev := global
	global = nil
	t.Cleanup(func() { global = prev })

	if Logger() == nil {
		t.Fatal("expected non-nil logger before Init")
	}
	Logger().Infof("dropped")
}

func TestSetLevel(t *testing.T) {
	prev := level.Level()
	t.Cleanup(func() { level.SetLevel(prev) })

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug): %v", err)
	}
	if got := Level(); got != "debug" {
		t.Fatalf("expected debug, got %q", got)
	}
	if err := SetLevel("WARN"); err != nil {
		t.Fatalf("SetLevel(WARN): %v", err)
	}
	if got := Level(); got != "warn" {
		t.Fatalf("expected warn, got %q", got)
	}
	if err := SetLevel(""); err != nil {
		t.Fatalf("empty level should be ignored: %v", err)
	}
	if err := SetLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetLoggerIsUsed(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })

	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core).Sugar())

	Logger().Infof("loaded %d records", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "loaded 3 records" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
}

package log

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type vesselID string

func (v vesselID) String() string { return "vessel/" + string(v) }

func TestToFields(t *testing.T) {
	now := time.Now()
	boom := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		keys  []string
	}{
		{"empty input", nil, nil},
		{"pairs", []any{"vessel", "IMO7000001", "tick", uint64(4), "live", true}, []string{"vessel", "tick", "live"}},
		{"time and duration", []any{"at", now, "took", 3 * time.Millisecond}, []string{"at", "took"}},
		{"bare error", []any{boom}, []string{"error"}},
		{"field passthrough", []any{zap.String("x", "y"), "n", 1}, []string{"x", "n"}},
		{"dangling key", []any{"k1", "v1", "k2"}, []string{"k1", "arg#2"}},
		{"non-string key", []any{7, "value"}, []string{"invalid_key_1"}},
		{"stringer", []any{"id", vesselID("a")}, []string{"id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			if len(fields) != len(tt.keys) {
				t.Fatalf("got %d fields, want %d: %+v", len(fields), len(tt.keys), fields)
			}
			for i, f := range fields {
				if f.Key != tt.keys[i] {
					t.Errorf("field %d key = %q, want %q", i, f.Key, tt.keys[i])
				}
			}
		})
	}
}

func TestFromZapWithValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).WithName("engine").WithValues("tick", 3)

	l.Warn("tick overran period", "elapsed", 2*time.Second)
	l.Error(errors.New("x"), "publish failed")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].LoggerName != "engine" {
		t.Errorf("logger name = %q", entries[0].LoggerName)
	}
	ctx := entries[0].ContextMap()
	if ctx["tick"] != int64(3) {
		t.Errorf("tick field = %v", ctx["tick"])
	}
	if _, ok := entries[1].ContextMap()["error"]; !ok {
		t.Error("error field missing")
	}
}

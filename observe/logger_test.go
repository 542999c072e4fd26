package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// TestLogger_IncludesOpFields verifies operation fields are present in log output.
func TestLogger_IncludesOpFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := OpMeta{
		Component: "queue",
		Name:      "upload",
		ID:        "op-123",
	}

	opLogger := logger.WithOp(meta)
	opLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if v, ok := logEntry["op.component"].(string); !ok || v != "queue" {
		t.Errorf("expected op.component='queue', got %v", logEntry["op.component"])
	}
	if v, ok := logEntry["op.name"].(string); !ok || v != "upload" {
		t.Errorf("expected op.name='upload', got %v", logEntry["op.name"])
	}
	if v, ok := logEntry["op.id"].(string); !ok || v != "op-123" {
		t.Errorf("expected op.id='op-123', got %v", logEntry["op.id"])
	}
}

// TestLogger_LevelFiltering verifies messages below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be filtered at warn level, got: %s", buf.String())
	}

	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 log lines, got %d: %v", len(lines), lines)
	}
}

// TestLogger_RedactsPayloadFields verifies sensitive fields are redacted.
func TestLogger_RedactsPayloadFields(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"payload", "payload"},
		{"data", "data"},
		{"password", "password"},
		{"token", "token"},
		{"api_key", "api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter("info", &buf)

			logger.Info(context.Background(), "msg", Field{Key: tt.key, Value: "sensitive"})

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}
			if v := logEntry[tt.key]; v != "[REDACTED]" {
				t.Errorf("expected %s to be redacted, got %v", tt.key, v)
			}
		})
	}
}

// TestLogger_PlainFieldsPassThrough verifies non-sensitive fields are kept.
func TestLogger_PlainFieldsPassThrough(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "msg",
		Field{Key: "duration_ms", Value: 12.5},
		Field{Key: "key", Value: "user:1"},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if v, ok := logEntry["duration_ms"].(float64); !ok || v != 12.5 {
		t.Errorf("expected duration_ms=12.5, got %v", logEntry["duration_ms"])
	}
	if v, ok := logEntry["key"].(string); !ok || v != "user:1" {
		t.Errorf("expected key='user:1', got %v", logEntry["key"])
	}
}

// TestParseLogLevel verifies parsing, including the info fallback.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestNopLogger verifies the nop logger writes nothing and chains.
func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	ctx := context.Background()

	// Must not panic
	l.Info(ctx, "a")
	l.Warn(ctx, "b")
	l.Error(ctx, "c")
	l.Debug(ctx, "d")

	if got := l.WithOp(OpMeta{Component: "cache", Name: "get"}); got == nil {
		t.Error("WithOp() on nop logger returned nil")
	}
}

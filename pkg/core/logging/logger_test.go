package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
)

func TestNew(t *testing.T) {
	logger := New("test-service")

	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.Name() != "test-service" {
		t.Errorf("name = %v, want test-service", logger.Name())
	}
}

func TestLogger_WithLevel(t *testing.T) {
	logger := New("test")

	tests := map[string]mdwlog.Level{
		"debug":   mdwlog.LevelDebug,
		"warn":    mdwlog.LevelWarn,
		"error":   mdwlog.LevelError,
		"unknown": mdwlog.LevelInfo,
	}
	for in, want := range tests {
		result := logger.WithLevel(in)
		if result.Name() != "test" {
			t.Errorf("name should be preserved: got %v", result.Name())
		}
		if result.GetLevel() != want {
			t.Errorf("WithLevel(%q) level = %v, want %v", in, result.GetLevel(), want)
		}
	}
}

func TestService(t *testing.T) {
	logger := Service("lovelace", "error", "text")

	if logger.Name() != "lovelace" {
		t.Errorf("name = %v, want lovelace", logger.Name())
	}
	if logger.GetLevel() != mdwlog.LevelError {
		t.Errorf("level = %v, want error", logger.GetLevel())
	}
	if New("x").GetLevel() != mdwlog.LevelInfo {
		t.Error("New() should log at info")
	}
}

func TestConsole(t *testing.T) {
	if got := Console("ct4pwd", false).GetLevel(); got != mdwlog.LevelWarn {
		t.Errorf("quiet level = %v, want warn", got)
	}
	if got := Console("ct4pwd", true).GetLevel(); got != mdwlog.LevelDebug {
		t.Errorf("verbose level = %v, want debug", got)
	}
}

func TestLogger_KeyValuesReachOutput(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LoggerConfig{ServiceName: "lovelace", Level: "debug", Format: "json", Output: &buf})
	logger := Wrap(base, "lovelace").With("component", "server")

	logger.Info("compile finished", "rows", 3, "success", true, "orphan")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "compile finished" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["component"] != "server" {
		t.Errorf("component = %v, want server", entry["component"])
	}
	if entry["rows"] != float64(3) {
		t.Errorf("rows = %v, want 3", entry["rows"])
	}
	if entry["logger"] != "lovelace" {
		t.Errorf("logger = %v, want lovelace", entry["logger"])
	}
	if _, ok := entry["orphan"]; ok {
		t.Error("dangling key should be dropped")
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		warnSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warning", false, true},
		{"error", false, false},
		{"invalid", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LoggerConfig{ServiceName: "t", Level: tt.level, Format: "text", Output: &buf})

			logger.Debug("debug-line")
			logger.Warn("warn-line")

			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.debugSeen {
				t.Errorf("debug visible = %v, want %v", got, tt.debugSeen)
			}
			if got := strings.Contains(out, "warn-line"); got != tt.warnSeen {
				t.Errorf("warn visible = %v, want %v", got, tt.warnSeen)
			}
		})
	}
}

func TestNewLogger_AdditionalOutputs(t *testing.T) {
	var primary, extra bytes.Buffer
	logger := NewLogger(LoggerConfig{
		ServiceName:       "t",
		Level:             "info",
		Format:            "text",
		Output:            &primary,
		AdditionalOutputs: []io.Writer{&extra},
	})

	logger.Info("fan-out")

	if !strings.Contains(primary.String(), "fan-out") {
		t.Errorf("primary output missing entry: %q", primary.String())
	}
	if !strings.Contains(extra.String(), "fan-out") {
		t.Errorf("additional output missing entry: %q", extra.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]mdwlog.Format{
		"json":    mdwlog.FormatJSON,
		"TEXT":    mdwlog.FormatText,
		"console": mdwlog.FormatConsole,
		"":        mdwlog.FormatJSON,
	}
	for in, want := range tests {
		if got := parseFormat(in); got != want {
			t.Errorf("parseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestToFields(t *testing.T) {
	if fields := toFields(); fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	fields := toFields("key1", "value1", "key2", 42)
	if fields["key1"] != "value1" {
		t.Errorf("fields[key1] = %v, want value1", fields["key1"])
	}
	if fields["key2"] != 42 {
		t.Errorf("fields[key2] = %v, want 42", fields["key2"])
	}

	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("Non-string key should be skipped, got %v fields", len(fields))
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := Wrap(NewLogger(LoggerConfig{ServiceName: "benchmark", Output: &buf}), "benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
		buf.Reset()
	}
}

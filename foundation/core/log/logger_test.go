// File: logger_test.go
// Title: Logger Tests
// Description: Tests for logger configuration, context fields, level
//              filtering, error logging and the performance timer.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-14
// Modified: 2026-10-02
//
// Change History:
// - 2026-09-14 v0.1.0: Initial logger tests
// - 2026-10-02 v0.2.0: LogError severity mapping

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithConfig(Config{Level: level, Format: format, Output: &buf, Name: "test"}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	logger := New()
	if logger.GetLevel() != DefaultLevel() {
		t.Errorf("New() level = %v, want %v", logger.GetLevel(), DefaultLevel())
	}
	if logger.contextFields == nil {
		t.Error("New() should initialize context fields")
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatJSON)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown too")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Errorf("levels = %v, %v", lines[0]["level"], lines[1]["level"])
	}
}

func TestWithFieldIsImmutable(t *testing.T) {
	base, buf := newBufferLogger(LevelInfo, FormatJSON)
	child := base.WithField("component", "parser").WithRequestID("req-7")

	base.Info("from base")
	child.Info("from child", Fields{"row": 2})

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if _, ok := lines[0]["component"]; ok {
		t.Error("base logger must not carry child fields")
	}
	if lines[1]["component"] != "parser" {
		t.Errorf("component = %v, want parser", lines[1]["component"])
	}
	if lines[1]["request_id"] != "req-7" {
		t.Errorf("request_id = %v, want req-7", lines[1]["request_id"])
	}
	if lines[1]["row"] != float64(2) {
		t.Errorf("row = %v, want 2", lines[1]["row"])
	}
	if lines[1]["logger"] != "test" {
		t.Errorf("logger = %v, want test", lines[1]["logger"])
	}
}

func TestLogError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantCode  interface{}
	}{
		{
			name:      "compile diagnostic logs at info",
			err:       mdwerror.New("orphan condition").WithCode(mdwerror.CodeVPLSyntax),
			wantLevel: "info",
			wantCode:  "VPL_SYNTAX",
		},
		{
			name:      "detector failure logs at warn",
			err:       fmt.Errorf("call: %w", mdwerror.New("timeout").WithCode(mdwerror.CodeDetectionFailed)),
			wantLevel: "warn",
			wantCode:  "DETECTION_FAILED",
		},
		{
			name:      "database failure logs at error",
			err:       mdwerror.New("locked").WithCode(mdwerror.CodeDatabaseError),
			wantLevel: "error",
			wantCode:  "DATABASE_ERROR",
		},
		{
			name:      "plain error logs at error",
			err:       errors.New("boom"),
			wantLevel: "error",
			wantCode:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(LevelTrace, FormatJSON)
			logger.LogError(tt.err)

			lines := decodeLines(t, buf)
			if len(lines) != 1 {
				t.Fatalf("got %d lines, want 1", len(lines))
			}
			if lines[0]["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %v", lines[0]["level"], tt.wantLevel)
			}
			if lines[0]["error_code"] != tt.wantCode {
				t.Errorf("error_code = %v, want %v", lines[0]["error_code"], tt.wantCode)
			}
		})
	}

	logger, buf := newBufferLogger(LevelTrace, FormatJSON)
	logger.LogError(nil)
	if buf.Len() != 0 {
		t.Error("LogError(nil) should not write")
	}
}

func TestTextFormat(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatText)
	logger.Info("rows grouped", Fields{"rows": 3, "anchor": 10.5})

	line := buf.String()
	for _, want := range []string{"[INF]", "{test}", "rows grouped", "[anchor=10.5 rows=3]"} {
		if !strings.Contains(line, want) {
			t.Errorf("text output %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("text output should end with newline")
	}
}

func TestConsoleFormatColors(t *testing.T) {
	entry := NewEntry(LevelError, "failed")
	data, err := NewConsoleFormatter().Format(entry)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), LevelError.Color()) {
		t.Errorf("console output should start with level color: %q", data)
	}

	plain := NewConsoleFormatter()
	plain.DisableColors = true
	data, _ = plain.Format(entry)
	if strings.Contains(string(data), "\033[") {
		t.Errorf("colors disabled but got %q", data)
	}
}

func TestTimer(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	timer := logger.StartTimer("compile").WithField("tokens", 5)
	if d := timer.Stop(); d <= 0 {
		t.Errorf("Stop() = %v, want > 0", d)
	}
	if d := timer.Stop(); d != 0 {
		t.Errorf("second Stop() = %v, want 0", d)
	}

	failed := logger.StartTimer("detect")
	failed.StopWithError(errors.New("unreachable"))

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["operation"] != "compile" || lines[0]["tokens"] != float64(5) {
		t.Errorf("timer fields = %v", lines[0])
	}
	if lines[1]["level"] != "warn" || lines[1]["error"] != "unreachable" {
		t.Errorf("failed timer = %v", lines[1])
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"WARNING", LevelWarn, false},
		{"", LevelInfo, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}

	if f, err := ParseFormat("console"); err != nil || f != FormatConsole {
		t.Errorf("ParseFormat(console) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

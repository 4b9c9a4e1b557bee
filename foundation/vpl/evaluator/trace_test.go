package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/msto63/ct4pwd/foundation/vpl/ast"
)

func TestTraceString(t *testing.T) {
	tests := []struct {
		name  string
		trace Trace
		want  string
	}{
		{"empty", Trace{}, "[]"},
		{"moves and actions", Trace{Move(ast.Up), Move(ast.Right), Act("jump")}, "[[0, -1], [1, 0], 'jump']"},
		{"label with apostrophe", Trace{Act("don't")}, `["don't"]`},
		{"label with both quotes", Trace{Act(`a'b"c`)}, `['a\'b"c']`},
		{"label with backslash", Trace{Act(`a\b`)}, `['a\\b']`},
		{"label with apostrophe and backslash", Trace{Act(`it's\n`)}, `["it's\\n"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trace.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTraceJSON(t *testing.T) {
	trace := Trace{Move(ast.Left), Act("paint")}
	data, err := json.Marshal(trace)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[[-1,0],"paint"]` {
		t.Errorf("Marshal() = %s", data)
	}

	var bad Trace
	if err := json.Unmarshal([]byte(`[[1,2,3]]`), &bad); err == nil {
		t.Error("three coordinates should be rejected")
	}
	if err := json.Unmarshal([]byte(`[true]`), &bad); err == nil {
		t.Error("boolean step should be rejected")
	}
}

func TestParseTrace(t *testing.T) {
	want := Trace{Move(ast.Up), Act("jump"), Move(ast.Right)}
	inputs := []string{
		`[[0,-1],"jump",[1,0]]`,
		`[[0, -1], 'jump', [1, 0]]`,
		want.String(),
	}
	for _, in := range inputs {
		got, err := ParseTrace(in)
		if err != nil {
			t.Errorf("ParseTrace(%q) error = %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTrace(%q) = %s", in, got)
		}
	}

	for _, label := range []string{`a\b`, `it's\n`, `a'b"c\`} {
		trace := Trace{Act(label)}
		got, err := ParseTrace(trace.String())
		if err != nil || !got.Equal(trace) {
			t.Errorf("ParseTrace(%s) = %v, %v", trace.String(), got, err)
		}
	}

	for _, in := range []string{`[[0, -1], 'jump]`, `not a trace`} {
		if _, err := ParseTrace(in); err == nil {
			t.Errorf("ParseTrace(%q) should fail", in)
		}
	}
}

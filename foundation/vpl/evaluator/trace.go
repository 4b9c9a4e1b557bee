// File: trace.go
// Title: Execution Trace
// Description: Trace steps, their JSON form and the textual list form
//              returned to clients ("[[0, -1], [1, 0], 'jump']").
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-18
// Modified: 2026-09-18
//
// Change History:
// - 2026-09-18 v0.1.0: Initial trace model

package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/msto63/ct4pwd/foundation/vpl/ast"
)

// StepKind distinguishes grid moves from actions
type StepKind int

const (
	StepMove StepKind = iota
	StepAction
)

// Step is one emitted trace element
type Step struct {
	Kind   StepKind
	Vector ast.Vector
	Label  string
}

// Move builds a move step
func Move(v ast.Vector) Step { return Step{Kind: StepMove, Vector: v} }

// Act builds an action step
func Act(label string) Step { return Step{Kind: StepAction, Label: label} }

func (s Step) String() string {
	if s.Kind == StepAction {
		return quote(s.Label)
	}
	return s.Vector.String()
}

// MarshalJSON renders a move as [dx,dy] and an action as its label
func (s Step) MarshalJSON() ([]byte, error) {
	if s.Kind == StepAction {
		return json.Marshal(s.Label)
	}
	return json.Marshal([2]int{s.Vector.DX, s.Vector.DY})
}

// UnmarshalJSON accepts [dx,dy] pairs and label strings
func (s *Step) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*s = Act(label)
		return nil
	}
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("trace step must be [dx, dy] or a label: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("trace step must have two coordinates, got %d", len(pair))
	}
	*s = Move(ast.Vector{DX: pair[0], DY: pair[1]})
	return nil
}

// Trace is the ordered output of an evaluation
type Trace []Step

// String renders the trace as a literal list, e.g. [[0, -1], 'jump']
func (t Trace) String() string {
	parts := make([]string, len(t))
	for i, s := range t {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Equal reports exact sequence equality
func (t Trace) Equal(other Trace) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// ParseTrace reads a trace from JSON ([[0,-1],"jump"]) or from the
// literal list form produced by Trace.String.
func ParseTrace(s string) (Trace, error) {
	var t Trace
	if err := json.Unmarshal([]byte(s), &t); err == nil {
		return t, nil
	}
	converted, err := singleToDoubleQuotes(s)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(converted), &t); err != nil {
		return nil, fmt.Errorf("invalid trace %q: %w", s, err)
	}
	return t, nil
}

// quote renders a label with single quotes, switching to double quotes
// when the label itself contains a single quote. Backslashes are escaped
// in both forms.
func quote(label string) string {
	escaped := strings.ReplaceAll(label, `\`, `\\`)
	if strings.Contains(label, "'") && !strings.Contains(label, `"`) {
		return `"` + escaped + `"`
	}
	return "'" + strings.ReplaceAll(escaped, "'", `\'`) + "'"
}

// singleToDoubleQuotes rewrites single-quoted string literals as JSON
// strings and leaves everything else untouched
func singleToDoubleQuotes(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			end := i + 1
			for end < len(s) && s[end] != '"' {
				if s[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(s) {
				return "", fmt.Errorf("unterminated string in %q", s)
			}
			b.WriteString(s[i : end+1])
			i = end
		case '\'':
			var lit strings.Builder
			j := i + 1
			for ; j < len(s) && s[j] != '\''; j++ {
				if s[j] == '\\' && j+1 < len(s) {
					j++
				}
				lit.WriteByte(s[j])
			}
			if j >= len(s) {
				return "", fmt.Errorf("unterminated string in %q", s)
			}
			encoded, _ := json.Marshal(lit.String())
			b.Write(encoded)
			i = j
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// File: token.go
// Title: Marker Tokens
// Description: Defines the Token value produced by the marker detector:
//              a kind, a decoded payload and a position in image pixel
//              space. Tokens are plain values and never mutated.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-16
// Modified: 2026-09-16
//
// Change History:
// - 2026-09-16 v0.1.0: Initial token model

// Package token defines the positioned marker tokens consumed by the
// structurer.
package token

import (
	"fmt"
	"strings"
)

// Kind identifies the instruction category printed on a marker
type Kind string

const (
	KindDirection Kind = "direction"
	KindLoop      Kind = "loop"
	KindIf        Kind = "if"
	KindElse      Kind = "else"
	KindCondition Kind = "condition"
	KindColor     Kind = "color"
	KindAction    Kind = "action"
)

// Kinds lists every known kind in declaration order
var Kinds = []Kind{KindDirection, KindLoop, KindIf, KindElse, KindCondition, KindColor, KindAction}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindDirection, KindLoop, KindIf, KindElse, KindCondition, KindColor, KindAction:
		return true
	}
	return false
}

// IsLeaf reports whether k produces a leaf statement on its own row
func (k Kind) IsLeaf() bool {
	return k == KindDirection || k == KindAction || k == KindColor
}

// IsHeader reports whether k opens an indented body
func (k Kind) IsHeader() bool {
	return k == KindLoop || k == KindIf || k == KindElse
}

func (k Kind) String() string { return string(k) }

// Direction payloads
const (
	Up    = "up"
	Down  = "down"
	Left  = "left"
	Right = "right"
)

// IsDirection reports whether value is a valid direction payload
func IsDirection(value string) bool {
	switch value {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Position is a point in image pixel space. Positions are only comparable
// within a single image.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Token is one decoded marker
type Token struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Value    string   `json:"value" yaml:"value"`
	Position Position `json:"position" yaml:"position"`
}

// New is shorthand for building a token at (x, y)
func New(kind Kind, value string, x, y float64) Token {
	return Token{Kind: kind, Value: value, Position: Position{X: x, Y: y}}
}

// Validate checks the payload against the rules of the token's kind.
// Loop counts are checked by the parser, which owns that diagnostic.
func (t Token) Validate() error {
	switch t.Kind {
	case KindDirection:
		if !IsDirection(t.Value) {
			return fmt.Errorf("unknown direction %q", t.Value)
		}
	case KindCondition, KindColor, KindAction:
		if strings.TrimSpace(t.Value) == "" {
			return fmt.Errorf("%s marker without label", t.Kind)
		}
	case KindLoop, KindIf, KindElse:
	default:
		return fmt.Errorf("unknown token kind %q", string(t.Kind))
	}
	return nil
}

func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("%s@(%.0f,%.0f)", t.Kind, t.Position.X, t.Position.Y)
	}
	return fmt.Sprintf("%s:%s@(%.0f,%.0f)", t.Kind, t.Value, t.Position.X, t.Position.Y)
}

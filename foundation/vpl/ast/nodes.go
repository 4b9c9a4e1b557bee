// File: nodes.go
// Title: AST Node Definitions
// Description: Node types, direction vectors and node constructors.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-17
// Modified: 2026-09-17
//
// Change History:
// - 2026-09-17 v0.1.0: Initial node definitions

package ast

import "fmt"

// Node is implemented by every syntax tree node
type Node interface {
	// Row returns the zero-based source row the node was built from, or
	// -1 for synthesised nodes
	Row() int

	node() // marker method, closes the set
}

// Vector is a unit step on the grid. Y grows downwards as in image space.
type Vector struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Unit vectors for the four direction markers
var (
	Up    = Vector{DX: 0, DY: -1}
	Down  = Vector{DX: 0, DY: 1}
	Left  = Vector{DX: -1, DY: 0}
	Right = Vector{DX: 1, DY: 0}
)

// VectorFor returns the vector of a direction payload
func VectorFor(direction string) (Vector, bool) {
	switch direction {
	case "up":
		return Up, true
	case "down":
		return Down, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	}
	return Vector{}, false
}

// Name returns the direction name of a unit vector, or its coordinates
func (v Vector) Name() string {
	switch v {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return v.String()
}

func (v Vector) String() string {
	return fmt.Sprintf("[%d, %d]", v.DX, v.DY)
}

// Sequence is an ordered list of statements at one depth
type Sequence struct {
	Nodes  []Node
	Source int
}

// Direction emits a grid step
type Direction struct {
	Vector Vector
	Source int
}

// Action emits an opaque named effect
type Action struct {
	Label  string
	Source int
}

// Loop repeats Body Count times
type Loop struct {
	Count  int
	Body   *Sequence
	Source int
}

// Conditional runs Then when Condition holds, otherwise Else. Else is nil
// when the program has no else branch.
type Conditional struct {
	Condition string
	Then      *Sequence
	Else      *Sequence
	Source    int
}

func (n *Sequence) Row() int    { return n.Source }
func (n *Direction) Row() int   { return n.Source }
func (n *Action) Row() int      { return n.Source }
func (n *Loop) Row() int        { return n.Source }
func (n *Conditional) Row() int { return n.Source }

func (*Sequence) node()    {}
func (*Direction) node()   {}
func (*Action) node()      {}
func (*Loop) node()        {}
func (*Conditional) node() {}

// NewSequence builds a synthesised sequence
func NewSequence(nodes ...Node) *Sequence {
	return &Sequence{Nodes: nodes, Source: -1}
}

// Len returns the number of statements
func (n *Sequence) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Nodes)
}

// File: doc.go
// Title: Visual Program AST Package Documentation
// Description: Closed set of immutable syntax tree nodes built by the
//              parser and walked by the evaluator.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-17
// Modified: 2026-09-17
//
// Change History:
// - 2026-09-17 v0.1.0: Initial AST implementation

/*
Package ast defines the syntax tree of a visual program.

The node set is closed: Node carries an unexported marker method, so only
the types of this package implement it and a type switch over Sequence,
Direction, Action, Loop and Conditional is exhaustive. Nodes hold no
parent pointers and are not modified after construction.

Format renders a tree as indented text for diagnostics and the CLI.
*/
package ast

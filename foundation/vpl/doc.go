// File: doc.go
// Title: Visual Program Language Package Documentation
// Description: Compiler for programs laid out as printed markers and
//              photographed: structurer, parser and evaluator behind one
//              engine.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-16
// Modified: 2026-10-04
//
// Change History:
// - 2026-09-16 v0.1.0: Stage packages
// - 2026-10-04 v0.2.0: Engine, profile loading and stage classification

/*
Package vpl compiles visual programs.

A visual program is a grid of printed markers. Each marker carries one
instruction (a direction, a loop count, if, else, a condition or color
label, or an action label). There are no delimiters: nesting is expressed
by indentation, so the compiler recovers scopes from pixel geometry.

# Pipeline

	tokens ──► structurer ──► rows (depth annotated)
	                              │
	                              ▼
	          evaluator ◄────── parser ──► ast
	              │
	              ▼
	      trace | verdict

Each stage runs synchronously, returns its own typed error on malformed
input (structurer.Error, parser.Error, evaluator.Error) and never panics
on user input. An Engine owns one instance of each stage and is safe for
concurrent use: stages keep all per-call state on the stack.

# Example

	engine := vpl.New(vpl.DefaultOptions())
	out, err := engine.Compile([]token.Token{
		token.New(token.KindLoop, "3", 100, 100),
		token.New(token.KindDirection, token.Right, 150, 160),
	}, evaluator.TraceMode())
	if err != nil {
		return err
	}
	fmt.Println(out.Result.Trace) // [[1, 0], [1, 0], [1, 0]]

# Profiles

OptionsFromConfig reads tuning values from a TOML or YAML profile:

	[pipeline]
	row_tolerance = 20
	band_width = 50
	overlap_tolerance = 8
	max_loop_count = 100
	max_trace_length = 2000

	[conditions]
	path_clear = true
*/
package vpl

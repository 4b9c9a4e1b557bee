// File: evaluator.go
// Title: Visual Program Evaluator
// Description: Walks the syntax tree depth first, unrolling loops and
//              taking conditional branches, and produces a trace or a
//              verdict against an expected trace.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-18
// Modified: 2026-09-18
//
// Change History:
// - 2026-09-18 v0.1.0: Initial evaluator implementation

// Package evaluator executes visual program syntax trees.
package evaluator

import (
	"fmt"
	"strings"

	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
	"github.com/msto63/ct4pwd/foundation/vpl/ast"
)

// Safety ceilings applied when Options leave them zero
const (
	DefaultMaxLoopCount   = 1000
	DefaultMaxTraceLength = 10000
)

// Verdict prefixes. Clients receive messages with the prefix removed.
const (
	CorrectPrefix   = "✓ CORRECT: "
	IncorrectPrefix = "✗ INCORRECT: "
)

// State is the cursor position reached by the moves emitted so far.
// Steps counts every emitted trace element.
type State struct {
	X     int
	Y     int
	Steps int
}

// ConditionResolver decides conditional branches. ok is false for labels
// the resolver does not know.
type ConditionResolver interface {
	Resolve(label string, state State) (value bool, ok bool)
}

// ResolverFunc adapts a function to ConditionResolver
type ResolverFunc func(label string, state State) (bool, bool)

// Resolve calls f
func (f ResolverFunc) Resolve(label string, state State) (bool, bool) {
	return f(label, state)
}

// alwaysTrue takes every then branch
var alwaysTrue = ResolverFunc(func(string, State) (bool, bool) { return true, true })

// Options configures the evaluator
type Options struct {
	Logger         *mdwlog.Logger
	MaxLoopCount   int
	MaxTraceLength int
	Conditions     ConditionResolver
}

// Mode selects between plain tracing and verification
type Mode struct {
	verify   bool
	expected Trace
}

// TraceMode returns the plain tracing mode
func TraceMode() Mode { return Mode{} }

// VerifyMode compares the produced trace against expected
func VerifyMode(expected Trace) Mode {
	return Mode{verify: true, expected: append(Trace(nil), expected...)}
}

// IsVerify reports whether the mode verifies
func (m Mode) IsVerify() bool { return m.verify }

// Expected returns the expected trace of a verify mode
func (m Mode) Expected() Trace { return m.expected }

// Verdict is the outcome of verify mode
type Verdict struct {
	Correct bool
	Message string
}

// Text returns the message without its correctness prefix
func (v Verdict) Text() string {
	return StripPrefix(v.Message)
}

// StripPrefix removes a leading verdict prefix from msg
func StripPrefix(msg string) string {
	msg = strings.TrimPrefix(msg, CorrectPrefix)
	return strings.TrimPrefix(msg, IncorrectPrefix)
}

// Result holds the produced trace, the final cursor state and, in verify
// mode, the verdict
type Result struct {
	Trace   Trace
	Final   State
	Verdict *Verdict
}

// Evaluator executes syntax trees. It holds no per-call state; every call
// to Evaluate uses a fresh accumulator.
type Evaluator struct {
	logger  *mdwlog.Logger
	options Options
}

// New creates an evaluator with the given options
func New(opts Options) *Evaluator {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.MaxLoopCount <= 0 {
		opts.MaxLoopCount = DefaultMaxLoopCount
	}
	if opts.MaxTraceLength <= 0 {
		opts.MaxTraceLength = DefaultMaxTraceLength
	}
	if opts.Conditions == nil {
		opts.Conditions = alwaysTrue
	}
	return &Evaluator{
		logger:  opts.Logger.WithField("component", "evaluator"),
		options: opts,
	}
}

// Evaluate runs the tree in the given mode
func (e *Evaluator) Evaluate(root ast.Node, mode Mode) (*Result, error) {
	r := &run{opts: e.options}
	if err := r.exec(root); err != nil {
		e.logger.Debug("evaluation failed", mdwlog.Fields{"error": err.Error(), "steps": len(r.trace)})
		return nil, err
	}

	result := &Result{Trace: r.trace, Final: r.state}
	if r.trace == nil {
		result.Trace = Trace{}
	}
	if mode.verify {
		v := verify(result.Trace, mode.expected)
		result.Verdict = &v
	}

	e.logger.Debug("evaluation finished", mdwlog.Fields{
		"steps":  len(result.Trace),
		"verify": mode.verify,
	})
	return result, nil
}

// run is the accumulator of one evaluation
type run struct {
	opts  Options
	trace Trace
	state State
}

func (r *run) exec(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Sequence:
		if n == nil {
			return nil
		}
		for _, child := range n.Nodes {
			if err := r.exec(child); err != nil {
				return err
			}
		}
		return nil

	case *ast.Direction:
		if err := r.emit(Move(n.Vector), n.Source); err != nil {
			return err
		}
		r.state.X += n.Vector.DX
		r.state.Y += n.Vector.DY
		return nil

	case *ast.Action:
		return r.emit(Act(n.Label), n.Source)

	case *ast.Loop:
		if n.Count > r.opts.MaxLoopCount {
			return newError(CodeLoopCountExceeded, n.Source,
				"loop count %d exceeds the limit of %d", n.Count, r.opts.MaxLoopCount)
		}
		for i := 0; i < n.Count; i++ {
			if err := r.exec(n.Body); err != nil {
				return err
			}
		}
		return nil

	case *ast.Conditional:
		value, ok := r.opts.Conditions.Resolve(n.Condition, r.state)
		if !ok {
			return newError(CodeUnknownCondition, n.Source, "unknown condition %q", n.Condition)
		}
		if value {
			return r.exec(n.Then)
		}
		if n.Else != nil {
			return r.exec(n.Else)
		}
		return nil

	default:
		return fmt.Errorf("evaluator: unhandled node %T", n)
	}
}

func (r *run) emit(s Step, row int) error {
	if len(r.trace) >= r.opts.MaxTraceLength {
		return newError(CodeTraceLimitExceeded, row,
			"trace exceeds the limit of %d steps", r.opts.MaxTraceLength)
	}
	r.trace = append(r.trace, s)
	r.state.Steps++
	return nil
}

// verify compares actual against expected and names the first mismatch
func verify(actual, expected Trace) Verdict {
	if actual.Equal(expected) {
		return Verdict{Correct: true, Message: CorrectPrefix + actual.String()}
	}

	for i := 0; i < len(actual) && i < len(expected); i++ {
		if actual[i] != expected[i] {
			return Verdict{Message: fmt.Sprintf("%sstep %d: expected %s, got %s",
				IncorrectPrefix, i+1, expected[i], actual[i])}
		}
	}
	if len(actual) < len(expected) {
		return Verdict{Message: fmt.Sprintf("%sexpected %d steps, got %d; step %d should be %s",
			IncorrectPrefix, len(expected), len(actual), len(actual)+1, expected[len(actual)])}
	}
	return Verdict{Message: fmt.Sprintf("%sexpected %d steps, got %d; unexpected step %d: %s",
		IncorrectPrefix, len(expected), len(actual), len(expected)+1, actual[len(expected)])}
}

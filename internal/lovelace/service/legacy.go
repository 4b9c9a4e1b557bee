package service

import (
	"github.com/msto63/ct4pwd/foundation/vpl/ast"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
)

// directionsOnly reproduces the classic shortcut: when any direction
// marker was detected, every other marker is ignored and the directions
// are emitted in detection order. ok is false when there is no direction.
func directionsOnly(tokens []token.Token) (evaluator.Trace, bool) {
	var trace evaluator.Trace
	for _, tok := range tokens {
		if tok.Kind != token.KindDirection {
			continue
		}
		v, found := ast.VectorFor(tok.Value)
		if !found {
			continue
		}
		trace = append(trace, evaluator.Move(v))
	}
	return trace, len(trace) > 0
}

// File: parser.go
// Title: Visual Program Recursive Descent Parser
// Description: Builds the syntax tree from the depth-annotated row stream.
//              Scopes are recovered purely from depth: a header's body is
//              every following row deeper than the header, and the first
//              row at the header's depth or shallower closes it.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-17
// Modified: 2026-09-17
//
// Change History:
// - 2026-09-17 v0.1.0: Initial parser implementation

// Package parser builds a syntax tree from structured marker rows.
package parser

import (
	"strconv"

	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
	"github.com/msto63/ct4pwd/foundation/vpl/ast"
	"github.com/msto63/ct4pwd/foundation/vpl/structurer"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
)

// Options configures parser behavior
type Options struct {
	Logger *mdwlog.Logger
}

// Parser implements recursive descent over structured rows. A Parser
// keeps no per-call state; the cursor travels through the call chain.
type Parser struct {
	logger *mdwlog.Logger
}

// New creates a new parser with the given options
func New(opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	return &Parser{logger: opts.Logger.WithField("component", "parser")}
}

// scope says which block is being parsed; it decides where a condition
// row may appear
type scope int

const (
	scopeTop scope = iota
	scopeLoop
	scopeThen
	scopeElse
)

// block is the outcome of parsing one indented body
type block struct {
	body      *ast.Sequence
	condition string
	condRow   int
}

// Parse builds the program from a structured stream. The first violation
// aborts parsing; no partial tree is returned.
func (p *Parser) Parse(entries []structurer.Entry) (*ast.Sequence, error) {
	lines := structurer.Lines(entries)
	if len(lines) == 0 {
		return &ast.Sequence{Source: -1}, nil
	}

	top, _, err := p.parseBlock(lines, 0, 0, scopeTop, false)
	if err != nil {
		p.logger.Debug("parse failed", mdwlog.Fields{"error": err.Error()})
		return nil, err
	}

	p.logger.Debug("program parsed", mdwlog.Fields{
		"rows":       len(lines),
		"statements": top.body.Len(),
	})
	return top.body, nil
}

// parseBlock parses consecutive statements at exactly depth, starting at
// pos, and returns the cursor of the first row shallower than depth.
// conditionTaken reports whether the enclosing if header already names
// its condition.
func (p *Parser) parseBlock(lines []structurer.Line, pos, depth int, sc scope, conditionTaken bool) (block, int, error) {
	b := block{body: &ast.Sequence{Source: lines[pos].Row}, condRow: -1}

	for pos < len(lines) && lines[pos].Depth >= depth {
		line := lines[pos]
		if line.Depth > depth {
			return block{}, pos, newError(CodeUnexpectedToken, line.Row,
				"unexpected indentation: depth %d inside a block at depth %d", line.Depth, depth)
		}

		switch lead := line.Lead(); lead.Kind {
		case token.KindDirection, token.KindAction, token.KindColor:
			leaves, err := parseLeaves(line)
			if err != nil {
				return block{}, pos, err
			}
			b.body.Nodes = append(b.body.Nodes, leaves...)
			pos++

		case token.KindLoop:
			node, next, err := p.parseLoop(lines, pos)
			if err != nil {
				return block{}, pos, err
			}
			b.body.Nodes = append(b.body.Nodes, node)
			pos = next

		case token.KindIf:
			node, next, err := p.parseConditional(lines, pos)
			if err != nil {
				return block{}, next, err
			}
			b.body.Nodes = append(b.body.Nodes, node)
			pos = next

		case token.KindCondition:
			if len(line.Tokens) != 1 {
				return block{}, pos, newError(CodeUnexpectedToken, line.Row, "condition must stand alone on its row")
			}
			if sc != scopeThen {
				return block{}, pos, newError(CodeOrphanCondition, line.Row,
					"condition %q outside an if block", lead.Value)
			}
			if conditionTaken || b.condRow >= 0 {
				return block{}, pos, newError(CodeUnexpectedToken, line.Row,
					"second condition %q for the same if", lead.Value)
			}
			if b.body.Len() > 0 {
				return block{}, pos, newError(CodeOrphanCondition, line.Row,
					"condition %q after the first statement of the then branch", lead.Value)
			}
			b.condition = lead.Value
			b.condRow = line.Row
			pos++

		case token.KindElse:
			return block{}, pos, newError(CodeUnexpectedToken, line.Row, "else without matching if")

		default:
			return block{}, pos, newError(CodeUnexpectedToken, line.Row, "unknown token kind %q", lead.Kind)
		}
	}
	return b, pos, nil
}

func parseLeaves(line structurer.Line) ([]ast.Node, error) {
	nodes := make([]ast.Node, 0, len(line.Tokens))
	for _, t := range line.Tokens {
		switch t.Kind {
		case token.KindDirection:
			v, ok := ast.VectorFor(t.Value)
			if !ok {
				return nil, newError(CodeUnexpectedToken, line.Row, "unknown direction %q", t.Value)
			}
			nodes = append(nodes, &ast.Direction{Vector: v, Source: line.Row})
		case token.KindAction, token.KindColor:
			nodes = append(nodes, &ast.Action{Label: t.Value, Source: line.Row})
		default:
			return nil, newError(CodeUnexpectedToken, line.Row, "%s marker inside a row of instructions", t.Kind)
		}
	}
	return nodes, nil
}

func (p *Parser) parseLoop(lines []structurer.Line, pos int) (ast.Node, int, error) {
	header := lines[pos]
	if len(header.Tokens) != 1 {
		return nil, pos, newError(CodeUnexpectedToken, header.Row, "loop must stand alone on its row")
	}

	raw := header.Lead().Value
	count, err := strconv.Atoi(raw)
	if err != nil || count <= 0 {
		return nil, pos, newError(CodeInvalidLoopCount, header.Row, "loop count %q is not a positive integer", raw)
	}

	body, next, err := p.parseBody(lines, pos, scopeLoop, false)
	if err != nil {
		return nil, next, err
	}
	return &ast.Loop{Count: count, Body: body.body, Source: header.Row}, next, nil
}

func (p *Parser) parseConditional(lines []structurer.Line, pos int) (ast.Node, int, error) {
	header := lines[pos]
	condition := ""
	if len(header.Tokens) == 2 {
		condition = header.Tokens[1].Value
	} else if len(header.Tokens) > 2 {
		return nil, pos, newError(CodeUnexpectedToken, header.Row, "if header holds %d markers", len(header.Tokens))
	}
	if len(header.Tokens) == 2 {
		if k := header.Tokens[1].Kind; k != token.KindCondition && k != token.KindColor {
			return nil, pos, newError(CodeUnexpectedToken, header.Row, "%s marker cannot follow if", k)
		}
	}

	then, next, err := p.parseBody(lines, pos, scopeThen, condition != "")
	if err != nil {
		return nil, next, err
	}
	if then.condRow >= 0 {
		condition = then.condition
	}
	if condition == "" {
		return nil, next, newError(CodeMissingCondition, header.Row, "if without condition")
	}

	node := &ast.Conditional{Condition: condition, Then: then.body, Source: header.Row}

	if next < len(lines) && lines[next].Depth == header.Depth && lines[next].Lead().Kind == token.KindElse {
		elseLine := lines[next]
		if len(elseLine.Tokens) != 1 {
			return nil, next, newError(CodeUnexpectedToken, elseLine.Row, "else must stand alone on its row")
		}
		elseBody, after, err := p.parseBody(lines, next, scopeElse, false)
		if err != nil {
			return nil, after, err
		}
		node.Else = elseBody.body
		next = after
	}
	return node, next, nil
}

// parseBody parses the rows nested under the header at pos. A header
// without deeper rows, or whose body yields no statement, is an
// EmptyBlockBody.
func (p *Parser) parseBody(lines []structurer.Line, pos int, sc scope, conditionTaken bool) (block, int, error) {
	header := lines[pos]
	kind := header.Lead().Kind
	if pos+1 >= len(lines) || lines[pos+1].Depth <= header.Depth {
		return block{}, pos + 1, newError(CodeEmptyBlockBody, header.Row, "%s without an indented body", kind)
	}

	b, next, err := p.parseBlock(lines, pos+1, header.Depth+1, sc, conditionTaken)
	if err != nil {
		return block{}, next, err
	}
	if b.body.Len() == 0 {
		return block{}, next, newError(CodeEmptyBlockBody, header.Row, "%s body holds no instruction", kind)
	}
	return b, next, nil
}

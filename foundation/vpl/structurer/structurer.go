// File: structurer.go
// Title: Spatial Structurer
// Description: Groups tokens into rows, orders them, validates row shape
//              and assigns indentation depths.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-16
// Modified: 2026-09-16
//
// Change History:
// - 2026-09-16 v0.1.0: Initial implementation

package structurer

import (
	"math"
	"sort"

	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
)

// Defaults applied by New for zero option values
const (
	DefaultRowTolerance     = 20.0
	DefaultOverlapTolerance = 8.0
)

// Options configures the structurer
type Options struct {
	Logger *mdwlog.Logger

	// RowTolerance is the maximum y distance between a token and the
	// running mean of a row for the token to join that row
	RowTolerance float64

	// Banding maps offsets to depths. A zero Width is estimated per image.
	Banding Banding

	// OverlapTolerance is the minimum x distance between neighbouring
	// tokens of one row
	OverlapTolerance float64
}

// Entry is one token of the structured stream, annotated with the row it
// belongs to and the depth of that row
type Entry struct {
	Row   int
	Depth int
	Token token.Token
}

// Line is one row of the structured stream
type Line struct {
	Row    int
	Depth  int
	Tokens []token.Token
}

// Lead returns the leading token of the line
func (l Line) Lead() token.Token {
	return l.Tokens[0]
}

// Structurer turns detected tokens into a depth-annotated row stream. It
// holds no per-call state and is safe for concurrent use.
type Structurer struct {
	logger  *mdwlog.Logger
	options Options
}

// New creates a structurer with the given options
func New(opts Options) *Structurer {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = DefaultRowTolerance
	}
	if opts.OverlapTolerance <= 0 {
		opts.OverlapTolerance = DefaultOverlapTolerance
	}
	return &Structurer{
		logger:  opts.Logger.WithField("component", "structurer"),
		options: opts,
	}
}

// Options returns the effective options
func (s *Structurer) Options() Options {
	return s.options
}

// Structure orders tokens into rows and assigns each row a depth. The
// result lists tokens row by row, left to right inside each row.
func (s *Structurer) Structure(tokens []token.Token) ([]Entry, error) {
	if len(tokens) == 0 {
		return nil, newError(CodeNoTokensDetected, -1, "no tokens detected")
	}
	for i, t := range tokens {
		if err := t.Validate(); err != nil {
			return nil, newError(CodeInvalidToken, -1, "token %d: %v", i, err)
		}
	}

	rows := groupRows(tokens, s.options.RowTolerance)

	banding := s.options.Banding
	if banding.Width <= 0 {
		banding.Width = EstimateBandWidth(tokens, s.options.RowTolerance, s.options.OverlapTolerance)
	}

	anchor := math.Inf(1)
	for _, t := range tokens {
		anchor = math.Min(anchor, t.Position.X)
	}

	entries := make([]Entry, 0, len(tokens))
	prevDepth := 0
	for i, r := range rows {
		if err := s.checkRow(i, r.tokens); err != nil {
			return nil, err
		}

		depth := banding.Depth(r.tokens[0].Position.X - anchor)
		if depth > prevDepth+1 {
			return nil, newError(CodeInvalidIndentationJump, i,
				"indentation jumps from depth %d to %d", prevDepth, depth)
		}
		prevDepth = depth

		for _, t := range r.tokens {
			entries = append(entries, Entry{Row: i, Depth: depth, Token: t})
		}
	}

	s.logger.Debug("tokens structured", mdwlog.Fields{
		"tokens":     len(tokens),
		"rows":       len(rows),
		"anchor_x":   anchor,
		"band_width": banding.Width,
	})
	return entries, nil
}

// checkRow enforces the allowed row shapes on x-sorted tokens
func (s *Structurer) checkRow(index int, row []token.Token) error {
	for i := 1; i < len(row); i++ {
		if row[i].Position.X-row[i-1].Position.X < s.options.OverlapTolerance {
			return newError(CodeAmbiguousRow, index, "markers %s and %s overlap", row[i-1], row[i])
		}
	}
	if len(row) == 1 {
		return nil
	}

	lead := row[0]
	if lead.Kind == token.KindIf {
		if len(row) == 2 && (row[1].Kind == token.KindCondition || row[1].Kind == token.KindColor) {
			return nil
		}
		return newError(CodeAmbiguousRow, index, "if header may only be followed by one condition or color")
	}
	for _, t := range row {
		if !t.Kind.IsLeaf() {
			return newError(CodeAmbiguousRow, index, "%s marker shares a row with other markers", t.Kind)
		}
	}
	return nil
}

// Lines groups a structured stream by row, preserving order
func Lines(entries []Entry) []Line {
	var lines []Line
	for _, e := range entries {
		if n := len(lines); n > 0 && lines[n-1].Row == e.Row {
			lines[n-1].Tokens = append(lines[n-1].Tokens, e.Token)
			continue
		}
		lines = append(lines, Line{Row: e.Row, Depth: e.Depth, Tokens: []token.Token{e.Token}})
	}
	return lines
}

type row struct {
	meanY  float64
	tokens []token.Token
}

// groupRows clusters tokens by y. Rows come back ordered by mean y and
// their tokens by x.
func groupRows(tokens []token.Token, tolerance float64) []row {
	sorted := append([]token.Token(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position.Y != sorted[j].Position.Y {
			return sorted[i].Position.Y < sorted[j].Position.Y
		}
		return sorted[i].Position.X < sorted[j].Position.X
	})

	var rows []row
	for _, t := range sorted {
		if n := len(rows); n > 0 && math.Abs(t.Position.Y-rows[n-1].meanY) < tolerance {
			r := &rows[n-1]
			r.tokens = append(r.tokens, t)
			r.meanY += (t.Position.Y - r.meanY) / float64(len(r.tokens))
			continue
		}
		rows = append(rows, row{meanY: t.Position.Y, tokens: []token.Token{t}})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].meanY < rows[j].meanY })
	for _, r := range rows {
		sort.SliceStable(r.tokens, func(i, j int) bool {
			return r.tokens[i].Position.X < r.tokens[j].Position.X
		})
	}
	return rows
}

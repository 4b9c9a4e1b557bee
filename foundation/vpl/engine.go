// File: engine.go
// Title: Visual Program Engine
// Description: Runs structure, parse and evaluate in sequence and reports
//              every intermediate product.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-19
// Modified: 2026-10-04
//
// Change History:
// - 2026-09-19 v0.1.0: Initial engine
// - 2026-10-04 v0.2.0: Options from configuration profiles

package vpl

import (
	"errors"

	mdwconfig "github.com/msto63/ct4pwd/foundation/core/config"
	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
	"github.com/msto63/ct4pwd/foundation/vpl/ast"
	"github.com/msto63/ct4pwd/foundation/vpl/conditions"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
	"github.com/msto63/ct4pwd/foundation/vpl/parser"
	"github.com/msto63/ct4pwd/foundation/vpl/structurer"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
)

// Options configures all three stages
type Options struct {
	Logger *mdwlog.Logger

	RowTolerance     float64
	BandWidth        float64
	OverlapTolerance float64

	MaxLoopCount   int
	MaxTraceLength int

	// Conditions resolves if markers. Nil means every condition holds.
	Conditions evaluator.ConditionResolver
}

// DefaultOptions returns the stage defaults with band width estimation
func DefaultOptions() Options {
	return Options{
		RowTolerance:     structurer.DefaultRowTolerance,
		OverlapTolerance: structurer.DefaultOverlapTolerance,
		MaxLoopCount:     evaluator.DefaultMaxLoopCount,
		MaxTraceLength:   evaluator.DefaultMaxTraceLength,
	}
}

// OptionsFromConfig reads pipeline.* tuning keys and the conditions table
// of a profile. Missing keys keep their defaults. A non-empty conditions
// table is consulted before the built-in cursor predicates, and labels
// found in neither are unknown.
func OptionsFromConfig(cfg *mdwconfig.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.RowTolerance = cfg.GetFloat("pipeline.row_tolerance", opts.RowTolerance)
	opts.BandWidth = cfg.GetFloat("pipeline.band_width", opts.BandWidth)
	opts.OverlapTolerance = cfg.GetFloat("pipeline.overlap_tolerance", opts.OverlapTolerance)
	opts.MaxLoopCount = cfg.GetInt("pipeline.max_loop_count", opts.MaxLoopCount)
	opts.MaxTraceLength = cfg.GetInt("pipeline.max_trace_length", opts.MaxTraceLength)

	if table := cfg.GetBoolMap("conditions"); len(table) > 0 {
		opts.Conditions = TableResolver(table)
	}
	return opts
}

// TableResolver resolves labels from table first, then from the built-in
// cursor predicates
func TableResolver(table map[string]bool) evaluator.ConditionResolver {
	return conditions.Chain(
		conditions.NewTable(table),
		conditions.NewRegistry(conditions.Options{Logger: mdwlog.GetDefault(), WithBuiltins: true}),
	)
}

// Compilation holds every product of a successful compile
type Compilation struct {
	Entries []structurer.Entry
	Program *ast.Sequence
	Result  *evaluator.Result
}

// Engine runs the full pipeline
type Engine struct {
	structurer *structurer.Structurer
	parser     *parser.Parser
	evaluator  *evaluator.Evaluator
	logger     *mdwlog.Logger
	options    Options
}

// New creates an engine
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	logger := opts.Logger.WithField("component", "vpl-engine")

	return &Engine{
		structurer: structurer.New(structurer.Options{
			Logger:           opts.Logger,
			RowTolerance:     opts.RowTolerance,
			Banding:          structurer.Banding{Width: opts.BandWidth},
			OverlapTolerance: opts.OverlapTolerance,
		}),
		parser: parser.New(parser.Options{Logger: opts.Logger}),
		evaluator: evaluator.New(evaluator.Options{
			Logger:         opts.Logger,
			MaxLoopCount:   opts.MaxLoopCount,
			MaxTraceLength: opts.MaxTraceLength,
			Conditions:     opts.Conditions,
		}),
		logger:  logger,
		options: opts,
	}
}

// Options returns the options the engine was built with
func (e *Engine) Options() Options {
	return e.options
}

// Compile runs structure, parse and evaluate. Stage errors are returned
// unchanged; use StageOf to tell them apart.
func (e *Engine) Compile(tokens []token.Token, mode evaluator.Mode) (*Compilation, error) {
	timer := e.logger.StartTimer("compile").WithField("tokens", len(tokens))

	entries, err := e.structurer.Structure(tokens)
	if err != nil {
		timer.StopWithError(err)
		return nil, err
	}
	program, err := e.parser.Parse(entries)
	if err != nil {
		timer.StopWithError(err)
		return nil, err
	}
	result, err := e.evaluator.Evaluate(program, mode)
	if err != nil {
		timer.StopWithError(err)
		return nil, err
	}

	timer.WithField("steps", len(result.Trace)).Stop()
	return &Compilation{Entries: entries, Program: program, Result: result}, nil
}

// Structure runs only the structurer
func (e *Engine) Structure(tokens []token.Token) ([]structurer.Entry, error) {
	return e.structurer.Structure(tokens)
}

// Stage names reported by StageOf
const (
	StageStructure = "structure"
	StageParse     = "parse"
	StageEvaluate  = "evaluate"
)

// StageOf names the pipeline stage that produced err, or "" when err is
// not a stage error
func StageOf(err error) string {
	var (
		se *structurer.Error
		pe *parser.Error
		ee *evaluator.Error
	)
	switch {
	case errors.As(err, &se):
		return StageStructure
	case errors.As(err, &pe):
		return StageParse
	case errors.As(err, &ee):
		return StageEvaluate
	}
	return ""
}

// RowOf returns the source row attached to a stage error, or -1
func RowOf(err error) int {
	var (
		se *structurer.Error
		pe *parser.Error
		ee *evaluator.Error
	)
	switch {
	case errors.As(err, &se):
		return se.Row
	case errors.As(err, &pe):
		return pe.Row
	case errors.As(err, &ee):
		return ee.Row
	}
	return -1
}

package service

import (
	"errors"
	"fmt"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
	"github.com/msto63/ct4pwd/foundation/vpl/parser"
	"github.com/msto63/ct4pwd/foundation/vpl/structurer"
)

// Diagnostic describes a failed compile for clients and logs
type Diagnostic struct {
	Stage  string
	Code   string
	Row    int // 1-based, 0 when the error has no row
	Output string
	Err    *mdwerror.Error
}

// Diagnose turns a pipeline error into a Diagnostic. Stage errors map to
// the VPL_* codes; anything else is internal.
func Diagnose(err error) Diagnostic {
	stage := vpl.StageOf(err)
	row := vpl.RowOf(err)

	var code mdwerror.Code
	var stageCode string
	var (
		se *structurer.Error
		pe *parser.Error
		ee *evaluator.Error
	)
	switch {
	case errors.As(err, &se):
		code, stageCode = mdwerror.CodeVPLStructure, string(se.Code)
	case errors.As(err, &pe):
		code, stageCode = mdwerror.CodeVPLSyntax, string(pe.Code)
	case errors.As(err, &ee):
		code, stageCode = mdwerror.CodeVPLExecution, string(ee.Code)
	default:
		code = mdwerror.CodeInternal
	}

	wrapped := mdwerror.Wrap(err, "compile failed").
		WithCode(code).
		WithOperation("compile")
	if stage != "" {
		wrapped = wrapped.WithDetail("stage", stage).WithDetail("stage_code", stageCode)
	}
	if row >= 0 {
		wrapped = wrapped.WithDetail("row", row+1)
	}

	d := Diagnostic{
		Stage:  stage,
		Code:   stageCode,
		Output: Describe(err),
		Err:    wrapped,
	}
	if row >= 0 {
		d.Row = row + 1
	}
	return d
}

// Describe renders err as the text shown to a student
func Describe(err error) string {
	switch vpl.StageOf(err) {
	case vpl.StageStructure:
		return fmt.Sprintf("Layout error: %v", err)
	case vpl.StageParse:
		return fmt.Sprintf("Syntax error: %v", err)
	case vpl.StageEvaluate:
		return fmt.Sprintf("Execution error: %v", err)
	}
	return fmt.Sprintf("Error: %v", err)
}

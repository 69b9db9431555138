package pipeline

import (
	"errors"

	"github.com/funvibe/blockjit/internal/codegen"
	"github.com/funvibe/blockjit/internal/config"
	"github.com/funvibe/blockjit/internal/diagnostics"
	"github.com/funvibe/blockjit/internal/ir"
	"github.com/funvibe/blockjit/internal/runtime"
)

// Processor is one pipeline stage
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries a program through the stages
type PipelineContext struct {
	FilePath string
	Source   []byte
	Options  *config.Options

	Program *ir.Program
	Built   *runtime.Program
	Report  *runtime.Report

	Errors []*diagnostics.DiagnosticError
}

// NewPipelineContext creates a context for the program at path. Source may
// be set instead to skip reading the file.
func NewPipelineContext(path string, opts *config.Options) *PipelineContext {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	return &PipelineContext{FilePath: path, Options: opts}
}

// AddError records err as a diagnostic. Errors that are not already
// diagnostics get code and are located where possible.
func (ctx *PipelineContext) AddError(code diagnostics.ErrorCode, err error) {
	var d *diagnostics.DiagnosticError
	var ve *ir.ValidationError
	var ce *codegen.ContractError
	switch {
	case errors.As(err, &d):
	case errors.As(err, &ve):
		d = diagnostics.NewError(code, diagnostics.Location{Function: ve.Function, Instr: ve.Index}, ve.Msg)
	case errors.As(err, &ce):
		d = diagnostics.NewError(code, diagnostics.Location{Function: ce.Function, Instr: ce.Instr}, ce.Msg)
	default:
		d = diagnostics.NewError(code, diagnostics.NoLocation, err.Error())
	}
	if d.File == "" {
		d.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, d)
}

package backend

import (
	"strings"

	"github.com/funvibe/blockjit/internal/diagnostics"
	"github.com/funvibe/blockjit/internal/pipeline"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// Scripts that built still run when others failed
	if ctx.Built == nil {
		return ctx
	}

	report, err := p.Backend.Run(ctx)
	if err != nil {
		p.handleError(ctx, err)
		return ctx
	}
	ctx.Report = report
	return ctx
}

func (p *ExecutionProcessor) handleError(ctx *pipeline.PipelineContext, err error) {
	msg := strings.TrimPrefix(err.Error(), "runtime error: ")
	ctx.Errors = append(ctx.Errors, &diagnostics.DiagnosticError{
		Code:     diagnostics.ErrR001,
		File:     ctx.FilePath,
		Location: diagnostics.NoLocation,
		Message:  msg,
	})
}

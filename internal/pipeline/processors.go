package pipeline

import (
	"fmt"
	"os"

	"github.com/funvibe/blockjit/internal/codegen"
	"github.com/funvibe/blockjit/internal/diagnostics"
	"github.com/funvibe/blockjit/internal/ir"
	"github.com/funvibe/blockjit/internal/runtime"
)

// LoadProcessor reads and parses the program file
type LoadProcessor struct{}

func (LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Source == nil {
		data, err := os.ReadFile(ctx.FilePath)
		if err != nil {
			ctx.AddError(diagnostics.ErrL001, err)
			return ctx
		}
		ctx.Source = data
	}
	prog, err := ir.LoadProgram(ctx.Source)
	if err != nil {
		ctx.AddError(diagnostics.ErrL001, err)
		return ctx
	}
	ctx.Program = prog
	return ctx
}

// ValidateProcessor checks the instruction streams against the front-end
// contract, so that contract violations surface as diagnostics instead of
// build panics.
type ValidateProcessor struct{}

func (ValidateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Program == nil {
		return ctx
	}
	for _, err := range ir.Validate(ctx.Program) {
		ctx.AddError(diagnostics.ErrL002, err)
	}
	for _, name := range ctx.Options.Scripts {
		if ctx.Program.ScriptIndex(name) < 0 {
			ctx.AddError(diagnostics.ErrL002, fmt.Errorf("no script named %q", name))
		}
	}
	return ctx
}

// BuildProcessor compiles every function. Functions that fail verification
// are reported and left out; the rest of the program is still built.
type BuildProcessor struct{}

func (BuildProcessor) Process(ctx *PipelineContext) (out *PipelineContext) {
	if ctx.Program == nil || len(ctx.Errors) > 0 {
		return ctx
	}
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*codegen.ContractError)
			if !ok {
				panic(r)
			}
			ctx.AddError(diagnostics.ErrL002, ce)
			ctx.Built = nil
			out = ctx
		}
	}()
	built, errs := runtime.Build(ctx.Program, runtime.Options{
		Seed:      ctx.Options.Seed,
		ForceWarp: ctx.Options.ForceWarp,
	})
	for _, err := range errs {
		ctx.AddError(diagnostics.ErrB001, err)
	}
	ctx.Built = built
	return ctx
}

// Build returns the standard front half: load, validate, build
func Build() *Pipeline {
	return New(LoadProcessor{}, ValidateProcessor{}, BuildProcessor{})
}

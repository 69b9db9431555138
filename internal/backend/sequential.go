package backend

import (
	"github.com/funvibe/blockjit/internal/pipeline"
	"github.com/funvibe/blockjit/internal/runtime"
)

// Sequential runs each script to completion before starting the next. The
// tick budget applies per script.
type Sequential struct{}

// NewSequential creates a run-to-completion backend
func NewSequential() *Sequential {
	return &Sequential{}
}

func (b *Sequential) Name() string {
	return "sequential"
}

func (b *Sequential) Run(ctx *pipeline.PipelineContext) (*runtime.Report, error) {
	js, err := jobs(ctx)
	if err != nil {
		return nil, err
	}

	ticks := 0
	for _, j := range js {
		for n := 0; n < ctx.Options.Ticks; n++ {
			ticks++
			if j.unit.Run(j.ctx) {
				break
			}
		}
	}

	r := report(b.Name(), ticks, js)
	for _, j := range js {
		j.unit.Kill(j.ctx)
	}
	return r, nil
}

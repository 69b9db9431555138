package backend

import (
	"github.com/funvibe/blockjit/internal/pipeline"
	"github.com/funvibe/blockjit/internal/runtime"
)

// Scheduler runs one slice of every unfinished script per tick, in
// declaration order, until all finish or the tick budget is spent.
// Unfinished scripts are killed at the end.
type Scheduler struct{}

// NewScheduler creates a round-robin backend
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (b *Scheduler) Name() string {
	return "scheduler"
}

func (b *Scheduler) Run(ctx *pipeline.PipelineContext) (*runtime.Report, error) {
	js, err := jobs(ctx)
	if err != nil {
		return nil, err
	}

	ticks := 0
	for ticks < ctx.Options.Ticks {
		running := false
		for _, j := range js {
			if !j.unit.IsFinished(j.ctx) {
				j.unit.Run(j.ctx)
				running = true
			}
		}
		if !running {
			break
		}
		ticks++
	}

	r := report(b.Name(), ticks, js)
	for _, j := range js {
		j.unit.Kill(j.ctx)
	}
	return r, nil
}

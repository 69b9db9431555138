package runtime

import (
	"github.com/funvibe/blockjit/internal/codegen"
	"github.com/google/uuid"
)

// Report summarises an execution
type Report struct {
	Backend  string
	Ticks    int
	Contexts []ContextReport
}

// ContextReport is the outcome of one context
type ContextReport struct {
	Script   string
	Target   string
	ID       uuid.UUID
	Finished bool
	Stats    codegen.Stats
}

// Finished reports whether every context ran to completion
func (r *Report) Finished() bool {
	for _, c := range r.Contexts {
		if !c.Finished {
			return false
		}
	}
	return true
}

// Record appends the state of ctx
func (r *Report) Record(u *Unit, ctx *Context) {
	r.Contexts = append(r.Contexts, ContextReport{
		Script:   u.Name,
		Target:   ctx.Target.Name,
		ID:       ctx.ID,
		Finished: ctx.finished,
		Stats:    ctx.env.Stats,
	})
}

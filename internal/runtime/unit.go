// Package runtime is the execution glue between compiled functions and a
// scheduler: a Unit per script, a Context per running instance.
package runtime

import (
	"github.com/funvibe/blockjit/internal/codegen"
	"github.com/funvibe/blockjit/internal/host"
	"github.com/google/uuid"
)

// Unit is one compiled script
type Unit struct {
	Name  string
	Owner string
	fn    *codegen.Function
	seed  uint64
}

// Context is the state of one running instance of a unit. It is driven
// from a single goroutine.
type Context struct {
	ID     uuid.UUID
	Target *host.Target

	env      *codegen.Env
	frame    *codegen.Frame
	started  bool
	finished bool
}

// Function returns the compiled script
func (u *Unit) Function() *codegen.Function {
	return u.fn
}

// CreateContext prepares a fresh run of u on target
func (u *Unit) CreateContext(target *host.Target) *Context {
	return &Context{
		ID:     uuid.New(),
		Target: target,
		env:    codegen.NewEnv(target, u.seed),
	}
}

// Run executes one slice: up to the next suspend point or the end of the
// script. It returns true once the script has finished.
func (u *Unit) Run(ctx *Context) bool {
	if ctx.finished {
		return true
	}
	if !ctx.started {
		ctx.started = true
		ctx.frame = u.fn.Entry(ctx.env)
		ctx.finished = ctx.frame == nil
		return ctx.finished
	}
	if u.fn.Resume(ctx.frame) {
		ctx.frame = nil
		ctx.finished = true
	}
	return ctx.finished
}

// IsFinished reports whether the script has run to completion or was killed
func (u *Unit) IsFinished(ctx *Context) bool {
	return ctx.finished
}

// Kill stops ctx without resuming it. Every string it still owns is freed.
func (u *Unit) Kill(ctx *Context) {
	if ctx.frame != nil {
		ctx.frame.Release()
		ctx.frame = nil
	}
	ctx.started = true
	ctx.finished = true
}

// Reset kills ctx and rewinds it so the next Run starts from the top
func (u *Unit) Reset(ctx *Context) {
	u.Kill(ctx)
	ctx.started = false
	ctx.finished = false
}

// Stats returns the cache and coroutine counters of ctx
func (ctx *Context) Stats() codegen.Stats {
	return ctx.env.Stats
}

// LiveStrings returns the number of string buffers ctx still holds
func (ctx *Context) LiveStrings() int {
	return ctx.env.Heap.Live()
}

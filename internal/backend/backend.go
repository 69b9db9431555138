// Package backend provides an interface for different execution backends.
// This allows switching between the round-robin scheduler and running each
// script to completion in turn.
package backend

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/pipeline"
	"github.com/funvibe/blockjit/internal/runtime"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the built program from pipeline context
	Run(ctx *pipeline.PipelineContext) (*runtime.Report, error)

	// Name returns the backend name for display
	Name() string
}

// New returns the backend with the given name
func New(name string) (Backend, error) {
	switch name {
	case "", "scheduler":
		return NewScheduler(), nil
	case "sequential":
		return NewSequential(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}

type job struct {
	unit *runtime.Unit
	ctx  *runtime.Context
}

// jobs creates one context per selected script on its default target
func jobs(ctx *pipeline.PipelineContext) ([]job, error) {
	if ctx.Built == nil {
		return nil, fmt.Errorf("no built program to run")
	}
	prog := ctx.Built

	var units []*runtime.Unit
	if len(ctx.Options.Scripts) == 0 {
		units = prog.Units
	} else {
		for _, name := range ctx.Options.Scripts {
			u, err := prog.Unit(name)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		}
	}

	out := make([]job, len(units))
	for i, u := range units {
		out[i] = job{unit: u, ctx: u.CreateContext(prog.Target(u))}
	}
	return out, nil
}

func report(name string, ticks int, js []job) *runtime.Report {
	r := &runtime.Report{Backend: name, Ticks: ticks}
	for _, j := range js {
		r.Record(j.unit, j.ctx)
	}
	return r
}

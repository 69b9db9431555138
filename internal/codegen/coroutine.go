package codegen

import (
	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// Classification decides per function whether it needs the coroutine form.
// Declared warp procedures never suspend. Anything else suspends when it
// yields or calls a procedure that suspends.
type Classification struct {
	Procedures []Mode
	Scripts    []Mode
}

func hasYield(body ir.Body) bool {
	for i := range body {
		if body[i].Op == ir.OP_YIELD {
			return true
		}
	}
	return false
}

func callsSuspendable(body ir.Body, procs []Mode) bool {
	for i := range body {
		if body[i].Op == ir.OP_CALL && body[i].Proc >= 0 && body[i].Proc < len(procs) && procs[body[i].Proc] == Suspendable {
			return true
		}
	}
	return false
}

// Classify computes the mode of every procedure and script. With forceWarp
// everything runs as warp.
func Classify(p *ir.Program, forceWarp bool) Classification {
	cl := Classification{
		Procedures: make([]Mode, len(p.Procedures)),
		Scripts:    make([]Mode, len(p.Scripts)),
	}
	if forceWarp {
		return cl
	}

	for i := range p.Procedures {
		if !p.Procedures[i].Warp && hasYield(p.Procedures[i].Body) {
			cl.Procedures[i] = Suspendable
		}
	}
	// Suspension propagates up the call graph through non-warp callers
	for changed := true; changed; {
		changed = false
		for i := range p.Procedures {
			proc := &p.Procedures[i]
			if proc.Warp || cl.Procedures[i] == Suspendable {
				continue
			}
			if callsSuspendable(proc.Body, cl.Procedures) {
				cl.Procedures[i] = Suspendable
				changed = true
			}
		}
	}

	for i := range p.Scripts {
		body := p.Scripts[i].Body
		if hasYield(body) || callsSuspendable(body, cl.Procedures) {
			cl.Scripts[i] = Suspendable
		}
	}
	return cl
}

// setup installs the entry and resume pair for f's mode. A warp function
// runs straight through on a pooled frame and its resume always reports
// completion.
func (f *Function) setup() {
	if f.Mode == Warp {
		f.entry = func(env *Env, args []host.Value) *Frame {
			fr := f.newFrame(env, args)
			f.exec(fr)
			fr.Release()
			return nil
		}
		f.resume = func(*Frame) bool { return true }
		return
	}

	f.entry = func(env *Env, args []host.Value) *Frame {
		fr := f.newFrame(env, args)
		if f.exec(fr) {
			fr.Release()
			return nil
		}
		return fr
	}
	f.resume = func(fr *Frame) bool {
		fr.env.Stats.Resumes++
		if f.exec(fr) {
			fr.Release()
			return true
		}
		return false
	}
}

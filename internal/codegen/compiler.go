// Package codegen compiles instruction streams into executable functions.
//
// Each script and procedure becomes a graph of basic blocks whose operations
// are Go closures over a Frame of typed register files. Values the analyzer
// proves to be of a single kind live unboxed in those registers; everything
// else uses tagged host values. Functions that may suspend keep their whole
// state in the Frame, so suspending is returning and resuming is jumping to
// the saved block.
package codegen

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/analyzer"
	"github.com/funvibe/blockjit/internal/diagnostics"
	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// Options tune compilation
type Options struct {
	// ForceWarp compiles every function as warp, ignoring yields
	ForceWarp bool
}

// Module is the compiled form of a program
type Module struct {
	Program    *ir.Program
	Procedures []*Function
	Scripts    []*Function // nil where the build failed
}

// Script returns the compiled script with the given name
func (m *Module) Script(name string) (*Function, error) {
	i := m.Program.ScriptIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("no script named %q", name)
	}
	if m.Scripts[i] == nil {
		return nil, fmt.Errorf("script %q failed to build", name)
	}
	return m.Scripts[i], nil
}

// Compiler holds the state shared by the builds of one program
type Compiler struct {
	prog    *ir.Program
	project *host.Project
	opts    Options

	procs     []*Function
	varBinds  map[int]varBinding
	listBinds map[int]listBinding
}

// Compile builds every procedure and script of p against the host state of
// proj. Verification failures are returned as diagnostics and only drop the
// affected function (and its callers); contract violations panic with a
// *ContractError.
func Compile(p *ir.Program, proj *host.Project, opts Options) (*Module, []error) {
	c := &Compiler{
		prog:      p,
		project:   proj,
		opts:      opts,
		procs:     make([]*Function, len(p.Procedures)),
		varBinds:  make(map[int]varBinding),
		listBinds: make(map[int]listBinding),
	}
	cl := Classify(p, opts.ForceWarp)
	home := c.homes()

	for i := range p.Procedures {
		proc := &p.Procedures[i]
		c.procs[i] = &Function{Name: "procedure " + proc.Name, Mode: cl.Procedures[i], Params: len(proc.Params), Owner: home[i]}
	}

	var errs []error
	failed := make([]bool, len(p.Procedures))
	for i := range p.Procedures {
		if es := c.build(c.procs[i], p.Procedures[i].Body); len(es) > 0 {
			errs = append(errs, es...)
			failed[i] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for i := range p.Procedures {
			if failed[i] {
				continue
			}
			if callee, ok := callsFailed(p.Procedures[i].Body, failed); ok {
				errs = append(errs, dependencyError(c.procs[i].Name, p.Procedures[callee].Name))
				failed[i] = true
				changed = true
			}
		}
	}

	m := &Module{Program: p, Procedures: c.procs, Scripts: make([]*Function, len(p.Scripts))}
	for i := range p.Scripts {
		s := &p.Scripts[i]
		fn := &Function{Name: "script " + s.Name, Mode: cl.Scripts[i], Owner: s.Owner}
		if callee, ok := callsFailed(s.Body, failed); ok {
			errs = append(errs, dependencyError(fn.Name, p.Procedures[callee].Name))
			continue
		}
		if es := c.build(fn, s.Body); len(es) > 0 {
			errs = append(errs, es...)
			continue
		}
		m.Scripts[i] = fn
	}
	for i := range c.procs {
		if failed[i] {
			m.Procedures[i] = nil
		}
	}
	return m, errs
}

func callsFailed(body ir.Body, failed []bool) (int, bool) {
	for i := range body {
		if body[i].Op == ir.OP_CALL && body[i].Proc >= 0 && body[i].Proc < len(failed) && failed[body[i].Proc] {
			return body[i].Proc, true
		}
	}
	return -1, false
}

func dependencyError(fn, callee string) error {
	return diagnostics.Errorf(diagnostics.ErrB006, diagnostics.Location{Function: fn, Instr: -1},
		"calls procedure %s, which failed to build", callee)
}

// build analyzes and emits one function, verifies it and installs its
// entry and resume pair.
func (c *Compiler) build(fn *Function, body ir.Body) []error {
	loc := diagnostics.Location{Function: fn.Name, Instr: -1}
	st, err := ir.Match(body)
	if err != nil {
		return []error{diagnostics.NewError(diagnostics.ErrL002, loc, err.Error())}
	}
	types, err := analyzer.Analyze(body, analyzer.Unknown(len(c.prog.Variables), len(c.prog.Lists)))
	if err != nil {
		return []error{diagnostics.NewError(diagnostics.ErrL002, loc, err.Error())}
	}

	b := newBuilder(c, fn, body, st, types)
	b.build()

	var dirty []string
	for _, k := range b.varOrder {
		if vc := b.vars[k]; vc.active && vc.dirty {
			dirty = append(dirty, vc.bind.String())
		}
	}
	if errs := verify(fn, b.depth, dirty); len(errs) > 0 {
		fn.blocks = nil
		return errs
	}
	fn.setup()
	return nil
}

package runtime

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/codegen"
	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// Options for Build
type Options struct {
	Seed      uint64
	ForceWarp bool
}

// Program is a built program: its host state and one unit per script that
// compiled. Scripts that failed to build are absent from Units.
type Program struct {
	IR      *ir.Program
	Project *host.Project
	Module  *codegen.Module
	Units   []*Unit
}

// Build creates the host state for p and compiles every function. The
// returned errors are per-function diagnostics; the program is usable for
// the functions that built.
func Build(p *ir.Program, opts Options) (*Program, []error) {
	proj := ir.NewProject(p)
	mod, errs := codegen.Compile(p, proj, codegen.Options{ForceWarp: opts.ForceWarp})

	prog := &Program{IR: p, Project: proj, Module: mod}
	for i, fn := range mod.Scripts {
		if fn == nil {
			continue
		}
		s := &p.Scripts[i]
		prog.Units = append(prog.Units, &Unit{Name: s.Name, Owner: s.Owner, fn: fn, seed: opts.Seed + uint64(i)})
	}
	return prog, errs
}

// Unit returns the unit of the named script
func (p *Program) Unit(name string) (*Unit, error) {
	for _, u := range p.Units {
		if u.Name == name {
			return u, nil
		}
	}
	if p.IR.ScriptIndex(name) >= 0 {
		return nil, fmt.Errorf("script %q failed to build", name)
	}
	return nil, fmt.Errorf("no script named %q", name)
}

// Target returns the instance a unit runs on by default: its owner's
// original, or the stage.
func (p *Program) Target(u *Unit) *host.Target {
	if t := p.Project.Owner(u.Owner); t != nil {
		return t
	}
	return p.Project.Stage
}

package codegen

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// varBinding locates a host variable. Stage variables and variables of
// sprites that are never cloned have a fixed address; variables of
// cloneable sprites are reached through the running instance's array at a
// slot resolved at compile time.
type varBinding struct {
	id    string
	owner string // cloneable sprite of a slot binding
	fixed *host.Variable
	slot  int
}

func (vb varBinding) addr() func(*Frame) *host.Value {
	if v := vb.fixed; v != nil {
		return func(*Frame) *host.Value { return &v.Value }
	}
	slot := vb.slot
	return func(fr *Frame) *host.Value { return &fr.env.Target.Variables[slot].Value }
}

func (vb varBinding) String() string {
	if vb.fixed != nil {
		return vb.id
	}
	return fmt.Sprintf("%s@%d", vb.id, vb.slot)
}

// listBinding locates a host list the same way
type listBinding struct {
	id    string
	owner string
	fixed *host.List
	slot  int
}

func (lb listBinding) get(fr *Frame) *host.List {
	if lb.fixed != nil {
		return lb.fixed
	}
	return fr.env.Target.Lists[lb.slot]
}

func (lb listBinding) String() string {
	if lb.fixed != nil {
		return lb.id
	}
	return fmt.Sprintf("%s@%d", lb.id, lb.slot)
}

func (c *Compiler) owner(name string) (*host.Target, error) {
	t := c.project.Owner(name)
	if t == nil {
		return nil, fmt.Errorf("unknown owner %q", name)
	}
	return t, nil
}

// bindVariable resolves Program.Variables[i] against the project
func (c *Compiler) bindVariable(i int) (varBinding, error) {
	if vb, ok := c.varBinds[i]; ok {
		return vb, nil
	}
	decl := &c.prog.Variables[i]
	t, err := c.owner(decl.Owner)
	if err != nil {
		return varBinding{}, err
	}
	slot, ok := t.VariableSlot(decl.ID)
	if !ok {
		return varBinding{}, fmt.Errorf("variable %q is not declared on %s", decl.ID, t.Name)
	}
	vb := varBinding{id: decl.Name, slot: slot}
	if t.Cloneable {
		vb.owner = t.Name
	} else {
		vb.fixed = t.Variables[slot]
	}
	c.varBinds[i] = vb
	return vb, nil
}

// bindList resolves Program.Lists[i] against the project
func (c *Compiler) bindList(i int) (listBinding, error) {
	if lb, ok := c.listBinds[i]; ok {
		return lb, nil
	}
	decl := &c.prog.Lists[i]
	t, err := c.owner(decl.Owner)
	if err != nil {
		return listBinding{}, err
	}
	slot, ok := t.ListSlot(decl.ID)
	if !ok {
		return listBinding{}, fmt.Errorf("list %q is not declared on %s", decl.ID, t.Name)
	}
	lb := listBinding{id: decl.Name, slot: slot}
	if t.Cloneable {
		lb.owner = t.Name
	} else {
		lb.fixed = t.Lists[slot]
	}
	c.listBinds[i] = lb
	return lb, nil
}

// variableOf returns the binding of a variable instruction, raising a
// contract violation when it cannot be resolved.
func (b *builder) variableOf(i int, in *ir.Instr) varBinding {
	vb, err := b.c.bindVariable(in.Var)
	if err != nil {
		b.contractf(i, "%v", err)
	}
	b.checkInstance(i, "variable", vb.id, vb.owner)
	return vb
}

// checkInstance rejects a slot binding used by a function that does not
// run on instances of the sprite owning the slot.
func (b *builder) checkInstance(i int, kind, id, owner string) {
	if owner != "" && owner != b.fn.Owner {
		b.contractf(i, "%s %q belongs to %s, but %s runs on %s", kind, id, owner, b.name, ownerName(b.fn.Owner))
	}
}

func ownerName(owner string) string {
	if owner == "" {
		return "the stage"
	}
	return owner
}

// slotOwner returns the cloneable sprite owning the variable or list that
// in references, or "" when it is reached at a fixed address or cannot be
// resolved.
func (c *Compiler) slotOwner(in *ir.Instr) string {
	var name string
	switch {
	case ir.UsesVariable(in.Op) && in.Var >= 0 && in.Var < len(c.prog.Variables):
		name = c.prog.Variables[in.Var].Owner
	case ir.UsesList(in.Op) && in.List >= 0 && in.List < len(c.prog.Lists):
		name = c.prog.Lists[in.List].Owner
	default:
		return ""
	}
	if t := c.project.Owner(name); t != nil && t.Cloneable {
		return t.Name
	}
	return ""
}

// homes returns, per procedure, the cloneable sprite whose instances it
// must run on: the owner of the per-instance state it touches directly or
// through the procedures it calls. Procedures touching the state of two
// different sprites break the contract.
func (c *Compiler) homes() []string {
	p := c.prog
	home := make([]string, len(p.Procedures))
	claim := func(k, at int, owner string) bool {
		switch home[k] {
		case owner:
			return false
		case "":
			home[k] = owner
			return true
		}
		panic(&ContractError{
			Function: "procedure " + p.Procedures[k].Name,
			Instr:    at,
			Msg:      fmt.Sprintf("uses the state of both %s and %s", home[k], owner),
		})
	}

	for k := range p.Procedures {
		body := p.Procedures[k].Body
		for i := range body {
			if owner := c.slotOwner(&body[i]); owner != "" {
				claim(k, i, owner)
			}
		}
	}
	for changed := true; changed; {
		changed = false
		for k := range p.Procedures {
			body := p.Procedures[k].Body
			for i := range body {
				in := &body[i]
				if in.Op != ir.OP_CALL || in.Proc < 0 || in.Proc >= len(home) || home[in.Proc] == "" {
					continue
				}
				if claim(k, i, home[in.Proc]) {
					changed = true
				}
			}
		}
	}
	return home
}

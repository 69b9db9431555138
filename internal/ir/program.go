package ir

import "github.com/funvibe/blockjit/internal/host"

// Variable declares a host variable. Owner is empty for stage variables,
// else the owning sprite name.
type Variable struct {
	ID    string
	Name  string
	Owner string
	Init  host.Value
}

// List declares a host list
type List struct {
	ID    string
	Name  string
	Owner string
	Init  []host.Value
}

// Sprite declares a sprite. Cloneable sprites get slot-indexed bindings.
type Sprite struct {
	Name      string
	Cloneable bool
}

// Procedure is a user-defined callable sub-script. Warp procedures run
// without screen refresh and never suspend.
type Procedure struct {
	Name   string
	Params []string
	Warp   bool
	Body   Body
}

// Script is a top-level script owned by a sprite (or the stage)
type Script struct {
	Name  string
	Owner string
	Body  Body
}

// Program is everything the front end hands to the code generator
type Program struct {
	Sprites    []Sprite
	Variables  []Variable
	Lists      []List
	Procedures []Procedure
	Scripts    []Script
}

// ProcedureIndex finds a procedure by name
func (p *Program) ProcedureIndex(name string) int {
	for i := range p.Procedures {
		if p.Procedures[i].Name == name {
			return i
		}
	}
	return -1
}

// ScriptIndex finds a script by name
func (p *Program) ScriptIndex(name string) int {
	for i := range p.Scripts {
		if p.Scripts[i].Name == name {
			return i
		}
	}
	return -1
}

// NewProject builds the host state described by the program's declarations.
func NewProject(p *Program) *host.Project {
	proj := host.NewProject()
	for _, s := range p.Sprites {
		proj.AddSprite(s.Name, s.Cloneable)
	}
	for _, v := range p.Variables {
		owner := proj.Owner(v.Owner)
		if owner == nil {
			owner = proj.AddSprite(v.Owner, false)
		}
		owner.AddVariable(v.ID, v.Name, v.Init)
	}
	for _, l := range p.Lists {
		owner := proj.Owner(l.Owner)
		if owner == nil {
			owner = proj.AddSprite(l.Owner, false)
		}
		owner.AddList(l.ID, l.Name, l.Init...)
	}
	return proj
}

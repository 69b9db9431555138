package host

import "fmt"

// Target is one instance of a sprite or the stage. Each instance owns its
// variable and list arrays; clones copy them and keep the slot layout, so a
// slot index resolved once at compile time addresses the same entity in every
// instance.
type Target struct {
	Name      string
	IsStage   bool
	Cloneable bool
	Variables []*Variable
	Lists     []*List

	varSlots  map[string]int
	listSlots map[string]int
	original  *Target
	clones    int
}

// NewTarget creates an empty target
func NewTarget(name string, isStage, cloneable bool) *Target {
	return &Target{
		Name:      name,
		IsStage:   isStage,
		Cloneable: cloneable,
		varSlots:  make(map[string]int),
		listSlots: make(map[string]int),
	}
}

// AddVariable declares a variable and returns it
func (t *Target) AddVariable(id, name string, v Value) *Variable {
	if slot, ok := t.varSlots[id]; ok {
		t.Variables[slot].Value.Assign(v)
		return t.Variables[slot]
	}
	nv := NewVariable(id, name, v)
	t.varSlots[id] = len(t.Variables)
	t.Variables = append(t.Variables, nv)
	return nv
}

// AddList declares a list and returns it
func (t *Target) AddList(id, name string, items ...Value) *List {
	if slot, ok := t.listSlots[id]; ok {
		return t.Lists[slot]
	}
	l := NewList(id, name, items...)
	t.listSlots[id] = len(t.Lists)
	t.Lists = append(t.Lists, l)
	return l
}

// VariableSlot returns the slot index of a variable
func (t *Target) VariableSlot(id string) (int, bool) {
	slot, ok := t.varSlots[id]
	return slot, ok
}

// ListSlot returns the slot index of a list
func (t *Target) ListSlot(id string) (int, bool) {
	slot, ok := t.listSlots[id]
	return slot, ok
}

// Variable looks up a variable by id
func (t *Target) Variable(id string) *Variable {
	if slot, ok := t.varSlots[id]; ok {
		return t.Variables[slot]
	}
	return nil
}

// List looks up a list by id
func (t *Target) List(id string) *List {
	if slot, ok := t.listSlots[id]; ok {
		return t.Lists[slot]
	}
	return nil
}

// IsClone reports whether t was created by Clone
func (t *Target) IsClone() bool {
	return t.original != nil
}

// Clone creates a runtime copy of t with its own variables and lists.
func (t *Target) Clone() (*Target, error) {
	if !t.Cloneable {
		return nil, fmt.Errorf("target %s is not cloneable", t.Name)
	}
	root := t
	if t.original != nil {
		root = t.original
	}
	root.clones++

	c := &Target{
		Name:      fmt.Sprintf("%s#%d", root.Name, root.clones),
		Cloneable: true,
		Variables: make([]*Variable, len(t.Variables)),
		Lists:     make([]*List, len(t.Lists)),
		varSlots:  t.varSlots,
		listSlots: t.listSlots,
		original:  root,
	}
	for i, v := range t.Variables {
		c.Variables[i] = NewVariable(v.ID, v.Name, Value{})
		c.Variables[i].Value.Assign(v.Value)
	}
	for i, l := range t.Lists {
		c.Lists[i] = NewList(l.ID, l.Name, l.items...)
	}
	return c, nil
}

// Project holds the stage and the original instance of every sprite.
type Project struct {
	Stage   *Target
	sprites map[string]*Target
	order   []string
}

// NewProject creates a project with an empty stage
func NewProject() *Project {
	return &Project{
		Stage:   NewTarget("Stage", true, false),
		sprites: make(map[string]*Target),
	}
}

// AddSprite declares a sprite
func (p *Project) AddSprite(name string, cloneable bool) *Target {
	if t, ok := p.sprites[name]; ok {
		return t
	}
	t := NewTarget(name, false, cloneable)
	p.sprites[name] = t
	p.order = append(p.order, name)
	return t
}

// Sprite returns the original instance of a sprite
func (p *Project) Sprite(name string) *Target {
	return p.sprites[name]
}

// Owner returns the stage for an empty name, else the named sprite.
func (p *Project) Owner(name string) *Target {
	if name == "" {
		return p.Stage
	}
	return p.sprites[name]
}

// Sprites returns sprite names in declaration order
func (p *Project) Sprites() []string {
	return append([]string(nil), p.order...)
}

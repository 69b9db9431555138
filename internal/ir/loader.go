package ir

import (
	"fmt"
	"os"

	"github.com/funvibe/blockjit/internal/host"
	"gopkg.in/yaml.v3"
)

// programFile is the YAML fixture format for programs.
type programFile struct {
	Sprites    []spriteDecl `yaml:"sprites"`
	Variables  []varDecl    `yaml:"variables"`
	Lists      []listDecl   `yaml:"lists"`
	Procedures []procDecl   `yaml:"procedures"`
	Scripts    []scriptDecl `yaml:"scripts"`
}

type spriteDecl struct {
	Name      string `yaml:"name"`
	Cloneable bool   `yaml:"cloneable,omitempty"`
}

type varDecl struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name,omitempty"`
	Owner string    `yaml:"owner,omitempty"`
	Value yaml.Node `yaml:"value,omitempty"`
}

type listDecl struct {
	ID    string      `yaml:"id"`
	Name  string      `yaml:"name,omitempty"`
	Owner string      `yaml:"owner,omitempty"`
	Items []yaml.Node `yaml:"items,omitempty"`
}

type procDecl struct {
	Name   string      `yaml:"name"`
	Params []string    `yaml:"params,omitempty"`
	Warp   bool        `yaml:"warp,omitempty"`
	Body   []instrDecl `yaml:"body"`
}

type scriptDecl struct {
	Name  string      `yaml:"name"`
	Owner string      `yaml:"owner,omitempty"`
	Body  []instrDecl `yaml:"body"`
}

// instrDecl is one instruction. Operands are YAML scalars (constants) or
// {ref: id} mappings naming an earlier instruction's id.
type instrDecl struct {
	ID    string      `yaml:"id,omitempty"`
	Op    string      `yaml:"op"`
	Args  []yaml.Node `yaml:"args,omitempty"`
	Var   string      `yaml:"var,omitempty"`
	List  string      `yaml:"list,omitempty"`
	Proc  string      `yaml:"proc,omitempty"`
	Fn    string      `yaml:"fn,omitempty"`
	Index int         `yaml:"index,omitempty"`
}

// LoadProgramFile reads a YAML program from disk
func LoadProgramFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	prog, err := LoadProgram(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// LoadProgram parses a YAML program
func LoadProgram(data []byte) (*Program, error) {
	var f programFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}

	p := &Program{}
	l := &loader{
		prog:  p,
		vars:  make(map[string]int),
		lists: make(map[string]int),
		procs: make(map[string]int),
	}

	for _, s := range f.Sprites {
		p.Sprites = append(p.Sprites, Sprite{Name: s.Name, Cloneable: s.Cloneable})
	}
	for _, v := range f.Variables {
		if v.ID == "" {
			return nil, fmt.Errorf("variable without id")
		}
		init := host.Number(0)
		if v.Value.Kind != 0 {
			val, err := decodeValue(&v.Value)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", v.ID, err)
			}
			init = val
		}
		l.vars[varKey(v.Owner, v.ID)] = len(p.Variables)
		p.Variables = append(p.Variables, Variable{ID: v.ID, Name: nameOr(v.Name, v.ID), Owner: v.Owner, Init: init})
	}
	for _, ld := range f.Lists {
		if ld.ID == "" {
			return nil, fmt.Errorf("list without id")
		}
		items := make([]host.Value, 0, len(ld.Items))
		for i := range ld.Items {
			val, err := decodeValue(&ld.Items[i])
			if err != nil {
				return nil, fmt.Errorf("list %s item %d: %w", ld.ID, i, err)
			}
			items = append(items, val)
		}
		l.lists[varKey(ld.Owner, ld.ID)] = len(p.Lists)
		p.Lists = append(p.Lists, List{ID: ld.ID, Name: nameOr(ld.Name, ld.ID), Owner: ld.Owner, Init: items})
	}
	for i, pd := range f.Procedures {
		if _, dup := l.procs[pd.Name]; dup {
			return nil, fmt.Errorf("duplicate procedure %s", pd.Name)
		}
		l.procs[pd.Name] = i
		p.Procedures = append(p.Procedures, Procedure{Name: pd.Name, Params: pd.Params, Warp: pd.Warp})
	}
	for i, pd := range f.Procedures {
		body, err := l.body(pd.Body, "", true)
		if err != nil {
			return nil, fmt.Errorf("procedure %s: %w", pd.Name, err)
		}
		p.Procedures[i].Body = body
	}
	for _, sd := range f.Scripts {
		body, err := l.body(sd.Body, sd.Owner, false)
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", sd.Name, err)
		}
		p.Scripts = append(p.Scripts, Script{Name: sd.Name, Owner: sd.Owner, Body: body})
	}
	return p, nil
}

type loader struct {
	prog  *Program
	vars  map[string]int
	lists map[string]int
	procs map[string]int
}

func varKey(owner, id string) string {
	return owner + "\x00" + id
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// lookup resolves a variable or list id, preferring the script owner's
// local declaration over the stage's. Procedures carry no owner, so their
// ids may also name a unique sprite-local declaration.
func lookup(table map[string]int, owner, id string, proc bool) (int, bool) {
	if owner != "" {
		if i, ok := table[varKey(owner, id)]; ok {
			return i, true
		}
	}
	if i, ok := table[varKey("", id)]; ok {
		return i, true
	}
	if !proc {
		return -1, false
	}
	found := -1
	for k, i := range table {
		if len(k) > len(id) && k[len(k)-len(id)-1:] == "\x00"+id {
			if found >= 0 {
				return -1, false
			}
			found = i
		}
	}
	return found, found >= 0
}

func (l *loader) body(decls []instrDecl, owner string, proc bool) (Body, error) {
	var body Body
	ids := make(map[string]int)

	for n, d := range decls {
		op, ok := LookupOpcode(d.Op)
		if !ok {
			return nil, fmt.Errorf("instruction %d: unknown op %q", n, d.Op)
		}
		in := Instr{Op: op, Label: d.ID, Arg: d.Index}

		if UsesVariable(op) {
			idx, ok := lookup(l.vars, owner, d.Var, proc)
			if !ok {
				return nil, fmt.Errorf("instruction %d: unknown variable %q", n, d.Var)
			}
			in.Var = idx
		}
		if UsesList(op) {
			idx, ok := lookup(l.lists, owner, d.List, proc)
			if !ok {
				return nil, fmt.Errorf("instruction %d: unknown list %q", n, d.List)
			}
			in.List = idx
		}
		if op == OP_CALL {
			idx, ok := l.procs[d.Proc]
			if !ok {
				return nil, fmt.Errorf("instruction %d: unknown procedure %q", n, d.Proc)
			}
			in.Proc = idx
		}
		if op == OP_MATHOP {
			fn, ok := LookupMathFn(d.Fn)
			if !ok {
				return nil, fmt.Errorf("instruction %d: unknown math function %q", n, d.Fn)
			}
			in.Fn = fn
		}

		for j := range d.Args {
			arg, err := decodeOperand(&d.Args[j], ids)
			if err != nil {
				return nil, fmt.Errorf("instruction %d operand %d: %w", n, j, err)
			}
			in.Args = append(in.Args, arg)
		}

		idx := body.Emit(in)
		if d.ID != "" {
			if _, dup := ids[d.ID]; dup {
				return nil, fmt.Errorf("instruction %d: duplicate id %q", n, d.ID)
			}
			ids[d.ID] = idx
		}
	}
	return body, nil
}

func decodeOperand(node *yaml.Node, ids map[string]int) (Operand, error) {
	if node.Kind == yaml.MappingNode {
		var ref struct {
			Ref string `yaml:"ref"`
		}
		if err := node.Decode(&ref); err != nil {
			return Operand{}, err
		}
		idx, ok := ids[ref.Ref]
		if !ok {
			return Operand{}, fmt.Errorf("unknown ref %q", ref.Ref)
		}
		return Ref(idx), nil
	}
	v, err := decodeValue(node)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Const: v, Ref: NoRef}, nil
}

// decodeValue maps a YAML scalar to a tagged value by its resolved tag, so
// quoted "5" stays a string while 5 is a number.
func decodeValue(node *yaml.Node) (host.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return host.Value{}, fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return host.Value{}, err
		}
		return host.Number(f), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return host.Value{}, err
		}
		return host.Bool(b), nil
	case "!!str":
		return host.String(node.Value), nil
	default:
		return host.Value{}, fmt.Errorf("line %d: unsupported value %q", node.Line, node.Value)
	}
}

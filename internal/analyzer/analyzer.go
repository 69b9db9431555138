// Package analyzer computes, for every variable and list access in an
// instruction stream, the set of runtime kinds that can reach it.
//
// Analyze is a pure function: it takes a body and the types assumed on entry
// and returns side tables keyed by instruction index. Branch merges union the
// arms, loops are re-examined with inconsistent assumptions widened to
// unknown until the body's effect is stable, and suspend points or procedure
// calls forget everything because other scripts may run in between.
package analyzer

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/ir"
)

// TypeMap holds the known type of every variable and list of a program,
// indexed like Program.Variables and Program.Lists.
type TypeMap struct {
	Vars  []ir.Type
	Lists []ir.Type
}

// Unknown returns a map where nothing is known
func Unknown(vars, lists int) TypeMap {
	m := TypeMap{Vars: make([]ir.Type, vars), Lists: make([]ir.Type, lists)}
	m.forget()
	return m
}

func (m TypeMap) clone() TypeMap {
	return TypeMap{
		Vars:  append([]ir.Type(nil), m.Vars...),
		Lists: append([]ir.Type(nil), m.Lists...),
	}
}

func (m TypeMap) forget() {
	for i := range m.Vars {
		m.Vars[i] = ir.TypeUnknown
	}
	for i := range m.Lists {
		m.Lists[i] = ir.TypeUnknown
	}
}

// union merges o into m
func (m TypeMap) union(o TypeMap) {
	for i := range m.Vars {
		m.Vars[i] |= o.Vars[i]
	}
	for i := range m.Lists {
		m.Lists[i] |= o.Lists[i]
	}
}

func (m TypeMap) assign(o TypeMap) {
	copy(m.Vars, o.Vars)
	copy(m.Lists, o.Lists)
}

// Result holds the analysis side tables
type Result struct {
	// Types is the result type of every instruction (TypeNone for
	// instructions without a result). Variable reads and list item reads
	// carry the narrowed type.
	Types []ir.Type

	// Before is the type of the accessed variable or list immediately
	// before each access, for reads, writes and list mutations.
	Before map[int]ir.Type

	// Exit is the type map at the end of the body
	Exit TypeMap

	// Passes counts loop body examinations, for diagnostics and tests
	Passes int
}

// Analyze runs the dataflow pass over body starting from entry.
func Analyze(body ir.Body, entry TypeMap) (*Result, error) {
	st, err := ir.Match(body)
	if err != nil {
		return nil, err
	}
	a := &analysis{
		body: body,
		st:   st,
		res: &Result{
			Types:  make([]ir.Type, len(body)),
			Before: make(map[int]ir.Type),
		},
	}
	sc := &scope{types: entry.clone()}
	a.block(0, len(body), sc)
	a.res.Exit = sc.types
	return a.res, nil
}

type analysis struct {
	body ir.Body
	st   ir.Structure
	res  *Result
}

// scope is one lexical level. exits collects the type maps seen at
// LOOP_WHILE/LOOP_UNTIL for the loop that owns this scope chain.
type scope struct {
	types TypeMap
	loop  *loopState
}

type loopState struct {
	exits []TypeMap
}

func (sc *scope) child() *scope {
	return &scope{types: sc.types.clone(), loop: sc.loop}
}

// operandType is the statically known type of an operand's value
func (a *analysis) operandType(op ir.Operand) ir.Type {
	if op.IsConst() {
		return ir.TypeOf(op.Const)
	}
	return a.res.Types[op.Ref]
}

// block analyzes instructions [lo, hi) in sc
func (a *analysis) block(lo, hi int, sc *scope) {
	for i := lo; i < hi; i++ {
		in := &a.body[i]
		switch in.Op {
		case ir.OP_IF:
			sp := a.st[i]
			thenEnd := sp.End
			if sp.Else >= 0 {
				thenEnd = sp.Else
			}
			thenSc := sc.child()
			a.block(i+1, thenEnd, thenSc)
			if sp.Else >= 0 {
				elseSc := sc.child()
				a.block(sp.Else+1, sp.End, elseSc)
				// whichever arm ran is what holds afterwards
				thenSc.types.union(elseSc.types)
				sc.types.assign(thenSc.types)
			} else {
				// the body might not run
				sc.types.union(thenSc.types)
			}
			i = sp.End

		case ir.OP_REPEAT, ir.OP_LOOP:
			a.loop(i, a.st[i].End, sc)
			i = a.st[i].End

		case ir.OP_LOOP_WHILE, ir.OP_LOOP_UNTIL:
			if sc.loop != nil {
				sc.loop.exits = append(sc.loop.exits, sc.types.clone())
			}

		case ir.OP_YIELD, ir.OP_CALL:
			sc.types.forget()

		case ir.OP_READ_VAR:
			t := sc.types.Vars[in.Var]
			a.res.Before[i] = t
			a.res.Types[i] = t

		case ir.OP_WRITE_VAR:
			a.res.Before[i] = sc.types.Vars[in.Var]
			sc.types.Vars[in.Var] = a.operandType(in.Args[0])

		case ir.OP_CHANGE_VAR:
			a.res.Before[i] = sc.types.Vars[in.Var]
			sc.types.Vars[in.Var] = ir.TypeNumber

		case ir.OP_LIST_ADD:
			a.res.Before[i] = sc.types.Lists[in.List]
			sc.types.Lists[in.List] |= a.operandType(in.Args[0])

		case ir.OP_LIST_INSERT, ir.OP_LIST_REPLACE:
			a.res.Before[i] = sc.types.Lists[in.List]
			sc.types.Lists[in.List] |= a.operandType(in.Args[1])

		case ir.OP_LIST_DELETE:
			a.res.Before[i] = sc.types.Lists[in.List]

		case ir.OP_LIST_DELETE_ALL:
			a.res.Before[i] = sc.types.Lists[in.List]
			sc.types.Lists[in.List] = ir.TypeNone

		case ir.OP_LIST_ITEM:
			t := sc.types.Lists[in.List]
			a.res.Before[i] = t
			// out-of-range reads produce the empty string
			a.res.Types[i] = t | ir.TypeString

		case ir.OP_LIST_ITEM_INDEX, ir.OP_LIST_CONTAINS, ir.OP_LIST_LENGTH, ir.OP_LIST_CONTENTS:
			a.res.Before[i] = sc.types.Lists[in.List]
			a.res.Types[i] = ir.ResultType(in.Op)

		default:
			a.res.Types[i] = ir.ResultType(in.Op)
		}
	}
}

// loop analyzes the loop opened at begin and closed at end. The body is first
// examined under the types holding on entry; every variable or list whose
// type at the end of the body is not covered by that assumption is widened to
// unknown and the body is examined again, until nothing changes.
func (a *analysis) loop(begin, end int, sc *scope) {
	entry := sc.types.clone()
	assume := entry.clone()

	var body *scope
	for {
		a.res.Passes++
		body = &scope{types: assume.clone(), loop: &loopState{}}
		a.block(begin+1, end, body)

		changed := false
		for k, t := range body.types.Vars {
			if !assume.Vars[k].Has(t) {
				assume.Vars[k] = ir.TypeUnknown
				changed = true
			}
		}
		for k, t := range body.types.Lists {
			if !assume.Lists[k].Has(t) {
				assume.Lists[k] = ir.TypeUnknown
				changed = true
			}
		}
		if !changed {
			break
		}
		if a.res.Passes > 64*len(a.body)+64 {
			panic(fmt.Sprintf("analyzer: loop at %d did not converge", begin))
		}
	}

	// Leaving the loop: a counted loop exits from its header (which sees the
	// stable assumption); a conditional loop exits at its condition checks.
	after := assume.clone()
	if a.body[begin].Op == ir.OP_LOOP {
		if len(body.loop.exits) > 0 {
			after = body.loop.exits[0].clone()
			for _, x := range body.loop.exits[1:] {
				after.union(x)
			}
		}
	}
	sc.types.assign(after)
}

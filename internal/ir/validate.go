package ir

import "fmt"

// ValidationError locates a malformed instruction
type ValidationError struct {
	Function string
	Index    int
	Msg      string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Function, e.Msg)
	}
	return fmt.Sprintf("%s[%d]: %s", e.Function, e.Index, e.Msg)
}

// Validate checks every script and procedure body against the front-end
// contract and returns all violations found.
func Validate(p *Program) []error {
	var errs []error
	for i := range p.Procedures {
		proc := &p.Procedures[i]
		errs = append(errs, validateBody(p, "procedure "+proc.Name, proc.Body, len(proc.Params))...)
	}
	for i := range p.Scripts {
		s := &p.Scripts[i]
		errs = append(errs, validateBody(p, "script "+s.Name, s.Body, -1)...)
	}
	return errs
}

func validateBody(p *Program, name string, body Body, params int) []error {
	var errs []error
	fail := func(i int, format string, args ...interface{}) {
		errs = append(errs, &ValidationError{Function: name, Index: i, Msg: fmt.Sprintf(format, args...)})
	}

	if _, err := Match(body); err != nil {
		fail(-1, "%s", err)
		return errs
	}

	// scope[i] is the lexical scope of instruction i; parents links scopes
	scope := make([]int, len(body))
	parents := []int{-1}
	var stack []int
	cur := 0
	enter := func() {
		parents = append(parents, cur)
		stack = append(stack, cur)
		cur = len(parents) - 1
	}
	leave := func() {
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
	}
	visible := func(from, to int) bool {
		for s := to; s >= 0; s = parents[s] {
			if s == from {
				return true
			}
		}
		return false
	}

	for i := range body {
		in := &body[i]
		switch in.Op {
		case OP_ELSE:
			leave()
		case OP_END_IF, OP_END_LOOP:
			leave()
		}
		scope[i] = cur

		if in.Op >= OP_COUNT {
			fail(i, "unknown opcode %d", in.Op)
			continue
		}
		if n := Arity(in.Op); n >= 0 && len(in.Args) != n {
			fail(i, "%s takes %d operands, got %d", in.Op, n, len(in.Args))
		}
		for j, a := range in.Args {
			if a.IsConst() {
				continue
			}
			switch {
			case a.Ref < 0 || a.Ref >= i:
				fail(i, "operand %d refers to %d, which does not precede it", j, a.Ref)
			case ResultType(body[a.Ref].Op) == TypeNone:
				fail(i, "operand %d refers to %s, which produces no value", j, body[a.Ref].Op)
			case !visible(scope[a.Ref], cur):
				fail(i, "operand %d refers to %d outside its scope", j, a.Ref)
			}
		}
		if UsesVariable(in.Op) && (in.Var < 0 || in.Var >= len(p.Variables)) {
			fail(i, "variable index %d out of range", in.Var)
		}
		if UsesList(in.Op) && (in.List < 0 || in.List >= len(p.Lists)) {
			fail(i, "list index %d out of range", in.List)
		}
		switch in.Op {
		case OP_MATHOP:
			if in.Fn >= FN_COUNT {
				fail(i, "unknown math function %d", in.Fn)
			}
		case OP_CALL:
			if in.Proc < 0 || in.Proc >= len(p.Procedures) {
				fail(i, "procedure index %d out of range", in.Proc)
			} else if want := len(p.Procedures[in.Proc].Params); len(in.Args) != want {
				fail(i, "call to %s passes %d arguments, want %d", p.Procedures[in.Proc].Name, len(in.Args), want)
			}
		case OP_ARG:
			if params < 0 {
				fail(i, "argument read outside a procedure")
			} else if in.Arg < 0 || in.Arg >= params {
				fail(i, "argument index %d out of range", in.Arg)
			}
		}

		switch in.Op {
		case OP_IF, OP_ELSE, OP_REPEAT, OP_LOOP:
			enter()
		}
	}
	return errs
}

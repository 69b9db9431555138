package ir

import "fmt"

// Span links a control marker to the markers closing it. For OP_IF, Else is
// the OP_ELSE index (or -1) and End the OP_END_IF index. For OP_REPEAT and
// OP_LOOP, End is the OP_END_LOOP index. For OP_LOOP_WHILE and
// OP_LOOP_UNTIL, Loop is the enclosing OP_LOOP index.
type Span struct {
	Else int
	End  int
	Loop int
}

// Structure maps control marker indices to their spans
type Structure map[int]Span

// Match pairs the structured control markers of body.
func Match(body Body) (Structure, error) {
	st := make(Structure)
	type open struct {
		at int
		op Opcode
	}
	var stack []open

	for i := range body {
		switch op := body[i].Op; op {
		case OP_IF, OP_REPEAT, OP_LOOP:
			stack = append(stack, open{i, op})
			st[i] = Span{Else: -1, End: -1, Loop: -1}
		case OP_ELSE:
			if len(stack) == 0 || stack[len(stack)-1].op != OP_IF {
				return nil, fmt.Errorf("%d: else without if", i)
			}
			top := stack[len(stack)-1].at
			sp := st[top]
			if sp.Else >= 0 {
				return nil, fmt.Errorf("%d: second else for if at %d", i, top)
			}
			sp.Else = i
			st[top] = sp
		case OP_END_IF:
			if len(stack) == 0 || stack[len(stack)-1].op != OP_IF {
				return nil, fmt.Errorf("%d: end_if without if", i)
			}
			top := stack[len(stack)-1].at
			stack = stack[:len(stack)-1]
			sp := st[top]
			sp.End = i
			st[top] = sp
		case OP_END_LOOP:
			if len(stack) == 0 || (stack[len(stack)-1].op != OP_REPEAT && stack[len(stack)-1].op != OP_LOOP) {
				return nil, fmt.Errorf("%d: end_loop without loop", i)
			}
			top := stack[len(stack)-1].at
			stack = stack[:len(stack)-1]
			sp := st[top]
			sp.End = i
			st[top] = sp
		case OP_LOOP_WHILE, OP_LOOP_UNTIL:
			loop := -1
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j].op == OP_LOOP {
					loop = stack[j].at
					break
				}
				if stack[j].op == OP_REPEAT {
					break
				}
			}
			if loop < 0 {
				return nil, fmt.Errorf("%d: %s outside a conditional loop", i, op)
			}
			st[i] = Span{Else: -1, End: -1, Loop: loop}
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return nil, fmt.Errorf("%d: unclosed %s", top.at, top.op)
	}
	return st, nil
}

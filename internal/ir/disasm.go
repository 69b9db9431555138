package ir

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of body. annotate, when not
// nil, supplies a trailing note per instruction (e.g. analyzed types).
func Disassemble(p *Program, body Body, name string, annotate func(i int) string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	depth := 0
	for i := range body {
		in := &body[i]
		switch in.Op {
		case OP_ELSE, OP_END_IF, OP_END_LOOP:
			depth--
		}

		sb.WriteString(fmt.Sprintf("%04d ", i))
		sb.WriteString(strings.Repeat("  ", max(depth, 0)))
		sb.WriteString(in.String())
		if ref := operandTarget(p, in); ref != "" {
			sb.WriteString(" ")
			sb.WriteString(ref)
		}
		if annotate != nil {
			if note := annotate(i); note != "" {
				sb.WriteString("    ; ")
				sb.WriteString(note)
			}
		}
		sb.WriteByte('\n')

		switch in.Op {
		case OP_IF, OP_ELSE, OP_REPEAT, OP_LOOP:
			depth++
		}
	}

	return sb.String()
}

func operandTarget(p *Program, in *Instr) string {
	if p == nil {
		return ""
	}
	switch {
	case UsesVariable(in.Op) && in.Var < len(p.Variables):
		return "[" + p.Variables[in.Var].Name + "]"
	case UsesList(in.Op) && in.List < len(p.Lists):
		return "[" + p.Lists[in.List].Name + "]"
	case in.Op == OP_CALL && in.Proc < len(p.Procedures):
		return "<" + p.Procedures[in.Proc].Name + ">"
	case in.Op == OP_ARG:
		return fmt.Sprintf("#%d", in.Arg)
	}
	return ""
}

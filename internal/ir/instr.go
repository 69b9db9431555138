package ir

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/host"
)

// NoRef marks an operand that carries an immediate constant
const NoRef = -1

// Operand is one input of an instruction: a declared type plus either an
// immediate constant or the index of the instruction producing the value.
type Operand struct {
	Type  Type
	Const host.Value
	Ref   int
}

// IsConst reports whether the operand is an immediate
func (o Operand) IsConst() bool {
	return o.Ref == NoRef
}

// Num creates a number constant operand
func Num(f float64) Operand {
	return Operand{Const: host.Number(f), Ref: NoRef}
}

// Str creates a string constant operand
func Str(s string) Operand {
	return Operand{Const: host.String(s), Ref: NoRef}
}

// Bool creates a boolean constant operand
func Bool(b bool) Operand {
	return Operand{Const: host.Bool(b), Ref: NoRef}
}

// Ref creates an operand reading the result of instruction idx
func Ref(idx int) Operand {
	return Operand{Ref: idx}
}

// Instr is one instruction of the stream
type Instr struct {
	Op   Opcode
	Args []Operand

	Var  int    // Program.Variables index for variable ops
	List int    // Program.Lists index for list ops
	Proc int    // Program.Procedures index for OP_CALL
	Arg  int    // argument index for OP_ARG
	Fn   MathFn // function for OP_MATHOP

	// Label names the instruction in fixtures and diagnostics
	Label string
}

// Body is an ordered instruction stream. An instruction's result is
// referenced by its index.
type Body []Instr

// Emit appends in, filling undeclared operand types from the opcode
// signature, and returns its index.
func (b *Body) Emit(in Instr) int {
	for i := range in.Args {
		if in.Args[i].Type == TypeNone {
			in.Args[i].Type = OperandType(in.Op, i)
		}
	}
	*b = append(*b, in)
	return len(*b) - 1
}

// Op appends an instruction with only an opcode and operands
func (b *Body) Op(op Opcode, args ...Operand) int {
	return b.Emit(Instr{Op: op, Args: args})
}

func (in *Instr) String() string {
	s := in.Op.String()
	if in.Op == OP_MATHOP {
		s += " " + in.Fn.String()
	}
	for i, a := range in.Args {
		if i == 0 {
			s += " "
		} else {
			s += ", "
		}
		if a.IsConst() {
			s += a.Const.Inspect()
		} else {
			s += fmt.Sprintf("%%%d", a.Ref)
		}
	}
	return s
}

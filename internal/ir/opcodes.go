// Package ir defines the instruction stream produced by the front end: a
// linear list of typed operations with structured control markers.
package ir

// Opcode identifies an instruction kind
type Opcode byte

const (
	// Arithmetic
	OP_ADD    Opcode = iota // a + b
	OP_SUB                  // a - b
	OP_MUL                  // a * b
	OP_DIV                  // a / b
	OP_MOD                  // a mod b, divisor sign
	OP_ROUND                // round half up, -0 for [-0.5, 0)
	OP_MATHOP               // unary math function selected by Instr.Fn
	OP_RANDOM               // pick random from..to

	// Comparison
	OP_EQ        // a = b
	OP_GT        // a > b
	OP_LT        // a < b
	OP_STR_EQ_CS // case-sensitive text equality

	// Logic
	OP_AND
	OP_OR
	OP_NOT

	// Strings
	OP_JOIN      // a .. b
	OP_LETTER_OF // letter n of s
	OP_LENGTH    // length of s
	OP_CONTAINS  // s contains t, case-insensitive

	// Variables
	OP_READ_VAR
	OP_WRITE_VAR
	OP_CHANGE_VAR // var = number(var) + delta

	// Lists (indices are 1-based)
	OP_LIST_ADD
	OP_LIST_DELETE
	OP_LIST_DELETE_ALL
	OP_LIST_INSERT
	OP_LIST_REPLACE
	OP_LIST_ITEM
	OP_LIST_ITEM_INDEX
	OP_LIST_LENGTH
	OP_LIST_CONTAINS
	OP_LIST_CONTENTS

	// Control flow
	OP_IF         // begin branch on cond
	OP_ELSE       // begin else arm
	OP_END_IF     // close branch
	OP_REPEAT     // begin counted loop
	OP_LOOP       // begin conditional or forever loop
	OP_LOOP_WHILE // leave the innermost OP_LOOP when cond is false
	OP_LOOP_UNTIL // leave the innermost OP_LOOP when cond is true
	OP_END_LOOP   // close REPEAT or LOOP
	OP_YIELD      // suspend point
	OP_STOP       // finish the current function

	// Procedures
	OP_CALL // call Program.Procedures[Proc] with Args
	OP_ARG  // read argument Index of the current procedure

	OP_COUNT
)

// MathFn selects the function applied by OP_MATHOP
type MathFn byte

const (
	FN_ABS MathFn = iota
	FN_FLOOR
	FN_CEILING
	FN_SQRT
	FN_SIN
	FN_COS
	FN_TAN
	FN_ASIN
	FN_ACOS
	FN_ATAN
	FN_LN
	FN_LOG
	FN_EXP
	FN_POW10
	FN_COUNT
)

var opNames = [OP_COUNT]string{
	OP_ADD: "add", OP_SUB: "sub", OP_MUL: "mul", OP_DIV: "div", OP_MOD: "mod",
	OP_ROUND: "round", OP_MATHOP: "mathop", OP_RANDOM: "random",
	OP_EQ: "eq", OP_GT: "gt", OP_LT: "lt", OP_STR_EQ_CS: "str_eq_cs",
	OP_AND: "and", OP_OR: "or", OP_NOT: "not",
	OP_JOIN: "join", OP_LETTER_OF: "letter_of", OP_LENGTH: "length", OP_CONTAINS: "contains",
	OP_READ_VAR: "read_var", OP_WRITE_VAR: "write_var", OP_CHANGE_VAR: "change_var",
	OP_LIST_ADD: "list_add", OP_LIST_DELETE: "list_delete", OP_LIST_DELETE_ALL: "list_delete_all",
	OP_LIST_INSERT: "list_insert", OP_LIST_REPLACE: "list_replace", OP_LIST_ITEM: "list_item",
	OP_LIST_ITEM_INDEX: "list_item_index", OP_LIST_LENGTH: "list_length",
	OP_LIST_CONTAINS: "list_contains", OP_LIST_CONTENTS: "list_contents",
	OP_IF: "if", OP_ELSE: "else", OP_END_IF: "end_if",
	OP_REPEAT: "repeat", OP_LOOP: "loop", OP_LOOP_WHILE: "loop_while", OP_LOOP_UNTIL: "loop_until",
	OP_END_LOOP: "end_loop", OP_YIELD: "yield", OP_STOP: "stop",
	OP_CALL: "call", OP_ARG: "arg",
}

var fnNames = [FN_COUNT]string{
	FN_ABS: "abs", FN_FLOOR: "floor", FN_CEILING: "ceiling", FN_SQRT: "sqrt",
	FN_SIN: "sin", FN_COS: "cos", FN_TAN: "tan", FN_ASIN: "asin", FN_ACOS: "acos",
	FN_ATAN: "atan", FN_LN: "ln", FN_LOG: "log", FN_EXP: "e ^", FN_POW10: "10 ^",
}

func (op Opcode) String() string {
	if op < OP_COUNT {
		return opNames[op]
	}
	return "op?"
}

func (fn MathFn) String() string {
	if fn < FN_COUNT {
		return fnNames[fn]
	}
	return "fn?"
}

// LookupOpcode finds an opcode by its text name
func LookupOpcode(name string) (Opcode, bool) {
	for op, n := range opNames {
		if n == name {
			return Opcode(op), true
		}
	}
	return 0, false
}

// LookupMathFn finds a math function by its text name
func LookupMathFn(name string) (MathFn, bool) {
	for fn, n := range fnNames {
		if n == name {
			return MathFn(fn), true
		}
	}
	switch name {
	case "exp":
		return FN_EXP, true
	case "pow10":
		return FN_POW10, true
	}
	return 0, false
}

// signature is the operand contract of an opcode. A nil operand list with
// variadic set means "any number of Unknown operands" (OP_CALL).
type signature struct {
	operands []Type
	result   Type
	variadic bool
}

var (
	tN = TypeNumber
	tB = TypeBool
	tS = TypeString
	tU = TypeUnknown
	t0 = TypeNone
)

var signatures = [OP_COUNT]signature{
	OP_ADD:    {[]Type{tN, tN}, tN, false},
	OP_SUB:    {[]Type{tN, tN}, tN, false},
	OP_MUL:    {[]Type{tN, tN}, tN, false},
	OP_DIV:    {[]Type{tN, tN}, tN, false},
	OP_MOD:    {[]Type{tN, tN}, tN, false},
	OP_ROUND:  {[]Type{tN}, tN, false},
	OP_MATHOP: {[]Type{tN}, tN, false},
	OP_RANDOM: {[]Type{tU, tU}, tN, false},

	OP_EQ:        {[]Type{tU, tU}, tB, false},
	OP_GT:        {[]Type{tU, tU}, tB, false},
	OP_LT:        {[]Type{tU, tU}, tB, false},
	OP_STR_EQ_CS: {[]Type{tS, tS}, tB, false},

	OP_AND: {[]Type{tB, tB}, tB, false},
	OP_OR:  {[]Type{tB, tB}, tB, false},
	OP_NOT: {[]Type{tB}, tB, false},

	OP_JOIN:      {[]Type{tS, tS}, tS, false},
	OP_LETTER_OF: {[]Type{tN, tS}, tS, false},
	OP_LENGTH:    {[]Type{tS}, tN, false},
	OP_CONTAINS:  {[]Type{tS, tS}, tB, false},

	OP_READ_VAR:   {nil, tU, false},
	OP_WRITE_VAR:  {[]Type{tU}, t0, false},
	OP_CHANGE_VAR: {[]Type{tN}, t0, false},

	OP_LIST_ADD:        {[]Type{tU}, t0, false},
	OP_LIST_DELETE:     {[]Type{tN}, t0, false},
	OP_LIST_DELETE_ALL: {nil, t0, false},
	OP_LIST_INSERT:     {[]Type{tN, tU}, t0, false},
	OP_LIST_REPLACE:    {[]Type{tN, tU}, t0, false},
	OP_LIST_ITEM:       {[]Type{tN}, tU, false},
	OP_LIST_ITEM_INDEX: {[]Type{tU}, tN, false},
	OP_LIST_LENGTH:     {nil, tN, false},
	OP_LIST_CONTAINS:   {[]Type{tU}, tB, false},
	OP_LIST_CONTENTS:   {nil, tS, false},

	OP_IF:         {[]Type{tB}, t0, false},
	OP_ELSE:       {nil, t0, false},
	OP_END_IF:     {nil, t0, false},
	OP_REPEAT:     {[]Type{tN}, t0, false},
	OP_LOOP:       {nil, t0, false},
	OP_LOOP_WHILE: {[]Type{tB}, t0, false},
	OP_LOOP_UNTIL: {[]Type{tB}, t0, false},
	OP_END_LOOP:   {nil, t0, false},
	OP_YIELD:      {nil, t0, false},
	OP_STOP:       {nil, t0, false},

	OP_CALL: {nil, t0, true},
	OP_ARG:  {nil, tU, false},
}

// Arity returns the operand count of op, or -1 when it takes any number.
func Arity(op Opcode) int {
	if op >= OP_COUNT {
		return -1
	}
	s := signatures[op]
	if s.variadic {
		return -1
	}
	return len(s.operands)
}

// OperandType returns the declared type of operand i of op.
func OperandType(op Opcode, i int) Type {
	s := signatures[op]
	if s.variadic || i >= len(s.operands) {
		return TypeUnknown
	}
	return s.operands[i]
}

// ResultType returns the statically declared result type of op. TypeNone
// means the instruction produces no value.
func ResultType(op Opcode) Type {
	return signatures[op].result
}

// UsesVariable reports whether op references Instr.Var
func UsesVariable(op Opcode) bool {
	return op == OP_READ_VAR || op == OP_WRITE_VAR || op == OP_CHANGE_VAR
}

// UsesList reports whether op references Instr.List
func UsesList(op Opcode) bool {
	return op >= OP_LIST_ADD && op <= OP_LIST_CONTENTS
}

// IsControl reports whether op is a structured control marker
func IsControl(op Opcode) bool {
	return op >= OP_IF && op <= OP_END_LOOP
}

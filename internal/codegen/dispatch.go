package codegen

import "github.com/funvibe/blockjit/internal/ir"

// emitFn emits instruction i and returns its result handle
type emitFn func(b *builder, i int, in *ir.Instr, args []Handle) Handle

type handler struct {
	arity int // -1 for any
	emit  emitFn
}

var handlers [ir.OP_COUNT]handler

func register(op ir.Opcode, emit emitFn) {
	handlers[op] = handler{arity: ir.Arity(op), emit: emit}
}

func init() {
	register(ir.OP_ADD, emitArith)
	register(ir.OP_SUB, emitArith)
	register(ir.OP_MUL, emitArith)
	register(ir.OP_DIV, emitArith)
	register(ir.OP_MOD, emitArith)
	register(ir.OP_ROUND, emitRound)
	register(ir.OP_MATHOP, emitMathOp)
	register(ir.OP_RANDOM, emitRandom)

	register(ir.OP_EQ, emitCompare)
	register(ir.OP_GT, emitCompare)
	register(ir.OP_LT, emitCompare)
	register(ir.OP_STR_EQ_CS, emitStrEqCS)

	register(ir.OP_AND, emitLogic)
	register(ir.OP_OR, emitLogic)
	register(ir.OP_NOT, emitNot)

	register(ir.OP_JOIN, emitJoin)
	register(ir.OP_LETTER_OF, emitLetterOf)
	register(ir.OP_LENGTH, emitLength)
	register(ir.OP_CONTAINS, emitContains)

	register(ir.OP_READ_VAR, emitReadVar)
	register(ir.OP_WRITE_VAR, emitWriteVar)
	register(ir.OP_CHANGE_VAR, emitChangeVar)

	register(ir.OP_LIST_ADD, emitListAdd)
	register(ir.OP_LIST_DELETE, emitListDelete)
	register(ir.OP_LIST_DELETE_ALL, emitListDeleteAll)
	register(ir.OP_LIST_INSERT, emitListInsert)
	register(ir.OP_LIST_REPLACE, emitListReplace)
	register(ir.OP_LIST_ITEM, emitListItem)
	register(ir.OP_LIST_ITEM_INDEX, emitListFind)
	register(ir.OP_LIST_CONTAINS, emitListFind)
	register(ir.OP_LIST_LENGTH, emitListLength)
	register(ir.OP_LIST_CONTENTS, emitListContents)

	register(ir.OP_IF, emitIf)
	register(ir.OP_ELSE, emitElse)
	register(ir.OP_END_IF, emitEndIf)
	register(ir.OP_REPEAT, emitRepeat)
	register(ir.OP_LOOP, emitLoop)
	register(ir.OP_LOOP_WHILE, emitLoopExit)
	register(ir.OP_LOOP_UNTIL, emitLoopExit)
	register(ir.OP_END_LOOP, emitEndLoop)
	register(ir.OP_YIELD, emitYield)
	register(ir.OP_STOP, emitStop)

	register(ir.OP_CALL, emitCall)
	register(ir.OP_ARG, emitArg)
}

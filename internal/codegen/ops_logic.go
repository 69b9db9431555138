package codegen

import (
	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

func emitLogic(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	x, y := b.cast(args[0], KindBool), b.cast(args[1], KindBool)
	and := in.Op == ir.OP_AND
	if x.Variant == Constant && y.Variant == Constant {
		if and {
			return constHandle(host.Bool(x.Const.Truth() && y.Const.Truth()))
		}
		return constHandle(host.Bool(x.Const.Truth() || y.Const.Truth()))
	}

	gx, gy := b.boolOf(x), b.boolOf(y)
	if and {
		return b.emitBool(i, func(fr *Frame) bool { return gx(fr) && gy(fr) })
	}
	return b.emitBool(i, func(fr *Frame) bool { return gx(fr) || gy(fr) })
}

func emitNot(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	x := b.cast(args[0], KindBool)
	if x.Variant == Constant {
		return constHandle(host.Bool(!x.Const.Truth()))
	}
	gx := b.boolOf(x)
	return b.emitBool(i, func(fr *Frame) bool { return !gx(fr) })
}

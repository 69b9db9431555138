package codegen

import (
	"strings"
	"unicode/utf8"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

func emitJoin(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	x, y := b.cast(args[0], KindString), b.cast(args[1], KindString)
	if x.Variant == Constant && y.Variant == Constant {
		return constHandle(host.String(x.Const.Str() + y.Const.Str()))
	}

	gx, gy := b.strOf(x), b.strOf(y)
	out := b.newReg(KindString)
	out.Owned = true
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		fr.strs[r] = fr.arena.Concat(gx(fr), gy(fr))
	})
	return out
}

// letter returns letter n (1-based) of s, or "" when out of range
func letter(n float64, s string) string {
	idx := nz(n) - 1
	if idx < 0 || idx >= float64(len(s)) {
		return ""
	}
	k := int(idx)
	for i, r := range s {
		if k == 0 {
			return s[i : i+utf8.RuneLen(r)]
		}
		k--
	}
	return ""
}

func emitLetterOf(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	gn, gs := b.numOf(args[0]), b.strOf(args[1])
	out := b.newReg(KindString)
	out.Owned = true
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		fr.strs[r] = fr.arena.String(letter(gn(fr), gs(fr)))
	})
	return out
}

func emitLength(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	x := b.cast(args[0], KindString)
	if x.Variant == Constant {
		return constHandle(host.Number(float64(utf8.RuneCountInString(x.Const.Str()))))
	}
	gx := b.strOf(x)
	out := b.newReg(KindNumber)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		fr.nums[r] = float64(utf8.RuneCountInString(gx(fr)))
	})
	return out
}

func emitContains(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	x, y := b.cast(args[0], KindString), b.cast(args[1], KindString)
	if x.Variant == Constant && y.Variant == Constant {
		return constHandle(host.Bool(strings.Contains(strings.ToLower(x.Const.Str()), strings.ToLower(y.Const.Str()))))
	}
	gx := b.strOf(x)
	if y.Variant == Constant {
		needle := strings.ToLower(y.Const.Str())
		return b.emitBool(i, func(fr *Frame) bool {
			return strings.Contains(strings.ToLower(gx(fr)), needle)
		})
	}
	gy := b.strOf(y)
	return b.emitBool(i, func(fr *Frame) bool {
		return strings.Contains(strings.ToLower(gx(fr)), strings.ToLower(gy(fr)))
	})
}

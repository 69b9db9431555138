package codegen

import (
	"math"
	"strings"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// outcome maps a three-way comparison result to the operator's answer
func outcome(op ir.Opcode) func(c int) bool {
	switch op {
	case ir.OP_EQ:
		return func(c int) bool { return c == 0 }
	case ir.OP_GT:
		return func(c int) bool { return c > 0 }
	default:
		return func(c int) bool { return c < 0 }
	}
}

func (b *builder) emitBool(i int, f func(*Frame) bool) Handle {
	out := b.newReg(KindBool)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) { fr.bools[r] = f(fr) })
	return out
}

func emitCompare(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	x, y := args[0], args[1]
	want := outcome(in.Op)

	if x.Variant == Constant && y.Variant == Constant {
		return constHandle(host.Bool(want(host.Compare(x.Const, y.Const))))
	}

	// A constant string against a number or boolean: numeric text folds
	// into a number, anything else can never be equal.
	if f, ok := comparesAsNumber(x); ok && y.Variant == Specialized && y.Kind != KindString {
		x = constHandle(host.Number(f))
	}
	if f, ok := comparesAsNumber(y); ok && x.Variant == Specialized && x.Kind != KindString {
		y = constHandle(host.Number(f))
	}
	if in.Op == ir.OP_EQ && (neverEqual(x, y) || neverEqual(y, x)) {
		return constHandle(host.Bool(false))
	}

	xk, yk := b.staticKind(x), b.staticKind(y)
	switch {
	case xk == KindNumber && yk == KindNumber:
		return b.emitBool(i, numberCompare(in.Op, b.numOf(x), b.numOf(y)))
	case xk == KindBool && yk == KindBool:
		return b.emitBool(i, boolCompare(in.Op, b.boolOf(x), b.boolOf(y)))
	case xk == KindString && yk == KindString:
		return b.emitBool(i, b.stringCompare(want, x, y))
	case xk == KindNumber && yk == KindBool:
		return b.emitBool(i, numberBoolCompare(want, b.numOf(x), b.boolOf(y), false))
	case xk == KindBool && yk == KindNumber:
		return b.emitBool(i, numberBoolCompare(want, b.numOf(y), b.boolOf(x), true))
	}

	gx, gy := b.valOf(x), b.valOf(y)
	return b.emitBool(i, func(fr *Frame) bool { return want(host.Compare(gx(fr), gy(fr))) })
}

// staticKind is the kind of a non-generic handle, or 255
func (b *builder) staticKind(h Handle) Kind {
	if h.Variant == Generic {
		return 255
	}
	return h.Kind
}

// comparesAsNumber returns the number a string constant reads as in a
// comparison. NaN text compares as text.
func comparesAsNumber(h Handle) (float64, bool) {
	if h.Variant != Constant || h.Const.Tag != host.TagString {
		return 0, false
	}
	f, ok := host.ParseNumber(h.Const.Str())
	return f, ok && !math.IsNaN(f)
}

// neverEqual reports whether string constant c can never equal h, a
// specialized number or boolean. Such pairs compare as text, and the text
// of a number is only ever non-numeric for NaN.
func neverEqual(c, h Handle) bool {
	if c.Variant != Constant || c.Const.Tag != host.TagString || h.Variant != Specialized {
		return false
	}
	if _, ok := comparesAsNumber(c); ok {
		return false
	}
	s := c.Const.Str()
	switch h.Kind {
	case KindNumber:
		return !strings.EqualFold(s, "nan")
	case KindBool:
		return !strings.EqualFold(s, "true") && !strings.EqualFold(s, "false")
	}
	return false
}

// numberCompare compares raw numbers natively; NaN operands take the
// host's path, which orders them as text.
func numberCompare(op ir.Opcode, x, y func(*Frame) float64) func(*Frame) bool {
	switch op {
	case ir.OP_EQ:
		return func(fr *Frame) bool {
			a, c := x(fr), y(fr)
			if a != a || c != c {
				return host.CompareNumbers(a, c) == 0
			}
			return a == c
		}
	case ir.OP_GT:
		return func(fr *Frame) bool {
			a, c := x(fr), y(fr)
			if a != a || c != c {
				return host.CompareNumbers(a, c) > 0
			}
			return a > c
		}
	default:
		return func(fr *Frame) bool {
			a, c := x(fr), y(fr)
			if a != a || c != c {
				return host.CompareNumbers(a, c) < 0
			}
			return a < c
		}
	}
}

func boolCompare(op ir.Opcode, x, y func(*Frame) bool) func(*Frame) bool {
	switch op {
	case ir.OP_EQ:
		return func(fr *Frame) bool { return x(fr) == y(fr) }
	case ir.OP_GT:
		return func(fr *Frame) bool { return x(fr) && !y(fr) }
	default:
		return func(fr *Frame) bool { return !x(fr) && y(fr) }
	}
}

// numberBoolCompare compares a number with a boolean read as 0 or 1.
// swapped is set when the boolean is the left operand. A NaN number reads
// as text, so it goes through the generic compare.
func numberBoolCompare(want func(int) bool, num func(*Frame) float64, flag func(*Frame) bool, swapped bool) func(*Frame) bool {
	return func(fr *Frame) bool {
		n, t := num(fr), flag(fr)
		var c int
		if n != n {
			c = host.Compare(host.Number(n), host.Bool(t))
		} else {
			var bn float64
			if t {
				bn = 1
			}
			switch {
			case n == bn:
				c = 0
			case n > bn:
				c = 1
			default:
				c = -1
			}
		}
		if swapped {
			c = -c
		}
		return want(c)
	}
}

// stringCompare orders two strings. Against a constant that is not a
// number the order is always textual, so the constant is lowered once.
func (b *builder) stringCompare(want func(int) bool, x, y Handle) func(*Frame) bool {
	if lc, ok := textConst(y); ok {
		gx := b.strOf(x)
		return func(fr *Frame) bool { return want(strings.Compare(strings.ToLower(gx(fr)), lc)) }
	}
	if lc, ok := textConst(x); ok {
		gy := b.strOf(y)
		return func(fr *Frame) bool { return want(strings.Compare(lc, strings.ToLower(gy(fr)))) }
	}
	gx, gy := b.strOf(x), b.strOf(y)
	return func(fr *Frame) bool { return want(host.CompareStrings(gx(fr), gy(fr))) }
}

func textConst(h Handle) (string, bool) {
	if h.Variant != Constant || h.Const.Tag != host.TagString {
		return "", false
	}
	s := h.Const.Str()
	if f, ok := host.ParseNumber(s); ok && !math.IsNaN(f) {
		return "", false
	}
	return strings.ToLower(s), true
}

func emitStrEqCS(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	x, y := b.cast(args[0], KindString), b.cast(args[1], KindString)
	if x.Variant == Constant && y.Variant == Constant {
		return constHandle(host.Bool(x.Const.Str() == y.Const.Str()))
	}
	gx, gy := b.strOf(x), b.strOf(y)
	return b.emitBool(i, func(fr *Frame) bool { return gx(fr) == gy(fr) })
}

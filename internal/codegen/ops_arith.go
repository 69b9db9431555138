package codegen

import (
	"math"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

func add(a, b float64) float64 { return a + b }
func sub(a, b float64) float64 { return a - b }
func mul(a, b float64) float64 { return a * b }
func div(a, b float64) float64 { return a / b }

// mod keeps the divisor's sign
func mod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r/b < 0 {
		r += b
	}
	return r
}

// round is half up, with -0 for [-0.5, 0)
func round(x float64) float64 {
	if x >= 0 {
		return math.Round(x)
	}
	if x >= -0.5 {
		return math.Copysign(0, -1)
	}
	return math.Floor(x + 0.5)
}

// round10 rounds to 10 decimals, away from the float noise of trig results
func round10(x float64) float64 {
	return math.Floor(x*1e10+0.5) / 1e10
}

const degree = math.Pi / 180

func tan(x float64) float64 {
	switch math.Mod(x, 360) {
	case 90, -270:
		return math.Inf(1)
	case -90, 270:
		return math.Inf(-1)
	}
	return round10(math.Tan(x*degree)) + 0
}

var mathFns = [ir.FN_COUNT]func(float64) float64{
	ir.FN_ABS:     math.Abs,
	ir.FN_FLOOR:   math.Floor,
	ir.FN_CEILING: math.Ceil,
	ir.FN_SQRT:    func(x float64) float64 { return math.Sqrt(x) + 0 },
	ir.FN_SIN:     func(x float64) float64 { return round10(math.Sin(x*degree)) + 0 },
	ir.FN_COS:     func(x float64) float64 { return round10(math.Cos(x*degree)) + 0 },
	ir.FN_TAN:     tan,
	ir.FN_ASIN:    func(x float64) float64 { return math.Asin(x)/degree + 0 },
	ir.FN_ACOS:    func(x float64) float64 { return math.Acos(x) / degree },
	ir.FN_ATAN:    func(x float64) float64 { return math.Atan(x)/degree + 0 },
	ir.FN_LN:      math.Log,
	ir.FN_LOG:     math.Log10,
	ir.FN_EXP:     math.Exp,
	ir.FN_POW10:   func(x float64) float64 { return math.Pow(10, x) },
}

func arith(op ir.Opcode) func(a, b float64) float64 {
	switch op {
	case ir.OP_ADD:
		return add
	case ir.OP_SUB:
		return sub
	case ir.OP_MUL:
		return mul
	case ir.OP_DIV:
		return div
	default:
		return mod
	}
}

func emitArith(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	f := arith(in.Op)
	x, y := b.cast(args[0], KindNumber), b.cast(args[1], KindNumber)
	if x.Variant == Constant && y.Variant == Constant {
		return constHandle(host.Number(f(nz(x.Const.Num()), nz(y.Const.Num()))))
	}

	gx, gy := b.numOf(x), b.numOf(y)
	out := b.newReg(KindNumber)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		fr.nums[r] = f(nz(gx(fr)), nz(gy(fr)))
	})
	return out
}

func emitUnary(b *builder, i int, f func(float64) float64, arg Handle) Handle {
	x := b.cast(arg, KindNumber)
	if x.Variant == Constant {
		return constHandle(host.Number(f(nz(x.Const.Num()))))
	}
	gx := b.numOf(x)
	out := b.newReg(KindNumber)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		fr.nums[r] = f(nz(gx(fr)))
	})
	return out
}

func emitRound(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	return emitUnary(b, i, round, args[0])
}

func emitMathOp(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	if in.Fn >= ir.FN_COUNT {
		b.contractf(i, "unknown math function %d", in.Fn)
	}
	return emitUnary(b, i, mathFns[in.Fn], args[0])
}

// pickRandom returns an integer in [low, high] when both bounds read as
// integers, else a float in [low, high).
func pickRandom(r interface{ Float64() float64 }, from, to host.Value) float64 {
	a, c := nz(host.ToDouble(from)), nz(host.ToDouble(to))
	low, high := a, c
	if low > high {
		low, high = high, low
	}
	if low == high {
		return low
	}
	if host.IsInt(from) && host.IsInt(to) {
		return low + math.Floor(r.Float64()*(high+1-low))
	}
	return r.Float64()*(high-low) + low
}

func emitRandom(b *builder, i int, _ *ir.Instr, args []Handle) Handle {
	from, to := b.valOf(args[0]), b.valOf(args[1])
	out := b.newReg(KindNumber)
	r := out.Reg
	b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) {
		fr.nums[r] = pickRandom(fr.env.Rand, from(fr), to(fr))
	})
	return out
}

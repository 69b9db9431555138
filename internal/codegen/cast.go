package codegen

import (
	"github.com/funvibe/blockjit/internal/host"
)

// cast converts h to kind k. Constants fold at compile time; specialized
// values of another kind and generic values get a conversion op writing a
// fresh register.
func (b *builder) cast(h Handle, k Kind) Handle {
	switch h.Variant {
	case Constant:
		return constHandle(convertConst(h.Const, k))
	case Specialized:
		if h.Kind == k {
			return h
		}
		return b.convert(h, k)
	default:
		return b.unbox(h, k)
	}
}

func convertConst(v host.Value, k Kind) host.Value {
	switch k {
	case KindNumber:
		return host.Number(host.ToDouble(v))
	case KindBool:
		return host.Bool(host.ToBool(v))
	default:
		return host.String(host.ToString(v))
	}
}

// convert emits a conversion between two specialized kinds
func (b *builder) convert(h Handle, k Kind) Handle {
	src := h.Reg
	out := b.newReg(k)
	r := out.Reg
	name := "cast " + h.String() + " -> " + out.String()

	switch h.Kind {
	case KindNumber:
		if k == KindBool {
			b.emit(name, func(fr *Frame) { fr.bools[r] = host.NumberToBool(fr.nums[src]) })
		} else {
			out.Owned = true
			b.emit(name, func(fr *Frame) { fr.strs[r] = fr.arena.FormatNumber(fr.nums[src]) })
		}
	case KindBool:
		if k == KindNumber {
			b.emit(name, func(fr *Frame) {
				if fr.bools[src] {
					fr.nums[r] = 1
				} else {
					fr.nums[r] = 0
				}
			})
		} else {
			// interned text, never freed
			b.emit(name, func(fr *Frame) { fr.strs[r] = host.BoolToString(fr.bools[src]) })
		}
	default:
		if k == KindNumber {
			b.emit(name, func(fr *Frame) { fr.nums[r] = host.StringToNumber(fr.strs[src]) })
		} else {
			b.emit(name, func(fr *Frame) { fr.bools[r] = host.StringToBool(fr.strs[src]) })
		}
	}
	return out
}

// unbox reads a generic value as kind k, taking the field directly when the
// tag already matches.
func (b *builder) unbox(h Handle, k Kind) Handle {
	src := h.Reg
	out := b.newReg(k)
	r := out.Reg
	name := "unbox " + h.String() + " -> " + out.String()

	switch k {
	case KindNumber:
		b.emit(name, func(fr *Frame) {
			v := &fr.vals[src]
			if v.Tag == host.TagNumber {
				fr.nums[r] = v.Num()
			} else {
				fr.nums[r] = host.ToDouble(*v)
			}
		})
	case KindBool:
		b.emit(name, func(fr *Frame) {
			v := &fr.vals[src]
			if v.Tag == host.TagBool {
				fr.bools[r] = v.Truth()
			} else {
				fr.bools[r] = host.ToBool(*v)
			}
		})
	default:
		out.Owned = h.Owned
		b.emit(name, func(fr *Frame) {
			v := &fr.vals[src]
			if v.Tag == host.TagString {
				fr.strs[r] = v.Str()
			} else {
				fr.strs[r] = host.ToString(*v)
			}
		})
	}
	return out
}

// box materializes h as a generic value in a fresh register
func (b *builder) box(h Handle) Handle {
	if h.Variant == Generic {
		return h
	}
	get := b.valOf(h)
	out := b.newVal()
	out.Owned = h.Owned
	r := out.Reg
	b.emit("box "+h.String()+" -> "+out.String(), func(fr *Frame) { fr.vals[r] = get(fr) })
	return out
}

// Getters read a handle inside an op. numOf, boolOf and strOf cast first.

func (b *builder) numOf(h Handle) func(*Frame) float64 {
	h = b.cast(h, KindNumber)
	if h.Variant == Constant {
		c := h.Const.Num()
		return func(*Frame) float64 { return c }
	}
	r := h.Reg
	return func(fr *Frame) float64 { return fr.nums[r] }
}

func (b *builder) boolOf(h Handle) func(*Frame) bool {
	h = b.cast(h, KindBool)
	if h.Variant == Constant {
		c := h.Const.Truth()
		return func(*Frame) bool { return c }
	}
	r := h.Reg
	return func(fr *Frame) bool { return fr.bools[r] }
}

func (b *builder) strOf(h Handle) func(*Frame) string {
	h = b.cast(h, KindString)
	if h.Variant == Constant {
		c := h.Const.Str()
		return func(*Frame) string { return c }
	}
	r := h.Reg
	return func(fr *Frame) string { return fr.strs[r] }
}

// valOf reads h as a tagged value without allocating a register
func (b *builder) valOf(h Handle) func(*Frame) host.Value {
	switch h.Variant {
	case Constant:
		c := h.Const
		return func(*Frame) host.Value { return c }
	case Generic:
		r := h.Reg
		return func(fr *Frame) host.Value { return fr.vals[r] }
	}
	r := h.Reg
	switch h.Kind {
	case KindNumber:
		return func(fr *Frame) host.Value { return host.Number(fr.nums[r]) }
	case KindBool:
		return func(fr *Frame) host.Value { return host.Bool(fr.bools[r]) }
	default:
		return func(fr *Frame) host.Value { return host.String(fr.strs[r]) }
	}
}

// storer writes h into host-owned memory. Scope-owned strings are copied
// so the destination never aliases a buffer that will be freed.
func (b *builder) storer(h Handle) func(fr *Frame, dst *host.Value) {
	switch h.Variant {
	case Constant:
		c := canonical(h.Const)
		return func(_ *Frame, dst *host.Value) { *dst = c }
	case Generic:
		r := h.Reg
		if h.Owned {
			return func(fr *Frame, dst *host.Value) { dst.Assign(fr.vals[r]) }
		}
		return func(fr *Frame, dst *host.Value) { *dst = fr.vals[r] }
	}
	r := h.Reg
	switch h.Kind {
	case KindNumber:
		return func(fr *Frame, dst *host.Value) { *dst = host.Number(fr.nums[r]) }
	case KindBool:
		return func(fr *Frame, dst *host.Value) { *dst = host.Bool(fr.bools[r]) }
	default:
		if h.Owned {
			return func(fr *Frame, dst *host.Value) { dst.Assign(host.String(fr.strs[r])) }
		}
		return func(fr *Frame, dst *host.Value) { *dst = host.String(fr.strs[r]) }
	}
}

// canonical stores a string constant that is the exact text of a number as
// that number. The two are indistinguishable to every operation.
func canonical(v host.Value) host.Value {
	if v.Tag == host.TagString && host.IsCanonicalNumber(v.Str()) {
		return host.Number(host.StringToNumber(v.Str()))
	}
	return v
}

// nz absorbs NaN inputs of arithmetic
func nz(f float64) float64 {
	if f != f {
		return 0
	}
	return f
}

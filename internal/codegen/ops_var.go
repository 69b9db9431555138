package codegen

import (
	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// varCache is the compile-time state of one variable inside the function
// being built. While active, reads use h instead of loading from the host.
// A dirty cache holds a value the host copy has not seen yet.
type varCache struct {
	bind   varBinding
	addr   func(*Frame) *host.Value
	active bool
	dirty  bool
	h      Handle
}

func (b *builder) cache(i int, in *ir.Instr) *varCache {
	if vc, ok := b.vars[in.Var]; ok {
		return vc
	}
	vb := b.variableOf(i, in)
	vc := &varCache{bind: vb, addr: vb.addr()}
	b.vars[in.Var] = vc
	b.varOrder = append(b.varOrder, in.Var)
	return vc
}

// load emits a read of the host copy as the analyzed type t. A single kind
// is read straight from its field after checking the tag.
func (b *builder) load(i int, vc *varCache, t ir.Type) Handle {
	addr := vc.addr
	k, single := kindOfType(t)
	if !single {
		out := b.newVal()
		r := out.Reg
		b.emit(b.label(i)+" -> "+out.String(), func(fr *Frame) { fr.vals[r] = *addr(fr) })
		return out
	}

	out := b.newReg(k)
	r := out.Reg
	name := b.label(i) + " -> " + out.String()
	switch k {
	case KindNumber:
		b.emit(name, func(fr *Frame) {
			v := addr(fr)
			if v.Tag == host.TagNumber {
				fr.nums[r] = v.Num()
			} else {
				fr.nums[r] = host.ToDouble(*v)
			}
		})
	case KindBool:
		b.emit(name, func(fr *Frame) {
			v := addr(fr)
			if v.Tag == host.TagBool {
				fr.bools[r] = v.Truth()
			} else {
				fr.bools[r] = host.ToBool(*v)
			}
		})
	default:
		b.emit(name, func(fr *Frame) {
			v := addr(fr)
			if v.Tag == host.TagString {
				fr.strs[r] = v.Str()
			} else {
				fr.strs[r] = host.ToString(*v)
			}
		})
	}
	return out
}

func emitReadVar(b *builder, i int, in *ir.Instr, _ []Handle) Handle {
	vc := b.cache(i, in)
	if vc.active {
		return vc.h
	}
	h := b.load(i, vc, b.types.Types[i])
	vc.active, vc.dirty, vc.h = true, false, h
	return h
}

func emitWriteVar(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	vc := b.cache(i, in)
	h := args[0]
	if h.Variant == Constant {
		h = constHandle(canonical(h.Const))
	}
	vc.active, vc.dirty, vc.h = true, true, h
	return none
}

func emitChangeVar(b *builder, i int, in *ir.Instr, args []Handle) Handle {
	vc := b.cache(i, in)
	cur := vc.h
	if !vc.active {
		cur = b.load(i, vc, ir.TypeNumber)
	}
	x, d := b.cast(cur, KindNumber), b.cast(args[0], KindNumber)

	var h Handle
	if x.Variant == Constant && d.Variant == Constant {
		h = constHandle(host.Number(nz(x.Const.Num()) + nz(d.Const.Num())))
	} else {
		gx, gd := b.numOf(x), b.numOf(d)
		h = b.newReg(KindNumber)
		r := h.Reg
		b.emit(b.label(i)+" -> "+h.String(), func(fr *Frame) { fr.nums[r] = nz(gx(fr)) + nz(gd(fr)) })
	}
	vc.active, vc.dirty, vc.h = true, true, h
	return none
}

// sync writes a dirty cache back to the host copy
func (b *builder) sync(vc *varCache) {
	if !vc.active || !vc.dirty {
		return
	}
	store, addr := b.storer(vc.h), vc.addr
	b.emit("sync "+vc.bind.String()+" <- "+vc.h.String(), func(fr *Frame) { store(fr, addr(fr)) })
	vc.dirty = false
}

// syncAll writes back every dirty cache
func (b *builder) syncAll() {
	for _, k := range b.varOrder {
		b.sync(b.vars[k])
	}
}

// emitSyncAll writes back every dirty cache on a side path without
// changing the compile-time state of the path being built.
func (b *builder) emitSyncAll() {
	for _, k := range b.varOrder {
		vc := b.vars[k]
		if vc.active && vc.dirty {
			store, addr := b.storer(vc.h), vc.addr
			b.emit("sync "+vc.bind.String()+" <- "+vc.h.String(), func(fr *Frame) { store(fr, addr(fr)) })
		}
	}
}

// forgetAll drops every cache. Callers sync first.
func (b *builder) forgetAll() {
	for _, vc := range b.vars {
		vc.active, vc.dirty = false, false
	}
}

type cacheState struct {
	active bool
	h      Handle
}

func (b *builder) snapshot() map[int]cacheState {
	snap := make(map[int]cacheState, len(b.vars))
	for k, vc := range b.vars {
		snap[k] = cacheState{vc.active, vc.h}
	}
	return snap
}

// forgetChanged drops every cache that differs from snap. Their handles
// were computed on a path that may not have run.
func (b *builder) forgetChanged(snap map[int]cacheState) {
	for k, vc := range b.vars {
		if s, ok := snap[k]; !ok || s.active != vc.active || s.h != vc.h {
			vc.active, vc.dirty = false, false
		}
	}
}

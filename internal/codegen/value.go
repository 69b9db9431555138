package codegen

import (
	"fmt"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// Kind is the primitive kind of a specialized value
type Kind uint8

const (
	KindNumber Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Type returns the analyzer type holding only k
func (k Kind) Type() ir.Type {
	switch k {
	case KindNumber:
		return ir.TypeNumber
	case KindBool:
		return ir.TypeBool
	default:
		return ir.TypeString
	}
}

func kindOfTag(t host.Tag) Kind {
	switch t {
	case host.TagNumber:
		return KindNumber
	case host.TagBool:
		return KindBool
	default:
		return KindString
	}
}

// kindOfType returns the kind of a single-kind type
func kindOfType(t ir.Type) (Kind, bool) {
	switch t {
	case ir.TypeNumber:
		return KindNumber, true
	case ir.TypeBool:
		return KindBool, true
	case ir.TypeString:
		return KindString, true
	}
	return 0, false
}

// Variant says where a handle's value lives
type Variant uint8

const (
	Constant    Variant = iota // known at compile time
	Specialized                // raw native value in the register file of Kind
	Generic                    // tagged value in the vals register file
)

// Handle is the compile-time description of one instruction result.
// Handles never outlive the build of the function that created them.
type Handle struct {
	Variant Variant
	Kind    Kind
	Const   host.Value
	Reg     int

	// Owned marks strings living in a scope-owned buffer. They must be
	// copied before being stored anywhere that outlives the scope.
	Owned bool
}

// none is the handle of instructions without a result
var none = Handle{Variant: Constant, Kind: KindString, Const: host.String("")}

func constHandle(v host.Value) Handle {
	return Handle{Variant: Constant, Kind: kindOfTag(v.Tag), Const: v}
}

// Type returns the set of kinds the handle may hold at runtime
func (h Handle) Type() ir.Type {
	if h.Variant == Generic {
		return ir.TypeUnknown
	}
	return h.Kind.Type()
}

func (h Handle) String() string {
	switch h.Variant {
	case Constant:
		return h.Const.Inspect()
	case Specialized:
		return fmt.Sprintf("%c%d", "nbs"[h.Kind], h.Reg)
	default:
		return fmt.Sprintf("v%d", h.Reg)
	}
}

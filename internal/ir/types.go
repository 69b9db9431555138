package ir

import (
	"strings"

	"github.com/funvibe/blockjit/internal/host"
)

// Type is a set of runtime value kinds. The zero Type is the empty set.
type Type uint8

const (
	TypeNumber Type = 1 << iota
	TypeBool
	TypeString

	TypeNone    Type = 0
	TypeUnknown      = TypeNumber | TypeBool | TypeString
)

// Single reports whether t holds exactly one kind
func (t Type) Single() bool {
	return t == TypeNumber || t == TypeBool || t == TypeString
}

// Has reports whether every kind of u is in t
func (t Type) Has(u Type) bool {
	return t&u == u
}

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeUnknown:
		return "unknown"
	}
	var parts []string
	if t&TypeNumber != 0 {
		parts = append(parts, "number")
	}
	if t&TypeBool != 0 {
		parts = append(parts, "bool")
	}
	if t&TypeString != 0 {
		parts = append(parts, "string")
	}
	return strings.Join(parts, "|")
}

// TypeOf returns the specialization type of a constant. A string whose text
// is the canonical rendering of a number counts as a number, since storing
// the number instead is unobservable.
func TypeOf(v host.Value) Type {
	switch v.Tag {
	case host.TagNumber:
		return TypeNumber
	case host.TagBool:
		return TypeBool
	default:
		if host.IsCanonicalNumber(v.Str()) {
			return TypeNumber
		}
		return TypeString
	}
}

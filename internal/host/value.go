// Package host models the runtime-owned state that compiled scripts operate
// on: the tagged value record, variables, lists and sprite instances.
package host

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Tag identifies the kind of payload stored in a Value
type Tag uint32

const (
	TagNumber Tag = iota
	TagBool
	TagString
)

func (t Tag) String() string {
	switch t {
	case TagNumber:
		return "number"
	case TagBool:
		return "bool"
	case TagString:
		return "string"
	default:
		return fmt.Sprintf("tag(%d)", uint32(t))
	}
}

// Value is the tagged value record shared between compiled code and the host.
// data holds float64 bits for numbers and 0/1 for booleans. The string payload
// sits in its own field because a Go pointer may not live inside an integer;
// EncodeRecord produces the packed wire layout.
type Value struct {
	data uint64
	Tag  Tag
	_    uint32
	str  string
}

// RecordSize is the size of an encoded record:
// 8-byte union, 4-byte tag, 4 bytes padding, 8-byte string length.
const RecordSize = 24

func Number(f float64) Value {
	return Value{data: math.Float64bits(f), Tag: TagNumber}
}

func Bool(b bool) Value {
	var data uint64
	if b {
		data = 1
	}
	return Value{data: data, Tag: TagBool}
}

func String(s string) Value {
	return Value{Tag: TagString, str: s}
}

// Num returns the number field. Only meaningful when Tag is TagNumber.
func (v Value) Num() float64 {
	return math.Float64frombits(v.data)
}

// Truth returns the boolean field. Only meaningful when Tag is TagBool.
func (v Value) Truth() bool {
	return v.data == 1
}

// Str returns the string field. Only meaningful when Tag is TagString.
func (v Value) Str() string {
	return v.str
}

// Bits returns the raw 8-byte union.
func (v Value) Bits() uint64 {
	return v.data
}

// Assign copies src into v. String payloads are cloned so the destination
// never aliases a buffer owned by compiled code.
func (v *Value) Assign(src Value) {
	v.data = src.data
	v.Tag = src.Tag
	if src.Tag == TagString {
		v.str = strings.Clone(src.str)
	} else {
		v.str = ""
	}
}

// Inspect returns a debug representation
func (v Value) Inspect() string {
	switch v.Tag {
	case TagString:
		return fmt.Sprintf("%q", v.str)
	default:
		return ToString(v)
	}
}

// EncodeRecord packs v into the fixed little-endian record layout.
func EncodeRecord(v Value) [RecordSize]byte {
	var rec [RecordSize]byte
	binary.LittleEndian.PutUint64(rec[0:8], v.data)
	binary.LittleEndian.PutUint32(rec[8:12], uint32(v.Tag))
	if v.Tag == TagString {
		binary.LittleEndian.PutUint64(rec[16:24], uint64(len(v.str)))
	}
	return rec
}

// DecodeRecord rebuilds a Value from a packed record. For string records the
// payload is supplied separately and must match the encoded length.
func DecodeRecord(rec [RecordSize]byte, payload string) (Value, error) {
	tag := Tag(binary.LittleEndian.Uint32(rec[8:12]))
	switch tag {
	case TagNumber, TagBool:
		return Value{data: binary.LittleEndian.Uint64(rec[0:8]), Tag: tag}, nil
	case TagString:
		n := binary.LittleEndian.Uint64(rec[16:24])
		if uint64(len(payload)) != n {
			return Value{}, fmt.Errorf("string record length %d does not match payload length %d", n, len(payload))
		}
		return String(payload), nil
	default:
		return Value{}, fmt.Errorf("invalid record tag %d", uint32(tag))
	}
}

package host

import "strings"

// Variable is a host-owned variable. Compiled code reads and writes Value
// directly through a resolved pointer.
type Variable struct {
	ID    string
	Name  string
	Value Value
}

// NewVariable creates a variable with an initial value
func NewVariable(id, name string, v Value) *Variable {
	return &Variable{ID: id, Name: name, Value: v}
}

// List is a host-owned list. Only AppendEmpty, InsertEmptyAt and Clear may
// move or resize the backing buffer.
type List struct {
	ID    string
	Name  string
	items []Value

	reallocs int
}

// NewList creates a list with the given items. The backing buffer is sized
// exactly, so the first append reallocates.
func NewList(id, name string, items ...Value) *List {
	l := &List{ID: id, Name: name}
	if len(items) > 0 {
		l.items = make([]Value, len(items))
		for i := range items {
			l.items[i].Assign(items[i])
		}
	}
	return l
}

// Size returns the number of items
func (l *List) Size() int {
	return len(l.items)
}

// Capacity returns the allocated capacity of the backing buffer
func (l *List) Capacity() int {
	return cap(l.items)
}

// Data returns the backing buffer up to its capacity. Entries past Size are
// unused. The slice stays valid until the next reallocating operation.
func (l *List) Data() []Value {
	return l.items[:cap(l.items)]
}

// Reallocs counts how many times the backing buffer has been replaced.
func (l *List) Reallocs() int {
	return l.reallocs
}

// Clear removes all items and drops the backing buffer.
func (l *List) Clear() {
	if l.items != nil {
		l.reallocs++
	}
	l.items = nil
}

// RemoveAt removes the item at a zero-based index. Out-of-range indices are
// ignored.
func (l *List) RemoveAt(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = Value{}
	l.items = l.items[:len(l.items)-1]
}

// AppendEmpty appends a zero item and returns a pointer to it.
func (l *List) AppendEmpty() *Value {
	l.grow()
	l.items = l.items[:len(l.items)+1]
	slot := &l.items[len(l.items)-1]
	*slot = String("")
	return slot
}

// InsertEmptyAt inserts a zero item before a zero-based index in [0, Size]
// and returns a pointer to it. Out-of-range indices return nil.
func (l *List) InsertEmptyAt(i int) *Value {
	if i < 0 || i > len(l.items) {
		return nil
	}
	l.grow()
	l.items = l.items[:len(l.items)+1]
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = String("")
	return &l.items[i]
}

func (l *List) grow() {
	if len(l.items) < cap(l.items) {
		return
	}
	n := cap(l.items) * 2
	if n < 4 {
		n = 4
	}
	items := make([]Value, len(l.items), n)
	copy(items, l.items)
	l.items = items
	l.reallocs++
}

// Item returns the item at a zero-based index
func (l *List) Item(i int) Value {
	return l.items[i]
}

// Append is the host-side convenience for adding an item.
func (l *List) Append(v Value) {
	l.AppendEmpty().Assign(v)
}

// Set replaces the item at a zero-based index.
func (l *List) Set(i int, v Value) {
	l.items[i].Assign(v)
}

// Items returns a copy of the list contents
func (l *List) Items() []Value {
	out := make([]Value, len(l.items))
	copy(out, l.items)
	return out
}

// Contents renders the list the way the list reporter shows it: items joined
// without separator when every item is a single character, else with spaces.
func Contents(items []Value) string {
	parts := make([]string, len(items))
	single := true
	for i, it := range items {
		parts[i] = ToString(it)
		if len([]rune(parts[i])) != 1 {
			single = false
		}
	}
	if single {
		return strings.Join(parts, "")
	}
	return strings.Join(parts, " ")
}

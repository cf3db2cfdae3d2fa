package runtime

import "github.com/wasmine-go/wasmine/internal/wasmtypes"

// Table is one instantiated table: a growable vector of references, each
// either null or a reference to a Function (funcref) or an opaque host value
// (externref) (spec.md §4.4). Funcref entries point directly at the
// Function they resolve to rather than an index, so table.set from a
// different module and call_indirect both observe one canonical identity.
type Table struct {
	RefType wasmtypes.ValueType
	Elems   []TableElem
	Max     uint32
	HasMax  bool
}

// TableElem is one table slot. A nil Func/zero Extern with Null set
// represents ref.null; exactly one of Func/Extern is meaningful, selected by
// the table's RefType.
type TableElem struct {
	Func   *Function
	Extern uint64
	Null   bool
}

// NewTable allocates a table at its minimum size, every slot null.
func NewTable(rt wasmtypes.ValueType, lim wasmtypes.Limits) *Table {
	t := &Table{RefType: rt, Max: lim.Max, HasMax: lim.HasMax}
	t.Elems = make([]TableElem, lim.Min)
	for i := range t.Elems {
		t.Elems[i].Null = true
	}
	return t
}

func (t *Table) Size() uint32 { return uint32(len(t.Elems)) }

// Grow appends delta null-initialized slots (then overwrites them with
// init), returning the previous size, or ok=false if the growth would
// exceed the table's maximum.
func (t *Table) Grow(delta uint32, init TableElem) (previous uint32, ok bool) {
	cur := t.Size()
	next := cur + delta
	if next < cur {
		return cur, false
	}
	if t.HasMax && next > t.Max {
		return cur, false
	}
	grown := make([]TableElem, next)
	copy(grown, t.Elems)
	for i := cur; i < next; i++ {
		grown[i] = init
	}
	t.Elems = grown
	return cur, true
}

func (t *Table) bounds(offset, n uint32) bool {
	end := uint64(offset) + uint64(n)
	return end <= uint64(len(t.Elems))
}

func (t *Table) Get(idx uint32) (TableElem, bool) {
	if idx >= t.Size() {
		return TableElem{}, false
	}
	return t.Elems[idx], true
}

func (t *Table) Set(idx uint32, e TableElem) bool {
	if idx >= t.Size() {
		return false
	}
	t.Elems[idx] = e
	return true
}

func (t *Table) Fill(offset uint32, e TableElem, n uint32) bool {
	if !t.bounds(offset, n) {
		return false
	}
	region := t.Elems[offset : offset+n]
	for i := range region {
		region[i] = e
	}
	return true
}

func (t *Table) CopyWithin(dst, src, n uint32) bool {
	if !t.bounds(dst, n) || !t.bounds(src, n) {
		return false
	}
	copy(t.Elems[dst:dst+n], t.Elems[src:src+n])
	return true
}

// CopyFrom implements table.copy between two distinct tables.
func CopyFrom(dstT *Table, dst uint32, srcT *Table, src, n uint32) bool {
	if !dstT.bounds(dst, n) || !srcT.bounds(src, n) {
		return false
	}
	copy(dstT.Elems[dst:dst+n], srcT.Elems[src:src+n])
	return true
}

// ElemToSlot/SlotToElem convert between a table's structured element
// representation and the raw value-slot representation table.get/table.set
// exchange with the operand stack; 0 always means null, for either
// reference kind (spec.md §4.4's nullable-reference simplification, see
// DESIGN.md).
func ElemToSlot(e TableElem) wasmtypes.RawSlot {
	switch {
	case e.Null:
		return 0
	case e.Func != nil:
		return funcToSlot(e.Func)
	default:
		return e.Extern
	}
}

func SlotToElem(rt wasmtypes.ValueType, s wasmtypes.RawSlot) TableElem {
	if s == 0 {
		return TableElem{Null: true}
	}
	if rt == wasmtypes.ValueTypeFuncRef {
		return TableElem{Func: slotToFunc(s)}
	}
	return TableElem{Extern: s}
}

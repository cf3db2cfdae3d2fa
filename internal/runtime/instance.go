package runtime

import (
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// Instance is one instantiated module: module.Module's static metadata plus
// the live, mutable state an instantiation allocates from it (spec.md §4.4).
// Every memory/table/global/function slot sits in the same dense index space
// the binary format defines, imports occupying the low indices.
type Instance struct {
	Name   string
	Module *module.Module // nil for a host-defined instance built directly via a Builder.

	Memories  []*Memory
	Tables    []*Table
	Globals   []*Global
	Functions []*Function

	// segElems/segData hold each element/data segment's resolved content,
	// indexed the same way module.Elements/module.Data are. A passive
	// segment is read by table.init/memory.init until data.drop/elem.drop
	// (or an instantiation-time apply, for active segments) nils its entry
	// out, per spec.md §4.4's "at most once" consumption rule.
	segElems [][]TableElem
	segData  [][]byte

	exports map[string]exportEntry
}

type exportEntry struct {
	kind wasmtypes.ExternKind
	idx  uint32
}

func newInstance(name string) *Instance {
	return &Instance{Name: name, exports: make(map[string]exportEntry)}
}

// NewHostInstance returns an empty instance for a Builder to populate with
// host-defined functions, memories and globals; it has no backing
// module.Module since it was never decoded from a binary.
func NewHostInstance(name string) *Instance { return newInstance(name) }

// ExportFunc binds name to the function at idx in Functions, for Builders.
func (inst *Instance) ExportFunc(name string, idx uint32) { inst.export(name, wasmtypes.ExternKindFunc, idx) }

// ExportMemory binds name to the memory at idx in Memories, for Builders.
func (inst *Instance) ExportMemory(name string, idx uint32) {
	inst.export(name, wasmtypes.ExternKindMemory, idx)
}

// ExportGlobal binds name to the global at idx in Globals, for Builders.
func (inst *Instance) ExportGlobal(name string, idx uint32) {
	inst.export(name, wasmtypes.ExternKindGlobal, idx)
}

// export records a name binding; used both by the parsed-module instantiation
// path (from module.Module.Exports) and by host-module Builders.
func (inst *Instance) export(name string, kind wasmtypes.ExternKind, idx uint32) {
	inst.exports[name] = exportEntry{kind: kind, idx: idx}
}

// ExportedFunction looks up an exported function by name.
func (inst *Instance) ExportedFunction(name string) (*Function, bool) {
	e, ok := inst.exports[name]
	if !ok || e.kind != wasmtypes.ExternKindFunc || int(e.idx) >= len(inst.Functions) {
		return nil, false
	}
	return inst.Functions[e.idx], true
}

// ExportedMemory looks up an exported memory by name.
func (inst *Instance) ExportedMemory(name string) (*Memory, bool) {
	e, ok := inst.exports[name]
	if !ok || e.kind != wasmtypes.ExternKindMemory || int(e.idx) >= len(inst.Memories) {
		return nil, false
	}
	return inst.Memories[e.idx], true
}

// ExportedGlobal looks up an exported global by name.
func (inst *Instance) ExportedGlobal(name string) (*Global, bool) {
	e, ok := inst.exports[name]
	if !ok || e.kind != wasmtypes.ExternKindGlobal || int(e.idx) >= len(inst.Globals) {
		return nil, false
	}
	return inst.Globals[e.idx], true
}

// ExportedTable looks up an exported table by name.
func (inst *Instance) ExportedTable(name string) (*Table, bool) {
	e, ok := inst.exports[name]
	if !ok || e.kind != wasmtypes.ExternKindTable || int(e.idx) >= len(inst.Tables) {
		return nil, false
	}
	return inst.Tables[e.idx], true
}

// Segment/DropSegment/DataSegment/DropData give the interpreter's table.init/memory.init/
// elem.drop/data.drop handlers access to a segment by index, without
// exposing the whole Instance layout to package interpreter.
func (inst *Instance) Segment(idx uint32) []TableElem { return inst.segElems[idx] }
func (inst *Instance) DropSegment(idx uint32)         { inst.segElems[idx] = nil }
func (inst *Instance) DataSegment(idx uint32) []byte  { return inst.segData[idx] }
func (inst *Instance) DropData(idx uint32)            { inst.segData[idx] = nil }

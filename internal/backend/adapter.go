// Package backend defines the narrow interface an external native-codegen
// collaborator implements to run compiled Wasm functions instead of this
// module's tree-walking interpreter (spec.md §4.6). The backend's own
// internal representation (register allocation, object emission) is out of
// scope for this repo; what lives here is the adapter boundary: how a module
// is declared to a backend, how one function is handed to it for
// translation, how its compiled entry points are named and looked up, and
// the runtime-interface callback symbols §6 says compiled code calls back
// into (memory.*, table.*, data.drop, elem.drop, indirect_call).
//
// internal/interpreter satisfies this same shape without compiling anything
// (see InterpreterAdapter): it is the one Adapter this repo ships, exactly
// as wazero's own "interpreter" engine implements the same wasm.Engine
// interface its compiler and wazevo engines do, without emitting code.
package backend

import (
	"context"
	"fmt"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// EntryPoint is a compiled (or interpreted) function's callable form, bound
// to one Instance. It matches runtime.Starter's shape so either a backend's
// translation or the interpreter's own Start can stand in the same slot.
type EntryPoint func(ctx context.Context, ec *runtime.ExecContext, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error)

// Adapter is the two-operation interface spec.md §4.6 names: translate a
// module's metadata once, then translate each of its functions individually.
// Implementations must respect IR variable lifetimes, preserve every
// instruction's trap semantics, and expose each function's entry point at a
// symbol name produced by SymbolName, so GetSymbolAddr can resolve it for a
// .cwasm container's symbol table (spec.md §6).
type Adapter interface {
	// TranslateModule declares mod's function types to the backend. It is
	// called once per module, before any TranslateFunction call for that
	// module, and does not depend on any particular instantiation: the
	// runtime-interface callbacks a translated function calls back into
	// (RuntimeInterface) are bound per instance, not per module, since two
	// instances of the same module have distinct memories/tables/globals.
	TranslateModule(mod *module.Module) error

	// TranslateFunction translates the function at funcIdx in mod's dense
	// function index space, given its already-lowered IR body, and returns
	// a callable entry point bound to owner. TranslateModule must have been
	// called for mod first.
	TranslateFunction(mod *module.Module, funcIdx uint32, fn *ir.Function, owner *runtime.Instance) (EntryPoint, error)

	// GetSymbolAddr resolves the entry point most recently produced by
	// TranslateFunction for funcIdx back to an address, for a .cwasm
	// container's symbol table to record. ok is false until that function
	// has been translated.
	GetSymbolAddr(funcIdx uint32) (addr uintptr, ok bool)
}

// SymbolName is the deterministic backend symbol naming scheme spec.md
// §4.6/§6 requires: exported functions additionally carry their original
// name in a .cwasm container's symbol table, but the address lookup symbol
// itself is always func_<idx>.
func SymbolName(funcIdx uint32) string { return fmt.Sprintf("func_%d", funcIdx) }

// RuntimeInterface is the fixed set of C-ABI-shaped callback symbols spec.md
// §6 says compiled code calls back into. Every operation's first argument is
// conceptually the execution context; in this Go adapter that is carried as
// the *runtime.ExecContext parameter instead of a raw pointer, since there is
// no FFI boundary to cross here (translation stays in-process). A real
// out-of-process backend would marshal these same operations across its own
// C-ABI using the symbol names the doc comments give.
type RuntimeInterface struct {
	inst *runtime.Instance
}

// NewRuntimeInterface binds the callback surface to one instance's
// memories/tables/segments, the way a backend's translated code is always
// specialized to the instance it was compiled against.
func NewRuntimeInterface(inst *runtime.Instance) *RuntimeInterface {
	return &RuntimeInterface{inst: inst}
}

// MemoryGrow implements the memory_grow(ctx, mem_idx, delta) symbol.
func (ri *RuntimeInterface) MemoryGrow(memIdx uint32, delta uint32) (previous uint32, ok bool) {
	return ri.inst.Memories[memIdx].Grow(delta)
}

// MemoryFill implements the memory_fill symbol.
func (ri *RuntimeInterface) MemoryFill(memIdx, offset uint32, value byte, n uint32) bool {
	return ri.inst.Memories[memIdx].Fill(offset, value, n)
}

// MemoryCopy implements the memory_copy symbol.
func (ri *RuntimeInterface) MemoryCopy(memIdx, dst, src, n uint32) bool {
	return ri.inst.Memories[memIdx].CopyWithin(dst, src, n)
}

// MemoryInit implements the memory_init symbol.
func (ri *RuntimeInterface) MemoryInit(memIdx uint32, dst uint32, dataIdx uint32, src, n uint32) bool {
	data := ri.inst.DataSegment(dataIdx)
	if uint64(src)+uint64(n) > uint64(len(data)) {
		return false
	}
	return ri.inst.Memories[memIdx].Write(dst, data[src:src+n])
}

// DataDrop implements the data_drop symbol.
func (ri *RuntimeInterface) DataDrop(dataIdx uint32) { ri.inst.DropData(dataIdx) }

// TableGet implements the table_get symbol.
func (ri *RuntimeInterface) TableGet(tableIdx, idx uint32) (runtime.TableElem, bool) {
	return ri.inst.Tables[tableIdx].Get(idx)
}

// TableSet implements the table_set symbol.
func (ri *RuntimeInterface) TableSet(tableIdx, idx uint32, e runtime.TableElem) bool {
	return ri.inst.Tables[tableIdx].Set(idx, e)
}

// TableGrow implements the table_grow symbol.
func (ri *RuntimeInterface) TableGrow(tableIdx uint32, delta uint32, init runtime.TableElem) (previous uint32, ok bool) {
	return ri.inst.Tables[tableIdx].Grow(delta, init)
}

// TableFill implements the table_fill symbol.
func (ri *RuntimeInterface) TableFill(tableIdx, offset uint32, e runtime.TableElem, n uint32) bool {
	return ri.inst.Tables[tableIdx].Fill(offset, e, n)
}

// TableCopy implements the table_copy symbol, between possibly-distinct
// tables in the same instance.
func (ri *RuntimeInterface) TableCopy(dstTableIdx, dst, srcTableIdx, src, n uint32) bool {
	return runtime.CopyFrom(ri.inst.Tables[dstTableIdx], dst, ri.inst.Tables[srcTableIdx], src, n)
}

// TableInit implements the table_init symbol.
func (ri *RuntimeInterface) TableInit(tableIdx, elemIdx, dst, src, n uint32) bool {
	seg := ri.inst.Segment(elemIdx)
	srcEnd := uint64(src) + uint64(n)
	if srcEnd > uint64(len(seg)) {
		return false
	}
	if n == 0 {
		return true
	}
	table := ri.inst.Tables[tableIdx]
	dstEnd := uint64(dst) + uint64(n)
	if dstEnd > uint64(len(table.Elems)) {
		return false
	}
	copy(table.Elems[dst:dstEnd], seg[src:srcEnd])
	return true
}

// TableSize implements the table_size symbol.
func (ri *RuntimeInterface) TableSize(tableIdx uint32) uint32 { return ri.inst.Tables[tableIdx].Size() }

// ElemDrop implements the elem_drop symbol.
func (ri *RuntimeInterface) ElemDrop(elemIdx uint32) { ri.inst.DropSegment(elemIdx) }

// IndirectCall implements the indirect_call(ctx, table_idx, type_idx,
// selector) -> fn_ptr symbol: it resolves and validates a call_indirect
// target the same way the interpreter's own resolveIndirect does, returning
// a *runtime.Function in place of a raw function pointer (the in-process
// equivalent of "fn_ptr" here).
func (ri *RuntimeInterface) IndirectCall(tableIdx uint32, wantType wasmtypes.FuncType, selector uint32) (*runtime.Function, error) {
	table := ri.inst.Tables[tableIdx]
	elem, ok := table.Get(selector)
	if !ok {
		return nil, wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, "")
	}
	if elem.Null || elem.Func == nil {
		return nil, wasmtypes.NewTrap(wasmtypes.TrapCodeNullReference, "")
	}
	if !wantType.Equals(&elem.Func.Type) {
		return nil, wasmtypes.NewTrap(wasmtypes.TrapCodeIndirectCallTypeMismatch, "")
	}
	return elem.Func, nil
}

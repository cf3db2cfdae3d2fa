// Package module holds the immutable, parsed metadata of a Wasm module:
// everything the binary format's sections describe, plus the lowered IR
// body for each non-imported function (spec.md §3 "Module metadata").
package module

import (
	"crypto/sha256"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// Import describes one imported item: a module/item name pair plus a
// kind-tagged descriptor (spec.md §3).
type Import struct {
	Module string
	Name   string
	Kind   wasmtypes.ExternKind

	// Exactly one of the following is meaningful, selected by Kind.
	FuncTypeIdx uint32
	Table       TableType
	Memory      MemoryType
	Global      GlobalType
}

// Export maps an export name to a kind-tagged index into the owning
// module's corresponding space (spec.md §3).
type Export struct {
	Name string
	Kind wasmtypes.ExternKind
	Idx  uint32
}

// TableType is a table's reference type plus its size limits.
type TableType struct {
	RefType wasmtypes.RefType
	Limits  wasmtypes.Limits
}

// MemoryType is a memory's page-count size limits.
type MemoryType struct {
	Limits wasmtypes.Limits
}

// GlobalType is a global's declared mutability and value type.
type GlobalType struct {
	Mutable bool
	Type    wasmtypes.ValueType
}

// ConstExpr is a constant initializer expression, restricted by spec.md
// §4.1 to *.const, ref.null, ref.func, and global.get of an immutable
// imported global.
type ConstExpr struct {
	Kind ConstExprKind
	// I32/I64/F32/F64 const.
	I32Value int32
	I64Value int64
	F32Value float32
	F64Value float64
	// ref.null
	RefNullType wasmtypes.RefType
	// ref.func / global.get
	Idx uint32
}

type ConstExprKind byte

const (
	ConstExprI32Const ConstExprKind = iota
	ConstExprI64Const
	ConstExprF32Const
	ConstExprF64Const
	ConstExprRefNull
	ConstExprRefFunc
	ConstExprGlobalGet
)

// Global is a module-defined (not imported) global: its type plus constant
// initializer.
type Global struct {
	Type GlobalType
	Init ConstExpr
}

// ElementSegment is one element segment (spec.md §3): active segments name
// a target table and constant offset; passive/declarative segments exist to
// be referenced later by table.init or merely to declare references.
type ElementSegment struct {
	Mode  wasmtypes.SegmentMode
	Table uint32     // active only
	Offset ConstExpr // active only

	RefType wasmtypes.RefType
	// FuncIndices is populated when the segment's init exprs are all plain
	// function indices (the common "elem func" shorthand); otherwise Exprs
	// holds full constant expressions (ref.null / ref.func / global.get).
	FuncIndices []uint32
	Exprs       []ConstExpr
}

// DataSegment is one data segment: active segments name a target memory
// and constant offset; passive segments are loaded on demand.
type DataSegment struct {
	Mode   wasmtypes.SegmentMode
	Memory uint32     // active only
	Offset ConstExpr  // active only
	Bytes  []byte
}

// FunctionDef is one entry in the module's function index space: either an
// import descriptor or a parsed IR body, keyed by the same dense index
// space the binary format uses (imports first, then module-defined
// functions, as laid out by the import and function sections).
type FunctionDef struct {
	TypeIdx uint32
	// Body is nil for imported functions; ImportIdx then names the Import
	// entry describing where the implementation comes from.
	Body      *ir.Function
	IsImport  bool
	ImportIdx uint32
	// Name is the optional debug/export name, used for deterministic
	// backend symbol naming (spec.md §4.6) and CLI --invoke lookups.
	Name string
}

// Module is the immutable, fully parsed and validated record of one Wasm
// binary (spec.md §3). It is produced once by the parser and then shared
// read-only across every instantiation.
type Module struct {
	Types     []wasmtypes.FuncType
	Imports   []Import
	Functions []FunctionDef
	Tables    []TableType
	Memories  []MemoryType
	Globals   []Global
	Elements  []ElementSegment
	Data      []DataSegment
	Exports   []Export

	// Start is the optional start function index; its signature must be
	// []->[] (spec.md §4.1).
	Start    uint32
	HasStart bool

	// raw is retained only to compute ID lazily; the parser may set this to
	// nil once ID has been computed if it wants to release the bytes.
	raw []byte
	id  *[32]byte
}

// SetSourceBytes records the exact bytes this module was parsed from, used
// to compute ID. Called once by the parser after a successful parse.
func (m *Module) SetSourceBytes(b []byte) { m.raw = b }

// SourceBytes returns the exact bytes this module was parsed from, for a
// .cwasm container to persist (SPEC_FULL.md §4.8). It is nil if the parser
// released them after computing ID.
func (m *Module) SourceBytes() []byte { return m.raw }

// ID returns a content hash of the module's source bytes (SPEC_FULL.md
// §3.1), used as the backend adapter's compiled-module cache key. It is
// computed lazily and memoized.
func (m *Module) ID() [32]byte {
	if m.id == nil {
		h := sha256.Sum256(m.raw)
		m.id = &h
	}
	return *m.id
}

// ExportedFunction looks up an exported function by name, returning its
// function index.
func (m *Module) ExportedFunction(name string) (idx uint32, ok bool) {
	for _, e := range m.Exports {
		if e.Kind == wasmtypes.ExternKind(wasmtypes.ExternKindFunc) && e.Name == name {
			return e.Idx, true
		}
	}
	return 0, false
}

// FuncSignature returns the signature of the function at idx in the dense
// function index space (imports first, then module-defined functions).
func (m *Module) FuncSignature(idx uint32) wasmtypes.FuncType {
	return m.Types[m.Functions[idx].TypeIdx]
}

// GlobalValueType returns the value type of the global at idx in the dense
// global index space (imported globals first, then module-defined ones).
func (m *Module) GlobalValueType(idx uint32) wasmtypes.ValueType {
	n := uint32(0)
	for _, imp := range m.Imports {
		if imp.Kind == wasmtypes.ExternKindGlobal {
			if n == idx {
				return imp.Global.Type
			}
			n++
		}
	}
	return m.Globals[idx-n].Type.Type
}

// TableRefType returns the element type of the table at idx in the dense
// table index space (imported tables first, then module-defined ones).
func (m *Module) TableRefType(idx uint32) wasmtypes.ValueType {
	n := uint32(0)
	for _, imp := range m.Imports {
		if imp.Kind == wasmtypes.ExternKindTable {
			if n == idx {
				return imp.Table.RefType
			}
			n++
		}
	}
	return m.Tables[idx-n].RefType
}

// NumImportedFunctions returns how many of m.Functions are imports; these
// occupy function indices [0, NumImportedFunctions) by binary-format
// convention.
func (m *Module) NumImportedFunctions() int {
	n := 0
	for _, f := range m.Functions {
		if f.IsImport {
			n++
		}
	}
	return n
}

// Package wasmine is a WebAssembly core-spec runtime: decode a module, check
// it, and run it against a tree-walking interpreter.
package wasmine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/wasmine-go/wasmine/api"
	"github.com/wasmine-go/wasmine/internal/backend"
	"github.com/wasmine-go/wasmine/internal/interpreter"
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/parser"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// CompiledModule is a parsed, validated module ready to be instantiated any
// number of times.
type CompiledModule struct {
	mod *module.Module
}

// Compile decodes and validates binary, without allocating any instance
// state. The result can be instantiated repeatedly, cheaply.
func Compile(_ context.Context, binary []byte) (*CompiledModule, error) {
	mod, err := parser.Parse(binary)
	if err != nil {
		return nil, errors.Wrap(err, "compiling module")
	}
	return &CompiledModule{mod: mod}, nil
}

// Runtime is a Cluster of instantiated modules sharing one import namespace.
type Runtime struct {
	cluster *runtime.Cluster
}

// NewRuntime returns an empty Runtime.
func NewRuntime(context.Context) *Runtime {
	return &Runtime{cluster: runtime.NewCluster()}
}

// Instantiate compiles and instantiates binary in one step, registering it
// under the empty name NewModuleConfig gives; no custom "name" section is
// read, so a second Instantiate on the same Runtime fails as a duplicate
// registration. Most callers that need imports resolved against other
// modules should use InstantiateModule with a prior Compile instead.
func (r *Runtime) Instantiate(ctx context.Context, binary []byte) (api.Module, error) {
	compiled, err := Compile(ctx, binary)
	if err != nil {
		return nil, err
	}
	return r.InstantiateModule(ctx, compiled, NewModuleConfig())
}

// InstantiateModule instantiates compiled under the name given by cfg,
// resolving its imports against modules already registered in r. Every
// module-defined function is additionally handed to a fresh backend adapter
// (spec.md §4.6): this repo ships only backend.InterpreterAdapter, which
// simply delegates translated entry points back to the tree-walking
// interpreter, but the translate-module/translate-function/get-symbol-addr
// contract runs for real on every instantiation, the way a native backend's
// would.
func (r *Runtime) InstantiateModule(ctx context.Context, compiled *CompiledModule, cfg *ModuleConfig) (api.Module, error) {
	inst, err := r.cluster.Instantiate(ctx, cfg.name, compiled.mod, interpreter.Start)
	if err != nil {
		return nil, err
	}

	adapter := backend.NewInterpreterAdapter(interpreter.Start)
	if err := adapter.TranslateModule(compiled.mod); err != nil {
		return nil, errors.Wrap(err, "translating module for backend adapter")
	}
	entries := make(map[*runtime.Function]backend.EntryPoint, len(compiled.mod.Functions))
	for idx, def := range compiled.mod.Functions {
		if def.IsImport {
			continue
		}
		entry, err := adapter.TranslateFunction(compiled.mod, uint32(idx), def.Body, inst)
		if err != nil {
			return nil, errors.Wrap(err, "translating function for backend adapter")
		}
		entries[inst.Functions[idx]] = entry
	}

	return &moduleInstance{inst: inst, entries: entries}, nil
}

// NewHostModuleBuilder starts building a host module to be instantiated and
// registered under moduleName, so that Wasm modules can import from it.
func (r *Runtime) NewHostModuleBuilder(moduleName string) *HostModuleBuilder {
	return &HostModuleBuilder{r: r, name: moduleName}
}

// Close does nothing and returns nil: instances hold only Go-heap memory, and
// registered instances stay registered.
func (r *Runtime) Close(context.Context) error { return nil }

// moduleInstance adapts *runtime.Instance to api.Module. entries holds the
// backend-adapter entry point translated for each of inst's own functions
// (nil for a host-built instance, whose Builder never calls InstantiateModule).
type moduleInstance struct {
	inst    *runtime.Instance
	entries map[*runtime.Function]backend.EntryPoint
}

func (m *moduleInstance) Name() string { return m.inst.Name }
func (m *moduleInstance) String() string {
	return fmt.Sprintf("Module[%s]", m.inst.Name)
}

func (m *moduleInstance) Memory() api.Memory {
	if len(m.inst.Memories) == 0 {
		return nil
	}
	return &memoryView{m.inst.Memories[0]}
}

func (m *moduleInstance) ExportedFunction(name string) api.Function {
	f, ok := m.inst.ExportedFunction(name)
	if !ok {
		return nil
	}
	return &functionView{f, m.entries}
}

func (m *moduleInstance) ExportedMemory(name string) api.Memory {
	mem, ok := m.inst.ExportedMemory(name)
	if !ok {
		return nil
	}
	return &memoryView{mem}
}

func (m *moduleInstance) ExportedGlobal(name string) api.Global {
	g, ok := m.inst.ExportedGlobal(name)
	if !ok {
		return nil
	}
	return &globalView{g}
}

func (m *moduleInstance) Close(context.Context) error { return nil }

// functionView adapts *runtime.Function to api.Function. entries is nil for
// a host-built function (there is nothing to translate: it already is Go
// code), and may be nil or missing f for functions looked up without going
// through InstantiateModule's translation pass.
type functionView struct {
	f       *runtime.Function
	entries map[*runtime.Function]backend.EntryPoint
}

func (f *functionView) ParamTypes() []api.ValueType  { return toAPIValueTypes(f.f.Type.Params) }
func (f *functionView) ResultTypes() []api.ValueType { return toAPIValueTypes(f.f.Type.Results) }

// toAPIValueTypes converts wasmtypes.ValueType (a named byte type, so the
// internal packages can attach methods to it) to the api package's plain
// byte alias.
func toAPIValueTypes(vts []wasmtypes.ValueType) []api.ValueType {
	out := make([]api.ValueType, len(vts))
	for i, vt := range vts {
		out[i] = byte(vt)
	}
	return out
}

func (f *functionView) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	args := make([]wasmtypes.RawSlot, len(params))
	for i, p := range params {
		args[i] = wasmtypes.RawSlot(p)
	}

	var results []wasmtypes.RawSlot
	var err error
	if entry, ok := f.entries[f.f]; ok {
		results, err = callViaBackend(ctx, entry, args)
	} else {
		results, err = interpreter.Call(ctx, f.f, args)
	}
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(results))
	for i, r := range results {
		out[i] = uint64(r)
	}
	return out, nil
}

// callViaBackend runs a backend-translated entry point to completion,
// recovering a panicked trap the same way interpreter.Call does at its own
// host boundary (backend.EntryPoint itself does not recover, matching
// interpreter.Start's bare, recursible shape).
func callViaBackend(ctx context.Context, entry backend.EntryPoint, args []wasmtypes.RawSlot) (results []wasmtypes.RawSlot, err error) {
	defer runtime.RecoverTrap(&err)
	ec := runtime.NewExecContext(ctx)
	return entry(ctx, ec, args)
}

// globalView adapts *runtime.Global to api.Global/api.MutableGlobal.
type globalView struct{ g *runtime.Global }

func (g *globalView) Type() api.ValueType { return byte(g.g.Type) }
func (g *globalView) Get() uint64         { return uint64(g.g.Value) }
func (g *globalView) Set(v uint64) {
	if !g.g.Mutable {
		panic("wasmine: Set called on an immutable global")
	}
	g.g.Value = wasmtypes.RawSlot(v)
}
func (g *globalView) String() string {
	return fmt.Sprintf("Global(%s)", api.ValueTypeName(byte(g.g.Type)))
}

// memoryView adapts *runtime.Memory to api.Memory.
type memoryView struct{ m *runtime.Memory }

func (v *memoryView) Size() uint32 { return uint32(len(v.m.Data)) }

func (v *memoryView) Grow(deltaPages uint32) (uint32, bool) { return v.m.Grow(deltaPages) }

func (v *memoryView) ReadByte(offset uint32) (byte, bool) { return v.m.ReadByte(offset) }

func (v *memoryView) ReadUint32Le(offset uint32) (uint32, bool) { return v.m.ReadUint32(offset) }

func (v *memoryView) ReadUint64Le(offset uint32) (uint64, bool) { return v.m.ReadUint64(offset) }

func (v *memoryView) ReadFloat32Le(offset uint32) (float32, bool) { return v.m.ReadFloat32(offset) }

func (v *memoryView) ReadFloat64Le(offset uint32) (float64, bool) { return v.m.ReadFloat64(offset) }

func (v *memoryView) Read(offset, byteCount uint32) ([]byte, bool) {
	return v.m.Read(offset, int(byteCount))
}

func (v *memoryView) WriteByte(offset uint32, val byte) bool { return v.m.WriteByte(offset, val) }

func (v *memoryView) WriteUint32Le(offset, val uint32) bool { return v.m.WriteUint32(offset, val) }

func (v *memoryView) WriteUint64Le(offset uint32, val uint64) bool {
	return v.m.WriteUint64(offset, val)
}

func (v *memoryView) WriteFloat32Le(offset uint32, val float32) bool {
	return v.m.WriteFloat32(offset, val)
}

func (v *memoryView) WriteFloat64Le(offset uint32, val float64) bool {
	return v.m.WriteFloat64(offset, val)
}

func (v *memoryView) Write(offset uint32, val []byte) bool { return v.m.Write(offset, val) }

package wasmine

import (
	"context"

	"github.com/wasmine-go/wasmine/api"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// ModuleConfig configures a single InstantiateModule call: the name to
// register the instance under.
type ModuleConfig struct {
	name string
}

// NewModuleConfig returns a ModuleConfig with no name; use WithName to
// register the instance under a specific name (required for other modules to
// import from it).
func NewModuleConfig() *ModuleConfig { return &ModuleConfig{} }

// WithName sets the name the instance is registered under.
func (c *ModuleConfig) WithName(name string) *ModuleConfig {
	c.name = name
	return c
}

// HostModuleBuilder accumulates host-implemented functions, memories and
// globals to export under one module name, for Wasm modules to import from.
type HostModuleBuilder struct {
	r    *Runtime
	name string

	funcs   []hostFuncExport
	memory  *hostMemoryExport
	globals []hostGlobalExport
}

type hostFuncExport struct {
	name        string
	paramTypes  []api.ValueType
	resultTypes []api.ValueType
	fn          api.GoFunc
}

type hostMemoryExport struct {
	name string
	lim  wasmtypes.Limits
}

type hostGlobalExport struct {
	name    string
	typ     api.ValueType
	mutable bool
	value   uint64
}

// fromAPIValueTypes converts the api package's plain byte value types to
// wasmtypes.ValueType, the internal named type methods attach to.
func fromAPIValueTypes(vts []api.ValueType) []wasmtypes.ValueType {
	out := make([]wasmtypes.ValueType, len(vts))
	for i, vt := range vts {
		out[i] = wasmtypes.ValueType(vt)
	}
	return out
}

// NewFunction registers a host function under exportName, callable from Wasm
// imports declaring the matching param/result types.
func (b *HostModuleBuilder) NewFunction(exportName string, paramTypes, resultTypes []api.ValueType, fn api.GoFunc) *HostModuleBuilder {
	b.funcs = append(b.funcs, hostFuncExport{exportName, paramTypes, resultTypes, fn})
	return b
}

// ExportMemory registers a host-owned memory under exportName, sized minPages
// with no declared maximum.
func (b *HostModuleBuilder) ExportMemory(exportName string, minPages uint32) *HostModuleBuilder {
	return b.ExportMemoryWithMax(exportName, minPages, 0, false)
}

// ExportMemoryWithMax is ExportMemory with an explicit growth ceiling.
func (b *HostModuleBuilder) ExportMemoryWithMax(exportName string, minPages, maxPages uint32, hasMax bool) *HostModuleBuilder {
	b.memory = &hostMemoryExport{exportName, wasmtypes.Limits{Min: minPages, Max: maxPages, HasMax: hasMax}}
	return b
}

// ExportGlobal registers a host-owned global under exportName.
func (b *HostModuleBuilder) ExportGlobal(exportName string, typ api.ValueType, mutable bool, initial uint64) *HostModuleBuilder {
	b.globals = append(b.globals, hostGlobalExport{exportName, typ, mutable, initial})
	return b
}

// Instantiate registers the accumulated exports as a module instance under
// the builder's name, so other modules' imports can resolve against it.
func (b *HostModuleBuilder) Instantiate(ctx context.Context) (api.Module, error) {
	inst := runtime.NewHostInstance(b.name)

	for _, f := range b.funcs {
		fn := f.fn
		inst.Functions = append(inst.Functions, &runtime.Function{
			Type: wasmtypes.FuncType{Params: fromAPIValueTypes(f.paramTypes), Results: fromAPIValueTypes(f.resultTypes)},
			Host: func(ctx context.Context, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
				in := make([]uint64, len(args))
				for i, a := range args {
					in[i] = uint64(a)
				}
				out, err := fn(ctx, in)
				if err != nil {
					return nil, err
				}
				res := make([]wasmtypes.RawSlot, len(out))
				for i, o := range out {
					res[i] = wasmtypes.RawSlot(o)
				}
				return res, nil
			},
			Name: f.name,
		})
		inst.ExportFunc(f.name, uint32(len(inst.Functions)-1))
	}

	if b.memory != nil {
		inst.Memories = append(inst.Memories, runtime.NewMemory(b.memory.lim))
		inst.ExportMemory(b.memory.name, uint32(len(inst.Memories)-1))
	}

	for _, g := range b.globals {
		inst.Globals = append(inst.Globals, &runtime.Global{Value: wasmtypes.RawSlot(g.value), Type: wasmtypes.ValueType(g.typ), Mutable: g.mutable})
		inst.ExportGlobal(g.name, uint32(len(inst.Globals)-1))
	}

	if err := b.r.cluster.Register(b.name, inst); err != nil {
		return nil, err
	}
	return &moduleInstance{inst: inst}, nil
}

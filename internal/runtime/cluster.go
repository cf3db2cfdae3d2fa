package runtime

import (
	"context"
	"sync"

	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// Cluster is a namespace of instantiated modules, addressed by the
// registration name their imports resolve against (spec.md §4.5). One
// Cluster corresponds to one isolated sandbox: instances registered in
// different Clusters never see each other, even if built from the same
// module.Module.
type Cluster struct {
	mu        sync.Mutex
	instances map[string]*Instance
}

// NewCluster returns an empty namespace.
func NewCluster() *Cluster {
	return &Cluster{instances: make(map[string]*Instance)}
}

// Lookup returns a previously registered instance by name.
func (c *Cluster) Lookup(name string) (*Instance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.instances[name]
	return inst, ok
}

// Register binds inst under name for later import resolution, also used to
// register host-defined instances built via NewHostModule.
func (c *Cluster) Register(name string, inst *Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.instances[name]; exists {
		return wasmtypes.NewInstantiationError("module name already registered: "+name, nil)
	}
	inst.Name = name
	c.instances[name] = inst
	return nil
}

// Starter runs a module-defined function to completion, supplied by package
// interpreter at wiring time to avoid an import cycle (runtime has no
// dependency on interpreter; interpreter depends on runtime).
type Starter func(ctx context.Context, ec *ExecContext, f *Function, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error)

// Instantiate resolves mod's imports against previously registered instances
// in c, allocates its own memories/tables/globals/functions, applies active
// element and data segments, optionally runs the start function, and
// registers the result under name (spec.md §4.4 "Module instantiation").
func (c *Cluster) Instantiate(ctx context.Context, name string, mod *module.Module, start Starter) (*Instance, error) {
	inst := newInstance(name)
	inst.Module = mod

	if err := c.resolveImports(inst, mod); err != nil {
		return nil, err
	}
	c.buildOwnFunctions(inst, mod)
	if err := c.buildGlobals(inst, mod); err != nil {
		return nil, err
	}
	c.buildTablesAndMemories(inst, mod)
	if err := c.buildSegments(inst, mod); err != nil {
		return nil, err
	}
	if err := c.applyActiveSegments(inst, mod); err != nil {
		return nil, err
	}
	c.buildExports(inst, mod)

	if mod.HasStart {
		if int(mod.Start) >= len(inst.Functions) {
			return nil, wasmtypes.NewInstantiationError("start function index out of range", nil)
		}
		ec := NewExecContext(ctx)
		if _, err := start(ctx, ec, inst.Functions[mod.Start], nil); err != nil {
			return nil, wasmtypes.NewInstantiationError("start function trapped", err)
		}
	}

	if err := c.Register(name, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (c *Cluster) resolveImports(inst *Instance, mod *module.Module) error {
	for _, imp := range mod.Imports {
		src, ok := c.Lookup(imp.Module)
		if !ok {
			return wasmtypes.NewInstantiationError("unresolved import module: "+imp.Module, nil)
		}
		switch imp.Kind {
		case wasmtypes.ExternKindFunc:
			f, ok := src.ExportedFunction(imp.Name)
			if !ok {
				return wasmtypes.NewInstantiationError("unresolved import func: "+imp.Module+"."+imp.Name, nil)
			}
			want := mod.Types[imp.FuncTypeIdx]
			if !want.Equals(&f.Type) {
				return wasmtypes.NewInstantiationError("import func signature mismatch: "+imp.Module+"."+imp.Name, nil)
			}
			inst.Functions = append(inst.Functions, f)
		case wasmtypes.ExternKindMemory:
			m, ok := src.ExportedMemory(imp.Name)
			if !ok {
				return wasmtypes.NewInstantiationError("unresolved import memory: "+imp.Module+"."+imp.Name, nil)
			}
			if m.Pages() < imp.Memory.Limits.Min {
				return wasmtypes.NewInstantiationError("import memory smaller than declared minimum", nil)
			}
			inst.Memories = append(inst.Memories, m)
		case wasmtypes.ExternKindTable:
			t, ok := src.ExportedTable(imp.Name)
			if !ok {
				return wasmtypes.NewInstantiationError("unresolved import table: "+imp.Module+"."+imp.Name, nil)
			}
			if t.Size() < imp.Table.Limits.Min {
				return wasmtypes.NewInstantiationError("import table smaller than declared minimum", nil)
			}
			inst.Tables = append(inst.Tables, t)
		case wasmtypes.ExternKindGlobal:
			g, ok := src.ExportedGlobal(imp.Name)
			if !ok {
				return wasmtypes.NewInstantiationError("unresolved import global: "+imp.Module+"."+imp.Name, nil)
			}
			if g.Type != imp.Global.Type || g.Mutable != imp.Global.Mutable {
				return wasmtypes.NewInstantiationError("import global type mismatch: "+imp.Module+"."+imp.Name, nil)
			}
			inst.Globals = append(inst.Globals, g)
		}
	}
	return nil
}

func (c *Cluster) buildOwnFunctions(inst *Instance, mod *module.Module) {
	numImported := len(inst.Functions)
	for i := numImported; i < len(mod.Functions); i++ {
		def := mod.Functions[i]
		inst.Functions = append(inst.Functions, &Function{
			Type: mod.Types[def.TypeIdx], Body: def.Body, Owner: inst, Name: def.Name,
		})
	}
}

func (c *Cluster) buildGlobals(inst *Instance, mod *module.Module) error {
	numImported := len(inst.Globals)
	for _, g := range mod.Globals {
		v, err := evalConstExpr(inst, numImported, g.Init)
		if err != nil {
			return err
		}
		inst.Globals = append(inst.Globals, &Global{Value: v, Type: g.Type.Type, Mutable: g.Type.Mutable})
	}
	return nil
}

func (c *Cluster) buildTablesAndMemories(inst *Instance, mod *module.Module) {
	for _, t := range mod.Tables {
		inst.Tables = append(inst.Tables, NewTable(t.RefType, t.Limits))
	}
	for _, m := range mod.Memories {
		inst.Memories = append(inst.Memories, NewMemory(m.Limits))
	}
}

func (c *Cluster) buildSegments(inst *Instance, mod *module.Module) error {
	numImportedGlobals := 0
	for _, imp := range mod.Imports {
		if imp.Kind == wasmtypes.ExternKindGlobal {
			numImportedGlobals++
		}
	}

	inst.segElems = make([][]TableElem, len(mod.Elements))
	for i, seg := range mod.Elements {
		var elems []TableElem
		if len(seg.FuncIndices) > 0 || (len(seg.Exprs) == 0 && seg.RefType == wasmtypes.ValueTypeFuncRef) {
			elems = make([]TableElem, len(seg.FuncIndices))
			for j, fi := range seg.FuncIndices {
				elems[j] = TableElem{Func: inst.Functions[fi]}
			}
		} else {
			elems = make([]TableElem, len(seg.Exprs))
			for j, ce := range seg.Exprs {
				v, err := evalConstExpr(inst, numImportedGlobals, ce)
				if err != nil {
					return err
				}
				elems[j] = SlotToElem(seg.RefType, v)
			}
		}
		inst.segElems[i] = elems
	}

	inst.segData = make([][]byte, len(mod.Data))
	for i, seg := range mod.Data {
		inst.segData[i] = seg.Bytes
	}
	return nil
}

func (c *Cluster) applyActiveSegments(inst *Instance, mod *module.Module) error {
	numImportedGlobals := 0
	for _, imp := range mod.Imports {
		if imp.Kind == wasmtypes.ExternKindGlobal {
			numImportedGlobals++
		}
	}

	for i, seg := range mod.Elements {
		if seg.Mode != wasmtypes.SegmentActive {
			continue
		}
		off, err := evalConstExpr(inst, numImportedGlobals, seg.Offset)
		if err != nil {
			return err
		}
		table := inst.Tables[seg.Table]
		elems := inst.segElems[i]
		if !table.bounds(wasmtypes.RawToU32(off), uint32(len(elems))) {
			return wasmtypes.NewInstantiationError("active element segment out of table bounds", nil)
		}
		copy(table.Elems[wasmtypes.RawToU32(off):], elems)
		inst.segElems[i] = nil
	}

	for i, seg := range mod.Data {
		if seg.Mode != wasmtypes.SegmentActive {
			continue
		}
		off, err := evalConstExpr(inst, numImportedGlobals, seg.Offset)
		if err != nil {
			return err
		}
		mem := inst.Memories[seg.Memory]
		if !mem.Write(wasmtypes.RawToU32(off), inst.segData[i]) {
			return wasmtypes.NewInstantiationError("active data segment out of memory bounds", nil)
		}
		inst.segData[i] = nil
	}
	return nil
}

func (c *Cluster) buildExports(inst *Instance, mod *module.Module) {
	for _, e := range mod.Exports {
		inst.export(e.Name, e.Kind, e.Idx)
	}
}

// evalConstExpr evaluates a module-level constant initializer expression
// against an instance under construction (spec.md §4.1, §4.4): only
// *.const, ref.null, ref.func and global.get of an already-resolved imported
// global are legal, enforced already by the parser.
func evalConstExpr(inst *Instance, numImportedGlobals int, ce module.ConstExpr) (wasmtypes.RawSlot, error) {
	switch ce.Kind {
	case module.ConstExprI32Const:
		return wasmtypes.I32ToRaw(ce.I32Value), nil
	case module.ConstExprI64Const:
		return wasmtypes.I64ToRaw(ce.I64Value), nil
	case module.ConstExprF32Const:
		return wasmtypes.F32ToRaw(ce.F32Value), nil
	case module.ConstExprF64Const:
		return wasmtypes.F64ToRaw(ce.F64Value), nil
	case module.ConstExprRefNull:
		return 0, nil
	case module.ConstExprRefFunc:
		return funcToSlot(inst.Functions[ce.Idx]), nil
	case module.ConstExprGlobalGet:
		if int(ce.Idx) >= numImportedGlobals {
			return 0, wasmtypes.NewInstantiationError("const expr referenced a non-imported global", nil)
		}
		return inst.Globals[ce.Idx].Value, nil
	default:
		return 0, wasmtypes.NewInstantiationError("unsupported const expr kind", nil)
	}
}

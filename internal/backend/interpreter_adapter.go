package backend

import (
	"context"
	"sync"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// interpretFunc is the seam interpreter.Start is wired through at
// construction time, avoiding an import cycle the same way runtime.Starter
// avoids one between package runtime and package interpreter.
type interpretFunc func(ctx context.Context, ec *runtime.ExecContext, f *runtime.Function, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error)

// InterpreterAdapter is the one Adapter this repo ships: it implements the
// backend interface without compiling anything, delegating every translated
// function straight to the tree-walking interpreter. It exists so that code
// written against Adapter (a .cwasm producer, a future native backend) has a
// reference implementation to run against, and so GetSymbolAddr/SymbolName's
// contract is exercised even with no real codegen behind it.
//
// A real native backend would replace this with one that emits machine code
// in TranslateFunction and returns an EntryPoint trampolining into it;
// nothing else in this package depends on InterpreterAdapter specifically.
type InterpreterAdapter struct {
	interpret interpretFunc

	mu      sync.Mutex
	symbols map[uint32]uintptr
	entries map[uint32]EntryPoint
}

// NewInterpreterAdapter builds an Adapter whose TranslateFunction hands every
// function back to interpret (normally interpreter.Start), keyed by function
// index for GetSymbolAddr lookups.
func NewInterpreterAdapter(interpret interpretFunc) *InterpreterAdapter {
	return &InterpreterAdapter{
		interpret: interpret,
		symbols:   make(map[uint32]uintptr),
		entries:   make(map[uint32]EntryPoint),
	}
}

// TranslateModule is a no-op for the interpreter adapter: there is no
// module-wide codegen step to run, since each function is translated
// independently and lazily by TranslateFunction.
func (a *InterpreterAdapter) TranslateModule(mod *module.Module) error {
	return nil
}

// TranslateFunction records fn's entry point and a stable per-function-index
// symbol address, then returns a closure that dispatches to a.interpret.
func (a *InterpreterAdapter) TranslateFunction(mod *module.Module, funcIdx uint32, fn *ir.Function, owner *runtime.Instance) (EntryPoint, error) {
	f := &runtime.Function{
		Type: mod.Types[mod.Functions[funcIdx].TypeIdx],
		Body: fn,
		Owner: owner,
		Name:  mod.Functions[funcIdx].Name,
	}
	entry := func(ctx context.Context, ec *runtime.ExecContext, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
		return a.interpret(ctx, ec, f, args)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[funcIdx] = entry
	// The symbol address is the interpreted Function's own address: stable
	// for the lifetime of this translation, and distinct per function index,
	// matching the funcref raw-slot convention internal/runtime.FuncToSlot
	// already relies on for the same "address as identity" reason.
	a.symbols[funcIdx] = uintptr(runtime.FuncToSlot(f))
	return entry, nil
}

// GetSymbolAddr implements Adapter.
func (a *InterpreterAdapter) GetSymbolAddr(funcIdx uint32) (uintptr, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr, ok := a.symbols[funcIdx]
	return addr, ok
}

package runtime

import (
	"context"
	"unsafe"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// HostFunc is a Go-implemented import: it receives the raw argument slots in
// the order of Function.Type.Params and must return one slot per
// Function.Type.Results. Returning an error propagates as wasmtypes.HostError
// at the call boundary (spec.md §4.6).
type HostFunc func(ctx context.Context, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error)

// Function is one entry of an Instance's dense function index space: either
// a HostFunc import or a module-defined body, never both (spec.md §4.4,
// §4.6). Indirect calls compare Type structurally against the call site's
// declared signature (spec.md §4.3 "indirect call type mismatch").
type Function struct {
	Type wasmtypes.FuncType

	Host HostFunc // non-nil for host-defined functions.
	Body *ir.Function // non-nil for module-defined functions.

	// Owner is the instance whose memories/tables/globals/functions Body
	// executes against; nil for Host functions, which close over whatever
	// state their constructor captured instead.
	Owner *Instance

	// Name is the best-effort debug/export name, used in trap messages and
	// CLI --invoke lookups.
	Name string
}

func (f *Function) IsHost() bool { return f.Host != nil }

// FuncToSlot encodes f as a funcref raw value slot, for instructions
// (ref.func, global initializers) that produce one outside of a table.
func FuncToSlot(f *Function) wasmtypes.RawSlot { return funcToSlot(f) }

// funcToSlot/slotToFunc encode a funcref as a raw value slot: the Function's
// address reinterpreted as a uint64, 0 for null. This mirrors the host
// engine's own convention of carrying a function pointer through an
// otherwise-numeric value stack rather than a separate tagged union.
func funcToSlot(f *Function) wasmtypes.RawSlot {
	if f == nil {
		return 0
	}
	return wasmtypes.RawSlot(uintptr(unsafe.Pointer(f)))
}

func slotToFunc(s wasmtypes.RawSlot) *Function {
	if s == 0 {
		return nil
	}
	return (*Function)(unsafe.Pointer(uintptr(s)))
}

package runtime

import "github.com/wasmine-go/wasmine/internal/wasmtypes"

// RecoverTrap is deferred by the outermost Call boundary to turn a panicked
// *wasmtypes.Trap (spec.md §7's one-step unwind) into a returned error.
// Any other panic value is not ours to interpret and is re-raised.
func RecoverTrap(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if t, ok := r.(*wasmtypes.Trap); ok {
		*errp = t
		return
	}
	panic(r)
}

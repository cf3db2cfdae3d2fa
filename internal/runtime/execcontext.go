package runtime

import (
	"context"

	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// MaxCallDepth bounds nested Wasm-to-Wasm calls; exceeding it raises
// TrapCodeCallStackExhausted rather than overflowing the host's own goroutine
// stack (spec.md §7).
const MaxCallDepth = 2048

// ExecContext threads a context.Context plus the shared call-depth counter
// through one top-level Call's entire tree of nested calls (spec.md §4.3,
// §7). It is constructed once per top-level Call and passed down unchanged
// through every recursive call the interpreter makes.
type ExecContext struct {
	Ctx   context.Context
	depth *int
}

// NewExecContext starts a fresh call tree rooted at ctx.
func NewExecContext(ctx context.Context) *ExecContext {
	d := 0
	return &ExecContext{Ctx: ctx, depth: &d}
}

// Enter increments the shared call depth, panicking with a
// TrapCodeCallStackExhausted Trap if MaxCallDepth is exceeded. Callers defer
// Leave to balance it.
func (ec *ExecContext) Enter() {
	*ec.depth++
	if *ec.depth > MaxCallDepth {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeCallStackExhausted, ""))
	}
}

func (ec *ExecContext) Leave() { *ec.depth-- }

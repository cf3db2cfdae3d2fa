package runtime

import "github.com/wasmine-go/wasmine/internal/wasmtypes"

// Global is one instantiated global variable: a single raw value slot tagged
// with its declared type and mutability (spec.md §4.4).
type Global struct {
	Value   wasmtypes.RawSlot
	Type    wasmtypes.ValueType
	Mutable bool
}

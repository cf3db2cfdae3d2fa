package wasmtypes

import (
	"fmt"

	"github.com/pkg/errors"
)

// DecodeError is raised by the streaming binary decoder on malformed bytes:
// impossible LEB128, unsupported opcode, truncated section, bad magic or
// version (spec.md §7).
type DecodeError struct {
	Offset int64
	Reason string
	cause  error
}

func (e *DecodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("decode error at offset 0x%x: %s: %v", e.Offset, e.Reason, e.cause)
	}
	return fmt.Sprintf("decode error at offset 0x%x: %s", e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// NewDecodeError builds a DecodeError wrapping cause (which may be nil) with
// stack context via github.com/pkg/errors.
func NewDecodeError(offset int64, reason string, cause error) error {
	return errors.WithStack(&DecodeError{Offset: offset, Reason: reason, cause: cause})
}

// ValidationError is raised when well-formed bytes violate typing, stack,
// alignment, or reference rules during IR lowering (spec.md §4.1).
type ValidationError struct {
	Offset  int64
	FuncIdx uint32
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in function %d at offset 0x%x: %s", e.FuncIdx, e.Offset, e.Reason)
}

func NewValidationError(funcIdx uint32, offset int64, reason string) error {
	return errors.WithStack(&ValidationError{Offset: offset, FuncIdx: funcIdx, Reason: reason})
}

// InstantiationError is raised by the linker: unresolved/mismatched import,
// out-of-range active segment, or a trapping start function (spec.md §4.5).
type InstantiationError struct {
	Reason string
	cause  error
}

func (e *InstantiationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("instantiation error: %s: %v", e.Reason, e.cause)
	}
	return fmt.Sprintf("instantiation error: %s", e.Reason)
}

func (e *InstantiationError) Unwrap() error { return e.cause }

func NewInstantiationError(reason string, cause error) error {
	return errors.WithStack(&InstantiationError{Reason: reason, cause: cause})
}

// ResourceError is raised on memory/table allocation or mapping failure,
// fatal for the affected instance (spec.md §7).
type ResourceError struct {
	Reason string
	cause  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource error: %s: %v", e.Reason, e.cause)
}

func (e *ResourceError) Unwrap() error { return e.cause }

func NewResourceError(reason string, cause error) error {
	return errors.WithStack(&ResourceError{Reason: reason, cause: cause})
}

// TrapCode enumerates the runtime preconditions whose violation unwinds the
// Wasm call stack in one step (spec.md §7).
type TrapCode int

const (
	TrapCodeUnreachable TrapCode = iota
	TrapCodeIntegerDivideByZero
	TrapCodeIntegerOverflow
	TrapCodeInvalidConversionToInteger
	TrapCodeOutOfBoundsMemoryAccess
	TrapCodeOutOfBoundsTableAccess
	TrapCodeIndirectCallTypeMismatch
	TrapCodeNullReference
	TrapCodeCallStackExhausted
	TrapCodeUnalignedAtomic
)

func (c TrapCode) String() string {
	switch c {
	case TrapCodeUnreachable:
		return "unreachable"
	case TrapCodeIntegerDivideByZero:
		return "integer divide by zero"
	case TrapCodeIntegerOverflow:
		return "integer overflow"
	case TrapCodeInvalidConversionToInteger:
		return "invalid conversion to integer"
	case TrapCodeOutOfBoundsMemoryAccess:
		return "out of bounds memory access"
	case TrapCodeOutOfBoundsTableAccess:
		return "out of bounds table access"
	case TrapCodeIndirectCallTypeMismatch:
		return "indirect call type mismatch"
	case TrapCodeNullReference:
		return "null reference"
	case TrapCodeCallStackExhausted:
		return "call stack exhausted"
	case TrapCodeUnalignedAtomic:
		return "unaligned atomic"
	default:
		return "unknown trap"
	}
}

// Trap is a runtime precondition violation that unwinds through any depth of
// Wasm frames in one step (spec.md §7, §5).
type Trap struct {
	Code  TrapCode
	Frame string // innermost function/offset description, best-effort.
}

func (t *Trap) Error() string {
	if t.Frame != "" {
		return fmt.Sprintf("wasm trap: %s (%s)", t.Code, t.Frame)
	}
	return fmt.Sprintf("wasm trap: %s", t.Code)
}

// NewTrap constructs a Trap, the only error kind that is panicked rather
// than returned: the interpreter and host-call boundary recover it to unwind
// to the host in one step (see RecoverTrap in internal/runtime/errors.go).
func NewTrap(code TrapCode, frame string) *Trap {
	return &Trap{Code: code, Frame: frame}
}

// HostError wraps a failure inside a host-supplied callable, propagated
// verbatim through the boundary (spec.md §7).
type HostError struct {
	Cause error
}

func (e *HostError) Error() string { return fmt.Sprintf("host error: %v", e.Cause) }
func (e *HostError) Unwrap() error { return e.Cause }

// Package interpreter tree-walks the IR produced by package parser against
// the instantiated state held by package runtime (spec.md §4.2 "execution").
// It never emits machine code: every basic block is interpreted by decoding
// its four body streams instruction by instruction, one call frame at a time.
package interpreter

import (
	"context"

	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// Call is the public entry point: it runs f to completion (recursing into
// further Wasm or host calls as needed) and recovers any trap into a
// returned error, per spec.md §7's "one-step unwind to the host".
func Call(ctx context.Context, f *runtime.Function, args []wasmtypes.RawSlot) (results []wasmtypes.RawSlot, err error) {
	defer runtime.RecoverTrap(&err)
	ec := runtime.NewExecContext(ctx)
	return callFunction(ec, f, args)
}

// Start adapts Call to runtime.Starter's signature, so a Cluster can run a
// module's start function without importing this package itself.
func Start(ctx context.Context, ec *runtime.ExecContext, f *runtime.Function, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
	return callFunction(ec, f, args)
}

// callFunction dispatches to a host callback or interprets a module-defined
// body, sharing ec's call-depth counter across the whole call tree so a
// deeply recursive Wasm program traps rather than blowing the Go stack.
func callFunction(ec *runtime.ExecContext, f *runtime.Function, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
	ec.Enter()
	defer ec.Leave()

	if f.IsHost() {
		res, err := f.Host(ec.Ctx, args)
		if err != nil {
			return nil, &wasmtypes.HostError{Cause: err}
		}
		return res, nil
	}
	return run(ec, f, args)
}

// frame is the per-activation state a tree-walk needs while executing one
// function body: the locals vector (params followed by declared locals) and
// the SSA variable-slot array, both addressed by the index spaces
// internal/ir assigns at parse time.
type frame struct {
	inst   *runtime.Instance
	name   string
	locals []wasmtypes.RawSlot
	vars   []wasmtypes.RawSlot
}

func run(ec *runtime.ExecContext, f *runtime.Function, args []wasmtypes.RawSlot) ([]wasmtypes.RawSlot, error) {
	body := f.Body
	fr := &frame{
		inst:   f.Owner,
		name:   f.Name,
		locals: make([]wasmtypes.RawSlot, len(f.Type.Params)+len(body.Locals)),
		vars:   make([]wasmtypes.RawSlot, body.NumVars),
	}
	copy(fr.locals, args)

	bb := body.BlockByID(0)
	dec := bb.Decoder()

	for {
		for {
			tag, ok := dec.NextInstructionTag()
			if !ok {
				break
			}
			fr.step(tag, dec)
		}

		term := bb.Terminator
		switch term.Kind {
		case ir.TerminatorUnreachable:
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeUnreachable, fr.name))

		case ir.TerminatorReturn:
			return fr.gather(term.ReturnValues), nil

		case ir.TerminatorJmp:
			target := body.BlockByID(term.Target)
			fr.copyPhi(target, term.Outs)
			bb, dec = target, target.Decoder()

		case ir.TerminatorJmpCond:
			var targetID ir.BasicBlockID
			if fr.vars[term.CondVar] != 0 {
				targetID = term.TargetIfTrue
			} else {
				targetID = term.TargetIfFalse
			}
			target := body.BlockByID(targetID)
			fr.copyPhi(target, term.Outs)
			bb, dec = target, target.Decoder()

		case ir.TerminatorJmpTable:
			idx := wasmtypes.RawToU32(fr.vars[term.CondVar])
			var targetID ir.BasicBlockID
			var outs []ir.VariableID
			if int(idx) < len(term.Targets) {
				targetID, outs = term.Targets[idx], term.TargetsOuts[idx]
			} else {
				targetID, outs = term.DefaultTarget, term.DefaultOuts
			}
			target := body.BlockByID(targetID)
			fr.copyPhi(target, outs)
			bb, dec = target, target.Decoder()

		case ir.TerminatorCall:
			callee := fr.inst.Functions[term.FuncIdx]
			res, err := callFunction(ec, callee, fr.gather(term.CallParams))
			if err != nil {
				return nil, err
			}
			for i, rv := range term.ReturnVars {
				fr.vars[rv] = res[i]
			}
			target := body.BlockByID(term.ReturnBB)
			bb, dec = target, target.Decoder()

		case ir.TerminatorCallIndirect:
			callee := fr.resolveIndirect(term)
			res, err := callFunction(ec, callee, fr.gather(term.CallParams))
			if err != nil {
				return nil, err
			}
			for i, rv := range term.ReturnVars {
				fr.vars[rv] = res[i]
			}
			target := body.BlockByID(term.ReturnBB)
			bb, dec = target, target.Decoder()
		}
	}
}

// resolveIndirect validates and dereferences a call_indirect's table slot,
// trapping per spec.md §4.3 on an out-of-bounds index, a null element, or a
// signature mismatch against the call site's declared type.
func (fr *frame) resolveIndirect(term ir.Terminator) *runtime.Function {
	table := fr.inst.Tables[term.TableIdx]
	idx := wasmtypes.RawToU32(fr.vars[term.CondVar])
	elem, ok := table.Get(idx)
	if !ok {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, fr.name))
	}
	if elem.Null || elem.Func == nil {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeNullReference, fr.name))
	}
	want := fr.inst.Module.Types[term.TypeIdx]
	if !want.Equals(&elem.Func.Type) {
		panic(wasmtypes.NewTrap(wasmtypes.TrapCodeIndirectCallTypeMismatch, fr.name))
	}
	return elem.Func
}

func (fr *frame) gather(ids []ir.VariableID) []wasmtypes.RawSlot {
	out := make([]wasmtypes.RawSlot, len(ids))
	for i, id := range ids {
		out[i] = fr.vars[id]
	}
	return out
}

// copyPhi writes a branch's shared Outs into target's phi outputs,
// positionally: target.PhiInputs[i] and outs[i] were built from the same
// arrays at parse time, so no predecessor lookup is needed at run time
// (internal/parser/context.go's addPhiEdge). A phi-less target (nil
// PhiInputs) is a no-op regardless of what outs holds.
func (fr *frame) copyPhi(target *ir.BasicBlock, outs []ir.VariableID) {
	for i := range target.PhiInputs {
		fr.vars[target.PhiInputs[i].Out] = fr.vars[outs[i]]
	}
}

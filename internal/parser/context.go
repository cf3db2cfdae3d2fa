package parser

import (
	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// stackValue is one live entry of the parser's simulated operand stack: the
// SSA variable currently holding it plus its value type.
type stackValue struct {
	v ir.VariableID
	t wasmtypes.ValueType
}

// frameKind distinguishes the three structured control constructs; each has
// a different label target and a different materialization strategy (see
// funcParser's block/loop/if helpers).
type frameKind byte

const (
	frameBlock frameKind = iota
	frameLoop
	frameIf
)

// controlFrame is one entry of the parser's structured-control-flow stack,
// one per open block/loop/if. The label a `br`/`br_if`/`br_table` reaches
// by depth is this frame's branch target: a block or if branches to cont
// (arity len(results)); a loop branches to header (arity len(params)),
// per spec.md §9's note that loop labels address their own entry.
type controlFrame struct {
	kind    frameKind
	params  []wasmtypes.ValueType
	results []wasmtypes.ValueType

	cont   *ir.BasicBlock // block, if: forward branch / end target. loop: unused.
	header *ir.BasicBlock // loop only: the re-entrant header, also the backward branch target.

	elseBlock *ir.BasicBlock // if only: pre-reserved else entry.
	sawElse   bool

	stackBase int // operand-stack height when the frame was entered.

	// isTop marks the synthetic frame wrapping the whole function body: its
	// `end` lowers to Return rather than to a materialized continuation
	// block (there is nothing after a function's own closing end).
	isTop bool
}

// branchTarget returns the block and arity a branch to this frame reaches.
func (f *controlFrame) branchTarget() (*ir.BasicBlock, []wasmtypes.ValueType) {
	if f.kind == frameLoop {
		return f.header, f.params
	}
	return f.cont, f.results
}

// funcParser lowers one function body into ir.Function, tracking the
// simulated operand stack and the open control-frame stack described in
// spec.md §9.
type funcParser struct {
	mod   *module.Module
	types []wasmtypes.FuncType

	fn      *ir.Function
	current *ir.BasicBlock
	// unreachable marks that current was opened only to hold dead code
	// (after an Unreachable/Return/Jmp/JmpTable terminator); stack pops
	// against it are satisfied with fresh poison variables instead of
	// erroring, since Wasm's value stack is polymorphic in dead code.
	unreachable bool

	stack   []stackValue
	frames  []*controlFrame
	nextVar ir.VariableID
}

func newFuncParser(mod *module.Module, types []wasmtypes.FuncType, locals []wasmtypes.ValueType) *funcParser {
	fn := &ir.Function{Locals: locals}
	entry := ir.NewBasicBlock(0)
	fn.BasicBlocks = append(fn.BasicBlocks, entry)
	return &funcParser{mod: mod, types: types, fn: fn, current: entry}
}

func (p *funcParser) newVar() ir.VariableID {
	v := p.nextVar
	p.nextVar++
	return v
}

func (p *funcParser) newBlock() *ir.BasicBlock {
	id := ir.BasicBlockID(len(p.fn.BasicBlocks))
	bb := ir.NewBasicBlock(id)
	p.fn.BasicBlocks = append(p.fn.BasicBlocks, bb)
	return bb
}

func (p *funcParser) push(v ir.VariableID, t wasmtypes.ValueType) {
	p.stack = append(p.stack, stackValue{v, t})
}

// pop removes and returns the top operand. In dead (unreachable) code the
// stack may run dry; a poison variable of the expected shape stands in so
// lowering can continue without crashing on code that will never execute.
func (p *funcParser) pop() stackValue {
	if len(p.stack) == 0 {
		if p.unreachable {
			return stackValue{p.newVar(), wasmtypes.ValueTypeI32}
		}
		panic("parser: operand stack underflow on reachable code")
	}
	v := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return v
}

// popN pops n operands and returns them in original (bottom-to-top) order.
func (p *funcParser) popN(n int) []stackValue {
	out := make([]stackValue, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = p.pop()
	}
	return out
}

func varsOf(vals []stackValue) []ir.VariableID {
	out := make([]ir.VariableID, len(vals))
	for i, v := range vals {
		out[i] = v.v
	}
	return out
}

// addPhiEdge records that pred flows vals into target's entry phi nodes,
// creating the PhiNode set on first use (spec.md §9's "placeholder phi
// nodes ... fixed up when the back-edge is emitted"). Re-adding the same
// predecessor is a no-op, so a br_table that lists one label twice doesn't
// double-count it.
func addPhiEdge(target *ir.BasicBlock, types []wasmtypes.ValueType, pred ir.BasicBlockID, vals []ir.VariableID, alloc func() ir.VariableID) {
	if target.PhiInputs == nil && len(types) > 0 {
		target.PhiInputs = make([]ir.PhiNode, len(types))
		for i, t := range types {
			target.PhiInputs[i] = ir.PhiNode{Out: alloc(), Type: t}
		}
	}
	for i := range target.PhiInputs {
		phi := &target.PhiInputs[i]
		dup := false
		for _, in := range phi.Inputs {
			if in.Pred == pred {
				dup = true
				break
			}
		}
		if !dup {
			phi.Inputs = append(phi.Inputs, ir.PhiInput{Pred: pred, Var: vals[i]})
		}
	}
}

// phiOutVars returns the variable IDs a block's own phi nodes produce, in
// order, pushing them is how code inside the block observes its params.
func phiOutVars(bb *ir.BasicBlock) []ir.VariableID {
	out := make([]ir.VariableID, len(bb.PhiInputs))
	for i, ph := range bb.PhiInputs {
		out[i] = ph.Out
	}
	return out
}

// resolveBlockType expands a BlockType into concrete parameter/result
// vectors, resolving a multi-value type-section index when present.
func (p *funcParser) resolveBlockType(bt wasmtypes.BlockType) (params, results []wasmtypes.ValueType, err error) {
	switch {
	case bt.HasTypeIndex:
		if int(bt.TypeIndex) >= len(p.types) {
			return nil, nil, wasmtypes.NewValidationError(0, 0, "block type index out of range")
		}
		ft := p.types[bt.TypeIndex]
		return ft.Params, ft.Results, nil
	case bt.HasValueType:
		return nil, []wasmtypes.ValueType{bt.ValueType}, nil
	default:
		return nil, nil, nil
	}
}

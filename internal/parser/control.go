package parser

import (
	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// readBlockType decodes a block/loop/if signature: 0x40 (empty), a single
// value-type byte, or a signed LEB128 index into the module's type section
// (multi-value proposal). Real modules never emit a negative-but-not-one-
// of-the-reserved-bytes encoding, so treating the fallback case as a plain
// unsigned index is exact for every well-formed module.
func (p *funcParserImpl) readBlockType(br *byteReader) (wasmtypes.BlockType, error) {
	b, err := br.readByte()
	if err != nil {
		return wasmtypes.BlockType{}, err
	}
	if b == 0x40 {
		return wasmtypes.BlockType{}, nil
	}
	if isValueTypeByte(b) {
		return wasmtypes.BlockType{HasValueType: true, ValueType: wasmtypes.ValueType(b)}, nil
	}
	if err := br.r.UnreadByte(); err != nil {
		return wasmtypes.BlockType{}, wasmtypes.NewDecodeError(br.offset(), "blocktype unread failed", err)
	}
	idx, err := br.readVarU32()
	if err != nil {
		return wasmtypes.BlockType{}, err
	}
	return wasmtypes.BlockType{HasTypeIndex: true, TypeIndex: idx}, nil
}

func isValueTypeByte(b byte) bool {
	switch wasmtypes.ValueType(b) {
	case wasmtypes.ValueTypeI32, wasmtypes.ValueTypeI64, wasmtypes.ValueTypeF32, wasmtypes.ValueTypeF64,
		wasmtypes.ValueTypeV128, wasmtypes.ValueTypeFuncRef, wasmtypes.ValueTypeExternRef:
		return true
	}
	return false
}

// lowerBlock handles `block`: it never forks control flow on entry (there
// is exactly one way to reach the code that follows), so it only reserves
// a continuation block for forward branches and records where the
// operand stack sits beneath the block's own params.
func (p *funcParserImpl) lowerBlock(br *byteReader) error {
	bt, err := p.readBlockType(br)
	if err != nil {
		return err
	}
	params, results, err := p.fp.resolveBlockType(bt)
	if err != nil {
		return err
	}
	fp := p.fp
	cont := fp.newBlock()
	frame := &controlFrame{kind: frameBlock, params: params, results: results, cont: cont, stackBase: len(fp.stack) - len(params)}
	fp.frames = append(fp.frames, frame)
	return nil
}

// lowerLoop handles `loop`: branches to this label always target the
// header, so unlike block the header is a genuine merge point materialized
// (and jumped into) right away.
func (p *funcParserImpl) lowerLoop(br *byteReader) error {
	bt, err := p.readBlockType(br)
	if err != nil {
		return err
	}
	params, results, err := p.fp.resolveBlockType(bt)
	if err != nil {
		return err
	}
	fp := p.fp
	paramVars := varsOf(fp.popN(len(params)))
	base := len(fp.stack)

	header := fp.newBlock()
	addPhiEdge(header, params, fp.current.ID, paramVars, fp.newVar)
	p.finishCurrent(ir.Terminator{Kind: ir.TerminatorJmp, Target: header.ID, Outs: paramVars})

	frame := &controlFrame{kind: frameLoop, params: params, results: results, header: header, stackBase: base}
	fp.frames = append(fp.frames, frame)

	p.enterBlock(header)
	outs := phiOutVars(header)
	for i, t := range params {
		fp.push(outs[i], t)
	}
	return nil
}

// lowerIf handles `if`: a genuine two-way fork, condVar-gated, sharing the
// if's own params as the single Outs value sent down both edges.
func (p *funcParserImpl) lowerIf(br *byteReader) error {
	bt, err := p.readBlockType(br)
	if err != nil {
		return err
	}
	params, results, err := p.fp.resolveBlockType(bt)
	if err != nil {
		return err
	}
	fp := p.fp
	cond := fp.pop()
	paramVars := varsOf(fp.popN(len(params)))
	base := len(fp.stack)

	thenB := fp.newBlock()
	elseB := fp.newBlock()
	contB := fp.newBlock()

	addPhiEdge(thenB, params, fp.current.ID, paramVars, fp.newVar)
	addPhiEdge(elseB, params, fp.current.ID, paramVars, fp.newVar)
	p.finishCurrent(ir.Terminator{
		Kind: ir.TerminatorJmpCond, CondVar: cond.v,
		TargetIfTrue: thenB.ID, TargetIfFalse: elseB.ID, Outs: paramVars,
	})

	frame := &controlFrame{kind: frameIf, params: params, results: results, cont: contB, elseBlock: elseB, stackBase: base}
	fp.frames = append(fp.frames, frame)

	p.enterBlock(thenB)
	outs := phiOutVars(thenB)
	for i, t := range params {
		fp.push(outs[i], t)
	}
	return nil
}

// lowerElse closes the then-arm (joining it into cont unless it already
// ended unreachable) and opens the pre-reserved else-arm.
func (p *funcParserImpl) lowerElse() error {
	fp := p.fp
	frame := p.curFrame()
	if fp.unreachable {
		p.finishCurrent(ir.Terminator{Kind: ir.TerminatorUnreachable})
	} else {
		outVars := varsOf(fp.popN(len(frame.results)))
		addPhiEdge(frame.cont, frame.results, fp.current.ID, outVars, fp.newVar)
		p.finishCurrent(ir.Terminator{Kind: ir.TerminatorJmp, Target: frame.cont.ID, Outs: outVars})
	}
	frame.sawElse = true
	fp.stack = fp.stack[:frame.stackBase]
	p.enterBlock(frame.elseBlock)
	outs := phiOutVars(frame.elseBlock)
	for i, t := range frame.params {
		fp.push(outs[i], t)
	}
	return nil
}

// lowerEnd closes the innermost frame. Returns done=true once the
// function-level synthetic frame itself closes.
func (p *funcParserImpl) lowerEnd() (bool, error) {
	fp := p.fp
	frame := p.curFrame()

	if frame.isTop {
		if fp.unreachable {
			p.finishCurrent(ir.Terminator{Kind: ir.TerminatorUnreachable})
		} else {
			vals := varsOf(fp.popN(len(frame.results)))
			p.finishCurrent(ir.Terminator{Kind: ir.TerminatorReturn, ReturnValues: vals})
		}
		fp.frames = fp.frames[:0]
		return true, nil
	}

	switch frame.kind {
	case frameLoop:
		// Falling off a loop body reaches the point right after `end` by
		// exactly one path (nothing branches "out of" a loop; br only ever
		// reaches its header) so current/stack carry over untouched.

	case frameBlock:
		if fp.unreachable {
			p.finishCurrent(ir.Terminator{Kind: ir.TerminatorUnreachable})
		} else {
			outVars := varsOf(fp.popN(len(frame.results)))
			addPhiEdge(frame.cont, frame.results, fp.current.ID, outVars, fp.newVar)
			p.finishCurrent(ir.Terminator{Kind: ir.TerminatorJmp, Target: frame.cont.ID, Outs: outVars})
		}
		fp.stack = fp.stack[:frame.stackBase]
		p.enterBlock(frame.cont)
		outs := phiOutVars(frame.cont)
		for i, t := range frame.results {
			fp.push(outs[i], t)
		}

	case frameIf:
		if !frame.sawElse {
			// No else arm was ever entered; per spec.md §9 an absent else
			// requires params==results, so its reserved phi-out values pass
			// straight through to cont.
			elseOuts := phiOutVars(frame.elseBlock)
			addPhiEdge(frame.cont, frame.results, frame.elseBlock.ID, elseOuts, fp.newVar)
			frame.elseBlock.Encoder().Finish(ir.Terminator{Kind: ir.TerminatorJmp, Target: frame.cont.ID, Outs: elseOuts})
		}
		if fp.unreachable {
			p.finishCurrent(ir.Terminator{Kind: ir.TerminatorUnreachable})
		} else {
			outVars := varsOf(fp.popN(len(frame.results)))
			addPhiEdge(frame.cont, frame.results, fp.current.ID, outVars, fp.newVar)
			p.finishCurrent(ir.Terminator{Kind: ir.TerminatorJmp, Target: frame.cont.ID, Outs: outVars})
		}
		fp.stack = fp.stack[:frame.stackBase]
		p.enterBlock(frame.cont)
		outs := phiOutVars(frame.cont)
		for i, t := range frame.results {
			fp.push(outs[i], t)
		}
	}

	fp.frames = fp.frames[:len(fp.frames)-1]
	return false, nil
}

func (p *funcParserImpl) lowerBr(depth uint32) {
	fp := p.fp
	frame := p.frameAt(depth)
	target, types := frame.branchTarget()
	outVars := varsOf(fp.popN(len(types)))
	addPhiEdge(target, types, fp.current.ID, outVars, fp.newVar)
	p.finishCurrent(ir.Terminator{Kind: ir.TerminatorJmp, Target: target.ID, Outs: outVars})
	p.openDeadBlock()
}

// lowerBrIf only peeks its branch values (per core Wasm semantics they
// remain live on the not-taken path), so the fallthrough successor needs
// no phi at all: it is a plain single-predecessor continuation reusing
// every existing variable ID.
func (p *funcParserImpl) lowerBrIf(depth uint32) {
	fp := p.fp
	cond := fp.pop()
	frame := p.frameAt(depth)
	target, types := frame.branchTarget()
	top := fp.stack[len(fp.stack)-len(types):]
	outVars := make([]ir.VariableID, len(top))
	for i, v := range top {
		outVars[i] = v.v
	}
	addPhiEdge(target, types, fp.current.ID, outVars, fp.newVar)

	fallthroughBB := fp.newBlock()
	p.finishCurrent(ir.Terminator{
		Kind: ir.TerminatorJmpCond, CondVar: cond.v,
		TargetIfTrue: target.ID, TargetIfFalse: fallthroughBB.ID, Outs: outVars,
	})
	p.enterBlock(fallthroughBB)
}

func (p *funcParserImpl) lowerBrTable(br *byteReader) error {
	fp := p.fp
	n, err := br.readVarU32()
	if err != nil {
		return err
	}
	depths := make([]uint32, n)
	for i := range depths {
		if depths[i], err = br.readVarU32(); err != nil {
			return err
		}
	}
	defaultDepth, err := br.readVarU32()
	if err != nil {
		return err
	}

	cond := fp.pop()
	defFrame := p.frameAt(defaultDepth)
	defTarget, types := defFrame.branchTarget()
	outVars := varsOf(fp.popN(len(types)))

	targets := make([]ir.BasicBlockID, len(depths))
	targetsOuts := make([][]ir.VariableID, len(depths))
	for i, d := range depths {
		f := p.frameAt(d)
		t, _ := f.branchTarget()
		targets[i] = t.ID
		targetsOuts[i] = outVars
		addPhiEdge(t, types, fp.current.ID, outVars, fp.newVar)
	}
	addPhiEdge(defTarget, types, fp.current.ID, outVars, fp.newVar)

	p.finishCurrent(ir.Terminator{
		Kind: ir.TerminatorJmpTable, CondVar: cond.v,
		Targets: targets, TargetsOuts: targetsOuts,
		DefaultTarget: defTarget.ID, DefaultOuts: outVars,
	})
	p.openDeadBlock()
	return nil
}

func (p *funcParserImpl) lowerReturn() {
	fp := p.fp
	top := fp.frames[0]
	vals := varsOf(fp.popN(len(top.results)))
	p.finishCurrent(ir.Terminator{Kind: ir.TerminatorReturn, ReturnValues: vals})
	p.openDeadBlock()
}

func (p *funcParserImpl) lowerCall(idx uint32) {
	fp := p.fp
	sig := p.mq.FuncSignature(idx)
	args := varsOf(fp.popN(len(sig.Params)))

	returnBB := fp.newBlock()
	retVars := make([]ir.VariableID, len(sig.Results))
	for i := range retVars {
		retVars[i] = fp.newVar()
	}
	p.finishCurrent(ir.Terminator{
		Kind: ir.TerminatorCall, FuncIdx: idx, ReturnBB: returnBB.ID,
		CallParams: args, ReturnVars: retVars,
	})
	p.enterBlock(returnBB)
	for i, t := range sig.Results {
		fp.push(retVars[i], t)
	}
}

func (p *funcParserImpl) lowerCallIndirect(typeIdx, tableIdx uint32) {
	fp := p.fp
	sig := p.types[typeIdx]
	selector := fp.pop()
	args := varsOf(fp.popN(len(sig.Params)))

	returnBB := fp.newBlock()
	retVars := make([]ir.VariableID, len(sig.Results))
	for i := range retVars {
		retVars[i] = fp.newVar()
	}
	p.finishCurrent(ir.Terminator{
		Kind: ir.TerminatorCallIndirect, TypeIdx: typeIdx, TableIdx: tableIdx, CondVar: selector.v,
		ReturnBB: returnBB.ID, CallParams: args, ReturnVars: retVars,
	})
	p.enterBlock(returnBB)
	for i, t := range sig.Results {
		fp.push(retVars[i], t)
	}
}

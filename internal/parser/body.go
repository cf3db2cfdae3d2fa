package parser

import (
	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// moduleQuerier is the subset of *module.Module's query surface the
// function-body lowering needs for instructions whose pushed type depends
// on module-level declarations (calls, globals, tables). Kept as a narrow
// interface here so this file has no import-cycle-prone dependency on
// package module beyond what parser.go already has.
type moduleQuerier interface {
	FuncSignature(idx uint32) wasmtypes.FuncType
	GlobalValueType(idx uint32) wasmtypes.ValueType
	TableRefType(idx uint32) wasmtypes.ValueType
}

// parseFunctionBody lowers one code-section entry into an ir.Function,
// implementing the structured-control-flow-to-basic-block translation of
// spec.md §9: blocks and ifs reserve a continuation block up front so
// forward branches can target it before `end`; loops reserve their header
// eagerly since backward branches address it; phi nodes accumulate one
// entry per predecessor edge as each branch is lowered.
func parseFunctionBody(mq moduleQuerier, types []wasmtypes.FuncType, sig wasmtypes.FuncType, localTypes []wasmtypes.ValueType, br *byteReader) (*ir.Function, error) {
	p := &funcParserImpl{types: types, mq: mq}
	return p.run(sig, localTypes, br)
}

type funcParserImpl struct {
	types     []wasmtypes.FuncType
	mq        moduleQuerier
	fp        *funcParser
	allLocals []wasmtypes.ValueType
}

func (p *funcParserImpl) run(sig wasmtypes.FuncType, localTypes []wasmtypes.ValueType, br *byteReader) (*ir.Function, error) {
	p.fp = &funcParser{types: p.types}
	p.allLocals = append(append([]wasmtypes.ValueType{}, sig.Params...), localTypes...)
	fn := &ir.Function{Locals: localTypes}
	entry := ir.NewBasicBlock(0)
	fn.BasicBlocks = append(fn.BasicBlocks, entry)
	p.fp.fn = fn
	p.fp.current = entry

	if err := p.lowerBody(br, sig.Results); err != nil {
		return nil, err
	}
	fn.NumVars = uint32(p.fp.nextVar)
	return fn, nil
}

func (p *funcParserImpl) localType(idx uint32) wasmtypes.ValueType { return p.allLocals[idx] }

// lowerBody consumes instructions until the matching top-level `end` of the
// function body, handling the implicit top-level "block" whose results are
// the function's own return types.
func (p *funcParserImpl) lowerBody(br *byteReader, fnResults []wasmtypes.ValueType) error {
	top := &controlFrame{kind: frameBlock, results: fnResults, stackBase: 0, isTop: true}
	p.fp.frames = append(p.fp.frames, top)

	for {
		done, err := p.step(br)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// step decodes and lowers a single instruction (or structured-control
// token), returning done=true once the function body's closing `end` has
// been consumed.
func (p *funcParserImpl) step(br *byteReader) (done bool, err error) {
	op, err := br.readByte()
	if err != nil {
		return false, err
	}
	fp := p.fp

	switch wasmtypes.Opcode(op) {
	case wasmtypes.OpcodeUnreachable:
		p.finishCurrent(ir.Terminator{Kind: ir.TerminatorUnreachable})
		p.openDeadBlock()

	case wasmtypes.OpcodeNop:
		// no-op, no IR emitted.

	case wasmtypes.OpcodeBlock:
		return false, p.lowerBlock(br)
	case wasmtypes.OpcodeLoop:
		return false, p.lowerLoop(br)
	case wasmtypes.OpcodeIf:
		return false, p.lowerIf(br)
	case wasmtypes.OpcodeElse:
		return false, p.lowerElse()
	case wasmtypes.OpcodeEnd:
		return p.lowerEnd()

	case wasmtypes.OpcodeBr:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerBr(idx)
	case wasmtypes.OpcodeBrIf:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerBrIf(idx)
	case wasmtypes.OpcodeBrTable:
		if err := p.lowerBrTable(br); err != nil {
			return false, err
		}
	case wasmtypes.OpcodeReturn:
		p.lowerReturn()
	case wasmtypes.OpcodeCall:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerCall(idx)
	case wasmtypes.OpcodeCallIndirect:
		typeIdx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		tableIdx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerCallIndirect(typeIdx, tableIdx)

	case wasmtypes.OpcodeDrop:
		fp.pop()
	case wasmtypes.OpcodeSelect:
		p.lowerSelect(nil)
	case wasmtypes.OpcodeSelectT:
		n, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		vts := make([]wasmtypes.ValueType, n)
		for i := range vts {
			if vts[i], err = br.readValueType(); err != nil {
				return false, err
			}
		}
		p.lowerSelect(vts)

	case wasmtypes.OpcodeLocalGet:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerLocalGet(idx)
	case wasmtypes.OpcodeLocalSet:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerLocalSet(idx)
	case wasmtypes.OpcodeLocalTee:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerLocalTee(idx)
	case wasmtypes.OpcodeGlobalGet:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerGlobalGet(idx)
	case wasmtypes.OpcodeGlobalSet:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerGlobalSet(idx)

	case wasmtypes.OpcodeTableGet:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerTableGet(idx)
	case wasmtypes.OpcodeTableSet:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerTableSet(idx)

	case wasmtypes.OpcodeI32Const:
		v, err := br.readVarI32()
		if err != nil {
			return false, err
		}
		p.lowerConst(wasmtypes.ValueTypeI32, func(e *ir.Encoder) { ir.WriteImmediate[int32](e, v) })
	case wasmtypes.OpcodeI64Const:
		v, err := br.readVarI64()
		if err != nil {
			return false, err
		}
		p.lowerConst(wasmtypes.ValueTypeI64, func(e *ir.Encoder) { ir.WriteImmediate[int64](e, v) })
	case wasmtypes.OpcodeF32Const:
		v, err := br.readF32()
		if err != nil {
			return false, err
		}
		p.lowerConst(wasmtypes.ValueTypeF32, func(e *ir.Encoder) { ir.WriteImmediate[float32](e, v) })
	case wasmtypes.OpcodeF64Const:
		v, err := br.readF64()
		if err != nil {
			return false, err
		}
		p.lowerConst(wasmtypes.ValueTypeF64, func(e *ir.Encoder) { ir.WriteImmediate[float64](e, v) })

	case wasmtypes.OpcodeRefNull:
		vt, err := br.readValueType()
		if err != nil {
			return false, err
		}
		p.lowerRefNull(vt)
	case wasmtypes.OpcodeRefIsNull:
		p.lowerRefIsNull()
	case wasmtypes.OpcodeRefFunc:
		idx, err := br.readVarU32()
		if err != nil {
			return false, err
		}
		p.lowerRefFunc(idx)

	case wasmtypes.OpcodeMemorySize:
		if _, err := br.readVarU32(); err != nil { // memory index, always 0 in this subset
			return false, err
		}
		p.lowerMemorySize()
	case wasmtypes.OpcodeMemoryGrow:
		if _, err := br.readVarU32(); err != nil {
			return false, err
		}
		p.lowerMemoryGrow()

	case wasmtypes.OpcodeMiscPrefix:
		if err := p.lowerMisc(br); err != nil {
			return false, err
		}
	case wasmtypes.OpcodeVecPrefix:
		return false, wasmtypes.NewValidationError(0, br.offset(), "SIMD instructions are not supported")

	default:
		b := byte(op)
		switch {
		case b >= 0x28 && b <= 0x3e:
			if err := p.lowerLoadStore(b, br); err != nil {
				return false, err
			}
		default:
			if _, ok := unaryOps[wasmtypes.Opcode(b)]; ok {
				p.lowerUnary(wasmtypes.Opcode(b))
			} else if _, ok := binaryOps[wasmtypes.Opcode(b)]; ok {
				p.lowerBinary(wasmtypes.Opcode(b))
			} else {
				return false, wasmtypes.NewValidationError(0, br.offset(), "unsupported or reserved opcode")
			}
		}
	}
	return false, nil
}

// finishCurrent records term as p.fp.current's terminator.
func (p *funcParserImpl) finishCurrent(term ir.Terminator) {
	p.fp.current.Encoder().Finish(term)
}

// openDeadBlock switches current to a fresh, predecessor-less block used to
// hold instructions textually present but never reachable (spec.md §9's
// "fixed up" placeholder discipline extends naturally to dead code: we
// still parse it, we just never wire an edge into it).
func (p *funcParserImpl) openDeadBlock() {
	p.fp.current = p.fp.newBlock()
	p.fp.unreachable = true
}

func (p *funcParserImpl) enterBlock(bb *ir.BasicBlock) {
	p.fp.current = bb
	p.fp.unreachable = false
}

func (p *funcParserImpl) curFrame() *controlFrame {
	return p.fp.frames[len(p.fp.frames)-1]
}

func (p *funcParserImpl) frameAt(depth uint32) *controlFrame {
	return p.fp.frames[len(p.fp.frames)-1-int(depth)]
}

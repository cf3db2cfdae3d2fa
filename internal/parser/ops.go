package parser

import (
	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func (p *funcParserImpl) lowerConst(vt wasmtypes.ValueType, writeImm func(*ir.Encoder)) {
	fp := p.fp
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKConst)
	writeImm(enc)
	enc.WriteVariable(out)
	enc.WriteValueType(vt)
	fp.push(out, vt)
}

func (p *funcParserImpl) lowerUnary(op wasmtypes.Opcode) {
	fp := p.fp
	info := unaryOps[op]
	in := fp.pop()
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKUnary)
	ir.WriteImmediate[byte](enc, byte(op))
	enc.WriteVariable(in.v)
	enc.WriteVariable(out)
	enc.WriteValueType(info.result)
	fp.push(out, info.result)
}

func (p *funcParserImpl) lowerBinary(op wasmtypes.Opcode) {
	fp := p.fp
	info := binaryOps[op]
	rhs := fp.pop()
	lhs := fp.pop()
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKBinary)
	ir.WriteImmediate[byte](enc, byte(op))
	enc.WriteVariable(lhs.v)
	enc.WriteVariable(rhs.v)
	enc.WriteVariable(out)
	enc.WriteValueType(info.result)
	fp.push(out, info.result)
}

func (p *funcParserImpl) lowerSelect(explicit []wasmtypes.ValueType) {
	fp := p.fp
	cond := fp.pop()
	b := fp.pop()
	a := fp.pop()
	t := a.t
	if len(explicit) > 0 {
		t = explicit[0]
	}
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKSelect)
	enc.WriteVariable(a.v)
	enc.WriteVariable(b.v)
	enc.WriteVariable(cond.v)
	enc.WriteVariable(out)
	enc.WriteValueType(t)
	fp.push(out, t)
}

func (p *funcParserImpl) lowerLocalGet(idx uint32) {
	fp := p.fp
	t := p.localType(idx)
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKLocalGet)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(out)
	fp.push(out, t)
}

func (p *funcParserImpl) lowerLocalSet(idx uint32) {
	fp := p.fp
	v := fp.pop()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKLocalSet)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(v.v)
}

func (p *funcParserImpl) lowerLocalTee(idx uint32) {
	fp := p.fp
	v := fp.pop()
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKLocalTee)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(v.v)
	enc.WriteVariable(out)
	fp.push(out, p.localType(idx))
}

func (p *funcParserImpl) lowerGlobalGet(idx uint32) {
	fp := p.fp
	t := p.mq.GlobalValueType(idx)
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKGlobalGet)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(out)
	fp.push(out, t)
}

func (p *funcParserImpl) lowerGlobalSet(idx uint32) {
	fp := p.fp
	v := fp.pop()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKGlobalSet)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(v.v)
}

func (p *funcParserImpl) lowerTableGet(idx uint32) {
	fp := p.fp
	t := p.mq.TableRefType(idx)
	i := fp.pop()
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKTableGet)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(i.v)
	enc.WriteVariable(out)
	fp.push(out, t)
}

func (p *funcParserImpl) lowerTableSet(idx uint32) {
	fp := p.fp
	v := fp.pop()
	i := fp.pop()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKTableSet)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(i.v)
	enc.WriteVariable(v.v)
}

func (p *funcParserImpl) lowerRefNull(vt wasmtypes.ValueType) {
	fp := p.fp
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKRefNull)
	enc.WriteVariable(out)
	enc.WriteValueType(vt)
	fp.push(out, vt)
}

func (p *funcParserImpl) lowerRefIsNull() {
	fp := p.fp
	v := fp.pop()
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKRefIsNull)
	enc.WriteVariable(v.v)
	enc.WriteVariable(out)
	fp.push(out, wasmtypes.ValueTypeI32)
}

func (p *funcParserImpl) lowerRefFunc(idx uint32) {
	fp := p.fp
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKRefFunc)
	ir.WriteImmediate[uint32](enc, idx)
	enc.WriteVariable(out)
	fp.push(out, wasmtypes.ValueTypeFuncRef)
}

func (p *funcParserImpl) lowerMemorySize() {
	fp := p.fp
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKMemorySize)
	ir.WriteImmediate[uint32](enc, 0)
	enc.WriteVariable(out)
	fp.push(out, wasmtypes.ValueTypeI32)
}

func (p *funcParserImpl) lowerMemoryGrow() {
	fp := p.fp
	delta := fp.pop()
	out := fp.newVar()
	enc := fp.current.Encoder()
	enc.WriteInstructionTag(ir.IKMemoryGrow)
	ir.WriteImmediate[uint32](enc, 0)
	enc.WriteVariable(delta.v)
	enc.WriteVariable(out)
	fp.push(out, wasmtypes.ValueTypeI32)
}

type loadDesc struct {
	op     ir.LoadStoreOp
	result wasmtypes.ValueType
}

var loadOps = map[byte]loadDesc{
	0x28: {ir.LSOpI32, wasmtypes.ValueTypeI32},
	0x29: {ir.LSOpI64, wasmtypes.ValueTypeI64},
	0x2a: {ir.LSOpF32, wasmtypes.ValueTypeF32},
	0x2b: {ir.LSOpF64, wasmtypes.ValueTypeF64},
	0x2c: {ir.LSOpI32Load8S, wasmtypes.ValueTypeI32},
	0x2d: {ir.LSOpI32Load8U, wasmtypes.ValueTypeI32},
	0x2e: {ir.LSOpI32Load16S, wasmtypes.ValueTypeI32},
	0x2f: {ir.LSOpI32Load16U, wasmtypes.ValueTypeI32},
	0x30: {ir.LSOpI64Load8S, wasmtypes.ValueTypeI64},
	0x31: {ir.LSOpI64Load8U, wasmtypes.ValueTypeI64},
	0x32: {ir.LSOpI64Load16S, wasmtypes.ValueTypeI64},
	0x33: {ir.LSOpI64Load16U, wasmtypes.ValueTypeI64},
	0x34: {ir.LSOpI64Load32S, wasmtypes.ValueTypeI64},
	0x35: {ir.LSOpI64Load32U, wasmtypes.ValueTypeI64},
}

var storeOps = map[byte]ir.LoadStoreOp{
	0x36: ir.LSOpI32,
	0x37: ir.LSOpI64,
	0x38: ir.LSOpF32,
	0x39: ir.LSOpF64,
	0x3a: ir.LSOpI32Store8,
	0x3b: ir.LSOpI32Store16,
	0x3c: ir.LSOpI64Store8,
	0x3d: ir.LSOpI64Store16,
	0x3e: ir.LSOpI64Store32,
}

func (p *funcParserImpl) lowerLoadStore(b byte, br *byteReader) error {
	align, err := br.readVarU32()
	if err != nil {
		return err
	}
	offset, err := br.readVarU32()
	if err != nil {
		return err
	}
	fp := p.fp

	if desc, ok := loadOps[b]; ok {
		addr := fp.pop()
		out := fp.newVar()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKLoad)
		ir.WriteImmediate[uint32](enc, 0)
		ir.WriteImmediate[uint32](enc, align)
		ir.WriteImmediate[uint32](enc, offset)
		ir.WriteImmediate[byte](enc, byte(desc.op))
		enc.WriteVariable(addr.v)
		enc.WriteVariable(out)
		enc.WriteValueType(desc.result)
		fp.push(out, desc.result)
		return nil
	}
	if op, ok := storeOps[b]; ok {
		val := fp.pop()
		addr := fp.pop()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKStore)
		ir.WriteImmediate[uint32](enc, 0)
		ir.WriteImmediate[uint32](enc, align)
		ir.WriteImmediate[uint32](enc, offset)
		ir.WriteImmediate[byte](enc, byte(op))
		enc.WriteVariable(addr.v)
		enc.WriteVariable(val.v)
		return nil
	}
	return wasmtypes.NewDecodeError(br.offset(), "unknown load/store opcode", nil)
}

// lowerMisc handles the 0xFC-prefixed bulk-memory and saturating-truncation
// instructions, keyed by their LEB128 secondary selector.
func (p *funcParserImpl) lowerMisc(br *byteReader) error {
	sel, err := br.readVarU32()
	if err != nil {
		return err
	}
	m := wasmtypes.MiscOpcode(sel)
	fp := p.fp

	switch m {
	case wasmtypes.MiscOpcodeI32TruncSatF32S, wasmtypes.MiscOpcodeI32TruncSatF32U,
		wasmtypes.MiscOpcodeI32TruncSatF64S, wasmtypes.MiscOpcodeI32TruncSatF64U,
		wasmtypes.MiscOpcodeI64TruncSatF32S, wasmtypes.MiscOpcodeI64TruncSatF32U,
		wasmtypes.MiscOpcodeI64TruncSatF64S, wasmtypes.MiscOpcodeI64TruncSatF64U:
		_, result := truncSatTypes(m)
		in := fp.pop()
		out := fp.newVar()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKUnary)
		ir.WriteImmediate[byte](enc, truncSatImmediate(m))
		enc.WriteVariable(in.v)
		enc.WriteVariable(out)
		enc.WriteValueType(result)
		fp.push(out, result)

	case wasmtypes.MiscOpcodeMemoryInit:
		dataIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		if _, err := br.readVarU32(); err != nil {
			return err
		}
		n, src, dst := fp.pop(), fp.pop(), fp.pop()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKMemoryInit)
		ir.WriteImmediate[uint32](enc, 0)
		ir.WriteImmediate[uint32](enc, dataIdx)
		enc.WriteVariable(dst.v)
		enc.WriteVariable(src.v)
		enc.WriteVariable(n.v)

	case wasmtypes.MiscOpcodeDataDrop:
		dataIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKDataDrop)
		ir.WriteImmediate[uint32](enc, dataIdx)

	case wasmtypes.MiscOpcodeMemoryCopy:
		if _, err := br.readVarU32(); err != nil {
			return err
		}
		if _, err := br.readVarU32(); err != nil {
			return err
		}
		n, src, dst := fp.pop(), fp.pop(), fp.pop()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKMemoryCopy)
		ir.WriteImmediate[uint32](enc, 0)
		enc.WriteVariable(dst.v)
		enc.WriteVariable(src.v)
		enc.WriteVariable(n.v)

	case wasmtypes.MiscOpcodeMemoryFill:
		if _, err := br.readVarU32(); err != nil {
			return err
		}
		n, val, dst := fp.pop(), fp.pop(), fp.pop()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKMemoryFill)
		ir.WriteImmediate[uint32](enc, 0)
		enc.WriteVariable(dst.v)
		enc.WriteVariable(val.v)
		enc.WriteVariable(n.v)

	case wasmtypes.MiscOpcodeTableInit:
		elemIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		tableIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		n, src, dst := fp.pop(), fp.pop(), fp.pop()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKTableInit)
		ir.WriteImmediate[uint32](enc, tableIdx)
		ir.WriteImmediate[uint32](enc, elemIdx)
		enc.WriteVariable(dst.v)
		enc.WriteVariable(src.v)
		enc.WriteVariable(n.v)

	case wasmtypes.MiscOpcodeElemDrop:
		elemIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKElemDrop)
		ir.WriteImmediate[uint32](enc, elemIdx)

	case wasmtypes.MiscOpcodeTableCopy:
		dstTable, err := br.readVarU32()
		if err != nil {
			return err
		}
		srcTable, err := br.readVarU32()
		if err != nil {
			return err
		}
		n, src, dst := fp.pop(), fp.pop(), fp.pop()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKTableCopy)
		ir.WriteImmediate[uint32](enc, dstTable)
		ir.WriteImmediate[uint32](enc, srcTable)
		enc.WriteVariable(dst.v)
		enc.WriteVariable(src.v)
		enc.WriteVariable(n.v)

	case wasmtypes.MiscOpcodeTableGrow:
		tableIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		n, val := fp.pop(), fp.pop()
		out := fp.newVar()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKTableGrow)
		ir.WriteImmediate[uint32](enc, tableIdx)
		enc.WriteVariable(val.v)
		enc.WriteVariable(n.v)
		enc.WriteVariable(out)
		fp.push(out, wasmtypes.ValueTypeI32)

	case wasmtypes.MiscOpcodeTableSize:
		tableIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		out := fp.newVar()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKTableSize)
		ir.WriteImmediate[uint32](enc, tableIdx)
		enc.WriteVariable(out)
		fp.push(out, wasmtypes.ValueTypeI32)

	case wasmtypes.MiscOpcodeTableFill:
		tableIdx, err := br.readVarU32()
		if err != nil {
			return err
		}
		n, val, dst := fp.pop(), fp.pop(), fp.pop()
		enc := fp.current.Encoder()
		enc.WriteInstructionTag(ir.IKTableFill)
		ir.WriteImmediate[uint32](enc, tableIdx)
		enc.WriteVariable(dst.v)
		enc.WriteVariable(val.v)
		enc.WriteVariable(n.v)

	default:
		return wasmtypes.NewValidationError(0, br.offset(), "unsupported misc opcode")
	}
	return nil
}

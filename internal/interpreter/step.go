package interpreter

import (
	"github.com/wasmine-go/wasmine/internal/ir"
	"github.com/wasmine-go/wasmine/internal/runtime"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

// step decodes and executes a single non-terminator instruction against
// fr's locals/vars, mirroring the exact per-kind read sequence
// internal/parser/ops.go and internal/parser/body.go wrote (internal/ir's
// four streams carry independent read cursors, so a kind may read them in
// whichever order is convenient, as long as each stream's total count per
// instruction matches what was written).
func (fr *frame) step(tag ir.InstructionKind, dec *ir.Decoder) {
	switch tag {
	case ir.IKConst:
		vt := dec.ReadValueType()
		var v wasmtypes.RawSlot
		switch vt {
		case wasmtypes.ValueTypeI32:
			v = wasmtypes.I32ToRaw(ir.ReadImmediate[int32](dec))
		case wasmtypes.ValueTypeI64:
			v = wasmtypes.I64ToRaw(ir.ReadImmediate[int64](dec))
		case wasmtypes.ValueTypeF32:
			v = wasmtypes.F32ToRaw(ir.ReadImmediate[float32](dec))
		case wasmtypes.ValueTypeF64:
			v = wasmtypes.F64ToRaw(ir.ReadImmediate[float64](dec))
		}
		out := dec.ReadVariable()
		fr.vars[out] = v

	case ir.IKUnary:
		op := ir.ReadImmediate[byte](dec)
		in := dec.ReadVariable()
		out := dec.ReadVariable()
		dec.ReadValueType()
		fr.vars[out] = evalUnary(op, fr.vars[in], fr.name)

	case ir.IKBinary:
		op := ir.ReadImmediate[byte](dec)
		lhs := dec.ReadVariable()
		rhs := dec.ReadVariable()
		out := dec.ReadVariable()
		dec.ReadValueType()
		fr.vars[out] = evalBinary(op, fr.vars[lhs], fr.vars[rhs], fr.name)

	case ir.IKLoad:
		ir.ReadImmediate[uint32](dec) // memory index, always 0
		ir.ReadImmediate[uint32](dec) // align, unused at interpretation time
		offset := ir.ReadImmediate[uint32](dec)
		op := ir.LoadStoreOp(ir.ReadImmediate[byte](dec))
		addr := dec.ReadVariable()
		out := dec.ReadVariable()
		dec.ReadValueType()
		fr.vars[out] = fr.doLoad(op, wasmtypes.RawToU32(fr.vars[addr]), offset)

	case ir.IKStore:
		ir.ReadImmediate[uint32](dec)
		ir.ReadImmediate[uint32](dec)
		offset := ir.ReadImmediate[uint32](dec)
		op := ir.LoadStoreOp(ir.ReadImmediate[byte](dec))
		addr := dec.ReadVariable()
		val := dec.ReadVariable()
		fr.doStore(op, wasmtypes.RawToU32(fr.vars[addr]), offset, fr.vars[val])

	case ir.IKMemorySize:
		ir.ReadImmediate[uint32](dec)
		out := dec.ReadVariable()
		fr.vars[out] = wasmtypes.U32ToRaw(fr.inst.Memories[0].Pages())

	case ir.IKMemoryGrow:
		ir.ReadImmediate[uint32](dec)
		delta := dec.ReadVariable()
		out := dec.ReadVariable()
		prev, ok := fr.inst.Memories[0].Grow(wasmtypes.RawToU32(fr.vars[delta]))
		if !ok {
			fr.vars[out] = wasmtypes.I32ToRaw(-1)
		} else {
			fr.vars[out] = wasmtypes.U32ToRaw(prev)
		}

	case ir.IKMemoryCopy:
		ir.ReadImmediate[uint32](dec)
		dst := dec.ReadVariable()
		src := dec.ReadVariable()
		n := dec.ReadVariable()
		mem := fr.inst.Memories[0]
		if !mem.CopyWithin(wasmtypes.RawToU32(fr.vars[dst]), wasmtypes.RawToU32(fr.vars[src]), wasmtypes.RawToU32(fr.vars[n])) {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
		}

	case ir.IKMemoryFill:
		ir.ReadImmediate[uint32](dec)
		dst := dec.ReadVariable()
		val := dec.ReadVariable()
		n := dec.ReadVariable()
		mem := fr.inst.Memories[0]
		if !mem.Fill(wasmtypes.RawToU32(fr.vars[dst]), byte(fr.vars[val]), wasmtypes.RawToU32(fr.vars[n])) {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsMemoryAccess, fr.name))
		}

	case ir.IKMemoryInit:
		ir.ReadImmediate[uint32](dec)
		dataIdx := ir.ReadImmediate[uint32](dec)
		dst := dec.ReadVariable()
		src := dec.ReadVariable()
		n := dec.ReadVariable()
		fr.doMemoryInit(dataIdx, wasmtypes.RawToU32(fr.vars[dst]), wasmtypes.RawToU32(fr.vars[src]), wasmtypes.RawToU32(fr.vars[n]))

	case ir.IKDataDrop:
		dataIdx := ir.ReadImmediate[uint32](dec)
		fr.inst.DropData(dataIdx)

	case ir.IKTableGet:
		tableIdx := ir.ReadImmediate[uint32](dec)
		idx := dec.ReadVariable()
		out := dec.ReadVariable()
		elem, ok := fr.inst.Tables[tableIdx].Get(wasmtypes.RawToU32(fr.vars[idx]))
		if !ok {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, fr.name))
		}
		fr.vars[out] = runtime.ElemToSlot(elem)

	case ir.IKTableSet:
		tableIdx := ir.ReadImmediate[uint32](dec)
		idx := dec.ReadVariable()
		val := dec.ReadVariable()
		table := fr.inst.Tables[tableIdx]
		elem := runtime.SlotToElem(table.RefType, fr.vars[val])
		if !table.Set(wasmtypes.RawToU32(fr.vars[idx]), elem) {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, fr.name))
		}

	case ir.IKTableGrow:
		tableIdx := ir.ReadImmediate[uint32](dec)
		val := dec.ReadVariable()
		n := dec.ReadVariable()
		out := dec.ReadVariable()
		table := fr.inst.Tables[tableIdx]
		elem := runtime.SlotToElem(table.RefType, fr.vars[val])
		prev, ok := table.Grow(wasmtypes.RawToU32(fr.vars[n]), elem)
		if !ok {
			fr.vars[out] = wasmtypes.I32ToRaw(-1)
		} else {
			fr.vars[out] = wasmtypes.U32ToRaw(prev)
		}

	case ir.IKTableSize:
		tableIdx := ir.ReadImmediate[uint32](dec)
		out := dec.ReadVariable()
		fr.vars[out] = wasmtypes.U32ToRaw(fr.inst.Tables[tableIdx].Size())

	case ir.IKTableFill:
		tableIdx := ir.ReadImmediate[uint32](dec)
		dst := dec.ReadVariable()
		val := dec.ReadVariable()
		n := dec.ReadVariable()
		table := fr.inst.Tables[tableIdx]
		elem := runtime.SlotToElem(table.RefType, fr.vars[val])
		if !table.Fill(wasmtypes.RawToU32(fr.vars[dst]), elem, wasmtypes.RawToU32(fr.vars[n])) {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, fr.name))
		}

	case ir.IKTableCopy:
		dstTable := ir.ReadImmediate[uint32](dec)
		srcTable := ir.ReadImmediate[uint32](dec)
		dst := dec.ReadVariable()
		src := dec.ReadVariable()
		n := dec.ReadVariable()
		ok := runtime.CopyFrom(fr.inst.Tables[dstTable], wasmtypes.RawToU32(fr.vars[dst]),
			fr.inst.Tables[srcTable], wasmtypes.RawToU32(fr.vars[src]), wasmtypes.RawToU32(fr.vars[n]))
		if !ok {
			panic(wasmtypes.NewTrap(wasmtypes.TrapCodeOutOfBoundsTableAccess, fr.name))
		}

	case ir.IKTableInit:
		tableIdx := ir.ReadImmediate[uint32](dec)
		elemIdx := ir.ReadImmediate[uint32](dec)
		dst := dec.ReadVariable()
		src := dec.ReadVariable()
		n := dec.ReadVariable()
		fr.doTableInit(tableIdx, elemIdx, wasmtypes.RawToU32(fr.vars[dst]), wasmtypes.RawToU32(fr.vars[src]), wasmtypes.RawToU32(fr.vars[n]))

	case ir.IKElemDrop:
		elemIdx := ir.ReadImmediate[uint32](dec)
		fr.inst.DropSegment(elemIdx)

	case ir.IKLocalGet:
		idx := ir.ReadImmediate[uint32](dec)
		out := dec.ReadVariable()
		fr.vars[out] = fr.locals[idx]

	case ir.IKLocalSet:
		idx := ir.ReadImmediate[uint32](dec)
		in := dec.ReadVariable()
		fr.locals[idx] = fr.vars[in]

	case ir.IKLocalTee:
		idx := ir.ReadImmediate[uint32](dec)
		in := dec.ReadVariable()
		out := dec.ReadVariable()
		fr.locals[idx] = fr.vars[in]
		fr.vars[out] = fr.vars[in]

	case ir.IKGlobalGet:
		idx := ir.ReadImmediate[uint32](dec)
		out := dec.ReadVariable()
		fr.vars[out] = fr.inst.Globals[idx].Value

	case ir.IKGlobalSet:
		idx := ir.ReadImmediate[uint32](dec)
		in := dec.ReadVariable()
		fr.inst.Globals[idx].Value = fr.vars[in]

	case ir.IKDrop:
		dec.ReadVariable()

	case ir.IKSelect:
		a := dec.ReadVariable()
		b := dec.ReadVariable()
		cond := dec.ReadVariable()
		out := dec.ReadVariable()
		dec.ReadValueType()
		if fr.vars[cond] != 0 {
			fr.vars[out] = fr.vars[a]
		} else {
			fr.vars[out] = fr.vars[b]
		}

	case ir.IKRefNull:
		out := dec.ReadVariable()
		dec.ReadValueType()
		fr.vars[out] = 0

	case ir.IKRefIsNull:
		in := dec.ReadVariable()
		out := dec.ReadVariable()
		if fr.vars[in] == 0 {
			fr.vars[out] = 1
		} else {
			fr.vars[out] = 0
		}

	case ir.IKRefFunc:
		idx := ir.ReadImmediate[uint32](dec)
		out := dec.ReadVariable()
		fr.vars[out] = runtime.FuncToSlot(fr.inst.Functions[idx])
	}
}

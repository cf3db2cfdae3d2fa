package parser

import (
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func parseTypeSection(br *byteReader) ([]wasmtypes.FuncType, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	types := make([]wasmtypes.FuncType, count)
	for i := range types {
		form, err := br.readByte()
		if err != nil {
			return nil, err
		}
		if form != 0x60 {
			return nil, wasmtypes.NewDecodeError(br.offset(), "expected func type form 0x60", nil)
		}
		numParams, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		params := make([]wasmtypes.ValueType, numParams)
		for j := range params {
			if params[j], err = br.readValueType(); err != nil {
				return nil, err
			}
		}
		numResults, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		results := make([]wasmtypes.ValueType, numResults)
		for j := range results {
			if results[j], err = br.readValueType(); err != nil {
				return nil, err
			}
		}
		types[i] = wasmtypes.FuncType{Params: params, Results: results}
	}
	return types, nil
}

func parseImportSection(br *byteReader) ([]module.Import, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	imports := make([]module.Import, count)
	for i := range imports {
		mod, err := br.readName()
		if err != nil {
			return nil, err
		}
		name, err := br.readName()
		if err != nil {
			return nil, err
		}
		kindByte, err := br.readByte()
		if err != nil {
			return nil, err
		}
		imp := module.Import{Module: mod, Name: name, Kind: wasmtypes.ExternKind(kindByte)}
		switch imp.Kind {
		case wasmtypes.ExternKindFunc:
			if imp.FuncTypeIdx, err = br.readVarU32(); err != nil {
				return nil, err
			}
		case wasmtypes.ExternKindTable:
			if imp.Table, err = parseTableType(br); err != nil {
				return nil, err
			}
		case wasmtypes.ExternKindMemory:
			lim, err := br.readLimits()
			if err != nil {
				return nil, err
			}
			imp.Memory = module.MemoryType{Limits: lim}
		case wasmtypes.ExternKindGlobal:
			gt, err := parseGlobalType(br)
			if err != nil {
				return nil, err
			}
			imp.Global = gt
		default:
			return nil, wasmtypes.NewDecodeError(br.offset(), "invalid import kind", nil)
		}
		imports[i] = imp
	}
	return imports, nil
}

func parseTableType(br *byteReader) (module.TableType, error) {
	rt, err := br.readValueType()
	if err != nil {
		return module.TableType{}, err
	}
	if !rt.IsReference() {
		return module.TableType{}, wasmtypes.NewDecodeError(br.offset(), "table element type must be a reference type", nil)
	}
	lim, err := br.readLimits()
	if err != nil {
		return module.TableType{}, err
	}
	return module.TableType{RefType: rt, Limits: lim}, nil
}

func parseGlobalType(br *byteReader) (module.GlobalType, error) {
	vt, err := br.readValueType()
	if err != nil {
		return module.GlobalType{}, err
	}
	mutByte, err := br.readByte()
	if err != nil {
		return module.GlobalType{}, err
	}
	if mutByte > 1 {
		return module.GlobalType{}, wasmtypes.NewDecodeError(br.offset(), "invalid global mutability byte", nil)
	}
	return module.GlobalType{Mutable: mutByte == 1, Type: vt}, nil
}

func parseFunctionSection(br *byteReader) ([]uint32, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	idxs := make([]uint32, count)
	for i := range idxs {
		if idxs[i], err = br.readVarU32(); err != nil {
			return nil, err
		}
	}
	return idxs, nil
}

func parseTableSection(br *byteReader) ([]module.TableType, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	tables := make([]module.TableType, count)
	for i := range tables {
		if tables[i], err = parseTableType(br); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func parseMemorySection(br *byteReader) ([]module.MemoryType, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	mems := make([]module.MemoryType, count)
	for i := range mems {
		lim, err := br.readLimits()
		if err != nil {
			return nil, err
		}
		mems[i] = module.MemoryType{Limits: lim}
	}
	return mems, nil
}

func parseGlobalSection(br *byteReader, numImportedGlobals int) ([]module.Global, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	globals := make([]module.Global, count)
	for i := range globals {
		gt, err := parseGlobalType(br)
		if err != nil {
			return nil, err
		}
		init, err := parseConstExpr(br, numImportedGlobals)
		if err != nil {
			return nil, err
		}
		globals[i] = module.Global{Type: gt, Init: init}
	}
	return globals, nil
}

func parseExportSection(br *byteReader) ([]module.Export, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	exports := make([]module.Export, count)
	for i := range exports {
		name, err := br.readName()
		if err != nil {
			return nil, err
		}
		kindByte, err := br.readByte()
		if err != nil {
			return nil, err
		}
		idx, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		exports[i] = module.Export{Name: name, Kind: wasmtypes.ExternKind(kindByte), Idx: idx}
	}
	return exports, nil
}

// parseConstExpr parses a constant initializer expression and its trailing
// 0x0b (end) opcode, restricted per spec.md §4.1 to *.const, ref.null,
// ref.func, and global.get of an immutable imported global.
func parseConstExpr(br *byteReader, numImportedGlobals int) (module.ConstExpr, error) {
	op, err := br.readByte()
	if err != nil {
		return module.ConstExpr{}, err
	}
	var expr module.ConstExpr
	switch wasmtypes.Opcode(op) {
	case wasmtypes.OpcodeI32Const:
		v, err := br.readVarI32()
		if err != nil {
			return module.ConstExpr{}, err
		}
		expr = module.ConstExpr{Kind: module.ConstExprI32Const, I32Value: v}
	case wasmtypes.OpcodeI64Const:
		v, err := br.readVarI64()
		if err != nil {
			return module.ConstExpr{}, err
		}
		expr = module.ConstExpr{Kind: module.ConstExprI64Const, I64Value: v}
	case wasmtypes.OpcodeF32Const:
		v, err := br.readF32()
		if err != nil {
			return module.ConstExpr{}, err
		}
		expr = module.ConstExpr{Kind: module.ConstExprF32Const, F32Value: v}
	case wasmtypes.OpcodeF64Const:
		v, err := br.readF64()
		if err != nil {
			return module.ConstExpr{}, err
		}
		expr = module.ConstExpr{Kind: module.ConstExprF64Const, F64Value: v}
	case wasmtypes.OpcodeRefNull:
		rt, err := br.readValueType()
		if err != nil {
			return module.ConstExpr{}, err
		}
		expr = module.ConstExpr{Kind: module.ConstExprRefNull, RefNullType: rt}
	case wasmtypes.OpcodeRefFunc:
		idx, err := br.readVarU32()
		if err != nil {
			return module.ConstExpr{}, err
		}
		expr = module.ConstExpr{Kind: module.ConstExprRefFunc, Idx: idx}
	case wasmtypes.OpcodeGlobalGet:
		idx, err := br.readVarU32()
		if err != nil {
			return module.ConstExpr{}, err
		}
		if int(idx) >= numImportedGlobals {
			return module.ConstExpr{}, wasmtypes.NewValidationError(0, br.offset(),
				"constant expression may only global.get an imported global")
		}
		expr = module.ConstExpr{Kind: module.ConstExprGlobalGet, Idx: idx}
	default:
		return module.ConstExpr{}, wasmtypes.NewValidationError(0, br.offset(), "illegal constant expression opcode")
	}
	end, err := br.readByte()
	if err != nil {
		return module.ConstExpr{}, err
	}
	if wasmtypes.Opcode(end) != wasmtypes.OpcodeEnd {
		return module.ConstExpr{}, wasmtypes.NewDecodeError(br.offset(), "constant expression missing end opcode", nil)
	}
	return expr, nil
}

// parseElementSection decodes the bulk-memory element-segment encoding:
// bit 0 selects active (0) vs passive-or-declarative (1); for active
// segments bit 1 selects an explicit table index over the implied table 0;
// for passive/declarative segments bit 1 selects declarative over passive;
// bit 2 selects the "expr vec with reftype" shape over the "funcidx vec
// with elemkind byte" shape.
func parseElementSection(br *byteReader, numImportedGlobals int) ([]module.ElementSegment, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	segs := make([]module.ElementSegment, count)
	for i := range segs {
		flags, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		seg := module.ElementSegment{RefType: wasmtypes.ValueTypeFuncRef}
		active := flags&1 == 0
		usesExprs := flags&4 != 0
		explicitTable := flags&2 != 0

		if active {
			seg.Mode = wasmtypes.SegmentActive
			if explicitTable {
				if seg.Table, err = br.readVarU32(); err != nil {
					return nil, err
				}
			}
			if seg.Offset, err = parseConstExpr(br, numImportedGlobals); err != nil {
				return nil, err
			}
		} else if explicitTable { // bit1 set while bit0 set means declarative.
			seg.Mode = wasmtypes.SegmentDeclarative
		} else {
			seg.Mode = wasmtypes.SegmentPassive
		}

		// Every non-"flags==0" shape carries an elemkind-or-reftype byte
		// before the element vector; flags==0 (active, implicit table,
		// funcidx vec) omits it entirely.
		if flags != 0 {
			if usesExprs {
				if seg.RefType, err = br.readValueType(); err != nil {
					return nil, err
				}
			} else {
				kindByte, err := br.readByte()
				if err != nil {
					return nil, err
				}
				if kindByte != 0 {
					return nil, wasmtypes.NewDecodeError(br.offset(), "invalid elemkind byte", nil)
				}
			}
		}

		n, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		if usesExprs {
			seg.Exprs = make([]module.ConstExpr, n)
			for j := range seg.Exprs {
				if seg.Exprs[j], err = parseConstExpr(br, numImportedGlobals); err != nil {
					return nil, err
				}
			}
		} else {
			seg.FuncIndices = make([]uint32, n)
			for j := range seg.FuncIndices {
				if seg.FuncIndices[j], err = br.readVarU32(); err != nil {
					return nil, err
				}
			}
		}
		segs[i] = seg
	}
	return segs, nil
}

func parseDataSection(br *byteReader, numImportedGlobals int) ([]module.DataSegment, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	segs := make([]module.DataSegment, count)
	for i := range segs {
		flags, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		seg := module.DataSegment{}
		switch flags {
		case 0:
			seg.Mode = wasmtypes.SegmentActive
			if seg.Offset, err = parseConstExpr(br, numImportedGlobals); err != nil {
				return nil, err
			}
		case 1:
			seg.Mode = wasmtypes.SegmentPassive
		case 2:
			seg.Mode = wasmtypes.SegmentActive
			if seg.Memory, err = br.readVarU32(); err != nil {
				return nil, err
			}
			if seg.Offset, err = parseConstExpr(br, numImportedGlobals); err != nil {
				return nil, err
			}
		default:
			return nil, wasmtypes.NewDecodeError(br.offset(), "invalid data segment flags", nil)
		}
		n, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		if seg.Bytes, err = br.readBytes(int(n)); err != nil {
			return nil, err
		}
		segs[i] = seg
	}
	return segs, nil
}

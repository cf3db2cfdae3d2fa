package parser

import (
	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
	"go.uber.org/zap"
)

// Parse decodes and lowers a complete Wasm binary into a module.Module,
// including every non-imported function's IR body (spec.md §4.1). Sections
// are consumed in the canonical order of sectionOrder; a custom section
// (id 0) may appear between any two of them and is skipped entirely,
// name included, since this implementation has no custom-section consumer.
func Parse(data []byte) (*module.Module, error) {
	outer := newByteReader(data)
	if err := checkMagicAndVersion(outer); err != nil {
		return nil, err
	}

	mod := &module.Module{}
	var funcTypeIdxs []uint32
	var codeEntries [][]byte
	lastOrder := -1

	for {
		idByte, err := outer.r.ReadByte()
		if err != nil {
			break // EOF: end of module.
		}
		id := sectionID(idByte)
		size, err := outer.readVarU32()
		if err != nil {
			return nil, err
		}
		payload, err := outer.readBytes(int(size))
		if err != nil {
			return nil, err
		}

		if id == sectionCustom {
			logger.Debug("skipping custom section", zap.Int("bytes", len(payload)))
			continue
		}

		order := sectionOrderIndex(id)
		if order < 0 {
			return nil, wasmtypes.NewDecodeError(outer.offset(), "unknown section id", nil)
		}
		if order <= lastOrder {
			return nil, wasmtypes.NewDecodeError(outer.offset(), "sections out of canonical order", nil)
		}
		lastOrder = order

		br := newByteReader(payload)
		br.origin = outer.offset() - int64(len(payload))

		switch id {
		case sectionType:
			if mod.Types, err = parseTypeSection(br); err != nil {
				return nil, err
			}
		case sectionImport:
			if mod.Imports, err = parseImportSection(br); err != nil {
				return nil, err
			}
		case sectionFunction:
			if funcTypeIdxs, err = parseFunctionSection(br); err != nil {
				return nil, err
			}
		case sectionTable:
			if mod.Tables, err = parseTableSection(br); err != nil {
				return nil, err
			}
		case sectionMemory:
			if mod.Memories, err = parseMemorySection(br); err != nil {
				return nil, err
			}
		case sectionGlobal:
			if mod.Globals, err = parseGlobalSection(br, numImportedGlobals(mod)); err != nil {
				return nil, err
			}
		case sectionExport:
			if mod.Exports, err = parseExportSection(br); err != nil {
				return nil, err
			}
		case sectionStart:
			if mod.Start, err = br.readVarU32(); err != nil {
				return nil, err
			}
			mod.HasStart = true
		case sectionElement:
			if mod.Elements, err = parseElementSection(br, numImportedGlobals(mod)); err != nil {
				return nil, err
			}
		case sectionDataCount:
			// The count is neither recorded nor checked: data.drop and
			// memory.init data indices are not validated against it or
			// against len(mod.Data).
		case sectionCode:
			codeEntries, err = splitCodeEntries(br)
			if err != nil {
				return nil, err
			}
		case sectionData:
			if mod.Data, err = parseDataSection(br, numImportedGlobals(mod)); err != nil {
				return nil, err
			}
		}
	}

	assembleFunctions(mod, funcTypeIdxs)
	if err := lowerCode(mod, codeEntries); err != nil {
		return nil, err
	}
	mod.SetSourceBytes(data)
	return mod, nil
}

func numImportedGlobals(mod *module.Module) int {
	n := 0
	for _, imp := range mod.Imports {
		if imp.Kind == wasmtypes.ExternKindGlobal {
			n++
		}
	}
	return n
}

// assembleFunctions builds mod.Functions: imported functions first (in
// import order), then one FunctionDef per function-section type index, in
// the dense index space the binary format assumes everywhere else.
func assembleFunctions(mod *module.Module, funcTypeIdxs []uint32) {
	for i, imp := range mod.Imports {
		if imp.Kind == wasmtypes.ExternKindFunc {
			mod.Functions = append(mod.Functions, module.FunctionDef{
				TypeIdx: imp.FuncTypeIdx, IsImport: true, ImportIdx: uint32(i),
			})
		}
	}
	for _, t := range funcTypeIdxs {
		mod.Functions = append(mod.Functions, module.FunctionDef{TypeIdx: t})
	}
	for _, exp := range mod.Exports {
		if exp.Kind == wasmtypes.ExternKindFunc && int(exp.Idx) < len(mod.Functions) {
			mod.Functions[exp.Idx].Name = exp.Name
		}
	}
}

// splitCodeEntries slices the code section's payload into one []byte per
// function body (each prefixed by its own u32 byte-size), without lowering
// them yet: lowering needs the fully assembled module (for call/global/table
// type lookups), which only exists once every preceding section is parsed.
func splitCodeEntries(br *byteReader) ([][]byte, error) {
	count, err := br.readVarU32()
	if err != nil {
		return nil, err
	}
	entries := make([][]byte, count)
	for i := range entries {
		size, err := br.readVarU32()
		if err != nil {
			return nil, err
		}
		if entries[i], err = br.readBytes(int(size)); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// lowerCode parses each code entry's locals vector and instruction stream,
// assigning the resulting ir.Function to its FunctionDef.
func lowerCode(mod *module.Module, entries [][]byte) error {
	numImportedFuncs := mod.NumImportedFunctions()
	if len(entries) != len(mod.Functions)-numImportedFuncs {
		return wasmtypes.NewDecodeError(0, "code section entry count does not match function section", nil)
	}
	for i, entry := range entries {
		funcIdx := numImportedFuncs + i
		br := newByteReader(entry)

		localCount, err := br.readVarU32()
		if err != nil {
			return err
		}
		var locals []wasmtypes.ValueType
		for j := uint32(0); j < localCount; j++ {
			n, err := br.readVarU32()
			if err != nil {
				return err
			}
			vt, err := br.readValueType()
			if err != nil {
				return err
			}
			for k := uint32(0); k < n; k++ {
				locals = append(locals, vt)
			}
		}

		sig := mod.Types[mod.Functions[funcIdx].TypeIdx]
		fn, err := parseFunctionBody(mod, mod.Types, sig, locals, br)
		if err != nil {
			return err
		}
		mod.Functions[funcIdx].Body = fn
	}
	return nil
}

package binary

import (
	"fmt"

	"github.com/fizzygo/fizzy/internal/wasm"
)

func decodeImportSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.ImportSection = make([]*wasm.Import, count)
	for i := range m.ImportSection {
		mod, err := r.readName()
		if err != nil {
			return r.fail(fmt.Errorf("read import module name: %w", err))
		}
		name, err := r.readName()
		if err != nil {
			return r.fail(fmt.Errorf("read import name: %w", err))
		}
		kind, err := r.readByte()
		if err != nil {
			return r.fail(err)
		}
		imp := &wasm.Import{Module: mod, Name: name, Kind: kind}
		switch kind {
		case wasm.ExternalKindFunc:
			idx, err := r.readVarU32()
			if err != nil {
				return r.fail(err)
			}
			imp.DescFunc = idx
		case wasm.ExternalKindTable:
			tt, err := r.readTableType()
			if err != nil {
				return r.fail(err)
			}
			imp.DescTable = tt
		case wasm.ExternalKindMemory:
			mt, err := r.readMemoryType()
			if err != nil {
				return r.fail(err)
			}
			imp.DescMemory = mt
		case wasm.ExternalKindGlobal:
			gt, err := r.readGlobalType()
			if err != nil {
				return r.fail(err)
			}
			imp.DescGlobal = gt
		default:
			return r.fail(fmt.Errorf("invalid import kind 0x%x", kind))
		}
		m.ImportSection[i] = imp
	}
	return nil
}

func decodeFunctionSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.FunctionSection = make([]uint32, count)
	for i := range m.FunctionSection {
		idx, err := r.readVarU32()
		if err != nil {
			return r.fail(err)
		}
		m.FunctionSection[i] = idx
	}
	return nil
}

func decodeGlobalSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.GlobalSection = make([]*wasm.Global, count)
	for i := range m.GlobalSection {
		gt, err := r.readGlobalType()
		if err != nil {
			return r.fail(fmt.Errorf("read global type: %w", err))
		}
		init, err := r.readConstantExpression()
		if err != nil {
			return r.fail(fmt.Errorf("read global init expr: %w", err))
		}
		m.GlobalSection[i] = &wasm.Global{Type: gt, Init: init}
	}
	return nil
}

func decodeExportSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.readName()
		if err != nil {
			return r.fail(fmt.Errorf("read export name: %w", err))
		}
		kind, err := r.readByte()
		if err != nil {
			return r.fail(err)
		}
		if kind > wasm.ExternalKindGlobal {
			return r.fail(fmt.Errorf("invalid export kind 0x%x", kind))
		}
		idx, err := r.readVarU32()
		if err != nil {
			return r.fail(err)
		}
		if _, dup := m.ExportSection[name]; dup {
			return r.fail(fmt.Errorf("duplicate export name %q", name))
		}
		m.ExportSection[name] = &wasm.Export{Name: name, Kind: kind, Index: idx}
	}
	return nil
}

func decodeStartSection(m *wasm.Module, r *reader) error {
	idx, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.StartSection = &idx
	return nil
}

func decodeElementSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.ElementSection = make([]*wasm.ElementSegment, count)
	for i := range m.ElementSection {
		tableIdx, err := r.readVarU32()
		if err != nil {
			return r.fail(err)
		}
		if tableIdx != 0 {
			return r.fail(fmt.Errorf("WebAssembly 1.0 supports only table index 0"))
		}
		offset, err := r.readConstantExpression()
		if err != nil {
			return r.fail(fmt.Errorf("read element offset expr: %w", err))
		}
		n, err := r.readVarU32()
		if err != nil {
			return r.fail(err)
		}
		init := make([]uint32, n)
		for j := range init {
			fi, err := r.readVarU32()
			if err != nil {
				return r.fail(err)
			}
			init[j] = fi
		}
		m.ElementSection[i] = &wasm.ElementSegment{TableIndex: tableIdx, Offset: offset, Init: init}
	}
	return nil
}

func decodeDataSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.DataSection = make([]*wasm.DataSegment, count)
	for i := range m.DataSection {
		memIdx, err := r.readVarU32()
		if err != nil {
			return r.fail(err)
		}
		if memIdx != 0 {
			return r.fail(fmt.Errorf("WebAssembly 1.0 supports only memory index 0"))
		}
		offset, err := r.readConstantExpression()
		if err != nil {
			return r.fail(fmt.Errorf("read data offset expr: %w", err))
		}
		n, err := r.readVarU32()
		if err != nil {
			return r.fail(err)
		}
		init, err := r.readBytes(n)
		if err != nil {
			return r.fail(err)
		}
		m.DataSection[i] = &wasm.DataSegment{MemoryIndex: memIdx, Offset: offset, Init: init}
	}
	return nil
}

func decodeCodeSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.CodeSection = make([]*wasm.Code, count)
	for i := range m.CodeSection {
		size, err := r.readVarU32()
		if err != nil {
			return r.fail(err)
		}
		body, err := r.readBytes(size)
		if err != nil {
			return r.fail(err)
		}
		code, err := decodeCodeBody(body)
		if err != nil {
			return r.fail(fmt.Errorf("function %d: %w", i, err))
		}
		m.CodeSection[i] = code
	}
	return nil
}

func decodeCodeBody(body []byte) (*wasm.Code, error) {
	cr := &reader{r: sliceReader(body)}
	localEntryCount, err := cr.readVarU32()
	if err != nil {
		return nil, fmt.Errorf("read local entry count: %w", err)
	}
	var locals []wasm.ValueType
	var numLocals uint32
	for i := uint32(0); i < localEntryCount; i++ {
		n, err := cr.readVarU32()
		if err != nil {
			return nil, fmt.Errorf("read local run length: %w", err)
		}
		t, err := cr.readValueType()
		if err != nil {
			return nil, fmt.Errorf("read local type: %w", err)
		}
		numLocals += n
		for j := uint32(0); j < n; j++ {
			locals = append(locals, t)
		}
	}
	rest := body[cr.read:]
	if len(rest) == 0 || rest[len(rest)-1] != wasm.OpcodeEnd {
		return nil, fmt.Errorf("function body must end with the end opcode")
	}
	return &wasm.Code{
		NumLocals:  numLocals,
		LocalTypes: locals,
		Body:       rest,
	}, nil
}

func decodeCustomSection(m *wasm.Module, r *reader) error {
	name, err := r.readName()
	if err != nil {
		return r.fail(fmt.Errorf("read custom section name: %w", err))
	}
	if name != "name" {
		return nil // unrecognized custom sections carry no semantic weight.
	}
	ns, err := decodeNameSection(r)
	if err != nil {
		return nil // malformed name sections are ignored, not fatal.
	}
	m.NameSection = ns
	return nil
}

func decodeNameSection(r *reader) (*wasm.NameSection, error) {
	ns := &wasm.NameSection{FunctionNames: map[uint32]string{}}
	for {
		subsectionID, err := r.readByte()
		if err != nil {
			break // EOF ends the custom section cleanly.
		}
		size, err := r.readVarU32()
		if err != nil {
			return ns, err
		}
		body, err := r.readBytes(size)
		if err != nil {
			return ns, err
		}
		sr := &reader{r: sliceReader(body)}
		switch subsectionID {
		case 0: // module name
			name, err := sr.readName()
			if err == nil {
				ns.ModuleName = name
			}
		case 1: // function names
			count, err := sr.readVarU32()
			if err != nil {
				continue
			}
			for i := uint32(0); i < count; i++ {
				idx, err := sr.readVarU32()
				if err != nil {
					break
				}
				name, err := sr.readName()
				if err != nil {
					break
				}
				ns.FunctionNames[idx] = name
			}
		}
	}
	return ns, nil
}

package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstantiateRejectsMemoryImportBelowMinimum(t *testing.T) {
	m := &Module{
		ImportSection: []*Import{{Module: "env", Name: "mem", Kind: ExternalKindMemory, DescMemory: &MemoryType{Limits: Limits{Min: 2}}}},
		ExportSection: map[string]*Export{},
	}
	FinalizeImportCounts(m)
	tooSmall := &Memory{Data: make([]byte, PageSize), Limits: Limits{Min: 1}, PagesLimit: DefaultMemoryPagesLimit}
	_, err := Instantiate(m, nil, nil, tooSmall, nil, 0)
	require.Error(t, err)
}

func TestInstantiateRejectsBothOwnedAndImportedMemory(t *testing.T) {
	max := uint32(1)
	m := &Module{
		ImportSection: []*Import{{Module: "env", Name: "mem", Kind: ExternalKindMemory, DescMemory: &MemoryType{Limits: Limits{Min: 1}}}},
		MemorySection: []*MemoryType{{Limits: Limits{Min: 1, Max: &max}}},
		ExportSection: map[string]*Export{},
	}
	FinalizeImportCounts(m)
	mem := &Memory{Data: make([]byte, PageSize), Limits: Limits{Min: 1}, PagesLimit: DefaultMemoryPagesLimit}
	_, err := Instantiate(m, nil, nil, mem, nil, 0)
	require.Error(t, err)
}

func TestInstantiateRejectsElementSegmentOutOfBounds(t *testing.T) {
	ft := &FuncType{}
	tt := &TableType{Limits: Limits{Min: 1}}
	m := &Module{
		TypeSection:    []*FuncType{ft},
		FunctionSection: []uint32{0},
		CodeSection:    []*Code{{Body: []byte{OpcodeEnd}, Preprocessed: &PreprocessedCode{}}},
		TableSection:   []*TableType{tt},
		ElementSection: []*ElementSegment{{Offset: constI32(5), Init: []uint32{0}}},
		ExportSection:  map[string]*Export{},
	}
	FinalizeImportCounts(m)
	_, err := Instantiate(m, nil, nil, nil, nil, 0)
	require.Error(t, err)
}

// constI32 builds a ConstantExpression for i32.const v, mirroring what the
// binary decoder produces.
func constI32(v int32) ConstantExpression {
	// i32.const uses a signed LEB128 immediate; values in [-64,63] fit one byte.
	return ConstantExpression{Opcode: OpcodeI32Const, Data: []byte{byte(uint32(v) & 0x7f)}}
}

func TestBuildGlobalsReferencesEarlierGlobal(t *testing.T) {
	m := &Module{
		ImportSection: []*Import{{Module: "env", Name: "base", Kind: ExternalKindGlobal, DescGlobal: &GlobalType{ValType: ValueTypeI32, Mutable: false}}},
		GlobalSection: []*Global{{Type: &GlobalType{ValType: ValueTypeI32, Mutable: false}, Init: ConstantExpression{Opcode: OpcodeGlobalGet, Data: []byte{0x00}}}},
		ExportSection: map[string]*Export{},
	}
	FinalizeImportCounts(m)
	inst := &Instance{Module: m, functionPreprocessed: map[uint32]*PreprocessedCode{}}
	err := inst.buildGlobals([]uint64{42})
	require.NoError(t, err)
	require.Equal(t, []uint64{42, 42}, inst.Globals)
}

package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsTypeMismatch(t *testing.T) {
	// (i32,i64)->i32 body: local.get 0; local.get 1; i32.add -- i32.add
	// consumes two i32s but local 1 is i64.
	ft := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI64}, Results: []ValueType{ValueTypeI32}}
	body := []byte{OpcodeLocalGet, 0x00, OpcodeLocalGet, 0x01, OpcodeI32Add, OpcodeEnd}
	m := &Module{TypeSection: []*FuncType{ft}}
	_, err := preprocessFunction(m, ft, nil, body)
	require.Error(t, err)
}

func TestValidateRejectsBranchOutOfNesting(t *testing.T) {
	// br 1 with no enclosing label at depth 1.
	ft := &FuncType{}
	body := []byte{OpcodeBr, 0x01, OpcodeEnd}
	m := &Module{TypeSection: []*FuncType{ft}}
	_, err := preprocessFunction(m, ft, nil, body)
	require.Error(t, err)
}

func TestValidateAcceptsSimpleAddBody(t *testing.T) {
	ft := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	body := []byte{OpcodeLocalGet, 0x00, OpcodeLocalGet, 0x01, OpcodeI32Add, OpcodeEnd}
	m := &Module{TypeSection: []*FuncType{ft}}
	pp, err := preprocessFunction(m, ft, nil, body)
	require.NoError(t, err)
	require.Equal(t, 1, pp.ResultArity)
}

func TestValidateRejectsGlobalSetOnImmutable(t *testing.T) {
	gt := &GlobalType{ValType: ValueTypeI32, Mutable: false}
	ft := &FuncType{}
	body := []byte{OpcodeI32Const, 0x00, OpcodeGlobalSet, 0x00, OpcodeEnd}
	m := &Module{
		TypeSection:   []*FuncType{ft},
		ImportSection: []*Import{{Module: "env", Name: "g", Kind: ExternalKindGlobal, DescGlobal: gt}},
	}
	FinalizeImportCounts(m)
	_, err := preprocessFunction(m, ft, nil, body)
	require.Error(t, err)
}

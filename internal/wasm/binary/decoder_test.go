package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fizzygo/fizzy/internal/wasm"
	"github.com/fizzygo/fizzy/internal/wasmtest"
)

func TestDecodeAddModule(t *testing.T) {
	m, err := Decode(bytes.NewReader(wasmtest.AddModule()))
	require.NoError(t, err)
	require.Len(t, m.TypeSection, 1)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, m.TypeSection[0].Params)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, m.TypeSection[0].Results)
	require.Len(t, m.FunctionSection, 1)
	require.Len(t, m.CodeSection, 1)
	exp, ok := m.ExportSection["add"]
	require.True(t, ok)
	require.Equal(t, wasm.ExternalKindFunc, exp.Kind)
	require.Equal(t, uint32(0), exp.Index)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	b := append([]byte(nil), wasmtest.AddModule()...)
	b[0] = 0xff
	_, err := Decode(bytes.NewReader(b))
	require.Error(t, err)
	var de *wasm.DecodeError
	require.ErrorAs(t, err, &de)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	b := append([]byte(nil), wasmtest.AddModule()...)
	b[4] = 0x02
	_, err := Decode(bytes.NewReader(b))
	require.Error(t, err)
}

func TestDecodeRejectsOutOfOrderSections(t *testing.T) {
	// Swap the function (id 3) and export (id 7) section order: export
	// before function violates strictly increasing non-custom section ids.
	good := wasmtest.AddModule()
	// locate: magic(8) + type section (9 bytes: id,size,7 content) = 17,
	// function section starts at 17 (4 bytes: 03 02 01 00), export section
	// starts at 21.
	funcSection := good[17:21]
	exportSection := good[21:30]
	reordered := append([]byte{}, good[:17]...)
	reordered = append(reordered, exportSection...)
	reordered = append(reordered, funcSection...)
	reordered = append(reordered, good[30:]...)
	_, err := Decode(bytes.NewReader(reordered))
	require.Error(t, err)
}

func TestDecodeLoad8Module(t *testing.T) {
	m, err := Decode(bytes.NewReader(wasmtest.Load8Module()))
	require.NoError(t, err)
	require.Len(t, m.MemorySection, 1)
	require.Equal(t, uint32(1), m.MemorySection[0].Limits.Min)
	require.Nil(t, m.MemorySection[0].Limits.Max)
}

func TestDecodeCallIncModule(t *testing.T) {
	m, err := Decode(bytes.NewReader(wasmtest.CallIncModule()))
	require.NoError(t, err)
	require.Len(t, m.ImportSection, 1)
	require.Equal(t, "env", m.ImportSection[0].Module)
	require.Equal(t, "inc", m.ImportSection[0].Name)
	require.Equal(t, wasm.ExternalKindFunc, m.ImportSection[0].Kind)
}

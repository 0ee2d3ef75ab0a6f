//go:build amd64 && cgo && !windows

// Differential conformance: run the same literal scenarios through this
// engine and through two independently-built external engines (wasmtime and
// wasmer), and require all three agree. Gated the same way the teacher gates
// its own wasmtime/wasmer benchmarks, since both are cgo-backed and only
// build on amd64 outside Windows.
package conformance

import (
	"testing"

	"github.com/bytecodealliance/wasmtime-go"
	"github.com/stretchr/testify/require"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/fizzygo/fizzy"
	"github.com/fizzygo/fizzy/api"
	"github.com/fizzygo/fizzy/internal/wasmtest"
)

func runFizzy(t *testing.T, binaryModule []byte, export string, args []api.Value) fizzy.ExecutionResult {
	t.Helper()
	mod, err := fizzy.Parse(binaryModule)
	require.NoError(t, err)
	inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
	require.NoError(t, err)
	idx, ok := mod.FindExportedFunction(export)
	require.True(t, ok)
	return inst.Execute(idx, args)
}

func runWasmtime(t *testing.T, binaryModule []byte, export string, args ...interface{}) (interface{}, bool) {
	t.Helper()
	store := wasmtime.NewStore(wasmtime.NewEngine())
	module, err := wasmtime.NewModule(store.Engine, binaryModule)
	require.NoError(t, err)
	instance, err := wasmtime.NewInstance(store, module, nil)
	require.NoError(t, err)
	fn := instance.GetFunc(store, export)
	require.NotNil(t, fn)
	res, err := fn.Call(store, args...)
	if err != nil {
		return nil, true // trapped
	}
	return res, false
}

func runWasmer(t *testing.T, binaryModule []byte, export string, args ...interface{}) (interface{}, bool) {
	t.Helper()
	store := wasmer.NewStore(wasmer.NewEngine())
	module, err := wasmer.NewModule(store, binaryModule)
	require.NoError(t, err)
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	require.NoError(t, err)
	fn, err := instance.Exports.GetFunction(export)
	require.NoError(t, err)
	res, err := fn(args...)
	if err != nil {
		return nil, true
	}
	return res, false
}

// TestAddAgreesAcrossEngines covers scenario S1 (see SPEC_FULL.md §8): three
// independently-built engines must agree add(3,4) == 7.
func TestAddAgreesAcrossEngines(t *testing.T) {
	mod := wasmtest.AddModule()

	got := runFizzy(t, mod, "add", []api.Value{3, 4})
	require.False(t, got.Trapped)
	require.EqualValues(t, 7, got.Value)

	wt, trapped := runWasmtime(t, mod, "add", int32(3), int32(4))
	require.False(t, trapped)
	require.EqualValues(t, 7, wt.(int32))

	wr, trapped := runWasmer(t, mod, "add", int32(3), int32(4))
	require.False(t, trapped)
	require.EqualValues(t, 7, wr.(int32))
}

// TestDivTrapAgreesAcrossEngines covers scenario S2: division by zero must
// trap identically in every engine, not merely in this one.
func TestDivTrapAgreesAcrossEngines(t *testing.T) {
	mod := wasmtest.DivModule()

	got := runFizzy(t, mod, "div", []api.Value{1, 0})
	require.True(t, got.Trapped)

	_, trapped := runWasmtime(t, mod, "div", int32(1), int32(0))
	require.True(t, trapped)

	_, trapped = runWasmer(t, mod, "div", int32(1), int32(0))
	require.True(t, trapped)
}

// TestGrowAgreesAcrossEngines covers scenario S6: memory.grow's returned
// previous-size-in-pages must match across engines; the -1 failure sentinel
// once the declared max is exceeded is checked for this engine only.
func TestGrowAgreesAcrossEngines(t *testing.T) {
	mod := wasmtest.GrowModule()

	got := runFizzy(t, mod, "grow", []api.Value{1})
	require.False(t, got.Trapped)
	require.EqualValues(t, 1, got.Value)

	wt, trapped := runWasmtime(t, mod, "grow", int32(1))
	require.False(t, trapped)
	require.EqualValues(t, 1, wt.(int32))

	wr, trapped := runWasmer(t, mod, "grow", int32(1))
	require.False(t, trapped)
	require.EqualValues(t, 1, wr.(int32))

	gotFail := runFizzy(t, mod, "grow", []api.Value{2})
	require.False(t, gotFail.Trapped)
	require.EqualValues(t, uint32(0xFFFFFFFF), gotFail.Value)
}

package fizzy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fizzygo/fizzy/api"
	"github.com/fizzygo/fizzy"
	"github.com/fizzygo/fizzy/internal/wasmtest"
)

// TestScenarios runs the literal end-to-end scenarios S1-S6.
func TestScenarios(t *testing.T) {
	t.Run("S1 add", func(t *testing.T) {
		mod, err := fizzy.Parse(wasmtest.AddModule())
		require.NoError(t, err)
		inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
		require.NoError(t, err)
		fn, ok := mod.FindExportedFunction("add")
		require.True(t, ok)
		res := inst.Execute(fn, []api.Value{api.EncodeI32(3), api.EncodeI32(4)})
		require.False(t, res.Trapped)
		require.True(t, res.HasValue)
		require.Equal(t, int32(7), api.DecodeI32(res.Value))
	})

	t.Run("S2 div trap", func(t *testing.T) {
		mod, err := fizzy.Parse(wasmtest.DivModule())
		require.NoError(t, err)
		inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
		require.NoError(t, err)
		fn, _ := mod.FindExportedFunction("div")
		res := inst.Execute(fn, []api.Value{api.EncodeI32(1), api.EncodeI32(0)})
		require.True(t, res.Trapped)
	})

	t.Run("S3 memory", func(t *testing.T) {
		mod, err := fizzy.Parse(wasmtest.Load8Module())
		require.NoError(t, err)
		inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
		require.NoError(t, err)
		ok := inst.Memory().WriteByte(10, 0xAB)
		require.True(t, ok)

		fn, _ := mod.FindExportedFunction("load8")
		res := inst.Execute(fn, []api.Value{api.EncodeI32(10)})
		require.False(t, res.Trapped)
		require.Equal(t, int32(171), api.DecodeI32(res.Value))

		res = inst.Execute(fn, []api.Value{api.EncodeI32(65536)})
		require.True(t, res.Trapped)
	})

	t.Run("S4 host call", func(t *testing.T) {
		mod, err := fizzy.Parse(wasmtest.CallIncModule())
		require.NoError(t, err)
		inc := fizzy.HostImport{
			FuncType: &fizzy.FuncType{Params: []fizzy.ValueType{fizzy.ValueTypeI32}, Results: []fizzy.ValueType{fizzy.ValueTypeI32}},
			Func: func(ctx api.HostContext, args []api.Value) (api.Value, bool, error) {
				return api.EncodeI32(api.DecodeI32(args[0]) + 1), true, nil
			},
		}
		inst, err := mod.ResolveInstantiate(fizzy.Imports{"env": {"inc": inc}}, fizzy.NewRuntimeConfig())
		require.NoError(t, err)
		fn, _ := mod.FindExportedFunction("callinc")
		res := inst.Execute(fn, []api.Value{api.EncodeI32(41)})
		require.False(t, res.Trapped)
		require.Equal(t, int32(42), api.DecodeI32(res.Value))
	})

	t.Run("S5 start trap", func(t *testing.T) {
		mod, err := fizzy.Parse(wasmtest.StartTrapModule())
		require.NoError(t, err)
		_, err = mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
		require.Error(t, err)
	})

	t.Run("S6 grow", func(t *testing.T) {
		mod, err := fizzy.Parse(wasmtest.GrowModule())
		require.NoError(t, err)
		inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
		require.NoError(t, err)
		fn, _ := mod.FindExportedFunction("grow")

		res := inst.Execute(fn, []api.Value{api.EncodeI32(1)})
		require.False(t, res.Trapped)
		require.Equal(t, int32(1), api.DecodeI32(res.Value))

		res = inst.Execute(fn, []api.Value{api.EncodeI32(2)})
		require.False(t, res.Trapped)
		require.Equal(t, int32(-1), api.DecodeI32(res.Value))

		require.Equal(t, uint32(2*65536), inst.MemorySize())
	})
}

// TestSelect covers the select instruction: the third operand picks between
// the first two, not the other way around.
func TestSelect(t *testing.T) {
	mod, err := fizzy.Parse(wasmtest.SelectModule())
	require.NoError(t, err)
	inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
	require.NoError(t, err)
	fn, ok := mod.FindExportedFunction("pick")
	require.True(t, ok)

	res := inst.Execute(fn, []api.Value{api.EncodeI32(11), api.EncodeI32(22), api.EncodeI32(1)})
	require.False(t, res.Trapped)
	require.Equal(t, int32(11), api.DecodeI32(res.Value))

	res = inst.Execute(fn, []api.Value{api.EncodeI32(11), api.EncodeI32(22), api.EncodeI32(0)})
	require.False(t, res.Trapped)
	require.Equal(t, int32(22), api.DecodeI32(res.Value))
}

// TestBrTable covers a 3-way br_table: three explicit targets (0, 1, 2)
// plus a default equal to 2, each case observed through the side effect it leaves in a global.
func TestBrTable(t *testing.T) {
	mod, err := fizzy.Parse(wasmtest.BrTableModule())
	require.NoError(t, err)
	inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
	require.NoError(t, err)
	run, _ := mod.FindExportedFunction("run")
	get, _ := mod.FindExportedFunction("get")

	cases := []struct {
		idx  int32
		want int32
	}{
		{0, 10},
		{1, 20},
		{2, 30},
		{99, 30}, // out of range clamps to the table's default target
	}
	for _, c := range cases {
		res := inst.Execute(run, []api.Value{api.EncodeI32(c.idx)})
		require.False(t, res.Trapped)
		res = inst.Execute(get, nil)
		require.False(t, res.Trapped)
		require.Equal(t, c.want, api.DecodeI32(res.Value), "idx=%d", c.idx)
	}
}

// TestCallIndirect covers call_indirect: a correctly-typed call through the
// table succeeds, and a call whose declared type doesn't match the table
// element's actual type traps rather than executing.
func TestCallIndirect(t *testing.T) {
	mod, err := fizzy.Parse(wasmtest.IndirectCallModule())
	require.NoError(t, err)
	inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
	require.NoError(t, err)

	callInd, ok := mod.FindExportedFunction("callInd")
	require.True(t, ok)
	res := inst.Execute(callInd, []api.Value{api.EncodeI32(3), api.EncodeI32(4), api.EncodeI32(0)})
	require.False(t, res.Trapped)
	require.Equal(t, int32(7), api.DecodeI32(res.Value))

	callBad, ok := mod.FindExportedFunction("callBad")
	require.True(t, ok)
	res = inst.Execute(callBad, []api.Value{api.EncodeI32(0)})
	require.True(t, res.Trapped)
}

// TestTruncTraps covers the trunc_f*_s/u family's defined traps: NaN and
// out-of-range inputs must trap rather than wrap or saturate.
func TestTruncTraps(t *testing.T) {
	// type (f64)->i32, body: local.get 0; i32.trunc_f64_s; end.
	b := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7c, 0x01, 0x7f, // type: (f64)->i32
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x09, 0x01, 0x05, 't', 'r', 'u', 'n', 'c', 0x00, 0x00,
		0x0a, 0x07, 0x01, 0x05, 0x00, 0x20, 0x00, 0xaa, 0x0b, // local.get 0; i32.trunc_f64_s; end
	}
	mod, err := fizzy.Parse(b)
	require.NoError(t, err)
	inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
	require.NoError(t, err)
	fn, ok := mod.FindExportedFunction("trunc")
	require.True(t, ok)

	res := inst.Execute(fn, []api.Value{api.EncodeF64(3.9)})
	require.False(t, res.Trapped)
	require.Equal(t, int32(3), api.DecodeI32(res.Value))

	res = inst.Execute(fn, []api.Value{api.EncodeF64(math.NaN())})
	require.True(t, res.Trapped)

	res = inst.Execute(fn, []api.Value{api.EncodeF64(1e18)})
	require.True(t, res.Trapped)
}

// TestValidateIffParse establishes property 1: validate(b) == true iff
// parse(b) succeeds.
func TestValidateIffParse(t *testing.T) {
	good := wasmtest.AddModule()
	_, err := fizzy.Parse(good)
	require.NoError(t, err)

	bad := append([]byte(nil), good...)
	bad[0] = 0xff // corrupt the magic
	_, err = fizzy.Parse(bad)
	require.Error(t, err)
}

// TestStackDepthBound establishes property 7: a self-recursive function
// traps with stack exhaustion rather than crashing the host.
func TestStackDepthBound(t *testing.T) {
	// type ()->(); function 0 body: call 0; end (infinite self-recursion).
	b := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x08, 0x01, 0x04, 'l', 'o', 'o', 'p', 0x00, 0x00,
		0x0a, 0x06, 0x01, 0x04, 0x00, 0x10, 0x00, 0x0b,
	}
	mod, err := fizzy.Parse(b)
	require.NoError(t, err)
	inst, err := mod.ResolveInstantiate(nil, fizzy.NewRuntimeConfig())
	require.NoError(t, err)
	fn, _ := mod.FindExportedFunction("loop")
	res := inst.Execute(fn, nil)
	require.True(t, res.Trapped)
}

// TestImportOrdering establishes property 8: resolving named imports does
// not depend on the order they are supplied in, since ResolveInstantiate
// always walks the module's own import section and looks imports up by
// name.
func TestImportOrdering(t *testing.T) {
	mod, err := fizzy.Parse(wasmtest.CallIncModule())
	require.NoError(t, err)
	inc := fizzy.HostImport{
		FuncType: &fizzy.FuncType{Params: []fizzy.ValueType{fizzy.ValueTypeI32}, Results: []fizzy.ValueType{fizzy.ValueTypeI32}},
		Func: func(ctx api.HostContext, args []api.Value) (api.Value, bool, error) {
			return api.EncodeI32(api.DecodeI32(args[0]) + 1), true, nil
		},
	}
	// A map has no meaningful "order" in Go, but constructing it from two
	// different literal orderings still produces the same instance behavior.
	imports1 := fizzy.Imports{"env": {"inc": inc}}
	imports2 := fizzy.Imports{}
	imports2["env"] = fizzy.HostModule{}
	imports2["env"]["inc"] = inc

	for _, imports := range []fizzy.Imports{imports1, imports2} {
		inst, err := mod.ResolveInstantiate(imports, fizzy.NewRuntimeConfig())
		require.NoError(t, err)
		fn, _ := mod.FindExportedFunction("callinc")
		res := inst.Execute(fn, []api.Value{api.EncodeI32(41)})
		require.Equal(t, int32(42), api.DecodeI32(res.Value))
	}
}

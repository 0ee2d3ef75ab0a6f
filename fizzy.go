// Package fizzy is a WebAssembly 1.0 interpreter: decode and validate a
// binary module, instantiate it against host-provided imports, and execute
// its functions. The API is a Go-idiomatic rendering of the Fizzy C ABI --
// Parse/Validate collapse into one step, FreeModule/FreeInstance collapse
// into the garbage collector, and traps surface as ExecutionResult rather
// than as a side channel -- but the four operations (parse, instantiate,
// look up an export, execute) are the same four FizzyModule/FizzyInstance
// covers.
package fizzy

import (
	"bytes"
	"context"

	"github.com/fizzygo/fizzy/api"
	"github.com/fizzygo/fizzy/internal/interpreter"
	"github.com/fizzygo/fizzy/internal/wasm"
	"github.com/fizzygo/fizzy/internal/wasm/binary"
)

// ValueType names one of the four WebAssembly 1.0 value types.
type ValueType = wasm.ValueType

const (
	ValueTypeI32 = wasm.ValueTypeI32
	ValueTypeI64 = wasm.ValueTypeI64
	ValueTypeF32 = wasm.ValueTypeF32
	ValueTypeF64 = wasm.ValueTypeF64
)

// FuncType is a function signature: an ordered list of parameter types
// followed by an ordered list of result types (at most one, in Wasm 1.0).
type FuncType = wasm.FuncType

// Module is a decoded and validated WebAssembly binary, ready to
// instantiate any number of times. It holds no mutable state of its own.
type Module struct {
	m *wasm.Module
}

// Parse decodes and validates a WebAssembly 1.0 binary module. A non-nil
// error is either a *wasm.DecodeError (malformed or invalid binary) or a
// validation error, both of which satisfy the standard errors.Unwrap chain
// back to the underlying cause.
func Parse(binaryModule []byte) (*Module, error) {
	m, err := binary.Decode(bytes.NewReader(binaryModule))
	if err != nil {
		return nil, err
	}
	if err := wasm.Validate(m); err != nil {
		return nil, err
	}
	return &Module{m: m}, nil
}

// Close releases any resources held by the module. It is a no-op under Go's
// garbage collector; it exists so callers translating from the C ABI this
// library mirrors have a natural place to put a paired fizzy_free_module.
func (mod *Module) Close() {}

// GetFunctionType returns the signature of the funcIdx-th function in the
// combined (imported + locally defined) function index space, or nil if
// funcIdx is out of range.
func (mod *Module) GetFunctionType(funcIdx uint32) *FuncType {
	return mod.m.TypeOfFunction(funcIdx)
}

// FindExportedFunction returns the function index exported under name.
func (mod *Module) FindExportedFunction(name string) (uint32, bool) {
	return mod.m.FindExportedFunction(name)
}

// ImportedFunctionCount returns how many function imports mod declares, the
// size of the function index space's imported prefix.
func (mod *Module) ImportedFunctionCount() uint32 { return mod.m.ImportedFunctionCount() }

// HostModule is one named collection of host-provided imports, the unit
// ResolveInstantiate matches a module's "module name" against.
type HostModule map[string]HostImport

// HostImport is a single named import an embedder supplies: exactly one of
// Func, Table, Memory or Global must be set.
type HostImport struct {
	FuncType *FuncType // required alongside Func
	Func     api.HostFunction

	Table  *Table
	Memory *Memory

	Global      *Global
	GlobalValue api.Value
}

// Imports groups HostModules by module name, the shape ResolveInstantiate
// matches a parsed module's import section against.
type Imports map[string]HostModule

// Global describes an importable global's type; Wasm 1.0 only allows
// immutable globals to cross an instance boundary.
type Global struct {
	ValType ValueType
	Mutable bool
}

// ResolveInstantiate instantiates mod, resolving each of its declared
// imports by (module name, import name) against imports, and allocates its
// memory/table/globals per config. It runs mod's start function, if any,
// and reports a trap there as an *InstantiateError whose Reason says the
// start function trapped (its Err is nil).
func (mod *Module) ResolveInstantiate(imports Imports, config RuntimeConfig) (*Instance, error) {
	obj := wasm.ImportObject{}
	for modName, hm := range imports {
		byName := map[string]wasm.ResolvedImport{}
		for name, hi := range hm {
			switch {
			case hi.Func != nil:
				ef := asExternalFunction(hi.FuncType, hi.Func)
				byName[name] = wasm.ResolvedImport{Function: &ef}
			case hi.Table != nil:
				byName[name] = wasm.ResolvedImport{Table: hi.Table.t}
			case hi.Memory != nil:
				byName[name] = wasm.ResolvedImport{Memory: hi.Memory.m}
			case hi.Global != nil:
				byName[name] = wasm.ResolvedImport{Global: &wasm.ImportedGlobal{
					Type:  &wasm.GlobalType{ValType: hi.Global.ValType, Mutable: hi.Global.Mutable},
					Value: uint64(hi.GlobalValue),
				}}
			}
		}
		obj[modName] = byName
	}
	inst, err := wasm.ResolveInstantiate(mod.m, obj, config.memoryPagesLimit)
	if err != nil {
		return nil, err
	}
	return &Instance{i: inst, ctx: config.context()}, nil
}

// PositionalImports supplies a module's imports by declaration order rather
// than by name, mirroring fizzy_instantiate's lower-level counterpart to
// fizzy_resolve_instantiate.
type PositionalImports struct {
	Functions []ExternalFunc
	Table     *Table
	Memory    *Memory
	Globals   []api.Value
}

// ExternalFunc pairs a host function with the signature it is declared
// under, for PositionalImports.Functions.
type ExternalFunc struct {
	Type *FuncType
	Func api.HostFunction
}

// Instantiate links mod against already positionally-ordered imports. Most
// callers want ResolveInstantiate instead; this is exposed for embedders
// that already track imports by index rather than by name.
func (mod *Module) Instantiate(imports PositionalImports, config RuntimeConfig) (*Instance, error) {
	functions := make([]wasm.ExternalFunction, len(imports.Functions))
	for i, f := range imports.Functions {
		functions[i] = asExternalFunction(f.Type, f.Func)
	}
	globals := make([]uint64, len(imports.Globals))
	for i, g := range imports.Globals {
		globals[i] = uint64(g)
	}
	var table *wasm.Table
	if imports.Table != nil {
		table = imports.Table.t
	}
	var memory *wasm.Memory
	if imports.Memory != nil {
		memory = imports.Memory.m
	}
	inst, err := wasm.Instantiate(mod.m, functions, table, memory, globals, config.memoryPagesLimit)
	if err != nil {
		return nil, err
	}
	return &Instance{i: inst, ctx: config.context()}, nil
}

// Table is a linear-memory-like store of function references. An embedder
// can build one to supply as a table import.
type Table struct{ t *wasm.Table }

// Memory is an instance's (or a standalone, importable) linear memory.
type Memory struct{ m *wasm.Memory }

// Instance is a module that has been linked against its imports, with its
// own memory/table/globals allocated.
type Instance struct {
	i   *wasm.Instance
	ctx context.Context
}

// Close releases any resources held by the instance; a no-op under Go's
// garbage collector, present for the same reason Module.Close is.
func (inst *Instance) Close() {}

// Module returns the Module this instance was created from.
func (inst *Instance) Module() *Module { return &Module{m: inst.i.Module} }

// Memory returns the instance's linear memory view, or nil if it has none.
func (inst *Instance) Memory() api.Memory {
	if inst.i.Memory == nil {
		return nil
	}
	return instanceMemory{m: inst.i.Memory}
}

// MemorySize returns the instance's linear memory size, in bytes, or 0 if
// it has no memory.
func (inst *Instance) MemorySize() uint32 {
	if inst.i.Memory == nil {
		return 0
	}
	return uint32(len(inst.i.Memory.Data))
}

// ExecutionResult is the outcome of Execute: either a trap, or a normal
// return optionally carrying one result value.
type ExecutionResult struct {
	Trapped  bool
	HasValue bool
	Value    api.Value
}

// Execute invokes the funcIdx-th function of the instance with args (one
// api.Value per the function's declared Params, in order) and runs it to
// completion or a trap.
func (inst *Instance) Execute(funcIdx uint32, args []api.Value) ExecutionResult {
	raw := make([]uint64, len(args))
	for i, a := range args {
		raw[i] = uint64(a)
	}
	res := interpreter.Execute(inst.ctx, inst.i, funcIdx, raw)
	return ExecutionResult{Trapped: res.Trapped, HasValue: res.HasValue, Value: api.Value(res.Value)}
}

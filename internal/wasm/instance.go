package wasm

import "fmt"

// ExecutionResult is the outcome of calling a function, whether a Wasm
// function or a host-provided ExternalFunction. A trap is a value here, not
// a Go error or panic that crosses the call boundary -- matching how Wasm
// itself treats traps as a control outcome distinct from both a normal
// return and a host-level failure.
type ExecutionResult struct {
	Trapped  bool
	HasValue bool
	Value    uint64
}

// Trap builds a trapped result. It takes no reason: ExecutionResult carries
// no error, matching the C ABI this is modeled on, so callers that need the
// reason for logging keep it themselves.
func Trap() ExecutionResult { return ExecutionResult{Trapped: true} }

// ExternalFunction is a host-implemented function importable by a module.
// Function receives the already-decoded argument values (one uint64 per
// FuncType.Params entry, in the universal stack representation -- i32/f32
// zero-extended into the low bits, i64/f64 filling all 64) and the nesting
// depth of the call, so a host function that itself calls back into the
// instance can be rejected once CallStackCeiling is reached.
type ExternalFunction struct {
	Type     *FuncType
	Function func(instance *Instance, args []uint64, depth int) ExecutionResult
}

// TableElement is one slot of a table: either empty (nil Type) or a
// reference to a function in some instance's function index space. Indirect
// calls type-check against Type before invoking FuncIdx in Instance.
type TableElement struct {
	Instance *Instance
	FuncIdx  uint32
	Type     *FuncType
}

// Table is linear storage for funcref elements, owned by exactly one
// instance (own Table) or shared by reference (imported Table).
type Table struct {
	Elements []TableElement
	Limits   Limits
}

// Memory is an instance's linear memory, grown in units of PageSize and
// never exceeding PagesLimit (the smaller of the declared Limits.Max, if
// any, and the embedder-supplied cap).
type Memory struct {
	Data       []byte
	Limits     Limits
	PagesLimit uint32
}

// Grow attempts to grow memory by delta pages, returning the previous size
// in pages, or ok=false if the growth would exceed the memory's maximum or
// its pages limit (memory.grow reports this as -1, never a trap).
func (m *Memory) Grow(delta uint32) (previousPages uint32, ok bool) {
	previousPages = uint32(len(m.Data)) / PageSize
	newPages := previousPages + delta
	if newPages < previousPages { // overflow
		return previousPages, false
	}
	if newPages > m.PagesLimit {
		return previousPages, false
	}
	if m.Limits.Max != nil && newPages > *m.Limits.Max {
		return previousPages, false
	}
	grown := make([]byte, newPages*PageSize)
	copy(grown, m.Data)
	m.Data = grown
	return previousPages, true
}

func (m *Memory) SizePages() uint32 { return uint32(len(m.Data)) / PageSize }

// Instance is a module that has been linked against its imports and had its
// mutable state (memory, table, globals) allocated. It is produced once by
// Instantiate/ResolveInstantiate and is not safe for concurrent Execute
// calls against the same instance without external synchronization -- the
// operand stack lives on the Go call stack per Execute invocation, but
// globals, table and memory are shared mutable state.
type Instance struct {
	Module *Module

	Memory      *Memory
	MemoryOwned bool

	Table      *Table
	TableOwned bool

	// Globals holds every global's current value (imported then local, in
	// that index order), in the universal uint64 representation.
	Globals []uint64

	// ImportedFunctions holds the resolved external functions, indexed the
	// same way as the function index space's imported prefix.
	ImportedFunctions []ExternalFunction

	// functionPreprocessed is not filled by instantiation; Preprocessed
	// reads each function's PreprocessedCode from Module.CodeSection instead.
	functionPreprocessed map[uint32]*PreprocessedCode
}

// GlobalType returns the type of the funcIdx-th... rather, idx-th global in
// the combined (imported + local) global index space.
func (inst *Instance) GlobalType(idx uint32) *GlobalType { return globalTypeOf(inst.Module, idx) }

// FunctionType returns the signature of the idx-th function in the combined
// function index space.
func (inst *Instance) FunctionType(idx uint32) *FuncType { return inst.Module.TypeOfFunction(idx) }

// Preprocessed returns the preprocessed body of a locally-defined function,
// or nil if idx names an imported function.
func (inst *Instance) Preprocessed(idx uint32) *PreprocessedCode {
	if idx < inst.Module.ImportedFunctionCount() {
		return nil
	}
	return inst.Module.CodeSection[idx-inst.Module.ImportedFunctionCount()].Preprocessed
}

// ResolvedImport is one resolved host-provided import, tagged by kind so
// ResolveInstantiate can match it against the module's declared import
// order regardless of which Go type backs it.
type ResolvedImport struct {
	Function *ExternalFunction
	Table    *Table
	Memory   *Memory
	Global   *ImportedGlobal
}

// ImportedGlobal is a global supplied by the embedder or another instance.
// Wasm 1.0 permits only immutable globals to cross an instance boundary, so
// there is no need to share a pointer back to the defining instance: the
// value is copied in at instantiation time.
type ImportedGlobal struct {
	Type  *GlobalType
	Value uint64
}

// ImportObject groups resolved imports by module name and then import name,
// the shape ResolveInstantiate matches against a module's import section.
type ImportObject map[string]map[string]ResolvedImport

// Instantiate links module against already-positionally-resolved imports
// and allocates its memory, table and globals. importedFunctions,
// importedGlobals must be supplied in declaration order for their kind;
// importedTable/importedMemory are nil unless module imports one.
//
// This is the low-level operation the C ABI this package is modeled on
// calls fizzy_instantiate: the caller has already matched imports by name
// (see ResolveInstantiate for that step) and hands over ownership of
// exactly the external state the module doesn't allocate itself.
func Instantiate(
	module *Module,
	importedFunctions []ExternalFunction,
	importedTable *Table,
	importedMemory *Memory,
	importedGlobals []uint64,
	memoryPagesLimit uint32,
) (*Instance, error) {
	if uint32(len(importedFunctions)) != module.ImportedFunctionCount() {
		return nil, &InstantiateError{Reason: "imported function count mismatch"}
	}
	if uint32(len(importedGlobals)) != module.ImportedGlobalCount() {
		return nil, &InstantiateError{Reason: "imported global count mismatch"}
	}
	for i, ef := range importedFunctions {
		want := module.TypeOfFunction(uint32(i))
		if !ef.Type.EqualsSignature(want.Params, want.Results) {
			return nil, &InstantiateError{Reason: fmt.Sprintf("imported function %d signature mismatch", i)}
		}
	}

	inst := &Instance{Module: module, ImportedFunctions: importedFunctions, functionPreprocessed: map[uint32]*PreprocessedCode{}}

	if err := inst.allocateMemory(importedMemory, memoryPagesLimit); err != nil {
		return nil, err
	}
	if err := inst.allocateTable(importedTable); err != nil {
		return nil, err
	}
	if err := inst.buildGlobals(importedGlobals); err != nil {
		return nil, err
	}
	if err := inst.installElements(); err != nil {
		return nil, err
	}
	if err := inst.installData(); err != nil {
		return nil, err
	}
	if trap, err := inst.runStartFunction(); err != nil {
		return nil, err
	} else if trap {
		return nil, &InstantiateError{Reason: "start function trapped"}
	}
	return inst, nil
}

// ResolveInstantiate matches module's import section against imports by
// (module name, import name) and then instantiates. This is the operation
// the C ABI calls fizzy_resolve_instantiate: most embedders have a set of
// named host functions/memories/tables/globals rather than a positional
// list, and want the library to do the lookup.
func ResolveInstantiate(module *Module, imports ImportObject, memoryPagesLimit uint32) (*Instance, error) {
	var functions []ExternalFunction
	var globals []uint64
	var table *Table
	var memory *Memory

	for _, imp := range module.ImportSection {
		byName, ok := imports[imp.Module]
		if !ok {
			return nil, &InstantiateError{Reason: fmt.Sprintf("unresolved import module %q", imp.Module)}
		}
		resolved, ok := byName[imp.Name]
		if !ok {
			return nil, &InstantiateError{Reason: fmt.Sprintf("unresolved import %q.%q", imp.Module, imp.Name)}
		}
		switch imp.Kind {
		case ExternalKindFunc:
			if resolved.Function == nil {
				return nil, &InstantiateError{Reason: fmt.Sprintf("import %q.%q is not a function", imp.Module, imp.Name)}
			}
			functions = append(functions, *resolved.Function)
		case ExternalKindTable:
			if resolved.Table == nil {
				return nil, &InstantiateError{Reason: fmt.Sprintf("import %q.%q is not a table", imp.Module, imp.Name)}
			}
			table = resolved.Table
		case ExternalKindMemory:
			if resolved.Memory == nil {
				return nil, &InstantiateError{Reason: fmt.Sprintf("import %q.%q is not a memory", imp.Module, imp.Name)}
			}
			memory = resolved.Memory
		case ExternalKindGlobal:
			if resolved.Global == nil {
				return nil, &InstantiateError{Reason: fmt.Sprintf("import %q.%q is not a global", imp.Module, imp.Name)}
			}
			if resolved.Global.Type.Mutable != imp.DescGlobal.Mutable || resolved.Global.Type.ValType != imp.DescGlobal.ValType {
				return nil, &InstantiateError{Reason: fmt.Sprintf("import %q.%q global type mismatch", imp.Module, imp.Name)}
			}
			globals = append(globals, resolved.Global.Value)
		}
	}
	return Instantiate(module, functions, table, memory, globals, memoryPagesLimit)
}

func (inst *Instance) allocateMemory(imported *Memory, pagesLimit uint32) error {
	if pagesLimit == 0 {
		pagesLimit = DefaultMemoryPagesLimit
	}
	hasOwn := len(inst.Module.MemorySection) == 1
	hasImport := inst.Module.ImportedMemoryCount() == 1
	switch {
	case hasOwn && hasImport:
		return &InstantiateError{Reason: "module both imports and defines a memory"}
	case hasOwn:
		mt := inst.Module.MemorySection[0]
		limit := mt.Limits.Max
		if limit == nil || *limit > pagesLimit {
			limit = &pagesLimit
		}
		inst.Memory = &Memory{Data: make([]byte, mt.Limits.Min*PageSize), Limits: mt.Limits, PagesLimit: *limit}
		inst.MemoryOwned = true
	case hasImport:
		if imported == nil {
			return &InstantiateError{Reason: "memory import not supplied"}
		}
		declared := inst.Module.findImportedMemoryType()
		if err := checkLimitsCompatible(declared.Limits, imported.Limits); err != nil {
			return &InstantiateError{Reason: "memory import", Err: err}
		}
		inst.Memory = imported
		inst.MemoryOwned = false
	}
	return nil
}

// checkLimitsCompatible enforces the import matching rule: a supplied
// import must be at least as large as declared, and if the module declares
// a maximum, the import must declare one no larger.
func checkLimitsCompatible(declared, supplied Limits) error {
	if supplied.Min < declared.Min {
		return fmt.Errorf("supplied min %d below declared min %d", supplied.Min, declared.Min)
	}
	if declared.Max != nil {
		if supplied.Max == nil || *supplied.Max > *declared.Max {
			return fmt.Errorf("supplied max exceeds declared max %d", *declared.Max)
		}
	}
	return nil
}

func (inst *Instance) allocateTable(imported *Table) error {
	hasOwn := len(inst.Module.TableSection) == 1
	hasImport := inst.Module.ImportedTableCount() == 1
	switch {
	case hasOwn && hasImport:
		return &InstantiateError{Reason: "module both imports and defines a table"}
	case hasOwn:
		tt := inst.Module.TableSection[0]
		inst.Table = &Table{Elements: make([]TableElement, tt.Limits.Min), Limits: tt.Limits}
		inst.TableOwned = true
	case hasImport:
		if imported == nil {
			return &InstantiateError{Reason: "table import not supplied"}
		}
		declared := inst.Module.findImportedTableType()
		if err := checkLimitsCompatible(declared.Limits, imported.Limits); err != nil {
			return &InstantiateError{Reason: "table import", Err: err}
		}
		inst.Table = imported
		inst.TableOwned = false
	}
	return nil
}

func (inst *Instance) buildGlobals(importedValues []uint64) error {
	inst.Globals = make([]uint64, 0, len(importedValues)+len(inst.Module.GlobalSection))
	inst.Globals = append(inst.Globals, importedValues...)
	for _, g := range inst.Module.GlobalSection {
		v, err := g.Init.Eval(func(idx uint32) uint64 { return inst.Globals[idx] })
		if err != nil {
			return &InstantiateError{Reason: "global initializer", Err: err}
		}
		inst.Globals = append(inst.Globals, v)
	}
	return nil
}

func (inst *Instance) installElements() error {
	if len(inst.Module.ElementSection) == 0 {
		return nil
	}
	type write struct {
		at   uint32
		fidx uint32
	}
	var writes []write
	for _, es := range inst.Module.ElementSection {
		offset, err := es.Offset.Eval(func(idx uint32) uint64 { return inst.Globals[idx] })
		if err != nil {
			return &InstantiateError{Reason: "element offset", Err: err}
		}
		off := uint32(offset)
		if uint64(off)+uint64(len(es.Init)) > uint64(len(inst.Table.Elements)) {
			return &InstantiateError{Reason: "element segment out of table bounds"}
		}
		for i, fidx := range es.Init {
			writes = append(writes, write{at: off + uint32(i), fidx: fidx})
		}
	}
	// All segments are bounds-checked above before any write touches the
	// table, so a failing segment never leaves a partially-initialized table.
	for _, w := range writes {
		ft := inst.Module.TypeOfFunction(w.fidx)
		inst.Table.Elements[w.at] = TableElement{Instance: inst, FuncIdx: w.fidx, Type: ft}
	}
	return nil
}

func (inst *Instance) installData() error {
	if len(inst.Module.DataSection) == 0 {
		return nil
	}
	type write struct {
		at   uint32
		data []byte
	}
	var writes []write
	for _, ds := range inst.Module.DataSection {
		offset, err := ds.Offset.Eval(func(idx uint32) uint64 { return inst.Globals[idx] })
		if err != nil {
			return &InstantiateError{Reason: "data offset", Err: err}
		}
		off := uint32(offset)
		if uint64(off)+uint64(len(ds.Init)) > uint64(len(inst.Memory.Data)) {
			return &InstantiateError{Reason: "data segment out of memory bounds"}
		}
		writes = append(writes, write{at: off, data: ds.Init})
	}
	for _, w := range writes {
		copy(inst.Memory.Data[w.at:], w.data)
	}
	return nil
}

// startExecutor is the hook runStartFunction calls, populated by the
// interpreter package via SetExecutor, since running Wasm code is the
// interpreter's job, not the instantiator's -- Instance itself only owns
// state, not execution.
var startExecutor func(inst *Instance, funcIdx uint32) ExecutionResult

// SetExecutor installs the function used to invoke the start function
// during Instantiate. The interpreter package installs it from its own
// init function; tests that never exercise a start section never need it.
func SetExecutor(f func(inst *Instance, funcIdx uint32) ExecutionResult) { startExecutor = f }

func (inst *Instance) runStartFunction() (trapped bool, err error) {
	if inst.Module.StartSection == nil {
		return false, nil
	}
	if startExecutor == nil {
		return false, &InstantiateError{Reason: "no executor installed for start function"}
	}
	result := startExecutor(inst, *inst.Module.StartSection)
	return result.Trapped, nil
}

package wasm

// Module is the frozen, structurally validated representation of a decoded
// WebAssembly 1.0 binary. It never changes after Parse returns it, and it is
// safe to share across goroutines and across many Instantiate calls -- right
// up until the point one of them consumes it.
//
// See https://www.w3.org/TR/wasm-core-1/#modules%E2%91%A0
type Module struct {
	TypeSection   []*FuncType
	ImportSection []*Import

	// FunctionSection maps a function index (after imported functions) to an
	// index into TypeSection.
	FunctionSection []uint32
	CodeSection     []*Code

	TableSection  []*TableType  // at most one entry; Wasm 1.0 allows a single table.
	MemorySection []*MemoryType // at most one entry.
	GlobalSection []*Global

	ExportSection map[string]*Export
	StartSection  *uint32

	ElementSection []*ElementSegment
	DataSection    []*DataSegment

	// NameSection is the optional custom "name" section; nil if absent or
	// malformed (it carries no semantic weight, so a bad name section never
	// fails parsing).
	NameSection *NameSection

	// importedFunctionCount, importedGlobalCount etc. are cached by
	// FinalizeImportCounts when the binary is decoded, so instantiation and introspection don't need to re-scan
	// ImportSection on every call.
	importedFunctionCount uint32
	importedGlobalCount   uint32
	importedTableCount    uint32
	importedMemoryCount   uint32
}

// FuncType is the signature of a function: an ordered list of parameter
// types followed by an ordered list of result types. Wasm 1.0 permits at
// most one result.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// EqualsSignature reports whether two function types describe the same
// parameter and result shape, which is all that call_indirect and import
// matching require -- FuncType carries no identity beyond its shape.
func (t *FuncType) EqualsSignature(params, results []ValueType) bool {
	return valueTypesEqual(t.Params, params) && valueTypesEqual(t.Results, results)
}

func valueTypesEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Limits constrains the size of a table or memory.
// See https://www.w3.org/TR/wasm-core-1/#limits%E2%91%A0
type Limits struct {
	Min uint32
	Max *uint32 // nil means unbounded (up to the implementation's hard cap).
}

// TableType is the only table shape Wasm 1.0 defines: a vector of funcref.
type TableType struct {
	Limits Limits
}

// MemoryType describes linear memory sizing, in units of Page (64KiB).
type MemoryType struct {
	Limits Limits
}

// GlobalType describes the value type and mutability of a global variable.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Import describes one entry of the import section. Exactly one of the
// Func/Table/Memory/Global fields is populated, as indicated by Kind.
type Import struct {
	Module, Name string
	Kind         ExternalKind

	DescFunc   uint32 // index into Module.TypeSection
	DescTable  *TableType
	DescMemory *MemoryType
	DescGlobal *GlobalType
}

// Global is a module-defined (non-imported) global variable with a constant
// initializer expression.
type Global struct {
	Type *GlobalType
	Init ConstantExpression
}

// Export describes one entry of the export section, naming an index in one
// of the four index spaces.
type Export struct {
	Name  string
	Kind  ExternalKind
	Index uint32
}

// ElementSegment initializes a contiguous run of table entries with function
// indices, active at instantiation time.
type ElementSegment struct {
	TableIndex uint32 // always 0 in Wasm 1.0.
	Offset     ConstantExpression
	Init       []uint32 // function indices.
}

// DataSegment initializes a contiguous run of linear memory bytes, active at
// instantiation time.
type DataSegment struct {
	MemoryIndex uint32 // always 0 in Wasm 1.0.
	Offset      ConstantExpression
	Init        []byte
}

// ConstantExpression is a restricted expression usable only as a global
// initializer or segment offset: a single const instruction, or a
// global.get of an imported immutable global.
type ConstantExpression struct {
	Opcode Opcode
	// Data is the LEB128/IEEE-754 encoded immediate operand, interpreted
	// according to Opcode.
	Data []byte
}

// Code is the per-function body: declared locals plus the preprocessed
// instruction stream produced during Parse. Interpreters never re-validate
// or re-scan this; Preprocessed carries everything needed to execute.
type Code struct {
	NumLocals  uint32
	LocalTypes []ValueType
	Body       []byte

	// Preprocessed is filled in by the validator; nil for host-imported
	// functions which have no Wasm body.
	Preprocessed *PreprocessedCode
}

// NameSection is the decoded custom "name" subsection used only for
// diagnostics; it never affects execution semantics.
type NameSection struct {
	ModuleName    string
	FunctionNames map[uint32]string
}

// FinalizeImportCounts recomputes the cached per-kind import counts from
// ImportSection. The binary decoder calls this once after reading the
// import section; nothing else needs to.
func FinalizeImportCounts(m *Module) {
	m.importedFunctionCount, m.importedTableCount, m.importedMemoryCount, m.importedGlobalCount = 0, 0, 0, 0
	for _, imp := range m.ImportSection {
		switch imp.Kind {
		case ExternalKindFunc:
			m.importedFunctionCount++
		case ExternalKindTable:
			m.importedTableCount++
		case ExternalKindMemory:
			m.importedMemoryCount++
		case ExternalKindGlobal:
			m.importedGlobalCount++
		}
	}
}

// ImportedFunctionCount returns the number of function imports, i.e. the
// size of the function index space occupied by imports before any
// locally-defined function.
func (m *Module) ImportedFunctionCount() uint32 { return m.importedFunctionCount }

// ImportedGlobalCount mirrors ImportedFunctionCount for the global index space.
func (m *Module) ImportedGlobalCount() uint32 { return m.importedGlobalCount }

// ImportedTableCount mirrors ImportedFunctionCount for the table index space.
func (m *Module) ImportedTableCount() uint32 { return m.importedTableCount }

// ImportedMemoryCount mirrors ImportedFunctionCount for the memory index space.
func (m *Module) ImportedMemoryCount() uint32 { return m.importedMemoryCount }

// TypeOfFunction returns the FuncType of the funcIdx-th function, whether
// imported or locally defined, or nil if funcIdx is out of range.
func (m *Module) TypeOfFunction(funcIdx uint32) *FuncType {
	if funcIdx < m.importedFunctionCount {
		var seen uint32
		for _, imp := range m.ImportSection {
			if imp.Kind != ExternalKindFunc {
				continue
			}
			if seen == funcIdx {
				return m.TypeSection[imp.DescFunc]
			}
			seen++
		}
		return nil
	}
	idx := funcIdx - m.importedFunctionCount
	if idx >= uint32(len(m.FunctionSection)) {
		return nil
	}
	return m.TypeSection[m.FunctionSection[idx]]
}

// findImportedMemoryType returns the descriptor of the module's memory
// import, if it has one.
func (m *Module) findImportedMemoryType() *MemoryType {
	for _, imp := range m.ImportSection {
		if imp.Kind == ExternalKindMemory {
			return imp.DescMemory
		}
	}
	return &MemoryType{}
}

// findImportedTableType returns the descriptor of the module's table
// import, if it has one.
func (m *Module) findImportedTableType() *TableType {
	for _, imp := range m.ImportSection {
		if imp.Kind == ExternalKindTable {
			return imp.DescTable
		}
	}
	return &TableType{}
}

// FindExportedFunction returns the function index exported under name, and
// true if it exists and is a function export.
func (m *Module) FindExportedFunction(name string) (uint32, bool) {
	exp, ok := m.ExportSection[name]
	if !ok || exp.Kind != ExternalKindFunc {
		return 0, false
	}
	return exp.Index, true
}

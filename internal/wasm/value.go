package wasm

// ValueType is the binary encoding of one of the four WebAssembly 1.0 (MVP)
// number types.
// See https://www.w3.org/TR/wasm-core-1/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the Text Format name of a ValueType, or "unknown" for
// an undefined value.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return "unknown"
}

// PageSize is the number of bytes in a single unit of linear memory growth.
// See https://www.w3.org/TR/wasm-core-1/#page-size
const PageSize = uint32(65536)

// MaxPages is the largest number of pages addressable by a 32-bit offset.
const MaxPages = uint32(65536)

// DefaultMemoryPagesLimit bounds memory growth for modules that declare no
// maximum, absent an embedder-supplied override.
const DefaultMemoryPagesLimit = MaxPages

// CallStackCeiling is the maximum depth of nested function calls within one
// Execute invocation before a function call traps with ErrRuntimeCallStackOverflow instead of recursing
// further into the host stack.
const CallStackCeiling = 2048

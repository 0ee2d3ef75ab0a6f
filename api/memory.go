package api

// Memory is the view of an instance's linear memory exposed to host
// functions: bounds-checked reads and writes, with no notion of growth
// (only Wasm code grows memory, via memory.grow).
type Memory interface {
	Size() uint32
	ReadByte(offset uint32) (byte, bool)
	WriteByte(offset uint32, v byte) bool
	ReadUint32Le(offset uint32) (uint32, bool)
	WriteUint32Le(offset uint32, v uint32) bool
	ReadUint64Le(offset uint32) (uint64, bool)
	WriteUint64Le(offset uint32, v uint64) bool
	ReadFloat32Le(offset uint32) (float32, bool)
	WriteFloat32Le(offset uint32, v float32) bool
	ReadFloat64Le(offset uint32) (float64, bool)
	WriteFloat64Le(offset uint32, v float64) bool
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// HostContext is what a HostFunction receives instead of a raw *Instance:
// just enough surface to read/write the calling instance's memory and know
// how deep the current call nesting is, mirroring FizzyExternalFn's
// (instance, args, depth) signature without exposing internal module state.
type HostContext interface {
	Memory() Memory
	Depth() int
}

// HostFunction is the signature an embedder implements to provide an
// imported function. Args are decoded according to the FuncType declared
// when registering the function; the single return value (if any) must
// match its Results.
type HostFunction func(ctx HostContext, args []Value) (Value, bool, error)

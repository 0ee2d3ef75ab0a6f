package fizzy

import (
	"encoding/binary"
	"math"

	"github.com/fizzygo/fizzy/internal/wasm"
)

// instanceMemory adapts a *wasm.Memory to api.Memory, the bounds-checked view
// host functions are handed instead of a raw byte slice.
type instanceMemory struct{ m *wasm.Memory }

func (im instanceMemory) Size() uint32 {
	if im.m == nil {
		return 0
	}
	return uint32(len(im.m.Data))
}

func (im instanceMemory) bytes(offset, n uint32) ([]byte, bool) {
	if im.m == nil {
		return nil, false
	}
	if uint64(offset)+uint64(n) > uint64(len(im.m.Data)) {
		return nil, false
	}
	return im.m.Data[offset : offset+n], true
}

func (im instanceMemory) ReadByte(offset uint32) (byte, bool) {
	b, ok := im.bytes(offset, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (im instanceMemory) WriteByte(offset uint32, v byte) bool {
	b, ok := im.bytes(offset, 1)
	if !ok {
		return false
	}
	b[0] = v
	return true
}

func (im instanceMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := im.bytes(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (im instanceMemory) WriteUint32Le(offset uint32, v uint32) bool {
	b, ok := im.bytes(offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(b, v)
	return true
}

func (im instanceMemory) ReadUint64Le(offset uint32) (uint64, bool) {
	b, ok := im.bytes(offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

func (im instanceMemory) WriteUint64Le(offset uint32, v uint64) bool {
	b, ok := im.bytes(offset, 8)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint64(b, v)
	return true
}

func (im instanceMemory) ReadFloat32Le(offset uint32) (float32, bool) {
	v, ok := im.ReadUint32Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(v), true
}

func (im instanceMemory) WriteFloat32Le(offset uint32, v float32) bool {
	return im.WriteUint32Le(offset, math.Float32bits(v))
}

func (im instanceMemory) ReadFloat64Le(offset uint32) (float64, bool) {
	v, ok := im.ReadUint64Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(v), true
}

func (im instanceMemory) WriteFloat64Le(offset uint32, v float64) bool {
	return im.WriteUint64Le(offset, math.Float64bits(v))
}

func (im instanceMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	b, ok := im.bytes(offset, byteCount)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (im instanceMemory) Write(offset uint32, v []byte) bool {
	b, ok := im.bytes(offset, uint32(len(v)))
	if !ok {
		return false
	}
	copy(b, v)
	return true
}

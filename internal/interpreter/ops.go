package interpreter

import (
	"math"
	"math/bits"

	"github.com/fizzygo/fizzy/internal/moremath"
	"github.com/fizzygo/fizzy/internal/wasm"
)

// execValueOrMemoryOp executes every opcode not already handled directly in
// run's switch -- memory access, numeric constants, comparisons, arithmetic,
// conversions, reinterpretations -- and returns the number of bytes the
// instruction occupies, including its opcode byte.
func (r *runner) execValueOrMemoryOp(op wasm.Opcode, body []byte) int {
	switch op {
	case wasm.OpcodeI32Load:
		addr, n := r.memArg(body, 4)
		r.pushI32(int32(loadU32(r, addr)))
		return n
	case wasm.OpcodeI32Load8S:
		addr, n := r.memArg(body, 1)
		r.pushI32(int32(int8(loadByte(r, addr))))
		return n
	case wasm.OpcodeI32Load8U:
		addr, n := r.memArg(body, 1)
		r.pushI32(int32(loadByte(r, addr)))
		return n
	case wasm.OpcodeI32Load16S:
		addr, n := r.memArg(body, 2)
		r.pushI32(int32(int16(loadU16(r, addr))))
		return n
	case wasm.OpcodeI32Load16U:
		addr, n := r.memArg(body, 2)
		r.pushI32(int32(loadU16(r, addr)))
		return n
	case wasm.OpcodeI64Load:
		addr, n := r.memArg(body, 8)
		r.pushI64(int64(loadU64(r, addr)))
		return n
	case wasm.OpcodeI64Load8S:
		addr, n := r.memArg(body, 1)
		r.pushI64(int64(int8(loadByte(r, addr))))
		return n
	case wasm.OpcodeI64Load8U:
		addr, n := r.memArg(body, 1)
		r.pushI64(int64(loadByte(r, addr)))
		return n
	case wasm.OpcodeI64Load16S:
		addr, n := r.memArg(body, 2)
		r.pushI64(int64(int16(loadU16(r, addr))))
		return n
	case wasm.OpcodeI64Load16U:
		addr, n := r.memArg(body, 2)
		r.pushI64(int64(loadU16(r, addr)))
		return n
	case wasm.OpcodeI64Load32S:
		addr, n := r.memArg(body, 4)
		r.pushI64(int64(int32(loadU32(r, addr))))
		return n
	case wasm.OpcodeI64Load32U:
		addr, n := r.memArg(body, 4)
		r.pushI64(int64(loadU32(r, addr)))
		return n
	case wasm.OpcodeF32Load:
		addr, n := r.memArg(body, 4)
		r.pushF32(math.Float32frombits(loadU32(r, addr)))
		return n
	case wasm.OpcodeF64Load:
		addr, n := r.memArg(body, 8)
		r.pushF64(math.Float64frombits(loadU64(r, addr)))
		return n

	case wasm.OpcodeI32Store:
		v := r.popU32()
		addr, n := r.memArg(body, 4)
		storeU32(r, addr, v)
		return n
	case wasm.OpcodeI32Store8:
		v := byte(r.popU32())
		addr, n := r.memArg(body, 1)
		storeByte(r, addr, v)
		return n
	case wasm.OpcodeI32Store16:
		v := uint16(r.popU32())
		addr, n := r.memArg(body, 2)
		storeU16(r, addr, v)
		return n
	case wasm.OpcodeI64Store:
		v := r.popU64()
		addr, n := r.memArg(body, 8)
		storeU64(r, addr, v)
		return n
	case wasm.OpcodeI64Store8:
		v := byte(r.popU64())
		addr, n := r.memArg(body, 1)
		storeByte(r, addr, v)
		return n
	case wasm.OpcodeI64Store16:
		v := uint16(r.popU64())
		addr, n := r.memArg(body, 2)
		storeU16(r, addr, v)
		return n
	case wasm.OpcodeI64Store32:
		v := uint32(r.popU64())
		addr, n := r.memArg(body, 4)
		storeU32(r, addr, v)
		return n
	case wasm.OpcodeF32Store:
		v := math.Float32bits(r.popF32())
		addr, n := r.memArg(body, 4)
		storeU32(r, addr, v)
		return n
	case wasm.OpcodeF64Store:
		v := math.Float64bits(r.popF64())
		addr, n := r.memArg(body, 8)
		storeU64(r, addr, v)
		return n

	case wasm.OpcodeMemorySize:
		_, n := readU32(body, r.pc+1)
		r.pushI32(int32(r.machine.instance.Memory.SizePages()))
		return 1 + n
	case wasm.OpcodeMemoryGrow:
		_, n := readU32(body, r.pc+1)
		delta := r.popU32()
		prev, ok := r.machine.instance.Memory.Grow(delta)
		if !ok {
			r.pushI32(-1)
		} else {
			r.pushI32(int32(prev))
		}
		return 1 + n

	case wasm.OpcodeI32Const:
		v, n := readI32(body, r.pc+1)
		r.pushI32(v)
		return 1 + n
	case wasm.OpcodeI64Const:
		v, n := readI64(body, r.pc+1)
		r.pushI64(v)
		return 1 + n
	case wasm.OpcodeF32Const:
		r.pushF32(math.Float32frombits(leU32(body[r.pc+1:])))
		return 5
	case wasm.OpcodeF64Const:
		r.pushF64(math.Float64frombits(leU64(body[r.pc+1:])))
		return 9
	}

	execSimpleOp(r, op)
	return 1
}

func (r *runner) memArg(body []byte, accessSize uint32) (addr uint64, n int) {
	_, n1 := readU32(body, r.pc+1)
	offset, n2 := readU32(body, r.pc+1+n1)
	base := r.popU32()
	addr = uint64(base) + uint64(offset)
	if addr+uint64(accessSize) > uint64(len(r.machine.instance.Memory.Data)) {
		trap(wasm.ErrRuntimeOutOfBoundsMemoryAccess)
	}
	return addr, 1 + n1 + n2
}

func loadByte(r *runner, addr uint64) byte { return r.machine.instance.Memory.Data[addr] }
func loadU16(r *runner, addr uint64) uint16 {
	return leU16(r.machine.instance.Memory.Data[addr:])
}
func loadU32(r *runner, addr uint64) uint32 {
	return leU32(r.machine.instance.Memory.Data[addr:])
}
func loadU64(r *runner, addr uint64) uint64 {
	return leU64(r.machine.instance.Memory.Data[addr:])
}

func storeByte(r *runner, addr uint64, v byte) { r.machine.instance.Memory.Data[addr] = v }
func storeU16(r *runner, addr uint64, v uint16) {
	d := r.machine.instance.Memory.Data
	d[addr], d[addr+1] = byte(v), byte(v>>8)
}
func storeU32(r *runner, addr uint64, v uint32) {
	d := r.machine.instance.Memory.Data
	for i := 0; i < 4; i++ {
		d[addr+uint64(i)] = byte(v >> (8 * i))
	}
}
func storeU64(r *runner, addr uint64, v uint64) {
	d := r.machine.instance.Memory.Data
	for i := 0; i < 8; i++ {
		d[addr+uint64(i)] = byte(v >> (8 * i))
	}
}

func leU16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func leU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func readI32(body []byte, pc int) (int32, int) {
	v, n := readU32(body, pc)
	return int32(v), n
}

func readI64(body []byte, pc int) (int64, int) {
	var v uint64
	var shift uint
	n := 0
	for {
		b := body[pc+n]
		n++
		v |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				v |= ^uint64(0) << shift
			}
			break
		}
	}
	return int64(v), n
}

// execSimpleOp executes every zero-immediate comparison, arithmetic,
// conversion and reinterpretation opcode.
func execSimpleOp(r *runner, op wasm.Opcode) {
	switch op {
	case wasm.OpcodeI32Eqz:
		r.pushBool(r.popI32() == 0)
	case wasm.OpcodeI32Eq:
		b, a := r.popI32(), r.popI32()
		r.pushBool(a == b)
	case wasm.OpcodeI32Ne:
		b, a := r.popI32(), r.popI32()
		r.pushBool(a != b)
	case wasm.OpcodeI32LtS:
		b, a := r.popI32(), r.popI32()
		r.pushBool(a < b)
	case wasm.OpcodeI32LtU:
		b, a := r.popU32(), r.popU32()
		r.pushBool(a < b)
	case wasm.OpcodeI32GtS:
		b, a := r.popI32(), r.popI32()
		r.pushBool(a > b)
	case wasm.OpcodeI32GtU:
		b, a := r.popU32(), r.popU32()
		r.pushBool(a > b)
	case wasm.OpcodeI32LeS:
		b, a := r.popI32(), r.popI32()
		r.pushBool(a <= b)
	case wasm.OpcodeI32LeU:
		b, a := r.popU32(), r.popU32()
		r.pushBool(a <= b)
	case wasm.OpcodeI32GeS:
		b, a := r.popI32(), r.popI32()
		r.pushBool(a >= b)
	case wasm.OpcodeI32GeU:
		b, a := r.popU32(), r.popU32()
		r.pushBool(a >= b)

	case wasm.OpcodeI64Eqz:
		r.pushBool(r.popI64() == 0)
	case wasm.OpcodeI64Eq:
		b, a := r.popI64(), r.popI64()
		r.pushBool(a == b)
	case wasm.OpcodeI64Ne:
		b, a := r.popI64(), r.popI64()
		r.pushBool(a != b)
	case wasm.OpcodeI64LtS:
		b, a := r.popI64(), r.popI64()
		r.pushBool(a < b)
	case wasm.OpcodeI64LtU:
		b, a := r.popU64(), r.popU64()
		r.pushBool(a < b)
	case wasm.OpcodeI64GtS:
		b, a := r.popI64(), r.popI64()
		r.pushBool(a > b)
	case wasm.OpcodeI64GtU:
		b, a := r.popU64(), r.popU64()
		r.pushBool(a > b)
	case wasm.OpcodeI64LeS:
		b, a := r.popI64(), r.popI64()
		r.pushBool(a <= b)
	case wasm.OpcodeI64LeU:
		b, a := r.popU64(), r.popU64()
		r.pushBool(a <= b)
	case wasm.OpcodeI64GeS:
		b, a := r.popI64(), r.popI64()
		r.pushBool(a >= b)
	case wasm.OpcodeI64GeU:
		b, a := r.popU64(), r.popU64()
		r.pushBool(a >= b)

	case wasm.OpcodeF32Eq:
		b, a := r.popF32(), r.popF32()
		r.pushBool(a == b)
	case wasm.OpcodeF32Ne:
		b, a := r.popF32(), r.popF32()
		r.pushBool(a != b)
	case wasm.OpcodeF32Lt:
		b, a := r.popF32(), r.popF32()
		r.pushBool(a < b)
	case wasm.OpcodeF32Gt:
		b, a := r.popF32(), r.popF32()
		r.pushBool(a > b)
	case wasm.OpcodeF32Le:
		b, a := r.popF32(), r.popF32()
		r.pushBool(a <= b)
	case wasm.OpcodeF32Ge:
		b, a := r.popF32(), r.popF32()
		r.pushBool(a >= b)

	case wasm.OpcodeF64Eq:
		b, a := r.popF64(), r.popF64()
		r.pushBool(a == b)
	case wasm.OpcodeF64Ne:
		b, a := r.popF64(), r.popF64()
		r.pushBool(a != b)
	case wasm.OpcodeF64Lt:
		b, a := r.popF64(), r.popF64()
		r.pushBool(a < b)
	case wasm.OpcodeF64Gt:
		b, a := r.popF64(), r.popF64()
		r.pushBool(a > b)
	case wasm.OpcodeF64Le:
		b, a := r.popF64(), r.popF64()
		r.pushBool(a <= b)
	case wasm.OpcodeF64Ge:
		b, a := r.popF64(), r.popF64()
		r.pushBool(a >= b)

	case wasm.OpcodeI32Clz:
		r.pushI32(int32(bits.LeadingZeros32(r.popU32())))
	case wasm.OpcodeI32Ctz:
		r.pushI32(int32(bits.TrailingZeros32(r.popU32())))
	case wasm.OpcodeI32Popcnt:
		r.pushI32(int32(bits.OnesCount32(r.popU32())))
	case wasm.OpcodeI32Add:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a + b))
	case wasm.OpcodeI32Sub:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a - b))
	case wasm.OpcodeI32Mul:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a * b))
	case wasm.OpcodeI32DivS:
		b, a := r.popI32(), r.popI32()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		if a == math.MinInt32 && b == -1 {
			trap(wasm.ErrRuntimeIntegerOverflow)
		}
		r.pushI32(a / b)
	case wasm.OpcodeI32DivU:
		b, a := r.popU32(), r.popU32()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		r.push(uint64(a / b))
	case wasm.OpcodeI32RemS:
		b, a := r.popI32(), r.popI32()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		if a == math.MinInt32 && b == -1 {
			r.pushI32(0)
		} else {
			r.pushI32(a % b)
		}
	case wasm.OpcodeI32RemU:
		b, a := r.popU32(), r.popU32()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		r.push(uint64(a % b))
	case wasm.OpcodeI32And:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a & b))
	case wasm.OpcodeI32Or:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a | b))
	case wasm.OpcodeI32Xor:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a ^ b))
	case wasm.OpcodeI32Shl:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a << (b & 31)))
	case wasm.OpcodeI32ShrS:
		b, a := r.popU32(), r.popI32()
		r.pushI32(a >> (b & 31))
	case wasm.OpcodeI32ShrU:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(a >> (b & 31)))
	case wasm.OpcodeI32Rotl:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(bits.RotateLeft32(a, int(b))))
	case wasm.OpcodeI32Rotr:
		b, a := r.popU32(), r.popU32()
		r.push(uint64(bits.RotateLeft32(a, -int(b))))

	case wasm.OpcodeI64Clz:
		r.pushI64(int64(bits.LeadingZeros64(r.popU64())))
	case wasm.OpcodeI64Ctz:
		r.pushI64(int64(bits.TrailingZeros64(r.popU64())))
	case wasm.OpcodeI64Popcnt:
		r.pushI64(int64(bits.OnesCount64(r.popU64())))
	case wasm.OpcodeI64Add:
		b, a := r.popU64(), r.popU64()
		r.push(a + b)
	case wasm.OpcodeI64Sub:
		b, a := r.popU64(), r.popU64()
		r.push(a - b)
	case wasm.OpcodeI64Mul:
		b, a := r.popU64(), r.popU64()
		r.push(a * b)
	case wasm.OpcodeI64DivS:
		b, a := r.popI64(), r.popI64()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		if a == math.MinInt64 && b == -1 {
			trap(wasm.ErrRuntimeIntegerOverflow)
		}
		r.pushI64(a / b)
	case wasm.OpcodeI64DivU:
		b, a := r.popU64(), r.popU64()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		r.push(a / b)
	case wasm.OpcodeI64RemS:
		b, a := r.popI64(), r.popI64()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		if a == math.MinInt64 && b == -1 {
			r.pushI64(0)
		} else {
			r.pushI64(a % b)
		}
	case wasm.OpcodeI64RemU:
		b, a := r.popU64(), r.popU64()
		if b == 0 {
			trap(wasm.ErrRuntimeIntegerDivideByZero)
		}
		r.push(a % b)
	case wasm.OpcodeI64And:
		b, a := r.popU64(), r.popU64()
		r.push(a & b)
	case wasm.OpcodeI64Or:
		b, a := r.popU64(), r.popU64()
		r.push(a | b)
	case wasm.OpcodeI64Xor:
		b, a := r.popU64(), r.popU64()
		r.push(a ^ b)
	case wasm.OpcodeI64Shl:
		b, a := r.popU64(), r.popU64()
		r.push(a << (b & 63))
	case wasm.OpcodeI64ShrS:
		b, a := r.popU64(), r.popI64()
		r.pushI64(a >> (b & 63))
	case wasm.OpcodeI64ShrU:
		b, a := r.popU64(), r.popU64()
		r.push(a >> (b & 63))
	case wasm.OpcodeI64Rotl:
		b, a := r.popU64(), r.popU64()
		r.push(bits.RotateLeft64(a, int(b)))
	case wasm.OpcodeI64Rotr:
		b, a := r.popU64(), r.popU64()
		r.push(bits.RotateLeft64(a, -int(b)))

	case wasm.OpcodeF32Abs:
		r.pushF32(float32(math.Abs(float64(r.popF32()))))
	case wasm.OpcodeF32Neg:
		r.pushF32(-r.popF32())
	case wasm.OpcodeF32Ceil:
		r.pushF32(float32(math.Ceil(float64(r.popF32()))))
	case wasm.OpcodeF32Floor:
		r.pushF32(float32(math.Floor(float64(r.popF32()))))
	case wasm.OpcodeF32Trunc:
		r.pushF32(float32(math.Trunc(float64(r.popF32()))))
	case wasm.OpcodeF32Nearest:
		r.pushF32(float32(math.RoundToEven(float64(r.popF32()))))
	case wasm.OpcodeF32Sqrt:
		r.pushF32(float32(math.Sqrt(float64(r.popF32()))))
	case wasm.OpcodeF32Add:
		b, a := r.popF32(), r.popF32()
		r.pushF32(a + b)
	case wasm.OpcodeF32Sub:
		b, a := r.popF32(), r.popF32()
		r.pushF32(a - b)
	case wasm.OpcodeF32Mul:
		b, a := r.popF32(), r.popF32()
		r.pushF32(a * b)
	case wasm.OpcodeF32Div:
		b, a := r.popF32(), r.popF32()
		r.pushF32(a / b)
	case wasm.OpcodeF32Min:
		b, a := r.popF32(), r.popF32()
		r.pushF32(float32(moremath.WasmCompatMin(float64(a), float64(b))))
	case wasm.OpcodeF32Max:
		b, a := r.popF32(), r.popF32()
		r.pushF32(float32(moremath.WasmCompatMax(float64(a), float64(b))))
	case wasm.OpcodeF32Copysign:
		b, a := r.popF32(), r.popF32()
		r.pushF32(float32(math.Copysign(float64(a), float64(b))))

	case wasm.OpcodeF64Abs:
		r.pushF64(math.Abs(r.popF64()))
	case wasm.OpcodeF64Neg:
		r.pushF64(-r.popF64())
	case wasm.OpcodeF64Ceil:
		r.pushF64(math.Ceil(r.popF64()))
	case wasm.OpcodeF64Floor:
		r.pushF64(math.Floor(r.popF64()))
	case wasm.OpcodeF64Trunc:
		r.pushF64(math.Trunc(r.popF64()))
	case wasm.OpcodeF64Nearest:
		r.pushF64(math.RoundToEven(r.popF64()))
	case wasm.OpcodeF64Sqrt:
		r.pushF64(math.Sqrt(r.popF64()))
	case wasm.OpcodeF64Add:
		b, a := r.popF64(), r.popF64()
		r.pushF64(a + b)
	case wasm.OpcodeF64Sub:
		b, a := r.popF64(), r.popF64()
		r.pushF64(a - b)
	case wasm.OpcodeF64Mul:
		b, a := r.popF64(), r.popF64()
		r.pushF64(a * b)
	case wasm.OpcodeF64Div:
		b, a := r.popF64(), r.popF64()
		r.pushF64(a / b)
	case wasm.OpcodeF64Min:
		b, a := r.popF64(), r.popF64()
		r.pushF64(moremath.WasmCompatMin(a, b))
	case wasm.OpcodeF64Max:
		b, a := r.popF64(), r.popF64()
		r.pushF64(moremath.WasmCompatMax(a, b))
	case wasm.OpcodeF64Copysign:
		b, a := r.popF64(), r.popF64()
		r.pushF64(math.Copysign(a, b))

	case wasm.OpcodeI32WrapI64:
		r.pushI32(int32(r.popI64()))
	case wasm.OpcodeI32TruncF32S:
		r.pushI32(truncToI32(float64(r.popF32())))
	case wasm.OpcodeI32TruncF32U:
		r.push(uint64(truncToU32(float64(r.popF32()))))
	case wasm.OpcodeI32TruncF64S:
		r.pushI32(truncToI32(r.popF64()))
	case wasm.OpcodeI32TruncF64U:
		r.push(uint64(truncToU32(r.popF64())))
	case wasm.OpcodeI64ExtendI32S:
		r.pushI64(int64(r.popI32()))
	case wasm.OpcodeI64ExtendI32U:
		r.pushI64(int64(uint64(r.popU32())))
	case wasm.OpcodeI64TruncF32S:
		r.pushI64(truncToI64(float64(r.popF32())))
	case wasm.OpcodeI64TruncF32U:
		r.push(truncToU64(float64(r.popF32())))
	case wasm.OpcodeI64TruncF64S:
		r.pushI64(truncToI64(r.popF64()))
	case wasm.OpcodeI64TruncF64U:
		r.push(truncToU64(r.popF64()))
	case wasm.OpcodeF32ConvertI32S:
		r.pushF32(float32(r.popI32()))
	case wasm.OpcodeF32ConvertI32U:
		r.pushF32(float32(r.popU32()))
	case wasm.OpcodeF32ConvertI64S:
		r.pushF32(float32(r.popI64()))
	case wasm.OpcodeF32ConvertI64U:
		r.pushF32(float32(r.popU64()))
	case wasm.OpcodeF32DemoteF64:
		r.pushF32(float32(r.popF64()))
	case wasm.OpcodeF64ConvertI32S:
		r.pushF64(float64(r.popI32()))
	case wasm.OpcodeF64ConvertI32U:
		r.pushF64(float64(r.popU32()))
	case wasm.OpcodeF64ConvertI64S:
		r.pushF64(float64(r.popI64()))
	case wasm.OpcodeF64ConvertI64U:
		r.pushF64(float64(r.popU64()))
	case wasm.OpcodeF64PromoteF32:
		r.pushF64(float64(r.popF32()))

	case wasm.OpcodeI32ReinterpretF32:
		r.pushI32(int32(math.Float32bits(r.popF32())))
	case wasm.OpcodeI64ReinterpretF64:
		r.pushI64(int64(math.Float64bits(r.popF64())))
	case wasm.OpcodeF32ReinterpretI32:
		r.pushF32(math.Float32frombits(r.popU32()))
	case wasm.OpcodeF64ReinterpretI64:
		r.pushF64(math.Float64frombits(r.popU64()))

	default:
		trap(wasm.ErrRuntimeUnreachable)
	}
}

// The four truncToX helpers implement i32/i64.trunc_f32/f64_s/u: truncate
// toward zero, trapping on NaN and on any value outside the target's range
// (including +/-Inf) rather than wrapping or saturating.

func truncToI32(f float64) int32 {
	t := math.Trunc(f)
	if math.IsNaN(t) || t < math.MinInt32 || t >= math.MaxInt32+1 {
		trap(wasm.ErrRuntimeInvalidConversionToInteger)
	}
	return int32(t)
}

func truncToU32(f float64) uint32 {
	t := math.Trunc(f)
	if math.IsNaN(t) || t < 0 || t >= math.MaxUint32+1 {
		trap(wasm.ErrRuntimeInvalidConversionToInteger)
	}
	return uint32(t)
}

func truncToI64(f float64) int64 {
	t := math.Trunc(f)
	if math.IsNaN(t) || t < math.MinInt64 || t >= math.MaxInt64 {
		trap(wasm.ErrRuntimeInvalidConversionToInteger)
	}
	return int64(t)
}

func truncToU64(f float64) uint64 {
	t := math.Trunc(f)
	if math.IsNaN(t) || t < 0 || t >= math.MaxUint64 {
		trap(wasm.ErrRuntimeInvalidConversionToInteger)
	}
	return uint64(t)
}

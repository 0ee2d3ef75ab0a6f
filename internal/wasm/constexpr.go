package wasm

import "math"

// Eval computes the runtime value of a constant expression. Numeric results
// are returned as their raw bit pattern (i32/f32 zero-extended into the low
// 32 bits, i64/f64 filling all 64) -- the same representation the
// interpreter's operand stack uses, so instantiation and execution never
// need two different notions of "a Wasm value".
//
// globalValue resolves a global.get operand to the current value of an
// already-instantiated (necessarily imported and immutable) global.
func (c ConstantExpression) Eval(globalValue func(idx uint32) uint64) (uint64, error) {
	r := newByteReader(c.Data)
	switch c.Opcode {
	case OpcodeI32Const:
		v, _, err := decodeVarI32(r)
		return uint64(uint32(v)), err
	case OpcodeI64Const:
		v, _, err := decodeVarI64(r)
		return uint64(v), err
	case OpcodeF32Const:
		v, _, err := decodeFloat32(r)
		return uint64(math.Float32bits(v)), err
	case OpcodeF64Const:
		v, _, err := decodeFloat64(r)
		return math.Float64bits(v), err
	case OpcodeGlobalGet:
		idx, _, err := decodeVarU32(r)
		if err != nil {
			return 0, err
		}
		return globalValue(idx), nil
	}
	return 0, errInvalidConstExprOpcode
}

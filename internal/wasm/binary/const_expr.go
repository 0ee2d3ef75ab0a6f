package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fizzygo/fizzy/internal/wasm"
)

// readConstantExpression decodes the restricted expression Wasm 1.0 allows
// as a global initializer or element/data segment offset: exactly one of
// i32.const, i64.const, f32.const, f64.const or global.get, followed by end.
// The raw immediate bytes are captured into ConstantExpression.Data so the
// instantiator can decode them without re-parsing the opcode.
func (r *reader) readConstantExpression() (wasm.ConstantExpression, error) {
	op, err := r.readByte()
	if err != nil {
		return wasm.ConstantExpression{}, err
	}

	var buf bytes.Buffer
	tee := &reader{r: io.TeeReader(r.r, &buf)}

	switch op {
	case wasm.OpcodeI32Const:
		if _, err := tee.readVarI32(); err != nil {
			return wasm.ConstantExpression{}, fmt.Errorf("read i32.const operand: %w", err)
		}
	case wasm.OpcodeI64Const:
		if _, err := tee.readVarI64(); err != nil {
			return wasm.ConstantExpression{}, fmt.Errorf("read i64.const operand: %w", err)
		}
	case wasm.OpcodeF32Const:
		if _, err := tee.readFloat32(); err != nil {
			return wasm.ConstantExpression{}, fmt.Errorf("read f32.const operand: %w", err)
		}
	case wasm.OpcodeF64Const:
		if _, err := tee.readFloat64(); err != nil {
			return wasm.ConstantExpression{}, fmt.Errorf("read f64.const operand: %w", err)
		}
	case wasm.OpcodeGlobalGet:
		if _, err := tee.readVarU32(); err != nil {
			return wasm.ConstantExpression{}, fmt.Errorf("read global.get operand: %w", err)
		}
	default:
		return wasm.ConstantExpression{}, fmt.Errorf("opcode 0x%x is not valid in a constant expression", op)
	}
	r.read += tee.read

	end, err := r.readByte()
	if err != nil {
		return wasm.ConstantExpression{}, err
	}
	if end != wasm.OpcodeEnd {
		return wasm.ConstantExpression{}, fmt.Errorf("constant expression must be terminated by end")
	}
	return wasm.ConstantExpression{Opcode: op, Data: buf.Bytes()}, nil
}

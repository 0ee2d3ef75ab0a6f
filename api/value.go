// Package api defines the public value representation and host-function
// plumbing shared between an embedder and a fizzy Runtime, independent of
// the internal module/instance machinery.
package api

import "math"

// Value is one WebAssembly value in the interpreter's native representation:
// the raw bit pattern, zero-extended for i32/f32. Which of the four
// WebAssembly 1.0 types it holds is determined by context (a FuncType's
// Params/Results), the same way the C ABI this package mirrors leaves a
// FizzyValue's active union member to the caller's FizzyValueType.
type Value uint64

// EncodeI32 and the other EncodeX/DecodeX pairs convert between Go's native
// numeric types and the wire representation used on the operand stack and
// in host function argument/result lists.
func EncodeI32(v int32) Value { return Value(uint32(v)) }
func DecodeI32(v Value) int32 { return int32(uint32(v)) }

func EncodeI64(v int64) Value { return Value(v) }
func DecodeI64(v Value) int64 { return int64(v) }

func EncodeF32(v float32) Value { return Value(math.Float32bits(v)) }
func DecodeF32(v Value) float32 { return math.Float32frombits(uint32(v)) }

func EncodeF64(v float64) Value { return Value(math.Float64bits(v)) }
func DecodeF64(v Value) float64 { return math.Float64frombits(uint64(v)) }

package wasm

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/fizzygo/fizzy/internal/leb128"
)

var (
	errElseWithoutIf       = errors.New("else without matching if")
	errBranchDepth         = errors.New("branch depth exceeds label nesting")
	errBrTableArityMismatch = errors.New("br_table targets have mismatched arities")
	errInvalidFuncIndex    = errors.New("invalid function index")
	errInvalidTypeIndex    = errors.New("invalid type index")
	errInvalidLocalIndex   = errors.New("invalid local index")
	errInvalidGlobalIndex  = errors.New("invalid global index")
	errImmutableGlobalSet  = errors.New("global.set of an immutable global")
	errNoTable             = errors.New("call_indirect without a table")
	errNoMemory            = errors.New("memory instruction without a memory")
	errUnclosedBlock       = errors.New("function body ends with unclosed block")
	errInvalidAlignment    = errors.New("memory alignment exceeds natural alignment")
	errTruncatedBody       = errors.New("function body truncated")
	errConstExprTypeMismatch = errors.New("constant expression type does not match declared type")
)

// Validate structurally and type-checks every function body in module,
// filling in Code.Preprocessed as it goes. A module that fails validation
// is never instantiable; Parse calls this before returning the module to
// the caller, so nothing downstream re-checks indices or operand types.
func Validate(module *Module) error {
	if len(module.FunctionSection) != len(module.CodeSection) {
		return &DecodeError{Err: errors.New("function and code sections have different lengths")}
	}
	for _, typeIdx := range module.FunctionSection {
		if int(typeIdx) >= len(module.TypeSection) {
			return &DecodeError{Err: errInvalidTypeIndex}
		}
	}

	for i, code := range module.CodeSection {
		funcIdx := module.ImportedFunctionCount() + uint32(i)
		sig := module.TypeOfFunction(funcIdx)
		if sig == nil {
			return &DecodeError{Err: errInvalidFuncIndex}
		}
		pp, err := preprocessFunction(module, sig, code.LocalTypes, code.Body)
		if err != nil {
			return err
		}
		code.Preprocessed = pp
	}

	for _, g := range module.GlobalSection {
		if err := validateConstExpr(module, g.Init, g.Type.ValType); err != nil {
			return &DecodeError{Err: err}
		}
	}
	for _, es := range module.ElementSection {
		if len(module.TableSection)+int(module.ImportedTableCount()) == 0 {
			return &DecodeError{Err: errors.New("element segment without a table")}
		}
		if err := validateConstExpr(module, es.Offset, ValueTypeI32); err != nil {
			return &DecodeError{Err: err}
		}
		for _, fi := range es.Init {
			if module.TypeOfFunction(fi) == nil {
				return &DecodeError{Err: errInvalidFuncIndex}
			}
		}
	}
	for _, ds := range module.DataSection {
		if len(module.MemorySection)+int(module.ImportedMemoryCount()) == 0 {
			return &DecodeError{Err: errors.New("data segment without a memory")}
		}
		if err := validateConstExpr(module, ds.Offset, ValueTypeI32); err != nil {
			return &DecodeError{Err: err}
		}
	}

	for _, exp := range module.ExportSection {
		switch exp.Kind {
		case ExternalKindFunc:
			if module.TypeOfFunction(exp.Index) == nil {
				return &DecodeError{Err: errInvalidFuncIndex}
			}
		case ExternalKindGlobal:
			if globalTypeOf(module, exp.Index) == nil {
				return &DecodeError{Err: errInvalidGlobalIndex}
			}
		}
	}

	if module.StartSection != nil {
		ft := module.TypeOfFunction(*module.StartSection)
		if ft == nil {
			return &DecodeError{Err: errInvalidFuncIndex}
		}
		if len(ft.Params) != 0 || len(ft.Results) != 0 {
			return &DecodeError{Err: errors.New("start function must take no parameters and return no values")}
		}
	}
	return nil
}

// validateConstExpr checks that a constant expression only uses opcodes
// legal outside a function body, and, for global.get, only references an
// already-defined (necessarily imported and immutable) global of the
// expected type.
func validateConstExpr(module *Module, expr ConstantExpression, expected ValueType) error {
	switch expr.Opcode {
	case OpcodeI32Const:
		if expected != ValueTypeI32 {
			return errConstExprTypeMismatch
		}
	case OpcodeI64Const:
		if expected != ValueTypeI64 {
			return errConstExprTypeMismatch
		}
	case OpcodeF32Const:
		if expected != ValueTypeF32 {
			return errConstExprTypeMismatch
		}
	case OpcodeF64Const:
		if expected != ValueTypeF64 {
			return errConstExprTypeMismatch
		}
	case OpcodeGlobalGet:
		idx, _, err := decodeVarU32(newByteReader(expr.Data))
		if err != nil {
			return err
		}
		if idx >= module.ImportedGlobalCount() {
			return errors.New("constant expression may only reference an imported global")
		}
		gt := globalTypeOf(module, idx)
		if gt == nil {
			return errInvalidGlobalIndex
		}
		if gt.Mutable {
			return errors.New("constant expression may not reference a mutable global")
		}
		if gt.ValType != expected {
			return errConstExprTypeMismatch
		}
	default:
		return errInvalidConstExprOpcode
	}
	return nil
}

// valueTypeStack simulates the operand-type stack during validation. Each
// entry in stackLimits marks the height at which the current control frame
// began; once a stack-polymorphic instruction (unreachable, br, br_table,
// return) is seen, the stack is reset to the current limit and a single
// valueTypeUnknown marker stands for any number of values of any type until
// the frame closes -- ported from the teacher's
// analyzeFunction, whose stackLimits/unreachable machinery solves exactly
// this problem.
type valueTypeStack struct {
	stack       []ValueType
	stackLimits []int
}

// valueTypeUnknown marks a stack slot whose type is unconstrained because
// it was pushed after a stack-polymorphic instruction.
const valueTypeUnknown = ValueType(0xff)

func (s *valueTypeStack) height() int { return len(s.stack) }

func (s *valueTypeStack) currentLimit() int {
	if len(s.stackLimits) == 0 {
		return 0
	}
	return s.stackLimits[len(s.stackLimits)-1]
}

func (s *valueTypeStack) push(v ValueType) {
	s.stack = append(s.stack, v)
}

func (s *valueTypeStack) pop() (ValueType, error) {
	limit := s.currentLimit()
	if len(s.stack) == limit+1 && s.stack[limit] == valueTypeUnknown {
		// Only the polymorphic marker is left: any type is valid, and the
		// marker stays until the frame closes.
		return valueTypeUnknown, nil
	}
	if len(s.stack) <= limit {
		return 0, errors.New("invalid operation: trying to pop at the beginning of a stack")
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v, nil
}

func (s *valueTypeStack) popAndVerifyType(expected ValueType) error {
	v, err := s.pop()
	if err != nil {
		return err
	}
	if v == valueTypeUnknown {
		return nil
	}
	if expected == valueTypeUnknown {
		return nil
	}
	if v != expected {
		return errors.New("type mismatch: expected " + ValueTypeName(expected) + " but got " + ValueTypeName(v))
	}
	return nil
}

func (s *valueTypeStack) unreachable() {
	s.resetAtStackLimit()
	s.stack = append(s.stack, valueTypeUnknown)
}

func (s *valueTypeStack) resetAtStackLimit() {
	s.stack = s.stack[:s.currentLimit()]
}

func (s *valueTypeStack) pushStackLimit() {
	s.stackLimits = append(s.stackLimits, len(s.stack))
}

func (s *valueTypeStack) popStackLimit() {
	s.stackLimits = s.stackLimits[:len(s.stackLimits)-1]
}

// popResults pops expResults off the stack in reverse order, verifying
// types. If checkAboveLimit, it additionally requires the stack height
// above the current frame's entry point to equal exactly len(expResults)
// once popped (used at `end`/`else`, where the frame's yielded values must
// be the only things left above its limit).
func (s *valueTypeStack) popResults(expResults []ValueType, checkAboveLimit bool) error {
	for i := len(expResults) - 1; i >= 0; i-- {
		if err := s.popAndVerifyType(expResults[i]); err != nil {
			return err
		}
	}
	if checkAboveLimit {
		limit := s.currentLimit()
		polymorphic := len(s.stack) == limit+1 && s.stack[limit] == valueTypeUnknown
		if len(s.stack) != limit && !polymorphic {
			return errors.New("at end of block: stack has extra values beyond the block's result arity")
		}
		s.stack = s.stack[:limit]
	}
	return nil
}

// readBlockType decodes the signed 33-bit LEB128 blocktype immediate that
// follows block/loop/if, returning the resolved FuncType and the number of
// bytes consumed. -64 is the empty type; -1..-4 are single-result shorthand
// for i32/i64/f32/f64; any other (non-negative) value indexes TypeSection.
//
// Wasm 1.0 itself never produces a type-indexed blocktype with parameters
// (that is a later proposal), so a type index whose FuncType has any Params
// is rejected here rather than silently accepted.
func readBlockType(module *Module, b []byte) (*FuncType, int, error) {
	v, n, err := leb128.DecodeInt33AsInt64(newByteReader(b))
	if err != nil {
		return nil, 0, err
	}
	switch v {
	case -0x40:
		return &FuncType{}, int(n), nil
	case -1:
		return &FuncType{Results: []ValueType{ValueTypeI32}}, int(n), nil
	case -2:
		return &FuncType{Results: []ValueType{ValueTypeI64}}, int(n), nil
	case -3:
		return &FuncType{Results: []ValueType{ValueTypeF32}}, int(n), nil
	case -4:
		return &FuncType{Results: []ValueType{ValueTypeF64}}, int(n), nil
	}
	if v < 0 || int(v) >= len(module.TypeSection) {
		return nil, 0, errInvalidTypeIndex
	}
	ft := module.TypeSection[v]
	if len(ft.Params) != 0 {
		return nil, 0, errors.New("block types with parameters are not supported in WebAssembly 1.0")
	}
	return ft, int(n), nil
}

func readVarU32(body []byte, pc int) (uint32, int, error) {
	if pc > len(body) {
		return 0, 0, errTruncatedBody
	}
	v, n, err := leb128.DecodeUint32(newByteReader(body[pc:]))
	return v, int(n), err
}

func readVarI32(body []byte, pc int) (int32, int, error) {
	if pc > len(body) {
		return 0, 0, errTruncatedBody
	}
	v, n, err := leb128.DecodeInt32(newByteReader(body[pc:]))
	return v, int(n), err
}

func readVarI64(body []byte, pc int) (int64, int, error) {
	if pc > len(body) {
		return 0, 0, errTruncatedBody
	}
	v, n, err := leb128.DecodeInt64(newByteReader(body[pc:]))
	return v, int(n), err
}

func readBrTable(body []byte, pc int) (list []uint32, defaultIdx uint32, n int, err error) {
	count, n1, err := readVarU32(body, pc)
	if err != nil {
		return nil, 0, 0, err
	}
	off := n1
	list = make([]uint32, count)
	for i := range list {
		v, ni, err := readVarU32(body, pc+off)
		if err != nil {
			return nil, 0, 0, err
		}
		list[i] = v
		off += ni
	}
	def, n2, err := readVarU32(body, pc+off)
	if err != nil {
		return nil, 0, 0, err
	}
	off += n2
	return list, def, off, nil
}

// preprocessValueOrMemoryOp handles every opcode not already special-cased
// in preprocessFunction: memory access, numeric constants, comparisons,
// arithmetic, conversions and reinterpretations. It returns the number of
// bytes the instruction (opcode plus any immediate) occupies.
func preprocessValueOrMemoryOp(module *Module, vs *valueTypeStack, op Opcode, pc int, body []byte) (int, error) {
	hasMemory := len(module.MemorySection)+int(module.ImportedMemoryCount()) > 0

	switch op {
	case OpcodeI32Load, OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI32Load16S, OpcodeI32Load16U,
		OpcodeI64Load, OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI64Load16S, OpcodeI64Load16U, OpcodeI64Load32S, OpcodeI64Load32U,
		OpcodeF32Load, OpcodeF64Load:
		if !hasMemory {
			return 0, &DecodeError{Offset: pc, Err: errNoMemory}
		}
		n, err := validateMemArg(body, pc+1, naturalAlign(op))
		if err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		vs.push(loadResultType(op))
		return 1 + n, nil

	case OpcodeI32Store, OpcodeI32Store8, OpcodeI32Store16,
		OpcodeI64Store, OpcodeI64Store8, OpcodeI64Store16, OpcodeI64Store32,
		OpcodeF32Store, OpcodeF64Store:
		if !hasMemory {
			return 0, &DecodeError{Offset: pc, Err: errNoMemory}
		}
		n, err := validateMemArg(body, pc+1, naturalAlign(op))
		if err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		if err := vs.popAndVerifyType(storeValueType(op)); err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		return 1 + n, nil

	case OpcodeMemorySize, OpcodeMemoryGrow:
		if !hasMemory {
			return 0, &DecodeError{Offset: pc, Err: errNoMemory}
		}
		_, n, err := readVarU32(body, pc+1)
		if err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		if op == OpcodeMemoryGrow {
			if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
				return 0, &DecodeError{Offset: pc, Err: err}
			}
		}
		vs.push(ValueTypeI32)
		return 1 + n, nil

	case OpcodeI32Const:
		_, n, err := readVarI32(body, pc+1)
		if err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		vs.push(ValueTypeI32)
		return 1 + n, nil

	case OpcodeI64Const:
		_, n, err := readVarI64(body, pc+1)
		if err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		vs.push(ValueTypeI64)
		return 1 + n, nil

	case OpcodeF32Const:
		if pc+5 > len(body) {
			return 0, &DecodeError{Offset: pc, Err: errTruncatedBody}
		}
		vs.push(ValueTypeF32)
		return 5, nil

	case OpcodeF64Const:
		if pc+9 > len(body) {
			return 0, &DecodeError{Offset: pc, Err: errTruncatedBody}
		}
		vs.push(ValueTypeF64)
		return 9, nil
	}

	if kind, ok := simpleOpKind[op]; ok {
		if err := applySimpleOp(vs, kind); err != nil {
			return 0, &DecodeError{Offset: pc, Err: err}
		}
		return 1, nil
	}

	return 0, &DecodeError{Offset: pc, Err: errors.New("unrecognized opcode")}
}

func validateMemArg(body []byte, pc int, natural uint32) (int, error) {
	align, n1, err := readVarU32(body, pc)
	if err != nil {
		return 0, err
	}
	if align > natural {
		return 0, errInvalidAlignment
	}
	_, n2, err := readVarU32(body, pc+n1)
	if err != nil {
		return 0, err
	}
	return n1 + n2, nil
}

// naturalAlign returns log2 of the natural alignment (in bytes) for a
// memory load/store opcode, matching the Text Format's default "align="
// value and the maximum the binary format permits for it.
func naturalAlign(op Opcode) uint32 {
	switch op {
	case OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI32Store8, OpcodeI64Store8:
		return 0
	case OpcodeI32Load16S, OpcodeI32Load16U, OpcodeI64Load16S, OpcodeI64Load16U, OpcodeI32Store16, OpcodeI64Store16:
		return 1
	case OpcodeI32Load, OpcodeF32Load, OpcodeI32Store, OpcodeF32Store, OpcodeI64Load32S, OpcodeI64Load32U, OpcodeI64Store32:
		return 2
	case OpcodeI64Load, OpcodeF64Load, OpcodeI64Store, OpcodeF64Store:
		return 3
	}
	return 0
}

func loadResultType(op Opcode) ValueType {
	switch op {
	case OpcodeI32Load, OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI32Load16S, OpcodeI32Load16U:
		return ValueTypeI32
	case OpcodeI64Load, OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI64Load16S, OpcodeI64Load16U, OpcodeI64Load32S, OpcodeI64Load32U:
		return ValueTypeI64
	case OpcodeF32Load:
		return ValueTypeF32
	case OpcodeF64Load:
		return ValueTypeF64
	}
	return valueTypeUnknown
}

func storeValueType(op Opcode) ValueType {
	switch op {
	case OpcodeI32Store, OpcodeI32Store8, OpcodeI32Store16:
		return ValueTypeI32
	case OpcodeI64Store, OpcodeI64Store8, OpcodeI64Store16, OpcodeI64Store32:
		return ValueTypeI64
	case OpcodeF32Store:
		return ValueTypeF32
	case OpcodeF64Store:
		return ValueTypeF64
	}
	return valueTypeUnknown
}

// opKind groups the remaining zero-immediate opcodes (comparisons,
// arithmetic, conversions, reinterpretations) by operand/result shape so
// applySimpleOp can type-check them table-driven instead of one case per
// opcode.
type opKind int

const (
	kindUnopI32 opKind = iota
	kindUnopI64
	kindUnopF32
	kindUnopF64
	kindBinopI32
	kindBinopI64
	kindBinopF32
	kindBinopF64
	kindTestI32
	kindTestI64
	kindRelopI32
	kindRelopI64
	kindRelopF32
	kindRelopF64
	kindCvtI32FromI64
	kindCvtI32FromF32
	kindCvtI32FromF64
	kindCvtI64FromI32
	kindCvtI64FromF32
	kindCvtI64FromF64
	kindCvtF32FromI32
	kindCvtF32FromI64
	kindCvtF32FromF64
	kindCvtF64FromI32
	kindCvtF64FromI64
	kindCvtF64FromF32
	kindCvtI32FromF32Bits
	kindCvtI64FromF64Bits
	kindCvtF32FromI32Bits
	kindCvtF64FromI64Bits
)

func applySimpleOp(vs *valueTypeStack, k opKind) error {
	pop := func(t ValueType) error { return vs.popAndVerifyType(t) }
	switch k {
	case kindUnopI32:
		if err := pop(ValueTypeI32); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindUnopI64:
		if err := pop(ValueTypeI64); err != nil {
			return err
		}
		vs.push(ValueTypeI64)
	case kindUnopF32:
		if err := pop(ValueTypeF32); err != nil {
			return err
		}
		vs.push(ValueTypeF32)
	case kindUnopF64:
		if err := pop(ValueTypeF64); err != nil {
			return err
		}
		vs.push(ValueTypeF64)
	case kindBinopI32, kindRelopI32:
		if err := pop(ValueTypeI32); err != nil {
			return err
		}
		if err := pop(ValueTypeI32); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindBinopI64:
		if err := pop(ValueTypeI64); err != nil {
			return err
		}
		if err := pop(ValueTypeI64); err != nil {
			return err
		}
		vs.push(ValueTypeI64)
	case kindRelopI64:
		if err := pop(ValueTypeI64); err != nil {
			return err
		}
		if err := pop(ValueTypeI64); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindBinopF32:
		if err := pop(ValueTypeF32); err != nil {
			return err
		}
		if err := pop(ValueTypeF32); err != nil {
			return err
		}
		vs.push(ValueTypeF32)
	case kindRelopF32:
		if err := pop(ValueTypeF32); err != nil {
			return err
		}
		if err := pop(ValueTypeF32); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindBinopF64:
		if err := pop(ValueTypeF64); err != nil {
			return err
		}
		if err := pop(ValueTypeF64); err != nil {
			return err
		}
		vs.push(ValueTypeF64)
	case kindRelopF64:
		if err := pop(ValueTypeF64); err != nil {
			return err
		}
		if err := pop(ValueTypeF64); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindTestI32:
		if err := pop(ValueTypeI32); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindTestI64:
		if err := pop(ValueTypeI64); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindCvtI32FromI64, kindCvtI32FromF32, kindCvtI32FromF64, kindCvtI32FromF32Bits:
		from := map[opKind]ValueType{kindCvtI32FromI64: ValueTypeI64, kindCvtI32FromF32: ValueTypeF32, kindCvtI32FromF64: ValueTypeF64, kindCvtI32FromF32Bits: ValueTypeF32}[k]
		if err := pop(from); err != nil {
			return err
		}
		vs.push(ValueTypeI32)
	case kindCvtI64FromI32, kindCvtI64FromF32, kindCvtI64FromF64, kindCvtI64FromF64Bits:
		from := map[opKind]ValueType{kindCvtI64FromI32: ValueTypeI32, kindCvtI64FromF32: ValueTypeF32, kindCvtI64FromF64: ValueTypeF64, kindCvtI64FromF64Bits: ValueTypeF64}[k]
		if err := pop(from); err != nil {
			return err
		}
		vs.push(ValueTypeI64)
	case kindCvtF32FromI32, kindCvtF32FromI64, kindCvtF32FromF64, kindCvtF32FromI32Bits:
		from := map[opKind]ValueType{kindCvtF32FromI32: ValueTypeI32, kindCvtF32FromI64: ValueTypeI64, kindCvtF32FromF64: ValueTypeF64, kindCvtF32FromI32Bits: ValueTypeI32}[k]
		if err := pop(from); err != nil {
			return err
		}
		vs.push(ValueTypeF32)
	case kindCvtF64FromI32, kindCvtF64FromI64, kindCvtF64FromF32, kindCvtF64FromI64Bits:
		from := map[opKind]ValueType{kindCvtF64FromI32: ValueTypeI32, kindCvtF64FromI64: ValueTypeI64, kindCvtF64FromF32: ValueTypeF32, kindCvtF64FromI64Bits: ValueTypeI64}[k]
		if err := pop(from); err != nil {
			return err
		}
		vs.push(ValueTypeF64)
	}
	return nil
}

// simpleOpKind maps every remaining zero-immediate opcode to its type shape.
var simpleOpKind = map[Opcode]opKind{
	OpcodeI32Eqz: kindTestI32,
	OpcodeI32Eq: kindRelopI32, OpcodeI32Ne: kindRelopI32,
	OpcodeI32LtS: kindRelopI32, OpcodeI32LtU: kindRelopI32, OpcodeI32GtS: kindRelopI32, OpcodeI32GtU: kindRelopI32,
	OpcodeI32LeS: kindRelopI32, OpcodeI32LeU: kindRelopI32, OpcodeI32GeS: kindRelopI32, OpcodeI32GeU: kindRelopI32,

	OpcodeI64Eqz: kindTestI64,
	OpcodeI64Eq: kindRelopI64, OpcodeI64Ne: kindRelopI64,
	OpcodeI64LtS: kindRelopI64, OpcodeI64LtU: kindRelopI64, OpcodeI64GtS: kindRelopI64, OpcodeI64GtU: kindRelopI64,
	OpcodeI64LeS: kindRelopI64, OpcodeI64LeU: kindRelopI64, OpcodeI64GeS: kindRelopI64, OpcodeI64GeU: kindRelopI64,

	OpcodeF32Eq: kindRelopF32, OpcodeF32Ne: kindRelopF32, OpcodeF32Lt: kindRelopF32, OpcodeF32Gt: kindRelopF32, OpcodeF32Le: kindRelopF32, OpcodeF32Ge: kindRelopF32,
	OpcodeF64Eq: kindRelopF64, OpcodeF64Ne: kindRelopF64, OpcodeF64Lt: kindRelopF64, OpcodeF64Gt: kindRelopF64, OpcodeF64Le: kindRelopF64, OpcodeF64Ge: kindRelopF64,

	OpcodeI32Clz: kindUnopI32, OpcodeI32Ctz: kindUnopI32, OpcodeI32Popcnt: kindUnopI32,
	OpcodeI32Add: kindBinopI32, OpcodeI32Sub: kindBinopI32, OpcodeI32Mul: kindBinopI32,
	OpcodeI32DivS: kindBinopI32, OpcodeI32DivU: kindBinopI32, OpcodeI32RemS: kindBinopI32, OpcodeI32RemU: kindBinopI32,
	OpcodeI32And: kindBinopI32, OpcodeI32Or: kindBinopI32, OpcodeI32Xor: kindBinopI32,
	OpcodeI32Shl: kindBinopI32, OpcodeI32ShrS: kindBinopI32, OpcodeI32ShrU: kindBinopI32, OpcodeI32Rotl: kindBinopI32, OpcodeI32Rotr: kindBinopI32,

	OpcodeI64Clz: kindUnopI64, OpcodeI64Ctz: kindUnopI64, OpcodeI64Popcnt: kindUnopI64,
	OpcodeI64Add: kindBinopI64, OpcodeI64Sub: kindBinopI64, OpcodeI64Mul: kindBinopI64,
	OpcodeI64DivS: kindBinopI64, OpcodeI64DivU: kindBinopI64, OpcodeI64RemS: kindBinopI64, OpcodeI64RemU: kindBinopI64,
	OpcodeI64And: kindBinopI64, OpcodeI64Or: kindBinopI64, OpcodeI64Xor: kindBinopI64,
	OpcodeI64Shl: kindBinopI64, OpcodeI64ShrS: kindBinopI64, OpcodeI64ShrU: kindBinopI64, OpcodeI64Rotl: kindBinopI64, OpcodeI64Rotr: kindBinopI64,

	OpcodeF32Abs: kindUnopF32, OpcodeF32Neg: kindUnopF32, OpcodeF32Ceil: kindUnopF32, OpcodeF32Floor: kindUnopF32,
	OpcodeF32Trunc: kindUnopF32, OpcodeF32Nearest: kindUnopF32, OpcodeF32Sqrt: kindUnopF32,
	OpcodeF32Add: kindBinopF32, OpcodeF32Sub: kindBinopF32, OpcodeF32Mul: kindBinopF32, OpcodeF32Div: kindBinopF32,
	OpcodeF32Min: kindBinopF32, OpcodeF32Max: kindBinopF32, OpcodeF32Copysign: kindBinopF32,

	OpcodeF64Abs: kindUnopF64, OpcodeF64Neg: kindUnopF64, OpcodeF64Ceil: kindUnopF64, OpcodeF64Floor: kindUnopF64,
	OpcodeF64Trunc: kindUnopF64, OpcodeF64Nearest: kindUnopF64, OpcodeF64Sqrt: kindUnopF64,
	OpcodeF64Add: kindBinopF64, OpcodeF64Sub: kindBinopF64, OpcodeF64Mul: kindBinopF64, OpcodeF64Div: kindBinopF64,
	OpcodeF64Min: kindBinopF64, OpcodeF64Max: kindBinopF64, OpcodeF64Copysign: kindBinopF64,

	OpcodeI32WrapI64:     kindCvtI32FromI64,
	OpcodeI32TruncF32S:   kindCvtI32FromF32,
	OpcodeI32TruncF32U:   kindCvtI32FromF32,
	OpcodeI32TruncF64S:   kindCvtI32FromF64,
	OpcodeI32TruncF64U:   kindCvtI32FromF64,
	OpcodeI64ExtendI32S:  kindCvtI64FromI32,
	OpcodeI64ExtendI32U:  kindCvtI64FromI32,
	OpcodeI64TruncF32S:   kindCvtI64FromF32,
	OpcodeI64TruncF32U:   kindCvtI64FromF32,
	OpcodeI64TruncF64S:   kindCvtI64FromF64,
	OpcodeI64TruncF64U:   kindCvtI64FromF64,
	OpcodeF32ConvertI32S: kindCvtF32FromI32,
	OpcodeF32ConvertI32U: kindCvtF32FromI32,
	OpcodeF32ConvertI64S: kindCvtF32FromI64,
	OpcodeF32ConvertI64U: kindCvtF32FromI64,
	OpcodeF32DemoteF64:   kindCvtF32FromF64,
	OpcodeF64ConvertI32S: kindCvtF64FromI32,
	OpcodeF64ConvertI32U: kindCvtF64FromI32,
	OpcodeF64ConvertI64S: kindCvtF64FromI64,
	OpcodeF64ConvertI64U: kindCvtF64FromI64,
	OpcodeF64PromoteF32:  kindCvtF64FromF32,

	OpcodeI32ReinterpretF32: kindCvtI32FromF32Bits,
	OpcodeI64ReinterpretF64: kindCvtI64FromF64Bits,
	OpcodeF32ReinterpretI32: kindCvtF32FromI32Bits,
	OpcodeF64ReinterpretI64: kindCvtF64FromI64Bits,
}

var errInvalidConstExprOpcode = errors.New("opcode is not valid in a constant expression")

func decodeVarU32(r *byteReader) (uint32, uint64, error) { return leb128.DecodeUint32(r) }
func decodeVarI32(r *byteReader) (int32, uint64, error)  { return leb128.DecodeInt32(r) }
func decodeVarI64(r *byteReader) (int64, uint64, error)  { return leb128.DecodeInt64(r) }

func decodeFloat32(r *byteReader) (float32, uint64, error) {
	var b [4]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return 0, 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b[:])), uint64(n), nil
}

func decodeFloat64(r *byteReader) (float64, uint64, error) {
	var b [8]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return 0, 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), uint64(n), nil
}

// byteReader adapts a byte slice to io.Reader for the leb128 package
// without allocating a bytes.Reader per call site.
type byteReader struct {
	b   []byte
	pos int
}

func newByteReader(b []byte) *byteReader { return &byteReader{b: b} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, errTruncatedBody
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

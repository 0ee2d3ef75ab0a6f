// Package interpreter executes the preprocessed function bodies produced by
// wasm.Validate: a straightforward stack machine with no label stack of its
// own, since every branch already carries its resolved target, arity and
// operand-stack height from preprocessing.
package interpreter

import (
	"context"
	"math"

	"github.com/fizzygo/fizzy/internal/wasm"
)

func init() {
	wasm.SetExecutor(func(inst *wasm.Instance, funcIdx uint32) wasm.ExecutionResult {
		return Execute(context.Background(), inst, funcIdx, nil)
	})
}

// trapSignal unwinds the Go call stack back to Execute's recover, carrying
// the reason a Wasm instruction's preconditions were violated.
type trapSignal struct{ err error }

// Execute invokes the funcIdx-th function of inst with args (already in the
// universal uint64 representation) and runs it to completion, a trap, or a
// host-call-stack-overflow. It never returns a Go error: every failure mode
// Wasm itself defines shows up as Trapped in the result. ctx is checked for
// cancellation at every function call boundary (not per instruction), so a
// canceled context stops a long-running Execute at its next call rather than
// immediately.
func Execute(ctx context.Context, inst *wasm.Instance, funcIdx uint32, args []uint64) (result wasm.ExecutionResult) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(trapSignal); ok {
				result = wasm.Trap()
				return
			}
			panic(r)
		}
	}()
	m := &machine{instance: inst, ctx: ctx}
	results := m.call(funcIdx, args)
	if len(results) == 0 {
		return wasm.ExecutionResult{}
	}
	return wasm.ExecutionResult{HasValue: true, Value: results[0]}
}

// machine holds the state shared by every nested call within one top-level
// Execute invocation: the instance being run and the current call depth.
// Each Wasm-level call gets its own operand stack and locals slice on the
// Go call stack, via recursion through call/run -- there is no single
// shared operand-stack array, since call depth is bounded by
// wasm.CallStackCeiling and recursion keeps frame bookkeeping trivial.
type machine struct {
	instance *wasm.Instance
	depth    int
	ctx      context.Context
}

func trap(err error) {
	panic(trapSignal{err})
}

// call invokes funcIdx (imported or local) with args and returns its
// results (zero or one value, this package's uint64 representation).
func (m *machine) call(funcIdx uint32, args []uint64) []uint64 {
	m.depth++
	if m.depth > wasm.CallStackCeiling {
		trap(wasm.ErrRuntimeCallStackOverflow)
	}
	if m.ctx.Err() != nil {
		trap(wasm.ErrRuntimeContextCanceled)
	}
	defer func() { m.depth-- }()

	if funcIdx < m.instance.Module.ImportedFunctionCount() {
		ef := m.instance.ImportedFunctions[funcIdx]
		res := ef.Function(m.instance, args, m.depth)
		if res.Trapped {
			trap(wasm.ErrRuntimeUnreachable)
		}
		if res.HasValue {
			return []uint64{res.Value}
		}
		return nil
	}

	pp := m.instance.Preprocessed(funcIdx)
	ft := m.instance.FunctionType(funcIdx)
	code := m.instance.Module.CodeSection[funcIdx-m.instance.Module.ImportedFunctionCount()]

	locals := make([]uint64, len(ft.Params)+len(code.LocalTypes))
	copy(locals, args)

	r := &runner{machine: m, code: code, pp: pp, locals: locals, stack: make([]uint64, 0, pp.MaxStackHeight)}
	return r.run()
}

// runner executes one function body's preprocessed instruction stream.
type runner struct {
	machine *machine
	code    *wasm.Code
	pp      *wasm.PreprocessedCode
	locals  []uint64
	stack   []uint64
	pc      int
}

func (r *runner) push(v uint64) { r.stack = append(r.stack, v) }

func (r *runner) pop() uint64 {
	v := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return v
}

func (r *runner) pushI32(v int32)     { r.push(uint64(uint32(v))) }
func (r *runner) popI32() int32       { return int32(uint32(r.pop())) }
func (r *runner) popU32() uint32      { return uint32(r.pop()) }
func (r *runner) pushI64(v int64)     { r.push(uint64(v)) }
func (r *runner) popI64() int64       { return int64(r.pop()) }
func (r *runner) popU64() uint64      { return r.pop() }
func (r *runner) pushF32(v float32)   { r.push(uint64(math.Float32bits(v))) }
func (r *runner) popF32() float32     { return math.Float32frombits(uint32(r.pop())) }
func (r *runner) pushF64(v float64)   { r.push(math.Float64bits(v)) }
func (r *runner) popF64() float64     { return math.Float64frombits(r.pop()) }
func (r *runner) pushBool(b bool) {
	if b {
		r.pushI32(1)
	} else {
		r.pushI32(0)
	}
}

// branchTo truncates the operand stack to height and jumps to pc, carrying
// the top arity values across the truncation -- the one operation every
// br/br_if/br_table/return/else-skip reduces to, now that targets are
// precomputed.
func (r *runner) branchTo(target int, arity, height int) {
	saved := append([]uint64(nil), r.stack[len(r.stack)-arity:]...)
	r.stack = r.stack[:height]
	r.stack = append(r.stack, saved...)
	r.pc = target
}

func (r *runner) run() []uint64 {
	body := r.code.Body
	for r.pc < len(body) {
		op := body[r.pc]
		switch op {
		case wasm.OpcodeUnreachable:
			trap(wasm.ErrRuntimeUnreachable)

		case wasm.OpcodeNop:
			r.pc++

		case wasm.OpcodeBlock, wasm.OpcodeLoop:
			r.pc += r.pp.HeaderLen[r.pc]

		case wasm.OpcodeIf:
			cond := r.popI32()
			if cond == 0 {
				r.pc = r.pp.ElseTargets[r.pc]
			} else {
				r.pc += r.pp.HeaderLen[r.pc]
			}

		case wasm.OpcodeElse:
			r.pc = r.pp.ElseFallthroughTargets[r.pc]

		case wasm.OpcodeEnd:
			r.pc++

		case wasm.OpcodeBr:
			t := r.pp.BrTargets[r.pc]
			r.branchTo(t.PC, t.Arity, t.StackHeight)

		case wasm.OpcodeBrIf:
			cond := r.popI32()
			t := r.pp.BrTargets[r.pc]
			if cond != 0 {
				r.branchTo(t.PC, t.Arity, t.StackHeight)
			} else {
				r.pc += r.pp.BrIfLen[r.pc]
			}

		case wasm.OpcodeBrTable:
			idx := r.popU32()
			targets := r.pp.BrTableTargets[r.pc]
			if int(idx) >= len(targets)-1 {
				idx = uint32(len(targets) - 1)
			}
			t := targets[idx]
			r.branchTo(t.PC, t.Arity, t.StackHeight)

		case wasm.OpcodeReturn:
			return r.returnValues()

		case wasm.OpcodeCall:
			idx, n := readU32(body, r.pc+1)
			ft := r.machine.instance.FunctionType(idx)
			args := r.popN(len(ft.Params))
			res := r.machine.call(idx, args)
			for _, v := range res {
				r.push(v)
			}
			r.pc += 1 + n

		case wasm.OpcodeCallIndirect:
			typeIdx, n1 := readU32(body, r.pc+1)
			_, n2 := readU32(body, r.pc+1+n1)
			tableIdx := r.popU32()
			tbl := r.machine.instance.Table
			if tbl == nil || int(tableIdx) >= len(tbl.Elements) {
				trap(wasm.ErrRuntimeInvalidTableAccess)
			}
			elem := tbl.Elements[tableIdx]
			if elem.Type == nil {
				trap(wasm.ErrRuntimeInvalidTableAccess)
			}
			want := r.machine.instance.Module.TypeSection[typeIdx]
			if !elem.Type.EqualsSignature(want.Params, want.Results) {
				trap(wasm.ErrRuntimeIndirectCallTypeMismatch)
			}
			args := r.popN(len(want.Params))
			callee := r.machine
			if elem.Instance != nil && elem.Instance != r.machine.instance {
				callee = &machine{instance: elem.Instance, depth: r.machine.depth, ctx: r.machine.ctx}
			}
			res := callee.call(elem.FuncIdx, args)
			for _, v := range res {
				r.push(v)
			}
			r.pc += 1 + n1 + n2

		case wasm.OpcodeDrop:
			r.pop()
			r.pc++

		case wasm.OpcodeSelect:
			cond := r.popI32()
			v2 := r.pop()
			v1 := r.pop()
			if cond != 0 {
				r.push(v1)
			} else {
				r.push(v2)
			}
			r.pc++

		case wasm.OpcodeLocalGet:
			idx, n := readU32(body, r.pc+1)
			r.push(r.locals[idx])
			r.pc += 1 + n

		case wasm.OpcodeLocalSet:
			idx, n := readU32(body, r.pc+1)
			r.locals[idx] = r.pop()
			r.pc += 1 + n

		case wasm.OpcodeLocalTee:
			idx, n := readU32(body, r.pc+1)
			r.locals[idx] = r.stack[len(r.stack)-1]
			r.pc += 1 + n

		case wasm.OpcodeGlobalGet:
			idx, n := readU32(body, r.pc+1)
			r.push(r.machine.instance.Globals[idx])
			r.pc += 1 + n

		case wasm.OpcodeGlobalSet:
			idx, n := readU32(body, r.pc+1)
			r.machine.instance.Globals[idx] = r.pop()
			r.pc += 1 + n

		default:
			r.pc += r.execValueOrMemoryOp(op, body)
		}
	}
	return r.returnValues()
}

func (r *runner) returnValues() []uint64 {
	arity := r.pp.ResultArity
	if arity == 0 {
		return nil
	}
	return append([]uint64(nil), r.stack[len(r.stack)-arity:]...)
}

func (r *runner) popN(n int) []uint64 {
	if n == 0 {
		return nil
	}
	out := append([]uint64(nil), r.stack[len(r.stack)-n:]...)
	r.stack = r.stack[:len(r.stack)-n]
	return out
}

func readU32(body []byte, pc int) (uint32, int) {
	var v uint32
	var shift uint
	n := 0
	for {
		b := body[pc+n]
		n++
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return v, n
}

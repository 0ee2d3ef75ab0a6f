package wasm

// branchTarget is the fully-resolved destination of one branch edge: the
// absolute body offset to jump to, how many operand-stack values travel
// across the branch, and the operand-stack height the branch must first
// truncate down to (before pushing those values back). Computing this once
// here means Execute never walks label nesting at runtime.
type branchTarget struct {
	PC          int
	Arity       int
	StackHeight int
}

// PreprocessedCode is everything the interpreter needs to run a function
// body without re-validating or re-scanning it: every branch site already
// carries its resolved target, and every block/loop/if header already
// carries the byte length of its immediate so control flow never decodes
// LEB128 at run time.
//
// There is deliberately no label stack here, nor one in the interpreter:
// Wasm control flow is block-structured, so every branch's target height and
// arity are determined entirely by static nesting and can be baked in once,
// during this pass.
type PreprocessedCode struct {
	// BrTargets holds the resolved destination of every br and br_if,
	// keyed by the PC of the br/br_if opcode itself.
	BrTargets map[int]branchTarget

	// BrTableTargets holds the resolved destinations of every br_table,
	// keyed by the PC of the br_table opcode. The final entry is the
	// table's default (fallback) target.
	BrTableTargets map[int][]branchTarget

	// ElseTargets holds, for every `if` opcode PC, the PC to resume at when
	// the condition is false: either the matching else body's first
	// instruction or, absent an else, the instruction after the matching end.
	ElseTargets map[int]int

	// ElseFallthroughTargets holds, for every `else` opcode PC, the PC to
	// jump to when execution reaches it by falling off the end of the true
	// branch (rather than by a taken branch) -- always the matching end+1,
	// skipping the false branch entirely.
	ElseFallthroughTargets map[int]int

	// HeaderLen holds, for every block/loop/if opcode PC, the number of
	// bytes occupied by the opcode plus its blocktype immediate, so the
	// interpreter can skip the header with a single addition.
	HeaderLen map[int]int

	// BrIfLen holds, for every br_if opcode PC, the number of bytes
	// occupied by the opcode plus its label immediate, so the not-taken
	// path can advance pc without re-decoding the immediate.
	BrIfLen map[int]int

	// ResultArity is len(FuncType.Results) for the enclosing function,
	// needed by `return` to know how many operand-stack values survive
	// the unwind back to the caller.
	ResultArity int

	// MaxStackHeight is the largest operand-stack height reached anywhere
	// in the function body, so Execute can preallocate the stack slice.
	MaxStackHeight int
}

// ctrlFrame tracks one nesting level of block/loop/if/function while
// validating and preprocessing a single function body. It exists only
// during this pass; nothing like it survives into PreprocessedCode or into
// the interpreter.
type ctrlFrame struct {
	opcode             Opcode // OpcodeBlock, OpcodeLoop, OpcodeIf, or 0 for the function's outer frame
	blockType          *FuncType
	stackHeightAtEntry int
	unreachable        bool // not set by preprocessFunction; valueTypeStack's unknown marker tracks stack polymorphism

	loopTarget int // for OpcodeLoop: PC of the first instruction in the body (branch target)
	ifPC       int // for OpcodeIf: PC of the `if` opcode itself, to fill in ElseTargets/HeaderLen
	elseSeen   bool

	// pendingEnds collects the PCs of br/br_if/br_table edges that branch to
	// this frame's end, along with which slot to fill in once the matching
	// `end` is reached and the target PC is finally known.
	pendingEnds []pendingBranch
}

type pendingBranch struct {
	instrPC int
	tableAt int // -2 for an else fall-through; -1 for br/br_if; index into the br_table list (or len(list) for the default) otherwise
}

// branchArity returns the arity and (for loop frames) bypasses the usual
// "target is after end" rule: branching to a loop resumes at its start with
// zero values, since the loop's own params were already consumed on entry.
func (f *ctrlFrame) branchArity() int {
	if f.opcode == OpcodeLoop {
		return 0
	}
	return len(f.blockType.Results)
}

// preprocessFunction validates one function body against module and the
// computed index spaces, and on success returns the PreprocessedCode that
// lets the interpreter run it without further analysis. It mirrors the
// teacher's analyzeFunction in spirit -- a single linear pass driving both a
// value-type stack and a control-frame stack -- but resolves every branch
// target to an absolute PC/arity/height here instead of leaving a label
// stack for the interpreter to walk.
func preprocessFunction(module *Module, sig *FuncType, localTypes []ValueType, body []byte) (*PreprocessedCode, error) {
	pp := &PreprocessedCode{
		BrTargets:              map[int]branchTarget{},
		BrTableTargets:         map[int][]branchTarget{},
		ElseTargets:            map[int]int{},
		ElseFallthroughTargets: map[int]int{},
		HeaderLen:              map[int]int{},
		BrIfLen:                map[int]int{},
		ResultArity:            len(sig.Results),
	}

	vs := &valueTypeStack{}
	frames := []*ctrlFrame{{opcode: 0, blockType: sig, stackHeightAtEntry: 0}}

	pc := 0
	for pc < len(body) {
		op := body[pc]
		top := frames[len(frames)-1]

		switch op {
		case OpcodeUnreachable:
			vs.unreachable()
			pc++

		case OpcodeNop:
			pc++

		case OpcodeBlock, OpcodeLoop, OpcodeIf:
			bt, n, err := readBlockType(module, body[pc+1:])
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			pp.HeaderLen[pc] = 1 + n
			if op == OpcodeIf {
				if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
					return nil, &DecodeError{Offset: pc, Err: err}
				}
			}
			vs.pushStackLimit()
			nf := &ctrlFrame{
				opcode:             op,
				blockType:          bt,
				stackHeightAtEntry: vs.height(),
			}
			if op == OpcodeLoop {
				nf.loopTarget = pc + 1 + n
			}
			if op == OpcodeIf {
				nf.ifPC = pc
			}
			frames = append(frames, nf)
			pc += 1 + n

		case OpcodeElse:
			if top.opcode != OpcodeIf {
				return nil, &DecodeError{Offset: pc, Err: errElseWithoutIf}
			}
			if err := vs.popResults(top.blockType.Results, true); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			top.elseSeen = true
			// The false branch, taken when the condition is zero, resumes
			// right after this else opcode -- known immediately, no forward
			// reference needed.
			pp.ElseTargets[top.ifPC] = pc + 1
			// Falling through the true branch to reach `else` instead must
			// skip the false branch entirely; that target (the matching
			// end+1) isn't known until `end` is reached below.
			top.pendingEnds = append(top.pendingEnds, pendingBranch{instrPC: pc, tableAt: -2})
			vs.resetAtStackLimit()
			pc++

		case OpcodeEnd:
			if len(frames) == 1 {
				// End of the function body itself.
				if err := vs.popResults(top.blockType.Results, true); err != nil {
					return nil, &DecodeError{Offset: pc, Err: err}
				}
				resolvePending(pp, top, pc+1, 0, len(top.blockType.Results))
				pc++
				break
			}
			if err := vs.popResults(top.blockType.Results, true); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			vs.popStackLimit()
			for _, t := range top.blockType.Results {
				vs.push(t)
			}
			targetPC := pc + 1
			if top.opcode == OpcodeIf && !top.elseSeen {
				pp.ElseTargets[top.ifPC] = targetPC
			}
			resolvePending(pp, top, targetPC, top.stackHeightAtEntry, len(top.blockType.Results))
			frames = frames[:len(frames)-1]
			pc++

		case OpcodeBr, OpcodeBrIf:
			idx, n, err := readVarU32(body, pc+1)
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			if int(idx) >= len(frames) {
				return nil, &DecodeError{Offset: pc, Err: errBranchDepth}
			}
			if op == OpcodeBrIf {
				if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
					return nil, &DecodeError{Offset: pc, Err: err}
				}
			}
			target := frames[len(frames)-1-int(idx)]
			resultTypes := target.blockType.Results
			if target.opcode == OpcodeLoop {
				resultTypes = nil
			}
			if err := vs.popResults(resultTypes, false); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			if target.opcode == OpcodeLoop {
				pp.BrTargets[pc] = branchTarget{PC: target.loopTarget, Arity: 0, StackHeight: target.stackHeightAtEntry}
			} else {
				target.pendingEnds = append(target.pendingEnds, pendingBranch{instrPC: pc, tableAt: -1})
			}
			if op == OpcodeBr {
				vs.unreachable()
			} else {
				for _, t := range resultTypes {
					vs.push(t)
				}
				pp.BrIfLen[pc] = 1 + n
			}
			pc += 1 + n

		case OpcodeBrTable:
			list, defaultIdx, n, err := readBrTable(body, pc+1)
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			allIdx := append(append([]uint32{}, list...), defaultIdx)
			targets := make([]branchTarget, len(allIdx))
			defaultFrame := frames[len(frames)-1-int(defaultIdx)]
			defaultResults := defaultFrame.blockType.Results
			if defaultFrame.opcode == OpcodeLoop {
				defaultResults = nil
			}
			for i, idx := range allIdx {
				if int(idx) >= len(frames) {
					return nil, &DecodeError{Offset: pc, Err: errBranchDepth}
				}
				f := frames[len(frames)-1-int(idx)]
				results := f.blockType.Results
				if f.opcode == OpcodeLoop {
					results = nil
				}
				if len(results) != len(defaultResults) {
					return nil, &DecodeError{Offset: pc, Err: errBrTableArityMismatch}
				}
				if f.opcode == OpcodeLoop {
					targets[i] = branchTarget{PC: f.loopTarget, Arity: 0, StackHeight: f.stackHeightAtEntry}
				} else {
					f.pendingEnds = append(f.pendingEnds, pendingBranch{instrPC: pc, tableAt: i})
				}
			}
			if err := vs.popResults(defaultResults, false); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			pp.BrTableTargets[pc] = targets
			vs.unreachable()
			pc += 1 + n

		case OpcodeReturn:
			if err := vs.popResults(sig.Results, false); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			vs.unreachable()
			pc++

		case OpcodeCall:
			idx, n, err := readVarU32(body, pc+1)
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			callee := module.TypeOfFunction(idx)
			if callee == nil {
				return nil, &DecodeError{Offset: pc, Err: errInvalidFuncIndex}
			}
			if err := popParamsPushResults(vs, callee); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			pc += 1 + n

		case OpcodeCallIndirect:
			typeIdx, n1, err := readVarU32(body, pc+1)
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			_, n2, err := readVarU32(body, pc+1+n1) // reserved table-index byte, always 0
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			if len(module.TableSection)+int(module.ImportedTableCount()) == 0 {
				return nil, &DecodeError{Offset: pc, Err: errNoTable}
			}
			if int(typeIdx) >= len(module.TypeSection) {
				return nil, &DecodeError{Offset: pc, Err: errInvalidTypeIndex}
			}
			if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			if err := popParamsPushResults(vs, module.TypeSection[typeIdx]); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			pc += 1 + n1 + n2

		case OpcodeDrop:
			if _, err := vs.pop(); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			pc++

		case OpcodeSelect:
			if err := vs.popAndVerifyType(ValueTypeI32); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			v1, err := vs.pop()
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			if err := vs.popAndVerifyType(v1); err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			vs.push(v1)
			pc++

		case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee:
			idx, n, err := readVarU32(body, pc+1)
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			allLocals := append(append([]ValueType{}, sig.Params...), localTypes...)
			if int(idx) >= len(allLocals) {
				return nil, &DecodeError{Offset: pc, Err: errInvalidLocalIndex}
			}
			t := allLocals[idx]
			switch op {
			case OpcodeLocalGet:
				vs.push(t)
			case OpcodeLocalSet:
				if err := vs.popAndVerifyType(t); err != nil {
					return nil, &DecodeError{Offset: pc, Err: err}
				}
			case OpcodeLocalTee:
				if err := vs.popAndVerifyType(t); err != nil {
					return nil, &DecodeError{Offset: pc, Err: err}
				}
				vs.push(t)
			}
			pc += 1 + n

		case OpcodeGlobalGet, OpcodeGlobalSet:
			idx, n, err := readVarU32(body, pc+1)
			if err != nil {
				return nil, &DecodeError{Offset: pc, Err: err}
			}
			gt := globalTypeOf(module, idx)
			if gt == nil {
				return nil, &DecodeError{Offset: pc, Err: errInvalidGlobalIndex}
			}
			if op == OpcodeGlobalGet {
				vs.push(gt.ValType)
			} else {
				if !gt.Mutable {
					return nil, &DecodeError{Offset: pc, Err: errImmutableGlobalSet}
				}
				if err := vs.popAndVerifyType(gt.ValType); err != nil {
					return nil, &DecodeError{Offset: pc, Err: err}
				}
			}
			pc += 1 + n

		default:
			n, err := preprocessValueOrMemoryOp(module, vs, op, pc, body)
			if err != nil {
				return nil, err
			}
			pc += n
		}

		if h := vs.height(); h > pp.MaxStackHeight {
			pp.MaxStackHeight = h
		}
	}

	if len(frames) != 1 {
		return nil, &DecodeError{Offset: pc, Err: errUnclosedBlock}
	}
	return pp, nil
}

// resolvePending fills in every branch edge recorded against frame now that
// its end (or else, for the special tableAt -2 marker) PC is known.
func resolvePending(pp *PreprocessedCode, frame *ctrlFrame, targetPC, stackHeight, arity int) {
	for _, p := range frame.pendingEnds {
		switch {
		case p.tableAt == -2:
			pp.ElseFallthroughTargets[p.instrPC] = targetPC
		case p.tableAt == -1:
			pp.BrTargets[p.instrPC] = branchTarget{PC: targetPC, Arity: arity, StackHeight: stackHeight}
		default:
			list := pp.BrTableTargets[p.instrPC]
			list[p.tableAt] = branchTarget{PC: targetPC, Arity: arity, StackHeight: stackHeight}
			pp.BrTableTargets[p.instrPC] = list
		}
	}
}

func popParamsPushResults(vs *valueTypeStack, ft *FuncType) error {
	for i := len(ft.Params) - 1; i >= 0; i-- {
		if err := vs.popAndVerifyType(ft.Params[i]); err != nil {
			return err
		}
	}
	for _, t := range ft.Results {
		vs.push(t)
	}
	return nil
}

func globalTypeOf(module *Module, idx uint32) *GlobalType {
	if idx < module.ImportedGlobalCount() {
		var seen uint32
		for _, imp := range module.ImportSection {
			if imp.Kind != ExternalKindGlobal {
				continue
			}
			if seen == idx {
				return imp.DescGlobal
			}
			seen++
		}
		return nil
	}
	i := idx - module.ImportedGlobalCount()
	if i >= uint32(len(module.GlobalSection)) {
		return nil
	}
	return module.GlobalSection[i].Type
}

// Package wasmtest holds hand-encoded WebAssembly 1.0 binaries for the
// literal end-to-end scenarios used across this module's own tests and its
// differential conformance tests against other engines. Keeping them here,
// rather than inline in each _test.go, lets the interpreter's test suite and
// the conformance suite exercise byte-for-byte the same modules.
package wasmtest

// AddModule exports add : (i32,i32)->i32 = local.get 0; local.get 1; i32.add.
func AddModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type: (i32,i32)->i32
		0x03, 0x02, 0x01, 0x00, // function 0: type 0
		0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00, // export "add" func 0
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // code
	}
}

// DivModule exports div : (i32,i32)->i32 = local.get 0; local.get 1; i32.div_s.
func DivModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x07, 0x01, 0x03, 'd', 'i', 'v', 0x00, 0x00,
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6d, 0x0b,
	}
}

// Load8Module declares a 1-page memory and exports
// load8 : (i32)->i32 = local.get 0; i32.load8_u offset=0 align=0.
func Load8Module() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f, // type: (i32)->i32
		0x03, 0x02, 0x01, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01, // memory: min=1, no max
		0x07, 0x09, 0x01, 0x05, 'l', 'o', 'a', 'd', '8', 0x00, 0x00,
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x2d, 0x00, 0x00, 0x0b,
	}
}

// CallIncModule imports env.inc : (i32)->i32 and exports
// callinc : (i32)->i32 = local.get 0; call inc.
func CallIncModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f, // type: (i32)->i32
		0x02, 0x0b, 0x01, 0x03, 'e', 'n', 'v', 0x03, 'i', 'n', 'c', 0x00, 0x00, // import env.inc, type 0
		0x03, 0x02, 0x01, 0x00, // function 1 (index after the import): type 0
		0x07, 0x0b, 0x01, 0x07, 'c', 'a', 'l', 'l', 'i', 'n', 'c', 0x00, 0x01, // export "callinc" func 1
		0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b, // call 0 (the import)
	}
}

// StartTrapModule declares a start function that executes unreachable.
func StartTrapModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: ()->()
		0x03, 0x02, 0x01, 0x00,
		0x08, 0x01, 0x00, // start: func 0
		0x0a, 0x05, 0x01, 0x03, 0x00, 0x00, 0x0b, // code: unreachable; end
	}
}

// GrowModule declares memory (1 2) and exports
// grow : (i32)->i32 = local.get 0; memory.grow.
func GrowModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x05, 0x04, 0x01, 0x01, 0x01, 0x02, // memory: min=1, max=2
		0x07, 0x08, 0x01, 0x04, 'g', 'r', 'o', 'w', 0x00, 0x00,
		0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x40, 0x00, 0x0b,
	}
}

// SelectModule exports
// pick : (i32,i32,i32)->i32 = local.get 0; local.get 1; local.get 2; select.
func SelectModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x08, 0x01, 0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f, // type: (i32,i32,i32)->i32
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x08, 0x01, 0x04, 'p', 'i', 'c', 'k', 0x00, 0x00,
		0x0a, 0x0b, 0x01, 0x09, 0x00, 0x20, 0x00, 0x20, 0x01, 0x20, 0x02, 0x1b, 0x0b,
	}
}

// IndirectCallModule declares a table holding one function reference (func
// 0, the S1 add function, signature (i32,i32)->i32) and exports:
//   add       : (i32,i32)->i32          -- the callee, also placed in the table
//   callInd   : (i32,i32,i32)->i32      -- local.get 0; local.get 1; local.get 2; call_indirect (type 0)
//   callBad   : (i32)->i32              -- local.get 0; call_indirect (type 3, ()->i32), a signature mismatch trap
func IndirectCallModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// type section: type0 (i32,i32)->i32, type1 (i32)->i32, type2 (i32,i32,i32)->i32, type3 ()->i32
		0x01, 0x17, 0x04,
		0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
		0x60, 0x01, 0x7f, 0x01, 0x7f,
		0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,
		0x60, 0x00, 0x01, 0x7f,
		// function section: func0 type0 (add), func1 type2 (callInd), func2 type1 (callBad)
		0x03, 0x04, 0x03, 0x00, 0x02, 0x01,
		// table section: funcref, min=1, no max
		0x04, 0x04, 0x01, 0x70, 0x00, 0x01,
		// export section: "add" func0, "callInd" func1, "callBad" func2
		0x07, 0x1b, 0x03,
		0x03, 'a', 'd', 'd', 0x00, 0x00,
		0x07, 'c', 'a', 'l', 'l', 'I', 'n', 'd', 0x00, 0x01,
		0x07, 'c', 'a', 'l', 'l', 'B', 'a', 'd', 0x00, 0x02,
		// element section: table 0, offset i32.const 0, [func 0]
		0x09, 0x07, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x01, 0x00,
		// code section: 3 function bodies
		0x0a, 0x1d, 0x03,
		0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // add: local.get 0; local.get 1; i32.add; end
		0x0b, 0x00, 0x20, 0x00, 0x20, 0x01, 0x20, 0x02, 0x11, 0x00, 0x00, 0x0b, // callInd: call_indirect type0, table0
		0x07, 0x00, 0x20, 0x00, 0x11, 0x03, 0x00, 0x0b, // callBad: local.get 0; call_indirect type3 (mismatch), table0
	}
}

// BrTableModule exports:
//   run : (i32)->()  -- a 3-way br_table over local 0, storing 10/20/30 into
//                       a mutable global depending on which case (0, 1, or
//                       2-and-above/default) is taken
//   get : ()->i32     -- reads that global back
func BrTableModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		// type section: type0 (i32)->(), type1 ()->i32
		0x01, 0x09, 0x02,
		0x60, 0x01, 0x7f, 0x00,
		0x60, 0x00, 0x01, 0x7f,
		// function section: func0 type0 (run), func1 type1 (get)
		0x03, 0x03, 0x02, 0x00, 0x01,
		// global section: one mutable i32 global, init 0
		0x06, 0x06, 0x01, 0x7f, 0x01, 0x41, 0x00, 0x0b,
		// export section: "run" func0, "get" func1
		0x07, 0x0d, 0x02,
		0x03, 'r', 'u', 'n', 0x00, 0x00,
		0x03, 'g', 'e', 't', 0x00, 0x01,
		// code section
		0x0a, 0x2a, 0x02,
		0x23, 0x00, // run: size=35, 0 locals
		0x02, 0x40, // block
		0x02, 0x40, // block
		0x02, 0x40, // block
		0x20, 0x00, // local.get 0
		0x0e, 0x03, 0x00, 0x01, 0x02, 0x02, // br_table 0 1 2 2
		0x0b,       // end (innermost block)
		0x41, 0x0a, // i32.const 10
		0x24, 0x00, // global.set 0
		0x0c, 0x02, // br 2 (function label)
		0x0b,       // end (middle block)
		0x41, 0x14, // i32.const 20
		0x24, 0x00, // global.set 0
		0x0c, 0x01, // br 1 (function label)
		0x0b,       // end (outer block)
		0x41, 0x1e, // i32.const 30
		0x24, 0x00, // global.set 0
		0x0b,       // end (function)
		0x04, 0x00, 0x23, 0x00, 0x0b, // get: size=4, 0 locals, global.get 0; end
	}
}

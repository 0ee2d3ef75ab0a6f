package fizzy

import (
	"github.com/fizzygo/fizzy/api"
	"github.com/fizzygo/fizzy/internal/wasm"
)

// hostContext is the api.HostContext a HostFunction sees: the memory of the
// instance it was called through, and how deep that call nested. It is built
// fresh for each call rather than stored on the Instance, since the instance
// a host import is invoked through is only known at call time (the same
// imported function can back the same import name in more than one
// instance).
type hostContext struct {
	inst  *wasm.Instance
	depth int
}

func (c hostContext) Memory() api.Memory { return instanceMemory{m: c.inst.Memory} }
func (c hostContext) Depth() int         { return c.depth }

// asExternalFunction adapts an embedder's HostFunction, declared with
// signature ft, into the wasm.ExternalFunction shape ResolveInstantiate
// expects. The conversion between api.Value and the interpreter's raw
// uint64 representation is the identity -- both already store i32/f32
// zero-extended and i64/f64 filling all 64 bits -- so this is purely a
// calling-convention and error-to-trap adapter.
func asExternalFunction(ft *wasm.FuncType, hf api.HostFunction) wasm.ExternalFunction {
	return wasm.ExternalFunction{
		Type: ft,
		Function: func(instance *wasm.Instance, args []uint64, depth int) wasm.ExecutionResult {
			apiArgs := make([]api.Value, len(args))
			for i, a := range args {
				apiArgs[i] = api.Value(a)
			}
			result, ok, err := hf(hostContext{inst: instance, depth: depth}, apiArgs)
			if err != nil || (!ok && len(ft.Results) != 0) {
				return wasm.Trap()
			}
			if len(ft.Results) == 0 {
				return wasm.ExecutionResult{}
			}
			return wasm.ExecutionResult{HasValue: true, Value: uint64(result)}
		},
	}
}

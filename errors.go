package fizzy

import "github.com/fizzygo/fizzy/internal/wasm"

// DecodeError and InstantiateError are re-exported so callers outside this
// module can errors.As against them without reaching into internal/wasm,
// which Go's internal/ rule would otherwise forbid.
type (
	DecodeError      = wasm.DecodeError
	InstantiateError = wasm.InstantiateError
)

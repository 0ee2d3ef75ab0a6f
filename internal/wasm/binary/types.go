package binary

import (
	"fmt"

	"github.com/fizzygo/fizzy/internal/wasm"
)

func decodeTypeSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	m.TypeSection = make([]*wasm.FuncType, count)
	for i := range m.TypeSection {
		ft, err := r.readFuncType()
		if err != nil {
			return r.fail(err)
		}
		m.TypeSection[i] = ft
	}
	return nil
}

func (r *reader) readFuncType() (*wasm.FuncType, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if tag != 0x60 {
		return nil, fmt.Errorf("invalid function type tag 0x%x", tag)
	}
	params, err := r.readValueTypeVec()
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	results, err := r.readValueTypeVec()
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	if len(results) > 1 {
		return nil, fmt.Errorf("functions with more than one result are not supported in WebAssembly 1.0")
	}
	return &wasm.FuncType{Params: params, Results: results}, nil
}

func (r *reader) readValueTypeVec() ([]wasm.ValueType, error) {
	n, err := r.readVarU32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.ValueType, n)
	for i := range out {
		t, err := r.readValueType()
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (r *reader) readLimits() (wasm.Limits, error) {
	flag, err := r.readByte()
	if err != nil {
		return wasm.Limits{}, err
	}
	min, err := r.readVarU32()
	if err != nil {
		return wasm.Limits{}, fmt.Errorf("read limits min: %w", err)
	}
	lim := wasm.Limits{Min: min}
	switch flag {
	case 0x00:
	case 0x01:
		max, err := r.readVarU32()
		if err != nil {
			return wasm.Limits{}, fmt.Errorf("read limits max: %w", err)
		}
		if max < min {
			return wasm.Limits{}, fmt.Errorf("limits min %d exceeds max %d", min, max)
		}
		lim.Max = &max
	default:
		return wasm.Limits{}, fmt.Errorf("invalid limits flag 0x%x", flag)
	}
	return lim, nil
}

func (r *reader) readTableType() (*wasm.TableType, error) {
	elemType, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if elemType != 0x70 {
		return nil, fmt.Errorf("invalid table element type 0x%x; only funcref is supported", elemType)
	}
	lim, err := r.readLimits()
	if err != nil {
		return nil, fmt.Errorf("read table limits: %w", err)
	}
	return &wasm.TableType{Limits: lim}, nil
}

func (r *reader) readMemoryType() (*wasm.MemoryType, error) {
	lim, err := r.readLimits()
	if err != nil {
		return nil, fmt.Errorf("read memory limits: %w", err)
	}
	if lim.Min > wasm.MaxPages || (lim.Max != nil && *lim.Max > wasm.MaxPages) {
		return nil, fmt.Errorf("memory size exceeds %d pages", wasm.MaxPages)
	}
	return &wasm.MemoryType{Limits: lim}, nil
}

func (r *reader) readGlobalType() (*wasm.GlobalType, error) {
	vt, err := r.readValueType()
	if err != nil {
		return nil, fmt.Errorf("read global value type: %w", err)
	}
	mutFlag, err := r.readByte()
	if err != nil {
		return nil, fmt.Errorf("read global mutability: %w", err)
	}
	if mutFlag > 1 {
		return nil, fmt.Errorf("invalid global mutability flag 0x%x", mutFlag)
	}
	return &wasm.GlobalType{ValType: vt, Mutable: mutFlag == 1}, nil
}

func decodeTableSection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	if count > 1 {
		return r.fail(fmt.Errorf("WebAssembly 1.0 permits at most one table"))
	}
	m.TableSection = make([]*wasm.TableType, count)
	for i := range m.TableSection {
		tt, err := r.readTableType()
		if err != nil {
			return r.fail(err)
		}
		m.TableSection[i] = tt
	}
	return nil
}

func decodeMemorySection(m *wasm.Module, r *reader) error {
	count, err := r.readVarU32()
	if err != nil {
		return r.fail(err)
	}
	if count > 1 {
		return r.fail(fmt.Errorf("WebAssembly 1.0 permits at most one memory"))
	}
	m.MemorySection = make([]*wasm.MemoryType, count)
	for i := range m.MemorySection {
		mt, err := r.readMemoryType()
		if err != nil {
			return r.fail(err)
		}
		m.MemorySection[i] = mt
	}
	return nil
}

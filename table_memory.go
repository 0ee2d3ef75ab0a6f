package fizzy

import (
	"github.com/fizzygo/fizzy/api"
	"github.com/fizzygo/fizzy/internal/wasm"
)

// NewMemory allocates a standalone linear memory an embedder can supply as
// a memory import, sized minPages initially and never growing past maxPages
// (nil means only pagesLimit bounds it).
func NewMemory(minPages uint32, maxPages *uint32, pagesLimit uint32) *Memory {
	if pagesLimit == 0 {
		pagesLimit = wasm.DefaultMemoryPagesLimit
	}
	limit := pagesLimit
	if maxPages != nil && *maxPages < limit {
		limit = *maxPages
	}
	return &Memory{m: &wasm.Memory{
		Data:       make([]byte, uint64(minPages)*uint64(wasm.PageSize)),
		Limits:     wasm.Limits{Min: minPages, Max: maxPages},
		PagesLimit: limit,
	}}
}

// Size returns the memory's current size, in bytes.
func (m *Memory) Size() uint32 { return uint32(len(m.m.Data)) }

// View returns a bounds-checked api.Memory over m, the same interface a
// host function receives via HostContext.Memory.
func (m *Memory) View() api.Memory { return instanceMemory{m: m.m} }

// NewTable allocates a standalone funcref table an embedder can supply as a
// table import.
func NewTable(minSize uint32, maxSize *uint32) *Table {
	return &Table{t: &wasm.Table{
		Elements: make([]wasm.TableElement, minSize),
		Limits:   wasm.Limits{Min: minSize, Max: maxSize},
	}}
}

// Size returns the table's current element count.
func (t *Table) Size() uint32 { return uint32(len(t.t.Elements)) }

// Package binary decodes the WebAssembly 1.0 binary format into an
// unvalidated wasm.Module. Decode performs only structural parsing --
// section framing, vector lengths, LEB128/IEEE-754 immediates -- and never
// resolves index spaces or type-checks function bodies; that is
// wasm.Validate's job, run once by the top-level Parse.
package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fizzygo/fizzy/internal/leb128"
	"github.com/fizzygo/fizzy/internal/wasm"
)

var (
	magic   = [4]byte{0x00, 0x61, 0x73, 0x6d}
	version = [4]byte{0x01, 0x00, 0x00, 0x00}
)

// reader tracks how many bytes have been consumed from the underlying
// stream, so decode errors can be reported with a byte offset the same way
// the teacher's Reader does.
type reader struct {
	r    io.Reader
	read int
}

func (r *reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.read += n
	return n, err
}

func (r *reader) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readBytes(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *reader) readVarU32() (uint32, error) {
	v, _, err := leb128.DecodeUint32(r)
	return v, err
}

func (r *reader) readVarI32() (int32, error) {
	v, _, err := leb128.DecodeInt32(r)
	return v, err
}

func (r *reader) readVarI64() (int64, error) {
	v, _, err := leb128.DecodeInt64(r)
	return v, err
}

func (r *reader) readName() (string, error) {
	n, err := r.readVarU32()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) fail(err error) error {
	return &wasm.DecodeError{Offset: r.read, Err: err}
}

func sliceReader(b []byte) io.Reader { return bytes.NewReader(b) }

// Decode parses a WebAssembly 1.0 binary module. It returns a *wasm.Module
// with every section populated but Code.Preprocessed left nil; callers must
// run wasm.Validate before instantiating it.
func Decode(in io.Reader) (*wasm.Module, error) {
	r := &reader{r: in}

	var gotMagic, gotVersion [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, r.fail(fmt.Errorf("read magic: %w", err))
	}
	if gotMagic != magic {
		return nil, r.fail(fmt.Errorf("invalid magic number"))
	}
	if _, err := io.ReadFull(r, gotVersion[:]); err != nil {
		return nil, r.fail(fmt.Errorf("read version: %w", err))
	}
	if gotVersion != version {
		return nil, r.fail(fmt.Errorf("unsupported binary version"))
	}

	m := &wasm.Module{ExportSection: map[string]*wasm.Export{}}

	var lastID wasm.SectionID = wasm.SectionIDCustom
	seenNonCustom := false
	for {
		id, err := r.readByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, r.fail(fmt.Errorf("read section id: %w", err))
		}
		size, err := r.readVarU32()
		if err != nil {
			return nil, r.fail(fmt.Errorf("read section size: %w", err))
		}
		body, err := r.readBytes(size)
		if err != nil {
			return nil, r.fail(fmt.Errorf("read section body: %w", err))
		}
		sr := &reader{r: bytes.NewReader(body)}

		if id != wasm.SectionIDCustom {
			if seenNonCustom && id <= lastID {
				return nil, r.fail(fmt.Errorf("sections out of order"))
			}
			lastID = id
			seenNonCustom = true
		}

		if err := decodeSection(m, id, sr); err != nil {
			return nil, err
		}
	}

	countImports(m)
	return m, nil
}

func decodeSection(m *wasm.Module, id wasm.SectionID, r *reader) error {
	switch id {
	case wasm.SectionIDCustom:
		return decodeCustomSection(m, r)
	case wasm.SectionIDType:
		return decodeTypeSection(m, r)
	case wasm.SectionIDImport:
		return decodeImportSection(m, r)
	case wasm.SectionIDFunction:
		return decodeFunctionSection(m, r)
	case wasm.SectionIDTable:
		return decodeTableSection(m, r)
	case wasm.SectionIDMemory:
		return decodeMemorySection(m, r)
	case wasm.SectionIDGlobal:
		return decodeGlobalSection(m, r)
	case wasm.SectionIDExport:
		return decodeExportSection(m, r)
	case wasm.SectionIDStart:
		return decodeStartSection(m, r)
	case wasm.SectionIDElement:
		return decodeElementSection(m, r)
	case wasm.SectionIDCode:
		return decodeCodeSection(m, r)
	case wasm.SectionIDData:
		return decodeDataSection(m, r)
	default:
		return r.fail(fmt.Errorf("unknown section id %d", id))
	}
}

func countImports(m *wasm.Module) {
	wasm.FinalizeImportCounts(m)
}

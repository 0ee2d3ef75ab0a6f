// Package leb128 decodes the variable-length integer encoding used throughout
// the WebAssembly binary format.
// See https://www.w3.org/TR/wasm-core-1/#integers%E2%91%A6
package leb128

import (
	"fmt"
	"io"
)

// DecodeUint32 decodes an unsigned 32-bit LEB128 integer, returning the value
// and the number of bytes consumed.
func DecodeUint32(r io.Reader) (ret uint32, bytesRead uint64, err error) {
	const (
		mask  uint32 = 1 << 7
		mask2        = ^mask
	)
	for shift := 0; shift < 35; shift += 7 {
		b, err := readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		bytesRead++
		ret |= (uint32(b) & mask2) << shift
		if uint32(b)&mask == 0 {
			break
		}
	}
	return
}

// DecodeUint64 decodes an unsigned 64-bit LEB128 integer.
func DecodeUint64(r io.Reader) (ret uint64, bytesRead uint64, err error) {
	const (
		mask  uint64 = 1 << 7
		mask2        = ^mask
	)
	for shift := 0; shift < 70; shift += 7 {
		b, err := readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		bytesRead++
		ret |= (uint64(b) & mask2) << shift
		if uint64(b)&mask == 0 {
			break
		}
	}
	return
}

// DecodeInt32 decodes a signed 32-bit LEB128 integer.
func DecodeInt32(r io.Reader) (ret int32, bytesRead uint64, err error) {
	const (
		mask  int32 = 1 << 7
		mask2       = ^mask
		signBit     = 1 << 6
	)
	var shift int
	var b int32
	for shift < 35 {
		raw, err := readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		b = int32(raw)
		bytesRead++
		ret |= (b & mask2) << shift
		shift += 7
		if b&mask == 0 {
			break
		}
	}
	if shift < 32 && (b&signBit) == signBit {
		ret |= ^0 << shift
	}
	return
}

// DecodeInt64 decodes a signed 64-bit LEB128 integer.
func DecodeInt64(r io.Reader) (ret int64, bytesRead uint64, err error) {
	const (
		mask  int64 = 1 << 7
		mask2       = ^mask
		signBit     = 1 << 6
	)
	var shift int
	var b int64
	for shift < 70 {
		raw, err := readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		b = int64(raw)
		bytesRead++
		ret |= (b & mask2) << shift
		shift += 7
		if b&mask == 0 {
			break
		}
	}
	if shift < 64 && (b&signBit) == signBit {
		ret |= ^0 << shift
	}
	return
}

// DecodeInt33AsInt64 decodes a signed 33-bit LEB128 integer (used for block
// types, where the value space is either a type index or a single negative
// marker byte) sign-extended into an int64.
func DecodeInt33AsInt64(r io.Reader) (ret int64, bytesRead uint64, err error) {
	const (
		mask       int64 = 1 << 7
		mask2            = ^mask
		signBit          = 1 << 6
		valueMask        = 1<<33 - 1
		signExtend       = 1 << 32
		wrap             = valueMask + 1
	)
	var shift int
	var b int64
	for shift < 35 {
		raw, err := readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		b = int64(raw)
		bytesRead++
		ret |= (b & mask2) << shift
		shift += 7
		if b&mask == 0 {
			break
		}
	}
	if shift < 33 && (b&signBit) == signBit {
		ret |= valueMask << shift
	}
	ret &= valueMask
	if ret&signExtend != 0 {
		ret -= wrap
	}
	return ret, bytesRead, nil
}

func readByte(r io.Reader) (byte, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return b[0], nil
}

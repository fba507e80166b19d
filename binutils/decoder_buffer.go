// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package binutils

import (
	"encoding/binary"
)

type BufferDecoder struct {
	buffer   []byte
	position int
}

var _ Decoder = (*BufferDecoder)(nil)

func NewBufferDecoder(buffer []byte) *BufferDecoder {
	return &BufferDecoder{
		buffer: buffer,
	}
}

func (e *BufferDecoder) GetPosition() int {
	return e.position
}

func (e *BufferDecoder) GetLength() int {
	return len(e.buffer) - e.position
}

func (e *BufferDecoder) DecodeUint8() (uint8, error) {
	if e.GetLength() < 1 {
		return 0, ErrUnexpectedEOF
	}
	val := e.buffer[e.position]
	e.position++
	return val, nil
}

func (e *BufferDecoder) DecodeUint16() (uint16, error) {
	if e.GetLength() < 2 {
		return 0, ErrUnexpectedEOF
	}
	val := binary.LittleEndian.Uint16(e.buffer[e.position:])
	e.position += 2
	return val, nil
}

func (e *BufferDecoder) DecodeUint32() (uint32, error) {
	if e.GetLength() < 4 {
		return 0, ErrUnexpectedEOF
	}
	val := binary.LittleEndian.Uint32(e.buffer[e.position:])
	e.position += 4
	return val, nil
}

func (e *BufferDecoder) DecodeUint64() (uint64, error) {
	if e.GetLength() < 8 {
		return 0, ErrUnexpectedEOF
	}
	val := binary.LittleEndian.Uint64(e.buffer[e.position:])
	e.position += 8
	return val, nil
}

// DecodeBytes returns a copy of the next n bytes.
func (e *BufferDecoder) DecodeBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if e.GetLength() < n {
		return nil, ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	copy(buf, e.buffer[e.position:e.position+n])
	e.position += n
	return buf, nil
}

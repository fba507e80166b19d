// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package binutils

import (
	"encoding/binary"
)

type BufferEncoder struct {
	buffer []byte
	start  int
}

var _ Encoder = (*BufferEncoder)(nil)

// NewBufferEncoder creates a new BufferEncoder appending to the provided buffer.
// Positions are relative to the initial length of buffer.
func NewBufferEncoder(buffer []byte) *BufferEncoder {
	return &BufferEncoder{
		buffer: buffer,
		start:  len(buffer),
	}
}

func (e *BufferEncoder) GetPosition() int {
	return len(e.buffer) - e.start
}

// Bytes returns the full buffer including any prefix passed to NewBufferEncoder.
func (e *BufferEncoder) Bytes() []byte {
	return e.buffer
}

func (e *BufferEncoder) Err() error {
	return nil
}

func (e *BufferEncoder) EncodeUint8(v uint8) {
	e.buffer = append(e.buffer, v)
}

func (e *BufferEncoder) EncodeUint16(v uint16) {
	e.buffer = binary.LittleEndian.AppendUint16(e.buffer, v)
}

func (e *BufferEncoder) EncodeUint32(v uint32) {
	e.buffer = binary.LittleEndian.AppendUint32(e.buffer, v)
}

func (e *BufferEncoder) EncodeUint64(v uint64) {
	e.buffer = binary.LittleEndian.AppendUint64(e.buffer, v)
}

func (e *BufferEncoder) EncodeBytes(v []byte) {
	e.buffer = append(e.buffer, v...)
}

func (e *BufferEncoder) EncodeZeroPadding(n int) {
	for i := 0; i < n; i++ {
		e.buffer = append(e.buffer, 0)
	}
}

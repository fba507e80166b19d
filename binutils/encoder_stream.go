// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package binutils

import (
	"encoding/binary"
	"fmt"
	"io"
)

type StreamEncoder struct {
	writer   io.Writer
	position int
	buffer   []byte
	writeErr error
}

var _ Encoder = (*StreamEncoder)(nil)

func NewStreamEncoder(writer io.Writer) *StreamEncoder {
	return &StreamEncoder{
		writer: writer,
		buffer: make([]byte, 0, 32),
	}
}

func (e *StreamEncoder) GetPosition() int {
	return e.position
}

// Err returns the first write error, if any.
func (e *StreamEncoder) Err() error {
	return e.writeErr
}

func (e *StreamEncoder) write(buf []byte) {
	if e.writeErr != nil {
		return
	}
	written, err := e.writer.Write(buf)
	e.position += written
	if err != nil {
		e.writeErr = err
		return
	}
	if written != len(buf) {
		e.writeErr = fmt.Errorf("expected to write %d bytes, wrote %d", len(buf), written)
	}
}

func (e *StreamEncoder) EncodeUint8(v uint8) {
	e.write(append(e.buffer[:0], v))
}

func (e *StreamEncoder) EncodeUint16(v uint16) {
	e.write(binary.LittleEndian.AppendUint16(e.buffer[:0], v))
}

func (e *StreamEncoder) EncodeUint32(v uint32) {
	e.write(binary.LittleEndian.AppendUint32(e.buffer[:0], v))
}

func (e *StreamEncoder) EncodeUint64(v uint64) {
	e.write(binary.LittleEndian.AppendUint64(e.buffer[:0], v))
}

func (e *StreamEncoder) EncodeBytes(v []byte) {
	if len(v) == 0 {
		return
	}
	e.write(v)
}

func (e *StreamEncoder) EncodeZeroPadding(n int) {
	if n <= 0 {
		return
	}
	e.write(make([]byte, n))
}

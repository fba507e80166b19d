// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package binutils

import (
	"encoding/binary"
	"io"
)

const (
	// maxDecoderBufferSize is the maximum buffer size for streaming decode
	maxDecoderBufferSize = 2 * 1024 // 2KB
)

type StreamDecoder struct {
	reader    io.Reader
	streamLen int
	position  int

	// Internal buffer for reading from stream
	buffer    []byte
	bufferPos int // Current read position within buffer
	bufferLen int // Amount of valid data in buffer
}

var _ Decoder = (*StreamDecoder)(nil)

// NewStreamDecoder creates a decoder reading at most totalLen bytes from reader.
func NewStreamDecoder(reader io.Reader, totalLen int) *StreamDecoder {
	// Use smaller buffer for small streams
	bufferSize := maxDecoderBufferSize
	if totalLen < bufferSize {
		bufferSize = totalLen
	}
	if bufferSize < 8 {
		bufferSize = 8 // Minimum size to hold a uint64
	}

	return &StreamDecoder{
		reader:    reader,
		streamLen: totalLen,
		buffer:    make([]byte, bufferSize),
	}
}

func (e *StreamDecoder) GetPosition() int {
	return e.position
}

func (e *StreamDecoder) GetLength() int {
	return e.streamLen - e.position
}

// ensureBuffered ensures at least n bytes are available in the buffer.
// Returns error if not enough data can be read from the stream.
func (e *StreamDecoder) ensureBuffered(n int) error {
	available := e.bufferLen - e.bufferPos
	if available >= n {
		return nil
	}

	needed := n - available

	if len(e.buffer) < n {
		newSize := len(e.buffer) * 2
		if newSize < n {
			newSize = n
		}
		newBuf := make([]byte, newSize)
		copy(newBuf, e.buffer[e.bufferPos:e.bufferLen])
		e.buffer = newBuf
		e.bufferLen = available
		e.bufferPos = 0
	} else if e.bufferPos > 0 {
		copy(e.buffer, e.buffer[e.bufferPos:e.bufferLen])
		e.bufferLen = available
		e.bufferPos = 0
	}

	// read at least what is needed, but prefer filling the buffer
	toRead := len(e.buffer) - e.bufferLen
	if toRead < needed {
		toRead = needed
	}

	remaining := e.streamLen - e.position - available
	if toRead > remaining {
		toRead = remaining
	}

	if toRead < needed {
		return ErrUnexpectedEOF
	}

	readBuf := e.buffer[e.bufferLen : e.bufferLen+toRead]
	n, err := io.ReadAtLeast(e.reader, readBuf, needed)
	e.bufferLen += n
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrUnexpectedEOF
		}
		return err
	}

	return nil
}

func (e *StreamDecoder) take(n int) ([]byte, error) {
	if e.GetLength() < n {
		return nil, ErrUnexpectedEOF
	}
	if err := e.ensureBuffered(n); err != nil {
		return nil, err
	}
	buf := e.buffer[e.bufferPos : e.bufferPos+n]
	e.bufferPos += n
	e.position += n
	return buf, nil
}

func (e *StreamDecoder) DecodeUint8() (uint8, error) {
	buf, err := e.take(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (e *StreamDecoder) DecodeUint16() (uint16, error) {
	buf, err := e.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (e *StreamDecoder) DecodeUint32() (uint32, error) {
	buf, err := e.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (e *StreamDecoder) DecodeUint64() (uint64, error) {
	buf, err := e.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func (e *StreamDecoder) DecodeBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	buf, err := e.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf)
	return out, nil
}

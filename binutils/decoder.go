// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

// Package binutils provides the little-endian byte cursors used to decode and
// encode binary structs.
package binutils

// Decoder is a forward-only cursor over a binary source.
// A failed read never advances the position.
type Decoder interface {
	GetPosition() int // return current position
	GetLength() int   // return remaining length
	DecodeUint8() (uint8, error)
	DecodeUint16() (uint16, error)
	DecodeUint32() (uint32, error)
	DecodeUint64() (uint64, error)
	DecodeBytes(n int) ([]byte, error)
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package binutils

// Encoder is a forward-only little-endian writer.
// Write failures are sticky and reported by Err().
type Encoder interface {
	GetPosition() int
	EncodeUint8(v uint8)
	EncodeUint16(v uint16)
	EncodeUint32(v uint32)
	EncodeUint64(v uint64)
	EncodeBytes(v []byte)
	EncodeZeroPadding(n int)
	Err() error
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.
//go:build cgo
// +build cgo

package hasher

import (
	"fmt"
	"unsafe"

	hashtree "github.com/pk910/hashtree-bindings"
)

func init() {
	FastHashFn = HashtreeHashByteSlice
}

// HashtreeHashByteSlice is the vectorized hashtree implementation of HashFn.
func HashtreeHashByteSlice(digests []byte, chunks []byte) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks)%64 != 0 {
		return ErrChunkSize
	}
	if len(digests)%32 != 0 {
		return fmt.Errorf("digests not multiple of 32 bytes")
	}
	if len(digests) < len(chunks)/2 {
		return fmt.Errorf("%w: need at least %d, got %d", ErrDigestSize, len(chunks)/2, len(digests))
	}
	// We use an unsafe pointer to cast []byte to [][32]byte. The length and
	// capacity of the slice need to be divided accordingly by 32.
	sizeChunks := (len(chunks) >> 5)
	chunkedChunks := unsafe.Slice((*[32]byte)(unsafe.Pointer(&chunks[0])), sizeChunks)

	sizeDigests := (len(digests) >> 5)
	chunkedDigest := unsafe.Slice((*[32]byte)(unsafe.Pointer(&digests[0])), sizeDigests)

	hashtree.Hash(chunkedDigest, chunkedChunks)

	return nil
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

// Package hasher computes SHA-256 merkle roots over encoded structs.
package hasher

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

var (
	ErrChunkSize  = fmt.Errorf("chunks not multiple of 64 bytes")
	ErrDigestSize = fmt.Errorf("not enough digest length")
)

// HashFn hashes consecutive 64 byte chunk pairs of input into 32 byte digests in dst.
type HashFn func(dst []byte, input []byte) error

// FastHashFn is the layer hash function used by Root. Builds with cgo replace
// it with the hashtree implementation.
var FastHashFn HashFn = Sha256HashByteSlice

// Sha256HashByteSlice is the crypto/sha256 implementation of HashFn.
func Sha256HashByteSlice(dst []byte, input []byte) error {
	if len(input)%64 != 0 {
		return ErrChunkSize
	}
	if len(dst) < len(input)/2 {
		return fmt.Errorf("%w: need at least %d, got %d", ErrDigestSize, len(input)/2, len(dst))
	}
	for i := 0; i < len(input); i += 64 {
		sum := sha256.Sum256(input[i : i+64])
		copy(dst[i/2:], sum[:])
	}
	return nil
}

// Root returns the merkle root of data with the byte length mixed in.
func Root(data []byte) ([32]byte, error) {
	return RootWith(FastHashFn, data)
}

// RootWith is like Root but uses the given layer hash function.
//
// data is split into 32 byte chunks (the last one zero padded), the chunk
// count is padded to a power of two with zero chunks and the layers are hashed
// pairwise down to a single chunk. The root is then hashed with the little
// endian data length, so inputs differing only in trailing zeros differ.
func RootWith(hashFn HashFn, data []byte) ([32]byte, error) {
	var root [32]byte

	chunkCount := (len(data) + 31) / 32
	width := 1
	for width < chunkCount {
		width *= 2
	}

	layer := make([]byte, width*32)
	copy(layer, data)

	for len(layer) > 32 {
		next := make([]byte, len(layer)/2)
		if err := hashFn(next, layer); err != nil {
			return root, err
		}
		layer = next
	}

	mixin := make([]byte, 64)
	copy(mixin, layer)
	binary.LittleEndian.PutUint64(mixin[32:], uint64(len(data)))
	if err := hashFn(root[:], mixin); err != nil {
		return root, err
	}
	return root, nil
}

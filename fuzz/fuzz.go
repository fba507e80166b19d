// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

// Package fuzz checks the decode/encode round trip of struct definitions
// against arbitrary input.
package fuzz

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	dynstruct "github.com/pk910/dynamic-struct"
	"github.com/pk910/dynamic-struct/binutils"
)

// Fuzzer runs round trip checks with a shared codec.
type Fuzzer struct {
	ds *dynstruct.DynStruct
}

func NewFuzzer() *Fuzzer {
	return &Fuzzer{
		ds: dynstruct.NewDynStruct(),
	}
}

// FuzzDecode decodes data into a fresh instance of the target type. Input that
// does not decode must leave the instance untouched. Input that decodes must
// re-encode to exactly the consumed bytes.
func (f *Fuzzer) FuzzDecode(target any, data []byte) error {
	targetType := reflect.TypeOf(target)
	if targetType.Kind() != reflect.Ptr {
		return fmt.Errorf("target must be a pointer, got %v", targetType)
	}

	instance := reflect.New(targetType.Elem())
	dec := binutils.NewBufferDecoder(data)
	if err := f.ds.UnmarshalFrom(dec, instance.Interface()); err != nil {
		var decodeErr *dynstruct.StructDecodeError
		if !errors.As(err, &decodeErr) {
			return fmt.Errorf("decode failed without StructDecodeError: %w", err)
		}
		if !instance.Elem().IsZero() {
			return fmt.Errorf("instance modified by failed decode")
		}
		return nil
	}

	consumed := data[:dec.GetPosition()]
	encoded, err := f.ds.Marshal(instance.Interface())
	if err != nil {
		return fmt.Errorf("re-encoding decoded value failed: %w", err)
	}
	if !bytes.Equal(encoded, consumed) {
		return fmt.Errorf("round trip mismatch: decoded %x, encoded %x", consumed, encoded)
	}

	size, err := f.ds.Size(instance.Interface())
	if err != nil {
		return fmt.Errorf("size failed: %w", err)
	}
	if size != len(consumed) {
		return fmt.Errorf("size mismatch: %v != %v", size, len(consumed))
	}
	return nil
}

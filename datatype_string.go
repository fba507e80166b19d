// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/pk910/dynamic-struct/binutils"
)

// prefixedStringType is a string preceded by its byte length (str16, str32).
type prefixedStringType struct {
	tag        string
	prefixSize int
}

func (t *prefixedStringType) Tag() string          { return t.tag }
func (t *prefixedStringType) Size() int            { return -1 }
func (t *prefixedStringType) GoType() reflect.Type { return reflect.TypeOf("") }
func (t *prefixedStringType) Zero() any            { return "" }

func (t *prefixedStringType) MinSize() int { return t.prefixSize }

func (t *prefixedStringType) maxLen() uint64 {
	return (uint64(1) << uint(t.prefixSize*8)) - 1
}

func (t *prefixedStringType) Convert(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
	s := rv.String()
	if uint64(len(s)) > t.maxLen() {
		return nil, fmt.Errorf("%w: string of %v bytes exceeds %v", ErrValueRange, len(s), t.tag)
	}
	return s, nil
}

func (t *prefixedStringType) ParseDefault(s string) (any, error) {
	return t.Convert(s)
}

func (t *prefixedStringType) Decode(dec binutils.Decoder) (any, error) {
	var length int
	if t.prefixSize == 2 {
		l, err := dec.DecodeUint16()
		if err != nil {
			return nil, err
		}
		length = int(l)
	} else {
		l, err := dec.DecodeUint32()
		if err != nil {
			return nil, err
		}
		if uint64(l) > uint64(dec.GetLength()) {
			return nil, fmt.Errorf("%w: string length %v exceeds remaining %v bytes", binutils.ErrUnexpectedEOF, l, dec.GetLength())
		}
		length = int(l)
	}

	buf, err := dec.DecodeBytes(length)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (t *prefixedStringType) Encode(enc binutils.Encoder, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
	if uint64(len(s)) > t.maxLen() {
		return fmt.Errorf("%w: string of %v bytes exceeds %v", ErrValueRange, len(s), t.tag)
	}
	if t.prefixSize == 2 {
		enc.EncodeUint16(uint16(len(s)))
	} else {
		enc.EncodeUint32(uint32(len(s)))
	}
	enc.EncodeBytes([]byte(s))
	return nil
}

func (t *prefixedStringType) EncodedSize(value any) int {
	s, _ := value.(string)
	return t.prefixSize + len(s)
}

// fixedStringType is a NUL padded string of a fixed byte size (char<N>).
// Trailing NULs are stripped on decode, so values must not end with one.
type fixedStringType struct {
	tag  string
	size int
}

func (t *fixedStringType) Tag() string          { return t.tag }
func (t *fixedStringType) Size() int            { return t.size }
func (t *fixedStringType) GoType() reflect.Type { return reflect.TypeOf("") }
func (t *fixedStringType) Zero() any            { return "" }

func (t *fixedStringType) Convert(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
	s := rv.String()
	if len(s) > t.size {
		return nil, fmt.Errorf("%w: string of %v bytes exceeds %v", ErrValueRange, len(s), t.tag)
	}
	if strings.HasSuffix(s, "\x00") {
		return nil, fmt.Errorf("%w: trailing NUL in %v value", ErrValueType, t.tag)
	}
	return s, nil
}

func (t *fixedStringType) ParseDefault(s string) (any, error) {
	return t.Convert(s)
}

func (t *fixedStringType) Decode(dec binutils.Decoder) (any, error) {
	buf, err := dec.DecodeBytes(t.size)
	if err != nil {
		return nil, err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

func (t *fixedStringType) Encode(enc binutils.Encoder, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
	if len(s) > t.size {
		return fmt.Errorf("%w: string of %v bytes exceeds %v", ErrValueRange, len(s), t.tag)
	}
	enc.EncodeBytes([]byte(s))
	enc.EncodeZeroPadding(t.size - len(s))
	return nil
}

func (t *fixedStringType) EncodedSize(value any) int {
	return t.size
}

// fixedBytesType is an opaque byte block of a fixed size (bytes<N>).
type fixedBytesType struct {
	tag  string
	size int
}

func (t *fixedBytesType) Tag() string          { return t.tag }
func (t *fixedBytesType) Size() int            { return t.size }
func (t *fixedBytesType) GoType() reflect.Type { return reflect.TypeOf([]byte{}) }

func (t *fixedBytesType) Zero() any {
	return make([]byte, t.size)
}

func (t *fixedBytesType) Convert(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
	buf := rv.Bytes()
	if len(buf) != t.size {
		return nil, fmt.Errorf("%w: %v bytes for %v", ErrValueRange, len(buf), t.tag)
	}
	out := make([]byte, t.size)
	copy(out, buf)
	return out, nil
}

// ParseDefault accepts a hex string, with or without 0x prefix.
func (t *fixedBytesType) ParseDefault(s string) (any, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValueType, err)
	}
	return t.Convert(buf)
}

func (t *fixedBytesType) Decode(dec binutils.Decoder) (any, error) {
	return dec.DecodeBytes(t.size)
}

func (t *fixedBytesType) Encode(enc binutils.Encoder, value any) error {
	buf, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
	if len(buf) != t.size {
		return fmt.Errorf("%w: %v bytes for %v", ErrValueRange, len(buf), t.tag)
	}
	enc.EncodeBytes(buf)
	return nil
}

func (t *fixedBytesType) EncodedSize(value any) int {
	return t.size
}

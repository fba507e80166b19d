// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"fmt"
)

var (
	ErrUnknownDataType    = fmt.Errorf("unknown data type")
	ErrDuplicateDataType  = fmt.Errorf("data type already registered")
	ErrValueType          = fmt.Errorf("value has wrong type")
	ErrValueRange         = fmt.Errorf("value out of range")
	ErrInvalidValue       = fmt.Errorf("invalid encoded value")
	ErrRepeatCount        = fmt.Errorf("invalid repeat count")
	ErrEmptyStruct        = fmt.Errorf("struct has no retrievers")
	ErrDuplicateRetriever = fmt.Errorf("duplicate retriever name")
	ErrDefaultsMismatch   = fmt.Errorf("defaults do not match retrievers")
	ErrUnknownField       = fmt.Errorf("unknown field")
	ErrMissingField       = fmt.Errorf("missing field")
)

// DataTypeError is returned for definition-time problems: unknown type tags,
// defaults that do not fit their data type, malformed struct layouts.
type DataTypeError struct {
	Struct string
	Field  string
	Tag    string
	Err    error
}

func (e *DataTypeError) Error() string {
	msg := "data type error"
	if e.Struct != "" {
		msg += fmt.Sprintf(" in struct %v", e.Struct)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %v", e.Field)
	}
	if e.Tag != "" {
		msg += fmt.Sprintf(" (type %v)", e.Tag)
	}
	return fmt.Sprintf("%v: %v", msg, e.Err)
}

func (e *DataTypeError) Unwrap() error {
	return e.Err
}

// StructDecodeError reports the struct, field and byte offset where decoding failed.
type StructDecodeError struct {
	Struct string
	Field  string
	Offset int
	Err    error
}

func (e *StructDecodeError) Error() string {
	return fmt.Sprintf("failed decoding struct %v field %v at offset %v: %v", e.Struct, e.Field, e.Offset, e.Err)
}

func (e *StructDecodeError) Unwrap() error {
	return e.Err
}

// StructEncodeError reports the struct and field whose value could not be encoded.
type StructEncodeError struct {
	Struct string
	Field  string
	Err    error
}

func (e *StructEncodeError) Error() string {
	return fmt.Sprintf("failed encoding struct %v field %v: %v", e.Struct, e.Field, e.Err)
}

func (e *StructEncodeError) Unwrap() error {
	return e.Err
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"fmt"
)

// Record is an instance of a record StructDef. It holds one value per
// retriever, in layout order. Repeated retrievers hold []any, nested record
// structs hold *Record.
//
// A Record is always complete: every retriever has a value.
type Record struct {
	def    *StructDef
	values []any
}

// Def returns the struct definition of the record.
func (r *Record) Def() *StructDef {
	return r.def
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (any, bool) {
	idx, found := r.def.index[name]
	if !found {
		return nil, false
	}
	return r.values[idx], true
}

// Set validates value against the field's data type and stores it.
func (r *Record) Set(name string, value any) error {
	idx, found := r.def.index[name]
	if !found {
		return fmt.Errorf("%w: %v in struct %v", ErrUnknownField, name, r.def.name)
	}

	converted, err := r.def.retrievers[idx].convert(value)
	if err != nil {
		return fmt.Errorf("field %v: %w", name, err)
	}
	r.values[idx] = converted
	return nil
}

// Names returns the field names in layout order.
func (r *Record) Names() []string {
	return r.def.Names()
}

// Values returns the field values in layout order.
func (r *Record) Values() []any {
	values := make([]any, len(r.values))
	copy(values, r.values)
	return values
}

// Map returns the field values keyed by name.
func (r *Record) Map() map[string]any {
	fields := make(map[string]any, len(r.values))
	for i, retriever := range r.def.retrievers {
		fields[retriever.name] = r.values[i]
	}
	return fields
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	values := make([]any, len(r.values))
	for i, value := range r.values {
		values[i] = cloneValue(value)
	}
	return &Record{def: r.def, values: values}
}

// Encode serializes the record with the global codec.
func (r *Record) Encode() ([]byte, error) {
	return GetGlobalDynStruct().Marshal(r)
}

// recordFromData builds a record from a pre-decoded field mapping. The mapping
// must contain every retriever and nothing else.
func recordFromData(def *StructDef, data map[string]any) (*Record, error) {
	values, err := def.valuesFromData(data)
	if err != nil {
		return nil, err
	}
	return &Record{def: def, values: values}, nil
}

func (s *StructDef) valuesFromData(data map[string]any) ([]any, error) {
	for key := range data {
		if _, found := s.index[key]; !found {
			return nil, &StructDecodeError{Struct: s.name, Field: key, Err: ErrUnknownField}
		}
	}

	values := make([]any, len(s.retrievers))
	for i, retriever := range s.retrievers {
		value, found := data[retriever.name]
		if !found {
			return nil, &StructDecodeError{Struct: s.name, Field: retriever.name, Err: ErrMissingField}
		}
		converted, err := retriever.convert(value)
		if err != nil {
			return nil, &StructDecodeError{Struct: s.name, Field: retriever.name, Err: err}
		}
		values[i] = converted
	}
	return values, nil
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"fmt"
	"io"

	"github.com/pk910/dynamic-struct/binutils"
)

// Marshal encodes source, a typed struct (or pointer to one) or a *Record.
func (d *DynStruct) Marshal(source any) ([]byte, error) {
	return d.MarshalTo(source, nil)
}

// MarshalTo appends the encoding of source to buf.
func (d *DynStruct) MarshalTo(source any, buf []byte) ([]byte, error) {
	enc := binutils.NewBufferEncoder(buf)
	if err := d.MarshalEncoder(source, enc); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// MarshalWriter streams the encoding of source to w.
func (d *DynStruct) MarshalWriter(source any, w io.Writer) error {
	return d.MarshalEncoder(source, binutils.NewStreamEncoder(w))
}

// MarshalEncoder writes source to a shared encoder, e.g. when a file writer
// encodes several structs back to back.
func (d *DynStruct) MarshalEncoder(source any, enc binutils.Encoder) error {
	def, err := d.GetStructDef(source)
	if err != nil {
		return err
	}

	values, err := def.valuesOf(source)
	if err != nil {
		return &StructEncodeError{Struct: def.name, Err: err}
	}

	if _, err := d.encodeValues(def, values, enc, 0); err != nil {
		return err
	}
	return enc.Err()
}

// Size returns the encoded size of source. source is validated the same way
// Marshal does, so Size fails for values that cannot be encoded.
func (d *DynStruct) Size(source any) (int, error) {
	enc := binutils.NewStreamEncoder(io.Discard)
	if err := d.MarshalEncoder(source, enc); err != nil {
		return 0, err
	}
	return enc.GetPosition(), nil
}

// encodeValues encodes the values of def in layout order and returns them as
// normalized by the data types.
func (d *DynStruct) encodeValues(def *StructDef, values []any, enc binutils.Encoder, idt int) ([]any, error) {
	if len(values) != len(def.retrievers) {
		return nil, &StructEncodeError{Struct: def.name, Err: fmt.Errorf("%w: %v values for %v retrievers", ErrValueType, len(values), len(def.retrievers))}
	}

	if d.Verbose {
		d.logf(idt, "struct: %v\t offset: %v", def.name, enc.GetPosition())
	}

	normalized := make([]any, len(values))
	for i, retriever := range def.retrievers {
		offset := enc.GetPosition()
		value, err := d.encodeRetriever(def, retriever, values[i], normalized[:i], enc, idt+2)
		if err != nil {
			return nil, &StructEncodeError{Struct: def.name, Field: retriever.name, Err: err}
		}
		normalized[i] = value

		if d.Verbose {
			d.logf(idt+2, "field: %v\t type: %v\t offset: %v\t size: %v", retriever.name, retriever.dataType.Tag(), offset, enc.GetPosition()-offset)
		}
	}

	return normalized, nil
}

func (d *DynStruct) encodeRetriever(def *StructDef, retriever *Retriever, value any, prior []any, enc binutils.Encoder, idt int) (any, error) {
	if retriever.repeat == "" {
		return d.encodeElement(retriever.dataType, value, enc, idt)
	}

	items, ok := value.([]any)
	if !ok {
		converted, err := retriever.convert(value)
		if err != nil {
			return nil, err
		}
		items = converted.([]any)
	}

	count, err := d.repeatCount(def, retriever, prior)
	if err != nil {
		return nil, err
	}
	if len(items) != count {
		return nil, fmt.Errorf("%w: got %v items, %q evaluates to %v", ErrRepeatCount, len(items), retriever.repeat, count)
	}

	normalized := make([]any, len(items))
	for i, item := range items {
		value, err := d.encodeElement(retriever.dataType, item, enc, idt)
		if err != nil {
			return nil, fmt.Errorf("item %v: %w", i, err)
		}
		normalized[i] = value
	}
	return normalized, nil
}

func (d *DynStruct) encodeElement(dataType DataType, value any, enc binutils.Encoder, idt int) (any, error) {
	if nested, ok := dataType.(*structType); ok {
		instance, err := nested.Convert(value)
		if err != nil {
			return nil, err
		}
		values, err := nested.def.valuesOf(instance)
		if err != nil {
			return nil, err
		}
		if _, err := d.encodeValues(nested.def, values, enc, idt); err != nil {
			return nil, err
		}
		return instance, nil
	}

	converted, err := dataType.Convert(value)
	if err != nil {
		return nil, err
	}
	if err := dataType.Encode(enc, converted); err != nil {
		return nil, err
	}
	return converted, nil
}

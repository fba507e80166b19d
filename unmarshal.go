// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"fmt"
	"io"

	"github.com/pk910/dynamic-struct/binutils"
)

var ErrTrailingData = fmt.Errorf("did not consume full data range")

const maxRepeatPrealloc = 1024

// Unmarshal decodes data into target, a pointer to a typed struct or a *Record.
// data must contain exactly one encoded struct.
//
// Decoding is all-or-nothing: on error target is left untouched.
func (d *DynStruct) Unmarshal(data []byte, target any) error {
	return d.unmarshalAll(binutils.NewBufferDecoder(data), target)
}

// UnmarshalFrom decodes the next struct from a shared cursor. The cursor
// advances by exactly the encoded size of the struct.
func (d *DynStruct) UnmarshalFrom(dec binutils.Decoder, target any) error {
	return d.Construct(target, dec, nil, nil)
}

// UnmarshalReader decodes a struct from the next size bytes of r.
func (d *DynStruct) UnmarshalReader(r io.Reader, size int, target any) error {
	return d.unmarshalAll(binutils.NewStreamDecoder(r, size), target)
}

// unmarshalAll decodes target and requires dec to be fully consumed.
func (d *DynStruct) unmarshalAll(dec binutils.Decoder, target any) error {
	def, err := d.targetDef(target)
	if err != nil {
		return err
	}

	values, err := d.decodeValues(def, dec, 0)
	if err != nil {
		return err
	}
	if dec.GetLength() != 0 {
		return fmt.Errorf("%w: %v bytes left", ErrTrailingData, dec.GetLength())
	}

	return d.store(def, target, values)
}

// decodeValues decodes all retrievers of def in layout order.
func (d *DynStruct) decodeValues(def *StructDef, dec binutils.Decoder, idt int) ([]any, error) {
	if d.Verbose {
		d.logf(idt, "struct: %v\t offset: %v", def.name, dec.GetPosition())
	}

	values := make([]any, len(def.retrievers))
	for i, retriever := range def.retrievers {
		offset := dec.GetPosition()
		value, err := d.decodeRetriever(def, retriever, values[:i], dec, idt+2)
		if err != nil {
			return nil, &StructDecodeError{Struct: def.name, Field: retriever.name, Offset: offset, Err: err}
		}
		values[i] = value

		if d.Verbose {
			d.logf(idt+2, "field: %v\t type: %v\t offset: %v\t size: %v", retriever.name, retriever.dataType.Tag(), offset, dec.GetPosition()-offset)
		}
	}

	return values, nil
}

func (d *DynStruct) decodeRetriever(def *StructDef, retriever *Retriever, prior []any, dec binutils.Decoder, idt int) (any, error) {
	if retriever.repeat == "" {
		return d.decodeElement(retriever.dataType, dec, idt)
	}

	count, err := d.repeatCount(def, retriever, prior)
	if err != nil {
		return nil, err
	}

	// reject counts that cannot fit the remaining data before allocating
	if minSize := minEncodedSize(retriever.dataType); minSize > 0 && count > dec.GetLength()/minSize {
		return nil, fmt.Errorf("%w: %v items of at least %v bytes exceed remaining %v bytes", binutils.ErrUnexpectedEOF, count, minSize, dec.GetLength())
	}

	// elements of unknown minimum size grow the slice as they are decoded
	items := make([]any, 0, min(count, maxRepeatPrealloc))
	for i := 0; i < count; i++ {
		item, err := d.decodeElement(retriever.dataType, dec, idt)
		if err != nil {
			return nil, fmt.Errorf("item %v: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *DynStruct) decodeElement(dataType DataType, dec binutils.Decoder, idt int) (any, error) {
	if nested, ok := dataType.(*structType); ok {
		values, err := d.decodeValues(nested.def, dec, idt)
		if err != nil {
			return nil, err
		}
		return nested.def.newInstance(values), nil
	}
	return dataType.Decode(dec)
}

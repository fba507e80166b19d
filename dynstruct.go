// Package dynstruct provides declarative binary struct encoding and decoding.
//
// A struct layout is described as an ordered list of retrievers, each binding
// a field name to a data type (e.g. "u32", "f32", "str16"). The declared order
// is the binary layout: fields are decoded, stored and encoded in exactly that
// order. Layouts are declared either as Go structs with `retriever` tags
// (typed structs) or at runtime with NewStructDef (records).
//
// Copyright (c) 2025 by pk910. See LICENSE file for details.
package dynstruct

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pk910/dynamic-struct/binutils"
)

// DynStruct is the decoder/encoder for typed structs and records.
//
// The instance caches struct definitions of Go types, so it should be reused.
// It is safe for concurrent use; a single decode or encode call is sequential.
//
// Example usage:
//
//	type PlayerDataFour struct {
//	    FoodDuplicate   float32 `retriever:"food_duplicate,f32"`
//	    PopulationLimit float32 `retriever:"population_limit,f32" default:"200"`
//	}
//
//	ds := dynstruct.NewDynStruct()
//
//	var pd PlayerDataFour
//	err := ds.Unmarshal(data, &pd)
//
//	out, err := ds.Marshal(&pd)
type DynStruct struct {
	typeCache  *TypeCache
	specValues map[string]any

	// Verbose enables a per-field trace of decode and encode operations.
	Verbose bool

	// LogCb receives the verbose trace. Defaults to fmt.Printf.
	LogCb func(format string, args ...any)
}

// NewDynStruct creates a new codec instance.
func NewDynStruct(opts ...DynStructOption) *DynStruct {
	options := &DynStructOptions{}
	for _, opt := range opts {
		opt(options)
	}

	specs := options.SpecValues
	if specs == nil {
		specs = map[string]any{}
	}

	ds := &DynStruct{
		specValues: specs,
		Verbose:    options.Verbose,
		LogCb:      options.LogCb,
	}
	ds.typeCache = NewTypeCache(ds)

	return ds
}

// GetTypeCache returns the cache of struct definitions built from Go types.
func (d *DynStruct) GetTypeCache() *TypeCache {
	return d.typeCache
}

// GetStructDef returns the struct definition of a typed struct.
// target may be a struct value, a pointer to one, or a reflect.Type.
func (d *DynStruct) GetStructDef(target any) (*StructDef, error) {
	var t reflect.Type
	switch v := target.(type) {
	case reflect.Type:
		t = v
	case *Record:
		if v == nil || v.def == nil {
			return nil, fmt.Errorf("%w: record without struct definition", ErrValueType)
		}
		return v.def, nil
	default:
		t = reflect.TypeOf(target)
	}
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil target", ErrValueType)
	}
	return d.typeCache.GetStructDef(t)
}

// Construct initializes target the same way a record struct is constructed:
// from source if given, else from the pre-decoded data mapping, else from the
// struct defaults (with pieces as context).
//
// target must be a pointer to a typed struct or a *Record. On error target is
// left untouched.
func (d *DynStruct) Construct(target any, source binutils.Decoder, data map[string]any, pieces *Pieces) error {
	def, err := d.targetDef(target)
	if err != nil {
		return err
	}

	var values []any
	switch {
	case source != nil:
		values, err = d.decodeValues(def, source, 0)
	case data != nil:
		values, err = def.valuesFromData(data)
	default:
		values, err = def.defaultValues(pieces)
	}
	if err != nil {
		return err
	}

	return d.store(def, target, values)
}

// Defaults initializes target with the struct defaults.
func (d *DynStruct) Defaults(target any, pieces *Pieces) error {
	return d.Construct(target, nil, nil, pieces)
}

// Init initializes target from a pre-decoded field mapping.
func (d *DynStruct) Init(target any, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	return d.Construct(target, nil, data, nil)
}

// NewRecord constructs a record of def: decoded from source if given, else
// assigned from data, else filled with def.Defaults(pieces).
//
// A decode failure never falls back to defaults.
func (d *DynStruct) NewRecord(def *StructDef, source binutils.Decoder, data map[string]any, pieces *Pieces) (*Record, error) {
	if def.goType != nil {
		return nil, fmt.Errorf("%w: struct %v is bound to %v", ErrValueType, def.name, def.goType)
	}

	switch {
	case source != nil:
		values, err := d.decodeValues(def, source, 0)
		if err != nil {
			return nil, err
		}
		return &Record{def: def, values: values}, nil
	case data != nil:
		return recordFromData(def, data)
	default:
		values, err := def.defaultValues(pieces)
		if err != nil {
			return nil, err
		}
		return &Record{def: def, values: values}, nil
	}
}

// targetDef returns the struct definition of a decode target and checks that
// the target can be written to.
func (d *DynStruct) targetDef(target any) (*StructDef, error) {
	def, err := d.GetStructDef(target)
	if err != nil {
		return nil, err
	}
	if record, isRecord := target.(*Record); isRecord {
		if record.def.goType != nil {
			return nil, fmt.Errorf("%w: struct %v is bound to %v", ErrValueType, def.name, def.goType)
		}
		return def, nil
	}
	if rv := reflect.ValueOf(target); rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, fmt.Errorf("%w: target must be a non-nil pointer, got %T", ErrValueType, target)
	}
	return def, nil
}

// store commits decoded values to target.
func (d *DynStruct) store(def *StructDef, target any, values []any) error {
	if record, ok := target.(*Record); ok {
		record.def = def
		record.values = values
		return nil
	}

	rv := reflect.ValueOf(target)
	for rv.Elem().Kind() == reflect.Ptr {
		if rv.Elem().IsNil() {
			rv.Elem().Set(reflect.New(rv.Elem().Type().Elem()))
		}
		rv = rv.Elem()
	}

	def.assign(rv.Elem(), values)
	return nil
}

func (d *DynStruct) logf(idt int, format string, args ...any) {
	if d.LogCb != nil {
		d.LogCb(strings.Repeat(" ", idt)+format, args...)
		return
	}
	fmt.Printf(strings.Repeat(" ", idt)+format+"\n", args...)
}

// New constructs a typed struct the way Construct does and returns it.
// On error no instance is returned.
func New[T any](d *DynStruct, source binutils.Decoder, data map[string]any, pieces *Pieces) (*T, error) {
	target := new(T)
	if err := d.Construct(target, source, data, pieces); err != nil {
		return nil, err
	}
	return target, nil
}

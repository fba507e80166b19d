// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/pk910/dynamic-struct/binutils"
)

// Defaulter can be implemented by typed structs to supply their default
// values. The returned map must contain exactly one entry per retriever.
type Defaulter interface {
	Defaults(pieces *Pieces) map[string]any
}

// DefaultsFunc builds the defaults table of a struct.
type DefaultsFunc func(pieces *Pieces) map[string]any

// StructDef is the template of a fixed-layout binary record: a name and an
// ordered list of retrievers. The retriever order is the binary layout.
//
// A StructDef either describes a Go struct type (typed structs, see TypeCache)
// or dynamic records (see Record).
type StructDef struct {
	name       string
	retrievers []*Retriever
	index      map[string]int
	goType     reflect.Type
	defaultsFn DefaultsFunc
	size       int
	minSize    int
}

// StructDefOption configures optional StructDef properties.
type StructDefOption func(*StructDef)

// WithDefaultsFunc overrides the per-retriever defaults with a defaults table.
func WithDefaultsFunc(fn DefaultsFunc) StructDefOption {
	return func(def *StructDef) {
		def.defaultsFn = fn
	}
}

// NewStructDef creates a record struct definition.
//
// The retriever list must be non-empty and uniquely named. Repeat expressions
// may only reference retrievers declared before them.
func NewStructDef(name string, retrievers []*Retriever, opts ...StructDefOption) (*StructDef, error) {
	def := &StructDef{
		name:       name,
		retrievers: make([]*Retriever, len(retrievers)),
		index:      make(map[string]int, len(retrievers)),
	}
	copy(def.retrievers, retrievers)
	for _, opt := range opts {
		opt(def)
	}

	if err := def.validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// MustStructDef is like NewStructDef but panics on definition errors.
func MustStructDef(name string, retrievers []*Retriever, opts ...StructDefOption) *StructDef {
	def, err := NewStructDef(name, retrievers, opts...)
	if err != nil {
		panic(err)
	}
	return def
}

func (s *StructDef) validate() error {
	if len(s.retrievers) == 0 {
		return &DataTypeError{Struct: s.name, Err: ErrEmptyStruct}
	}

	s.size = 0
	s.minSize = 0
	for i, retriever := range s.retrievers {
		if retriever == nil || retriever.dataType == nil {
			return &DataTypeError{Struct: s.name, Err: fmt.Errorf("retriever %v has no data type", i)}
		}
		if _, exists := s.index[retriever.name]; exists {
			return &DataTypeError{Struct: s.name, Field: retriever.name, Err: ErrDuplicateRetriever}
		}

		// repeat expressions must not look ahead
		for _, v := range retriever.repeatVars() {
			if v == retriever.name {
				return &DataTypeError{Struct: s.name, Field: retriever.name, Err: fmt.Errorf("repeat expression references itself")}
			}
			for _, later := range s.retrievers[i+1:] {
				if later != nil && later.name == v {
					return &DataTypeError{Struct: s.name, Field: retriever.name, Err: fmt.Errorf("repeat expression references later field %v", v)}
				}
			}
		}

		s.index[retriever.name] = i

		s.minSize += retriever.minSize()

		elemSize := retriever.dataType.Size()
		switch {
		case s.size < 0:
		case elemSize < 0:
			s.size = -1
		case retriever.repeat == "":
			s.size += elemSize
		case retriever.repeatConst >= 0:
			s.size += elemSize * retriever.repeatConst
		default:
			s.size = -1
		}
	}

	if s.defaultsFn != nil {
		if err := s.checkDefaults(s.defaultsFn(nil)); err != nil {
			return err
		}
	}
	return nil
}

// checkDefaults verifies that a defaults table covers exactly the retrievers
// and that every value fits its data type.
func (s *StructDef) checkDefaults(defaults map[string]any) error {
	missing := []string{}
	for _, retriever := range s.retrievers {
		value, found := defaults[retriever.name]
		if !found {
			missing = append(missing, retriever.name)
			continue
		}
		if _, err := retriever.convert(value); err != nil {
			return &DataTypeError{Struct: s.name, Field: retriever.name, Tag: retriever.dataType.Tag(), Err: err}
		}
	}

	extra := []string{}
	for key := range defaults {
		if _, found := s.index[key]; !found {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)

	if len(missing) > 0 || len(extra) > 0 {
		return &DataTypeError{Struct: s.name, Err: fmt.Errorf("%w: missing [%v], unknown [%v]", ErrDefaultsMismatch, strings.Join(missing, ","), strings.Join(extra, ","))}
	}
	return nil
}

// Name returns the human readable struct name.
func (s *StructDef) Name() string {
	return s.name
}

// GoType returns the bound Go struct type, or nil for record definitions.
func (s *StructDef) GoType() reflect.Type {
	return s.goType
}

// Size returns the fixed encoded size, or -1 if the size depends on the values.
func (s *StructDef) Size() int {
	return s.size
}

// MinSize returns the smallest encoded size of any instance.
func (s *StructDef) MinSize() int {
	return s.minSize
}

// Retrievers returns the retrievers in layout order.
func (s *StructDef) Retrievers() []*Retriever {
	retrievers := make([]*Retriever, len(s.retrievers))
	copy(retrievers, s.retrievers)
	return retrievers
}

// Retriever returns the retriever with the given name.
func (s *StructDef) Retriever(name string) (*Retriever, bool) {
	idx, found := s.index[name]
	if !found {
		return nil, false
	}
	return s.retrievers[idx], true
}

// Names returns the retriever names in layout order.
func (s *StructDef) Names() []string {
	names := make([]string, len(s.retrievers))
	for i, retriever := range s.retrievers {
		names[i] = retriever.name
	}
	return names
}

// Defaults returns a fresh defaults table keyed by retriever name.
// It returns nil if the defaults function yields an invalid table for pieces;
// use DefaultsErr to get the reason.
func (s *StructDef) Defaults(pieces *Pieces) map[string]any {
	defaults, err := s.DefaultsErr(pieces)
	if err != nil {
		return nil
	}
	return defaults
}

// DefaultsErr is like Defaults but reports an invalid defaults table as
// *DataTypeError.
func (s *StructDef) DefaultsErr(pieces *Pieces) (map[string]any, error) {
	values, err := s.defaultValues(pieces)
	if err != nil {
		return nil, err
	}

	defaults := make(map[string]any, len(values))
	for i, retriever := range s.retrievers {
		defaults[retriever.name] = values[i]
	}
	return defaults, nil
}

// defaultValues returns the defaults in layout order, normalized by the data types.
func (s *StructDef) defaultValues(pieces *Pieces) ([]any, error) {
	if s.defaultsFn == nil {
		return s.retrieverDefaults(), nil
	}

	table := s.defaultsFn(pieces)
	if err := s.checkDefaults(table); err != nil {
		return nil, err
	}

	values := make([]any, len(s.retrievers))
	for i, retriever := range s.retrievers {
		value, err := retriever.convert(table[retriever.name])
		if err != nil {
			return nil, &DataTypeError{Struct: s.name, Field: retriever.name, Tag: retriever.dataType.Tag(), Err: err}
		}
		values[i] = value
	}
	return values, nil
}

func (s *StructDef) retrieverDefaults() []any {
	values := make([]any, len(s.retrievers))
	for i, retriever := range s.retrievers {
		values[i] = retriever.DefaultValue()
	}
	return values
}

// newInstance builds a value from decoded or default values: a *Record for
// record definitions, a struct value of GoType for typed definitions.
func (s *StructDef) newInstance(values []any) any {
	if s.goType == nil {
		return &Record{def: s, values: values}
	}
	target := reflect.New(s.goType).Elem()
	s.assign(target, values)
	return target.Interface()
}

// valuesOf extracts the field values of an instance in layout order.
func (s *StructDef) valuesOf(instance any) ([]any, error) {
	if record, ok := instance.(*Record); ok {
		if record == nil || record.def != s {
			return nil, fmt.Errorf("%w: record of struct %v", ErrValueType, recordName(record))
		}
		return record.values, nil
	}

	if s.goType == nil {
		return nil, fmt.Errorf("%w: %T for record struct %v", ErrValueType, instance, s.name)
	}

	rv := reflect.ValueOf(instance)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %v", ErrValueType, rv.Type())
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != s.goType {
		return nil, fmt.Errorf("%w: %T for struct %v", ErrValueType, instance, s.name)
	}
	return s.collect(rv), nil
}

// assign writes values to the bound fields of target.
func (s *StructDef) assign(target reflect.Value, values []any) {
	for i, retriever := range s.retrievers {
		field := target.Field(retriever.fieldIndex)
		if retriever.repeat == "" {
			setFieldValue(field, values[i])
			continue
		}

		items, _ := values[i].([]any)
		slice := reflect.MakeSlice(field.Type(), len(items), len(items))
		for j, item := range items {
			setFieldValue(slice.Index(j), item)
		}
		field.Set(slice)
	}
}

// collect reads the bound fields of source.
func (s *StructDef) collect(source reflect.Value) []any {
	values := make([]any, len(s.retrievers))
	for i, retriever := range s.retrievers {
		field := source.Field(retriever.fieldIndex)
		if retriever.repeat == "" {
			values[i] = getFieldValue(field, retriever.dataType)
			continue
		}

		items := make([]any, field.Len())
		for j := range items {
			items[j] = getFieldValue(field.Index(j), retriever.dataType)
		}
		values[i] = items
	}
	return values
}

func setFieldValue(field reflect.Value, value any) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return
	}
	if rv.Type() != field.Type() {
		rv = rv.Convert(field.Type())
	}
	field.Set(rv)
}

func getFieldValue(field reflect.Value, dataType DataType) any {
	goType := dataType.GoType()
	if field.Type() != goType && field.Type().ConvertibleTo(goType) {
		return field.Convert(goType).Interface()
	}
	return field.Interface()
}

func recordName(record *Record) string {
	if record == nil || record.def == nil {
		return "<nil>"
	}
	return record.def.name
}

// structType exposes a StructDef as a DataType for nested composition.
type structType struct {
	def   *StructDef
	codec *DynStruct
}

var recordPtrType = reflect.TypeOf((*Record)(nil))

// StructType wraps a struct definition as data type, so it can be used as the
// element of another struct's retriever. Nested structs are decoded on the
// same cursor as their parent.
//
// Within a codec call the nested struct is handled by that codec. Calling
// Decode, Encode or EncodedSize of the data type directly (e.g. through
// Retriever.Decode) uses the global codec and its spec values; use
// DynStruct.StructType to bind the data type to another codec.
func StructType(def *StructDef) DataType {
	return &structType{def: def}
}

// StructType wraps a struct definition as data type bound to d, so direct
// Decode and Encode calls of the data type use the spec values of d.
func (d *DynStruct) StructType(def *StructDef) DataType {
	return &structType{def: def, codec: d}
}

func (t *structType) dynStruct() *DynStruct {
	if t.codec != nil {
		return t.codec
	}
	return GetGlobalDynStruct()
}

func (t *structType) Tag() string  { return "struct:" + t.def.name }
func (t *structType) Size() int    { return t.def.size }
func (t *structType) MinSize() int { return t.def.minSize }

func (t *structType) GoType() reflect.Type {
	if t.def.goType != nil {
		return t.def.goType
	}
	return recordPtrType
}

func (t *structType) Zero() any {
	return t.def.newInstance(t.def.retrieverDefaults())
}

func (t *structType) Convert(value any) (any, error) {
	if record, ok := value.(*Record); ok {
		if record == nil || record.def != t.def {
			return nil, fmt.Errorf("%w: record of struct %v for %v", ErrValueType, recordName(record), t.Tag())
		}
		return record, nil
	}
	if data, ok := value.(map[string]any); ok {
		values, err := t.def.valuesFromData(data)
		if err != nil {
			return nil, err
		}
		return t.def.newInstance(values), nil
	}
	if t.def.goType == nil {
		return nil, fmt.Errorf("%w: %T for %v", ErrValueType, value, t.Tag())
	}

	rv := reflect.ValueOf(value)
	if rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != t.def.goType {
		return nil, fmt.Errorf("%w: %T for %v", ErrValueType, value, t.Tag())
	}
	return rv.Interface(), nil
}

func (t *structType) ParseDefault(s string) (any, error) {
	return nil, fmt.Errorf("%w: textual defaults are not supported for %v", ErrValueType, t.Tag())
}

func (t *structType) Decode(dec binutils.Decoder) (any, error) {
	return t.dynStruct().decodeElement(t, dec, 0)
}

func (t *structType) Encode(enc binutils.Encoder, value any) error {
	_, err := t.dynStruct().encodeElement(t, value, enc, 0)
	return err
}

func (t *structType) EncodedSize(value any) int {
	enc := binutils.NewBufferEncoder(nil)
	if err := t.Encode(enc, value); err != nil {
		return 0
	}
	return enc.GetPosition()
}

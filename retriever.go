// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/casbin/govaluate"
	"github.com/pk910/dynamic-struct/binutils"
)

// Retriever is a named, typed field declaration inside a struct.
//
// The position of a retriever in its struct's retriever list is its position
// in the binary layout. Retrievers are created once per struct definition and
// never change afterwards.
type Retriever struct {
	name       string
	dataType   DataType
	defaultVal any
	hasDefault bool

	// repeat holds the raw repeat expression, repeatExpr its parsed form.
	// repeatConst is >= 0 when the expression is a plain integer.
	repeat      string
	repeatExpr  *govaluate.EvaluableExpression
	repeatConst int

	// fieldIndex is the Go struct field bound to this retriever (typed structs only).
	fieldIndex int
}

type retrieverConfig struct {
	defaultVal any
	hasDefault bool
	rawDefault *string
	repeat     string
}

// RetrieverOption configures optional retriever properties.
type RetrieverOption func(*retrieverConfig)

// WithDefault declares the value used when a struct is created without source data.
// For repeated retrievers the default must be a slice.
func WithDefault(value any) RetrieverOption {
	return func(cfg *retrieverConfig) {
		cfg.defaultVal = value
		cfg.hasDefault = true
	}
}

// WithDefaultString declares a default in its textual form, parsed by the data type.
func WithDefaultString(value string) RetrieverOption {
	return func(cfg *retrieverConfig) {
		cfg.rawDefault = &value
	}
}

// WithRepeat makes the retriever a sequence of its data type. The expression is
// evaluated against the previously decoded fields of the same struct and the
// spec values of the codec, e.g. "unit_count" or "player_count * 2".
func WithRepeat(expr string) RetrieverOption {
	return func(cfg *retrieverConfig) {
		cfg.repeat = strings.TrimSpace(expr)
	}
}

// NewRetriever creates a retriever for the data type registered under tag.
func NewRetriever(name string, tag string, opts ...RetrieverOption) (*Retriever, error) {
	dataType, err := LookupDataType(tag)
	if err != nil {
		if dtErr, ok := err.(*DataTypeError); ok {
			dtErr.Field = name
		}
		return nil, err
	}
	return NewTypedRetriever(name, dataType, opts...)
}

// MustRetriever is like NewRetriever but panics on definition errors.
// It is meant for package level struct declarations.
func MustRetriever(name string, tag string, opts ...RetrieverOption) *Retriever {
	retriever, err := NewRetriever(name, tag, opts...)
	if err != nil {
		panic(err)
	}
	return retriever
}

// NewTypedRetriever creates a retriever for an already resolved data type,
// e.g. a nested struct created with StructType.
func NewTypedRetriever(name string, dataType DataType, opts ...RetrieverOption) (*Retriever, error) {
	if name == "" {
		return nil, &DataTypeError{Err: fmt.Errorf("retriever without name")}
	}
	if dataType == nil {
		return nil, &DataTypeError{Field: name, Err: fmt.Errorf("retriever without data type")}
	}

	cfg := &retrieverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	retriever := &Retriever{
		name:        name,
		dataType:    dataType,
		repeat:      cfg.repeat,
		repeatConst: -1,
		fieldIndex:  -1,
	}

	if cfg.repeat != "" {
		if count, err := strconv.Atoi(cfg.repeat); err == nil {
			if count < 0 {
				return nil, &DataTypeError{Field: name, Tag: dataType.Tag(), Err: fmt.Errorf("%w: %v", ErrRepeatCount, count)}
			}
			retriever.repeatConst = count
		} else {
			expr, err := govaluate.NewEvaluableExpression(cfg.repeat)
			if err != nil {
				return nil, &DataTypeError{Field: name, Tag: dataType.Tag(), Err: fmt.Errorf("error parsing repeat expression: %v", err)}
			}
			retriever.repeatExpr = expr
		}
	}

	if cfg.rawDefault != nil {
		value, err := retriever.parseDefault(*cfg.rawDefault)
		if err != nil {
			return nil, &DataTypeError{Field: name, Tag: dataType.Tag(), Err: err}
		}
		cfg.defaultVal = value
		cfg.hasDefault = true
	}

	if cfg.hasDefault {
		value, err := retriever.convert(cfg.defaultVal)
		if err != nil {
			return nil, &DataTypeError{Field: name, Tag: dataType.Tag(), Err: err}
		}
		retriever.defaultVal = value
		retriever.hasDefault = true
	}

	return retriever, nil
}

// Name returns the field name.
func (r *Retriever) Name() string {
	return r.name
}

// DataType returns the element data type.
func (r *Retriever) DataType() DataType {
	return r.dataType
}

// Repeat returns the repeat expression, or "" for single values.
func (r *Retriever) Repeat() string {
	return r.repeat
}

// HasDefault reports whether a default was declared.
func (r *Retriever) HasDefault() bool {
	return r.hasDefault
}

// Decode reads a single element of the retriever's data type.
func (r *Retriever) Decode(dec binutils.Decoder) (any, error) {
	return r.dataType.Decode(dec)
}

// Encode validates and writes a single element of the retriever's data type.
func (r *Retriever) Encode(enc binutils.Encoder, value any) error {
	converted, err := r.dataType.Convert(value)
	if err != nil {
		return err
	}
	return r.dataType.Encode(enc, converted)
}

// DefaultValue returns the declared default or the zero value of the data type.
// Repeated retrievers without default yield repeatConst zero elements (or none
// when the count depends on other fields). The result is never shared.
func (r *Retriever) DefaultValue() any {
	if r.hasDefault {
		return cloneValue(r.defaultVal)
	}
	if r.repeat == "" {
		return r.dataType.Zero()
	}
	count := r.repeatConst
	if count < 0 {
		count = 0
	}
	return r.zeroItems(count)
}

func (r *Retriever) zeroItems(count int) []any {
	items := make([]any, count)
	for i := range items {
		items[i] = r.dataType.Zero()
	}
	return items
}

// parseDefault parses a textual default. Repeated retrievers take a comma
// separated list.
func (r *Retriever) parseDefault(s string) (any, error) {
	if r.repeat == "" {
		return r.dataType.ParseDefault(s)
	}
	items := []any{}
	if strings.TrimSpace(s) == "" {
		return items, nil
	}
	for _, part := range strings.Split(s, ",") {
		item, err := r.dataType.ParseDefault(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// convert validates a full field value: a single element, or a slice of
// elements for repeated retrievers.
func (r *Retriever) convert(value any) (any, error) {
	if r.repeat == "" {
		return r.dataType.Convert(value)
	}

	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: %T for repeated %v", ErrValueType, value, r.dataType.Tag())
	}
	if r.repeatConst >= 0 && rv.Len() != r.repeatConst {
		return nil, fmt.Errorf("%w: got %v items, expected %v", ErrRepeatCount, rv.Len(), r.repeatConst)
	}

	items := make([]any, rv.Len())
	for i := range items {
		item, err := r.dataType.Convert(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("item %v: %w", i, err)
		}
		items[i] = item
	}
	return items, nil
}

// minSize returns the smallest number of bytes the full field occupies.
func (r *Retriever) minSize() int {
	switch {
	case r.repeat == "":
		return minEncodedSize(r.dataType)
	case r.repeatConst >= 0:
		return minEncodedSize(r.dataType) * r.repeatConst
	default:
		return 0
	}
}

// repeatVars returns the variables referenced by the repeat expression.
func (r *Retriever) repeatVars() []string {
	if r.repeatExpr == nil {
		return nil
	}
	return r.repeatExpr.Vars()
}

// withFieldIndex returns a copy of the retriever bound to a Go struct field.
func (r *Retriever) withFieldIndex(index int) *Retriever {
	bound := *r
	bound.fieldIndex = index
	return &bound
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case *Record:
		return v.Clone()
	default:
		return value
	}
}

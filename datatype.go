// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/pk910/dynamic-struct/binutils"
)

// DataType describes the wire representation of a single field value.
//
// Data types are immutable and shared between all retrievers using them.
// For every value v accepted by Convert, Decode(Encode(v)) yields v again.
type DataType interface {
	// Tag returns the identifier of the type, e.g. "f32".
	Tag() string
	// Size returns the fixed byte width, or -1 for variable sized types.
	Size() int
	// GoType returns the Go type of decoded values.
	GoType() reflect.Type
	// Zero returns the zero value used when no default is declared.
	Zero() any
	// Convert validates a value and normalizes it to GoType.
	Convert(value any) (any, error)
	// ParseDefault parses a textual default (struct tags, schema files).
	ParseDefault(s string) (any, error)
	// Decode consumes the encoded value from the cursor.
	Decode(dec binutils.Decoder) (any, error)
	// Encode writes a value previously normalized by Convert.
	Encode(enc binutils.Encoder, value any) error
	// EncodedSize returns the number of bytes Encode writes for value.
	EncodedSize(value any) int
}

// MinSizer can be implemented by variable sized data types to report the
// smallest number of bytes any encoded value occupies.
type MinSizer interface {
	MinSize() int
}

// minEncodedSize returns the smallest encoding of dataType, 0 if unknown.
func minEncodedSize(dataType DataType) int {
	if size := dataType.Size(); size >= 0 {
		return size
	}
	if sizer, ok := dataType.(MinSizer); ok {
		return sizer.MinSize()
	}
	return 0
}

type dataTypeRegistry struct {
	mutex sync.RWMutex
	types map[string]DataType
}

var registry = &dataTypeRegistry{
	types: map[string]DataType{},
}

func init() {
	for _, dt := range []DataType{
		&numericType{tag: "u8", size: 1, kind: reflect.Uint8},
		&numericType{tag: "u16", size: 2, kind: reflect.Uint16},
		&numericType{tag: "u32", size: 4, kind: reflect.Uint32},
		&numericType{tag: "u64", size: 8, kind: reflect.Uint64},
		&numericType{tag: "s8", size: 1, kind: reflect.Int8},
		&numericType{tag: "s16", size: 2, kind: reflect.Int16},
		&numericType{tag: "s32", size: 4, kind: reflect.Int32},
		&numericType{tag: "s64", size: 8, kind: reflect.Int64},
		&numericType{tag: "f32", size: 4, kind: reflect.Float32},
		&numericType{tag: "f64", size: 8, kind: reflect.Float64},
		&boolType{},
		&prefixedStringType{tag: "str16", prefixSize: 2},
		&prefixedStringType{tag: "str32", prefixSize: 4},
	} {
		registry.types[dt.Tag()] = dt
	}
}

// LookupDataType returns the data type registered for tag.
//
// Besides the registered types, the parameterized tags "char<N>" (fixed size,
// NUL padded string) and "bytes<N>" (fixed size byte slice) are resolved on
// demand. Unknown tags yield a *DataTypeError.
func LookupDataType(tag string) (DataType, error) {
	registry.mutex.RLock()
	dt, found := registry.types[tag]
	registry.mutex.RUnlock()
	if found {
		return dt, nil
	}

	switch {
	case strings.HasPrefix(tag, "char"):
		size, err := parseTagSize(tag, "char")
		if err != nil {
			return nil, err
		}
		dt = &fixedStringType{tag: tag, size: size}
	case strings.HasPrefix(tag, "bytes"):
		size, err := parseTagSize(tag, "bytes")
		if err != nil {
			return nil, err
		}
		dt = &fixedBytesType{tag: tag, size: size}
	default:
		return nil, &DataTypeError{Tag: tag, Err: ErrUnknownDataType}
	}

	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	if cached, found := registry.types[tag]; found {
		return cached, nil
	}
	registry.types[tag] = dt
	return dt, nil
}

// MustLookupDataType is like LookupDataType but panics on unknown tags.
func MustLookupDataType(tag string) DataType {
	dt, err := LookupDataType(tag)
	if err != nil {
		panic(err)
	}
	return dt
}

// RegisterDataType adds a custom data type to the registry.
func RegisterDataType(dt DataType) error {
	if dt == nil || dt.Tag() == "" {
		return &DataTypeError{Err: fmt.Errorf("data type without tag")}
	}

	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	if _, found := registry.types[dt.Tag()]; found {
		return &DataTypeError{Tag: dt.Tag(), Err: ErrDuplicateDataType}
	}
	registry.types[dt.Tag()] = dt
	return nil
}

func parseTagSize(tag, prefix string) (int, error) {
	size, err := strconv.Atoi(tag[len(prefix):])
	if err != nil || size <= 0 {
		return 0, &DataTypeError{Tag: tag, Err: ErrUnknownDataType}
	}
	return size, nil
}

// ---- numeric types ----

type numericType struct {
	tag  string
	size int
	kind reflect.Kind
}

var numericGoTypes = map[reflect.Kind]reflect.Type{
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
}

func (t *numericType) Tag() string          { return t.tag }
func (t *numericType) Size() int            { return t.size }
func (t *numericType) GoType() reflect.Type { return numericGoTypes[t.kind] }

func (t *numericType) Zero() any {
	return reflect.Zero(t.GoType()).Interface()
}

func (t *numericType) isFloat() bool {
	return t.kind == reflect.Float32 || t.kind == reflect.Float64
}

func (t *numericType) isSigned() bool {
	return t.kind >= reflect.Int8 && t.kind <= reflect.Int64
}

func (t *numericType) Convert(value any) (any, error) {
	if reflect.TypeOf(value) == t.GoType() {
		return value, nil
	}

	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil for %v", ErrValueType, t.tag)
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return t.fromInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return t.fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return t.fromFloat(rv.Float())
	default:
		return nil, fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
}

func (t *numericType) fromInt(v int64) (any, error) {
	if t.isFloat() {
		f := float64(v)
		if f >= math.MaxInt64 || int64(f) != v {
			return nil, fmt.Errorf("%w: %v is not representable as %v", ErrValueRange, v, t.tag)
		}
		return t.fromFloat(f)
	}
	if !t.isSigned() {
		if v < 0 {
			return nil, fmt.Errorf("%w: %v does not fit %v", ErrValueRange, v, t.tag)
		}
		return t.fromUint(uint64(v))
	}

	bits := uint(t.size * 8)
	min := int64(-1) << (bits - 1)
	max := -(min + 1)
	if v < min || v > max {
		return nil, fmt.Errorf("%w: %v does not fit %v", ErrValueRange, v, t.tag)
	}
	return reflect.ValueOf(v).Convert(t.GoType()).Interface(), nil
}

func (t *numericType) fromUint(v uint64) (any, error) {
	if t.isFloat() {
		f := float64(v)
		if f >= math.MaxUint64 || uint64(f) != v {
			return nil, fmt.Errorf("%w: %v is not representable as %v", ErrValueRange, v, t.tag)
		}
		return t.fromFloat(f)
	}
	if t.isSigned() {
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %v does not fit %v", ErrValueRange, v, t.tag)
		}
		return t.fromInt(int64(v))
	}

	bits := uint(t.size * 8)
	if bits < 64 && v > (uint64(1)<<bits)-1 {
		return nil, fmt.Errorf("%w: %v does not fit %v", ErrValueRange, v, t.tag)
	}
	return reflect.ValueOf(v).Convert(t.GoType()).Interface(), nil
}

func (t *numericType) fromFloat(v float64) (any, error) {
	switch t.kind {
	case reflect.Float64:
		return v, nil
	case reflect.Float32:
		// NaN compares unequal to itself and is accepted as is
		if !math.IsNaN(v) && float64(float32(v)) != v {
			return nil, fmt.Errorf("%w: %v is not representable as %v", ErrValueRange, v, t.tag)
		}
		return float32(v), nil
	}

	if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, fmt.Errorf("%w: %v is not an integer", ErrValueType, v)
	}
	if t.isSigned() {
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: %v does not fit %v", ErrValueRange, v, t.tag)
		}
		return t.fromInt(int64(v))
	}
	if v < 0 || v >= math.MaxUint64 {
		return nil, fmt.Errorf("%w: %v does not fit %v", ErrValueRange, v, t.tag)
	}
	return t.fromUint(uint64(v))
}

func (t *numericType) ParseDefault(s string) (any, error) {
	switch {
	case t.kind == reflect.Float32:
		// textual defaults round to the nearest float32
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, parseError(err)
		}
		return float32(v), nil
	case t.isFloat():
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, parseError(err)
		}
		return v, nil
	case t.isSigned():
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValueType, err)
		}
		return t.fromInt(v)
	default:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValueType, err)
		}
		return t.fromUint(v)
	}
}

func parseError(err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: %v", ErrValueRange, err)
	}
	return fmt.Errorf("%w: %v", ErrValueType, err)
}

func (t *numericType) decodeBits(dec binutils.Decoder) (uint64, error) {
	switch t.size {
	case 1:
		v, err := dec.DecodeUint8()
		return uint64(v), err
	case 2:
		v, err := dec.DecodeUint16()
		return uint64(v), err
	case 4:
		v, err := dec.DecodeUint32()
		return uint64(v), err
	default:
		return dec.DecodeUint64()
	}
}

func (t *numericType) Decode(dec binutils.Decoder) (any, error) {
	bits, err := t.decodeBits(dec)
	if err != nil {
		return nil, err
	}

	switch t.kind {
	case reflect.Uint8:
		return uint8(bits), nil
	case reflect.Uint16:
		return uint16(bits), nil
	case reflect.Uint32:
		return uint32(bits), nil
	case reflect.Uint64:
		return bits, nil
	case reflect.Int8:
		return int8(bits), nil
	case reflect.Int16:
		return int16(bits), nil
	case reflect.Int32:
		return int32(bits), nil
	case reflect.Int64:
		return int64(bits), nil
	case reflect.Float32:
		return math.Float32frombits(uint32(bits)), nil
	default:
		return math.Float64frombits(bits), nil
	}
}

func (t *numericType) Encode(enc binutils.Encoder, value any) error {
	var bits uint64
	switch v := value.(type) {
	case uint8:
		bits = uint64(v)
	case uint16:
		bits = uint64(v)
	case uint32:
		bits = uint64(v)
	case uint64:
		bits = v
	case int8:
		bits = uint64(uint8(v))
	case int16:
		bits = uint64(uint16(v))
	case int32:
		bits = uint64(uint32(v))
	case int64:
		bits = uint64(v)
	case float32:
		bits = uint64(math.Float32bits(v))
	case float64:
		bits = math.Float64bits(v)
	default:
		return fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}
	if reflect.TypeOf(value) != t.GoType() {
		return fmt.Errorf("%w: %T for %v", ErrValueType, value, t.tag)
	}

	switch t.size {
	case 1:
		enc.EncodeUint8(uint8(bits))
	case 2:
		enc.EncodeUint16(uint16(bits))
	case 4:
		enc.EncodeUint32(uint32(bits))
	default:
		enc.EncodeUint64(bits)
	}
	return nil
}

func (t *numericType) EncodedSize(value any) int {
	return t.size
}

// ---- bool ----

type boolType struct{}

func (t *boolType) Tag() string          { return "bool" }
func (t *boolType) Size() int            { return 1 }
func (t *boolType) GoType() reflect.Type { return reflect.TypeOf(false) }
func (t *boolType) Zero() any            { return false }

func (t *boolType) Convert(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Bool {
		return nil, fmt.Errorf("%w: %T for bool", ErrValueType, value)
	}
	return rv.Bool(), nil
}

func (t *boolType) ParseDefault(s string) (any, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValueType, err)
	}
	return v, nil
}

func (t *boolType) Decode(dec binutils.Decoder) (any, error) {
	v, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	if v > 1 {
		return nil, fmt.Errorf("%w: bool byte 0x%02x", ErrInvalidValue, v)
	}
	return v == 1, nil
}

func (t *boolType) Encode(enc binutils.Encoder, value any) error {
	v, ok := value.(bool)
	if !ok {
		return fmt.Errorf("%w: %T for bool", ErrValueType, value)
	}
	if v {
		enc.EncodeUint8(1)
	} else {
		enc.EncodeUint8(0)
	}
	return nil
}

func (t *boolType) EncodedSize(value any) int {
	return 1
}

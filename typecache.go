// dynstruct: declarative binary struct encoding and decoding.
// This file implements the cache of struct definitions built from Go types.
// Copyright (c) 2025 by pk910. Refer to LICENSE for more information.
package dynstruct

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeCache manages the struct definitions of typed structs.
type TypeCache struct {
	dynstruct *DynStruct
	mutex     sync.RWMutex
	defs      map[reflect.Type]*StructDef
	building  map[reflect.Type]*StructDef
}

// Namer can be implemented by typed structs to override the struct name used
// in errors and traces. Defaults to the Go type name.
type Namer interface {
	StructName() string
}

var (
	defaulterType = reflect.TypeOf((*Defaulter)(nil)).Elem()
	namerType     = reflect.TypeOf((*Namer)(nil)).Elem()
)

// NewTypeCache creates a new type cache
func NewTypeCache(dynstruct *DynStruct) *TypeCache {
	return &TypeCache{
		dynstruct: dynstruct,
		defs:      make(map[reflect.Type]*StructDef),
		building:  make(map[reflect.Type]*StructDef),
	}
}

// GetStructDef returns the cached struct definition for t, building it on first use.
//
// Every exported field with a `retriever` tag becomes a retriever, in field
// declaration order:
//
//	type Unit struct {
//	    X         float32   `retriever:"x,f32"`
//	    UnitConst uint16    `retriever:"unit_const,u16" default:"4"`
//	}
//
//	type PlayerUnits struct {
//	    UnitCount uint32 `retriever:"unit_count,u32"`
//	    Units     []Unit `retriever:"units" repeat:"unit_count"`
//	}
//
// Definition errors (unknown tags, defaults not fitting their type, Go field
// types not matching the data type) are returned as *DataTypeError.
func (tc *TypeCache) GetStructDef(t reflect.Type) (*StructDef, error) {
	tc.mutex.RLock()
	if def, exists := tc.defs[t]; exists {
		tc.mutex.RUnlock()
		return def, nil
	}
	tc.mutex.RUnlock()

	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	return tc.getStructDef(t)
}

// getStructDef returns a cached struct definition, building it if necessary.
// The caller must hold the write lock.
func (tc *TypeCache) getStructDef(t reflect.Type) (*StructDef, error) {
	if def, exists := tc.defs[t]; exists {
		return def, nil
	}
	if def, inProgress := tc.building[t]; inProgress {
		// self referencing type, the definition is completed by the outer call
		return def, nil
	}

	def, err := tc.buildStructDef(t)
	if err != nil {
		return nil, err
	}

	tc.defs[t] = def
	return def, nil
}

func (tc *TypeCache) buildStructDef(t reflect.Type) (*StructDef, error) {
	if t.Kind() != reflect.Struct {
		return nil, &DataTypeError{Struct: t.String(), Err: fmt.Errorf("typed structs must be Go structs, got %v", t.Kind())}
	}

	def := &StructDef{
		name:   t.Name(),
		goType: t,
		index:  map[string]int{},
		size:   -1,
	}
	if def.name == "" {
		def.name = t.String()
	}
	if t.Implements(namerType) {
		def.name = reflect.Zero(t).Interface().(Namer).StructName()
	}

	tc.building[t] = def
	defer delete(tc.building, t)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag, err := parseFieldTags(&field)
		if err != nil {
			return nil, &DataTypeError{Struct: def.name, Field: field.Name, Err: err}
		}
		if tag == nil {
			continue
		}
		if !field.IsExported() {
			return nil, &DataTypeError{Struct: def.name, Field: tag.name, Err: fmt.Errorf("retriever bound to unexported field %v", field.Name)}
		}

		retriever, err := tc.buildRetriever(def, &field, tag)
		if err != nil {
			return nil, err
		}
		def.retrievers = append(def.retrievers, retriever.withFieldIndex(i))
	}

	if t.Implements(defaulterType) || reflect.PointerTo(t).Implements(defaulterType) {
		def.defaultsFn = func(pieces *Pieces) map[string]any {
			return reflect.New(t).Interface().(Defaulter).Defaults(pieces)
		}
	}

	if err := def.validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (tc *TypeCache) buildRetriever(def *StructDef, field *reflect.StructField, tag *fieldTag) (*Retriever, error) {
	fieldType := field.Type
	if tag.repeat != "" {
		if fieldType.Kind() != reflect.Slice {
			return nil, &DataTypeError{Struct: def.name, Field: tag.name, Err: fmt.Errorf("repeated retriever requires a slice field, got %v", fieldType)}
		}
		fieldType = fieldType.Elem()
	}

	var dataType DataType
	if tag.dataType == "" {
		if fieldType.Kind() != reflect.Struct {
			return nil, &DataTypeError{Struct: def.name, Field: tag.name, Err: fmt.Errorf("missing data type for field of type %v", fieldType)}
		}
		nestedDef, err := tc.getStructDef(fieldType)
		if err != nil {
			return nil, err
		}
		dataType = tc.dynstruct.StructType(nestedDef)
	} else {
		dt, err := LookupDataType(tag.dataType)
		if err != nil {
			return nil, &DataTypeError{Struct: def.name, Field: tag.name, Tag: tag.dataType, Err: ErrUnknownDataType}
		}
		dataType = dt
	}

	if err := checkFieldType(fieldType, dataType); err != nil {
		return nil, &DataTypeError{Struct: def.name, Field: tag.name, Tag: dataType.Tag(), Err: err}
	}

	opts := []RetrieverOption{}
	if tag.repeat != "" {
		opts = append(opts, WithRepeat(tag.repeat))
	}
	if tag.defaultVal != nil {
		opts = append(opts, WithDefaultString(*tag.defaultVal))
	}

	retriever, err := NewTypedRetriever(tag.name, dataType, opts...)
	if err != nil {
		if dtErr, ok := err.(*DataTypeError); ok {
			dtErr.Struct = def.name
		}
		return nil, err
	}
	return retriever, nil
}

// checkFieldType verifies that values of dataType can be stored in fields of fieldType.
func checkFieldType(fieldType reflect.Type, dataType DataType) error {
	goType := dataType.GoType()
	if fieldType == goType {
		return nil
	}
	if _, nested := dataType.(*structType); nested {
		return fmt.Errorf("field type %v does not match nested struct %v", fieldType, goType)
	}
	if fieldType.Kind() != goType.Kind() {
		return fmt.Errorf("field type %v does not match %v", fieldType, goType)
	}
	if goType.Kind() == reflect.Slice && fieldType.Elem().Kind() != goType.Elem().Kind() {
		return fmt.Errorf("field type %v does not match %v", fieldType, goType)
	}
	if !goType.ConvertibleTo(fieldType) || !fieldType.ConvertibleTo(goType) {
		return fmt.Errorf("field type %v is not convertible to %v", fieldType, goType)
	}
	return nil
}

// GetAllTypes returns all Go types with a cached struct definition.
func (tc *TypeCache) GetAllTypes() []reflect.Type {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	types := make([]reflect.Type, 0, len(tc.defs))
	for t := range tc.defs {
		types = append(types, t)
	}
	return types
}

// RemoveType removes a cached struct definition.
func (tc *TypeCache) RemoveType(t reflect.Type) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	delete(tc.defs, t)
}

// RemoveAllTypes clears the cache.
func (tc *TypeCache) RemoveAllTypes() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	tc.defs = make(map[reflect.Type]*StructDef)
}

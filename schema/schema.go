// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

// Package schema loads struct definitions from YAML or TOML files.
//
// A schema file lists structs in layout order:
//
//	structs:
//	  - name: Unit
//	    retrievers:
//	      - {name: x, type: f32}
//	      - {name: unit_const, type: u16, default: "4"}
//	  - name: PlayerUnits
//	    retrievers:
//	      - {name: unit_count, type: u32}
//	      - {name: units, type: "struct:Unit", repeat: unit_count}
//
// The same document in TOML uses [[structs]] and [[structs.retrievers]] tables.
// A "struct:<Name>" type references a struct declared earlier in the same file.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	dynstruct "github.com/pk910/dynamic-struct"
)

// StructRefPrefix marks a retriever type referencing another schema struct.
const StructRefPrefix = "struct:"

// File is the decoded document of a schema.
type File struct {
	Structs []StructSpec `yaml:"structs" toml:"structs"`
}

// StructSpec describes one struct of a schema file.
type StructSpec struct {
	Name       string          `yaml:"name" toml:"name"`
	Retrievers []RetrieverSpec `yaml:"retrievers" toml:"retrievers"`
}

// RetrieverSpec describes one retriever. Default is the textual default as
// accepted by the data type; repeated retrievers take a comma separated list.
type RetrieverSpec struct {
	Name    string  `yaml:"name" toml:"name"`
	Type    string  `yaml:"type" toml:"type"`
	Default *string `yaml:"default,omitempty" toml:"default,omitempty"`
	Repeat  string  `yaml:"repeat,omitempty" toml:"repeat,omitempty"`
}

// Schema holds the struct definitions built from a schema file.
type Schema struct {
	file  *File
	names []string
	defs  map[string]*dynstruct.StructDef
}

// Load parses a schema from r and builds its struct definitions.
func Load(r io.Reader) (*Schema, error) {
	file := &File{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty schema")
		}
		return nil, fmt.Errorf("failed parsing schema: %w", err)
	}
	return Build(file)
}

// Parse parses a schema from an in-memory YAML document.
func Parse(data []byte) (*Schema, error) {
	return Load(bytes.NewReader(data))
}

// LoadTOML parses a TOML schema from r and builds its struct definitions.
func LoadTOML(r io.Reader) (*Schema, error) {
	file := &File{}
	meta, err := toml.NewDecoder(r).Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed parsing schema: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("failed parsing schema: unknown key %v", undecoded[0])
	}
	if len(file.Structs) == 0 {
		return nil, fmt.Errorf("empty schema")
	}
	return Build(file)
}

// LoadFile parses the schema file at path. Files ending in .toml are read as
// TOML, everything else as YAML.
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	load := Load
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		load = LoadTOML
	}

	schema, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return schema, nil
}

// Build creates the struct definitions of an already decoded schema file.
func Build(file *File) (*Schema, error) {
	schema := &Schema{
		file: file,
		defs: make(map[string]*dynstruct.StructDef, len(file.Structs)),
	}

	for _, structSpec := range file.Structs {
		if structSpec.Name == "" {
			return nil, &dynstruct.DataTypeError{Err: fmt.Errorf("struct without name")}
		}
		if _, exists := schema.defs[structSpec.Name]; exists {
			return nil, &dynstruct.DataTypeError{Struct: structSpec.Name, Err: fmt.Errorf("struct declared twice")}
		}

		def, err := schema.buildStruct(&structSpec)
		if err != nil {
			return nil, err
		}
		schema.names = append(schema.names, structSpec.Name)
		schema.defs[structSpec.Name] = def
	}

	return schema, nil
}

func (s *Schema) buildStruct(structSpec *StructSpec) (*dynstruct.StructDef, error) {
	retrievers := make([]*dynstruct.Retriever, 0, len(structSpec.Retrievers))
	for _, retrieverSpec := range structSpec.Retrievers {
		dataType, err := s.lookupType(retrieverSpec.Type)
		if err != nil {
			return nil, &dynstruct.DataTypeError{Struct: structSpec.Name, Field: retrieverSpec.Name, Tag: retrieverSpec.Type, Err: err}
		}

		opts := []dynstruct.RetrieverOption{}
		if retrieverSpec.Repeat != "" {
			opts = append(opts, dynstruct.WithRepeat(retrieverSpec.Repeat))
		}
		if retrieverSpec.Default != nil {
			opts = append(opts, dynstruct.WithDefaultString(*retrieverSpec.Default))
		}

		retriever, err := dynstruct.NewTypedRetriever(retrieverSpec.Name, dataType, opts...)
		if err != nil {
			if dtErr, ok := err.(*dynstruct.DataTypeError); ok {
				dtErr.Struct = structSpec.Name
			}
			return nil, err
		}
		retrievers = append(retrievers, retriever)
	}

	return dynstruct.NewStructDef(structSpec.Name, retrievers)
}

func (s *Schema) lookupType(tag string) (dynstruct.DataType, error) {
	tag = strings.TrimSpace(tag)
	if name, isRef := strings.CutPrefix(tag, StructRefPrefix); isRef {
		def, found := s.defs[name]
		if !found {
			return nil, fmt.Errorf("%w: struct %v is not declared before use", dynstruct.ErrUnknownDataType, name)
		}
		return dynstruct.StructType(def), nil
	}

	dataType, err := dynstruct.LookupDataType(tag)
	if err != nil {
		var dtErr *dynstruct.DataTypeError
		if errors.As(err, &dtErr) {
			return nil, dtErr.Err
		}
		return nil, err
	}
	return dataType, nil
}

// File returns the decoded schema document.
func (s *Schema) File() *File {
	return s.file
}

// Names returns the struct names in file order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Struct returns the definition of the named struct.
func (s *Schema) Struct(name string) (*dynstruct.StructDef, bool) {
	def, found := s.defs[name]
	return def, found
}

// Structs returns all struct definitions in file order.
func (s *Schema) Structs() []*dynstruct.StructDef {
	defs := make([]*dynstruct.StructDef, len(s.names))
	for i, name := range s.names {
		defs[i] = s.defs[name]
	}
	return defs
}

// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package main

import (
	"fmt"
	"strings"

	"golang.org/x/tools/imports"

	dynstruct "github.com/pk910/dynamic-struct"
	"github.com/pk910/dynamic-struct/schema"
)

// generateFile renders one typed Go struct per schema struct, in schema order.
// The result is formatted and import-resolved.
func generateFile(s *schema.Schema, packageName string, sourceName string, fileName string) ([]byte, error) {
	codeBuf := strings.Builder{}
	appendCode(&codeBuf, 0, "// Code generated by dynstruct-gen. DO NOT EDIT.\n")
	appendCode(&codeBuf, 0, "// Source: %s\n\n", sourceName)
	appendCode(&codeBuf, 0, "package %s\n\n", packageName)

	for _, structSpec := range s.File().Structs {
		def, found := s.Struct(structSpec.Name)
		if !found {
			return nil, fmt.Errorf("struct %v missing from schema", structSpec.Name)
		}
		if err := generateStruct(&codeBuf, def, &structSpec); err != nil {
			return nil, err
		}
	}

	code, err := imports.Process(fileName, []byte(codeBuf.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed formatting generated code: %w", err)
	}
	return code, nil
}

func generateStruct(codeBuf *strings.Builder, def *dynstruct.StructDef, structSpec *schema.StructSpec) error {
	typeName := goName(def.Name())

	appendCode(codeBuf, 0, "// %s is the typed form of the %s schema struct.\n", typeName, def.Name())
	appendCode(codeBuf, 0, "type %s struct {\n", typeName)

	usedNames := map[string]bool{}
	for i, retriever := range def.Retrievers() {
		fieldName := goName(retriever.Name())
		if usedNames[fieldName] {
			return fmt.Errorf("struct %v: field %v maps to duplicate Go field %v", def.Name(), retriever.Name(), fieldName)
		}
		usedNames[fieldName] = true

		fieldType, typeTag := goFieldType(retriever)

		tags := []string{}
		if typeTag != "" {
			tags = append(tags, fmt.Sprintf("retriever:%q", retriever.Name()+","+typeTag))
		} else {
			tags = append(tags, fmt.Sprintf("retriever:%q", retriever.Name()))
		}
		if i < len(structSpec.Retrievers) && structSpec.Retrievers[i].Default != nil {
			tags = append(tags, fmt.Sprintf("default:%q", *structSpec.Retrievers[i].Default))
		}
		if retriever.Repeat() != "" {
			tags = append(tags, fmt.Sprintf("repeat:%q", retriever.Repeat()))
		}

		appendCode(codeBuf, 1, "%s %s %s\n", fieldName, fieldType, tagLiteral(strings.Join(tags, " ")))
	}
	appendCode(codeBuf, 0, "}\n\n")

	if typeName != def.Name() {
		appendCode(codeBuf, 0, "func (%s) StructName() string {\n", typeName)
		appendCode(codeBuf, 1, "return %q\n", def.Name())
		appendCode(codeBuf, 0, "}\n\n")
	}
	return nil
}

// goFieldType returns the Go field type of a retriever and the data type tag
// to put into its struct tag. Nested structs have no tag.
func goFieldType(retriever *dynstruct.Retriever) (string, string) {
	var fieldType, typeTag string

	tag := retriever.DataType().Tag()
	if name, isRef := strings.CutPrefix(tag, schema.StructRefPrefix); isRef {
		fieldType = goName(name)
	} else {
		fieldType = retriever.DataType().GoType().String()
		if fieldType == "[]uint8" {
			fieldType = "[]byte"
		}
		typeTag = tag
	}

	if retriever.Repeat() != "" {
		fieldType = "[]" + fieldType
	}
	return fieldType, typeTag
}

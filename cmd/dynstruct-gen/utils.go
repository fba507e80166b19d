// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// appendCode appends a formatted code string to codeBuf, indenting each
// non-empty line by indent tabs.
func appendCode(codeBuf *strings.Builder, indent int, code string, args ...any) {
	if len(args) > 0 {
		code = fmt.Sprintf(code, args...)
	}
	codeBuf.WriteString(indentStr(code, indent))
}

func indentStr(s string, tabs int) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if lines[i] != "" {
			lines[i] = strings.Repeat("\t", tabs) + lines[i]
		}
	}

	return strings.Join(lines, "\n")
}

// tagLiteral returns s as a struct tag literal. Raw strings cannot hold
// backticks, so such tags become interpreted string literals.
func tagLiteral(s string) string {
	if strings.Contains(s, "`") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

var initialisms = map[string]string{
	"id":  "ID",
	"ids": "IDs",
	"url": "URL",
	"api": "API",
	"ui":  "UI",
}

// goName converts a schema name (e.g. "garrisoned_in_id") to an exported Go
// identifier ("GarrisonedInID"). Names already in CamelCase keep their casing.
func goName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	result := strings.Builder{}
	for _, part := range parts {
		if initialism, found := initialisms[strings.ToLower(part)]; found {
			result.WriteString(initialism)
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		result.WriteString(string(runes))
	}

	identifier := result.String()
	if identifier == "" {
		return "Field"
	}
	if unicode.IsDigit([]rune(identifier)[0]) {
		identifier = "F" + identifier
	}
	return identifier
}

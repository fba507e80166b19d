// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct_test

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	. "github.com/pk910/dynamic-struct"
	"github.com/pk910/dynamic-struct/binutils"
)

func TestUnmarshal(t *testing.T) {
	ds := NewDynStruct()

	for _, test := range typedTestMatrix {
		t.Run(test.name, func(t *testing.T) {
			target := reflect.New(reflect.TypeOf(test.payload))
			if err := ds.Unmarshal(test.expected, target.Interface()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(target.Elem().Interface(), test.payload) {
				t.Errorf("expected %+v, got %+v", test.payload, target.Elem().Interface())
			}

			target = reflect.New(reflect.TypeOf(test.payload))
			if err := ds.UnmarshalReader(bytes.NewReader(test.expected), len(test.expected), target.Interface()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(target.Elem().Interface(), test.payload) {
				t.Errorf("UnmarshalReader: expected %+v, got %+v", test.payload, target.Elem().Interface())
			}
		})
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	ds := NewDynStruct()

	for _, test := range typedTestMatrix {
		for n := 0; n < len(test.expected); n++ {
			t.Run(fmt.Sprintf("%v_%v", test.name, n), func(t *testing.T) {
				target := reflect.New(reflect.TypeOf(test.payload))
				err := ds.Unmarshal(test.expected[:n], target.Interface())

				var decodeErr *StructDecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("expected StructDecodeError, got %v", err)
				}
				if !errors.Is(err, binutils.ErrUnexpectedEOF) {
					t.Errorf("expected unexpected EOF, got %v", err)
				}
				if !target.Elem().IsZero() {
					t.Errorf("target modified on error: %+v", target.Elem().Interface())
				}
			})
		}
	}
}

func TestUnmarshalErrors(t *testing.T) {
	ds := NewDynStruct()

	t.Run("trailing data", func(t *testing.T) {
		target := slug_PlayerData{Food: 7}
		err := ds.Unmarshal(fromHex("0x0000803f000000400000484300"), &target)
		if !errors.Is(err, ErrTrailingData) {
			t.Errorf("expected ErrTrailingData, got %v", err)
		}
		if target != (slug_PlayerData{Food: 7}) {
			t.Errorf("target modified on error: %+v", target)
		}
	})

	t.Run("invalid bool", func(t *testing.T) {
		var target slug_Header
		err := ds.Unmarshal(fromHex("0x312e3437"+"0000"+"00000000"+"05"+"deadbeef"), &target)

		var decodeErr *StructDecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected StructDecodeError, got %v", err)
		}
		if decodeErr.Field != "enabled" || decodeErr.Offset != 10 {
			t.Errorf("unexpected error location: %v at %v", decodeErr.Field, decodeErr.Offset)
		}
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("expected ErrInvalidValue, got %v", err)
		}
	})

	t.Run("non pointer target", func(t *testing.T) {
		err := ds.Unmarshal(fromHex("0x0000803f0000004000004843"), slug_PlayerData{})
		if !errors.Is(err, ErrValueType) {
			t.Errorf("expected ErrValueType, got %v", err)
		}
	})

	t.Run("nil pointer target", func(t *testing.T) {
		err := ds.Unmarshal(fromHex("0x0000803f0000004000004843"), (*slug_PlayerData)(nil))
		if !errors.Is(err, ErrValueType) {
			t.Errorf("expected ErrValueType, got %v", err)
		}
	})

	t.Run("string count exceeds data", func(t *testing.T) {
		var target slug_Names
		err := ds.Unmarshal(fromHex("0xffffff7f"+"0100"+"61"), &target)

		var decodeErr *StructDecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected StructDecodeError, got %v", err)
		}
		if decodeErr.Field != "names" || decodeErr.Offset != 4 {
			t.Errorf("unexpected error location: %v at %v", decodeErr.Field, decodeErr.Offset)
		}
		if !errors.Is(err, binutils.ErrUnexpectedEOF) {
			t.Errorf("expected unexpected EOF, got %v", err)
		}
	})

	t.Run("nested unit truncated", func(t *testing.T) {
		var target slug_PlayerUnits
		err := ds.Unmarshal(fromHex("0x01000000"+"0000803f00000040"), &target)

		var decodeErr *StructDecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected StructDecodeError, got %v", err)
		}
		if decodeErr.Struct != "slug_PlayerUnits" || decodeErr.Field != "units" {
			t.Errorf("unexpected error location: %v.%v", decodeErr.Struct, decodeErr.Field)
		}
	})
}

func TestUnmarshalFromSharedCursor(t *testing.T) {
	ds := NewDynStruct()
	dec := binutils.NewBufferDecoder(fromHex("0x0000803f0000004000004843" + "01000000" + "00004040000080405300" + "ff"))

	var playerData slug_PlayerData
	if err := ds.UnmarshalFrom(dec, &playerData); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.GetPosition() != 12 {
		t.Errorf("expected cursor at 12, got %v", dec.GetPosition())
	}

	var units slug_PlayerUnits
	if err := ds.UnmarshalFrom(dec, &units); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.GetPosition() != 26 || dec.GetLength() != 1 {
		t.Errorf("unexpected cursor position %v (%v left)", dec.GetPosition(), dec.GetLength())
	}
	if units.UnitCount != 1 || units.Units[0].UnitConst != 83 {
		t.Errorf("unexpected units: %+v", units)
	}
}

func TestConstructPrecedence(t *testing.T) {
	ds := NewDynStruct()

	target, err := New[slug_PlayerData](ds, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *target != (slug_PlayerData{PopulationLimit: 200}) {
		t.Errorf("unexpected defaults: %+v", target)
	}

	target, err = New[slug_PlayerData](ds, nil, map[string]any{"food": 1, "wood": 2, "population_limit": 3}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *target != (slug_PlayerData{Food: 1, Wood: 2, PopulationLimit: 3}) {
		t.Errorf("unexpected data values: %+v", target)
	}

	target, err = New[slug_PlayerData](ds, binutils.NewBufferDecoder(fromHex("0x000000000000000000000000")), map[string]any{"food": 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *target != (slug_PlayerData{}) {
		t.Errorf("unexpected decoded values: %+v", target)
	}

	// a decode failure never falls back to defaults
	target, err = New[slug_PlayerData](ds, binutils.NewBufferDecoder(nil), nil, nil)
	if err == nil || target != nil {
		t.Errorf("expected decode error without instance")
	}

	header := slug_Header{}
	if err := ds.Init(&header, map[string]any{
		"version":     "2.0",
		"name":        "n",
		"description": "d",
		"enabled":     false,
		"checksum":    []byte{1, 2, 3, 4},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header.Version != "2.0" || header.Checksum[3] != 4 {
		t.Errorf("unexpected header: %+v", header)
	}

	if err := ds.Defaults(&header, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header.Version != "1.47" || !header.Enabled || bytes2Hex(header.Checksum) != "deadbeef" {
		t.Errorf("unexpected header defaults: %+v", header)
	}

	if err := ds.Init(&header, nil); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestVerboseTrace(t *testing.T) {
	lines := []string{}
	ds := NewDynStruct(WithVerbose(), WithLogCb(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}))

	var target slug_PlayerUnits
	if err := ds.Unmarshal(fromHex("0x01000000"+"00004040000080405300"), &target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"struct: slug_PlayerUnits\t offset: 0",
		"  field: unit_count\t type: u32\t offset: 0\t size: 4",
		"  struct: slug_Unit\t offset: 4",
		"    field: x\t type: f32\t offset: 4\t size: 4",
		"    field: y\t type: f32\t offset: 8\t size: 4",
		"    field: unit_const\t type: u16\t offset: 12\t size: 2",
		"  field: units\t type: struct:slug_Unit\t offset: 4\t size: 10",
	}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("unexpected trace:\n%v", strings.Join(lines, "\n"))
	}

	lines = lines[:0]
	if _, err := ds.Marshal(&target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != len(expected) || lines[0] != expected[0] {
		t.Errorf("unexpected encode trace:\n%v", strings.Join(lines, "\n"))
	}
}

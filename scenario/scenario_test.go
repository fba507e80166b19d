// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package scenario_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"reflect"
	"runtime"
	"strings"
	"testing"

	dynstruct "github.com/pk910/dynamic-struct"
	"github.com/pk910/dynamic-struct/binutils"
	. "github.com/pk910/dynamic-struct/scenario"
)

func fromHex(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	h, _ := hex.DecodeString(s)
	return h
}

func TestPlayerDataFourDefaults(t *testing.T) {
	expected := map[string]any{
		"food_duplicate":        float32(0),
		"wood_duplicate":        float32(0),
		"gold_duplicate":        float32(0),
		"stone_duplicate":       float32(0),
		"ore_x_duplicate":       float32(0),
		"trade_goods_duplicate": float32(0),
		"population_limit":      float32(200),
	}

	if defaults := (PlayerDataFourStruct{}).Defaults(nil); !reflect.DeepEqual(defaults, expected) {
		t.Errorf("unexpected defaults: %v", defaults)
	}

	ds := dynstruct.NewDynStruct()
	def, err := ds.GetStructDef(PlayerDataFourStruct{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defaults := def.Defaults(nil); !reflect.DeepEqual(defaults, expected) {
		t.Errorf("unexpected struct def defaults: %v", defaults)
	}

	expectedNames := []string{"food_duplicate", "wood_duplicate", "gold_duplicate", "stone_duplicate", "ore_x_duplicate", "trade_goods_duplicate", "population_limit"}
	if names := def.Names(); !reflect.DeepEqual(names, expectedNames) {
		t.Errorf("unexpected retriever order: %v", names)
	}
	if def.Size() != 28 {
		t.Errorf("expected size 28, got %v", def.Size())
	}

	pd, err := dynstruct.New[PlayerDataFourStruct](ds, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *pd != (PlayerDataFourStruct{PopulationLimit: 200}) {
		t.Errorf("unexpected default instance: %+v", *pd)
	}

	encoded, err := ds.Marshal(pd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(encoded, fromHex("0x00000000000000000000000000000000000000000000000000004843")) {
		t.Errorf("unexpected encoding: %x", encoded)
	}
}

func TestPlayerDataFourDecode(t *testing.T) {
	ds := dynstruct.NewDynStruct()

	testMatrix := []struct {
		name     string
		data     []byte
		expected PlayerDataFourStruct
		errField string
	}{
		{
			name:     "defaults",
			data:     fromHex("0x00000000000000000000000000000000000000000000000000004843"),
			expected: PlayerDataFourStruct{PopulationLimit: 200},
		},
		{
			name: "resources",
			data: fromHex("0x0000803f00000040000040400000804000000000000000000000c842"),
			expected: PlayerDataFourStruct{
				FoodDuplicate:   1,
				WoodDuplicate:   2,
				GoldDuplicate:   3,
				StoneDuplicate:  4,
				PopulationLimit: 100,
			},
		},
		{
			name:     "truncated",
			data:     fromHex("0x000000000000000000000000000000000000000000000000000048"),
			errField: "population_limit",
		},
		{
			name:     "empty",
			data:     []byte{},
			errField: "food_duplicate",
		},
	}

	for _, test := range testMatrix {
		t.Run(test.name, func(t *testing.T) {
			target := PlayerDataFourStruct{FoodDuplicate: 42}
			err := ds.Unmarshal(test.data, &target)

			if test.errField != "" {
				var decodeErr *dynstruct.StructDecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("expected StructDecodeError, got %v", err)
				}
				if decodeErr.Field != test.errField {
					t.Errorf("expected error in field %v, got %v", test.errField, decodeErr.Field)
				}
				if !errors.Is(err, binutils.ErrUnexpectedEOF) {
					t.Errorf("expected unexpected EOF, got %v", err)
				}
				if target != (PlayerDataFourStruct{FoodDuplicate: 42}) {
					t.Errorf("target modified on error: %+v", target)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target != test.expected {
				t.Errorf("unexpected result: %+v", target)
			}

			encoded, err := ds.Marshal(&target)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(encoded, test.data) {
				t.Errorf("round trip mismatch: %x != %x", encoded, test.data)
			}
		})
	}
}

func TestPlayerDataFourSharedCursor(t *testing.T) {
	ds := dynstruct.NewDynStruct()
	data := append(
		fromHex("0x00000000000000000000000000000000000000000000000000004843"),
		fromHex("0x0000803f0000000000000000000000000000000000000000000048430102")...,
	)
	dec := binutils.NewBufferDecoder(data)

	first, err := dynstruct.New[PlayerDataFourStruct](ds, dec, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.GetPosition() != 28 {
		t.Errorf("expected cursor at 28, got %v", dec.GetPosition())
	}

	second, err := dynstruct.New[PlayerDataFourStruct](ds, dec, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.FoodDuplicate != 0 || second.FoodDuplicate != 1 {
		t.Errorf("unexpected values: %+v %+v", first, second)
	}
	if dec.GetLength() != 2 {
		t.Errorf("expected 2 bytes left, got %v", dec.GetLength())
	}
}

func TestPlayerUnits(t *testing.T) {
	ds := dynstruct.NewDynStruct()

	units := PlayerUnitsStruct{}
	units.AddUnit(UnitStruct{X: 1, Y: 2, ReferenceID: 7, UnitConst: 4, Status: 2, GarrisonedInID: -1})
	units.AddUnit(UnitStruct{X: 3, Y: 4, ReferenceID: 8, UnitConst: 83, Status: 2, Rotation: 1, GarrisonedInID: 7})

	encoded, err := ds.Marshal(&units)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encoded) != 4+2*29 {
		t.Fatalf("unexpected encoded size %v", len(encoded))
	}
	if !bytes.Equal(encoded[:4], fromHex("0x02000000")) {
		t.Errorf("unexpected unit count encoding: %x", encoded[:4])
	}

	var decoded PlayerUnitsStruct
	if err := ds.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(decoded, units) {
		t.Errorf("unexpected decoded units: %+v", decoded)
	}

	size, err := ds.Size(&units)
	if err != nil || size != len(encoded) {
		t.Errorf("unexpected size %v (%v)", size, err)
	}
}

func TestPlayerUnitsCountMismatch(t *testing.T) {
	ds := dynstruct.NewDynStruct()

	units := PlayerUnitsStruct{UnitCount: 3, Units: []UnitStruct{{}, {}}}
	_, err := ds.Marshal(&units)

	var encodeErr *dynstruct.StructEncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("expected StructEncodeError, got %v", err)
	}
	if encodeErr.Field != "units" {
		t.Errorf("expected error in field units, got %v", encodeErr.Field)
	}
	if !errors.Is(err, dynstruct.ErrRepeatCount) {
		t.Errorf("expected ErrRepeatCount, got %v", err)
	}

	// unit_count claims more units than the data holds
	var decoded PlayerUnitsStruct
	err = ds.Unmarshal(fromHex("0x05000000"), &decoded)
	if !errors.Is(err, binutils.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
}

func TestUnitsSectionCountExceedsData(t *testing.T) {
	ds := dynstruct.NewDynStruct()

	// 8 player data blocks followed by a unit section count of 200000000
	data := append(make([]byte, PlayerDataFourCount*28), fromHex("0x00c2eb0b")...)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	var decoded UnitsStruct
	err := ds.Unmarshal(data, &decoded)

	runtime.ReadMemStats(&after)

	var decodeErr *dynstruct.StructDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected StructDecodeError, got %v", err)
	}
	if decodeErr.Field != "players_units" {
		t.Errorf("expected error in field players_units, got %v", decodeErr.Field)
	}
	if !errors.Is(err, binutils.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 16<<20 {
		t.Errorf("decoding %v bytes allocated %v bytes", len(data), allocated)
	}
	if decoded.PlayersUnits != nil || decoded.PlayerDataFour != nil {
		t.Errorf("target modified on error: %+v", decoded)
	}
}

func TestUnitDefaults(t *testing.T) {
	ds := dynstruct.NewDynStruct()

	unit, err := dynstruct.New[UnitStruct](ds, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unit.Status != 2 || unit.GarrisonedInID != -1 {
		t.Errorf("unexpected unit defaults: %+v", unit)
	}
}

func TestFileHeader(t *testing.T) {
	ds := dynstruct.NewDynStruct()

	header, err := dynstruct.New[FileHeaderStruct](ds, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := header.UpdateHeaderSize(ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header.HeaderSize != 24 {
		t.Errorf("expected header size 24, got %v", header.HeaderSize)
	}

	header.CreatorName = "pk"
	header.AmountOfUnknownNumbers = 2
	header.UnknownNumbers = []uint32{1, 2}
	if err := header.UpdateHeaderSize(ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	encoded, err := ds.Marshal(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := fromHex("0x312e3437" + "22000000" + "06000000" + "00000000" + "00000000" + "02000000" + "02000000706b" + "02000000" + "0100000002000000")
	if !bytes.Equal(encoded, expected) {
		t.Errorf("unexpected encoding: %x", encoded)
	}

	var decoded FileHeaderStruct
	if err := ds.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(&decoded, header) {
		t.Errorf("unexpected decoded header: %+v", decoded)
	}
}

func TestSections(t *testing.T) {
	ds := dynstruct.NewDynStruct()

	pieces, err := DefaultPieces(ds, DefaultSections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names := pieces.Names(); !reflect.DeepEqual(names, []string{FileHeaderSection, UnitsSection}) {
		t.Fatalf("unexpected sections: %v", names)
	}

	section, _ := pieces.Get(UnitsSection)
	units := section.(*UnitsStruct)
	if units.NumberOfUnitSections != 3 || len(units.PlayersUnits) != 3 {
		t.Errorf("expected 3 unit sections for 2 players, got %v", units.NumberOfUnitSections)
	}
	if len(units.PlayerDataFour) != PlayerDataFourCount || units.PlayerDataFour[7].PopulationLimit != 200 {
		t.Errorf("unexpected player data: %+v", units.PlayerDataFour)
	}
	units.PlayersUnits[1].AddUnit(UnitStruct{X: 10, Y: 12, ReferenceID: 1, UnitConst: 4})

	buf := &bytes.Buffer{}
	if err := WriteFile(ds, buf, pieces); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := ReadFile(ds, buf.Bytes(), DefaultSections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	section, _ = decoded.Get(UnitsSection)
	decodedUnits := section.(*UnitsStruct)
	if decodedUnits.PlayersUnits[1].UnitCount != 1 || decodedUnits.PlayersUnits[1].Units[0].X != 10 {
		t.Errorf("unexpected decoded units: %+v", decodedUnits.PlayersUnits)
	}

	reencoded := binutils.NewBufferEncoder(nil)
	if err := WriteSections(ds, reencoded, decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(reencoded.Bytes(), buf.Bytes()) {
		t.Errorf("re-encoded file differs")
	}

	_, err = ReadFile(ds, append(buf.Bytes(), 0), DefaultSections)
	if !errors.Is(err, dynstruct.ErrTrailingData) {
		t.Errorf("expected trailing data error, got %v", err)
	}
	_, err = ReadFile(ds, buf.Bytes()[:buf.Len()-1], DefaultSections)
	if !errors.Is(err, binutils.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
}

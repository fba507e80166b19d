// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package scenario

import (
	dynstruct "github.com/pk910/dynamic-struct"
)

const (
	// PlayerDataFourCount is the number of player_data_4 entries, one per player slot.
	PlayerDataFourCount = 8
	// DefaultUnitSections is the unit section count of an 8 player scenario (gaia + players).
	DefaultUnitSections = 9
)

// UnitStruct is a single placed unit.
type UnitStruct struct {
	X                     float32 `retriever:"x,f32"`
	Y                     float32 `retriever:"y,f32"`
	Z                     float32 `retriever:"z,f32"`
	ReferenceID           int32   `retriever:"reference_id,s32"`
	UnitConst             uint16  `retriever:"unit_const,u16"`
	Status                uint8   `retriever:"status,u8" default:"2"`
	Rotation              float32 `retriever:"rotation,f32"`
	InitialAnimationFrame uint16  `retriever:"initial_animation_frame,u16"`
	GarrisonedInID        int32   `retriever:"garrisoned_in_id,s32" default:"-1"`
}

// PlayerUnitsStruct lists the units of one player.
type PlayerUnitsStruct struct {
	UnitCount uint32       `retriever:"unit_count,u32"`
	Units     []UnitStruct `retriever:"units" repeat:"unit_count"`
}

// AddUnit appends a unit and keeps unit_count in sync.
func (p *PlayerUnitsStruct) AddUnit(unit UnitStruct) {
	p.Units = append(p.Units, unit)
	p.UnitCount = uint32(len(p.Units))
}

// UnitsStruct is the units section of a scenario file.
type UnitsStruct struct {
	PlayerDataFour       []PlayerDataFourStruct `retriever:"player_data_4" repeat:"8"`
	NumberOfUnitSections uint32                 `retriever:"number_of_unit_sections,u32"`
	PlayersUnits         []PlayerUnitsStruct    `retriever:"players_units" repeat:"number_of_unit_sections"`
}

// Defaults sizes the unit sections by the player count of the file header
// when one has been decoded already.
func (UnitsStruct) Defaults(pieces *dynstruct.Pieces) map[string]any {
	sections := DefaultUnitSections
	if section, found := pieces.Get(FileHeaderSection); found {
		if header, ok := section.(*FileHeaderStruct); ok && header.PlayerCount > 0 {
			sections = int(header.PlayerCount) + 1
		}
	}

	playerData := make([]PlayerDataFourStruct, PlayerDataFourCount)
	for i := range playerData {
		playerData[i] = defaultPlayerDataFour()
	}

	return map[string]any{
		"player_data_4":           playerData,
		"number_of_unit_sections": uint32(sections),
		"players_units":           make([]PlayerUnitsStruct, sections),
	}
}

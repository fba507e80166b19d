// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package scenario

import (
	dynstruct "github.com/pk910/dynamic-struct"
)

// FileHeaderStruct is the uncompressed header in front of the scenario data.
type FileHeaderStruct struct {
	Version                string   `retriever:"version,char4" default:"1.47"`
	HeaderSize             uint32   `retriever:"header_size,u32"`
	Savable                int32    `retriever:"savable,s32" default:"6"`
	TimestampOfLastSave    uint32   `retriever:"timestamp_of_last_save,u32"`
	ScenarioInstructions   string   `retriever:"scenario_instructions,str32"`
	PlayerCount            uint32   `retriever:"player_count,u32" default:"2"`
	CreatorName            string   `retriever:"creator_name,str32"`
	AmountOfUnknownNumbers uint32   `retriever:"amount_of_unknown_numbers,u32"`
	UnknownNumbers         []uint32 `retriever:"unknown_numbers,u32" repeat:"amount_of_unknown_numbers"`
}

// headerSizeOffset is the number of bytes in front of the header_size counted region.
const headerSizeOffset = 8

// UpdateHeaderSize sets header_size to the encoded size of the header
// following the header_size field.
func (h *FileHeaderStruct) UpdateHeaderSize(ds *dynstruct.DynStruct) error {
	size, err := ds.Size(h)
	if err != nil {
		return err
	}
	h.HeaderSize = uint32(size - headerSizeOffset)
	return nil
}

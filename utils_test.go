// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct_test

import (
	"encoding/hex"

	. "github.com/pk910/dynamic-struct"
)

type slug_PlayerData struct {
	Food            float32 `retriever:"food,f32"`
	Wood            float32 `retriever:"wood,f32"`
	PopulationLimit float32 `retriever:"population_limit,f32" default:"200"`
}

type slug_Unit struct {
	X         float32 `retriever:"x,f32"`
	Y         float32 `retriever:"y,f32"`
	UnitConst uint16  `retriever:"unit_const,u16" default:"4"`
}

type slug_PlayerUnits struct {
	UnitCount uint32      `retriever:"unit_count,u32"`
	Units     []slug_Unit `retriever:"units" repeat:"unit_count"`
}

type slug_Header struct {
	Version     string `retriever:"version,char4" default:"1.47"`
	Name        string `retriever:"name,str16"`
	Description string `retriever:"description,str32"`
	Enabled     bool   `retriever:"enabled,bool" default:"true"`
	Checksum    []byte `retriever:"checksum,bytes4" default:"0xdeadbeef"`
}

type slug_Checksum struct {
	Checksum []byte `retriever:"checksum,bytes4"`
}

type slug_Names struct {
	Count uint32   `retriever:"count,u32"`
	Names []string `retriever:"names,str16" repeat:"count"`
}

// slug_playerDataDef is the record form of slug_PlayerData.
var slug_playerDataDef = MustStructDef("PlayerData", []*Retriever{
	MustRetriever("food", "f32"),
	MustRetriever("wood", "f32"),
	MustRetriever("population_limit", "f32", WithDefault(float32(200))),
})

// FromHex returns the bytes represented by the hexadecimal string s.
// s may be prefixed with "0x".
func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex2Bytes(s)
}

// has0xPrefix validates str begins with '0x' or '0X'.
func has0xPrefix(str string) bool {
	return len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X')
}

// Bytes2Hex returns the hexadecimal encoding of d.
func bytes2Hex(d []byte) string {
	return hex.EncodeToString(d)
}

// Hex2Bytes returns the bytes represented by the hexadecimal string str.
func hex2Bytes(str string) []byte {
	h, _ := hex.DecodeString(str)
	return h
}

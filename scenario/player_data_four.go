// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package scenario

import (
	dynstruct "github.com/pk910/dynamic-struct"
)

// PlayerDataFourStruct holds the duplicated starting resources and the
// population limit of one player.
type PlayerDataFourStruct struct {
	FoodDuplicate       float32 `retriever:"food_duplicate,f32"`
	WoodDuplicate       float32 `retriever:"wood_duplicate,f32"`
	GoldDuplicate       float32 `retriever:"gold_duplicate,f32"`
	StoneDuplicate      float32 `retriever:"stone_duplicate,f32"`
	OreXDuplicate       float32 `retriever:"ore_x_duplicate,f32"`
	TradeGoodsDuplicate float32 `retriever:"trade_goods_duplicate,f32"`
	PopulationLimit     float32 `retriever:"population_limit,f32"`
}

func (PlayerDataFourStruct) Defaults(pieces *dynstruct.Pieces) map[string]any {
	return map[string]any{
		"food_duplicate":        float32(0),
		"wood_duplicate":        float32(0),
		"gold_duplicate":        float32(0),
		"stone_duplicate":       float32(0),
		"ore_x_duplicate":       float32(0),
		"trade_goods_duplicate": float32(0),
		"population_limit":      float32(200),
	}
}

func defaultPlayerDataFour() PlayerDataFourStruct {
	return PlayerDataFourStruct{PopulationLimit: 200}
}

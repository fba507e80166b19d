// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import "sync"

var (
	globalMutex     sync.Mutex
	globalDynStruct *DynStruct
)

// GetGlobalDynStruct returns the shared codec used by Record.Encode and by
// nested struct data types outside of a codec call.
func GetGlobalDynStruct() *DynStruct {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	if globalDynStruct == nil {
		globalDynStruct = NewDynStruct()
	}
	return globalDynStruct
}

// SetGlobalSpecs replaces the global codec with one using the given spec values.
func SetGlobalSpecs(specs map[string]any) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	globalDynStruct = NewDynStruct(WithSpecValues(specs))
}

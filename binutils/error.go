// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package binutils

import "fmt"

var (
	ErrUnexpectedEOF = fmt.Errorf("unexpected end of data")
	ErrNegativeSize  = fmt.Errorf("negative byte count")
)

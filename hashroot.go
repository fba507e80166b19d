// dynstruct: declarative binary struct encoding and decoding.
// This file is part of the dynstruct package.
// Copyright (c) 2025 by pk910. Refer to LICENSE for more information.
package dynstruct

import (
	"github.com/pk910/dynamic-struct/hasher"
)

// HashRoot returns the merkle root of the encoding of source. Two structs
// have the same root exactly when they encode to the same bytes, so it can be
// used to detect modified sections after a decode.
func (d *DynStruct) HashRoot(source any) ([32]byte, error) {
	buf, err := d.Marshal(source)
	if err != nil {
		return [32]byte{}, err
	}
	return hasher.Root(buf)
}

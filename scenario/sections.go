// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package scenario

import (
	"fmt"
	"io"

	dynstruct "github.com/pk910/dynamic-struct"
	"github.com/pk910/dynamic-struct/binutils"
)

const (
	FileHeaderSection = "FileHeader"
	UnitsSection      = "Units"
)

// Section binds a section name to the typed struct it is decoded into.
type Section struct {
	Name string
	New  func() any
}

// DefaultSections is the section order of a scenario file as handled by this package.
var DefaultSections = []Section{
	{Name: FileHeaderSection, New: func() any { return &FileHeaderStruct{} }},
	{Name: UnitsSection, New: func() any { return &UnitsStruct{} }},
}

// ReadSections decodes sections back to back from dec. Every decoded section
// is added to the returned pieces before the next one is read.
func ReadSections(ds *dynstruct.DynStruct, dec binutils.Decoder, sections []Section) (*dynstruct.Pieces, error) {
	pieces := dynstruct.NewPieces()
	for _, section := range sections {
		target := section.New()
		if err := ds.UnmarshalFrom(dec, target); err != nil {
			return nil, fmt.Errorf("failed decoding section %v: %w", section.Name, err)
		}
		pieces.Add(section.Name, target)
	}
	return pieces, nil
}

// ReadFile decodes all sections from data, which must be fully consumed.
func ReadFile(ds *dynstruct.DynStruct, data []byte, sections []Section) (*dynstruct.Pieces, error) {
	dec := binutils.NewBufferDecoder(data)
	pieces, err := ReadSections(ds, dec, sections)
	if err != nil {
		return nil, err
	}
	if dec.GetLength() != 0 {
		return nil, fmt.Errorf("%w: %v bytes after last section", dynstruct.ErrTrailingData, dec.GetLength())
	}
	return pieces, nil
}

// DefaultPieces builds every section from its defaults. Later sections see
// the earlier ones through pieces.
func DefaultPieces(ds *dynstruct.DynStruct, sections []Section) (*dynstruct.Pieces, error) {
	pieces := dynstruct.NewPieces()
	for _, section := range sections {
		target := section.New()
		if err := ds.Defaults(target, pieces); err != nil {
			return nil, fmt.Errorf("failed building section %v: %w", section.Name, err)
		}
		pieces.Add(section.Name, target)
	}
	return pieces, nil
}

// WriteSections encodes all pieces in file order.
func WriteSections(ds *dynstruct.DynStruct, enc binutils.Encoder, pieces *dynstruct.Pieces) error {
	for _, name := range pieces.Names() {
		section, _ := pieces.Get(name)
		if err := ds.MarshalEncoder(section, enc); err != nil {
			return fmt.Errorf("failed encoding section %v: %w", name, err)
		}
	}
	return nil
}

// WriteFile streams all pieces to w.
func WriteFile(ds *dynstruct.DynStruct, w io.Writer, pieces *dynstruct.Pieces) error {
	return WriteSections(ds, binutils.NewStreamEncoder(w), pieces)
}

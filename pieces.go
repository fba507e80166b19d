// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

// Pieces is the context of the enclosing file: the sections decoded so far, in
// file order. Defaults functions use it to derive values from sibling structs.
// A nil *Pieces is valid and empty.
type Pieces struct {
	names    []string
	sections map[string]any
}

func NewPieces() *Pieces {
	return &Pieces{
		sections: map[string]any{},
	}
}

// Add stores a section. Adding an existing name replaces the section but keeps
// its position.
func (p *Pieces) Add(name string, section any) {
	if _, exists := p.sections[name]; !exists {
		p.names = append(p.names, name)
	}
	p.sections[name] = section
}

// Get returns the named section.
func (p *Pieces) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	section, found := p.sections[name]
	return section, found
}

// Names returns the section names in file order.
func (p *Pieces) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

// Len returns the number of sections.
func (p *Pieces) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

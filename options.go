// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

type DynStructOption func(*DynStructOptions)

type DynStructOptions struct {
	SpecValues map[string]any
	Verbose    bool
	LogCb      func(format string, args ...any)
}

// WithSpecValues sets named values available to repeat expressions,
// e.g. {"MAX_PLAYERS": 16}.
func WithSpecValues(specs map[string]any) DynStructOption {
	return func(opts *DynStructOptions) {
		opts.SpecValues = specs
	}
}

func WithVerbose() DynStructOption {
	return func(opts *DynStructOptions) {
		opts.Verbose = true
	}
}

func WithLogCb(logCb func(format string, args ...any)) DynStructOption {
	return func(opts *DynStructOptions) {
		opts.LogCb = logCb
	}
}

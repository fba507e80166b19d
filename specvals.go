// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package dynstruct

import (
	"fmt"
	"math"
	"reflect"
)

// repeatCount evaluates the repeat expression of a retriever against the spec
// values and the sibling fields preceding it (prior holds their values).
func (d *DynStruct) repeatCount(def *StructDef, retriever *Retriever, prior []any) (int, error) {
	if retriever.repeatConst >= 0 {
		return retriever.repeatConst, nil
	}

	params := make(map[string]any, len(d.specValues)+len(prior))
	for name, value := range d.specValues {
		params[name] = expressionValue(value)
	}
	for i, value := range prior {
		params[def.retrievers[i].name] = expressionValue(value)
	}

	result, err := retriever.repeatExpr.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("%w: error evaluating %q: %v", ErrRepeatCount, retriever.repeat, err)
	}

	value, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %q evaluated to %T", ErrRepeatCount, retriever.repeat, result)
	}
	if value < 0 || value != math.Trunc(value) || value > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q evaluated to %v", ErrRepeatCount, retriever.repeat, value)
	}
	return int(value), nil
}

// expressionValue turns numeric field values into float64, the only number
// type govaluate operates on.
func expressionValue(value any) any {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return value
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return float64(rv.Len())
		}
	}
	return value
}

// dynstruct: declarative binary struct encoding and decoding.
// This file is part of the dynstruct package.
// Copyright (c) 2025 by pk910. Refer to LICENSE for more information.
package dynstruct

import (
	"fmt"
	"reflect"
	"strings"
)

// fieldTag holds the parsed `retriever`, `default` and `repeat` tags of a struct field.
type fieldTag struct {
	name       string
	dataType   string
	defaultVal *string
	repeat     string
}

// parseFieldTags parses the tags of a struct field. It returns nil for fields
// that are not bound to a retriever.
func parseFieldTags(field *reflect.StructField) (*fieldTag, error) {
	retrieverTag, hasRetriever := field.Tag.Lookup("retriever")
	if !hasRetriever || retrieverTag == "-" {
		return nil, nil
	}

	tag := &fieldTag{}
	parts := strings.Split(retrieverTag, ",")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid retriever tag for '%v' field: %v", field.Name, retrieverTag)
	}

	tag.name = strings.TrimSpace(parts[0])
	if tag.name == "" {
		return nil, fmt.Errorf("retriever tag for '%v' field has no name", field.Name)
	}
	if len(parts) == 2 {
		tag.dataType = strings.TrimSpace(parts[1])
	}

	if defaultTag, hasDefault := field.Tag.Lookup("default"); hasDefault {
		tag.defaultVal = &defaultTag
	}
	if repeatTag, hasRepeat := field.Tag.Lookup("repeat"); hasRepeat {
		tag.repeat = strings.TrimSpace(repeatTag)
		if tag.repeat == "" {
			return nil, fmt.Errorf("empty repeat tag for '%v' field", field.Name)
		}
	}

	return tag, nil
}

package mcp

import (
	"encoding/json"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ArgumentSkeleton builds an example argument object from a tool's input
// schema: every property gets its default, its first enum value, or a
// zero value of its declared type.
func ArgumentSkeleton(tool mcptypes.Tool) map[string]any {
	skeleton := make(map[string]any, len(tool.InputSchema.Properties))

	for name, raw := range tool.InputSchema.Properties {
		skeleton[name] = placeholder(asPropertyMap(raw))
	}

	// Required keys without a property definition still appear
	for _, name := range tool.InputSchema.Required {
		if _, ok := skeleton[name]; !ok {
			skeleton[name] = ""
		}
	}

	return skeleton
}

// SkeletonJSON is ArgumentSkeleton rendered for the arguments text area.
func SkeletonJSON(tool mcptypes.Tool) string {
	data, err := json.MarshalIndent(ArgumentSkeleton(tool), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// asPropertyMap normalises a property definition to map form. Values that
// are not maps already go through a JSON round trip.
func asPropertyMap(propValue any) map[string]any {
	if propMap, ok := propValue.(map[string]any); ok {
		return propMap
	}

	bytes, err := json.Marshal(propValue)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(bytes, &m); err != nil {
		return nil
	}
	return m
}

func placeholder(prop map[string]any) any {
	if prop == nil {
		return ""
	}
	if def, ok := prop["default"]; ok {
		return def
	}
	if enum, ok := prop["enum"].([]any); ok && len(enum) > 0 {
		return enum[0]
	}

	switch propertyType(prop["type"]) {
	case "integer", "number":
		return 0
	case "boolean":
		return false
	case "array":
		return []any{}
	case "object":
		if nested, ok := prop["properties"].(map[string]any); ok {
			obj := make(map[string]any, len(nested))
			for name, raw := range nested {
				obj[name] = placeholder(asPropertyMap(raw))
			}
			return obj
		}
		return map[string]any{}
	default:
		return ""
	}
}

// propertyType handles both "type": "x" and "type": ["x", "null"].
func propertyType(typeVal any) string {
	switch t := typeVal.(type) {
	case string:
		return t
	case []string:
		for _, s := range t {
			if s != "null" {
				return s
			}
		}
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

package rpc

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrArgumentsNotObject = errors.New("arguments must be a JSON object")

// ParseArguments decodes user-typed tool arguments. Blank input is an empty
// object; anything that is not a JSON object is rejected.
func ParseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrArgumentsNotObject
	}
	return obj, nil
}

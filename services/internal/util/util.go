// Package util holds small helpers shared by services.
package util

import (
	"encoding/json"
)

// DecodeJSON decodes a bus payload into dst. Payloads arrive as raw JSON
// (from the config service) or as already-decoded values (from other
// services); the latter are round-tripped through JSON.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case *T:
		*dst = *v
		return nil
	case T:
		*dst = v
		return nil
	case json.RawMessage:
		return json.Unmarshal(v, dst)
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

package query

import (
	"encoding/json"
	"fmt"
)

// Decode converts cached data to T. Data fetched over HTTP is raw JSON;
// data put directly may already be a T.
func Decode[T any](data any) (T, error) {
	var out T
	switch v := data.(type) {
	case nil:
		return out, nil
	case T:
		return v, nil
	case json.RawMessage:
		err := json.Unmarshal(v, &out)
		return out, err
	case []byte:
		err := json.Unmarshal(v, &out)
		return out, err
	default:
		// Round-trip through JSON for maps and other shapes.
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("query: decode %T: %w", data, err)
		}
		err = json.Unmarshal(b, &out)
		return out, err
	}
}

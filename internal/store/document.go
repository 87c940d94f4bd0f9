package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// setField decodes doc, sets value at path and encodes it back. Objects on
// the path are created when missing, array elements are addressed by index.
func setField(doc []byte, path []string, value any) ([]byte, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	var root any
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}

	// Round trip the value so structs land as plain JSON values.
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}

	cur := root
	for i, seg := range path {
		last := i == len(path)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[seg] = v
				break
			}
			next, ok := node[seg]
			if !ok || next == nil {
				next = map[string]any{}
				node[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%w: index %q out of range", ErrInvalidPath, seg)
			}
			if last {
				node[idx] = v
				break
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("%w: %q is not a container", ErrInvalidPath, seg)
		}
	}

	return json.Marshal(root)
}

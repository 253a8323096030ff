// Package cleanse strips placeholder and empty values from decoded
// organisation documents before they are stored.
package cleanse

const missingMarker = "isMissing"

// Cleanse returns a cleaned copy of obj; obj itself is left untouched.
//
// A top-level object whose isMissing marker is exactly false loses the marker.
// Then every nil, empty string, empty array and empty object is removed at any
// depth, including containers that only become empty through that pruning.
// Cleanse(Cleanse(x)) equals Cleanse(x).
func Cleanse(obj map[string]interface{}) map[string]interface{} {
	stripped := make(map[string]interface{}, len(obj))
	for key, value := range obj {
		if section, ok := value.(map[string]interface{}); ok {
			if marker, ok := section[missingMarker].(bool); ok && !marker {
				value = withoutKey(section, missingMarker)
			}
		}
		stripped[key] = value
	}

	cleaned, ok := clean(stripped).(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return cleaned
}

// clean returns the pruned value, or nil when nothing is left of it
func clean(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return v
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, child := range v {
			if c := clean(child); c != nil {
				out[key] = c
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, child := range v {
			if c := clean(child); c != nil {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		// numbers and booleans are kept as they are, false and 0 included
		return v
	}
}

func withoutKey(m map[string]interface{}, drop string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != drop {
			out[k] = v
		}
	}
	return out
}

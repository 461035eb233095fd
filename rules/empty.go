package rules

// IsEmpty reports whether v carries no data: nil, an empty string, an empty
// slice or an empty map. Zero numbers and false are data.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case []map[string]any:
		return len(t) == 0
	}
	return false
}

// RemoveEmptyValues returns a copy of v where empty members of maps and
// slices are dropped, recursively. Scalars are returned unchanged.
func RemoveEmptyValues(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, it := range t {
			nv := RemoveEmptyValues(it)
			if !IsEmpty(nv) {
				out = append(out, nv)
			}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, it := range t {
			nv := RemoveEmptyValues(it)
			if !IsEmpty(nv) {
				out[k] = nv
			}
		}
		return out
	}
	return v
}

// Clone returns a deep copy of the maps and slices of v. Scalars are shared.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, it := range t {
			out[k] = Clone(it)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = Clone(it)
		}
		return out
	}
	return v
}

package recordform

import "github.com/rero/recordform/rules"

// Model access by Path. Maps are map[string]any and arrays []any, the shape
// produced by the decoders in jsonschema.

func lookup(v any, p Path) (any, bool) {
	cur := v
	for _, s := range p {
		if s.IsIndex {
			arr, ok := cur.([]any)
			if !ok || s.Index < 0 || s.Index >= len(arr) {
				return nil, false
			}
			cur = arr[s.Index]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[s.Name]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// assign stores v at p inside root, creating intermediate containers, and
// returns the (possibly new) root.
func assign(root any, p Path, v any) any {
	if len(p) == 0 {
		return v
	}
	s := p[0]
	if s.IsIndex {
		arr, _ := root.([]any)
		for len(arr) <= s.Index {
			arr = append(arr, nil)
		}
		arr[s.Index] = assign(arr[s.Index], p[1:], v)
		return arr
	}
	m, ok := root.(map[string]any)
	if !ok || m == nil {
		m = map[string]any{}
	}
	m[s.Name] = assign(m[s.Name], p[1:], v)
	return m
}

// unset removes the value at p: map keys are deleted, array slots become
// nil so sibling indexes stay stable.
func unset(root any, p Path) {
	if len(p) == 0 {
		return
	}
	parent, ok := lookup(root, p[:len(p)-1])
	if !ok {
		return
	}
	last := p[len(p)-1]
	switch c := parent.(type) {
	case map[string]any:
		if !last.IsIndex {
			delete(c, last.Name)
		}
	case []any:
		if last.IsIndex && last.Index < len(c) {
			c[last.Index] = nil
		}
	}
}

// deepCopy clones maps and slices so callers cannot alias the tree model.
func deepCopy(v any) any { return rules.Clone(v) }

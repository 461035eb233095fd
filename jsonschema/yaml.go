package jsonschema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a schema written in YAML. Mapping order is preserved by
// walking yaml.Node rather than decoding into maps.
func ParseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonschema: invalid YAML: %w", err)
	}
	raw, err := yamlToRaw(&doc)
	if err != nil {
		return nil, err
	}
	return fromRaw(raw)
}

// DecodeYAMLValue decodes a YAML document into plain JSON-like values
// (map[string]any, []any, float64, string, bool, nil).
func DecodeYAMLValue(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonschema: invalid YAML: %w", err)
	}
	raw, err := yamlToRaw(&doc)
	if err != nil {
		return nil, err
	}
	return plain(raw), nil
}

func yamlToRaw(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlToRaw(n.Content[0])
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("jsonschema: line %d: non-scalar mapping key", k.Line)
			}
			if _, dup := obj.vals[k.Value]; dup {
				return nil, fmt.Errorf("jsonschema: line %d: duplicate key %q", k.Line, k.Value)
			}
			v, err := yamlToRaw(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.set(k.Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlToRaw(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, errors.New("jsonschema: dangling YAML alias")
		}
		return yamlToRaw(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("jsonschema: line %d: %w", n.Line, err)
		}
		return yamlNormalizeScalar(v), nil
	}
	return nil, fmt.Errorf("jsonschema: unsupported YAML node kind %d", n.Kind)
}

// yamlNormalizeScalar aligns YAML scalars with what a JSON decoder yields.
func yamlNormalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}

package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// object is a decoded JSON object that remembers key order.
type object struct {
	keys []string
	vals map[string]any
}

func newObject() *object { return &object{vals: map[string]any{}} }

func (o *object) set(k string, v any) {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

func (o *object) get(k string) (any, bool) {
	v, ok := o.vals[k]
	return v, ok
}

// Parse decodes a JSON schema document. The input may be the schema itself
// or a schema form envelope of the shape {"schema": {...}}.
func Parse(data []byte) (*Node, error) {
	raw, err := decodeOrdered(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return fromRaw(raw)
}

// ParseValue converts an already decoded schema (nested map[string]any) into
// a Node. Map iteration order is lost, so properties come out sorted by name
// unless the node declares propertiesOrder.
func ParseValue(v any) (*Node, error) {
	return fromRaw(fromPlain(v))
}

func fromRaw(raw any) (*Node, error) {
	obj, ok := raw.(*object)
	if !ok {
		return nil, Errorf("#", "schema document must be an object")
	}
	if inner, ok := obj.get("schema"); ok {
		if env, ok := inner.(*object); ok {
			if _, hasType := obj.get("type"); !hasType {
				obj = env
			}
		}
	}
	return decodeNode(obj, "#")
}

// decodeOrdered reads one JSON value keeping object key order.
func decodeOrdered(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec, "#")
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, fmt.Errorf("jsonschema: invalid JSON: %w", err)
	}
	return v, nil
}

// decodeValue reads the value at path. A key repeated in one object is a
// SchemaError: which of the two wins is undefined across decoders.
func decodeValue(dec *json.Decoder, path string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := newObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				at := path + "/" + escape(key)
				if _, dup := obj.vals[key]; dup {
					return nil, Errorf(at, "duplicate key %q", key)
				}
				val, err := decodeValue(dec, at)
				if err != nil {
					return nil, err
				}
				obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for i := 0; dec.More(); i++ {
				val, err := decodeValue(dec, fmt.Sprintf("%s/%d", path, i))
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		// string, bool, nil
		return v, nil
	}
}

// plain turns decoded ordered values into plain JSON values.
func plain(v any) any {
	switch t := v.(type) {
	case *object:
		out := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			out[k] = plain(t.vals[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	default:
		return v
	}
}

// fromPlain is the inverse of plain; keys are sorted for determinism.
func fromPlain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		obj := newObject()
		for _, k := range sortedKeys(t) {
			obj.set(k, fromPlain(t[k]))
		}
		return obj
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromPlain(t[i])
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

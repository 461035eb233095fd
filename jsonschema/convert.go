package jsonschema

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rero/recordform/rules"
)

// DecodeConfig maps a plain JSON value (typically a validator or widget
// config) onto a typed struct through a JSON round trip.
func DecodeConfig(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func decodeNode(obj *object, path string) (*Node, error) {
	n := &Node{}
	var err error
	if n.Ref, err = optString(obj, "$ref", path); err != nil {
		return nil, err
	}
	if n.Type, err = decodeType(obj, path); err != nil {
		return nil, err
	}
	if n.Title, err = optString(obj, "title", path); err != nil {
		return nil, err
	}
	if n.Description, err = optString(obj, "description", path); err != nil {
		return nil, err
	}
	if n.Format, err = optString(obj, "format", path); err != nil {
		return nil, err
	}
	if n.Pattern, err = optString(obj, "pattern", path); err != nil {
		return nil, err
	}
	if v, ok := obj.get("default"); ok {
		n.Default, n.HasDefault = plain(v), true
	}
	if v, ok := obj.get("const"); ok {
		n.Const = plain(v)
	}
	if v, ok := obj.get("enum"); ok {
		arr, ok := v.([]any)
		if !ok {
			return nil, Errorf(path+"/enum", "enum must be an array")
		}
		n.Enum = plain(arr).([]any)
	}
	if v, ok := obj.get("readOnly"); ok {
		b, _ := v.(bool)
		n.ReadOnly = b
	}
	if n.Required, err = optStrings(obj, "required", path); err != nil {
		return nil, err
	}
	if n.PropertiesOrder, err = optStrings(obj, "propertiesOrder", path); err != nil {
		return nil, err
	}
	for _, k := range []struct {
		name string
		dst  **int
	}{{"minItems", &n.MinItems}, {"maxItems", &n.MaxItems}, {"minLength", &n.MinLength}, {"maxLength", &n.MaxLength}} {
		if *k.dst, err = optInt(obj, k.name, path); err != nil {
			return nil, err
		}
	}
	if n.Minimum, err = optFloat(obj, "minimum", path); err != nil {
		return nil, err
	}
	if n.Maximum, err = optFloat(obj, "maximum", path); err != nil {
		return nil, err
	}

	if v, ok := obj.get("properties"); ok {
		pm, ok := v.(*object)
		if !ok {
			return nil, Errorf(path+"/properties", "properties must be an object")
		}
		for _, name := range pm.keys {
			sub, ok := pm.vals[name].(*object)
			p := path + "/properties/" + escape(name)
			if !ok {
				return nil, Errorf(p, "property schema must be an object")
			}
			child, err := decodeNode(sub, p)
			if err != nil {
				return nil, err
			}
			n.Properties = append(n.Properties, &Property{Name: name, Schema: child})
		}
	}
	for _, key := range []string{"definitions", "$defs"} {
		v, ok := obj.get(key)
		if !ok {
			continue
		}
		dm, ok := v.(*object)
		if !ok {
			return nil, Errorf(path+"/"+key, "%s must be an object", key)
		}
		if n.Definitions == nil {
			n.Definitions = make(map[string]*Node, len(dm.keys))
		}
		for _, name := range dm.keys {
			sub, ok := dm.vals[name].(*object)
			p := path + "/" + key + "/" + escape(name)
			if !ok {
				return nil, Errorf(p, "definition must be an object")
			}
			child, err := decodeNode(sub, p)
			if err != nil {
				return nil, err
			}
			n.Definitions[name] = child
		}
	}
	if v, ok := obj.get("items"); ok {
		sub, ok := v.(*object)
		if !ok {
			return nil, Errorf(path+"/items", "items must be a single schema object")
		}
		if n.Items, err = decodeNode(sub, path+"/items"); err != nil {
			return nil, err
		}
	}
	if v, ok := obj.get("oneOf"); ok {
		arr, ok := v.([]any)
		if !ok {
			return nil, Errorf(path+"/oneOf", "oneOf must be an array")
		}
		for i, it := range arr {
			sub, ok := it.(*object)
			p := path + "/oneOf/" + strconv.Itoa(i)
			if !ok {
				return nil, Errorf(p, "oneOf member must be an object")
			}
			child, err := decodeNode(sub, p)
			if err != nil {
				return nil, err
			}
			n.OneOf = append(n.OneOf, child)
		}
	}
	if v, ok := obj.get("widget"); ok {
		wo, ok := v.(*object)
		if !ok {
			return nil, Errorf(path+"/widget", "widget must be an object")
		}
		if n.Widget, err = decodeWidget(wo, path+"/widget"); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func decodeType(obj *object, path string) (string, error) {
	v, ok := obj.get("type")
	if !ok {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case []any:
		// ["string", "null"] style: first non-null type wins
		for _, it := range t {
			if s, ok := it.(string); ok && s != TypeNull {
				return s, nil
			}
		}
		return TypeNull, nil
	}
	return "", Errorf(path+"/type", "type must be a string or an array of strings")
}

func decodeWidget(wo *object, path string) (*Widget, error) {
	w := &Widget{}
	fv, ok := wo.get("formlyConfig")
	if !ok {
		return w, nil
	}
	fc, ok := fv.(*object)
	path += "/formlyConfig"
	if !ok {
		return nil, Errorf(path, "formlyConfig must be an object")
	}
	var err error
	if w.Type, err = optString(fc, "type", path); err != nil {
		return nil, err
	}
	if w.Wrappers, err = optStrings(fc, "wrappers", path); err != nil {
		return nil, err
	}
	if v, ok := fc.get("hideExpression"); ok {
		var c rules.Condition
		if err := DecodeConfig(plain(v), &c); err != nil {
			return nil, Errorf(path+"/hideExpression", "invalid condition: %v", err)
		}
		if err := c.Check(); err != nil {
			return nil, Errorf(path+"/hideExpression", "invalid condition: %v", err)
		}
		w.HideExpression = &c
	}
	pv, ok := fc.get("props")
	if !ok {
		return w, nil
	}
	props, ok := pv.(*object)
	path += "/props"
	if !ok {
		return nil, Errorf(path, "props must be an object")
	}
	w.Props = plain(props).(map[string]any)
	if v, ok := props.get("hide"); ok {
		b, ok := v.(bool)
		if !ok {
			return nil, Errorf(path+"/hide", "hide must be a boolean")
		}
		w.Hide = &b
	}
	if w.Placeholder, err = optString(props, "placeholder", path); err != nil {
		return nil, err
	}
	if w.PropertiesOrder, err = optStrings(props, "propertiesOrder", path); err != nil {
		return nil, err
	}
	if v, ok := props.get("options"); ok {
		if err := DecodeConfig(plain(v), &w.Options); err != nil {
			return nil, Errorf(path+"/options", "invalid options: %v", err)
		}
	}
	if v, ok := props.get("remoteOptions"); ok {
		var ro RemoteOptions
		if err := DecodeConfig(plain(v), &ro); err != nil {
			return nil, Errorf(path+"/remoteOptions", "invalid remote options: %v", err)
		}
		w.RemoteOptions = &ro
	}
	if v, ok := props.get("validation"); ok {
		vo, ok := v.(*object)
		if !ok {
			return nil, Errorf(path+"/validation", "validation must be an object")
		}
		if w.Validation, err = decodeValidation(vo, path+"/validation"); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func decodeValidation(vo *object, path string) (Validation, error) {
	var out Validation
	if v, ok := vo.get("messages"); ok {
		mo, ok := v.(*object)
		if !ok {
			return out, Errorf(path+"/messages", "messages must be an object")
		}
		out.Messages = make(map[string]string, len(mo.keys))
		for _, k := range mo.keys {
			s, ok := mo.vals[k].(string)
			if !ok {
				return out, Errorf(path+"/messages/"+escape(k), "message must be a string")
			}
			// requiredMessage and required are the same key
			out.Messages[strings.TrimSuffix(k, "Message")] = s
		}
	}
	if v, ok := vo.get("validators"); ok {
		vs, ok := v.(*object)
		if !ok {
			return out, Errorf(path+"/validators", "validators must be an object")
		}
		for _, name := range vs.keys {
			cfg, ok := plain(vs.vals[name]).(map[string]any)
			if !ok {
				return out, Errorf(path+"/validators/"+escape(name), "validator config must be an object")
			}
			out.Validators = append(out.Validators, ValidatorDecl{Name: name, Config: cfg})
		}
	}
	return out, nil
}

func optString(obj *object, key, path string) (string, error) {
	v, ok := obj.get(key)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", Errorf(path+"/"+escape(key), "%s must be a string", key)
	}
	return s, nil
}

func optStrings(obj *object, key, path string) ([]string, error) {
	v, ok := obj.get(key)
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, Errorf(path+"/"+escape(key), "%s must be an array of strings", key)
	}
	out := make([]string, 0, len(arr))
	for _, it := range arr {
		s, ok := it.(string)
		if !ok {
			return nil, Errorf(path+"/"+escape(key), "%s must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

func optFloat(obj *object, key, path string) (*float64, error) {
	v, ok := obj.get(key)
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil, Errorf(path+"/"+key, "%s must be a number", key)
	}
	return &f, nil
}

func optInt(obj *object, key, path string) (*int, error) {
	f, err := optFloat(obj, key, path)
	if err != nil || f == nil {
		return nil, err
	}
	if *f < 0 || *f != math.Trunc(*f) {
		return nil, Errorf(path+"/"+key, "%s must be a non-negative integer", key)
	}
	i := int(*f)
	return &i, nil
}

func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

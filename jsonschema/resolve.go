package jsonschema

import (
	"strconv"
	"strings"
)

// Resolve returns a normalized copy of root: every $ref is replaced by a copy
// of the node it points to, and object properties follow the declared order
// (widget propertiesOrder, else node propertiesOrder). Properties missing from
// the order list keep their relative order after the ordered ones.
//
// Only local references ("#/...") are supported. An unknown target or a
// reference cycle yields a *SchemaError; root is never modified.
func Resolve(root *Node) (*Node, error) {
	if root == nil {
		return nil, Errorf("#", "nil schema")
	}
	r := &resolver{root: root, visiting: map[string]bool{}}
	return r.resolve(root, "#")
}

type resolver struct {
	root     *Node
	visiting map[string]bool
}

func (r *resolver) resolve(n *Node, at string) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	if n.Ref != "" {
		ref := n.Ref
		if r.visiting[ref] {
			return nil, Errorf(at, "cyclic $ref %q", ref)
		}
		target, err := r.lookup(ref, at)
		if err != nil {
			return nil, err
		}
		r.visiting[ref] = true
		resolved, err := r.resolve(target, at)
		delete(r.visiting, ref)
		if err != nil {
			return nil, err
		}
		// explicit members next to $ref win over the target's
		if n.Title != "" {
			resolved.Title = n.Title
		}
		if n.Description != "" {
			resolved.Description = n.Description
		}
		if n.HasDefault {
			resolved.Default, resolved.HasDefault = n.Default, true
		}
		if n.Widget != nil {
			resolved.Widget = n.Widget
			resolved.Properties = orderProperties(resolved.Properties, declaredOrder(resolved))
		}
		if n.ReadOnly {
			resolved.ReadOnly = true
		}
		return resolved, nil
	}

	out := n.shallowCopy()
	out.Definitions = nil
	for i, p := range out.Properties {
		child, err := r.resolve(p.Schema, at+"/properties/"+escape(p.Name))
		if err != nil {
			return nil, err
		}
		out.Properties[i] = &Property{Name: p.Name, Schema: child}
	}
	if out.Items != nil {
		items, err := r.resolve(out.Items, at+"/items")
		if err != nil {
			return nil, err
		}
		out.Items = items
	}
	for i, alt := range out.OneOf {
		child, err := r.resolve(alt, at+"/oneOf/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out.OneOf[i] = child
	}
	out.Properties = orderProperties(out.Properties, declaredOrder(out))
	return out, nil
}

// lookup walks a local JSON Pointer reference from the root node.
func (r *resolver) lookup(ref, at string) (*Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, Errorf(at, "$ref %q not supported (local references only)", ref)
	}
	ptr := strings.TrimPrefix(strings.TrimPrefix(ref, "#"), "/")
	cur := r.root
	if ptr == "" {
		return cur, nil
	}
	segs := strings.Split(ptr, "/")
	for i := 0; i < len(segs); i++ {
		seg := unescape(segs[i])
		var next *Node
		switch seg {
		case "definitions", "$defs":
			if i+1 < len(segs) {
				i++
				next = cur.Definitions[unescape(segs[i])]
			}
		case "properties":
			if i+1 < len(segs) {
				i++
				next = cur.Property(unescape(segs[i]))
			}
		case "items":
			next = cur.Items
		case "oneOf":
			if i+1 < len(segs) {
				i++
				idx, err := strconv.Atoi(segs[i])
				if err == nil && idx >= 0 && idx < len(cur.OneOf) {
					next = cur.OneOf[idx]
				}
			}
		}
		if next == nil {
			return nil, Errorf(at, "unresolved $ref %q", ref)
		}
		cur = next
	}
	return cur, nil
}

func declaredOrder(n *Node) []string {
	if n.Widget != nil && len(n.Widget.PropertiesOrder) > 0 {
		return n.Widget.PropertiesOrder
	}
	return n.PropertiesOrder
}

func orderProperties(props []*Property, order []string) []*Property {
	if len(order) == 0 || len(props) == 0 {
		return props
	}
	out := make([]*Property, 0, len(props))
	used := make(map[string]bool, len(props))
	for _, name := range order {
		if used[name] {
			continue
		}
		for _, p := range props {
			if p.Name == name {
				out = append(out, p)
				used[name] = true
				break
			}
		}
	}
	for _, p := range props {
		if !used[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

func unescape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

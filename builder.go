package recordform

import (
	"fmt"

	"github.com/rero/recordform/jsonschema"
)

func (t *Tree) buildField(n *jsonschema.Node, parent *Field, key Segment, hasKey, required bool) (*Field, error) {
	f := &Field{tree: t, parent: parent, key: key, hasKey: hasKey}
	if parent != nil {
		f.id = parent.id + "/" + key.String()
	} else {
		f.id = t.cfg.FormID
	}
	if n == nil {
		return nil, jsonschema.Errorf(f.Pointer(), "missing schema")
	}
	t.serial++
	f.serial = t.serial
	f.Schema = n
	f.Kind = t.cfg.Kinds.Resolve(n)
	f.Label = n.Title
	f.required = required && !key.IsIndex
	if n.HasDefault {
		f.DefaultValue, f.HasDefault = deepCopy(n.Default), true
	}
	if f.Kind == KindArray && !f.HasDefault && n.MinItems != nil && *n.MinItems > 0 {
		// placeholders so the editor shows the minimum number of items
		f.DefaultValue, f.HasDefault = make([]any, *n.MinItems), true
	}
	f.Options = enumOptions(n)
	if w := n.Widget; w != nil {
		f.Wrappers = w.Wrappers
		f.HideExpression = w.HideExpression
		f.hideFlag = w.Hide != nil && *w.Hide
		if len(w.Options) > 0 {
			f.Options = w.Options
		}
		f.Messages = w.Validation.Messages
		f.Props = w.Props
	}
	validators := t.cfg.Kinds.Strategy(f.Kind).Validators
	if validators == nil {
		validators = StructuralValidators
	}
	f.Validators = validators(f)

	switch f.Kind {
	case KindObject:
		for _, p := range n.Properties {
			c, err := t.buildField(p.Schema, f, Name(p.Name), true, n.IsRequired(p.Name))
			if err != nil {
				return nil, err
			}
			f.children = append(f.children, c)
		}
	case KindArray:
		if n.Items == nil {
			return nil, jsonschema.Errorf(f.Pointer(), "array without items")
		}
	case KindMultischema:
		if err := t.buildVariant(f, 0); err != nil {
			return nil, err
		}
	}
	for _, ext := range t.cfg.Extensions {
		if err := ext.Prepare(f); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", f.id, err)
		}
	}
	return f, nil
}

func enumOptions(n *jsonschema.Node) []jsonschema.Option {
	enum := n.Enum
	if len(enum) == 0 && n.Items != nil {
		enum = n.Items.Enum
	}
	if len(enum) == 0 {
		return nil
	}
	out := make([]jsonschema.Option, 0, len(enum))
	for _, v := range enum {
		out = append(out, jsonschema.Option{Label: fmt.Sprint(v), Value: v})
	}
	return out
}

// buildItem creates the field of the i-th element of array f.
func (t *Tree) buildItem(f *Field, i int) (*Field, error) {
	return t.buildField(f.Schema.Items, f, Index(i), true, false)
}

// buildVariant replaces the children of multischema f by the properties of
// its i-th oneOf branch.
func (t *Tree) buildVariant(f *Field, i int) error {
	v := f.Schema.OneOf[i]
	children := make([]*Field, 0, len(v.Properties))
	for _, p := range v.Properties {
		c, err := t.buildField(p.Schema, f, Name(p.Name), true, v.IsRequired(p.Name) || f.Schema.IsRequired(p.Name))
		if err != nil {
			return err
		}
		children = append(children, c)
	}
	for _, c := range f.children {
		t.forget(c)
	}
	f.children = children
	f.variant = i
	return nil
}

// syncField makes the subtree of f agree with the model: empty values take
// their defaults, arrays get one child per element and multischemas follow
// the branch the data matches. A field the user hid keeps no value.
func (t *Tree) syncField(f *Field) error {
	p := f.Path()
	if f.hide && f.reason == hiddenByUser {
		unset(t.model, p)
		return nil
	}
	v, ok := lookup(t.model, p)
	if !f.isRoot && (!ok || v == nil) && f.HasDefault {
		v = deepCopy(f.DefaultValue)
		t.set(p, v)
	}
	switch f.Kind {
	case KindMultischema:
		if i := matchVariant(f, v); i != f.variant {
			if err := t.buildVariant(f, i); err != nil {
				return err
			}
		}
	case KindArray:
		items, _ := v.([]any)
		if len(items) != len(f.children) {
			if err := t.rebuildItems(f, len(items)); err != nil {
				return err
			}
		}
	}
	for _, c := range f.children {
		if err := t.syncField(c); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) rebuildItems(f *Field, n int) error {
	for _, c := range f.children {
		t.forget(c)
	}
	children := make([]*Field, 0, n)
	for i := 0; i < n; i++ {
		c, err := t.buildItem(f, i)
		if err != nil {
			return err
		}
		children = append(children, c)
	}
	f.children = children
	return nil
}

// matchVariant picks the first oneOf branch whose const properties agree
// with v and whose required properties are present. The current branch is
// kept when none matches.
func matchVariant(f *Field, v any) int {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return f.variant
	}
	for i, branch := range f.Schema.OneOf {
		if branchMatches(branch, m) {
			return i
		}
	}
	return f.variant
}

func branchMatches(branch *jsonschema.Node, m map[string]any) bool {
	consts := 0
	for _, p := range branch.Properties {
		if p.Schema.Const == nil {
			continue
		}
		consts++
		got, ok := m[p.Name]
		if !ok || fmt.Sprint(got) != fmt.Sprint(p.Schema.Const) {
			return false
		}
	}
	for _, name := range branch.Required {
		if _, ok := m[name]; !ok && consts == 0 {
			return false
		}
	}
	for name := range m {
		if branch.Property(name) == nil && consts == 0 {
			return false
		}
	}
	return true
}

// SelectVariant switches multischema f to its i-th branch. Values of
// properties the new branch does not declare are dropped.
func (t *Tree) SelectVariant(f *Field, i int) error {
	if f.Kind != KindMultischema {
		return ErrNotMultischema
	}
	if i < 0 || i >= len(f.Schema.OneOf) {
		return ErrIndexOutOfRange
	}
	if i == f.variant {
		return nil
	}
	branch := f.Schema.OneOf[i]
	m, _ := f.Value().(map[string]any)
	for name := range m {
		if branch.Property(name) == nil {
			delete(m, name)
		}
	}
	for _, p := range branch.Properties {
		if p.Schema.Const != nil {
			if m == nil {
				m = map[string]any{}
			}
			m[p.Name] = p.Schema.Const
		}
	}
	if m != nil {
		t.set(f.Path(), m)
	}
	if err := t.buildVariant(f, i); err != nil {
		return err
	}
	t.touched = true
	for _, c := range f.children {
		c.noAutoHide = true
	}
	if err := t.syncField(f); err != nil {
		return err
	}
	t.evalHideExpressions()
	t.revalidate(f, UpdateOnChange)
	t.SetFocus(f)
	return nil
}

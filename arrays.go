package recordform

import "go.uber.org/zap"

// CanAdd reports whether array f is below its maxItems bound.
func (t *Tree) CanAdd(f *Field) bool {
	if f == nil || f.Kind != KindArray {
		return false
	}
	max := f.Schema.MaxItems
	return max == nil || len(f.children) < *max
}

// CanRemove reports whether array f is above its minItems bound.
func (t *Tree) CanRemove(f *Field) bool {
	if f == nil || f.Kind != KindArray {
		return false
	}
	min := f.Schema.MinItems
	return min == nil || len(f.children) > *min
}

// AddArrayItem inserts an empty element at index i of array f and focuses
// it. An index out of range appends.
func (t *Tree) AddArrayItem(f *Field, i int) (*Field, error) {
	return t.InsertArrayItem(f, i, nil)
}

// InsertArrayItem inserts value at index i of array f. The new element
// takes its schema defaults and is never hidden automatically.
func (t *Tree) InsertArrayItem(f *Field, i int, value any) (*Field, error) {
	switch {
	case t.isClosed():
		return nil, ErrTreeClosed
	case f == nil || f.Kind != KindArray:
		return nil, ErrNotArray
	case f.Hidden():
		return nil, ErrFieldHidden
	case !t.CanAdd(f):
		return nil, ErrMaxItems
	}
	if i < 0 || i > len(f.children) {
		i = len(f.children)
	}
	p := f.Path()
	items, _ := f.Value().([]any)
	items = append(items, nil)
	copy(items[i+1:], items[i:])
	items[i] = deepCopy(value)
	t.set(p, items)

	c, err := t.buildItem(f, i)
	if err != nil {
		return nil, err
	}
	f.children = append(f.children, nil)
	copy(f.children[i+1:], f.children[i:])
	f.children[i] = c
	t.reindex(f, i+1)
	if err := t.syncField(c); err != nil {
		return nil, err
	}
	c.Walk(func(d *Field) bool {
		d.noAutoHide = true
		return true
	})
	t.touched = true
	t.evalHideExpressions()
	t.revalidate(f, UpdateOnChange)
	t.SetFocus(c)
	t.log.Debug("array item added", zap.String("field", f.id), zap.Int("index", i))
	return c, nil
}

// RemoveArrayItem removes element i of array f.
func (t *Tree) RemoveArrayItem(f *Field, i int) error {
	switch {
	case t.isClosed():
		return ErrTreeClosed
	case f == nil || f.Kind != KindArray:
		return ErrNotArray
	case i < 0 || i >= len(f.children):
		return ErrIndexOutOfRange
	case !t.CanRemove(f):
		return ErrMinItems
	}
	removed := f.children[i]
	if removed.holdsFocus() {
		t.focused.focus = false
		t.focused = nil
	}
	t.forget(removed)
	t.registry.removeUnder(removed.id)

	items, _ := f.Value().([]any)
	if i < len(items) {
		items = append(items[:i:i], items[i+1:]...)
		t.set(f.Path(), items)
	}
	f.children = append(f.children[:i:i], f.children[i+1:]...)
	t.reindex(f, i)
	t.touched = true
	t.evalHideExpressions()
	t.revalidate(f, UpdateOnChange)
	t.log.Debug("array item removed", zap.String("field", f.id), zap.Int("index", i))
	return nil
}

// reindex renumbers the elements of f from index from on.
func (t *Tree) reindex(f *Field, from int) {
	for j := from; j < len(f.children); j++ {
		c := f.children[j]
		c.key = Index(j)
		c.resetID()
	}
}

// holdsFocus reports whether the focus is inside the subtree of f.
func (f *Field) holdsFocus() bool {
	if f.tree == nil || f.tree.focused == nil {
		return false
	}
	for c := f.tree.focused; c != nil; c = c.parent {
		if c == f {
			return true
		}
	}
	return false
}

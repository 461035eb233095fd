package recordform

import (
	"go.uber.org/zap"

	"github.com/rero/recordform/rules"
)

// WrapperHide is the wrapper name that keeps the descendants of a field out
// of automatic hiding.
const WrapperHide = "hide"

// CanHide reports whether the user may hide f: long mode is on and f is an
// optional, visible field without a hide expression.
func (t *Tree) CanHide(f *Field) bool {
	return f != nil && t.cfg.LongMode && !f.isRoot && !f.required && !f.hide &&
		f.HideExpression == nil && f.Kind != KindMultischema
}

// Hide hides f and resets its value. An array element is removed instead,
// when the array allows it. Hiding a field that cannot be hidden does
// nothing.
func (t *Tree) Hide(f *Field) {
	if !t.CanHide(f) {
		return
	}
	if f.inArray() {
		if t.CanRemove(f.parent) {
			_ = t.RemoveArrayItem(f.parent, f.key.Index)
		}
		return
	}
	t.touched = true
	if f.Kind == KindArray {
		for _, c := range f.children {
			t.forget(c)
		}
		f.children = nil
	}
	unset(t.model, f.Path())
	t.forget(f)
	f.hide, f.reason, f.manipulated = true, hiddenByUser, true
	if f.holdsFocus() {
		t.focused.focus = false
		t.focused = nil
	}
	if f.parent != nil && f.parent.isRoot {
		t.registry.add(f)
	}
	t.evalHideExpressions()
	t.revalidate(f.parent, UpdateOnChange)
	t.log.Debug("field hidden", zap.String("field", f.id))
}

// Show makes f visible again, restores its default when its value is empty
// and moves the focus into it.
func (t *Tree) Show(f *Field) {
	if f == nil {
		return
	}
	t.registry.remove(f)
	if f.hide {
		f.hide, f.reason, f.manipulated = false, notHidden, true
		t.touched = true
		if f.HasDefault && rules.IsEmpty(f.Value()) {
			t.set(f.Path(), deepCopy(f.DefaultValue))
		}
		if err := t.syncField(f); err != nil {
			t.log.Warn("show: rebuilding children failed", zap.String("field", f.id), zap.Error(err))
		}
		t.evalHideExpressions()
		t.log.Debug("field shown", zap.String("field", f.id))
	}
	t.SetFocus(f)
}

// SetFocus gives the focus to the first visible leaf under f and reports
// the move through Config.OnFocus.
func (t *Tree) SetFocus(f *Field) {
	target := firstVisibleLeaf(f)
	if target == nil {
		target = f
	}
	if t.focused != nil {
		t.focused.focus = false
	}
	target.focus = true
	t.focused = target
	if t.cfg.OnFocus != nil {
		t.cfg.OnFocus(f, target)
	}
}

func firstVisibleLeaf(f *Field) *Field {
	if f.Hidden() {
		return nil
	}
	if len(f.children) == 0 {
		return f
	}
	for _, c := range f.children {
		if l := firstVisibleLeaf(c); l != nil {
			return l
		}
	}
	return nil
}

// evalHideExpressions re-evaluates every hide expression against the value
// of the parent of its field.
func (t *Tree) evalHideExpressions() {
	t.root.Walk(func(f *Field) bool {
		if f.HideExpression != nil && f.parent != nil {
			f.exprHidden = f.HideExpression.Eval(f.parent.Value())
		}
		return true
	})
}

// autoHide runs the automatic hiding pass in pre-order. Fields it hid
// earlier come back once they hold data.
func (t *Tree) autoHide() {
	t.root.Walk(func(f *Field) bool {
		if f.isRoot {
			return true
		}
		if f.hide {
			if f.reason == hiddenAuto && !isEmptyValue(f.Value()) {
				f.hide, f.reason = false, notHidden
				t.registry.remove(f)
			}
			return true
		}
		if t.shouldAutoHide(f) {
			f.hide, f.reason = true, hiddenAuto
			if f.parent.isRoot {
				t.registry.add(f)
			}
		}
		return true
	})
}

func (t *Tree) shouldAutoHide(f *Field) bool {
	if !t.cfg.LongMode || f.IsArrayItem() || f.HideExpression != nil || f.noAutoHide || f.required {
		return false
	}
	for a := f.parent; a != nil; a = a.parent {
		if a.HasWrapper(WrapperHide) {
			return false
		}
		if a.hide && !isEmptyValue(a.Value()) {
			return false
		}
	}
	if !isEmptyValue(f.Value()) {
		return false
	}
	if f.hideFlag && !f.manipulated {
		return true
	}
	return t.cfg.PID != "" && !t.touched
}

func isEmptyValue(v any) bool { return rules.IsEmpty(rules.RemoveEmptyValues(v)) }

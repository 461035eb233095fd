package recordform

import (
	"context"

	"github.com/rero/recordform/jsonschema"
	"github.com/rero/recordform/rules"
)

// UpdateOn selects the interaction that triggers a validator.
type UpdateOn string

const (
	UpdateOnChange UpdateOn = "change"
	UpdateOnBlur   UpdateOn = "blur"
	UpdateOnSubmit UpdateOn = "submit"
)

// Validator is a synchronous check bound to a field. Check must not block.
type Validator struct {
	Name string
	Code string
	// Message is the translation key used when Check fails.
	Message  string
	Params   map[string]any
	UpdateOn UpdateOn
	Check    func(f *Field) bool
}

// AsyncValidator is a check needing I/O, run debounced after changes and
// awaited by Tree.Validate.
type AsyncValidator struct {
	Name    string
	Code    string
	Message string
	Params  map[string]any
	Check   func(ctx context.Context, f *Field, value any) (bool, error)
}

// OptionsLoader fetches the options of a select at render time.
type OptionsLoader func(ctx context.Context) ([]jsonschema.Option, error)

// Extension customizes a field once it is built. Extensions run in order,
// children before their parent.
type Extension interface {
	Prepare(f *Field) error
}

// ExtensionFunc adapts a function to Extension.
type ExtensionFunc func(f *Field) error

func (fn ExtensionFunc) Prepare(f *Field) error { return fn(f) }

type hideReason uint8

const (
	notHidden hideReason = iota
	hiddenAuto
	hiddenByUser
)

// Field is one node of the editable tree. Parent links are non-owning: a
// field belongs to the children slice of its parent and to nothing else.
type Field struct {
	Kind   Kind
	Schema *jsonschema.Node
	Label  string
	// Options are the choices of a select-like field.
	Options         []jsonschema.Option
	Wrappers        []string
	HideExpression  *rules.Condition
	DefaultValue    any
	HasDefault      bool
	Validators      []*Validator
	AsyncValidators []*AsyncValidator
	// Messages overrides the translation key per validator name.
	Messages map[string]string
	// Props carries widget props extensions may read or set.
	Props map[string]any

	tree     *Tree
	parent   *Field
	children []*Field
	key      Segment
	hasKey   bool
	id       string
	serial   int
	isRoot   bool
	required bool

	hide        bool
	reason      hideReason
	hideFlag    bool
	manipulated bool
	exprHidden  bool
	noAutoHide  bool
	focus       bool

	variant       int
	optionsLoader OptionsLoader
}

// ID is the form id followed by the field's JSON Pointer, e.g.
// "editor/authors/0". It changes when array siblings are removed.
func (f *Field) ID() string { return f.id }

// Key returns the segment naming f inside its parent.
func (f *Field) Key() (Segment, bool) { return f.key, f.hasKey }

func (f *Field) Parent() *Field { return f.parent }

// Children returns a copy of the child list.
func (f *Field) Children() []*Field { return append([]*Field(nil), f.children...) }

func (f *Field) Tree() *Tree { return f.tree }

func (f *Field) IsRoot() bool { return f.isRoot }

// Required reports whether the parent object lists f as required. Array
// items are never required.
func (f *Field) Required() bool { return f.required }

// Hidden reports whether f is hidden, by the user, automatically or by its
// hide expression.
func (f *Field) Hidden() bool { return f.hide || f.exprHidden }

// Focused reports whether f holds the editor focus.
func (f *Field) Focused() bool { return f.focus }

// Variant returns the index of the selected oneOf branch of a multischema.
func (f *Field) Variant() int { return f.variant }

// IsArrayItem reports whether f is an element of an array field.
func (f *Field) IsArrayItem() bool { return f.hasKey && f.key.IsIndex }

// HasWrapper reports whether the named wrapper decorates f.
func (f *Field) HasWrapper(name string) bool {
	for _, w := range f.Wrappers {
		if w == name {
			return true
		}
	}
	return false
}

// Path returns the key of f from the root.
func (f *Field) Path() Path {
	var rev Path
	for c := f; c != nil && c.hasKey; c = c.parent {
		rev = append(rev, c.key)
	}
	out := make(Path, len(rev))
	for i := range rev {
		out[len(rev)-1-i] = rev[i]
	}
	return out
}

// Pointer returns the JSON Pointer of f into the model.
func (f *Field) Pointer() string { return f.Path().Pointer() }

// Value returns the model value f is bound to.
func (f *Field) Value() any {
	if f.tree == nil {
		return nil
	}
	v, _ := lookup(f.tree.model, f.Path())
	return v
}

// SetOptionsLoader installs a loader run by Tree.LoadOptions.
func (f *Field) SetOptionsLoader(l OptionsLoader) { f.optionsLoader = l }

// Walk visits f and its descendants in pre-order. Returning false from fn
// skips the subtree.
func (f *Field) Walk(fn func(*Field) bool) {
	if !fn(f) {
		return
	}
	for _, c := range f.children {
		c.Walk(fn)
	}
}

// Leaves returns the descendants of f without children, in order.
func (f *Field) Leaves() []*Field {
	var out []*Field
	f.Walk(func(c *Field) bool {
		if len(c.children) == 0 && c != f {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Child returns the direct child keyed by name, or nil.
func (f *Field) Child(name string) *Field {
	for _, c := range f.children {
		if !c.key.IsIndex && c.key.Name == name {
			return c
		}
	}
	return nil
}

// Item returns the i-th element of an array field, or nil.
func (f *Field) Item(i int) *Field {
	if i < 0 || i >= len(f.children) || !f.children[i].key.IsIndex {
		return nil
	}
	return f.children[i]
}

func (f *Field) inArray() bool { return f.parent != nil && f.parent.Kind == KindArray }

func (f *Field) resetID() {
	base := f.tree.cfg.FormID
	if f.hasKey {
		base = f.parent.id + "/" + f.key.String()
	}
	f.id = base
	for _, c := range f.children {
		c.resetID()
	}
}

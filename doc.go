// Package recordform builds editable field trees from JSON Schemas that
// carry UI hints, and keeps the tree and the edited record in sync.
//
// Typical flow:
//
//	node, err := jsonschema.Parse(raw)
//	tree, err := recordform.Build(node, recordform.Config{LongMode: true, PID: pid})
//	err = tree.SetModel(record)
//	tree.Hide(tree.FieldAt("/note"))
//	issues := tree.Validate(ctx)
//	data := tree.Model()
//
// Fields
//
// Every schema property becomes a Field keyed by its name; array elements
// are keyed by index. A field id is the form id followed by the JSON
// Pointer of the field, so ids are unique within a tree. The kind of a
// field (input, select, datepicker, ...) comes from the widget type or is
// derived from the schema; see Kinds for the resolution order and the
// per-kind coercion and checks.
//
// Visibility
//
// In long mode optional fields may be hidden. A field is hidden by the
// user (Hide), automatically when a record is opened with empty optional
// values, or by its hide expression. Hidden fields directly under the root
// are listed in the HiddenFields registry so a host can offer to re-add
// them. Required fields are never hidden by Hide or by the automatic pass.
//
// Validation
//
// Structural checks follow the schema keywords. Validators declared in the
// widget block are attached by extensions (see package validation). Sync
// validators run on change or blur, async ones after a debounce; Validate
// runs everything and fails closed on lookups that did not succeed.
//
// Package editor wires a tree to a record store: loading records and
// templates, the record hooks and submission.
package recordform

// Package jsonschema holds the schema model the form engine is driven by:
// a JSON Schema subset plus the "widget" extension block carrying UI and
// validation hints.
//
// Object properties are kept in document order. Decoders in this package
// preserve the order keys appear in the source, which a Go map cannot.
package jsonschema

import "github.com/rero/recordform/rules"

// Schema types.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeNull    = "null"
)

// Node is a single schema node.
type Node struct {
	// Core
	Ref         string
	Type        string
	Title       string
	Description string
	Format      string
	Default     any
	HasDefault  bool
	Const       any
	Enum        []any
	ReadOnly    bool

	// Object
	Properties      []*Property
	Required        []string
	PropertiesOrder []string
	Definitions     map[string]*Node

	// Array
	Items    *Node
	MinItems *int
	MaxItems *int

	// Scalars
	MinLength *int
	MaxLength *int
	Minimum   *float64
	Maximum   *float64
	Pattern   string

	// Union
	OneOf []*Node

	Widget *Widget
}

// Property is a named member of an object node.
type Property struct {
	Name   string
	Schema *Node
}

// Widget is the UI extension block of a node (`widget.formlyConfig`).
type Widget struct {
	Type            string
	Wrappers        []string
	HideExpression  *rules.Condition
	Hide            *bool
	Placeholder     string
	Options         []Option
	RemoteOptions   *RemoteOptions
	Validation      Validation
	PropertiesOrder []string
	// Props keeps every prop verbatim for extensions that need more.
	Props map[string]any
}

// Option is one entry of a select.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// RemoteOptions declares a select populated from records of another type.
type RemoteOptions struct {
	Type       string `json:"type"`
	Query      string `json:"query,omitempty"`
	LabelField string `json:"labelField,omitempty"`
}

// Validation groups message overrides and validator declarations.
type Validation struct {
	// Messages maps a validator name to a translation key. A trailing
	// "Message" on the name is stripped at decode time.
	Messages   map[string]string
	Validators []ValidatorDecl
}

// ValidatorDecl is a validator declared in the schema, kept in declaration
// order with its raw configuration.
type ValidatorDecl struct {
	Name   string
	Config map[string]any
}

// Property returns the schema of the named property, or nil.
func (n *Node) Property(name string) *Node {
	if n == nil {
		return nil
	}
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// IsRequired reports whether name is listed in n.Required.
func (n *Node) IsRequired(name string) bool {
	if n == nil {
		return false
	}
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// HasWrapper reports whether the widget declares the given wrapper.
func (n *Node) HasWrapper(name string) bool {
	if n == nil || n.Widget == nil {
		return false
	}
	for _, w := range n.Widget.Wrappers {
		if w == name {
			return true
		}
	}
	return false
}

// shallowCopy copies n; slices of children are copied so callers may replace
// members without touching n.
func (n *Node) shallowCopy() *Node {
	out := *n
	if n.Properties != nil {
		out.Properties = make([]*Property, len(n.Properties))
		copy(out.Properties, n.Properties)
	}
	if n.OneOf != nil {
		out.OneOf = make([]*Node, len(n.OneOf))
		copy(out.OneOf, n.OneOf)
	}
	return &out
}

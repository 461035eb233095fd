// Package rules implements the small condition language schemas use to
// describe hide expressions and expression validators.
//
// A condition compares a value reached by a relative path against a literal,
// tests set membership, a numeric range or emptiness, and composes with
// All/Any/Not. Conditions are data: they are decoded from the schema and
// interpreted here, never compiled from source strings.
package rules

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Op defines the comparison operators of a condition.
type Op string

const (
	Eq       Op = "eq"
	Ne       Op = "ne"
	Lt       Op = "lt"
	Le       Op = "le"
	Gt       Op = "gt"
	Ge       Op = "ge"
	In       Op = "in"
	NotIn    Op = "notIn"
	Between  Op = "between"
	Empty    Op = "empty"
	NotEmpty Op = "notEmpty"
)

// Condition is one node of the condition tree. Exactly one of Op, All, Any or
// Not is set.
//
// Field is a JSON Pointer-like path ("a/b/0") relative to the scope the
// condition is evaluated against; an empty Field targets the scope itself.
type Condition struct {
	Field  string      `json:"field,omitempty"`
	Op     Op          `json:"op,omitempty"`
	Value  any         `json:"value,omitempty"`
	Values []any       `json:"values,omitempty"`
	Min    *float64    `json:"min,omitempty"`
	Max    *float64    `json:"max,omitempty"`
	All    []Condition `json:"all,omitempty"`
	Any    []Condition `json:"any,omitempty"`
	Not    *Condition  `json:"not,omitempty"`
}

// If builds a simple comparison.
func If(field string, op Op, want any) Condition {
	return Condition{Field: field, Op: op, Value: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Condition) Condition { return Condition{All: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Condition) Condition { return Condition{Any: conds} }

// Negate inverts c.
func Negate(c Condition) Condition { return Condition{Not: &c} }

// Check reports whether the condition is well-formed.
func (c Condition) Check() error {
	set := 0
	if c.Op != "" {
		set++
	}
	if len(c.All) > 0 {
		set++
	}
	if len(c.Any) > 0 {
		set++
	}
	if c.Not != nil {
		set++
	}
	if set != 1 {
		return errors.New("condition must set exactly one of op, all, any, not")
	}
	for i := range c.All {
		if err := c.All[i].Check(); err != nil {
			return fmt.Errorf("all[%d]: %w", i, err)
		}
	}
	for i := range c.Any {
		if err := c.Any[i].Check(); err != nil {
			return fmt.Errorf("any[%d]: %w", i, err)
		}
	}
	if c.Not != nil {
		if err := c.Not.Check(); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	}
	switch c.Op {
	case "", Eq, Ne, Lt, Le, Gt, Ge, Empty, NotEmpty:
	case In, NotIn:
		if c.Values == nil {
			return fmt.Errorf("op %q needs values", c.Op)
		}
	case Between:
		if c.Min == nil && c.Max == nil {
			return fmt.Errorf("op %q needs min or max", c.Op)
		}
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}
	return nil
}

// Eval evaluates the condition against scope.
func (c Condition) Eval(scope any) bool {
	// composite AND
	if len(c.All) > 0 {
		for _, it := range c.All {
			if !it.Eval(scope) {
				return false
			}
		}
		return true
	}
	// composite OR
	if len(c.Any) > 0 {
		for _, it := range c.Any {
			if it.Eval(scope) {
				return true
			}
		}
		return false
	}
	if c.Not != nil {
		return !c.Not.Eval(scope)
	}
	cur, ok := ValueAt(scope, c.Field)
	switch c.Op {
	case Empty:
		return !ok || IsEmpty(RemoveEmptyValues(cur))
	case NotEmpty:
		return ok && !IsEmpty(RemoveEmptyValues(cur))
	}
	if !ok {
		cur = nil
	}
	return compare(cur, c)
}

// ValueAt navigates v (nested map[string]any / []any) by a slash separated
// path. A leading slash is ignored.
func ValueAt(v any, path string) (any, bool) {
	rel := strings.Trim(path, "/")
	if rel == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(rel, "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil, false
			}
			cur = t[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func compare(cur any, c Condition) bool {
	switch c.Op {
	case Eq:
		return Equal(cur, c.Value)
	case Ne:
		return !Equal(cur, c.Value)
	case In:
		return contains(c.Values, cur)
	case NotIn:
		return !contains(c.Values, cur)
	case Between:
		f, ok := ToFloat(cur)
		if !ok {
			return false
		}
		if c.Min != nil && f < *c.Min {
			return false
		}
		if c.Max != nil && f > *c.Max {
			return false
		}
		return true
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, c.Op, c.Value)
	default:
		return false
	}
}

func contains(set []any, v any) bool {
	for _, it := range set {
		if Equal(it, v) {
			return true
		}
	}
	return false
}

// Equal compares two JSON-like values, treating every numeric kind as a
// float64.
func Equal(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		if fb, ok := ToFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compareOrdered(cur any, op Op, want any) bool {
	if a, ok := ToFloat(cur); ok {
		b, ok := ToFloat(want)
		if !ok {
			return false
		}
		return ordered(a, b, op)
	}
	// strings compare lexically, which also orders ISO dates
	a, ok := cur.(string)
	if !ok {
		return false
	}
	b, ok := want.(string)
	if !ok {
		return false
	}
	return ordered(a, b, op)
}

func ordered[T float64 | string](a, b T, op Op) bool {
	switch op {
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	}
	return false
}

// ToFloat converts numeric kinds to float64.
func ToFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

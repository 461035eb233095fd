package recordform

import (
	"math"
	"regexp"
	"unicode/utf8"

	"github.com/rero/recordform/i18n"
	"github.com/rero/recordform/jsonschema"
	"github.com/rero/recordform/rules"
)

// StructuralValidators derives the checks implied by the schema keywords of
// f: required, length and range bounds, pattern, enum and const. Absent
// values only fail "required".
func StructuralValidators(f *Field) []*Validator {
	n := f.Schema
	var out []*Validator
	if f.required {
		out = append(out, &Validator{
			Name: "required", Code: CodeRequired, Message: i18n.MsgRequired,
			Check: func(f *Field) bool { return !rules.IsEmpty(rules.RemoveEmptyValues(f.Value())) },
		})
	}
	switch f.Kind {
	case KindNumber, KindInteger:
		integer := f.Kind == KindInteger
		out = append(out, &Validator{
			Name: "type", Code: CodeInvalidType, Message: i18n.MsgInvalidType,
			Params: map[string]any{"type": string(f.Kind)},
			Check: present(func(v any) bool {
				x, ok := v.(float64)
				return ok && (!integer || x == math.Trunc(x))
			}),
		})
	}
	if n.MinLength != nil {
		min := *n.MinLength
		out = append(out, &Validator{
			Name: "minLength", Code: CodeTooShort, Message: i18n.MsgMinLength,
			Params: map[string]any{"minLength": min},
			Check:  present(func(v any) bool { s, ok := v.(string); return !ok || utf8.RuneCountInString(s) >= min }),
		})
	}
	if n.MaxLength != nil {
		max := *n.MaxLength
		out = append(out, &Validator{
			Name: "maxLength", Code: CodeTooLong, Message: i18n.MsgMaxLength,
			Params: map[string]any{"maxLength": max},
			Check:  present(func(v any) bool { s, ok := v.(string); return !ok || utf8.RuneCountInString(s) <= max }),
		})
	}
	if n.Minimum != nil {
		min := *n.Minimum
		out = append(out, &Validator{
			Name: "min", Code: CodeTooSmall, Message: i18n.MsgMinimum,
			Params: map[string]any{"min": min},
			Check:  present(func(v any) bool { x, ok := rules.ToFloat(v); return !ok || x >= min }),
		})
	}
	if n.Maximum != nil {
		max := *n.Maximum
		out = append(out, &Validator{
			Name: "max", Code: CodeTooBig, Message: i18n.MsgMaximum,
			Params: map[string]any{"max": max},
			Check:  present(func(v any) bool { x, ok := rules.ToFloat(v); return !ok || x <= max }),
		})
	}
	if n.Pattern != "" {
		if re, err := regexp.Compile(n.Pattern); err == nil {
			out = append(out, &Validator{
				Name: "pattern", Code: CodePattern, Message: i18n.MsgPattern,
				Params: map[string]any{"pattern": n.Pattern},
				Check:  present(func(v any) bool { s, ok := v.(string); return !ok || re.MatchString(s) }),
			})
		}
	}
	if len(n.Enum) > 0 && f.Kind != KindArray {
		allowed := n.Enum
		out = append(out, &Validator{
			Name: "enum", Code: CodeInvalidEnum, Message: i18n.MsgEnum,
			Check: present(func(v any) bool { return inEnum(allowed, v) }),
		})
	}
	if n.Items != nil && len(n.Items.Enum) > 0 {
		allowed := n.Items.Enum
		out = append(out, &Validator{
			Name: "enum", Code: CodeInvalidEnum, Message: i18n.MsgEnum,
			Check: present(func(v any) bool {
				items, _ := v.([]any)
				for _, it := range items {
					if !inEnum(allowed, it) {
						return false
					}
				}
				return true
			}),
		})
	}
	if n.Const != nil {
		want := n.Const
		out = append(out, &Validator{
			Name: "const", Code: CodeInvalidConst, Message: i18n.MsgConst,
			Params: map[string]any{"const": want},
			Check:  present(func(v any) bool { return rules.Equal(v, want) }),
		})
	}
	if n.Type == jsonschema.TypeArray {
		out = append(out, itemCountValidators(n)...)
	}
	return out
}

// itemCountValidators bound the number of non-empty items. Null
// placeholders do not count since they are dropped before submission.
func itemCountValidators(n *jsonschema.Node) []*Validator {
	var out []*Validator
	count := func(v any) int {
		items, _ := rules.RemoveEmptyValues(v).([]any)
		return len(items)
	}
	if n.MinItems != nil && *n.MinItems > 0 {
		min := *n.MinItems
		out = append(out, &Validator{
			Name: "minItems", Code: CodeTooFewItems, Message: i18n.MsgMinItems,
			Params: map[string]any{"minItems": min},
			Check:  present(func(v any) bool { return count(v) >= min }),
		})
	}
	if n.MaxItems != nil {
		max := *n.MaxItems
		out = append(out, &Validator{
			Name: "maxItems", Code: CodeTooManyItems, Message: i18n.MsgMaxItems,
			Params: map[string]any{"maxItems": max},
			Check:  present(func(v any) bool { return count(v) <= max }),
		})
	}
	return out
}

// present passes empty values, leaving them to "required".
func present(check func(v any) bool) func(f *Field) bool {
	return func(f *Field) bool {
		v := f.Value()
		if rules.IsEmpty(rules.RemoveEmptyValues(v)) {
			return true
		}
		return check(v)
	}
}

func inEnum(allowed []any, v any) bool {
	for _, a := range allowed {
		if rules.Equal(a, v) {
			return true
		}
	}
	return false
}

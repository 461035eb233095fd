package recordform

import (
	"strconv"
	"strings"
	"time"

	"github.com/rero/recordform/jsonschema"
)

// Kind selects how a field is rendered and which default checks and
// coercions apply to it.
type Kind string

const (
	KindObject            Kind = "object"
	KindArray             Kind = "array"
	KindMultischema       Kind = "multischema"
	KindInput             Kind = "input"
	KindNumber            Kind = "number"
	KindInteger           Kind = "integer"
	KindTextarea          Kind = "textarea"
	KindSelect            Kind = "select"
	KindMultiSelect       Kind = "multiSelect"
	KindSwitch            Kind = "switch"
	KindDatePicker        Kind = "datepicker"
	KindDateTimePicker    Kind = "dateTimePicker"
	KindPasswordGenerator Kind = "passwordGenerator"
)

// IsContainer reports whether fields of kind k have children.
func (k Kind) IsContainer() bool {
	return k == KindObject || k == KindArray || k == KindMultischema
}

// KindResolver maps a schema node to a kind. ok=false defers to the next
// resolver.
type KindResolver interface {
	ResolveKind(n *jsonschema.Node) (Kind, bool)
}

// KindResolverFunc adapts a function to KindResolver.
type KindResolverFunc func(n *jsonschema.Node) (Kind, bool)

func (fn KindResolverFunc) ResolveKind(n *jsonschema.Node) (Kind, bool) { return fn(n) }

// KindStrategy is the per-kind behavior table entry.
type KindStrategy struct {
	// Coerce normalizes a value set by the host. Nil leaves values as is.
	Coerce func(v any) any
	// Validators returns the structural checks of f. Nil falls back to
	// StructuralValidators.
	Validators func(f *Field) []*Validator
}

// Kinds is the registry of kind resolvers and strategies. The zero value is
// not usable; call NewKinds.
type Kinds struct {
	resolvers  []KindResolver
	strategies map[Kind]KindStrategy
}

// NewKinds returns the registry with the builtin resolution and strategies.
func NewKinds() *Kinds {
	k := &Kinds{strategies: map[Kind]KindStrategy{}}
	k.resolvers = []KindResolver{
		KindResolverFunc(widgetKind),
		KindResolverFunc(structuralKind),
	}
	k.strategies[KindNumber] = KindStrategy{Coerce: coerceNumber}
	k.strategies[KindInteger] = KindStrategy{Coerce: coerceNumber}
	k.strategies[KindSwitch] = KindStrategy{Coerce: coerceBool}
	k.strategies[KindDatePicker] = KindStrategy{Coerce: coerceTime("2006-01-02")}
	k.strategies[KindDateTimePicker] = KindStrategy{Coerce: coerceTime(time.RFC3339)}
	return k
}

// Register adds r ahead of the existing resolvers.
func (k *Kinds) Register(r KindResolver) *Kinds {
	k.resolvers = append([]KindResolver{r}, k.resolvers...)
	return k
}

// SetStrategy replaces the strategy of kind.
func (k *Kinds) SetStrategy(kind Kind, s KindStrategy) *Kinds {
	k.strategies[kind] = s
	return k
}

// Resolve returns the kind of n.
func (k *Kinds) Resolve(n *jsonschema.Node) Kind {
	for _, r := range k.resolvers {
		if kind, ok := r.ResolveKind(n); ok {
			return kind
		}
	}
	return KindInput
}

// Strategy returns the strategy of kind, possibly empty.
func (k *Kinds) Strategy(kind Kind) KindStrategy { return k.strategies[kind] }

func widgetKind(n *jsonschema.Node) (Kind, bool) {
	if n.Widget == nil || n.Widget.Type == "" {
		return "", false
	}
	return Kind(n.Widget.Type), true
}

func structuralKind(n *jsonschema.Node) (Kind, bool) {
	if len(n.OneOf) > 0 {
		return KindMultischema, true
	}
	switch n.Type {
	case jsonschema.TypeObject:
		return KindObject, true
	case jsonschema.TypeArray:
		if n.Items != nil && len(n.Items.Enum) > 0 {
			return KindMultiSelect, true
		}
		return KindArray, true
	case jsonschema.TypeNumber:
		return KindNumber, true
	case jsonschema.TypeInteger:
		return KindInteger, true
	case jsonschema.TypeBoolean:
		return KindSwitch, true
	case "enum":
		return KindSelect, true
	}
	if len(n.Enum) > 0 {
		return KindSelect, true
	}
	switch n.Format {
	case "date":
		return KindDatePicker, true
	case "date-time":
		return KindDateTimePicker, true
	}
	return KindInput, true
}

func coerceNumber(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return v
}

func coerceBool(v any) any {
	if s, ok := v.(string); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return v
}

func coerceTime(layout string) func(any) any {
	return func(v any) any {
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return nil
			}
			return t.Format(layout)
		case *time.Time:
			if t == nil || t.IsZero() {
				return nil
			}
			return t.Format(layout)
		}
		return v
	}
}

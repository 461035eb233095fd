package validation

import (
	"time"

	"github.com/rero/recordform"
	"github.com/rero/recordform/i18n"
)

// DateLayout is the layout of the dates compared by datesGreaterThan.
const DateLayout = "2006-01-02"

type datesConfig struct {
	DateFirst string              `json:"dateFirst"`
	DateLast  string              `json:"dateLast"`
	Strict    bool                `json:"strict"`
	UpdateOn  recordform.UpdateOn `json:"updateOn"`
}

// bindDatesGreaterThan compares two sibling dates. Declared on an object it
// reads the object's members; declared on a leaf it reads the leaf's
// siblings.
func bindDatesGreaterThan(b *Binder, f *recordform.Field, name string, cfg map[string]any) error {
	var c datesConfig
	if err := decode(f, name, cfg, &c); err != nil {
		return err
	}
	if c.DateFirst == "" || c.DateLast == "" {
		return configError(f, name, "dateFirst and dateLast are required")
	}
	switch c.UpdateOn {
	case "", recordform.UpdateOnChange, recordform.UpdateOnBlur, recordform.UpdateOnSubmit:
	default:
		return configError(f, name, "unknown updateOn %q", c.UpdateOn)
	}
	f.Validators = append(f.Validators, &recordform.Validator{
		Name:     name,
		Code:     recordform.CodeDateOrder,
		Message:  i18n.MsgDatesGreaterThan,
		Params:   map[string]any{"dateFirst": c.DateFirst, "dateLast": c.DateLast},
		UpdateOn: c.UpdateOn,
		Check: func(f *recordform.Field) bool {
			scope := f
			if !f.Kind.IsContainer() && f.Parent() != nil {
				scope = f.Parent()
			}
			m, _ := scope.Value().(map[string]any)
			return datesInOrder(m[c.DateFirst], m[c.DateLast], c.Strict)
		},
	})
	return nil
}

// datesInOrder passes when either date is missing. A date not in
// DateLayout fails.
func datesInOrder(first, last any, strict bool) bool {
	fs, _ := first.(string)
	ls, _ := last.(string)
	if fs == "" || ls == "" {
		return true
	}
	ft, err := time.Parse(DateLayout, fs)
	if err != nil {
		return false
	}
	lt, err := time.Parse(DateLayout, ls)
	if err != nil {
		return false
	}
	if strict {
		return ft.Before(lt)
	}
	return !lt.Before(ft)
}

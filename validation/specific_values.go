package validation

import (
	"math"

	"github.com/rero/recordform"
	"github.com/rero/recordform/i18n"
	"github.com/rero/recordform/rules"
)

type specificValuesConfig struct {
	Min  *float64       `json:"min"`
	Max  *float64       `json:"max"`
	Keys map[string]any `json:"keys"`
}

func bindSpecificValues(b *Binder, f *recordform.Field, name string, cfg map[string]any) error {
	var c specificValuesConfig
	if err := decode(f, name, cfg, &c); err != nil {
		return err
	}
	if len(c.Keys) == 0 {
		return configError(f, name, "keys is required")
	}
	min, max := 0.0, math.Inf(1)
	if c.Min != nil {
		min = *c.Min
	}
	if c.Max != nil {
		max = *c.Max
	}
	if min > max {
		return configError(f, name, "min %v is greater than max %v", min, max)
	}
	params := map[string]any{"min": min, "max": "∞"}
	if c.Max != nil {
		params["max"] = max
	}
	f.Validators = append(f.Validators, &recordform.Validator{
		Name:    name,
		Code:    recordform.CodeAggregateViolation,
		Message: i18n.MsgSpecificValues,
		Params:  params,
		Check: func(f *recordform.Field) bool {
			n := float64(countMatching(f.Value(), c.Keys))
			return n >= min && n <= max
		},
	})
	return nil
}

// countMatching counts the elements of val having at least one of the
// key/value pairs of want.
func countMatching(val any, want map[string]any) int {
	arr, _ := val.([]any)
	n := 0
	for _, it := range arr {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range want {
			if got, exists := m[k]; exists && rules.Equal(got, v) {
				n++
				break
			}
		}
	}
	return n
}

package validation

import (
	"github.com/goccy/go-json"

	"github.com/rero/recordform"
	"github.com/rero/recordform/i18n"
	"github.com/rero/recordform/rules"
)

type uniqueKeysConfig struct {
	Keys []string `json:"keys"`
}

func bindUniqueKeys(b *Binder, f *recordform.Field, name string, cfg map[string]any) error {
	var c uniqueKeysConfig
	if err := decode(f, name, cfg, &c); err != nil {
		return err
	}
	if len(c.Keys) == 0 {
		return configError(f, name, "keys is required")
	}
	chk := keyChecker{keys: append([]string(nil), c.Keys...)}
	f.Validators = append(f.Validators, &recordform.Validator{
		Name:    name,
		Code:    recordform.CodeUniqueness,
		Message: i18n.MsgUniqueKeys,
		Params:  map[string]any{"keys": c.Keys},
		Check: func(f *recordform.Field) bool {
			_, _, dup := chk.firstDuplicate(f.Value())
			return !dup
		},
	})
	return nil
}

// keyChecker detects array elements sharing the same projection onto keys.
type keyChecker struct{ keys []string }

// firstDuplicate returns the indexes of the first two elements with the same
// projection. Empty elements are skipped; fewer than two elements never
// collide.
func (c keyChecker) firstDuplicate(val any) (first, second int, dup bool) {
	arr, ok := val.([]any)
	if !ok || len(arr) < 2 {
		return 0, 0, false
	}
	seen := make(map[string]int, len(arr))
	for i, it := range arr {
		m, _ := it.(map[string]any)
		if rules.IsEmpty(rules.RemoveEmptyValues(m)) {
			continue
		}
		comp, ok := c.compositeKey(m)
		if !ok {
			continue
		}
		if j, exists := seen[comp]; exists {
			return j, i, true
		}
		seen[comp] = i
	}
	return 0, 0, false
}

// compositeKey serializes the projection of m onto the declared keys.
// Absent keys are left out of the projection.
func (c keyChecker) compositeKey(m map[string]any) (string, bool) {
	proj := make(map[string]any, len(c.keys))
	for _, k := range c.keys {
		if v, exists := m[k]; exists {
			proj[k] = v
		}
	}
	// map keys are sorted on encoding, so equal projections serialize equally
	b, err := json.Marshal(proj)
	if err != nil {
		return "", false
	}
	return string(b), true
}

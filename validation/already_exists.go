package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rero/recordform"
	"github.com/rero/recordform/i18n"
	"github.com/rero/recordform/recordstore"
	"github.com/rero/recordform/rules"
)

// errNoStore fails lookups of a Binder built without a store.
var errNoStore = errors.New("no record store configured")

type alreadyExistsConfig struct {
	Term          string   `json:"term"`
	LimitToValues []string `json:"limitToValues"`
	Filter        string   `json:"filter"`

	// RemoteRecordType searches another type than the edited one.
	RemoteRecordType string `json:"remoteRecordType"`
}

func bindAlreadyExists(b *Binder, f *recordform.Field, name string, cfg map[string]any) error {
	var c alreadyExistsConfig
	if err := decode(f, name, cfg, &c); err != nil {
		return err
	}
	if c.Term == "" {
		return configError(f, name, "term is required")
	}
	recordType := c.RemoteRecordType
	if recordType == "" {
		recordType = b.RecordType
	}
	if recordType == "" {
		return configError(f, name, "no record type to search")
	}
	store, pid := b.Store, b.PID
	f.AsyncValidators = append(f.AsyncValidators, &recordform.AsyncValidator{
		Name:    name,
		Code:    recordform.CodeAlreadyExists,
		Message: i18n.MsgAlreadyTaken,
		Check: func(ctx context.Context, _ *recordform.Field, value any) (bool, error) {
			if rules.IsEmpty(value) {
				return true, nil
			}
			v := fmt.Sprint(value)
			if !c.applies(v) {
				return true, nil
			}
			if store == nil {
				return false, errNoStore
			}
			rs, err := store.GetRecords(ctx, recordType, c.query(v, pid), 1, 1)
			if err != nil {
				return false, err
			}
			return rs.Total == 0, nil
		},
	})
	return nil
}

// applies reports whether v is subject to the check.
func (c alreadyExistsConfig) applies(v string) bool {
	if len(c.LimitToValues) == 0 {
		return true
	}
	for _, l := range c.LimitToValues {
		if l == v {
			return true
		}
	}
	return false
}

// query matches v on the term, restricted by the filter and excluding the
// edited record.
func (c alreadyExistsConfig) query(v, pid string) string {
	exclude := ""
	if pid != "" {
		exclude = recordstore.Not(recordstore.Term("pid", pid))
	}
	return recordstore.And(recordstore.Term(c.Term, v), c.Filter, exclude)
}

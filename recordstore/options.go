package recordstore

import (
	"context"
	"fmt"

	"github.com/rero/recordform"
	"github.com/rero/recordform/jsonschema"
)

// RemoteOptions is a recordform.Extension turning fields declaring
// `remoteOptions` into selects whose options are the records of another
// type.
type RemoteOptions struct {
	Store     Store
	Endpoints Endpoints
}

// Prepare implements recordform.Extension.
func (r RemoteOptions) Prepare(f *recordform.Field) error {
	w := f.Schema.Widget
	if w == nil || w.RemoteOptions == nil || w.RemoteOptions.Type == "" {
		return nil
	}
	ro := *w.RemoteOptions
	f.Kind = recordform.KindSelect
	f.SetOptionsLoader(func(ctx context.Context) ([]jsonschema.Option, error) {
		return r.Options(ctx, ro)
	})
	return nil
}

// Options lists the records matched by ro as select options. The label is
// the labelField of the metadata, falling back to "name"; the value is the
// record `$ref` URL.
func (r RemoteOptions) Options(ctx context.Context, ro jsonschema.RemoteOptions) ([]jsonschema.Option, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("remote options %s: no record store", ro.Type)
	}
	rs, err := r.Store.GetRecords(ctx, ro.Type, ro.Query, 1, MaxResultsSize)
	if err != nil {
		return nil, fmt.Errorf("remote options %s: %w", ro.Type, err)
	}
	out := make([]jsonschema.Option, 0, len(rs.Hits))
	for _, rec := range rs.Hits {
		label, ok := rec.Metadata[ro.LabelField]
		if ro.LabelField == "" || !ok {
			label = rec.Metadata["name"]
		}
		out = append(out, jsonschema.Option{
			Label: fmt.Sprint(label),
			Value: r.Endpoints.Ref(ro.Type, rec.ID),
		})
	}
	return out, nil
}

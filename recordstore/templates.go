package recordstore

import (
	"context"
	"fmt"
)

// TemplatesType is the default record type holding templates.
const TemplatesType = "templates"

// Template is a stored record skeleton for a record type.
type Template struct {
	PID  string
	Name string
	Data map[string]any
}

// Templates lists the records of templatesType (TemplatesType when empty)
// made for recordType, e.g. "documents"; an empty recordType lists them all.
// The template body is read from the "data" metadata member.
func Templates(ctx context.Context, store Store, templatesType, recordType string) ([]Template, error) {
	if templatesType == "" {
		templatesType = TemplatesType
	}
	query := ""
	if recordType != "" {
		query = Term("template_type", recordType)
	}
	rs, err := store.GetRecords(ctx, templatesType, query, 1, MaxResultsSize)
	if err != nil {
		return nil, fmt.Errorf("list %s templates: %w", recordType, err)
	}
	out := make([]Template, 0, len(rs.Hits))
	for _, rec := range rs.Hits {
		t := Template{PID: rec.ID}
		t.Name, _ = rec.Metadata["name"].(string)
		t.Data, _ = rec.Metadata["data"].(map[string]any)
		out = append(out, t)
	}
	return out, nil
}

// GetTemplate returns one template of templatesType (TemplatesType when
// empty) by pid.
func GetTemplate(ctx context.Context, store Store, templatesType, pid string) (*Template, error) {
	if templatesType == "" {
		templatesType = TemplatesType
	}
	rec, err := store.GetRecord(ctx, templatesType, pid)
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", pid, err)
	}
	t := &Template{PID: rec.ID}
	t.Name, _ = rec.Metadata["name"].(string)
	t.Data, _ = rec.Metadata["data"].(map[string]any)
	return t, nil
}

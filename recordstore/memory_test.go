package recordstore

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	m.Put("documents", Record{ID: "1", Metadata: map[string]any{
		"pid": "1", "title": "Le Petit Prince", "type": "book",
		"identifiers": []any{map[string]any{"value": "978-2"}, map[string]any{"value": "0001"}},
	}})
	m.Put("documents", Record{ID: "2", Metadata: map[string]any{"pid": "2", "title": "Vol de nuit", "type": "book"}})
	m.Put("documents", Record{ID: "3", Metadata: map[string]any{"pid": "3", "title": `Say "hello"`, "type": "article"}})
	m.Put("documents", Record{ID: "4", Metadata: map[string]any{"pid": "4", "title": `C:\`, "type": "path"}})
	return m
}

func TestMemory_GetRecords(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"match all", "", []string{"1", "2", "3", "4"}},
		{"star", "*", []string{"1", "2", "3", "4"}},
		{"term", Term("type", "book"), []string{"1", "2"}},
		{"unquoted term", "type:article", []string{"3"}},
		{"raw subfield", Term("type.raw", "article"), []string{"3"}},
		{"nested array", Term("identifiers.value", "0001"), []string{"1"}},
		{"escaped quote", Term("title", `Say "hello"`), []string{"3"}},
		{"trailing backslash", Term("title", `C:\`), []string{"4"}},
		{"backslash and AND", And(Term("title", `C:\`), Term("type", "path")), []string{"4"}},
		{"and not", And(Term("type", "book"), Not(Term("pid", "1"))), []string{"2"}},
		{"free text", "prince", []string{"1"}},
		{"empty and clauses", And("", Term("pid", "2"), ""), []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := m.GetRecords(ctx, "documents", tt.query, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), rs.Total)
			var ids []string
			for _, h := range rs.Hits {
				ids = append(ids, h.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemory_Paging(t *testing.T) {
	m := seeded(t)
	rs, err := m.GetRecords(context.Background(), "documents", "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Total)
	require.Len(t, rs.Hits, 2)
	assert.Equal(t, "3", rs.Hits[0].ID)

	_, err = m.GetRecords(context.Background(), "documents", "", 1, MaxResultsSize+1)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)

	_, err = m.GetRecords(context.Background(), "documents", `title:"open`, 1, 1)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seeded(t).GetRecords(ctx, "documents", "", 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_CreateUpdate(t *testing.T) {
	m := NewMemory()
	m.newID = func() string { return "42" }
	m.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	data := map[string]any{"title": "Terre des hommes", "tags": []any{"a"}}
	rec, err := m.Create(ctx, "documents", data)
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, "42", rec.Metadata["pid"])
	assert.Equal(t, "2024-03-01T12:00:00Z", rec.Created)
	assert.NotContains(t, data, "pid", "input must not be modified")

	// stored copies are detached from callers
	rec.Metadata["title"] = "changed"
	data["tags"].([]any)[0] = "b"
	got, err := m.GetRecord(ctx, "documents", "42")
	require.NoError(t, err)
	assert.Equal(t, "Terre des hommes", got.Metadata["title"])
	assert.Equal(t, []any{"a"}, got.Metadata["tags"])

	_, err = m.Create(ctx, "documents", map[string]any{"pid": "42"})
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)

	m.now = func() time.Time { return time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC) }
	up, err := m.Update(ctx, "documents", "42", map[string]any{"title": "Citadelle", "pid": "other"})
	require.NoError(t, err)
	assert.Equal(t, "42", up.Metadata["pid"])
	assert.Equal(t, "2024-03-01T12:00:00Z", up.Created)
	assert.Equal(t, "2024-03-02T12:00:00Z", up.Updated)

	_, err = m.Update(ctx, "documents", "missing", nil)
	assert.True(t, IsNotFound(err))
	_, err = m.GetRecord(ctx, "documents", "missing")
	assert.True(t, IsNotFound(err))
}

func TestEndpoints(t *testing.T) {
	e := Endpoints{BaseURL: "https://bib.rero.ch/"}
	assert.Equal(t, "https://bib.rero.ch/api/documents/", e.Records("documents"))
	assert.Equal(t, "https://bib.rero.ch/api/documents/a%2Fb", e.Record("documents", "a/b"))
	assert.Equal(t, "https://bib.rero.ch/api/patrons/7", e.Ref("patrons", "7"))
	assert.Equal(t, "https://bib.rero.ch/schemaform/documents", e.SchemaForm("documents"))

	e.RefPrefix = "https://ils.rero.ch"
	assert.Equal(t, "https://ils.rero.ch/api/patrons/7", e.Ref("patrons", "7"))
}

func TestError(t *testing.T) {
	assert.Equal(t, "record store: 404 Not Found", (&Error{Status: 404}).Error())
	assert.Equal(t, "record store: 400 bad query", (&Error{Status: 400, Title: "bad query"}).Error())
	assert.False(t, IsNotFound(&Error{Status: 500}))
}

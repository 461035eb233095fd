package validation_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rero/recordform"
	"github.com/rero/recordform/jsonschema"
	"github.com/rero/recordform/recordstore"
	"github.com/rero/recordform/validation"
)

func build(t *testing.T, schema string, b *validation.Binder, pid string) *recordform.Tree {
	t.Helper()
	node, err := jsonschema.Parse([]byte(schema))
	require.NoError(t, err)
	tree, err := recordform.Build(node, recordform.Config{
		PID:        pid,
		Debounce:   50 * time.Millisecond,
		Extensions: []recordform.Extension{b},
	})
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func arraySchema(validator string) string {
	return `{
	  "type": "object",
	  "properties": {
	    "items": {
	      "type": "array",
	      "items": {"type": "object", "properties": {"a": {"type": "string"}, "b": {"type": "string"}, "role": {"type": "string"}}},
	      "widget": {"formlyConfig": {"props": {"validation": {"validators": ` + validator + `}}}}
	    }
	  }
	}`
}

func TestUniqueValueKeysInObject(t *testing.T) {
	data := map[string]any{"items": []any{
		map[string]any{"a": "x", "b": "y"},
		map[string]any{"a": "x", "b": "z"},
	}}
	tests := []struct {
		name  string
		keys  string
		valid bool
	}{
		{"duplicate projection on a", `["a"]`, false},
		{"full projection differs", `["a", "b"]`, true},
		{"key absent everywhere", `["role"]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := build(t, arraySchema(`{"uniqueValueKeysInObject": {"keys": `+tt.keys+`}}`), validation.NewBinder(nil, "", "", nil), "")
			require.NoError(t, tree.SetModel(data))
			iss := tree.Validate(context.Background())
			assert.Equal(t, !tt.valid, iss.HasCode(recordform.CodeUniqueness), iss.Error())
			if !tt.valid {
				assert.Equal(t, "/items", iss[0].Path)
			}
		})
	}
}

func TestUniqueValueKeysInObject_SingleElementPasses(t *testing.T) {
	tree := build(t, arraySchema(`{"uniqueValueKeysInObject": {"keys": ["a"]}}`), validation.NewBinder(nil, "", "", nil), "")
	require.NoError(t, tree.SetModel(map[string]any{"items": []any{map[string]any{"a": "x"}}}))
	assert.Empty(t, tree.Validate(context.Background()))
}

func TestNumberOfSpecificValuesInObject(t *testing.T) {
	data := map[string]any{"items": []any{
		map[string]any{"role": "editor"},
		map[string]any{"role": "editor"},
		map[string]any{"role": "viewer"},
	}}
	tests := []struct {
		name   string
		config string
		valid  bool
	}{
		{"count above max", `{"min": 1, "max": 1, "keys": {"role": "editor"}}`, false},
		{"count within range", `{"min": 1, "max": 2, "keys": {"role": "editor"}}`, true},
		{"count below min", `{"min": 3, "keys": {"role": "editor"}}`, false},
		{"max defaults to infinity", `{"keys": {"role": "viewer"}}`, true},
		{"no match below min", `{"min": 1, "keys": {"role": "author"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := build(t, arraySchema(`{"numberOfSpecificValuesInObject": `+tt.config+`}`), validation.NewBinder(nil, "", "", nil), "")
			require.NoError(t, tree.SetModel(data))
			iss := tree.Validate(context.Background())
			assert.Equal(t, !tt.valid, iss.HasCode(recordform.CodeAggregateViolation), iss.Error())
		})
	}
}

func datesSchema(strict bool) string {
	s := "false"
	if strict {
		s = "true"
	}
	return `{
	  "type": "object",
	  "properties": {
	    "period": {
	      "type": "object",
	      "properties": {
	        "start": {"type": "string", "format": "date"},
	        "end": {"type": "string", "format": "date"}
	      },
	      "widget": {"formlyConfig": {"props": {"validation": {"validators": {
	        "datesGreaterThan": {"dateFirst": "start", "dateLast": "end", "strict": ` + s + `}
	      }}}}}
	    }
	  }
	}`
}

func TestDatesGreaterThan(t *testing.T) {
	tests := []struct {
		name       string
		strict     bool
		start, end any
		valid      bool
	}{
		{"first after last", false, "2024-01-02", "2024-01-01", false},
		{"equal dates", false, "2024-01-01", "2024-01-01", true},
		{"equal dates strict", true, "2024-01-01", "2024-01-01", false},
		{"ordered strict", true, "2024-01-01", "2024-01-02", true},
		{"missing last", true, "2024-01-01", nil, true},
		{"not a date", false, "01.01.2024", "2024-01-02", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := build(t, datesSchema(tt.strict), validation.NewBinder(nil, "", "", nil), "")
			require.NoError(t, tree.SetModel(map[string]any{"period": map[string]any{"start": tt.start, "end": tt.end}}))
			iss := tree.Validate(context.Background())
			assert.Equal(t, !tt.valid, iss.HasCode(recordform.CodeDateOrder), iss.Error())
		})
	}
}

func TestDatesGreaterThan_OnChange(t *testing.T) {
	tree := build(t, datesSchema(false), validation.NewBinder(nil, "", "", nil), "")
	require.NoError(t, tree.SetValue(tree.FieldAt("/period/start"), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, tree.SetValue(tree.FieldAt("/period/end"), "2024-05-01"))
	errs := tree.Errors(tree.FieldAt("/period"))
	require.Len(t, errs, 1)
	assert.Equal(t, recordform.CodeDateOrder, errs[0].Code)
	assert.Equal(t, "The first date must be before the second date.", errs[0].Message)
}

func TestExpressionValidator(t *testing.T) {
	tree := build(t, `{
	  "type": "object",
	  "properties": {
	    "pages": {
	      "type": "number",
	      "widget": {"formlyConfig": {"props": {"validation": {"validators": {
	        "positive": {"expression": {"op": "gt", "value": 0}, "message": "Must be positive."}
	      }}}}}
	    }
	  }
	}`, validation.NewBinder(nil, "", "", nil), "")
	pages := tree.FieldAt("/pages")
	require.NoError(t, tree.SetValue(pages, -3))
	errs := tree.Errors(pages)
	require.Len(t, errs, 1)
	assert.Equal(t, recordform.CodeBusinessRule, errs[0].Code)
	assert.Equal(t, "Must be positive.", errs[0].Message)

	require.NoError(t, tree.SetValue(pages, 3))
	assert.Empty(t, tree.Errors(pages))
}

func TestBinder_MissingConfigIsSchemaError(t *testing.T) {
	tests := map[string]string{
		"unique without keys":  `{"uniqueValueKeysInObject": {}}`,
		"dates without fields": `{"datesGreaterThan": {"dateFirst": "start"}}`,
		"exists without term":  `{"valueAlreadyExists": {}}`,
		"count without keys":   `{"numberOfSpecificValuesInObject": {"min": 1}}`,
		"bad update on":        `{"datesGreaterThan": {"dateFirst": "a", "dateLast": "b", "updateOn": "hover"}}`,
	}
	for name, validators := range tests {
		t.Run(name, func(t *testing.T) {
			node, err := jsonschema.Parse([]byte(arraySchema(validators)))
			require.NoError(t, err)
			_, err = recordform.Build(node, recordform.Config{
				Extensions: []recordform.Extension{validation.NewBinder(nil, "documents", "", nil)},
			})
			var se *jsonschema.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Path, "/items/widget/validation/validators/")
		})
	}
}

func TestBinder_UnknownValidatorIgnored(t *testing.T) {
	tree := build(t, arraySchema(`{"dateMustBeLessThan": {"field": "x"}}`), validation.NewBinder(nil, "", "", nil), "")
	assert.Empty(t, tree.Validate(context.Background()))
}

const isbnSchema = `{
  "type": "object",
  "properties": {
    "isbn": {
      "type": "string",
      "widget": {"formlyConfig": {"props": {"validation": {"validators": {
        "valueAlreadyExists": {"term": "isbn", "filter": "type:book"}
      }}}}}
    }
  }
}`

func seededStore() *recordstore.Memory {
	m := recordstore.NewMemory()
	m.Put("documents", recordstore.Record{ID: "1", Metadata: map[string]any{"pid": "1", "isbn": "978-2", "type": "book"}})
	m.Put("documents", recordstore.Record{ID: "2", Metadata: map[string]any{"pid": "2", "isbn": "978-3", "type": "article"}})
	return m
}

func TestValueAlreadyExists(t *testing.T) {
	tests := []struct {
		name  string
		pid   string
		value string
		valid bool
	}{
		{"taken by another record", "", "978-2", false},
		{"taken by the edited record", "1", "978-2", true},
		{"filter excludes the match", "", "978-3", true},
		{"free value", "", "978-9", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := build(t, isbnSchema, validation.NewBinder(seededStore(), "documents", tt.pid, nil), tt.pid)
			require.NoError(t, tree.SetModel(map[string]any{"isbn": tt.value}))
			iss := tree.Validate(context.Background())
			assert.Equal(t, !tt.valid, iss.HasCode(recordform.CodeAlreadyExists), iss.Error())
		})
	}
}

func TestValueAlreadyExists_Debounced(t *testing.T) {
	tree := build(t, isbnSchema, validation.NewBinder(seededStore(), "documents", "", nil), "")
	isbn := tree.FieldAt("/isbn")
	require.NoError(t, tree.SetValue(isbn, "978-9"))
	require.NoError(t, tree.SetValue(isbn, "978-2"))
	assert.True(t, tree.Pending(isbn))
	tree.Wait()
	assert.False(t, tree.Pending(isbn))
	errs := tree.Errors(isbn)
	require.Len(t, errs, 1)
	assert.Equal(t, recordform.CodeAlreadyExists, errs[0].Code)
	assert.Equal(t, "The value is already taken.", errs[0].Message)
}

type failingStore struct{ recordstore.Store }

func (failingStore) GetRecords(context.Context, string, string, int, int) (*recordstore.ResultSet, error) {
	return nil, &recordstore.Error{Status: http.StatusServiceUnavailable, Title: "search is down"}
}

func TestValueAlreadyExists_FailsClosed(t *testing.T) {
	tree := build(t, isbnSchema, validation.NewBinder(failingStore{}, "documents", "", nil), "")
	require.NoError(t, tree.SetModel(map[string]any{"isbn": "978-2"}))
	iss := tree.Validate(context.Background())
	require.Len(t, iss, 1)
	assert.Equal(t, recordform.CodeLookupPending, iss[0].Code)
	var se *recordstore.Error
	require.True(t, errors.As(iss[0].Cause, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
}

// flakyStore fails its first search and serves the memory store after.
type flakyStore struct {
	*recordstore.Memory
	calls atomic.Int32
}

func (s *flakyStore) GetRecords(ctx context.Context, recordType, query string, page, size int) (*recordstore.ResultSet, error) {
	if s.calls.Add(1) == 1 {
		return nil, &recordstore.Error{Status: http.StatusServiceUnavailable, Title: "search is down"}
	}
	return s.Memory.GetRecords(ctx, recordType, query, page, size)
}

func TestValueAlreadyExists_RetriesFailedLookup(t *testing.T) {
	store := &flakyStore{Memory: seededStore()}
	tree := build(t, isbnSchema, validation.NewBinder(store, "documents", "", nil), "")
	require.NoError(t, tree.SetModel(map[string]any{"isbn": "978-9"}))

	assert.True(t, tree.Validate(context.Background()).HasCode(recordform.CodeLookupPending))
	assert.Empty(t, tree.Validate(context.Background()))
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestValueAlreadyExists_NoStoreFailsClosed(t *testing.T) {
	tree := build(t, isbnSchema, validation.NewBinder(nil, "documents", "", nil), "")
	require.NoError(t, tree.SetModel(map[string]any{"isbn": "978-2"}))
	assert.True(t, tree.Validate(context.Background()).HasCode(recordform.CodeLookupPending))

	// empty values are not looked up
	require.NoError(t, tree.SetModel(nil))
	assert.Empty(t, tree.Validate(context.Background()))
}

func TestValueAlreadyExists_LimitToValues(t *testing.T) {
	tree := build(t, `{
	  "type": "object",
	  "properties": {
	    "code": {
	      "type": "string",
	      "widget": {"formlyConfig": {"props": {"validation": {"validators": {
	        "valueAlreadyExists": {"term": "isbn", "limitToValues": ["978-3"]}
	      }}}}}
	    }
	  }
	}`, validation.NewBinder(seededStore(), "documents", "", nil), "")
	require.NoError(t, tree.SetModel(map[string]any{"code": "978-2"}))
	assert.Empty(t, tree.Validate(context.Background()))
	require.NoError(t, tree.SetModel(map[string]any{"code": "978-3"}))
	assert.True(t, tree.Validate(context.Background()).HasCode(recordform.CodeAlreadyExists))
}

func TestValueAlreadyExists_ClosedTreeDropsResults(t *testing.T) {
	tree := build(t, isbnSchema, validation.NewBinder(seededStore(), "documents", "", nil), "")
	isbn := tree.FieldAt("/isbn")
	require.NoError(t, tree.SetValue(isbn, "978-2"))
	tree.Close()
	tree.Wait()
	assert.Empty(t, tree.Errors(isbn))
}

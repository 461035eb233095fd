package commands

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rero/recordform"
)

const schemaYAML = `
type: object
required: [title]
properties:
  title:
    type: string
    title: Title
  note:
    type: string
  period:
    type: object
    properties:
      start: {type: string, format: date}
      end: {type: string, format: date}
    widget:
      formlyConfig:
        props:
          validation:
            validators:
              datesGreaterThan: {dateFirst: start, dateLast: end}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTree(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "documents.yaml", schemaYAML)
	record := writeFile(t, dir, "doc.json", `{"metadata": {"pid": "1", "title": "Vol de nuit"}}`)

	out, err := run(t, "tree", schema)
	require.NoError(t, err)
	assert.Contains(t, out, "editor (object)\n")
	assert.Contains(t, out, "  title (input) \"Title\" [required]\n")
	assert.Contains(t, out, "    start (datepicker)\n")
	assert.NotContains(t, out, "hidden")

	out, err = run(t, "tree", schema, "--record", record, "--pid", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "  note (input) [hidden]\n")
	assert.Contains(t, out, "hidden fields: note, period\n")

	out, err = run(t, "tree", schema, "--record", record, "--pid", "1", "--short")
	require.NoError(t, err)
	assert.NotContains(t, out, "hidden")
}

func TestTree_Errors(t *testing.T) {
	_, err := run(t, "tree")
	assert.EqualError(t, err, "a schema file or --type is required")

	_, err = run(t, "tree", "--type", "documents")
	assert.EqualError(t, err, "--type needs store.base_url")

	_, err = run(t, "tree", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	dir := t.TempDir()
	_, err = run(t, "tree", writeFile(t, dir, "a.json", `{"type": "array", "items": {"type": "string"}}`))
	assert.ErrorContains(t, err, "root must be an object")
}

func TestTree_RemoteSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schemaform/documents", r.URL.Path)
		_, _ = io.WriteString(w, `{"schema": {"type": "object", "properties": {"title": {"type": "string"}}}}`)
	}))
	defer srv.Close()
	t.Setenv("RECORDFORM_STORE_BASE_URL", srv.URL)

	out, err := run(t, "tree", "--type", "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "  title (input)\n")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "documents.yaml", schemaYAML)

	valid := writeFile(t, dir, "valid.yaml", "title: Vol de nuit\nperiod:\n  start: 2024-01-01\n  end: 2024-02-01\n")
	out, err := run(t, "validate", schema, valid)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	invalid := writeFile(t, dir, "invalid.json", `{"period": {"start": "2024-02-01", "end": "2024-01-01"}}`)
	out, err = run(t, "validate", schema, invalid)
	assert.EqualError(t, err, "2 issue(s) found")
	assert.Contains(t, out, "/title: This field is required. (required)\n")
	assert.Contains(t, out, "/period: The first date must be before the second date. (date_order)\n")

	out, err = run(t, "validate", schema, invalid, "-o", "json")
	require.Error(t, err)
	var issues []recordform.Issue
	require.NoError(t, json.Unmarshal([]byte(out), &issues))
	require.Len(t, issues, 2)
	assert.Equal(t, recordform.CodeRequired, issues[0].Code)
	assert.Equal(t, "datesGreaterThan", issues[1].Rule)
}

func TestValidate_LookupWithoutStore(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "documents.json", `{
	  "type": "object",
	  "properties": {
	    "isbn": {"type": "string", "widget": {"formlyConfig": {"props": {"validation": {"validators": {
	      "valueAlreadyExists": {"term": "isbn"}
	    }}}}}}
	  }
	}`)
	record := writeFile(t, dir, "doc.json", `{"isbn": "978-2"}`)
	out, err := run(t, "validate", schema, record)
	require.Error(t, err)
	assert.Contains(t, out, "(lookup_pending)")
}

func TestValidate_Flags(t *testing.T) {
	_, err := run(t, "validate", "a.json", "b.json", "-o", "xml")
	assert.EqualError(t, err, `unknown output format "xml"`)

	_, err = run(t, "validate")
	assert.Error(t, err)
}

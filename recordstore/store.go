// Package recordstore is the record store collaborator of the form engine:
// the Store interface, an in-memory store, an Invenio-style REST client and
// the helpers that feed forms from stored records (remote select options,
// templates).
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rero/recordform/jsonschema"
)

// MaxResultsSize is the largest page the REST API serves.
const MaxResultsSize = 9999

// Record is a stored record.
type Record struct {
	ID       string            `json:"id"`
	Metadata map[string]any    `json:"metadata"`
	Created  string            `json:"created,omitempty"`
	Updated  string            `json:"updated,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
}

// ResultSet is one page of a search.
type ResultSet struct {
	Total int
	Hits  []Record
}

// Error is a failed store call.
type Error struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
}

func (e *Error) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("record store: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("record store: %d %s", e.Status, e.Title)
}

// IsNotFound reports whether err is a 404 store error.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// Store reads and writes records of a type.
type Store interface {
	GetRecord(ctx context.Context, recordType, pid string) (*Record, error)
	// GetRecords searches records; page starts at 1.
	GetRecords(ctx context.Context, recordType, query string, page, size int) (*ResultSet, error)
	Create(ctx context.Context, recordType string, data map[string]any) (*Record, error)
	Update(ctx context.Context, recordType, pid string, data map[string]any) (*Record, error)
}

// SchemaSource serves the editor schema of a record type.
type SchemaSource interface {
	GetSchemaForm(ctx context.Context, recordType string) (*jsonschema.Node, error)
}

var termEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Term renders a term query matching value exactly.
func Term(field string, value string) string {
	return field + `:"` + termEscaper.Replace(value) + `"`
}

// And joins non-empty clauses.
func And(clauses ...string) string {
	var parts []string
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " AND ")
}

// Not negates a clause.
func Not(clause string) string { return "NOT " + clause }

// Endpoints builds the URLs of a REST API.
type Endpoints struct {
	// BaseURL is the host serving the API, e.g. "https://bib.rero.ch".
	BaseURL string
	// Prefix is prepended to record type paths. Defaults to "/api".
	Prefix string
	// RefPrefix is the host written in `$ref` values. Defaults to BaseURL.
	RefPrefix string
	// SchemaFormPath defaults to "/schemaform".
	SchemaFormPath string
}

func (e Endpoints) withDefaults() Endpoints {
	e.BaseURL = strings.TrimSuffix(e.BaseURL, "/")
	if e.Prefix == "" {
		e.Prefix = "/api"
	}
	if e.RefPrefix == "" {
		e.RefPrefix = e.BaseURL
	}
	if e.SchemaFormPath == "" {
		e.SchemaFormPath = "/schemaform"
	}
	return e
}

// Records is the collection URL of a type.
func (e Endpoints) Records(recordType string) string {
	e = e.withDefaults()
	return e.BaseURL + e.Prefix + "/" + recordType + "/"
}

// Record is the URL of one record.
func (e Endpoints) Record(recordType, pid string) string {
	return e.Records(recordType) + url.PathEscape(pid)
}

// Ref is the `$ref` URL of one record, the value stored when a record
// links another.
func (e Endpoints) Ref(recordType, pid string) string {
	e = e.withDefaults()
	return e.RefPrefix + e.Prefix + "/" + recordType + "/" + pid
}

// SchemaForm is the URL serving the editor schema of a type.
func (e Endpoints) SchemaForm(recordType string) string {
	e = e.withDefaults()
	return e.BaseURL + e.SchemaFormPath + "/" + recordType
}

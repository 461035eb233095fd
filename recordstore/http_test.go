package recordstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Endpoints{BaseURL: srv.URL}, 5*time.Second, nil)
}

func TestClient_GetRecords(t *testing.T) {
	for name, total := range map[string]string{
		"plain total":  `2`,
		"object total": `{"value": 2, "relation": "eq"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/documents/", r.URL.Path)
				assert.Equal(t, `isbn:"978-2"`, r.URL.Query().Get("q"))
				assert.Equal(t, "1", r.URL.Query().Get("page"))
				assert.Equal(t, "1", r.URL.Query().Get("size"))
				assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
				_, _ = io.WriteString(w, `{"hits": {"total": `+total+`, "hits": [{"id": "1", "metadata": {"pid": "1"}}]}}`)
			})
			c.Header.Set("Authorization", "Bearer token")
			rs, err := c.GetRecords(context.Background(), "documents", Term("isbn", "978-2"), 1, 1)
			require.NoError(t, err)
			assert.Equal(t, 2, rs.Total)
			require.Len(t, rs.Hits, 1)
			assert.Equal(t, "1", rs.Hits[0].ID)
		})
	}
}

func TestClient_SizeIsCapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9999", r.URL.Query().Get("size"))
		_, _ = io.WriteString(w, `{"hits": {"total": 0, "hits": []}}`)
	})
	_, err := c.GetRecords(context.Background(), "documents", "", 1, 20000)
	require.NoError(t, err)
}

func TestClient_CreateUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/api/documents/", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id": "9", "metadata": {"pid": "9", "title": "`+body["title"].(string)+`"}}`)
		case http.MethodPut:
			assert.Equal(t, "/api/documents/9", r.URL.Path)
			_, _ = io.WriteString(w, `{"id": "9", "metadata": {"pid": "9", "title": "`+body["title"].(string)+`"}, "updated": "2024-01-01T00:00:00Z"}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})
	ctx := context.Background()
	rec, err := c.Create(ctx, "documents", map[string]any{"title": "Courrier sud"})
	require.NoError(t, err)
	assert.Equal(t, "9", rec.ID)
	assert.Equal(t, "Courrier sud", rec.Metadata["title"])

	rec, err = c.Update(ctx, "documents", "9", map[string]any{"title": "Citadelle"})
	require.NoError(t, err)
	assert.Equal(t, "Citadelle", rec.Metadata["title"])
	assert.Equal(t, "2024-01-01T00:00:00Z", rec.Updated)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		title  string
	}{
		{"title", http.StatusBadRequest, `{"status": 400, "title": "bad query"}`, "bad query"},
		{"message", http.StatusForbidden, `{"status": 403, "message": "no access"}`, "no access"},
		{"no body", http.StatusNotFound, ``, "Not Found"},
		{"html body", http.StatusBadGateway, `<html>gateway</html>`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.GetRecord(context.Background(), "documents", "1")
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.title, se.Title)
		})
	}
}

func TestClient_GetSchemaForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schemaform/documents", r.URL.Path)
		_, _ = io.WriteString(w, `{"schema": {"type": "object", "properties": {"title": {"type": "string"}}}}`)
	})
	n, err := c.GetSchemaForm(context.Background(), "documents")
	require.NoError(t, err)
	require.NotNil(t, n.Property("title"))
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetRecords(ctx, "documents", "", 1, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

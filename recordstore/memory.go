package recordstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rero/recordform/jsonschema"
)

// Memory is a Store and SchemaSource kept in memory. Searches understand
// the query subset the form engine emits: `field:"value"` terms, bare
// words, `NOT` and ` AND `.
type Memory struct {
	mu      sync.RWMutex
	records map[string]map[string]*Record
	order   map[string][]string
	schemas map[string]*jsonschema.Node
	newID   func() string
	now     func() time.Time
}

// NewMemory returns an empty store assigning uuid pids.
func NewMemory() *Memory {
	return &Memory{
		records: map[string]map[string]*Record{},
		order:   map[string][]string{},
		schemas: map[string]*jsonschema.Node{},
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Put stores rec as is, replacing a record with the same id.
func (m *Memory) Put(recordType string, rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(recordType, &Record{ID: rec.ID, Metadata: copyMap(rec.Metadata), Created: rec.Created, Updated: rec.Updated})
}

// SetSchema registers the editor schema of a type.
func (m *Memory) SetSchema(recordType string, n *jsonschema.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[recordType] = n
}

func (m *Memory) GetSchemaForm(_ context.Context, recordType string) (*jsonschema.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.schemas[recordType]
	if !ok {
		return nil, &Error{Status: http.StatusNotFound, Title: "no schema form for " + recordType}
	}
	return n, nil
}

func (m *Memory) GetRecord(_ context.Context, recordType, pid string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordType][pid]
	if !ok {
		return nil, &Error{Status: http.StatusNotFound, Title: "Not Found"}
	}
	return cloneRecord(rec), nil
}

func (m *Memory) GetRecords(ctx context.Context, recordType, query string, page, size int) (*ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size > MaxResultsSize {
		return nil, &Error{Status: http.StatusBadRequest, Title: fmt.Sprintf("size must be at most %d", MaxResultsSize)}
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	match, err := parseQuery(query)
	if err != nil {
		return nil, &Error{Status: http.StatusBadRequest, Title: err.Error()}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs := &ResultSet{}
	start := (page - 1) * size
	for _, id := range m.order[recordType] {
		rec := m.records[recordType][id]
		if !match(rec) {
			continue
		}
		if rs.Total >= start && len(rs.Hits) < size {
			rs.Hits = append(rs.Hits, *cloneRecord(rec))
		}
		rs.Total++
	}
	return rs, nil
}

func (m *Memory) Create(_ context.Context, recordType string, data map[string]any) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md := copyMap(data)
	pid, _ := md["pid"].(string)
	if pid == "" {
		pid = m.newID()
		md["pid"] = pid
	}
	if _, exists := m.records[recordType][pid]; exists {
		return nil, &Error{Status: http.StatusConflict, Title: "pid " + pid + " already exists"}
	}
	ts := m.now().UTC().Format(time.RFC3339)
	rec := &Record{ID: pid, Metadata: md, Created: ts, Updated: ts}
	m.putLocked(recordType, rec)
	return cloneRecord(rec), nil
}

func (m *Memory) Update(_ context.Context, recordType, pid string, data map[string]any) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.records[recordType][pid]
	if !ok {
		return nil, &Error{Status: http.StatusNotFound, Title: "Not Found"}
	}
	md := copyMap(data)
	md["pid"] = pid
	rec := &Record{ID: pid, Metadata: md, Created: old.Created, Updated: m.now().UTC().Format(time.RFC3339)}
	m.putLocked(recordType, rec)
	return cloneRecord(rec), nil
}

func (m *Memory) putLocked(recordType string, rec *Record) {
	byID := m.records[recordType]
	if byID == nil {
		byID = map[string]*Record{}
		m.records[recordType] = byID
	}
	if _, exists := byID[rec.ID]; !exists {
		m.order[recordType] = append(m.order[recordType], rec.ID)
	}
	byID[rec.ID] = rec
}

// parseQuery compiles the supported query subset into a predicate.
func parseQuery(q string) (func(*Record) bool, error) {
	q = strings.TrimSpace(q)
	if q == "" || q == "*" {
		return func(*Record) bool { return true }, nil
	}
	var preds []func(*Record) bool
	for _, clause := range splitClauses(q) {
		clause = strings.TrimSpace(clause)
		negate := false
		if strings.HasPrefix(clause, "NOT ") {
			negate = true
			clause = strings.TrimSpace(strings.TrimPrefix(clause, "NOT "))
		}
		p, err := parseClause(clause)
		if err != nil {
			return nil, err
		}
		if negate {
			inner := p
			p = func(r *Record) bool { return !inner(r) }
		}
		preds = append(preds, p)
	}
	return func(r *Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}, nil
}

var termUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

// splitClauses splits q on " AND " outside quoted values.
func splitClauses(q string) []string {
	var out []string
	inQuote, start := false, 0
	for i := 0; i < len(q); i++ {
		switch {
		case q[i] == '\\' && inQuote:
			i++
		case q[i] == '"':
			inQuote = !inQuote
		case !inQuote && strings.HasPrefix(q[i:], " AND "):
			out = append(out, q[start:i])
			i += len(" AND ") - 1
			start = i + 1
		}
	}
	return append(out, q[start:])
}

func parseClause(c string) (func(*Record) bool, error) {
	if c == "" {
		return nil, fmt.Errorf("empty clause")
	}
	field, value, ok := strings.Cut(c, ":")
	if !ok || strings.HasPrefix(c, `"`) {
		word := strings.ToLower(strings.Trim(c, `"`))
		return func(r *Record) bool { return containsWord(r.Metadata, word) }, nil
	}
	if strings.HasPrefix(value, `"`) {
		if len(value) < 2 || !strings.HasSuffix(value, `"`) {
			return nil, fmt.Errorf("unterminated quote in %q", c)
		}
		value = termUnescaper.Replace(value[1:len(value)-1])
	}
	return func(r *Record) bool {
		for _, got := range fieldValues(r, field) {
			if fmt.Sprint(got) == value {
				return true
			}
		}
		return false
	}, nil
}

// fieldValues returns the values at a dotted metadata path, flattening
// arrays. A trailing ".raw" subfield reads the field itself.
func fieldValues(r *Record, field string) []any {
	if field == "pid" || field == "id" {
		if v, ok := r.Metadata["pid"]; ok {
			return []any{v}
		}
		return []any{r.ID}
	}
	field = strings.TrimSuffix(field, ".raw")
	cur := []any{map[string]any(r.Metadata)}
	for _, seg := range strings.Split(field, ".") {
		var next []any
		for _, c := range cur {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			switch v := m[seg].(type) {
			case nil:
			case []any:
				next = append(next, v...)
			default:
				next = append(next, v)
			}
		}
		cur = next
	}
	return cur
}

func containsWord(v any, word string) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(t), word)
	case map[string]any:
		for _, it := range t {
			if containsWord(it, word) {
				return true
			}
		}
	case []any:
		for _, it := range t {
			if containsWord(it, word) {
				return true
			}
		}
	}
	return false
}

func cloneRecord(r *Record) *Record {
	out := *r
	out.Metadata = copyMap(r.Metadata)
	return &out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = copyValue(it)
		}
		return out
	}
	return v
}

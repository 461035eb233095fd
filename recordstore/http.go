package recordstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rero/recordform/jsonschema"
)

// Client talks to an Invenio-style records REST API.
type Client struct {
	Endpoints Endpoints
	HTTP      *http.Client
	// Header is added to every request, e.g. for authentication.
	Header http.Header
	Logger *zap.Logger
}

// NewClient returns a client with its own http.Client bounded by timeout.
func NewClient(e Endpoints, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Endpoints: e,
		HTTP:      &http.Client{Timeout: timeout},
		Header:    http.Header{},
		Logger:    logger.Named("recordstore"),
	}
}

type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []Record        `json:"hits"`
	} `json:"hits"`
}

// total accepts both `"total": 3` and `"total": {"value": 3}`.
func (r searchResponse) total() int {
	var n int
	if err := json.Unmarshal(r.Hits.Total, &n); err == nil {
		return n
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(r.Hits.Total, &obj); err == nil {
		return obj.Value
	}
	return len(r.Hits.Hits)
}

func (c *Client) GetRecord(ctx context.Context, recordType, pid string) (*Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodGet, c.Endpoints.Record(recordType, pid), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) GetRecords(ctx context.Context, recordType, query string, page, size int) (*ResultSet, error) {
	if size > MaxResultsSize {
		size = MaxResultsSize
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, c.Endpoints.Records(recordType)+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &ResultSet{Total: resp.total(), Hits: resp.Hits.Hits}, nil
}

func (c *Client) Create(ctx context.Context, recordType string, data map[string]any) (*Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodPost, c.Endpoints.Records(recordType), data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Update(ctx context.Context, recordType, pid string, data map[string]any) (*Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodPut, c.Endpoints.Record(recordType, pid), data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetSchemaForm fetches and parses the editor schema of a type.
func (c *Client) GetSchemaForm(ctx context.Context, recordType string) (*jsonschema.Node, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.Endpoints.SchemaForm(recordType), nil, &raw); err != nil {
		return nil, err
	}
	return jsonschema.Parse(raw)
}

func (c *Client) do(ctx context.Context, method, u string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Warn("request failed", zap.String("method", method), zap.String("url", u), zap.Error(err))
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}
	c.Logger.Debug("request done", zap.String("method", method), zap.String("url", u), zap.Int("status", resp.StatusCode))
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", u, err)
	}
	return nil
}

func decodeError(status int, data []byte) *Error {
	var body struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Title   string `json:"title"`
	}
	_ = json.Unmarshal(data, &body)
	e := &Error{Status: status, Title: body.Title}
	if e.Title == "" {
		e.Title = body.Message
	}
	if e.Title == "" {
		e.Title = http.StatusText(status)
	}
	return e
}

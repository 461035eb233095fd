package recordform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rero/recordform/jsonschema"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooFewItems   = "too_few_items"
	CodeTooManyItems  = "too_many_items"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidConst  = "invalid_const"
	CodeInvalidFormat = "invalid_format"
	// Validators declared in the schema widget block
	CodeAlreadyExists      = "already_exists"
	CodeUniqueness         = "uniqueness"
	CodeAggregateViolation = "aggregate_violation"
	CodeDateOrder          = "date_order"
	CodeBusinessRule       = "business_rule"
	// Lookup failed or is still running; submission stays blocked.
	CodeLookupPending = "lookup_pending"
)

// Issue is a single validation failure attached to a field.
type Issue struct {
	Path    string `json:"path"` // JSON Pointer into the model (for example: /authors/2/name).
	FieldID string `json:"fieldId"`
	Code    string `json:"code"` // One of the codes listed above.
	// Message is the translated, user-facing text.
	Message string `json:"message"`
	// Key is the translation key Message was produced from, so callers can
	// re-translate on a language change.
	Key string `json:"key,omitempty"`
	// Params carries structured parameters (e.g., {"min":1, "max":10}) used
	// for interpolation.
	Params map[string]any `json:"params,omitempty"`
	// Rule records the validator name that produced this issue.
	Rule  string `json:"rule,omitempty"`
	Cause error  `json:"-"` // Optional: underlying error (lookup failures).
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. required at /title
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// ByPath groups issues by JSON Pointer.
func (iss Issues) ByPath() map[string]Issues {
	out := make(map[string]Issues, len(iss))
	for _, it := range iss {
		out[it.Path] = append(out[it.Path], it)
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// SchemaError is returned when a schema cannot be turned into a field tree.
type SchemaError = jsonschema.SchemaError

// Errors returned by array operations.
var (
	ErrNotArray        = errors.New("recordform: field is not an array")
	ErrMaxItems        = errors.New("recordform: array is at its maximum size")
	ErrMinItems        = errors.New("recordform: array is at its minimum size")
	ErrIndexOutOfRange = errors.New("recordform: array index out of range")
	ErrFieldHidden     = errors.New("recordform: field is hidden")
	ErrNotMultischema  = errors.New("recordform: field is not a multischema")
	ErrTreeClosed      = errors.New("recordform: tree is closed")
)

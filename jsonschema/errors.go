package jsonschema

import "fmt"

// SchemaError reports a schema that cannot be turned into a field tree:
// an unresolvable or cyclic $ref, a malformed node, or a validator declared
// without the configuration it needs.
type SchemaError struct {
	// Path is the JSON Pointer of the offending node ("#/properties/a").
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: %s at %s", e.Reason, e.Path)
}

// Errorf builds a SchemaError.
func Errorf(path, format string, a ...any) *SchemaError {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, a...)}
}

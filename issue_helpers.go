package recordform

// IssueAt creates an Issue bound to f with provided code, message and params map.
// This is a convenience helper for validators built outside the package.
func IssueAt(f *Field, code, msg string, params map[string]any) Issue {
	return Issue{Path: f.Pointer(), FieldID: f.ID(), Code: code, Message: msg, Params: params}
}

// ForField returns the issues raised on the field with the given id.
func (iss Issues) ForField(id string) Issues {
	var out Issues
	for _, it := range iss {
		if it.FieldID == id {
			out = append(out, it)
		}
	}
	return out
}

// HasCode reports whether any issue carries code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

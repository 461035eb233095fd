package recordform

import (
	"strconv"
	"strings"
)

// Segment is one step of a field key: a property name or an array index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Name returns a property segment.
func Name(name string) Segment { return Segment{Name: name} }

// Index returns an array index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	return strings.ReplaceAll(strings.ReplaceAll(s.Name, "~", "~0"), "/", "~1")
}

// Path is the ordered key of a field from the root.
type Path []Segment

// Pointer renders p as a JSON Pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// ParsePointer splits a JSON Pointer into segments. Purely numeric segments
// become indexes.
func ParsePointer(ptr string) Path {
	var out Path
	for _, part := range strings.Split(ptr, "/") {
		if part == "" {
			continue
		}
		if i, err := strconv.Atoi(part); err == nil && i >= 0 {
			out = append(out, Index(i))
			continue
		}
		out = append(out, Name(strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")))
	}
	return out
}

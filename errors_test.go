package recordform

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssues_Error(t *testing.T) {
	assert.Equal(t, "", Issues(nil).Error())
	iss := Issues{
		{Code: CodeRequired, Path: "/title"},
		{Code: CodeTooShort, Path: "/title"},
		{Code: CodeDateOrder, Path: "/period"},
		{Code: CodeUniqueness, Path: "/items"},
	}
	assert.Equal(t, "required at /title; too_short at /title; date_order at /period; ... (total 4)", iss.Error())

	byPath := iss.ByPath()
	assert.Len(t, byPath["/title"], 2)
	assert.Len(t, byPath["/items"], 1)
}

func TestAsIssues(t *testing.T) {
	_, ok := AsIssues(nil)
	assert.False(t, ok)
	_, ok = AsIssues(fmt.Errorf("plain"))
	assert.False(t, ok)

	wrapped := fmt.Errorf("submit: %w", AppendIssues(nil, Issue{Code: CodeRequired}))
	iss, ok := AsIssues(wrapped)
	require.True(t, ok)
	assert.True(t, iss.HasCode(CodeRequired))
	assert.False(t, iss.HasCode(CodePattern))
}

func TestIssueAt(t *testing.T) {
	tree := mustBuild(t, documentSchema, Config{})
	title := tree.FieldAt("/title")
	is := IssueAt(title, CodeBusinessRule, "not allowed", map[string]any{"word": "x"})
	assert.Equal(t, "/title", is.Path)
	assert.Equal(t, "editor/title", is.FieldID)

	iss := tree.Validate(context.Background())
	for _, it := range iss.ForField(title.ID()) {
		assert.Equal(t, title.Pointer(), it.Path)
	}
}

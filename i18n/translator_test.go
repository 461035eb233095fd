package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_InstantAndFallback(t *testing.T) {
	c := NewCatalog("en")
	assert.Equal(t, "should NOT have fewer than 2 items", c.Instant(MsgMinItems, map[string]any{"minItems": 2}))
	assert.Equal(t, "unknown.key", c.Instant("unknown.key", nil))

	c.SetLanguage("fr")
	assert.Equal(t, "Ce champ est obligatoire.", c.Instant(MsgRequired, nil))
	// missing in a language falls back to the key itself
	c.SetLanguage("de")
	assert.Equal(t, "should be >= 3", c.Instant(MsgMinimum, map[string]any{"min": 3}))
}

func TestCatalog_SubscribeFollowsLanguage(t *testing.T) {
	c := NewCatalog("en")
	c.Add("fr", map[string]string{"Title": "Titre"})
	var got []string
	cancel := c.Subscribe("Title", nil, func(s string) { got = append(got, s) })
	c.SetLanguage("fr")
	cancel()
	c.SetLanguage("en")
	assert.Equal(t, []string{"Title", "Titre"}, got)
}

func TestDefaultCatalog(t *testing.T) {
	if msg := T(MsgRequired, nil); msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}
	SetLanguage("fr")
	assert.Equal(t, "Ce champ est obligatoire.", T(MsgRequired, nil))
	SetLanguage("en")
}

package i18n

import (
	"fmt"
	"strings"
	"sync"
)

// Translator resolves translation keys to user-facing strings. params fill
// "{{name}}" placeholders.
type Translator interface {
	Instant(key string, params map[string]any) string
}

// Streamer is a Translator whose output can change (language switch).
// Subscribe calls fn immediately with the current translation and again on
// every change until cancel is called.
type Streamer interface {
	Translator
	Subscribe(key string, params map[string]any, fn func(string)) (cancel func())
}

// Catalog is the built-in dictionary Translator. It is safe for concurrent
// use.
type Catalog struct {
	mu     sync.RWMutex
	lang   string
	dicts  map[string]map[string]string
	subs   map[int]subscription
	nextID int
}

type subscription struct {
	key    string
	params map[string]any
	fn     func(string)
}

// NewCatalog returns a catalog preloaded with the built-in dictionaries and
// set to lang.
func NewCatalog(lang string) *Catalog {
	c := &Catalog{dicts: map[string]map[string]string{}, subs: map[int]subscription{}}
	for l, d := range builtin {
		c.Add(l, d)
	}
	c.lang = lang
	return c
}

// Add merges translations for lang. Existing keys are overwritten.
func (c *Catalog) Add(lang string, entries map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.dicts[lang]
	if !ok {
		d = make(map[string]string, len(entries))
		c.dicts[lang] = d
	}
	for k, v := range entries {
		d[k] = v
	}
}

// Language returns the current language.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// SetLanguage switches language and notifies subscribers.
func (c *Catalog) SetLanguage(lang string) {
	c.mu.Lock()
	c.lang = lang
	subs := make([]subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()
	for _, s := range subs {
		s.fn(c.Instant(s.key, s.params))
	}
}

// Instant translates key in the current language. Unknown keys are returned
// as is, after interpolation.
func (c *Catalog) Instant(key string, params map[string]any) string {
	c.mu.RLock()
	msg, ok := c.dicts[c.lang][key]
	c.mu.RUnlock()
	if !ok {
		msg = key
	}
	return interpolate(msg, params)
}

// Subscribe implements Streamer.
func (c *Catalog) Subscribe(key string, params map[string]any, fn func(string)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = subscription{key: key, params: params, fn: fn}
	c.mu.Unlock()
	fn(c.Instant(key, params))
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func interpolate(msg string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", fmt.Sprint(v))
		msg = strings.ReplaceAll(msg, "{{ "+k+" }}", fmt.Sprint(v))
	}
	return msg
}

var std = NewCatalog("en")

// Default returns the package level catalog.
func Default() *Catalog { return std }

// SetLanguage switches the package level catalog language.
func SetLanguage(lang string) { std.SetLanguage(lang) }

// T translates key with the package level catalog.
func T(key string, params map[string]any) string { return std.Instant(key, params) }

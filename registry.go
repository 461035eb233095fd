package recordform

import (
	"strings"
	"sync"
)

// HiddenFields lists the hidden first-level fields the user may re-add.
// A field is listed exactly when it is hidden (by the user or
// automatically) and its parent is the root. Entries are keyed by field id.
type HiddenFields struct {
	mu     sync.Mutex
	fields []*Field
	subs   map[int]func([]*Field)
	next   int
}

// NewHiddenFields returns an empty registry.
func NewHiddenFields() *HiddenFields {
	return &HiddenFields{subs: map[int]func([]*Field){}}
}

// Fields returns a snapshot of the listed fields in insertion order.
func (h *HiddenFields) Fields() []*Field {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Field(nil), h.fields...)
}

func (h *HiddenFields) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fields)
}

// Contains reports whether a field with the id of f is listed.
func (h *HiddenFields) Contains(f *Field) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.indexLocked(f.id) >= 0
}

// Subscribe calls fn with the current list and after every change. The
// returned func stops the notifications.
func (h *HiddenFields) Subscribe(fn func([]*Field)) (cancel func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	snap := append([]*Field(nil), h.fields...)
	h.mu.Unlock()
	fn(snap)
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// add lists f, replacing a stale entry with the same id.
func (h *HiddenFields) add(f *Field) {
	h.update(func() bool {
		if i := h.indexLocked(f.id); i >= 0 {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
		}
		h.fields = append(h.fields, f)
		return true
	})
}

func (h *HiddenFields) remove(f *Field) {
	h.update(func() bool {
		i := h.indexLocked(f.id)
		if i < 0 {
			return false
		}
		h.fields = append(h.fields[:i], h.fields[i+1:]...)
		return true
	})
}

// removeUnder drops the entries at or below the field id prefix.
func (h *HiddenFields) removeUnder(id string) {
	h.update(func() bool {
		kept := h.fields[:0]
		for _, f := range h.fields {
			if f.id == id || strings.HasPrefix(f.id, id+"/") {
				continue
			}
			kept = append(kept, f)
		}
		changed := len(kept) != len(h.fields)
		h.fields = kept
		return changed
	})
}

// Clear empties the registry.
func (h *HiddenFields) Clear() {
	h.update(func() bool {
		changed := len(h.fields) > 0
		h.fields = nil
		return changed
	})
}

func (h *HiddenFields) update(mutate func() bool) {
	h.mu.Lock()
	if !mutate() {
		h.mu.Unlock()
		return
	}
	snap := append([]*Field(nil), h.fields...)
	subs := make([]func([]*Field), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (h *HiddenFields) indexLocked(id string) int {
	for i, f := range h.fields {
		if f.id == id {
			return i
		}
	}
	return -1
}

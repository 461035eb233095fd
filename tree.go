package recordform

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rero/recordform/i18n"
	"github.com/rero/recordform/internal/debounce"
	"github.com/rero/recordform/jsonschema"
	"github.com/rero/recordform/rules"
)

// DefaultDebounce is the quiet period before async validators run.
const DefaultDebounce = 300 * time.Millisecond

// Config controls how a tree is built and behaves.
type Config struct {
	// FormID prefixes every field id. Defaults to "editor".
	FormID string
	// PID is the identifier of the record being edited; empty when creating.
	PID string
	// LongMode enables hiding optional fields.
	LongMode bool
	Debounce time.Duration
	Kinds    *Kinds
	// Extensions run on every built field, including array items built later.
	Extensions []Extension
	Translator i18n.Translator
	Logger     *zap.Logger
	// Registry receives the hidden first-level fields. A fresh one is
	// created when nil.
	Registry *HiddenFields
	// OnFocus is called after the focus moved: scrollTo is the field the
	// action targeted, focus the leaf that received the focus.
	OnFocus func(scrollTo, focus *Field)
}

func (c Config) withDefaults() Config {
	if c.FormID == "" {
		c.FormID = "editor"
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Kinds == nil {
		c.Kinds = NewKinds()
	}
	if c.Translator == nil {
		c.Translator = i18n.Default()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Registry == nil {
		c.Registry = NewHiddenFields()
	}
	return c
}

type asyncStatus uint8

const (
	asyncPending asyncStatus = iota
	asyncValid
	asyncInvalid
	asyncFailed
)

type asyncState struct {
	value  any
	status asyncStatus
	err    error
}

// Tree is a built form: the field tree, the model it edits and the
// validation state. Tree methods are meant to be called from one goroutine;
// async validators report back concurrently and only touch state guarded
// by the tree mutex.
type Tree struct {
	cfg      Config
	log      *zap.Logger
	root     *Field
	model    map[string]any
	registry *HiddenFields
	serial   int
	touched  bool
	focused  *Field

	ctx      context.Context
	cancel   context.CancelFunc
	debounce *debounce.Group

	mu         sync.Mutex
	generation string
	closed     bool
	errs       map[int]map[*Validator]*Issue
	async      map[int]map[string]*asyncState
}

// Build resolves node and turns it into a tree whose model holds the schema
// defaults. The root must be an object.
func Build(node *jsonschema.Node, cfg Config) (*Tree, error) {
	resolved, err := jsonschema.Resolve(node)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tree{
		cfg:        cfg,
		log:        cfg.Logger.Named("tree").With(zap.String("form", cfg.FormID)),
		registry:   cfg.Registry,
		ctx:        ctx,
		cancel:     cancel,
		debounce:   debounce.New(cfg.Debounce),
		generation: uuid.NewString(),
		errs:       map[int]map[*Validator]*Issue{},
		async:      map[int]map[string]*asyncState{},
		model:      map[string]any{},
	}
	if k := cfg.Kinds.Resolve(resolved); k != KindObject {
		cancel()
		return nil, jsonschema.Errorf("/", "root must be an object, got %s", k)
	}
	root, err := t.buildField(resolved, nil, Segment{}, false, false)
	if err != nil {
		cancel()
		return nil, err
	}
	root.isRoot = true
	t.root = root
	t.registry.Clear()
	if err := t.SetModel(nil); err != nil {
		cancel()
		return nil, err
	}
	t.log.Debug("tree built", zap.Int("leaves", len(root.Leaves())), zap.String("generation", t.generation))
	return t, nil
}

func (t *Tree) Root() *Field { return t.root }

// Registry returns the hidden-fields registry of the tree.
func (t *Tree) Registry() *HiddenFields { return t.registry }

// HiddenFields is a snapshot of the registry.
func (t *Tree) HiddenFields() []*Field { return t.registry.Fields() }

func (t *Tree) Config() Config { return t.cfg }

// Touched reports whether the user changed anything since the build.
func (t *Tree) Touched() bool { return t.touched }

// Field returns the field with the given id, or nil.
func (t *Tree) Field(id string) *Field {
	var out *Field
	t.root.Walk(func(f *Field) bool {
		if f.id == id {
			out = f
		}
		return out == nil
	})
	return out
}

// FieldAt returns the field bound to a JSON Pointer, or nil.
func (t *Tree) FieldAt(ptr string) *Field {
	f := t.root
	for _, s := range ParsePointer(ptr) {
		if s.IsIndex {
			f = f.Item(s.Index)
		} else {
			f = f.Child(s.Name)
		}
		if f == nil {
			return nil
		}
	}
	return f
}

// Model returns a copy of the edited data.
func (t *Tree) Model() map[string]any {
	m, _ := deepCopy(t.model).(map[string]any)
	return m
}

// SetModel replaces the edited data. Missing values take their defaults,
// array children follow the data and the visibility state is refreshed.
func (t *Tree) SetModel(data map[string]any) error {
	if t.isClosed() {
		return ErrTreeClosed
	}
	m, _ := deepCopy(data).(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	t.model = m
	t.mu.Lock()
	t.generation = uuid.NewString()
	t.errs = map[int]map[*Validator]*Issue{}
	t.async = map[int]map[string]*asyncState{}
	t.mu.Unlock()
	if err := t.syncField(t.root); err != nil {
		return err
	}
	t.evalHideExpressions()
	t.autoHide()
	return nil
}

// SetValue sets the value of f as the user would, then re-runs the change
// validators of f and its ancestors and schedules its async validators.
func (t *Tree) SetValue(f *Field, v any) error {
	if t.isClosed() {
		return ErrTreeClosed
	}
	if f.isRoot {
		m, _ := v.(map[string]any)
		t.touched = true
		return t.SetModel(m)
	}
	if s := t.cfg.Kinds.Strategy(f.Kind); s.Coerce != nil {
		v = s.Coerce(v)
	}
	t.set(f.Path(), deepCopy(v))
	t.touched = true
	if f.Kind.IsContainer() {
		if err := t.syncField(f); err != nil {
			return err
		}
	}
	t.evalHideExpressions()
	t.revalidate(f, UpdateOnChange)
	t.scheduleAsync(f)
	return nil
}

// Blur runs the blur validators of f and its ancestors.
func (t *Tree) Blur(f *Field) {
	t.revalidate(f, UpdateOnBlur)
}

// Validate runs every validator of the visible fields, waiting for async
// ones, and returns the issues. Async checks whose lookup failed or did not
// finish before ctx is done fail closed.
func (t *Tree) Validate(ctx context.Context) Issues {
	var out Issues
	t.root.Walk(func(f *Field) bool {
		if f.Hidden() {
			return false
		}
		out = append(out, t.runSync(f, UpdateOnSubmit)...)
		for _, av := range f.AsyncValidators {
			if is := t.awaitAsync(ctx, f, av); is != nil {
				out = append(out, *is)
			}
		}
		return true
	})
	return out
}

// Errors returns the current issues of f, in validator order. Messages are
// translated in the current language.
func (t *Tree) Errors(f *Field) Issues {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out Issues
	for _, v := range f.Validators {
		if is := t.errs[f.serial][v]; is != nil {
			cur := *is
			cur.Message = t.cfg.Translator.Instant(cur.Key, cur.Params)
			out = append(out, cur)
		}
	}
	for _, av := range f.AsyncValidators {
		st := t.async[f.serial][av.Name]
		if st == nil {
			continue
		}
		switch st.status {
		case asyncInvalid:
			out = append(out, t.issue(f, av.Name, av.Code, av.Message, av.Params, nil))
		case asyncFailed:
			out = append(out, t.issue(f, av.Name, CodeLookupPending, i18n.MsgLookupPending, nil, st.err))
		}
	}
	return out
}

// Pending reports whether an async validator of f is still running.
func (t *Tree) Pending(f *Field) bool {
	for _, av := range f.AsyncValidators {
		if t.debounce.Pending(asyncKey(f, av)) {
			return true
		}
	}
	return false
}

// LoadOptions runs the options loader of f and stores the result. A failing
// loader leaves the select empty.
func (t *Tree) LoadOptions(ctx context.Context, f *Field) []jsonschema.Option {
	if f.optionsLoader == nil {
		return f.Options
	}
	opts, err := f.optionsLoader(ctx)
	if err != nil {
		t.log.Warn("options unavailable", zap.String("field", f.id), zap.Error(err))
		opts = nil
	}
	f.Options = opts
	return opts
}

// Close cancels the pending async validators. Results arriving later are
// discarded.
func (t *Tree) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	t.debounce.Close()
}

// Wait blocks until the scheduled async validators returned.
func (t *Tree) Wait() { t.debounce.Wait() }

func (t *Tree) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tree) set(p Path, v any) {
	if m, ok := assign(t.model, p, v).(map[string]any); ok {
		t.model = m
	}
}

func (t *Tree) revalidate(f *Field, phase UpdateOn) {
	for c := f; c != nil; c = c.parent {
		t.runSync(c, phase)
	}
}

func runsOn(v UpdateOn, phase UpdateOn) bool {
	if v == "" {
		v = UpdateOnChange
	}
	switch phase {
	case UpdateOnSubmit:
		return true
	case UpdateOnBlur:
		return v == UpdateOnBlur || v == UpdateOnChange
	}
	return v == phase
}

// runSync evaluates the validators of f due in phase and returns the issues
// they raised.
func (t *Tree) runSync(f *Field, phase UpdateOn) Issues {
	var out Issues
	for _, v := range f.Validators {
		if !runsOn(v.UpdateOn, phase) {
			continue
		}
		ok := t.check(f, v)
		t.mu.Lock()
		byName := t.errs[f.serial]
		if byName == nil {
			byName = map[*Validator]*Issue{}
			t.errs[f.serial] = byName
		}
		if ok {
			delete(byName, v)
		} else {
			is := t.issue(f, v.Name, v.Code, v.Message, v.Params, nil)
			byName[v] = &is
			out = append(out, is)
		}
		t.mu.Unlock()
	}
	return out
}

func (t *Tree) check(f *Field, v *Validator) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("validator panicked", zap.String("field", f.id), zap.String("validator", v.Name), zap.Any("panic", r))
			ok = false
		}
	}()
	return v.Check(f)
}

func (t *Tree) issue(f *Field, rule, code, key string, params map[string]any, cause error) Issue {
	if override, ok := f.Messages[rule]; ok {
		key = override
	}
	return Issue{
		Path:    f.Pointer(),
		FieldID: f.id,
		Code:    code,
		Key:     key,
		Message: t.cfg.Translator.Instant(key, params),
		Params:  params,
		Rule:    rule,
		Cause:   cause,
	}
}

func asyncKey(f *Field, av *AsyncValidator) string {
	return strconv.Itoa(f.serial) + "#" + av.Name
}

func (t *Tree) scheduleAsync(f *Field) {
	if len(f.AsyncValidators) == 0 {
		return
	}
	value := deepCopy(f.Value())
	t.mu.Lock()
	gen := t.generation
	t.mu.Unlock()
	id := f.id
	for _, av := range f.AsyncValidators {
		av := av
		t.setAsync(f, av, &asyncState{value: value, status: asyncPending}, gen)
		t.debounce.Schedule(t.ctx, asyncKey(f, av), func(ctx context.Context) {
			ok, err := t.runAsync(ctx, id, f, av, value)
			if ctx.Err() != nil {
				return
			}
			t.setAsync(f, av, asyncResult(value, ok, err), gen)
		})
	}
}

// awaitAsync returns the issue of av for the current value of f, reusing a
// finished result for the same value or running the check inline. A failed
// lookup is retried.
func (t *Tree) awaitAsync(ctx context.Context, f *Field, av *AsyncValidator) *Issue {
	value := f.Value()
	t.mu.Lock()
	gen := t.generation
	st := t.async[f.serial][av.Name]
	t.mu.Unlock()
	if st == nil || st.status == asyncPending || st.status == asyncFailed || !rules.Equal(st.value, value) {
		t.debounce.Cancel(asyncKey(f, av))
		ok, err := t.runAsync(ctx, f.id, f, av, value)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		st = asyncResult(value, ok, err)
		t.setAsync(f, av, st, gen)
	}
	switch st.status {
	case asyncInvalid:
		is := t.issue(f, av.Name, av.Code, av.Message, av.Params, nil)
		return &is
	case asyncFailed:
		is := t.issue(f, av.Name, CodeLookupPending, i18n.MsgLookupPending, nil, st.err)
		return &is
	}
	return nil
}

func (t *Tree) runAsync(ctx context.Context, id string, f *Field, av *AsyncValidator, value any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("validator %s panicked: %v", av.Name, r)
		}
	}()
	ok, err = av.Check(ctx, f, value)
	if err != nil {
		t.log.Warn("async validation failed", zap.String("field", id), zap.String("validator", av.Name), zap.Error(err))
	}
	return ok, err
}

func asyncResult(value any, ok bool, err error) *asyncState {
	switch {
	case err != nil:
		return &asyncState{value: value, status: asyncFailed, err: err}
	case ok:
		return &asyncState{value: value, status: asyncValid}
	}
	return &asyncState{value: value, status: asyncInvalid}
}

// setAsync records st unless the tree was closed or its model replaced
// since the check started.
func (t *Tree) setAsync(f *Field, av *AsyncValidator, st *asyncState, gen string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || gen != t.generation {
		return
	}
	byName := t.async[f.serial]
	if byName == nil {
		byName = map[string]*asyncState{}
		t.async[f.serial] = byName
	}
	byName[av.Name] = st
}

// forget drops the validation state of the subtree of f.
func (t *Tree) forget(f *Field) {
	f.Walk(func(c *Field) bool {
		for _, av := range c.AsyncValidators {
			t.debounce.Cancel(asyncKey(c, av))
		}
		t.mu.Lock()
		delete(t.errs, c.serial)
		delete(t.async, c.serial)
		t.mu.Unlock()
		return true
	})
}

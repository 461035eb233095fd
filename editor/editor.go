// Package editor hosts one record form at a time: it fetches the schema of a
// record type, builds the field tree with the validators and remote options
// bound to the record store, loads the record or a template into it and
// submits the result.
//
// The hidden-fields registry is owned by the Editor and survives record type
// switches, so widgets subscribe to it once.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rero/recordform"
	"github.com/rero/recordform/recordstore"
	"github.com/rero/recordform/rules"
	"github.com/rero/recordform/validation"
)

// ErrNotOpen is returned by operations needing an open record form.
var ErrNotOpen = errors.New("editor: no record form open")

// Hook transforms a record. Hooks are opaque to the editor: they receive a
// copy they may modify and return the record to use.
type Hook func(ctx context.Context, record map[string]any) (map[string]any, error)

// Hooks are called at fixed points of the record lifecycle. Nil hooks are
// skipped.
type Hooks struct {
	// PreprocessRecord runs on loaded records and templates before they
	// populate the form.
	PreprocessRecord Hook
	// PostprocessRecord runs on submitted data once empty values are
	// stripped.
	PostprocessRecord Hook
	// PreCreateRecord runs before a new record is created.
	PreCreateRecord Hook
	// PreUpdateRecord runs before an existing record is updated.
	PreUpdateRecord Hook
}

// Options configures an Editor.
type Options struct {
	// Form is the base tree configuration. PID is set per record and the
	// record store extensions are appended to Extensions.
	Form recordform.Config
	// Endpoints build the `$ref` values of remote select options.
	Endpoints recordstore.Endpoints
	// TemplatesType is the record type holding templates.
	TemplatesType string
	Hooks         Hooks
	Logger        *zap.Logger
}

// Editor edits records of a store.
type Editor struct {
	store    recordstore.Store
	schemas  recordstore.SchemaSource
	opts     Options
	log      *zap.Logger
	registry *recordform.HiddenFields

	mu         sync.Mutex
	tree       *recordform.Tree
	recordType string
	pid        string
}

// New returns an Editor reading schemas from schemas and records from store.
func New(store recordstore.Store, schemas recordstore.SchemaSource, opts Options) *Editor {
	if opts.Logger == nil {
		opts.Logger = opts.Form.Logger
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TemplatesType == "" {
		opts.TemplatesType = recordstore.TemplatesType
	}
	registry := opts.Form.Registry
	if registry == nil {
		registry = recordform.NewHiddenFields()
	}
	return &Editor{
		store:    store,
		schemas:  schemas,
		opts:     opts,
		log:      opts.Logger.Named("editor"),
		registry: registry,
	}
}

// Open builds the form of recordType. With a pid the record is loaded and
// edited, otherwise the form creates a new record. The previous form is
// closed and its pending async validations are dropped.
func (e *Editor) Open(ctx context.Context, recordType, pid string) (*recordform.Tree, error) {
	var data map[string]any
	if pid != "" {
		rec, err := e.store.GetRecord(ctx, recordType, pid)
		if err != nil {
			return nil, fmt.Errorf("load %s %s: %w", recordType, pid, err)
		}
		data = rec.Metadata
	}
	return e.open(ctx, recordType, pid, data)
}

// LoadTemplate rebuilds the form of the open record type as a new record
// holding the data of the template pid.
func (e *Editor) LoadTemplate(ctx context.Context, pid string) (*recordform.Tree, error) {
	recordType, _, tree := e.current()
	if tree == nil {
		return nil, ErrNotOpen
	}
	tpl, err := recordstore.GetTemplate(ctx, e.store, e.opts.TemplatesType, pid)
	if err != nil {
		return nil, err
	}
	return e.open(ctx, recordType, "", tpl.Data)
}

// Templates lists the templates of the open record type.
func (e *Editor) Templates(ctx context.Context) ([]recordstore.Template, error) {
	recordType, _, tree := e.current()
	if tree == nil {
		return nil, ErrNotOpen
	}
	return recordstore.Templates(ctx, e.store, e.opts.TemplatesType, recordType)
}

func (e *Editor) open(ctx context.Context, recordType, pid string, data map[string]any) (*recordform.Tree, error) {
	node, err := e.schemas.GetSchemaForm(ctx, recordType)
	if err != nil {
		return nil, fmt.Errorf("schema form %s: %w", recordType, err)
	}
	if data != nil {
		if data, err = e.run(ctx, "preprocess", e.opts.Hooks.PreprocessRecord, data); err != nil {
			return nil, err
		}
	}

	cfg := e.opts.Form
	cfg.PID = pid
	cfg.Logger = e.opts.Logger
	cfg.Registry = e.registry
	cfg.Extensions = append(append([]recordform.Extension(nil), cfg.Extensions...),
		validation.NewBinder(e.store, recordType, pid, e.opts.Logger),
		recordstore.RemoteOptions{Store: e.store, Endpoints: e.opts.Endpoints},
	)

	// the old tree goes first: Build resets the shared registry
	e.mu.Lock()
	if e.tree != nil {
		e.tree.Close()
		e.tree = nil
	}
	e.mu.Unlock()

	tree, err := recordform.Build(node, cfg)
	if err != nil {
		return nil, err
	}
	if err := tree.SetModel(data); err != nil {
		tree.Close()
		return nil, err
	}

	e.mu.Lock()
	e.tree, e.recordType, e.pid = tree, recordType, pid
	e.mu.Unlock()
	e.log.Info("record form open", zap.String("type", recordType), zap.String("pid", pid))
	return tree, nil
}

// Tree returns the open form, or nil.
func (e *Editor) Tree() *recordform.Tree {
	_, _, t := e.current()
	return t
}

// Registry returns the hidden-fields registry shared by the forms of e.
func (e *Editor) Registry() *recordform.HiddenFields { return e.registry }

// Submit validates the open form and saves it. Validation failures are
// returned as recordform.Issues and nothing is saved.
func (e *Editor) Submit(ctx context.Context) (*recordstore.Record, error) {
	recordType, pid, tree := e.current()
	if tree == nil {
		return nil, ErrNotOpen
	}
	if issues := tree.Validate(ctx); len(issues) > 0 {
		e.log.Info("submission rejected", zap.String("type", recordType), zap.Int("issues", len(issues)))
		return nil, issues
	}
	data, _ := rules.RemoveEmptyValues(tree.Model()).(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	data, err := e.run(ctx, "postprocess", e.opts.Hooks.PostprocessRecord, data)
	if err != nil {
		return nil, err
	}

	var rec *recordstore.Record
	if pid == "" {
		if data, err = e.run(ctx, "pre-create", e.opts.Hooks.PreCreateRecord, data); err != nil {
			return nil, err
		}
		rec, err = e.store.Create(ctx, recordType, data)
	} else {
		if data, err = e.run(ctx, "pre-update", e.opts.Hooks.PreUpdateRecord, data); err != nil {
			return nil, err
		}
		rec, err = e.store.Update(ctx, recordType, pid, data)
	}
	if err != nil {
		e.log.Warn("record not saved", zap.String("type", recordType), zap.String("pid", pid), zap.Error(err))
		return nil, fmt.Errorf("save %s: %w", recordType, err)
	}
	e.log.Info("record saved", zap.String("type", recordType), zap.String("pid", rec.ID))
	return rec, nil
}

// Close closes the open form.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree != nil {
		e.tree.Close()
		e.tree = nil
	}
}

func (e *Editor) current() (recordType, pid string, tree *recordform.Tree) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordType, e.pid, e.tree
}

func (e *Editor) run(ctx context.Context, name string, h Hook, data map[string]any) (map[string]any, error) {
	if h == nil {
		return data, nil
	}
	in, _ := rules.Clone(data).(map[string]any)
	out, err := h(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%s hook: %w", name, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Package validation attaches the validators declared in the widget block of
// a schema (`widget.formlyConfig.props.validation.validators`) to the fields
// of a tree.
//
// A Binder is a recordform.Extension: pass it in Config.Extensions and every
// field built, array items included, gets its declared validators.
package validation

import (
	"go.uber.org/zap"

	"github.com/rero/recordform"
	"github.com/rero/recordform/jsonschema"
	"github.com/rero/recordform/recordstore"
)

// Validator names understood by the default Binder.
const (
	ValueAlreadyExists             = "valueAlreadyExists"
	UniqueValueKeysInObject        = "uniqueValueKeysInObject"
	NumberOfSpecificValuesInObject = "numberOfSpecificValuesInObject"
	DatesGreaterThan               = "datesGreaterThan"
)

// Factory binds the validator name declares to f. cfg is the raw
// declaration. Invalid configuration must be reported as a
// *jsonschema.SchemaError.
type Factory func(b *Binder, f *recordform.Field, name string, cfg map[string]any) error

// Binder binds declared validators to fields.
type Binder struct {
	// Store answers the valueAlreadyExists lookups. A nil store makes those
	// lookups fail, which blocks submission.
	Store recordstore.Store
	// RecordType is the type searched when a declaration names none.
	RecordType string
	// PID of the edited record, excluded from uniqueness lookups.
	PID    string
	Logger *zap.Logger

	factories map[string]Factory
}

// NewBinder returns a Binder knowing the builtin validators.
func NewBinder(store recordstore.Store, recordType, pid string, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Binder{
		Store:      store,
		RecordType: recordType,
		PID:        pid,
		Logger:     logger.Named("validation"),
		factories:  map[string]Factory{},
	}
	b.Register(ValueAlreadyExists, bindAlreadyExists)
	b.Register(UniqueValueKeysInObject, bindUniqueKeys)
	b.Register(NumberOfSpecificValuesInObject, bindSpecificValues)
	b.Register(DatesGreaterThan, bindDatesGreaterThan)
	return b
}

// Register adds or replaces the factory of a validator name.
func (b *Binder) Register(name string, fn Factory) {
	b.factories[name] = fn
}

// Prepare implements recordform.Extension.
func (b *Binder) Prepare(f *recordform.Field) error {
	w := f.Schema.Widget
	if w == nil {
		return nil
	}
	for _, decl := range w.Validation.Validators {
		if _, ok := decl.Config["expression"]; ok {
			if err := bindExpression(b, f, decl.Name, decl.Config); err != nil {
				return err
			}
			continue
		}
		fn, ok := b.factories[decl.Name]
		if !ok {
			b.Logger.Warn("unknown validator ignored", zap.String("field", f.ID()), zap.String("validator", decl.Name))
			continue
		}
		if err := fn(b, f, decl.Name, decl.Config); err != nil {
			return err
		}
	}
	return nil
}

// decode reads cfg into out, reporting failures at the declaration.
func decode(f *recordform.Field, name string, cfg map[string]any, out any) error {
	if err := jsonschema.DecodeConfig(cfg, out); err != nil {
		return configError(f, name, "invalid configuration: %v", err)
	}
	return nil
}

func configError(f *recordform.Field, name, format string, args ...any) error {
	return jsonschema.Errorf(f.Pointer()+"/widget/validation/validators/"+name, format, args...)
}

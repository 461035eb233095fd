package validation

import (
	"github.com/rero/recordform"
	"github.com/rero/recordform/i18n"
	"github.com/rero/recordform/rules"
)

type expressionConfig struct {
	Expression *rules.Condition    `json:"expression"`
	Message    string              `json:"message"`
	UpdateOn   recordform.UpdateOn `json:"updateOn"`
}

// bindExpression attaches a validator passing when its condition holds for
// the field value. Conditions are data, never code.
func bindExpression(b *Binder, f *recordform.Field, name string, cfg map[string]any) error {
	var c expressionConfig
	if err := decode(f, name, cfg, &c); err != nil {
		return err
	}
	if c.Expression == nil {
		return configError(f, name, "expression is required")
	}
	if err := c.Expression.Check(); err != nil {
		return configError(f, name, "invalid expression: %v", err)
	}
	msg := c.Message
	if msg == "" {
		msg = i18n.MsgExpressionInvalid
	}
	cond := *c.Expression
	f.Validators = append(f.Validators, &recordform.Validator{
		Name:     name,
		Code:     recordform.CodeBusinessRule,
		Message:  msg,
		UpdateOn: c.UpdateOn,
		Check: func(f *recordform.Field) bool {
			v := f.Value()
			if rules.IsEmpty(rules.RemoveEmptyValues(v)) {
				return true
			}
			return cond.Eval(v)
		},
	})
	return nil
}

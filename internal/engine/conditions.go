package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Visibility rules let a field reference earlier answers by field key,
// e.g. `employment == "other"`. A field whose rule evaluates to false is
// hidden: it is exempt from the required check and any supplied answer
// for it is still validated normally.

// FieldVisible evaluates a field's visibility rule against the answer
// environment. Fields without a rule are always visible. An expression
// that fails to compile or does not yield a boolean is treated as an
// invalid field config.
func FieldVisible(field *Field, env map[string]interface{}) (bool, error) {
	if field.VisibleIf == "" {
		return true, nil
	}

	program, err := expr.Compile(field.VisibleIf, expr.Env(env), expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return false, &InvalidFieldConfigError{
			FieldID:   field.ID,
			FieldType: field.Type,
			Reason:    fmt.Sprintf("visibility rule: %v", err),
		}
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, &InvalidFieldConfigError{
			FieldID:   field.ID,
			FieldType: field.Type,
			Reason:    fmt.Sprintf("visibility rule: %v", err),
		}
	}

	visible, ok := out.(bool)
	if !ok {
		return false, &InvalidFieldConfigError{
			FieldID:   field.ID,
			FieldType: field.Type,
			Reason:    "visibility rule must evaluate to a boolean",
		}
	}
	return visible, nil
}

// answerEnv builds the expression environment from a payload, keyed by
// field key. Fields without a key cannot be referenced.
func answerEnv(s *Schema, payload Payload) map[string]interface{} {
	env := make(map[string]interface{})
	for _, answer := range payload {
		field, ok := s.FieldByID(answer.FieldID)
		if !ok || field.Key == "" {
			continue
		}
		env[field.Key] = answer.Value.Raw()
	}
	return env
}

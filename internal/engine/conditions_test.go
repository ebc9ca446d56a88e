package engine

import (
	"errors"
	"testing"

	"github.com/formworks/formworks-server/internal/models"
)

func TestFieldVisibleNoRule(t *testing.T) {
	field := engineField(models.FieldTypeText)

	visible, err := FieldVisible(field, nil)
	if err != nil {
		t.Fatalf("FieldVisible: %v", err)
	}
	if !visible {
		t.Error("field without a rule must be visible")
	}
}

func TestFieldVisibleRule(t *testing.T) {
	field := engineField(models.FieldTypeText, func(f *Field) {
		f.VisibleIf = `employment == "other" && age >= 18`
	})

	cases := []struct {
		env  map[string]interface{}
		want bool
	}{
		{map[string]interface{}{"employment": "other", "age": 30.0}, true},
		{map[string]interface{}{"employment": "employed", "age": 30.0}, false},
		{map[string]interface{}{"employment": "other", "age": 12.0}, false},
	}

	for _, tc := range cases {
		visible, err := FieldVisible(field, tc.env)
		if err != nil {
			t.Fatalf("env %v: %v", tc.env, err)
		}
		if visible != tc.want {
			t.Errorf("env %v: visible = %v, want %v", tc.env, visible, tc.want)
		}
	}
}

func TestFieldVisibleUndefinedVariable(t *testing.T) {
	field := engineField(models.FieldTypeText, func(f *Field) {
		f.VisibleIf = `missing == "x"`
	})

	visible, err := FieldVisible(field, map[string]interface{}{})
	if err != nil {
		t.Fatalf("FieldVisible: %v", err)
	}
	if visible {
		t.Error("comparison against an unanswered field should be false")
	}
}

func TestFieldVisibleBadRule(t *testing.T) {
	field := engineField(models.FieldTypeText, func(f *Field) {
		f.VisibleIf = `this is not an expression (((`
	})

	var cfgErr *InvalidFieldConfigError
	if _, err := FieldVisible(field, map[string]interface{}{}); !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want InvalidFieldConfigError", err)
	}
}

func TestAnswerEnvKeyedByFieldKey(t *testing.T) {
	keyed := testField(models.FieldTypeNumber, func(f *models.FormField) { f.Key = "age" })
	unkeyed := testField(models.FieldTypeText)
	schema := testSchema(t, testForm(keyed, unkeyed))

	payload := Payload{
		{FieldID: keyed.ID, Value: NumberValue(21)},
		{FieldID: unkeyed.ID, Value: TextValue("ignored")},
	}

	env := answerEnv(schema, payload)
	if len(env) != 1 {
		t.Fatalf("len(env) = %d, want 1", len(env))
	}
	if env["age"] != 21.0 {
		t.Errorf("env[age] = %v, want 21", env["age"])
	}
}

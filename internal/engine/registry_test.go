package engine

import (
	"errors"
	"testing"

	"github.com/formworks/formworks-server/internal/models"
)

func TestKnownFieldType(t *testing.T) {
	if !KnownFieldType(models.FieldTypeTable) {
		t.Error("table should be known")
	}
	if KnownFieldType("hologram") {
		t.Error("hologram should not be known")
	}
}

func TestConfigSchemaFor(t *testing.T) {
	shape, err := ConfigSchemaFor(models.FieldTypeTable)
	if err != nil {
		t.Fatalf("ConfigSchemaFor(table): %v", err)
	}
	if shape == nil || !shape.Required {
		t.Error("table config should be required")
	}

	shape, err = ConfigSchemaFor(models.FieldTypeSection)
	if err != nil {
		t.Fatalf("ConfigSchemaFor(section): %v", err)
	}
	if shape == nil || shape.Required {
		t.Error("section config should be optional")
	}

	shape, err = ConfigSchemaFor(models.FieldTypeText)
	if err != nil {
		t.Fatalf("ConfigSchemaFor(text): %v", err)
	}
	if shape != nil {
		t.Error("text carries no variant config")
	}

	var typeErr *UnknownFieldTypeError
	if _, err := ConfigSchemaFor("hologram"); !errors.As(err, &typeErr) {
		t.Errorf("err = %v, want UnknownFieldTypeError", err)
	}
}

func TestValueShapeFor(t *testing.T) {
	cases := []struct {
		ft   models.FieldType
		want string
	}{
		{models.FieldTypeText, ShapeText},
		{models.FieldTypeNumber, ShapeNumber},
		{models.FieldTypeCheckbox, ShapeBoolean},
		{models.FieldTypeDate, ShapeDate},
		{models.FieldTypeTable, ShapeJSON},
		{models.FieldTypeSignature, ShapeFile},
		{models.FieldTypeSection, ShapeNone},
		{"hologram", ""},
	}

	for _, tc := range cases {
		if got := ValueShapeFor(tc.ft); got != tc.want {
			t.Errorf("ValueShapeFor(%s) = %q, want %q", tc.ft, got, tc.want)
		}
	}
}

package engine

import (
	"github.com/formworks/formworks-server/internal/models"
)

// Value shapes a submission response can carry
const (
	ShapeText    = "text"
	ShapeNumber  = "number"
	ShapeBoolean = "boolean"
	ShapeDate    = "timestamp"
	ShapeJSON    = "structured-json"
	ShapeFile    = "fileReference"
	ShapeNone    = "none"
)

// ConfigShape describes the variant-specific configuration a field type
// requires at definition time
type ConfigShape struct {
	Name     string
	Required bool
}

// fieldTypes is the closed set of supported field types; there is no
// dynamic registration
var fieldTypes = map[models.FieldType]struct {
	config     *ConfigShape
	valueShape string
}{
	models.FieldTypeText:      {nil, ShapeText},
	models.FieldTypeTextarea:  {nil, ShapeText},
	models.FieldTypeNumber:    {nil, ShapeNumber},
	models.FieldTypeEmail:     {nil, ShapeText},
	models.FieldTypeURL:       {nil, ShapeText},
	models.FieldTypePhone:     {nil, ShapeText},
	models.FieldTypeSelect:    {nil, ShapeText},
	models.FieldTypeRadio:     {nil, ShapeText},
	models.FieldTypeCheckbox:  {nil, ShapeBoolean},
	models.FieldTypeFile:      {nil, ShapeFile},
	models.FieldTypeDate:      {nil, ShapeDate},
	models.FieldTypeTime:      {nil, ShapeText},
	models.FieldTypeTable:     {&ConfigShape{Name: "table", Required: true}, ShapeJSON},
	models.FieldTypeSignature: {&ConfigShape{Name: "signature", Required: true}, ShapeFile},
	models.FieldTypeSection:   {&ConfigShape{Name: "section", Required: false}, ShapeNone},
}

// KnownFieldType reports whether t is in the supported set
func KnownFieldType(t models.FieldType) bool {
	_, ok := fieldTypes[t]
	return ok
}

// ConfigSchemaFor returns the config shape required by a field type, or
// nil if the type carries no variant config. Unknown types fail with
// UnknownFieldTypeError.
func ConfigSchemaFor(t models.FieldType) (*ConfigShape, error) {
	entry, ok := fieldTypes[t]
	if !ok {
		return nil, &UnknownFieldTypeError{FieldType: t}
	}
	return entry.config, nil
}

// ValueShapeFor returns the value slot a field type expects
func ValueShapeFor(t models.FieldType) string {
	entry, ok := fieldTypes[t]
	if !ok {
		return ""
	}
	return entry.valueShape
}

package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// TableColumn is one column of a table field
type TableColumn struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// TableConfig configures a table field
type TableConfig struct {
	Columns []TableColumn `json:"columns"`
	MinRows *int          `json:"minRows,omitempty"`
	MaxRows *int          `json:"maxRows,omitempty"`
}

// SignatureConfig configures a signature field
type SignatureConfig struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	PenColor        string `json:"penColor"`
	BackgroundColor string `json:"backgroundColor"`
}

// SectionConfig configures a section field. Sections carry no submitted
// value; the config is purely presentational.
type SectionConfig struct {
	Collapsible     bool `json:"collapsible"`
	DefaultExpanded bool `json:"defaultExpanded"`
}

// Field is a form field with its variant config eagerly decoded
type Field struct {
	ID        uuid.UUID
	Type      models.FieldType
	Label     string
	Key       string
	Required  bool
	Options   []string
	Order     int
	VisibleIf string

	Table     *TableConfig
	Signature *SignatureConfig
	Section   *SectionConfig
}

// Schema is a validated form definition. Construction fails if any
// field's type/config pairing is inconsistent, so downstream code never
// sees a half-formed field.
type Schema struct {
	form   *models.Form
	fields []*Field
	byID   map[uuid.UUID]*Field
}

// NewSchema builds a Schema from a persisted form, converting each loose
// JSON field config into its typed variant and enforcing the definition
// invariants.
func NewSchema(form *models.Form) (*Schema, error) {
	s := &Schema{
		form: form,
		byID: make(map[uuid.UUID]*Field, len(form.Fields)),
	}

	for _, ff := range form.Fields {
		f, err := buildField(ff)
		if err != nil {
			return nil, err
		}
		if _, dup := s.byID[f.ID]; dup {
			return nil, &InvalidFieldConfigError{
				FieldID:   f.ID,
				FieldType: f.Type,
				Reason:    "duplicate field id",
			}
		}
		s.fields = append(s.fields, f)
		s.byID[f.ID] = f
	}

	sort.SliceStable(s.fields, func(i, j int) bool {
		return s.fields[i].Order < s.fields[j].Order
	})

	return s, nil
}

// FormID returns the form's id
func (s *Schema) FormID() uuid.UUID { return s.form.ID }

// TenantID returns the owning tenant's id
func (s *Schema) TenantID() uuid.UUID { return s.form.TenantID }

// RequiresApproval reports whether submissions start in pending status
func (s *Schema) RequiresApproval() bool { return s.form.RequiresApproval }

// AllowMultipleSubmissions reports whether one user may submit repeatedly
func (s *Schema) AllowMultipleSubmissions() bool { return s.form.AllowMultipleSubmissions }

// IsAcceptingSubmissions reports whether the form is published and active
func (s *Schema) IsAcceptingSubmissions() bool {
	return s.form.IsPublished && s.form.IsActive
}

// Fields returns the fields in display order
func (s *Schema) Fields() []*Field { return s.fields }

// FieldByID looks up a field by id
func (s *Schema) FieldByID(id uuid.UUID) (*Field, bool) {
	f, ok := s.byID[id]
	return f, ok
}

func buildField(ff *models.FormField) (*Field, error) {
	if !KnownFieldType(ff.FieldType) {
		return nil, &UnknownFieldTypeError{FieldType: ff.FieldType}
	}

	// Sections never produce a response, so a required section could
	// never be satisfied
	if ff.FieldType == models.FieldTypeSection && ff.Required {
		return nil, &InvalidFieldConfigError{
			FieldID:   ff.ID,
			FieldType: ff.FieldType,
			Reason:    "section fields cannot be required",
		}
	}

	f := &Field{
		ID:        ff.ID,
		Type:      ff.FieldType,
		Label:     ff.Label,
		Key:       ff.Key,
		Required:  ff.Required,
		Options:   ff.Options,
		Order:     ff.Order,
		VisibleIf: ff.VisibleIf,
	}

	shape, err := ConfigSchemaFor(ff.FieldType)
	if err != nil {
		return nil, err
	}
	if shape == nil {
		return f, nil
	}

	if len(ff.Config) == 0 {
		if shape.Required {
			return nil, &InvalidFieldConfigError{
				FieldID:   ff.ID,
				FieldType: ff.FieldType,
				Reason:    "missing " + shape.Name + " configuration",
			}
		}
		if ff.FieldType == models.FieldTypeSection {
			f.Section = &SectionConfig{Collapsible: true, DefaultExpanded: true}
		}
		return f, nil
	}

	switch ff.FieldType {
	case models.FieldTypeTable:
		cfg, err := decodeTableConfig(ff)
		if err != nil {
			return nil, err
		}
		f.Table = cfg

	case models.FieldTypeSignature:
		cfg, err := decodeSignatureConfig(ff)
		if err != nil {
			return nil, err
		}
		f.Signature = cfg

	case models.FieldTypeSection:
		cfg := &SectionConfig{}
		if err := decodeConfig(ff.Config, cfg); err != nil {
			return nil, configError(ff, err.Error())
		}
		f.Section = cfg
	}

	return f, nil
}

func decodeTableConfig(ff *models.FormField) (*TableConfig, error) {
	cfg := &TableConfig{}
	if err := decodeConfig(ff.Config, cfg); err != nil {
		return nil, configError(ff, err.Error())
	}

	if len(cfg.Columns) == 0 {
		return nil, configError(ff, "table requires at least one column")
	}
	for i, col := range cfg.Columns {
		if col.ID == "" {
			return nil, configError(ff, fmt.Sprintf("column %d has no id", i))
		}
	}
	if cfg.MinRows != nil && *cfg.MinRows < 0 {
		return nil, configError(ff, "minRows must be >= 0")
	}
	if cfg.MaxRows != nil && *cfg.MaxRows < 0 {
		return nil, configError(ff, "maxRows must be >= 0")
	}
	if cfg.MinRows != nil && cfg.MaxRows != nil && *cfg.MaxRows < *cfg.MinRows {
		return nil, configError(ff, "maxRows must be >= minRows")
	}

	return cfg, nil
}

func decodeSignatureConfig(ff *models.FormField) (*SignatureConfig, error) {
	cfg := &SignatureConfig{Width: 400, Height: 200, PenColor: "#000000", BackgroundColor: "#ffffff"}
	if err := decodeConfig(ff.Config, cfg); err != nil {
		return nil, configError(ff, err.Error())
	}

	if cfg.Width < 200 || cfg.Width > 800 {
		return nil, configError(ff, "width must be between 200 and 800")
	}
	if cfg.Height < 100 || cfg.Height > 400 {
		return nil, configError(ff, "height must be between 100 and 400")
	}
	if !hexColorPattern.MatchString(cfg.PenColor) {
		return nil, configError(ff, "penColor must be a 6-digit hex color")
	}
	if !hexColorPattern.MatchString(cfg.BackgroundColor) {
		return nil, configError(ff, "backgroundColor must be a 6-digit hex color")
	}

	return cfg, nil
}

// decodeConfig converts the loose JSON config into its typed variant
func decodeConfig(src models.Variables, dst interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func configError(ff *models.FormField, reason string) error {
	return &InvalidFieldConfigError{
		FieldID:   ff.ID,
		FieldType: ff.FieldType,
		Reason:    reason,
	}
}

package engine

import (
	"encoding/json"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/formworks/formworks-server/internal/models"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{2,19}$`)

// Accepted layouts for date values submitted as text
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Accepted layouts for time-of-day values
var timeLayouts = []string{"15:04", "15:04:05"}

// ValidateField checks a submitted value against a field definition and
// produces the normalized value to persist. It is pure: validating the
// same value twice yields the same result. maxSignatureBytes of 0 means
// the default cap.
func ValidateField(field *Field, value Value, maxSignatureBytes int64) (*Normalized, error) {
	switch field.Type {
	case models.FieldTypeSection:
		// Pure grouping construct, nothing to validate
		return &Normalized{Shape: ShapeNone}, nil

	case models.FieldTypeTable:
		return validateTable(field, value)

	case models.FieldTypeSignature:
		return validateSignature(field, value, maxSignatureBytes)

	case models.FieldTypeNumber:
		return validateNumber(field, value)

	case models.FieldTypeCheckbox:
		return validateCheckbox(field, value)

	case models.FieldTypeSelect, models.FieldTypeRadio:
		return validateChoice(field, value)

	case models.FieldTypeDate:
		return validateDate(field, value)

	case models.FieldTypeTime:
		return validateTime(field, value)

	case models.FieldTypeEmail:
		return validateEmail(field, value)

	case models.FieldTypeURL:
		return validateURL(field, value)

	case models.FieldTypePhone:
		return validatePhone(field, value)

	case models.FieldTypeFile:
		if value.Kind != KindText && value.Kind != KindFile {
			return nil, mismatch(field)
		}
		ref := value.Text
		return &Normalized{Shape: ShapeFile, FileRef: &ref}, nil

	case models.FieldTypeText, models.FieldTypeTextarea:
		if value.Kind != KindText {
			return nil, mismatch(field)
		}
		text := value.Text
		return &Normalized{Shape: ShapeText, Text: &text}, nil
	}

	return nil, &UnknownFieldTypeError{FieldType: field.Type}
}

func validateTable(field *Field, value Value) (*Normalized, error) {
	if value.Kind != KindJSON {
		return nil, &TableStructureInvalidError{FieldID: field.ID, Reason: "expected an array of rows"}
	}
	rows, ok := value.JSON.([]interface{})
	if !ok {
		return nil, &TableStructureInvalidError{FieldID: field.ID, Reason: "expected an array of rows"}
	}

	cfg := field.Table
	count := len(rows)
	if cfg.MinRows != nil && count < *cfg.MinRows {
		return nil, &RowCountOutOfRangeError{FieldID: field.ID, MinRows: cfg.MinRows, MaxRows: cfg.MaxRows, Count: count}
	}
	if cfg.MaxRows != nil && count > *cfg.MaxRows {
		return nil, &RowCountOutOfRangeError{FieldID: field.ID, MinRows: cfg.MinRows, MaxRows: cfg.MaxRows, Count: count}
	}

	for i, raw := range rows {
		row, ok := raw.(map[string]interface{})
		if !ok {
			return nil, &TableStructureInvalidError{
				FieldID: field.ID,
				Reason:  "row " + strconv.Itoa(i+1) + " is not an object",
			}
		}
		for _, col := range cfg.Columns {
			if !col.Required {
				continue
			}
			if blankCell(row[col.ID]) {
				name := col.Label
				if name == "" {
					name = col.ID
				}
				return nil, &RequiredColumnMissingError{FieldID: field.ID, Row: i + 1, Column: name}
			}
		}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, &TableStructureInvalidError{FieldID: field.ID, Reason: err.Error()}
	}
	return &Normalized{Shape: ShapeJSON, JSON: data}, nil
}

func blankCell(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func validateSignature(field *Field, value Value, maxSize int64) (*Normalized, error) {
	if value.Kind != KindText {
		return nil, mismatch(field)
	}
	data, err := DecodeSignature(value.Text, maxSize)
	if err != nil {
		return nil, err
	}
	// The caller stores the bytes and fills in the file reference; the
	// original base64 is discarded here and never persisted
	return &Normalized{Shape: ShapeFile, SignatureBytes: data}, nil
}

func validateNumber(field *Field, value Value) (*Normalized, error) {
	switch value.Kind {
	case KindNumber:
		n := value.Number
		return &Normalized{Shape: ShapeNumber, Number: &n}, nil
	case KindText:
		n, err := strconv.ParseFloat(strings.TrimSpace(value.Text), 64)
		if err != nil {
			return nil, mismatch(field)
		}
		return &Normalized{Shape: ShapeNumber, Number: &n}, nil
	}
	return nil, mismatch(field)
}

func validateCheckbox(field *Field, value Value) (*Normalized, error) {
	// With options configured, a checkbox is a multi-select and stores
	// the selected subset; without options it is a single yes/no
	if len(field.Options) > 0 {
		if value.Kind != KindJSON {
			return nil, mismatch(field)
		}
		items, ok := value.JSON.([]interface{})
		if !ok {
			return nil, mismatch(field)
		}
		selected := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok || !containsOption(field.Options, s) {
				return nil, mismatch(field)
			}
			selected = append(selected, s)
		}
		data, err := json.Marshal(selected)
		if err != nil {
			return nil, mismatch(field)
		}
		return &Normalized{Shape: ShapeJSON, JSON: data}, nil
	}

	if value.Kind != KindBool {
		return nil, mismatch(field)
	}
	b := value.Bool
	return &Normalized{Shape: ShapeBoolean, Bool: &b}, nil
}

func validateChoice(field *Field, value Value) (*Normalized, error) {
	if value.Kind != KindText {
		return nil, mismatch(field)
	}
	if len(field.Options) > 0 && !containsOption(field.Options, value.Text) {
		return nil, mismatch(field)
	}
	text := value.Text
	return &Normalized{Shape: ShapeText, Text: &text}, nil
}

func validateDate(field *Field, value Value) (*Normalized, error) {
	switch value.Kind {
	case KindTime:
		t := value.Time
		return &Normalized{Shape: ShapeDate, Time: &t}, nil
	case KindText:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(value.Text)); err == nil {
				return &Normalized{Shape: ShapeDate, Time: &t}, nil
			}
		}
	}
	return nil, mismatch(field)
}

func validateTime(field *Field, value Value) (*Normalized, error) {
	if value.Kind != KindText {
		return nil, mismatch(field)
	}
	text := strings.TrimSpace(value.Text)
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, text); err == nil {
			return &Normalized{Shape: ShapeText, Text: &text}, nil
		}
	}
	return nil, mismatch(field)
}

func validateEmail(field *Field, value Value) (*Normalized, error) {
	if value.Kind != KindText {
		return nil, mismatch(field)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(value.Text))
	if err != nil {
		return nil, mismatch(field)
	}
	return &Normalized{Shape: ShapeText, Text: &addr.Address}, nil
}

func validateURL(field *Field, value Value) (*Normalized, error) {
	if value.Kind != KindText {
		return nil, mismatch(field)
	}
	text := strings.TrimSpace(value.Text)
	u, err := url.Parse(text)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, mismatch(field)
	}
	return &Normalized{Shape: ShapeText, Text: &text}, nil
}

func validatePhone(field *Field, value Value) (*Normalized, error) {
	if value.Kind != KindText {
		return nil, mismatch(field)
	}
	text := strings.TrimSpace(value.Text)
	if !phonePattern.MatchString(text) {
		return nil, mismatch(field)
	}
	return &Normalized{Shape: ShapeText, Text: &text}, nil
}

func containsOption(options []string, s string) bool {
	for _, opt := range options {
		if opt == s {
			return true
		}
	}
	return false
}

func mismatch(field *Field) error {
	return &ValueTypeMismatchError{FieldID: field.ID, Expected: ValueShapeFor(field.Type)}
}

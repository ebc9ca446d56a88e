package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

func engineField(ft models.FieldType, mutate ...func(*Field)) *Field {
	f := &Field{
		ID:    uuid.New(),
		Type:  ft,
		Label: string(ft) + " field",
	}
	for _, m := range mutate {
		m(f)
	}
	return f
}

func tableField(minRows, maxRows *int) *Field {
	return engineField(models.FieldTypeTable, func(f *Field) {
		f.Table = &TableConfig{
			Columns: []TableColumn{
				{ID: "item", Label: "Item", Required: true},
				{ID: "qty", Label: "Quantity"},
			},
			MinRows: minRows,
			MaxRows: maxRows,
		}
	})
}

func tableRows(n int) Value {
	rows := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]interface{}{"item": "widget", "qty": float64(i)})
	}
	return JSONValue(rows)
}

func TestValidateTableRowCount(t *testing.T) {
	field := tableField(intPtr(2), intPtr(5))

	cases := []struct {
		rows int
		ok   bool
	}{
		{1, false},
		{2, true},
		{5, true},
		{6, false},
	}

	for _, tc := range cases {
		_, err := ValidateField(field, tableRows(tc.rows), 0)
		if tc.ok && err != nil {
			t.Errorf("%d rows: unexpected error %v", tc.rows, err)
		}
		if !tc.ok {
			var rangeErr *RowCountOutOfRangeError
			if !errors.As(err, &rangeErr) {
				t.Errorf("%d rows: err = %v, want RowCountOutOfRangeError", tc.rows, err)
				continue
			}
			if rangeErr.Count != tc.rows {
				t.Errorf("Count = %d, want %d", rangeErr.Count, tc.rows)
			}
		}
	}
}

func TestValidateTableRequiredColumn(t *testing.T) {
	field := tableField(nil, nil)

	rows := JSONValue([]interface{}{
		map[string]interface{}{"item": "widget"},
		map[string]interface{}{"item": "   "},
	})

	var colErr *RequiredColumnMissingError
	if _, err := ValidateField(field, rows, 0); !errors.As(err, &colErr) {
		t.Fatalf("err = %v, want RequiredColumnMissingError", err)
	}
	if colErr.Row != 2 || colErr.Column != "Item" {
		t.Errorf("offender = row %d column %q, want row 2 column Item", colErr.Row, colErr.Column)
	}
}

func TestValidateTableStructure(t *testing.T) {
	field := tableField(nil, nil)

	for _, v := range []Value{
		TextValue("not rows"),
		JSONValue(map[string]interface{}{"item": "widget"}),
		JSONValue([]interface{}{"not an object"}),
	} {
		var structErr *TableStructureInvalidError
		if _, err := ValidateField(field, v, 0); !errors.As(err, &structErr) {
			t.Errorf("value %+v: err = %v, want TableStructureInvalidError", v, err)
		}
	}
}

func TestValidateNumber(t *testing.T) {
	field := engineField(models.FieldTypeNumber)

	normalized, err := ValidateField(field, NumberValue(42.5), 0)
	if err != nil {
		t.Fatalf("number value: %v", err)
	}
	if normalized.Number == nil || *normalized.Number != 42.5 {
		t.Errorf("Number = %v, want 42.5", normalized.Number)
	}

	normalized, err = ValidateField(field, TextValue(" 17 "), 0)
	if err != nil {
		t.Fatalf("numeric text: %v", err)
	}
	if normalized.Number == nil || *normalized.Number != 17 {
		t.Errorf("Number = %v, want 17", normalized.Number)
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, TextValue("not a number"), 0); !errors.As(err, &mismatchErr) {
		t.Fatalf("err = %v, want ValueTypeMismatchError", err)
	}
	if mismatchErr.Expected != ShapeNumber {
		t.Errorf("Expected = %q, want %q", mismatchErr.Expected, ShapeNumber)
	}
}

func TestValidateCheckboxBoolean(t *testing.T) {
	field := engineField(models.FieldTypeCheckbox)

	normalized, err := ValidateField(field, BoolValue(true), 0)
	if err != nil {
		t.Fatalf("bool value: %v", err)
	}
	if normalized.Bool == nil || !*normalized.Bool {
		t.Error("Bool should be true")
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, TextValue("yes"), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("err = %v, want ValueTypeMismatchError", err)
	}
}

func TestValidateCheckboxMultiSelect(t *testing.T) {
	field := engineField(models.FieldTypeCheckbox, func(f *Field) {
		f.Options = []string{"red", "green", "blue"}
	})

	normalized, err := ValidateField(field, JSONValue([]interface{}{"red", "blue"}), 0)
	if err != nil {
		t.Fatalf("valid subset: %v", err)
	}
	if string(normalized.JSON) != `["red","blue"]` {
		t.Errorf("JSON = %s, want [\"red\",\"blue\"]", normalized.JSON)
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, JSONValue([]interface{}{"red", "purple"}), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("unknown option: err = %v, want ValueTypeMismatchError", err)
	}
	if _, err := ValidateField(field, BoolValue(true), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("bool with options: err = %v, want ValueTypeMismatchError", err)
	}
}

func TestValidateChoice(t *testing.T) {
	field := engineField(models.FieldTypeSelect, func(f *Field) {
		f.Options = []string{"small", "medium", "large"}
	})

	normalized, err := ValidateField(field, TextValue("medium"), 0)
	if err != nil {
		t.Fatalf("valid option: %v", err)
	}
	if normalized.Text == nil || *normalized.Text != "medium" {
		t.Errorf("Text = %v, want medium", normalized.Text)
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, TextValue("gigantic"), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("err = %v, want ValueTypeMismatchError", err)
	}
}

func TestValidateDate(t *testing.T) {
	field := engineField(models.FieldTypeDate)

	for _, text := range []string{"2026-03-15", "2026-03-15T10:30:00Z"} {
		normalized, err := ValidateField(field, TextValue(text), 0)
		if err != nil {
			t.Fatalf("%q: %v", text, err)
		}
		if normalized.Time == nil {
			t.Fatalf("%q: Time not set", text)
		}
	}

	when := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	normalized, err := ValidateField(field, TimeValue(when), 0)
	if err != nil {
		t.Fatalf("time value: %v", err)
	}
	if !normalized.Time.Equal(when) {
		t.Errorf("Time = %v, want %v", normalized.Time, when)
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, TextValue("15/03/2026"), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("err = %v, want ValueTypeMismatchError", err)
	}
}

func TestValidateTime(t *testing.T) {
	field := engineField(models.FieldTypeTime)

	for _, text := range []string{"09:30", "23:59:59"} {
		if _, err := ValidateField(field, TextValue(text), 0); err != nil {
			t.Errorf("%q: %v", text, err)
		}
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, TextValue("25:00"), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("err = %v, want ValueTypeMismatchError", err)
	}
}

func TestValidateEmail(t *testing.T) {
	field := engineField(models.FieldTypeEmail)

	normalized, err := ValidateField(field, TextValue("user@example.com"), 0)
	if err != nil {
		t.Fatalf("valid email: %v", err)
	}
	if *normalized.Text != "user@example.com" {
		t.Errorf("Text = %q", *normalized.Text)
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, TextValue("not-an-email"), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("err = %v, want ValueTypeMismatchError", err)
	}
}

func TestValidateURL(t *testing.T) {
	field := engineField(models.FieldTypeURL)

	if _, err := ValidateField(field, TextValue("https://example.com/path"), 0); err != nil {
		t.Fatalf("valid url: %v", err)
	}

	var mismatchErr *ValueTypeMismatchError
	for _, text := range []string{"example.com", "/relative/path"} {
		if _, err := ValidateField(field, TextValue(text), 0); !errors.As(err, &mismatchErr) {
			t.Errorf("%q: err = %v, want ValueTypeMismatchError", text, err)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	field := engineField(models.FieldTypePhone)

	for _, text := range []string{"+1 (555) 123-4567", "5551234"} {
		if _, err := ValidateField(field, TextValue(text), 0); err != nil {
			t.Errorf("%q: %v", text, err)
		}
	}

	var mismatchErr *ValueTypeMismatchError
	for _, text := range []string{"call me", "++123"} {
		if _, err := ValidateField(field, TextValue(text), 0); !errors.As(err, &mismatchErr) {
			t.Errorf("%q: err = %v, want ValueTypeMismatchError", text, err)
		}
	}
}

func TestValidateFile(t *testing.T) {
	field := engineField(models.FieldTypeFile)

	normalized, err := ValidateField(field, FileValue("uploads/report.pdf"), 0)
	if err != nil {
		t.Fatalf("file value: %v", err)
	}
	if normalized.FileRef == nil || *normalized.FileRef != "uploads/report.pdf" {
		t.Errorf("FileRef = %v", normalized.FileRef)
	}

	var mismatchErr *ValueTypeMismatchError
	if _, err := ValidateField(field, NumberValue(1), 0); !errors.As(err, &mismatchErr) {
		t.Errorf("err = %v, want ValueTypeMismatchError", err)
	}
}

func TestValidateSection(t *testing.T) {
	field := engineField(models.FieldTypeSection)

	normalized, err := ValidateField(field, TextValue("anything"), 0)
	if err != nil {
		t.Fatalf("section: %v", err)
	}
	if normalized.Shape != ShapeNone {
		t.Errorf("Shape = %q, want %q", normalized.Shape, ShapeNone)
	}
}

func TestValidateText(t *testing.T) {
	for _, ft := range []models.FieldType{models.FieldTypeText, models.FieldTypeTextarea} {
		field := engineField(ft)

		normalized, err := ValidateField(field, TextValue("hello"), 0)
		if err != nil {
			t.Fatalf("%s: %v", ft, err)
		}
		if *normalized.Text != "hello" {
			t.Errorf("%s: Text = %q", ft, *normalized.Text)
		}

		var mismatchErr *ValueTypeMismatchError
		if _, err := ValidateField(field, NumberValue(3), 0); !errors.As(err, &mismatchErr) {
			t.Errorf("%s: err = %v, want ValueTypeMismatchError", ft, err)
		}
	}
}

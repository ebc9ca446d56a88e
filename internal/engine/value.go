package engine

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ValueKind tags the shape of a submitted value
type ValueKind int

// Value kinds
const (
	KindAbsent ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindTime
	KindJSON
	KindFile
)

// Value is the tagged union crossing the engine boundary. The API layer
// builds one per answer from the loosely-typed request body; the engine
// never carries untyped data past validation.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
	Time   time.Time
	JSON   interface{}
}

// TextValue creates a text value
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// NumberValue creates a number value
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// BoolValue creates a boolean value
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// TimeValue creates a timestamp value
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// JSONValue creates a structured value
func JSONValue(v interface{}) Value { return Value{Kind: KindJSON, JSON: v} }

// FileValue creates a file locator value
func FileValue(locator string) Value { return Value{Kind: KindFile, Text: locator} }

// FromJSON maps a decoded JSON value onto the matching kind
func FromJSON(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Value{Kind: KindAbsent}
	case string:
		return TextValue(x)
	case float64:
		return NumberValue(x)
	case bool:
		return BoolValue(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return TextValue(x.String())
		}
		return NumberValue(f)
	default:
		return JSONValue(v)
	}
}

// Raw returns the untyped value for visibility rule evaluation
func (v Value) Raw() interface{} {
	switch v.Kind {
	case KindText, KindFile:
		return v.Text
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	case KindTime:
		return v.Time
	case KindJSON:
		return v.JSON
	}
	return nil
}

// Answer pairs a field id with its submitted value
type Answer struct {
	FieldID uuid.UUID
	Value   Value
}

// Payload is the ordered answer set of one submission attempt
type Payload []Answer

// Normalized is the validated, typed result for a single field. Exactly
// one slot is set, matching the field's value shape.
type Normalized struct {
	Shape string

	Text   *string
	Number *float64
	Bool   *bool
	Time   *time.Time
	JSON   json.RawMessage

	// SignatureBytes holds the canonical PNG for signature fields; the
	// workflow stores it and replaces it with a file locator
	SignatureBytes []byte
	FileRef        *string
}

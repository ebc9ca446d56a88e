package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

// Engine errors are typed so the API layer can render an actionable
// message from the carried context without inspecting error strings.
// They are distinct from storage errors; a constraint violation on
// insert surfaces as storage.ErrDuplicateKey, never as one of these.

// InvalidFieldConfigError reports a field whose config does not match its type
type InvalidFieldConfigError struct {
	FieldID   uuid.UUID
	FieldType models.FieldType
	Reason    string
}

func (e *InvalidFieldConfigError) Error() string {
	return fmt.Sprintf("invalid %s field config for field %s: %s", e.FieldType, e.FieldID, e.Reason)
}

// UnknownFieldTypeError reports a field type outside the closed set
type UnknownFieldTypeError struct {
	FieldType models.FieldType
}

func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("unknown field type %q", e.FieldType)
}

// RequiredFieldMissingError reports a required field with no response
type RequiredFieldMissingError struct {
	FieldID uuid.UUID
	Label   string
}

func (e *RequiredFieldMissingError) Error() string {
	return fmt.Sprintf("required field %q (%s) is missing", e.Label, e.FieldID)
}

// UnknownFieldError reports a response whose field id is not in the schema
type UnknownFieldError struct {
	FieldID uuid.UUID
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field id %s", e.FieldID)
}

// ValueTypeMismatchError reports a value whose shape does not match the field
type ValueTypeMismatchError struct {
	FieldID  uuid.UUID
	Expected string
}

func (e *ValueTypeMismatchError) Error() string {
	return fmt.Sprintf("field %s expects a %s value", e.FieldID, e.Expected)
}

// TableStructureInvalidError reports a table value that is not a list of rows
type TableStructureInvalidError struct {
	FieldID uuid.UUID
	Reason  string
}

func (e *TableStructureInvalidError) Error() string {
	return fmt.Sprintf("invalid table data for field %s: %s", e.FieldID, e.Reason)
}

// RowCountOutOfRangeError reports a table row count outside the configured bounds
type RowCountOutOfRangeError struct {
	FieldID uuid.UUID
	MinRows *int
	MaxRows *int
	Count   int
}

func (e *RowCountOutOfRangeError) Error() string {
	switch {
	case e.MinRows != nil && e.Count < *e.MinRows:
		return fmt.Sprintf("table field %s requires at least %d rows, got %d", e.FieldID, *e.MinRows, e.Count)
	case e.MaxRows != nil && e.Count > *e.MaxRows:
		return fmt.Sprintf("table field %s allows at most %d rows, got %d", e.FieldID, *e.MaxRows, e.Count)
	}
	return fmt.Sprintf("table field %s row count %d out of range", e.FieldID, e.Count)
}

// RequiredColumnMissingError reports a required table column that is empty.
// Row is 1-based.
type RequiredColumnMissingError struct {
	FieldID uuid.UUID
	Row     int
	Column  string
}

func (e *RequiredColumnMissingError) Error() string {
	return fmt.Sprintf("required column %q is missing or empty in row %d of field %s", e.Column, e.Row, e.FieldID)
}

// InvalidEncodingError reports a signature payload that is not valid base64
type InvalidEncodingError struct {
	Reason string
}

func (e *InvalidEncodingError) Error() string {
	return "invalid base64 encoding: " + e.Reason
}

// PayloadTooLargeError reports a signature payload over the size limit
type PayloadTooLargeError struct {
	Size    int64
	MaxSize int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload size %d exceeds maximum %d bytes", e.Size, e.MaxSize)
}

// UnsupportedImageFormatError reports bytes that are not a decodable raster image
type UnsupportedImageFormatError struct {
	Reason string
}

func (e *UnsupportedImageFormatError) Error() string {
	return "unsupported image format: " + e.Reason
}

// FormNotAcceptingSubmissionsError reports a form that is unpublished or inactive
type FormNotAcceptingSubmissionsError struct {
	FormID uuid.UUID
}

func (e *FormNotAcceptingSubmissionsError) Error() string {
	return fmt.Sprintf("form %s is not accepting submissions", e.FormID)
}

// DuplicateSubmissionError reports a second submission where only one is allowed
type DuplicateSubmissionError struct {
	FormID uuid.UUID
	UserID uuid.UUID
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("user %s has already submitted form %s", e.UserID, e.FormID)
}

// InvalidTransitionError reports an illegal submission status change
type InvalidTransitionError struct {
	From models.SubmissionStatus
	To   models.SubmissionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition submission from %s to %s", e.From, e.To)
}

// QuotaExceededError reports a tenant at its plan limit for a resource
type QuotaExceededError struct {
	Resource string
	Limit    int
	Count    int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s limit reached: plan allows at most %d (current %d)", e.Resource, e.Limit, e.Count)
}

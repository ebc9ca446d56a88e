package api

import (
	"errors"
	"net/http"

	"github.com/formworks/formworks-server/internal/engine"
	"github.com/formworks/formworks-server/internal/storage"
)

// engineErrorStatus maps an engine validation error to the HTTP status
// and a stable kind label for metrics. Engine errors stay distinguishable
// from storage constraint violations so both produce a consistent
// user-facing message.
func engineErrorStatus(err error) (int, string, bool) {
	var (
		invalidConfig  *engine.InvalidFieldConfigError
		unknownType    *engine.UnknownFieldTypeError
		requiredField  *engine.RequiredFieldMissingError
		unknownField   *engine.UnknownFieldError
		typeMismatch   *engine.ValueTypeMismatchError
		tableStructure *engine.TableStructureInvalidError
		rowCount       *engine.RowCountOutOfRangeError
		requiredColumn *engine.RequiredColumnMissingError
		badEncoding    *engine.InvalidEncodingError
		tooLarge       *engine.PayloadTooLargeError
		badImage       *engine.UnsupportedImageFormatError
		notAccepting   *engine.FormNotAcceptingSubmissionsError
		duplicate      *engine.DuplicateSubmissionError
		badTransition  *engine.InvalidTransitionError
		quota          *engine.QuotaExceededError
	)

	switch {
	case errors.As(err, &invalidConfig):
		return http.StatusBadRequest, "invalid_field_config", true
	case errors.As(err, &unknownType):
		return http.StatusBadRequest, "unknown_field_type", true
	case errors.As(err, &requiredField):
		return http.StatusBadRequest, "required_field_missing", true
	case errors.As(err, &unknownField):
		return http.StatusBadRequest, "unknown_field", true
	case errors.As(err, &typeMismatch):
		return http.StatusBadRequest, "value_type_mismatch", true
	case errors.As(err, &tableStructure):
		return http.StatusBadRequest, "table_structure_invalid", true
	case errors.As(err, &rowCount):
		return http.StatusBadRequest, "row_count_out_of_range", true
	case errors.As(err, &requiredColumn):
		return http.StatusBadRequest, "required_column_missing", true
	case errors.As(err, &badEncoding):
		return http.StatusBadRequest, "invalid_encoding", true
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", true
	case errors.As(err, &badImage):
		return http.StatusBadRequest, "unsupported_image_format", true
	case errors.As(err, &notAccepting):
		return http.StatusBadRequest, "form_not_accepting", true
	case errors.As(err, &duplicate):
		return http.StatusConflict, "duplicate_submission", true
	case errors.As(err, &badTransition):
		return http.StatusConflict, "invalid_transition", true
	case errors.As(err, &quota):
		return http.StatusForbidden, "quota_exceeded", true
	}

	return 0, "", false
}

// respondStorageError maps storage errors onto HTTP responses
func (s *RESTServer) respondStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDuplicateKey):
		s.respondError(w, http.StatusConflict, "already exists")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

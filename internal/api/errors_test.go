package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/formworks/formworks-server/internal/engine"
)

func TestEngineErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{&engine.RequiredFieldMissingError{}, http.StatusBadRequest, "required_field_missing"},
		{&engine.ValueTypeMismatchError{}, http.StatusBadRequest, "value_type_mismatch"},
		{&engine.RowCountOutOfRangeError{}, http.StatusBadRequest, "row_count_out_of_range"},
		{&engine.PayloadTooLargeError{}, http.StatusRequestEntityTooLarge, "payload_too_large"},
		{&engine.FormNotAcceptingSubmissionsError{}, http.StatusBadRequest, "form_not_accepting"},
		{&engine.DuplicateSubmissionError{}, http.StatusConflict, "duplicate_submission"},
		{&engine.InvalidTransitionError{}, http.StatusConflict, "invalid_transition"},
		{&engine.QuotaExceededError{}, http.StatusForbidden, "quota_exceeded"},
	}

	for _, tc := range cases {
		status, kind, ok := engineErrorStatus(tc.err)
		if !ok {
			t.Errorf("%T not recognized", tc.err)
			continue
		}
		if status != tc.status || kind != tc.kind {
			t.Errorf("%T = (%d, %q), want (%d, %q)", tc.err, status, kind, tc.status, tc.kind)
		}
	}
}

func TestEngineErrorStatusUnrelated(t *testing.T) {
	if _, _, ok := engineErrorStatus(errors.New("disk on fire")); ok {
		t.Error("unrelated errors must not map to an engine status")
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := newIPRateLimiter(1, 2)

	if !l.allow("10.0.0.1") || !l.allow("10.0.0.1") {
		t.Error("burst of 2 should be allowed")
	}
	if l.allow("10.0.0.1") {
		t.Error("third immediate request should be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Error("limits are per client address")
	}
}

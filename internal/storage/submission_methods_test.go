package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

func TestCreateSubmissionInsertsResponses(t *testing.T) {
	store, mock := mockStore(t)

	text := "hello"
	submission := &models.Submission{
		FormID:   uuid.New(),
		TenantID: uuid.New(),
		Status:   models.SubmissionSubmitted,
		Responses: []*models.SubmissionResponse{
			{FieldID: uuid.New(), ValueText: &text},
		},
	}

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO submission_responses").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.CreateSubmission(context.Background(), submission); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	if submission.Responses[0].SubmissionID != submission.ID {
		t.Error("response not linked to submission")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateSubmissionDuplicateKey(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectExec("INSERT INTO submissions").
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "submissions_form_user_idx"`))

	err := store.CreateSubmission(context.Background(), &models.Submission{
		FormID:   uuid.New(),
		TenantID: uuid.New(),
		Status:   models.SubmissionSubmitted,
	})
	if err != ErrDuplicateKey {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestGetSubmissionScopedByTenant(t *testing.T) {
	store, mock := mockStore(t)
	id, tenantID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM submissions").
		WithArgs(id, tenantID).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.GetSubmission(context.Background(), id, tenantID); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHasSubmission(t *testing.T) {
	store, mock := mockStore(t)
	formID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(formID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.HasSubmission(context.Background(), formID, userID)
	if err != nil {
		t.Fatalf("HasSubmission: %v", err)
	}
	if !exists {
		t.Error("exists = false, want true")
	}
}

func TestUpdateSubmissionStatusNotFound(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectExec("UPDATE submissions SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateSubmissionStatus(context.Background(), &models.Submission{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   models.SubmissionApproved,
	})
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSubmission(t *testing.T) {
	store, mock := mockStore(t)
	id, tenantID := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM submissions").
		WithArgs(id, tenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteSubmission(context.Background(), id, tenantID); err != nil {
		t.Fatalf("DeleteSubmission: %v", err)
	}
}

func TestListSubmissionsFilters(t *testing.T) {
	store, mock := mockStore(t)

	tenantID := uuid.New()
	formID := uuid.New()
	status := models.SubmissionPending
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	filters := SubmissionFilters{
		TenantID:  tenantID,
		FormID:    &formID,
		Status:    &status,
		StartTime: &start,
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM submissions WHERE tenant_id = \$1 AND form_id = \$2 AND status = \$3 AND created_at >= \$4`).
		WithArgs(tenantID, formID, status, start).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(`SELECT (.+) FROM submissions\s+WHERE tenant_id = \$1 AND form_id = \$2 AND status = \$3 AND created_at >= \$4`).
		WithArgs(tenantID, formID, status, start, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "updated_at", "form_id", "tenant_id",
			"submitted_by", "submitted_by_email", "submitted_by_name",
			"status", "reviewed_by", "reviewed_at", "review_comments",
			"metadata", "submitted_at",
		}))

	submissions, total, err := store.ListSubmissions(context.Background(), filters, 20, 0)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(submissions) != 0 {
		t.Errorf("len(submissions) = %d, want 0", len(submissions))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

// ========== Submission Methods ==========

// CreateSubmission inserts a submission with all its responses. Callers
// wanting all-or-nothing behavior run this inside BeginTx; the
// single-submission rule is enforced there too, by re-checking
// HasSubmission under a LockForm row lock before the insert.
func (s *PostgresStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}

	now := time.Now()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}
	submission.UpdatedAt = now

	query := `
		INSERT INTO submissions (
			id, created_at, updated_at, form_id, tenant_id, submitted_by,
			submitted_by_email, submitted_by_name, status, reviewed_by,
			reviewed_at, review_comments, metadata, submitted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		submission.ID, submission.CreatedAt, submission.UpdatedAt,
		submission.FormID, submission.TenantID, submission.SubmittedBy,
		submission.SubmittedByEmail, submission.SubmittedByName,
		submission.Status, submission.ReviewedBy, submission.ReviewedAt,
		submission.ReviewComments, submission.Metadata, submission.SubmittedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	// Attachments go first so responses can reference them
	for _, attachment := range submission.Attachments {
		if err := s.CreateFileAttachment(ctx, attachment); err != nil {
			return err
		}
	}

	for _, response := range submission.Responses {
		response.SubmissionID = submission.ID
		if err := s.insertSubmissionResponse(ctx, response, now); err != nil {
			return err
		}
	}

	return nil
}

func (s *PostgresStore) insertSubmissionResponse(ctx context.Context, response *models.SubmissionResponse, now time.Time) error {
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = now
	}

	var valueJSON interface{}
	if response.ValueJSON != nil {
		valueJSON = []byte(response.ValueJSON)
	}

	query := `
		INSERT INTO submission_responses (
			id, created_at, submission_id, field_id, value_text,
			value_number, value_bool, value_date, value_json, file_ref,
			file_attachment_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		response.ID, response.CreatedAt, response.SubmissionID,
		response.FieldID, response.ValueText, response.ValueNumber,
		response.ValueBool, response.ValueDate, valueJSON, response.FileRef,
		response.FileAttachmentID,
	)
	return err
}

// GetSubmission gets a submission with its responses, tenant-scoped
func (s *PostgresStore) GetSubmission(ctx context.Context, id, tenantID uuid.UUID) (*models.Submission, error) {
	query := `
		SELECT id, created_at, updated_at, form_id, tenant_id, submitted_by,
		       submitted_by_email, submitted_by_name, status, reviewed_by,
		       reviewed_at, review_comments, metadata, submitted_at
		FROM submissions
		WHERE id = $1 AND tenant_id = $2`

	submission := &models.Submission{}
	err := s.getDB().QueryRowContext(ctx, query, id, tenantID).Scan(
		&submission.ID, &submission.CreatedAt, &submission.UpdatedAt,
		&submission.FormID, &submission.TenantID, &submission.SubmittedBy,
		&submission.SubmittedByEmail, &submission.SubmittedByName,
		&submission.Status, &submission.ReviewedBy, &submission.ReviewedAt,
		&submission.ReviewComments, &submission.Metadata, &submission.SubmittedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	responses, err := s.getSubmissionResponses(ctx, submission.ID)
	if err != nil {
		return nil, err
	}
	submission.Responses = responses

	return submission, nil
}

func (s *PostgresStore) getSubmissionResponses(ctx context.Context, submissionID uuid.UUID) ([]*models.SubmissionResponse, error) {
	query := `
		SELECT id, created_at, submission_id, field_id, value_text,
		       value_number, value_bool, value_date, value_json, file_ref,
		       file_attachment_id
		FROM submission_responses
		WHERE submission_id = $1
		ORDER BY created_at ASC`

	rows, err := s.getDB().QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []*models.SubmissionResponse
	for rows.Next() {
		response := &models.SubmissionResponse{}
		var valueJSON []byte
		err := rows.Scan(
			&response.ID, &response.CreatedAt, &response.SubmissionID,
			&response.FieldID, &response.ValueText, &response.ValueNumber,
			&response.ValueBool, &response.ValueDate, &valueJSON,
			&response.FileRef, &response.FileAttachmentID,
		)
		if err != nil {
			return nil, err
		}
		if valueJSON != nil {
			response.ValueJSON = valueJSON
		}
		responses = append(responses, response)
	}

	return responses, rows.Err()
}

// HasSubmission reports whether a user already submitted a form
func (s *PostgresStore) HasSubmission(ctx context.Context, formID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.getDB().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM submissions WHERE form_id = $1 AND submitted_by = $2)`,
		formID, userID,
	).Scan(&exists)
	return exists, err
}

// UpdateSubmissionStatus persists a status transition with the reviewer
// decision
func (s *PostgresStore) UpdateSubmissionStatus(ctx context.Context, submission *models.Submission) error {
	query := `
		UPDATE submissions SET
			updated_at = $2, status = $3, reviewed_by = $4, reviewed_at = $5,
			review_comments = $6
		WHERE id = $1 AND tenant_id = $7`

	result, err := s.getDB().ExecContext(ctx, query,
		submission.ID, submission.UpdatedAt, submission.Status,
		submission.ReviewedBy, submission.ReviewedAt,
		submission.ReviewComments, submission.TenantID,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteSubmission deletes a submission; responses cascade
func (s *PostgresStore) DeleteSubmission(ctx context.Context, id, tenantID uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx,
		`DELETE FROM submissions WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListSubmissions lists submissions matching the filters, without
// responses
func (s *PostgresStore) ListSubmissions(ctx context.Context, filters SubmissionFilters, limit, offset int) ([]*models.Submission, int64, error) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{filters.TenantID}

	addFilter := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filters.FormID != nil {
		addFilter("form_id = $%d", *filters.FormID)
	}
	if filters.Status != nil {
		addFilter("status = $%d", *filters.Status)
	}
	if filters.SubmittedBy != nil {
		addFilter("submitted_by = $%d", *filters.SubmittedBy)
	}
	if filters.StartTime != nil {
		addFilter("created_at >= $%d", *filters.StartTime)
	}
	if filters.EndTime != nil {
		addFilter("created_at <= $%d", *filters.EndTime)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM submissions WHERE ` + whereClause
	if err := s.getDB().QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, form_id, tenant_id, submitted_by,
		       submitted_by_email, submitted_by_name, status, reviewed_by,
		       reviewed_at, review_comments, metadata, submitted_at
		FROM submissions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		submission := &models.Submission{}
		err := rows.Scan(
			&submission.ID, &submission.CreatedAt, &submission.UpdatedAt,
			&submission.FormID, &submission.TenantID, &submission.SubmittedBy,
			&submission.SubmittedByEmail, &submission.SubmittedByName,
			&submission.Status, &submission.ReviewedBy, &submission.ReviewedAt,
			&submission.ReviewComments, &submission.Metadata, &submission.SubmittedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, submission)
	}

	return submissions, total, rows.Err()
}

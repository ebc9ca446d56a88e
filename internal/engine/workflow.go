package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

// FileStore persists raw bytes and returns an opaque locator. The engine
// only calls it for signature payloads.
type FileStore interface {
	Store(ctx context.Context, data []byte, suggestedName string) (string, error)
}

// SubmissionLookup answers whether a user already submitted a form. Here
// it is a fast-path pre-check; the authoritative check runs again under
// the form row lock inside the caller's insert transaction.
type SubmissionLookup interface {
	HasSubmission(ctx context.Context, formID, userID uuid.UUID) (bool, error)
}

// Submitter identifies who is submitting. A nil UserID means anonymous;
// email and name are only meaningful then.
type Submitter struct {
	UserID *uuid.UUID
	Email  string
	Name   string
}

// Workflow validates submissions against a schema and drives the status
// lifecycle. It holds no mutable state and is safe for concurrent use;
// persistence and transaction boundaries belong to the caller.
type Workflow struct {
	files             FileStore
	submissions       SubmissionLookup
	maxSignatureBytes int64
	now               func() time.Time
}

// NewWorkflow creates a submission workflow. submissions may be nil when
// no duplicate pre-check is wanted; maxSignatureBytes of 0 means the
// default cap.
func NewWorkflow(files FileStore, submissions SubmissionLookup, maxSignatureBytes int64) *Workflow {
	if maxSignatureBytes <= 0 {
		maxSignatureBytes = DefaultMaxSignatureBytes
	}
	return &Workflow{
		files:             files,
		submissions:       submissions,
		maxSignatureBytes: maxSignatureBytes,
		now:               time.Now,
	}
}

// CreateSubmission validates a payload against the schema and builds the
// submission with its responses. Any failure aborts the whole attempt;
// the returned submission is only valid when err is nil, and the caller
// must persist it atomically with its responses.
func (w *Workflow) CreateSubmission(ctx context.Context, schema *Schema, payload Payload, submitter Submitter, metadata models.Variables) (*models.Submission, error) {
	if !schema.IsAcceptingSubmissions() {
		return nil, &FormNotAcceptingSubmissionsError{FormID: schema.FormID()}
	}

	if !schema.AllowMultipleSubmissions() && submitter.UserID != nil && w.submissions != nil {
		exists, err := w.submissions.HasSubmission(ctx, schema.FormID(), *submitter.UserID)
		if err != nil {
			return nil, fmt.Errorf("check existing submission: %w", err)
		}
		if exists {
			return nil, &DuplicateSubmissionError{FormID: schema.FormID(), UserID: *submitter.UserID}
		}
	}

	answered := make(map[uuid.UUID]bool, len(payload))
	for _, answer := range payload {
		answered[answer.FieldID] = true
	}
	env := answerEnv(schema, payload)

	// Required pass runs over fields in schema order before any value is
	// validated; the first missing field fails the whole submission
	for _, field := range schema.Fields() {
		if !field.Required || answered[field.ID] {
			continue
		}
		visible, err := FieldVisible(field, env)
		if err != nil {
			return nil, err
		}
		if visible {
			return nil, &RequiredFieldMissingError{FieldID: field.ID, Label: field.Label}
		}
	}

	now := w.now().UTC()
	submission := &models.Submission{
		ID:               uuid.New(),
		CreatedAt:        now,
		UpdatedAt:        now,
		FormID:           schema.FormID(),
		TenantID:         schema.TenantID(),
		SubmittedBy:      submitter.UserID,
		SubmittedByEmail: submitter.Email,
		SubmittedByName:  submitter.Name,
		Metadata:         metadata,
		SubmittedAt:      &now,
	}
	if schema.RequiresApproval() {
		submission.Status = models.SubmissionPending
	} else {
		submission.Status = models.SubmissionSubmitted
	}

	for _, answer := range payload {
		field, ok := schema.FieldByID(answer.FieldID)
		if !ok {
			return nil, &UnknownFieldError{FieldID: answer.FieldID}
		}

		normalized, err := ValidateField(field, answer.Value, w.maxSignatureBytes)
		if err != nil {
			return nil, err
		}
		if normalized.Shape == ShapeNone {
			// Sections carry no value
			continue
		}

		response := &models.SubmissionResponse{
			ID:           uuid.New(),
			CreatedAt:    now,
			SubmissionID: submission.ID,
			FieldID:      field.ID,
			ValueText:    normalized.Text,
			ValueNumber:  normalized.Number,
			ValueBool:    normalized.Bool,
			ValueDate:    normalized.Time,
			ValueJSON:    normalized.JSON,
			FileRef:      normalized.FileRef,
		}

		if normalized.SignatureBytes != nil {
			if w.files == nil {
				return nil, fmt.Errorf("no file store configured for signature field %s", field.ID)
			}
			name := signatureFilename(schema.TenantID(), submitter.UserID, field.ID, now)
			locator, err := w.files.Store(ctx, normalized.SignatureBytes, name)
			if err != nil {
				return nil, fmt.Errorf("store signature for field %s: %w", field.ID, err)
			}
			response.FileRef = &locator

			attachment := &models.FileAttachment{
				ID:               uuid.New(),
				CreatedAt:        now,
				TenantID:         schema.TenantID(),
				UploadedBy:       submitter.UserID,
				OriginalFilename: name,
				StoredFilename:   locator,
				FilePath:         locator,
				FileSize:         int64(len(normalized.SignatureBytes)),
				MimeType:         "image/png",
			}
			submission.Attachments = append(submission.Attachments, attachment)
			response.FileAttachmentID = &attachment.ID
		}

		submission.Responses = append(submission.Responses, response)
	}

	return submission, nil
}

// transitions is the reviewer-facing submission status state machine.
// Draft advances to submitted or pending only at creation time, never
// through UpdateStatus; submitted, approved and rejected are terminal.
var transitions = map[models.SubmissionStatus][]models.SubmissionStatus{
	models.SubmissionPending: {models.SubmissionApproved, models.SubmissionRejected},
}

// CanTransition reports whether the status change is legal
func CanTransition(from, to models.SubmissionStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateStatus applies a status transition to a submission, recording the
// reviewer decision for approvals and rejections. Illegal transitions
// fail with InvalidTransition and leave the submission untouched.
func (w *Workflow) UpdateStatus(submission *models.Submission, newStatus models.SubmissionStatus, reviewer *uuid.UUID, comments string) error {
	if !CanTransition(submission.Status, newStatus) {
		return &InvalidTransitionError{From: submission.Status, To: newStatus}
	}

	now := w.now().UTC()
	submission.Status = newStatus
	submission.UpdatedAt = now

	if newStatus == models.SubmissionApproved || newStatus == models.SubmissionRejected {
		submission.ReviewedBy = reviewer
		submission.ReviewedAt = &now
		submission.ReviewComments = comments
	}
	return nil
}

func signatureFilename(tenantID uuid.UUID, userID *uuid.UUID, fieldID uuid.UUID, now time.Time) string {
	user := "anonymous"
	if userID != nil {
		user = userID.String()
	}
	return fmt.Sprintf("signature_%s_%s_%s_%d.png", tenantID, user, fieldID, now.UnixMilli())
}

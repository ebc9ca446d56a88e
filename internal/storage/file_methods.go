package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

// ========== File Attachment Methods ==========

// CreateFileAttachment records a stored file
func (s *PostgresStore) CreateFileAttachment(ctx context.Context, attachment *models.FileAttachment) error {
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO file_attachments (
			id, created_at, tenant_id, uploaded_by, original_filename,
			stored_filename, file_path, file_size, mime_type
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		attachment.ID, attachment.CreatedAt, attachment.TenantID,
		attachment.UploadedBy, attachment.OriginalFilename,
		attachment.StoredFilename, attachment.FilePath,
		attachment.FileSize, attachment.MimeType,
	)
	return err
}

// GetFileAttachment gets a file attachment by ID
func (s *PostgresStore) GetFileAttachment(ctx context.Context, id uuid.UUID) (*models.FileAttachment, error) {
	query := `
		SELECT id, created_at, tenant_id, uploaded_by, original_filename,
		       stored_filename, file_path, file_size, mime_type
		FROM file_attachments
		WHERE id = $1`

	attachment := &models.FileAttachment{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&attachment.ID, &attachment.CreatedAt, &attachment.TenantID,
		&attachment.UploadedBy, &attachment.OriginalFilename,
		&attachment.StoredFilename, &attachment.FilePath,
		&attachment.FileSize, &attachment.MimeType,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return attachment, err
}

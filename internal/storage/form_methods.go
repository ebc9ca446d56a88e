package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/formworks/formworks-server/internal/models"
)

// ========== Form Methods ==========

// CreateForm creates a form together with its fields
func (s *PostgresStore) CreateForm(ctx context.Context, form *models.Form) error {
	if form.ID == uuid.Nil {
		form.ID = uuid.New()
	}

	now := time.Now()
	form.CreatedAt = now
	form.UpdatedAt = now
	if form.Version == 0 {
		form.Version = 1
	}

	query := `
		INSERT INTO forms (
			id, created_at, updated_at, tenant_id, created_by, title,
			description, header, version, allow_multiple_submissions,
			requires_approval, is_active, is_published, published_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		form.ID, form.CreatedAt, form.UpdatedAt, form.TenantID, form.CreatedBy,
		form.Title, form.Description, form.Header, form.Version,
		form.AllowMultipleSubmissions, form.RequiresApproval,
		form.IsActive, form.IsPublished, form.PublishedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	for _, field := range form.Fields {
		field.FormID = form.ID
		if err := s.upsertFormField(ctx, field, now); err != nil {
			return err
		}
	}

	return nil
}

// upsertFormField inserts a field or, when the id already exists,
// refreshes its definition and reactivates it
func (s *PostgresStore) upsertFormField(ctx context.Context, field *models.FormField, now time.Time) error {
	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}
	if field.CreatedAt.IsZero() {
		field.CreatedAt = now
	}
	field.UpdatedAt = now

	query := `
		INSERT INTO form_fields (
			id, created_at, updated_at, form_id, field_type, label, key,
			placeholder, help_text, required, options, field_order,
			visible_if, config, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, true
		)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			field_type = EXCLUDED.field_type,
			label = EXCLUDED.label,
			key = EXCLUDED.key,
			placeholder = EXCLUDED.placeholder,
			help_text = EXCLUDED.help_text,
			required = EXCLUDED.required,
			options = EXCLUDED.options,
			field_order = EXCLUDED.field_order,
			visible_if = EXCLUDED.visible_if,
			config = EXCLUDED.config,
			is_active = true`

	_, err := s.getDB().ExecContext(ctx, query,
		field.ID, field.CreatedAt, field.UpdatedAt, field.FormID,
		field.FieldType, field.Label, field.Key, field.Placeholder,
		field.HelpText, field.Required, field.Options, field.Order,
		field.VisibleIf, field.Config,
	)
	return err
}

// GetForm gets a form by ID with its fields loaded in display order
func (s *PostgresStore) GetForm(ctx context.Context, id uuid.UUID) (*models.Form, error) {
	query := `
		SELECT id, created_at, updated_at, tenant_id, created_by, title,
		       description, header, version, allow_multiple_submissions,
		       requires_approval, is_active, is_published, published_at
		FROM forms
		WHERE id = $1`

	form := &models.Form{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&form.ID, &form.CreatedAt, &form.UpdatedAt, &form.TenantID,
		&form.CreatedBy, &form.Title, &form.Description, &form.Header,
		&form.Version, &form.AllowMultipleSubmissions, &form.RequiresApproval,
		&form.IsActive, &form.IsPublished, &form.PublishedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields, err := s.getFormFields(ctx, form.ID)
	if err != nil {
		return nil, err
	}
	form.Fields = fields

	return form, nil
}

func (s *PostgresStore) getFormFields(ctx context.Context, formID uuid.UUID) ([]*models.FormField, error) {
	query := `
		SELECT id, created_at, updated_at, form_id, field_type, label, key,
		       placeholder, help_text, required, options, field_order,
		       visible_if, config
		FROM form_fields
		WHERE form_id = $1 AND is_active = true
		ORDER BY field_order ASC`

	rows, err := s.getDB().QueryContext(ctx, query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []*models.FormField
	for rows.Next() {
		field := &models.FormField{}
		err := rows.Scan(
			&field.ID, &field.CreatedAt, &field.UpdatedAt, &field.FormID,
			&field.FieldType, &field.Label, &field.Key, &field.Placeholder,
			&field.HelpText, &field.Required, &field.Options, &field.Order,
			&field.VisibleIf, &field.Config,
		)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	return fields, rows.Err()
}

// UpdateForm updates a form and reconciles its fields, bumping the
// version counter. Incoming fields are upserted by id; fields no longer
// present are retired rather than deleted, so responses recorded against
// earlier versions keep their field references.
func (s *PostgresStore) UpdateForm(ctx context.Context, form *models.Form) error {
	form.UpdatedAt = time.Now()
	form.Version++

	query := `
		UPDATE forms SET
			updated_at = $2, title = $3, description = $4, header = $5,
			version = $6, allow_multiple_submissions = $7,
			requires_approval = $8, is_active = $9, is_published = $10,
			published_at = $11
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		form.ID, form.UpdatedAt, form.Title, form.Description, form.Header,
		form.Version, form.AllowMultipleSubmissions, form.RequiresApproval,
		form.IsActive, form.IsPublished, form.PublishedAt,
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

	if form.Fields != nil {
		kept := make([]uuid.UUID, 0, len(form.Fields))
		for _, field := range form.Fields {
			field.FormID = form.ID
			if err := s.upsertFormField(ctx, field, form.UpdatedAt); err != nil {
				return err
			}
			kept = append(kept, field.ID)
		}

		_, err = s.getDB().ExecContext(ctx, `
			UPDATE form_fields SET is_active = false, updated_at = $2
			WHERE form_id = $1 AND NOT (id = ANY($3))`,
			form.ID, form.UpdatedAt, pq.Array(kept),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// LockForm takes a row lock on a form until the current transaction
// ends, serializing concurrent submission checks for that form. Outside
// a transaction the lock is released immediately and guarantees nothing.
func (s *PostgresStore) LockForm(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := s.getDB().QueryRowContext(ctx,
		`SELECT id FROM forms WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked)

	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// DeleteForm soft-deletes a form; its fields and submissions stay in
// place but the form stops accepting submissions
func (s *PostgresStore) DeleteForm(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx,
		`UPDATE forms SET is_active = false, updated_at = $2 WHERE id = $1`,
		id, time.Now(),
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

// ListForms lists a tenant's forms without their fields
func (s *PostgresStore) ListForms(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Form, int64, error) {
	var total int64
	err := s.getDB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM forms WHERE tenant_id = $1`, tenantID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, created_at, updated_at, tenant_id, created_by, title,
		       description, header, version, allow_multiple_submissions,
		       requires_approval, is_active, is_published, published_at
		FROM forms
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.getDB().QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var forms []*models.Form
	for rows.Next() {
		form := &models.Form{}
		err := rows.Scan(
			&form.ID, &form.CreatedAt, &form.UpdatedAt, &form.TenantID,
			&form.CreatedBy, &form.Title, &form.Description, &form.Header,
			&form.Version, &form.AllowMultipleSubmissions, &form.RequiresApproval,
			&form.IsActive, &form.IsPublished, &form.PublishedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		forms = append(forms, form)
	}

	return forms, total, rows.Err()
}

// CountActiveForms counts active forms in a tenant, which is the input to
// the plan quota check
func (s *PostgresStore) CountActiveForms(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := s.getDB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM forms WHERE tenant_id = $1 AND is_active = true`,
		tenantID,
	).Scan(&count)
	return count, err
}

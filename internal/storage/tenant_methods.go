package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

// ========== Tenant Methods ==========

// CreateTenant creates a new tenant
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}

	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	query := `
		INSERT INTO tenants (
			id, created_at, updated_at, name, subdomain, plan, billing_email,
			max_user_count, max_form_count, contact_email, contact_phone,
			address, is_active, suspended_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.CreatedAt, tenant.UpdatedAt, tenant.Name, tenant.Subdomain,
		tenant.Plan, tenant.BillingEmail, tenant.MaxUserCount, tenant.MaxFormCount,
		tenant.ContactEmail, tenant.ContactPhone, tenant.Address,
		tenant.IsActive, tenant.SuspendedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetTenant gets a tenant by ID
func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT id, created_at, updated_at, name, subdomain, plan, billing_email,
		       max_user_count, max_form_count, contact_email, contact_phone,
		       address, is_active, suspended_at
		FROM tenants
		WHERE id = $1`

	return s.scanTenant(s.getDB().QueryRowContext(ctx, query, id))
}

// GetTenantBySubdomain gets a tenant by subdomain
func (s *PostgresStore) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	query := `
		SELECT id, created_at, updated_at, name, subdomain, plan, billing_email,
		       max_user_count, max_form_count, contact_email, contact_phone,
		       address, is_active, suspended_at
		FROM tenants
		WHERE subdomain = $1`

	return s.scanTenant(s.getDB().QueryRowContext(ctx, query, subdomain))
}

func (s *PostgresStore) scanTenant(row *sql.Row) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(
		&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.Name,
		&tenant.Subdomain, &tenant.Plan, &tenant.BillingEmail,
		&tenant.MaxUserCount, &tenant.MaxFormCount, &tenant.ContactEmail,
		&tenant.ContactPhone, &tenant.Address, &tenant.IsActive, &tenant.SuspendedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return tenant, err
}

// UpdateTenant updates a tenant
func (s *PostgresStore) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now()

	query := `
		UPDATE tenants SET
			updated_at = $2, name = $3, subdomain = $4, plan = $5,
			billing_email = $6, max_user_count = $7, max_form_count = $8,
			contact_email = $9, contact_phone = $10, address = $11,
			is_active = $12, suspended_at = $13
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.UpdatedAt, tenant.Name, tenant.Subdomain, tenant.Plan,
		tenant.BillingEmail, tenant.MaxUserCount, tenant.MaxFormCount,
		tenant.ContactEmail, tenant.ContactPhone, tenant.Address,
		tenant.IsActive, tenant.SuspendedAt,
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

// DeleteTenant deletes a tenant
func (s *PostgresStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
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

// ListTenants lists tenants
func (s *PostgresStore) ListTenants(ctx context.Context, limit, offset int) ([]*models.Tenant, int64, error) {
	var total int64
	if err := s.getDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, created_at, updated_at, name, subdomain, plan, billing_email,
		       max_user_count, max_form_count, contact_email, contact_phone,
		       address, is_active, suspended_at
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.getDB().QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		err := rows.Scan(
			&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.Name,
			&tenant.Subdomain, &tenant.Plan, &tenant.BillingEmail,
			&tenant.MaxUserCount, &tenant.MaxFormCount, &tenant.ContactEmail,
			&tenant.ContactPhone, &tenant.Address, &tenant.IsActive, &tenant.SuspendedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, tenant)
	}

	return tenants, total, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

func mockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreFromDB(db), mock
}

func TestCreateFormInsertsFields(t *testing.T) {
	store, mock := mockStore(t)

	form := &models.Form{
		TenantID: uuid.New(),
		Title:    "Site inspection",
		IsActive: true,
		Fields: []*models.FormField{
			{FieldType: models.FieldTypeText, Label: "Inspector"},
			{FieldType: models.FieldTypeDate, Label: "Visit date"},
		},
	}

	mock.ExpectExec("INSERT INTO forms").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO form_fields").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO form_fields").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.CreateForm(context.Background(), form); err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	if form.ID == uuid.Nil {
		t.Error("form id not assigned")
	}
	if form.Version != 1 {
		t.Errorf("Version = %d, want 1", form.Version)
	}
	for _, field := range form.Fields {
		if field.FormID != form.ID {
			t.Error("field not linked to form")
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateFormDuplicateKey(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectExec("INSERT INTO forms").
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "forms_pkey"`))

	err := store.CreateForm(context.Background(), &models.Form{TenantID: uuid.New(), Title: "x"})
	if err != ErrDuplicateKey {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestGetFormNotFound(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM forms").WillReturnError(sql.ErrNoRows)

	if _, err := store.GetForm(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateFormBumpsVersionAndReconcilesFields(t *testing.T) {
	store, mock := mockStore(t)

	form := &models.Form{
		ID:      uuid.New(),
		Title:   "Updated",
		Version: 2,
		Fields: []*models.FormField{
			{ID: uuid.New(), FieldType: models.FieldTypeText, Label: "Kept field"},
			{FieldType: models.FieldTypeDate, Label: "New field"},
		},
	}

	mock.ExpectExec("UPDATE forms SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO form_fields (.+) ON CONFLICT").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO form_fields (.+) ON CONFLICT").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE form_fields SET is_active = false`).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpdateForm(context.Background(), form); err != nil {
		t.Fatalf("UpdateForm: %v", err)
	}
	if form.Version != 3 {
		t.Errorf("Version = %d, want 3", form.Version)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateFormNeverDeletesFields(t *testing.T) {
	store, mock := mockStore(t)

	// Dropping every field retires them; a DELETE would take historical
	// submission responses with it
	form := &models.Form{ID: uuid.New(), Title: "Emptied", Fields: []*models.FormField{}}

	mock.ExpectExec("UPDATE forms SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE form_fields SET is_active = false`).
		WithArgs(form.ID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := store.UpdateForm(context.Background(), form); err != nil {
		t.Fatalf("UpdateForm: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateFormNotFound(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectExec("UPDATE forms SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateForm(context.Background(), &models.Form{ID: uuid.New()})
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateFormInTransaction(t *testing.T) {
	store, mock := mockStore(t)

	form := &models.Form{
		TenantID: uuid.New(),
		Title:    "Site inspection",
		IsActive: true,
		Fields: []*models.FormField{
			{FieldType: models.FieldTypeText, Label: "Inspector"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO forms").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO form_fields").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := store.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tx.CreateForm(context.Background(), form); err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLockForm(t *testing.T) {
	store, mock := mockStore(t)
	formID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM forms WHERE id = (.+) FOR UPDATE").
		WithArgs(formID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(formID.String()))
	mock.ExpectRollback()

	tx, err := store.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tx.LockForm(context.Background(), formID); err != nil {
		t.Fatalf("LockForm: %v", err)
	}
	tx.Rollback()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLockFormNotFound(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectQuery("SELECT id FROM forms WHERE id = (.+) FOR UPDATE").
		WillReturnError(sql.ErrNoRows)

	if err := store.LockForm(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteFormIsSoft(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectExec(`UPDATE forms SET is_active = false`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteForm(context.Background(), uuid.New()); err != nil {
		t.Fatalf("DeleteForm: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCountActiveForms(t *testing.T) {
	store, mock := mockStore(t)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM forms`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.CountActiveForms(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("CountActiveForms: %v", err)
	}
	if count != 7 {
		t.Errorf("count = %d, want 7", count)
	}
}

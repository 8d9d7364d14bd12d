package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/models"
)

func newTestBackupRepo(t *testing.T) (*backupRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &backupRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestSaveBackup_Success(t *testing.T) {
	repo, mock, db := newTestBackupRepo(t)
	defer db.Close()

	ctx := context.Background()
	envelope := models.BackupEnvelope{
		Data:      json.RawMessage(`{"title":"Launch plan"}`),
		Timestamp: time.Now(),
		Version:   "1.2.0",
	}

	mock.ExpectExec("INSERT INTO backups").
		WithArgs("doc-1", string(envelope.Data), envelope.Timestamp, envelope.Version).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.SaveBackup(ctx, "doc-1", envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestSaveBackup_ExecError(t *testing.T) {
	repo, mock, db := newTestBackupRepo(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO backups").
		WillReturnError(errors.New("disk I/O error"))

	err := repo.SaveBackup(context.Background(), "doc-1", models.BackupEnvelope{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGetBackup_Success(t *testing.T) {
	repo, mock, db := newTestBackupRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.
		NewRows([]string{"data", "created_at", "version"}).
		AddRow(`{"title":"Draft A"}`, now, "1.2.0")

	mock.ExpectQuery("SELECT").
		WithArgs("doc-1").
		WillReturnRows(rows)

	got, err := repo.GetBackup(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(got.Data) != `{"title":"Draft A"}` {
		t.Errorf("unexpected data: %s", got.Data)
	}
	if got.Version != "1.2.0" {
		t.Errorf("unexpected version: %s", got.Version)
	}
}

func TestGetBackup_NotFound(t *testing.T) {
	repo, mock, db := newTestBackupRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"data", "created_at", "version"}))

	_, err := repo.GetBackup(context.Background(), "missing")
	if !errors.Is(err, ErrBackupNotFound) {
		t.Fatalf("expected ErrBackupNotFound, got: %v", err)
	}
}

func TestClearBackup_Success(t *testing.T) {
	repo, mock, db := newTestBackupRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM backups").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClearBackup(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClearBackup_NoRowIsNotAnError(t *testing.T) {
	repo, mock, db := newTestBackupRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM backups").
		WithArgs("never-saved").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.ClearBackup(context.Background(), "never-saved"); err != nil {
		t.Fatalf("clearing an absent backup must be idempotent, got: %v", err)
	}
}

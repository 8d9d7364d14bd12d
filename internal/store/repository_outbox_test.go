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

func newTestOutboxRepo(t *testing.T) (*outboxRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &outboxRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestEnqueue_Success(t *testing.T) {
	repo, mock, db := newTestOutboxRepo(t)
	defer db.Close()

	m := models.Mutation{
		ID:        "m-1",
		Op:        models.MutationCreate,
		Entity:    "launches",
		Payload:   json.RawMessage(`{"id":"m-1","name":"Spring launch"}`),
		Status:    models.MutationPending,
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(m.ID, string(m.Op), m.Entity, string(m.Payload), string(m.Status), m.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Enqueue(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemove_Success(t *testing.T) {
	repo, mock, db := newTestOutboxRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM outbox").
		WithArgs("m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Remove(context.Background(), "m-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemove_NotFound(t *testing.T) {
	repo, mock, db := newTestOutboxRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM outbox").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), "ghost")
	if !errors.Is(err, ErrMutationNotFound) {
		t.Fatalf("expected ErrMutationNotFound, got: %v", err)
	}
}

func TestMarkFailed_Success(t *testing.T) {
	repo, mock, db := newTestOutboxRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE outbox").
		WithArgs("m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkFailed(context.Background(), "m-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkFailed_NotFound(t *testing.T) {
	repo, mock, db := newTestOutboxRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE outbox").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkFailed(context.Background(), "ghost")
	if !errors.Is(err, ErrMutationNotFound) {
		t.Fatalf("expected ErrMutationNotFound, got: %v", err)
	}
}

func TestListReplayable_PreservesEnqueueOrder(t *testing.T) {
	repo, mock, db := newTestOutboxRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.
		NewRows([]string{"id", "op", "entity", "payload", "status", "created_at"}).
		AddRow("m-1", "create", "launches", `{"id":"l-1"}`, "pending", now).
		AddRow("m-2", "update", "launches", `{"id":"l-1","name":"v2"}`, "failed", now).
		AddRow("m-3", "delete", "tasks", `{"id":"t-9"}`, "pending", now)

	mock.ExpectQuery("SELECT id, op, entity, payload, status, created_at FROM outbox").
		WillReturnRows(rows)

	items, err := repo.ListReplayable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 mutations, got %d", len(items))
	}
	for i, wantID := range []string{"m-1", "m-2", "m-3"} {
		if items[i].ID != wantID {
			t.Errorf("position %d: expected %s, got %s", i, wantID, items[i].ID)
		}
	}
	if items[0].Op != models.MutationCreate || items[2].Op != models.MutationDelete {
		t.Errorf("unexpected ops: %v, %v", items[0].Op, items[2].Op)
	}
}

func TestCount_ByStatus(t *testing.T) {
	repo, mock, db := newTestOutboxRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.Count(context.Background(), models.MutationPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 pending mutations, got %d", count)
	}
}

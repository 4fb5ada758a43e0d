package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/frontdesk-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key (kind, seq_id or username) is taken.
	ErrConflict = errors.New("conflict")
)

// All repository interfaces in one file
type (
	// RecordRepository persists loosely keyed visit records. Write methods
	// take an optional outbox event stored in the same transaction.
	RecordRepository interface {
		Create(ctx context.Context, record *model.Record, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Record, error)
		GetBySeq(ctx context.Context, kind model.RecordKind, seq int64) (*model.Record, error)
		List(ctx context.Context, filter model.RecordFilter) ([]*model.Record, error)
		Update(ctx context.Context, record *model.Record, event *model.OutboxEvent) error
		Delete(ctx context.Context, id uuid.UUID, event *model.OutboxEvent) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending atomically moves up to limit due events to processing.
		// Events left in processing for longer than lease are claimed again.
		ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
		// Release hands claimed events back to pending without counting a
		// delivery attempt.
		Release(ctx context.Context, ids []uuid.UUID) error
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed schedules a retry at retryAt, or fails the event for good
		// when retryAt is nil.
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

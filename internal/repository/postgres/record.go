package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/repository"
)

const recordColumns = `id, kind, seq_id, visit_date, fields, created_by, created_at, updated_at`

type recordRepository struct {
	BaseRepository
}

func NewRecordRepository(base BaseRepository) repository.RecordRepository {
	return &recordRepository{base}
}

func (r *recordRepository) Create(ctx context.Context, record *model.Record, event *model.OutboxEvent) (err error) {
	defer func(start time.Time) { r.observe("record_create", start, err) }(time.Now())

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.VisitDate.IsZero() {
		record.VisitDate = now.Truncate(24 * time.Hour)
	}

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if record.SeqID == 0 {
			// Serialize id assignment per kind for the life of the transaction.
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(record.Kind)); err != nil {
				return fmt.Errorf("failed to lock sequence: %w", err)
			}
			if err := tx.GetContext(ctx, &record.SeqID,
				`SELECT COALESCE(MAX(seq_id), 0) + 1 FROM records WHERE kind = $1`, string(record.Kind)); err != nil {
				return fmt.Errorf("failed to assign sequence id: %w", err)
			}
		}

		query := `
			INSERT INTO records (` + recordColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.ExecContext(ctx, query,
			record.ID,
			record.Kind,
			record.SeqID,
			record.VisitDate,
			record.Fields,
			record.CreatedBy,
			record.CreatedAt,
			record.UpdatedAt,
		); err != nil {
			return translate(err)
		}

		if event != nil {
			if err := stampRecordEvent(event, record); err != nil {
				return err
			}
		}
		return insertOutbox(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

func (r *recordRepository) Get(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`
	var record model.Record
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

func (r *recordRepository) GetBySeq(ctx context.Context, kind model.RecordKind, seq int64) (*model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE kind = $1 AND seq_id = $2`
	var record model.Record
	if err := r.db.GetContext(ctx, &record, query, kind, seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record by sequence: %w", err)
	}
	return &record, nil
}

func (r *recordRepository) List(ctx context.Context, filter model.RecordFilter) (records []*model.Record, err error) {
	defer func(start time.Time) { r.observe("record_list", start, err) }(time.Now())

	var (
		conditions []string
		args       []interface{}
	)
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.VisitDate != nil {
		args = append(args, filter.VisitDate.Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("visit_date = $%d::date", len(args)))
	}

	query := `SELECT ` + recordColumns + ` FROM records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY visit_date DESC, seq_id DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if err = r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

func (r *recordRepository) Update(ctx context.Context, record *model.Record, event *model.OutboxEvent) (err error) {
	defer func(start time.Time) { r.observe("record_update", start, err) }(time.Now())

	record.UpdatedAt = time.Now().UTC()
	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE records
			SET fields = $1, visit_date = $2, updated_at = $3
			WHERE id = $4
		`
		result, err := tx.ExecContext(ctx, query, record.Fields, record.VisitDate, record.UpdatedAt, record.ID)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return repository.ErrNotFound
		}
		return insertOutbox(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (r *recordRepository) Delete(ctx context.Context, id uuid.UUID, event *model.OutboxEvent) (err error) {
	defer func(start time.Time) { r.observe("record_delete", start, err) }(time.Now())

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return repository.ErrNotFound
		}
		return insertOutbox(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// stampRecordEvent fills the sequence id assigned inside the transaction.
func stampRecordEvent(event *model.OutboxEvent, record *model.Record) error {
	payload := model.RecordEventPayload{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode event payload: %w", err)
		}
	}
	payload.RecordID = record.ID
	payload.SeqID = record.SeqID
	payload.Kind = record.Kind

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event.Payload = data
	return nil
}

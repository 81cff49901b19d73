package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inqbatorchris/fieldsync/internal/common"
	"github.com/inqbatorchris/fieldsync/internal/dbx"
	"github.com/inqbatorchris/fieldsync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const entryColumns = `sequence, entity_type, operation, entity_id, payload, attempts, last_error, status, created_at`

func (r *SQLiteRepository) Enqueue(ctx context.Context, entityType string, op models.Operation, entityID string, payload json.RawMessage) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{
		EntityType: entityType,
		Operation:  op,
		EntityID:   entityID,
		Payload:    payload,
		Status:     models.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	query := `INSERT INTO sync_queue (entity_type, operation, entity_id, payload, attempts, last_error, status, created_at)
			values (?, ?, ?, ?, 0, '', ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		entry.EntityType, entry.Operation, entry.EntityID, string(entry.Payload), entry.Status, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enqueue: %v", common.ErrorStorage, err)
	}

	entry.Sequence, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get sequence: %w", err)
	}
	return entry, nil
}

// NextReady respects per-entity FIFO: an entry qualifies only when every
// earlier entry for the same entity is done.
func (r *SQLiteRepository) NextReady(ctx context.Context, afterSequence int64) (*models.QueueEntry, error) {
	query := `select ` + entryColumns + ` from sync_queue q
			where q.status = ? and q.sequence > ?
			and not exists (
				select 1 from sync_queue p
				where p.entity_id = q.entity_id and p.sequence < q.sequence and p.status <> ?
			)
			order by q.sequence limit 1`

	row := r.db.QueryRowContext(ctx, query, models.StatusPending, afterSequence, models.StatusDone)
	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select next entry: %w", err)
	}
	return entry, nil
}

func (r *SQLiteRepository) Transition(ctx context.Context, sequence int64, status models.QueueStatus, lastError string) error {
	res, err := r.db.ExecContext(ctx,
		`update sync_queue set status=?, last_error=? where sequence=?`, status, lastError, sequence)
	if err != nil {
		return fmt.Errorf("%w: failed to transition entry: %v", common.ErrorStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) IncrementAttempts(ctx context.Context, sequence int64) error {
	res, err := r.db.ExecContext(ctx,
		`update sync_queue set attempts = attempts + 1 where sequence=?`, sequence)
	if err != nil {
		return fmt.Errorf("%w: failed to increment attempts: %v", common.ErrorStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Requeue(ctx context.Context, sequence int64) error {
	res, err := r.db.ExecContext(ctx,
		`update sync_queue set status=?, attempts=0, last_error='' where sequence=? and status=?`,
		models.StatusPending, sequence, models.StatusFailed)
	if err != nil {
		return fmt.Errorf("%w: failed to requeue entry: %v", common.ErrorStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) ResetInFlight(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`update sync_queue set status=? where status=?`, models.StatusPending, models.StatusInFlight)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to reset in-flight entries: %v", common.ErrorStorage, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]*models.QueueEntry, error) {
	return r.list(ctx,
		`select `+entryColumns+` from sync_queue where status=? order by sequence`, models.StatusFailed)
}

func (r *SQLiteRepository) ListByEntity(ctx context.Context, entityID string) ([]*models.QueueEntry, error) {
	return r.list(ctx,
		`select `+entryColumns+` from sync_queue where entity_id=? order by sequence`, entityID)
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`select count(*) from sync_queue where status in (?, ?)`,
		models.StatusPending, models.StatusInFlight).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) PurgeDone(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `delete from sync_queue where status=?`, models.StatusDone)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to purge entries: %v", common.ErrorStorage, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue entries: %w", err)
	}
	defer rows.Close()

	var result []*models.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanEntry(scan func(dest ...any) error) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{}
	var payload string
	err := scan(&entry.Sequence, &entry.EntityType, &entry.Operation, &entry.EntityID,
		&payload, &entry.Attempts, &entry.LastError, &entry.Status, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	entry.Payload = json.RawMessage(payload)
	return entry, nil
}

package entities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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

// Save upserts an entity by id. On conflict, attribute columns are updated;
// the synced flag and server id are left to MarkSynced.
func (r *SQLiteRepository) Save(ctx context.Context, e *models.FieldEntity) error {
	photoIDs, err := json.Marshal(e.PhotoIDs)
	if err != nil {
		return fmt.Errorf("failed to encode photo ids: %w", err)
	}

	query := ` INSERT INTO field_entities (id, type, name, status, network, notes, lat, lng, photo_ids, parent_id, synced, server_id, created_at)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				status = excluded.status,
				network = excluded.network,
				notes = excluded.notes,
				lat = excluded.lat,
				lng = excluded.lng,
				photo_ids = excluded.photo_ids,
				parent_id = excluded.parent_id
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Type, e.Name, e.Status, e.Network, e.Notes, e.Lat, e.Lng,
		string(photoIDs), e.ParentID, boolToInt(e.SyncedToServer), e.ServerID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert entity: %v", common.ErrorStorage, err)
	}
	return nil
}

// GetByID returns the entity with the given local id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.FieldEntity, error) {
	query := `select id, type, name, status, network, notes, lat, lng, photo_ids, parent_id, synced, server_id, created_at
			from field_entities where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	e, err := scanEntity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entity: %w", err)
	}
	return e, nil
}

// ListUnsynced returns entities not yet confirmed by the server, oldest first.
func (r *SQLiteRepository) ListUnsynced(ctx context.Context, entityType string) ([]*models.FieldEntity, error) {
	query := `select id, type, name, status, network, notes, lat, lng, photo_ids, parent_id, synced, server_id, created_at
			from field_entities where synced=0`
	args := []any{}
	if entityType != "" {
		query += ` and type=?`
		args = append(args, entityType)
	}
	query += ` order by created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entities: %w", err)
	}
	defer rows.Close()

	var result []*models.FieldEntity
	for rows.Next() {
		e, err := scanEntity(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkSynced records the server id and flips the synced flag in one UPDATE.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, serverID string) error {
	query := `update field_entities set synced=1, server_id=? where id=?`
	res, err := r.db.ExecContext(ctx, query, serverID, id)
	if err != nil {
		return fmt.Errorf("%w: failed to mark entity synced: %v", common.ErrorStorage, err)
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

func scanEntity(scan func(dest ...any) error) (*models.FieldEntity, error) {
	e := &models.FieldEntity{}
	var photoIDs string
	var synced int
	err := scan(&e.ID, &e.Type, &e.Name, &e.Status, &e.Network, &e.Notes,
		&e.Lat, &e.Lng, &photoIDs, &e.ParentID, &synced, &e.ServerID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(photoIDs), &e.PhotoIDs); err != nil {
		return nil, fmt.Errorf("failed to decode photo ids: %w", err)
	}
	e.SyncedToServer = synced != 0
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

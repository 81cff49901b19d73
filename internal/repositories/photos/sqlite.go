package photos

import (
	"context"
	"database/sql"
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

func (r *SQLiteRepository) Save(ctx context.Context, p *models.Photo) error {
	query := ` INSERT INTO photos (id, owner_id, content, mime_type, filename, created_at)
			values (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Content, p.MimeType, p.Filename, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert photo: %v", common.ErrorStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `select id, owner_id, content, mime_type, filename, created_at from photos where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	p := &models.Photo{}
	err := row.Scan(&p.ID, &p.OwnerID, &p.Content, &p.MimeType, &p.Filename, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select photo: %w", err)
	}
	return p, nil
}

// ListByOwner returns owner's photos oldest first. Content is not loaded;
// use GetByID when the bytes are needed for display.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	query := `select id, owner_id, mime_type, filename, created_at from photos where owner_id=? order by created_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select photos: %w", err)
	}
	defer rows.Close()

	var result []*models.Photo
	for rows.Next() {
		p := &models.Photo{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.MimeType, &p.Filename, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Rebind reassigns a single photo. The WHERE clause makes a same-owner
// rebind match zero rows, so idempotency needs an existence check rather
// than a rows-affected check.
func (r *SQLiteRepository) Rebind(ctx context.Context, photoID string, newOwnerID string) error {
	res, err := r.db.ExecContext(ctx,
		`update photos set owner_id=? where id=? and owner_id<>?`, newOwnerID, photoID, newOwnerID)
	if err != nil {
		return fmt.Errorf("%w: failed to rebind photo: %v", common.ErrorStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 1 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `select count(*) from photos where id=?`, photoID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check photo: %w", err)
	}
	if exists == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// AdoptPlaceholder claims a photo captured before its entity existed. Photos
// already owned by something else are left alone, so re-saving an entity
// cannot pull a photo back from its post-sync owner.
func (r *SQLiteRepository) AdoptPlaceholder(ctx context.Context, photoID string, newOwnerID string) error {
	res, err := r.db.ExecContext(ctx,
		`update photos set owner_id=? where id=? and owner_id=?`, newOwnerID, photoID, common.PlaceholderOwner)
	if err != nil {
		return fmt.Errorf("%w: failed to adopt photo: %v", common.ErrorStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 1 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `select count(*) from photos where id=?`, photoID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check photo: %w", err)
	}
	if exists == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) RebindOwner(ctx context.Context, oldOwnerID string, newOwnerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`update photos set owner_id=? where owner_id=?`, newOwnerID, oldOwnerID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to rebind photos: %v", common.ErrorStorage, err)
	}
	return res.RowsAffected()
}

// Package photos provides the local blob store for captured photographs.
// Binary content is stored in SQLite rows addressable by photo id, with an
// owner id that is rebindable as the parent entity's identity settles
// (placeholder → local id → server id). Display handles derived from the
// stored bytes are owned entirely by the caller; the store never cleans
// them up.
package photos

import (
	"context"

	"github.com/inqbatorchris/fieldsync/internal/models"
)

// Repository describes blob-store operations for Photo records.
type Repository interface {
	// Save persists a photo record; failures wrap common.ErrorStorage.
	Save(ctx context.Context, photo *models.Photo) error

	// GetByID returns the photo, including its binary content, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Photo, error)

	// ListByOwner returns photos belonging to ownerID, oldest first,
	// without binary content.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error)

	// Rebind reassigns one photo to a new owner. Rebinding to the current
	// owner is a no-op, not an error. Unknown ids return common.ErrorNotFound.
	Rebind(ctx context.Context, photoID string, newOwnerID string) error

	// AdoptPlaceholder moves the photo to newOwnerID only if it is still
	// unassigned. Already-owned photos are a no-op; unknown ids return
	// common.ErrorNotFound.
	AdoptPlaceholder(ctx context.Context, photoID string, newOwnerID string) error

	// RebindOwner moves every photo from oldOwnerID to newOwnerID and
	// returns how many rows changed. Zero is not an error.
	RebindOwner(ctx context.Context, oldOwnerID string, newOwnerID string) (int64, error)
}

package entities

import (
	"context"

	"github.com/inqbatorchris/fieldsync/internal/models"
)

// Repository describes persistence operations for FieldEntity records.
// Implementations are backed by the local SQLite database.
type Repository interface {
	// Save inserts a new entity or updates an existing one by ID. The entity
	// must already carry a local id; failures wrap common.ErrorStorage.
	Save(ctx context.Context, entity *models.FieldEntity) error

	// GetByID returns an entity by its local id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.FieldEntity, error)

	// ListUnsynced returns entities with synced=0, ordered by creation time.
	// An empty entityType matches all types.
	ListUnsynced(ctx context.Context, entityType string) ([]*models.FieldEntity, error)

	// MarkSynced atomically records the server id and flips the synced flag.
	// Returns common.ErrorNotFound when the id is unknown.
	MarkSynced(ctx context.Context, id string, serverID string) error
}

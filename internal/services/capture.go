// Package services implements the capture API the UI layer consumes: saving
// field entities with their queued sync intent in one transaction, attaching
// photos before their entity exists, and reading back sync state.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inqbatorchris/fieldsync/internal/common"
	"github.com/inqbatorchris/fieldsync/internal/dbx"
	"github.com/inqbatorchris/fieldsync/internal/logging"
	"github.com/inqbatorchris/fieldsync/internal/models"
	"github.com/inqbatorchris/fieldsync/internal/repositories"
	"github.com/inqbatorchris/fieldsync/internal/repositories/entities"
	"github.com/inqbatorchris/fieldsync/internal/repositories/photos"
	"github.com/inqbatorchris/fieldsync/internal/repositories/queue"
)

// CaptureService is the write/read surface for captured field data. All
// writes go to the local database only; the sync engine moves them to the
// server later.
type CaptureService struct {
	repos *repositories.Repositories
	log   logging.Logger
}

// NewCaptureService builds a CaptureService over the repository set.
func NewCaptureService(repos *repositories.Repositories, log logging.Logger) *CaptureService {
	return &CaptureService{repos: repos, log: log}
}

// SaveEntity persists the entity and its sync intent atomically: the upsert,
// the adoption of referenced placeholder photos, and the queue entry (create
// on first save, update after) commit together or not at all. Assigns a
// local id when the entity has none.
func (s *CaptureService) SaveEntity(ctx context.Context, e *models.FieldEntity) error {
	if e.Type == "" {
		return fmt.Errorf("%w: entity type is required", common.ErrInvalidOperation)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	op := models.OperationCreate
	_, err := s.repos.Entities.GetByID(ctx, e.ID)
	switch {
	case err == nil:
		op = models.OperationUpdate
	case errors.Is(err, common.ErrorNotFound):
	default:
		return err
	}

	payload, err := models.SnapshotPayload(e)
	if err != nil {
		return fmt.Errorf("failed to snapshot entity: %w", err)
	}

	err = dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ents := entities.NewSQLiteRepository(tx)
		ph := photos.NewSQLiteRepository(tx)
		q := queue.NewSQLiteRepository(tx)

		if err := ents.Save(ctx, e); err != nil {
			return err
		}
		for _, photoID := range e.PhotoIDs {
			if err := ph.AdoptPlaceholder(ctx, photoID, e.ID); err != nil {
				return fmt.Errorf("photo %s: %w", photoID, err)
			}
		}
		_, err := q.Enqueue(ctx, e.Type, op, e.ID, payload)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Debug(ctx, "entity saved", "entity_id", e.ID, "operation", op)
	return nil
}

// AttachPhoto stores photo bytes locally and returns the record. An empty
// ownerID attaches the photo to the placeholder owner; SaveEntity adopts it
// once the entity referencing it is saved.
func (s *CaptureService) AttachPhoto(ctx context.Context, ownerID string, content []byte, filename, mimeType string) (*models.Photo, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: photo content is empty", common.ErrInvalidOperation)
	}
	if ownerID == "" {
		ownerID = common.PlaceholderOwner
	}
	p := models.NewPhoto(ownerID, content, filename, mimeType)
	if err := s.repos.Photos.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteEntity queues a delete for the entity. The local row is retained
// until the server confirms; nothing is removed here.
func (s *CaptureService) DeleteEntity(ctx context.Context, id string) error {
	e, err := s.repos.Entities.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.repos.Queue.Enqueue(ctx, e.Type, models.OperationDelete, e.ID, nil)
	return err
}

// ListUnsynced returns entities not yet accepted by the server, optionally
// filtered by type.
func (s *CaptureService) ListUnsynced(ctx context.Context, entityType string) ([]*models.FieldEntity, error) {
	return s.repos.Entities.ListUnsynced(ctx, entityType)
}

// GetSyncStatus derives the entity's sync state from its stored flags and
// queue history, with attempts and last error from the entry still in play.
func (s *CaptureService) GetSyncStatus(ctx context.Context, entityID string) (*models.SyncStatus, error) {
	e, err := s.repos.Entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repos.Queue.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	status := &models.SyncStatus{
		EntityID: e.ID,
		State:    models.DeriveState(e, entries),
		ServerID: e.ServerID,
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Status != models.StatusDone {
			status.Attempts = entries[i].Attempts
			status.LastError = entries[i].LastError
			break
		}
	}
	return status, nil
}

// GetPhoto returns the stored photo record including its bytes.
func (s *CaptureService) GetPhoto(ctx context.Context, photoID string) (*models.Photo, error) {
	return s.repos.Photos.GetByID(ctx, photoID)
}

// ListFailedEntries returns the queue entries needing user attention.
func (s *CaptureService) ListFailedEntries(ctx context.Context) ([]*models.QueueEntry, error) {
	return s.repos.Queue.ListFailed(ctx)
}

// RetryEntry puts a failed entry back in line with a fresh attempt budget.
func (s *CaptureService) RetryEntry(ctx context.Context, sequence int64) error {
	return s.repos.Queue.Requeue(ctx, sequence)
}

package queue

import (
	"context"
	"encoding/json"

	"github.com/inqbatorchris/fieldsync/internal/models"
)

// Repository describes operations on the durable sync queue.
type Repository interface {
	// Enqueue appends a pending entry with the next sequence number and
	// returns it. Failures wrap common.ErrorStorage.
	Enqueue(ctx context.Context, entityType string, op models.Operation, entityID string, payload json.RawMessage) (*models.QueueEntry, error)

	// NextReady returns the oldest pending entry with sequence greater than
	// afterSequence whose entity has no earlier not-yet-done entry. Returns
	// common.ErrorNotFound when nothing is ready.
	NextReady(ctx context.Context, afterSequence int64) (*models.QueueEntry, error)

	// Transition moves an entry to a new status, recording lastError
	// (empty to clear).
	Transition(ctx context.Context, sequence int64, status models.QueueStatus, lastError string) error

	// IncrementAttempts bumps the attempt counter; called before each
	// network submission so the count survives a crash mid-call.
	IncrementAttempts(ctx context.Context, sequence int64) error

	// Requeue returns a failed entry to pending with attempts reset; the
	// manual-retry path. Only failed entries can be requeued.
	Requeue(ctx context.Context, sequence int64) error

	// ResetInFlight returns all in_flight entries to pending and reports how
	// many were reset. Run at startup, before the first drain.
	ResetInFlight(ctx context.Context) (int64, error)

	// ListFailed returns failed entries, oldest first.
	ListFailed(ctx context.Context) ([]*models.QueueEntry, error)

	// ListByEntity returns every entry for the entity in sequence order.
	ListByEntity(ctx context.Context, entityID string) ([]*models.QueueEntry, error)

	// CountPending reports how many entries are still pending or in flight.
	CountPending(ctx context.Context) (int64, error)

	// PurgeDone deletes done entries and reports how many were removed.
	PurgeDone(ctx context.Context) (int64, error)
}

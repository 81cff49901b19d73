// Package syncer drives the sync queue to empty against the remote API.
//
// # Overview
//
// The Engine is triggered by the connectivity monitor, an explicit user
// action, or startup recovery. A drain walks the queue in sequence order,
// skips entries whose cross-entity dependencies have not synced yet,
// translates local ids to server ids, and submits each mutation with the
// entity's local id as an idempotency token. At most one drain runs at a
// time; concurrent triggers are dropped, not queued — the in-flight drain
// re-checks the queue until it is empty, so nothing is missed.
//
// # Failure policy
//
// Definite client errors (4xx) fail the entry permanently and surface it in
// the failed feed. Transient and ambiguous failures (5xx, timeouts) are
// retried with exponential backoff up to MaxAttempts, always with the same
// idempotency token — a timed-out create may have landed server-side, and
// the token is what makes the retry a duplicate-suppressed no-op. When
// connectivity itself is down, the drain aborts immediately and the
// remaining entries stay pending for the next connectivity event.
//
// # Concurrency
//
// The drain lock is in-process only; cross-process or cross-tab drains over
// one database file are not coordinated. This is a stated limitation of the
// design, not something handled silently.
package syncer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/inqbatorchris/fieldsync/internal/common"
	"github.com/inqbatorchris/fieldsync/internal/dbx"
	"github.com/inqbatorchris/fieldsync/internal/logging"
	"github.com/inqbatorchris/fieldsync/internal/models"
	"github.com/inqbatorchris/fieldsync/internal/remote"
	"github.com/inqbatorchris/fieldsync/internal/repositories/entities"
	"github.com/inqbatorchris/fieldsync/internal/repositories/photos"
	"github.com/inqbatorchris/fieldsync/internal/repositories/queue"
)

// Config holds the engine's tunables.
type Config struct {
	// MaxAttempts bounds submissions per entry per drain, including the
	// first one. Zero means the default of 3.
	MaxAttempts int

	// RetryBase is the first backoff interval; it doubles per retry.
	// Zero means the default of 500ms.
	RetryBase time.Duration

	// RetainCompleted keeps done queue entries instead of purging them at
	// the end of a drain. Synced entities are retained either way.
	RetainCompleted bool

	// RebindPhotosToServer moves a created entity's photos from its local id
	// to the server id, for remotes whose photo model is keyed by server id.
	RebindPhotosToServer bool
}

// Summary describes the outcome of one drain.
type Summary struct {
	Completed int
	Failed    int
	Skipped   int
	Aborted   bool
	Err       error
}

// Engine orchestrates queue draining. Construct with New and share one
// instance per database.
type Engine struct {
	cfg      Config
	db       *sql.DB
	entities entities.Repository
	photos   photos.Repository
	queue    queue.Repository
	remote   remote.Client
	log      logging.Logger

	drainMu sync.Mutex

	handlerMu sync.Mutex
	onDone    func(Summary)
}

// New builds an Engine over the given stores and remote client. db is the
// handle the stores share; it is needed to commit a create's local effects
// in one transaction.
func New(cfg Config, db *sql.DB, ents entities.Repository, ph photos.Repository, q queue.Repository, rc remote.Client, log logging.Logger) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	return &Engine{
		cfg:      cfg,
		db:       db,
		entities: ents,
		photos:   ph,
		queue:    q,
		remote:   rc,
		log:      log,
	}
}

// SetCompletionHandler registers fn to be called with each drain's summary,
// replacing whichever handler is currently registered. The engine always
// invokes the handler registered at drain end. A nil fn unregisters.
func (e *Engine) SetCompletionHandler(fn func(Summary)) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()
	e.onDone = fn
}

// Recover returns interrupted in_flight entries to pending. Call once at
// startup before the first drain; the idempotency token makes the re-send
// safe even if the interrupted request actually landed.
func (e *Engine) Recover(ctx context.Context) error {
	n, err := e.queue.ResetInFlight(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover queue: %w", err)
	}
	if n > 0 {
		e.log.Info(ctx, "recovered interrupted queue entries", "count", n)
	}
	return nil
}

// TriggerSync starts a drain in the background. A trigger while a drain is
// running is a no-op.
func (e *Engine) TriggerSync(ctx context.Context) {
	go func() {
		if _, err := e.Drain(ctx); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
			e.log.Error(ctx, "drain failed", "error", err)
		}
	}()
}

// Drain processes ready queue entries until the queue is empty or progress
// is blocked. Returns common.ErrSyncInProgress when another drain holds the
// lock.
func (e *Engine) Drain(ctx context.Context) (Summary, error) {
	if !e.drainMu.TryLock() {
		return Summary{}, common.ErrSyncInProgress
	}
	defer e.drainMu.Unlock()

	var s Summary
	defer e.notify(&s)

	// cursor over the current pass: entries skipped for unresolved
	// dependencies are left pending and revisited after the next success
	var after int64

loop:
	for {
		entry, err := e.queue.NextReady(ctx, after)
		if errors.Is(err, common.ErrorNotFound) {
			break
		}
		if err != nil {
			s.Err = err
			return s, err
		}

		payload, err := decodePayload(entry)
		if err != nil {
			e.failEntry(ctx, &s, entry, err)
			after = entry.Sequence
			continue
		}

		blocked, err := e.dependencyBlocked(ctx, payload)
		if err != nil {
			e.failEntry(ctx, &s, entry, err)
			after = entry.Sequence
			continue
		}
		if blocked {
			s.Skipped++
			after = entry.Sequence
			continue
		}

		if err := e.translate(ctx, payload); err != nil {
			e.failEntry(ctx, &s, entry, err)
			after = entry.Sequence
			continue
		}

		if err := e.queue.Transition(ctx, entry.Sequence, models.StatusInFlight, ""); err != nil {
			s.Err = err
			return s, err
		}

		submitErr := e.submit(ctx, entry, payload)
		switch {
		case submitErr == nil:
			if err := e.queue.Transition(ctx, entry.Sequence, models.StatusDone, ""); err != nil {
				s.Err = err
				return s, err
			}
			s.Completed++
			// a completed create may unblock dependents earlier in the pass
			after = 0

		case remote.IsUnavailable(submitErr):
			// connectivity is gone: restore the entry and resume on the
			// next connectivity event
			if err := e.queue.Transition(ctx, entry.Sequence, models.StatusPending, submitErr.Error()); err != nil {
				s.Err = err
				return s, err
			}
			s.Aborted = true
			e.log.Warn(ctx, "drain aborted, remote unreachable",
				"sequence", entry.Sequence, "error", submitErr)
			break loop

		default:
			// permanent 4xx, or transient retries exhausted
			e.failEntry(ctx, &s, entry, submitErr)
			after = entry.Sequence
		}
	}

	if !e.cfg.RetainCompleted {
		if _, err := e.queue.PurgeDone(ctx); err != nil {
			e.log.Error(ctx, "failed to purge completed entries", "error", err)
		}
	}

	e.log.Info(ctx, "drain finished",
		"completed", s.Completed, "failed", s.Failed, "skipped", s.Skipped, "aborted", s.Aborted)
	return s, nil
}

// submit sends one entry, retrying transient failures with exponential
// backoff and the same idempotency token. Local state recording for creates
// happens here so a successful entry is fully applied before it turns done.
func (e *Engine) submit(ctx context.Context, entry *models.QueueEntry, payload *models.EntityPayload) error {
	var result *remote.CreateResult

	backoff := retry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), retry.NewExponential(e.cfg.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		// persist the attempt before the call so a crash mid-request is
		// visible in the attempt counter
		if err := e.queue.IncrementAttempts(ctx, entry.Sequence); err != nil {
			return err
		}

		var callErr error
		result, callErr = e.dispatch(ctx, entry, payload)
		if callErr == nil {
			return nil
		}
		if remote.IsUnavailable(callErr) || remote.IsPermanent(callErr) {
			return callErr
		}
		if remote.IsTransient(callErr) {
			e.log.Warn(ctx, "retryable sync failure",
				"sequence", entry.Sequence, "entity_id", entry.EntityID, "error", callErr)
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		return err
	}

	if entry.Operation == models.OperationCreate {
		return e.recordCreate(ctx, entry, result)
	}
	return nil
}

// dispatch performs the remote call for the entry's operation.
func (e *Engine) dispatch(ctx context.Context, entry *models.QueueEntry, payload *models.EntityPayload) (*remote.CreateResult, error) {
	switch entry.Operation {
	case models.OperationCreate:
		return e.remote.CreateEntity(ctx, entry.EntityType, entry.EntityID, payload)

	case models.OperationUpdate:
		serverID, err := e.serverIDFor(ctx, entry.EntityID)
		if err != nil {
			return nil, err
		}
		return nil, e.remote.UpdateEntity(ctx, entry.EntityType, serverID, entry.EntityID, payload)

	case models.OperationDelete:
		serverID, err := e.serverIDFor(ctx, entry.EntityID)
		if err != nil {
			return nil, err
		}
		return nil, e.remote.DeleteEntity(ctx, entry.EntityType, serverID, entry.EntityID)

	default:
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidOperation, entry.Operation)
	}
}

// recordCreate applies a successful create locally: server id on the entity
// and photo ownership moved over when the remote model requires it, in one
// transaction so a crash cannot leave the entity synced with its photos
// stranded on the local id.
func (e *Engine) recordCreate(ctx context.Context, entry *models.QueueEntry, result *remote.CreateResult) error {
	if result == nil || result.ServerID == "" {
		return fmt.Errorf("create for %s returned no server id", entry.EntityID)
	}
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := entities.NewSQLiteRepository(tx).MarkSynced(ctx, entry.EntityID, result.ServerID); err != nil {
			return fmt.Errorf("failed to record server id: %w", err)
		}
		if e.cfg.RebindPhotosToServer {
			if _, err := photos.NewSQLiteRepository(tx).RebindOwner(ctx, entry.EntityID, result.ServerID); err != nil {
				return fmt.Errorf("failed to rebind photos: %w", err)
			}
		}
		return nil
	})
}

// RetryEntry is the manual remediation path for a failed entry: back to
// pending with a fresh attempt budget, then a background drain.
func (e *Engine) RetryEntry(ctx context.Context, sequence int64) error {
	if err := e.queue.Requeue(ctx, sequence); err != nil {
		return err
	}
	e.TriggerSync(ctx)
	return nil
}

// dependencyBlocked reports whether the payload references another entity's
// local id that has not synced yet. Such entries stay pending for this pass
// without blocking independent entities.
func (e *Engine) dependencyBlocked(ctx context.Context, payload *models.EntityPayload) (bool, error) {
	if payload.ParentID == nil {
		return false, nil
	}
	parent, err := e.entities.GetByID(ctx, *payload.ParentID)
	if errors.Is(err, common.ErrorNotFound) {
		return false, fmt.Errorf("payload references unknown entity %s", *payload.ParentID)
	}
	if err != nil {
		return false, err
	}
	return !parent.SyncedToServer, nil
}

// translate resolves already-synced local-id references to server ids.
func (e *Engine) translate(ctx context.Context, payload *models.EntityPayload) error {
	if payload.ParentID == nil {
		return nil
	}
	serverID, err := e.serverIDFor(ctx, *payload.ParentID)
	if err != nil {
		return err
	}
	payload.ParentServerID = &serverID
	return nil
}

func (e *Engine) serverIDFor(ctx context.Context, entityID string) (string, error) {
	entity, err := e.entities.GetByID(ctx, entityID)
	if err != nil {
		return "", err
	}
	if !entity.SyncedToServer || entity.ServerID == nil {
		return "", fmt.Errorf("entity %s has no server id yet", entityID)
	}
	return *entity.ServerID, nil
}

func (e *Engine) failEntry(ctx context.Context, s *Summary, entry *models.QueueEntry, cause error) {
	if err := e.queue.Transition(ctx, entry.Sequence, models.StatusFailed, cause.Error()); err != nil {
		e.log.Error(ctx, "failed to mark entry failed", "sequence", entry.Sequence, "error", err)
		return
	}
	s.Failed++
	e.log.Warn(ctx, "queue entry failed",
		"sequence", entry.Sequence, "entity_id", entry.EntityID, "error", cause)
}

func (e *Engine) notify(s *Summary) {
	e.handlerMu.Lock()
	handler := e.onDone
	e.handlerMu.Unlock()
	if handler != nil {
		handler(*s)
	}
}

func decodePayload(entry *models.QueueEntry) (*models.EntityPayload, error) {
	payload := &models.EntityPayload{}
	if len(entry.Payload) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(entry.Payload, payload); err != nil {
		return nil, fmt.Errorf("malformed payload snapshot: %w", err)
	}
	return payload, nil
}

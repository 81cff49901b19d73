// Package remote is the client for the remote system of record. The API
// itself is an external collaborator: this package only shapes requests,
// carries the idempotency token and classifies failures for the sync engine.
package remote

import (
	"context"
	"encoding/json"
)

// CreateResult is the remote response to a create. The server may cascade
// side effects (dependentRecords); the engine tolerates and ignores them.
type CreateResult struct {
	ServerID         string          `json:"serverId"`
	DependentRecords json.RawMessage `json:"dependentRecords,omitempty"`
}

// Client is the remote API surface the sync engine drives. Every mutation
// carries idemKey — the entity's stable local id — so a retried request is
// deduplicated server-side even when the original response was lost.
type Client interface {
	// CreateEntity posts a new entity of the given type.
	CreateEntity(ctx context.Context, entityType string, idemKey string, payload any) (*CreateResult, error)

	// UpdateEntity patches an existing entity by its server id.
	UpdateEntity(ctx context.Context, entityType string, serverID string, idemKey string, payload any) error

	// DeleteEntity removes an entity by its server id.
	DeleteEntity(ctx context.Context, entityType string, serverID string, idemKey string) error

	// Ping is a lightweight reachability probe.
	Ping(ctx context.Context) error
}

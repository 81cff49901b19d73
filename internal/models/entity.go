// Package models defines the field-capture domain types: entities recorded
// by field operators, their photos, and the sync queue rows that carry
// mutation intent to the remote system of record.
package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldEntity is a record captured by a field operator, potentially while
// offline, representing a physical asset such as a fiber chamber.
//
// ID is a local UUID assigned at first save and never changes, even after
// the entity syncs; it doubles as the idempotency token for remote calls.
// ServerID is non-nil exactly when SyncedToServer is true.
type FieldEntity struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	Network        string    `json:"network"`
	Notes          string    `json:"notes"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	PhotoIDs       []string  `json:"photoIds"`
	ParentID       *string   `json:"parentId,omitempty"`
	SyncedToServer bool      `json:"syncedToServer"`
	ServerID       *string   `json:"serverId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EntityTypeChamber is the entity type captured by the initial rollout;
// additional types flow through the same pipeline unchanged.
const EntityTypeChamber = "chamber"

// NewFieldEntity returns a draft entity with a fresh local id.
func NewFieldEntity(entityType string) *FieldEntity {
	return &FieldEntity{
		ID:        uuid.NewString(),
		Type:      entityType,
		CreatedAt: time.Now().UTC(),
	}
}

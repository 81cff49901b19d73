package models

import (
	"encoding/json"
	"time"
)

// Operation is the kind of mutation a queue entry carries.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// QueueStatus is the persisted state of a queue entry.
type QueueStatus string

const (
	StatusPending  QueueStatus = "pending"
	StatusInFlight QueueStatus = "in_flight"
	StatusDone     QueueStatus = "done"
	StatusFailed   QueueStatus = "failed"
)

// QueueEntry is one row of the durable mutation log. Sequence is assigned by
// the store and is strictly monotonic; for a fixed EntityID, entries are
// applied in ascending Sequence order, and an update or delete is never
// applied before the entity's create has reached done.
type QueueEntry struct {
	Sequence   int64           `json:"sequence"`
	EntityType string          `json:"entityType"`
	Operation  Operation       `json:"operation"`
	EntityID   string          `json:"entityId"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"lastError,omitempty"`
	Status     QueueStatus     `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// EntityPayload is the snapshot of an entity recorded at enqueue time and
// submitted to the remote API. ParentID is a cross-entity reference by local
// id; ParentServerID is filled in by the engine once the parent has synced,
// just before submission.
type EntityPayload struct {
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	Network        string   `json:"network"`
	Notes          string   `json:"notes"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	PhotoIDs       []string `json:"photoIds,omitempty"`
	ParentID       *string  `json:"parentId,omitempty"`
	ParentServerID *string  `json:"parentServerId,omitempty"`
}

// SnapshotPayload captures the entity's current attributes for the queue.
func SnapshotPayload(e *FieldEntity) (json.RawMessage, error) {
	p := EntityPayload{
		Type:     e.Type,
		Name:     e.Name,
		Status:   e.Status,
		Network:  e.Network,
		Notes:    e.Notes,
		Lat:      e.Lat,
		Lng:      e.Lng,
		PhotoIDs: e.PhotoIDs,
		ParentID: e.ParentID,
	}
	return json.Marshal(p)
}

package models

// SyncState is the user-visible lifecycle of a field entity:
// draft → queued → syncing → synced, or → failed with a manual path back to
// queued. Synced is terminal; failed is never auto-discarded.
type SyncState string

const (
	StateDraft   SyncState = "draft"
	StateQueued  SyncState = "queued"
	StateSyncing SyncState = "syncing"
	StateSynced  SyncState = "synced"
	StateFailed  SyncState = "failed"
)

// SyncStatus is the status feed exposed to UI collaborators for one entity.
type SyncStatus struct {
	EntityID  string    `json:"entityId"`
	State     SyncState `json:"state"`
	ServerID  *string   `json:"serverId,omitempty"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
}

// DeriveState computes the entity state machine position from the entity row
// and its not-yet-purged queue entries.
func DeriveState(e *FieldEntity, entries []*QueueEntry) SyncState {
	var state SyncState
	switch {
	case e.SyncedToServer:
		state = StateSynced
	default:
		state = StateDraft
	}

	for _, entry := range entries {
		switch entry.Status {
		case StatusFailed:
			return StateFailed
		case StatusInFlight:
			state = StateSyncing
		case StatusPending:
			if state != StateSyncing {
				state = StateQueued
			}
		}
	}
	return state
}

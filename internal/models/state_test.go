package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name    string
		entity  *FieldEntity
		entries []*QueueEntry
		want    SyncState
	}{
		{
			name:   "no queue rows, unsynced",
			entity: &FieldEntity{},
			want:   StateDraft,
		},
		{
			name:    "pending create",
			entity:  &FieldEntity{},
			entries: []*QueueEntry{{Status: StatusPending}},
			want:    StateQueued,
		},
		{
			name:    "in-flight wins over pending",
			entity:  &FieldEntity{},
			entries: []*QueueEntry{{Status: StatusInFlight}, {Status: StatusPending}},
			want:    StateSyncing,
		},
		{
			name:    "failed wins over everything",
			entity:  &FieldEntity{},
			entries: []*QueueEntry{{Status: StatusInFlight}, {Status: StatusFailed}},
			want:    StateFailed,
		},
		{
			name:   "synced with purged queue",
			entity: &FieldEntity{SyncedToServer: true, ServerID: strPtr("srv-1")},
			want:   StateSynced,
		},
		{
			name:    "synced entity with a pending update is queued again",
			entity:  &FieldEntity{SyncedToServer: true, ServerID: strPtr("srv-1")},
			entries: []*QueueEntry{{Status: StatusDone}, {Status: StatusPending}},
			want:    StateQueued,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveState(tt.entity, tt.entries))
		})
	}
}

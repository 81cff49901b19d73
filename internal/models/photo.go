package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is a captured photograph stored as a blob, addressable independently
// of the entity it will eventually belong to. OwnerID starts as either an
// entity local id or common.PlaceholderOwner and is rebindable when the
// owning entity's identity changes (placeholder to local id, local id to
// server id).
type Photo struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   []byte    `json:"-"`
	MimeType  string    `json:"mimeType"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPhoto builds a photo record with a fresh id.
func NewPhoto(ownerID string, content []byte, filename, mimeType string) *Photo {
	return &Photo{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Content:   content,
		MimeType:  mimeType,
		Filename:  filename,
		CreatedAt: time.Now().UTC(),
	}
}

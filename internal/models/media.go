package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaObject is a stored binary referenced by a journal entry. Reference is
// the opaque key handed out to clients; PublicID and URL identify the blob in
// the storage backend and never leave the server.
type MediaObject struct {
	Reference    uuid.UUID `json:"reference"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	ResourceType string    `json:"resource_type"`
	PublicID     string    `json:"-"`
	URL          string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

package handlers

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/google/uuid"

	"github.com/schemadesign/glassjournal-backend/internal/config"
	"github.com/schemadesign/glassjournal-backend/internal/models"
	"github.com/schemadesign/glassjournal-backend/internal/services"
)

// MediaStore is the part of the media service the handlers use.
type MediaStore interface {
	Store(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*models.MediaObject, error)
	Resolve(ctx context.Context, reference uuid.UUID) (*models.MediaObject, error)
	Open(ctx context.Context, media *models.MediaObject) (io.ReadCloser, error)
	Destroy(ctx context.Context, media *models.MediaObject) error
}

var (
	cfg          *config.Config
	mediaService MediaStore
	broadcaster  *services.Broadcaster
	credResolver *services.CredentialResolver
)

// Init wires the handler package to its services. media may be nil when the
// storage backend is not configured; upload and serve then refuse with a 500.
func Init(c *config.Config, media MediaStore, b *services.Broadcaster, resolver *services.CredentialResolver) {
	cfg = c
	mediaService = media
	broadcaster = b
	credResolver = resolver
}

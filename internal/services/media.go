package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/schemadesign/glassjournal-backend/internal/database"
	"github.com/schemadesign/glassjournal-backend/internal/models"
)

// MediaService stores and serves journal binaries. Bytes live in Cloudinary;
// the media_objects table maps opaque references to backend locations.
type MediaService struct {
	cld   *cloudinary.Cloudinary
	fetch *http.Client
}

func NewMediaService(cloudName, apiKey, apiSecret string) (*MediaService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &MediaService{
		cld:   cld,
		fetch: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Store uploads the file to the backend and returns the media record that
// should be persisted alongside the journal entry. The record is not written
// to the database here; the journal create transaction owns that.
func (s *MediaService) Store(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*models.MediaObject, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	uploadResult, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto", // Automatically detect image, video, or raw
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &models.MediaObject{
		Reference:    uuid.New(),
		Filename:     fileHeader.Filename,
		ContentType:  contentType,
		SizeBytes:    fileHeader.Size,
		ResourceType: uploadResult.ResourceType,
		PublicID:     uploadResult.PublicID,
		URL:          uploadResult.SecureURL,
	}, nil
}

// Resolve looks up a media record by its opaque reference.
func (s *MediaService) Resolve(ctx context.Context, reference uuid.UUID) (*models.MediaObject, error) {
	var media models.MediaObject
	err := database.PostgresDB.QueryRowContext(ctx,
		`SELECT reference, filename, content_type, size_bytes, resource_type, public_id, url, created_at
		 FROM media_objects WHERE reference = $1`, reference).
		Scan(&media.Reference, &media.Filename, &media.ContentType, &media.SizeBytes,
			&media.ResourceType, &media.PublicID, &media.URL, &media.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch media record: %w", err)
	}
	return &media, nil
}

// Open returns a streaming reader over the stored bytes. The caller must
// close it. Nothing is buffered; the body streams straight from the backend.
func (s *MediaService) Open(ctx context.Context, media *models.MediaObject) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", media.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.fetch.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media fetch failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("media backend returned %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Destroy releases the backing binary in the storage backend.
func (s *MediaService) Destroy(ctx context.Context, media *models.MediaObject) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     media.PublicID,
		ResourceType: media.ResourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to destroy media %s: %w", media.Reference, err)
	}
	return nil
}

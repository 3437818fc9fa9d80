package handlers

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/schemadesign/glassjournal-backend/internal/config"
	"github.com/schemadesign/glassjournal-backend/internal/database"
	"github.com/schemadesign/glassjournal-backend/internal/models"
	"github.com/schemadesign/glassjournal-backend/internal/services"
)

// stubMediaStore stores nothing; it hands out media records and tracks
// released blobs.
type stubMediaStore struct {
	stored    *models.MediaObject
	destroyed bool
}

func (s *stubMediaStore) Store(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*models.MediaObject, error) {
	s.stored = &models.MediaObject{
		Reference:    uuid.New(),
		Filename:     fileHeader.Filename,
		ContentType:  "video/mp4",
		SizeBytes:    fileHeader.Size,
		ResourceType: "video",
		PublicID:     folder + "/stub",
		URL:          "https://res.example.com/" + folder + "/stub.mp4",
	}
	return s.stored, nil
}

func (s *stubMediaStore) Resolve(ctx context.Context, reference uuid.UUID) (*models.MediaObject, error) {
	return nil, services.ErrNotFound
}

func (s *stubMediaStore) Open(ctx context.Context, media *models.MediaObject) (io.ReadCloser, error) {
	return nil, services.ErrNotFound
}

func (s *stubMediaStore) Destroy(ctx context.Context, media *models.MediaObject) error {
	s.destroyed = true
	return nil
}

func setupUploadPipeline(t *testing.T, withTables bool) *stubMediaStore {
	t.Helper()

	mr := miniredis.RunT(t)
	prevRedis := database.RedisClient
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		database.RedisClient.Close()
		database.RedisClient = prevRedis
	})

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if withTables {
		schema := []string{
			`CREATE TABLE media_objects (
				reference TEXT PRIMARY KEY,
				filename TEXT NOT NULL,
				content_type TEXT NOT NULL,
				size_bytes INTEGER NOT NULL DEFAULT 0,
				resource_type TEXT NOT NULL DEFAULT 'video',
				public_id TEXT NOT NULL,
				url TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE journals (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				category TEXT NOT NULL,
				emotion TEXT NOT NULL,
				lat REAL,
				lon REAL,
				media_ref TEXT NOT NULL
			)`,
		}
		for _, query := range schema {
			if _, err := db.Exec(query); err != nil {
				t.Fatalf("failed to create schema: %v", err)
			}
		}
	}
	prevJournals := services.Journals
	services.Journals = &services.JournalStore{DB: db}
	t.Cleanup(func() {
		services.Journals = prevJournals
		db.Close()
	})

	media := &stubMediaStore{}
	prevCfg, prevMedia := cfg, mediaService
	Init(config.Load(), media, nil, nil)
	t.Cleanup(func() {
		cfg = prevCfg
		mediaService = prevMedia
	})
	return media
}

func completeUpload(t *testing.T, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	uploadURL, err := services.IssueUploadTicket(context.Background(), "")
	if err != nil {
		t.Fatalf("IssueUploadTicket error: %v", err)
	}
	ticket := strings.SplitN(uploadURL, "ticket=", 2)[1]

	req := newUploadRequest(t, true, fields)
	req.URL.RawQuery = "ticket=" + ticket
	w := httptest.NewRecorder()
	CompleteUpload(w, req)
	return w
}

func TestCompleteUploadPersistsEntry(t *testing.T) {
	media := setupUploadPipeline(t, true)

	w := completeUpload(t, map[string]string{
		"userId":   "u1",
		"category": "daily",
		"emotion":  "happy",
		"lat":      "1.5",
		"lon":      "-2.25",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if media.stored == nil {
		t.Fatal("expected the binary to be stored")
	}
	if body := strings.TrimSpace(w.Body.String()); body != media.stored.Reference.String() {
		t.Errorf("expected media reference body, got %q", body)
	}

	entries, err := services.Journals.ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one persisted entry, got %d", len(entries))
	}
	if entries[0].MediaRef != media.stored.Reference {
		t.Errorf("entry references %s, stored %s", entries[0].MediaRef, media.stored.Reference)
	}
	if media.destroyed {
		t.Error("successful upload must not release the blob")
	}
}

func TestCompleteUploadRejectsReplayedTicket(t *testing.T) {
	setupUploadPipeline(t, true)

	uploadURL, err := services.IssueUploadTicket(context.Background(), "")
	if err != nil {
		t.Fatalf("IssueUploadTicket error: %v", err)
	}
	ticket := strings.SplitN(uploadURL, "ticket=", 2)[1]
	fields := map[string]string{"userId": "u1", "category": "daily", "emotion": "happy"}

	req := newUploadRequest(t, true, fields)
	req.URL.RawQuery = "ticket=" + ticket
	w := httptest.NewRecorder()
	CompleteUpload(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on first use, got %d", w.Code)
	}

	replay := newUploadRequest(t, true, fields)
	replay.URL.RawQuery = "ticket=" + ticket
	w = httptest.NewRecorder()
	CompleteUpload(w, replay)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 on replayed ticket, got %d", w.Code)
	}
}

func TestCompleteUploadReleasesBlobWhenPersistFails(t *testing.T) {
	// No tables: the create transaction fails after the binary is stored.
	media := setupUploadPipeline(t, false)

	w := completeUpload(t, map[string]string{
		"userId":   "u1",
		"category": "daily",
		"emotion":  "happy",
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if media.stored == nil {
		t.Fatal("expected the binary to have been stored before the failure")
	}
	if !media.destroyed {
		t.Error("expected the orphaned blob to be released")
	}
}

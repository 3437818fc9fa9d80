package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schemadesign/glassjournal-backend/internal/database"
	"github.com/schemadesign/glassjournal-backend/internal/models"
)

// ErrNotFound is returned when a journal entry or media object does not exist
// (or is not owned by the requesting user).
var ErrNotFound = errors.New("not found")

// JournalStore persists journal entries and their media records. DB overrides
// the shared connection when set.
type JournalStore struct {
	DB *sql.DB
}

// Global journal store instance
var Journals = &JournalStore{}

func (s *JournalStore) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return database.PostgresDB
}

// Create persists a journal entry and its media record in one transaction.
// The binary itself is already durable in the storage backend when this is
// called. Assigns the entry id and creation timestamp.
func (s *JournalStore) Create(ctx context.Context, entry *models.JournalEntry, media *models.MediaObject) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	entry.MediaRef = media.Reference

	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO media_objects (reference, filename, content_type, size_bytes, resource_type, public_id, url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		media.Reference, media.Filename, media.ContentType, media.SizeBytes,
		media.ResourceType, media.PublicID, media.URL, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert media record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO journals (id, owner_id, created_at, category, emotion, lat, lon, media_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.OwnerID, entry.CreatedAt, entry.Category, entry.Emotion,
		entry.Lat, entry.Lon, entry.MediaRef)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	return tx.Commit()
}

// ListByOwner returns the owner's entries, newest first. Each call
// re-queries; nothing is cached.
func (s *JournalStore) ListByOwner(ctx context.Context, ownerID string) ([]models.JournalEntry, error) {
	rows, err := s.db().QueryContext(ctx,
		`SELECT id, owner_id, created_at, category, emotion, lat, lon, media_ref
		 FROM journals WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.JournalEntry, 0)
	for rows.Next() {
		var entry models.JournalEntry
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.CreatedAt,
			&entry.Category, &entry.Emotion, &entry.Lat, &entry.Lon, &entry.MediaRef); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get fetches one entry by id.
func (s *JournalStore) Get(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.db().QueryRowContext(ctx,
		`SELECT id, owner_id, created_at, category, emotion, lat, lon, media_ref
		 FROM journals WHERE id = $1`, id).
		Scan(&entry.ID, &entry.OwnerID, &entry.CreatedAt,
			&entry.Category, &entry.Emotion, &entry.Lat, &entry.Lon, &entry.MediaRef)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch journal entry: %w", err)
	}
	return &entry, nil
}

// Delete removes an entry and its media record, verifying that ownerID owns
// the entry. Returns the removed media object so the caller can release the
// backing binary. ErrNotFound covers both a missing entry and an entry owned
// by someone else.
func (s *JournalStore) Delete(ctx context.Context, id uuid.UUID, ownerID string) (*models.MediaObject, error) {
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var media models.MediaObject
	err = tx.QueryRowContext(ctx,
		`SELECT m.reference, m.filename, m.content_type, m.size_bytes, m.resource_type, m.public_id, m.url, m.created_at
		 FROM journals j JOIN media_objects m ON m.reference = j.media_ref
		 WHERE j.id = $1 AND j.owner_id = $2`, id, ownerID).
		Scan(&media.Reference, &media.Filename, &media.ContentType, &media.SizeBytes,
			&media.ResourceType, &media.PublicID, &media.URL, &media.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch journal entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM journals WHERE id = $1 AND owner_id = $2`, id, ownerID); err != nil {
		return nil, fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM media_objects WHERE reference = $1`, media.Reference); err != nil {
		return nil, fmt.Errorf("failed to delete media record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &media, nil
}

package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Media objects table: one row per stored binary. The reference is the
		// opaque key handed out to clients; public_id/url belong to the backend.
		`CREATE TABLE IF NOT EXISTS media_objects (
			reference UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			resource_type TEXT NOT NULL DEFAULT 'video',
			public_id TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Journals table: one row per recorded moment. media_ref is assigned at
		// creation and never reassigned.
		`CREATE TABLE IF NOT EXISTS journals (
			id UUID PRIMARY KEY,
			owner_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			category VARCHAR(255) NOT NULL,
			emotion VARCHAR(255) NOT NULL,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			media_ref UUID NOT NULL REFERENCES media_objects(reference)
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_journals_owner_id ON journals(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_created_at ON journals(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_media_ref ON journals(media_ref)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}

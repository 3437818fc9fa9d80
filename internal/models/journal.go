package models

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry represents one recorded moment: a short video plus the context
// it was captured in. The media reference is assigned at creation and never
// reassigned afterwards.
type JournalEntry struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Category  string    `json:"category"`
	Emotion   string    `json:"emotion"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
	MediaRef  uuid.UUID `json:"media_ref"`
}

// HasLocation reports whether the entry carries a geolocation.
func (e *JournalEntry) HasLocation() bool {
	return e.Lat != nil && e.Lon != nil
}

// View returns the template-facing projection of the entry.
func (e *JournalEntry) View() map[string]interface{} {
	view := map[string]interface{}{
		"key":       e.ID.String(),
		"created":   e.CreatedAt,
		"category":  e.Category,
		"emotion":   e.Emotion,
		"video_key": e.MediaRef.String(),
	}
	if e.HasLocation() {
		view["location"] = map[string]interface{}{
			"lat": *e.Lat,
			"lon": *e.Lon,
		}
	}
	return view
}

// JSON returns the machine-readable projection of the entry: millisecond-epoch
// creation time, nullable location and a serve URL for the media reference.
func (e *JournalEntry) JSON() map[string]interface{} {
	location := map[string]interface{}{
		"lat": nil,
		"lon": nil,
	}
	if e.HasLocation() {
		location["lat"] = *e.Lat
		location["lon"] = *e.Lon
	}
	return map[string]interface{}{
		"created":   e.CreatedAt.UnixMilli(),
		"category":  e.Category,
		"emotion":   e.Emotion,
		"location":  location,
		"video_url": "/serve/" + e.MediaRef.String(),
	}
}

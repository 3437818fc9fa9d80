package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func floatPtr(f float64) *float64 { return &f }

func TestJournalEntryJSONProjection(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	entry := &JournalEntry{
		ID:        uuid.New(),
		OwnerID:   "u1",
		CreatedAt: created,
		Category:  "joy",
		Emotion:   "happy",
		Lat:       floatPtr(1.5),
		Lon:       floatPtr(-2.25),
		MediaRef:  uuid.MustParse("c6a05967-3ba0-4aee-9d92-15cbcfd4f2a4"),
	}

	projection := entry.JSON()

	if got := projection["created"]; got != created.UnixMilli() {
		t.Errorf("expected created %d, got %v", created.UnixMilli(), got)
	}
	if projection["category"] != "joy" || projection["emotion"] != "happy" {
		t.Errorf("unexpected category/emotion: %v / %v", projection["category"], projection["emotion"])
	}
	if projection["video_url"] != "/serve/c6a05967-3ba0-4aee-9d92-15cbcfd4f2a4" {
		t.Errorf("unexpected video_url %v", projection["video_url"])
	}

	// Round-trip through JSON encoding: location must survive as numbers.
	data, err := json.Marshal(projection)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Created  int64 `json:"created"`
		Location struct {
			Lat *float64 `json:"lat"`
			Lon *float64 `json:"lon"`
		} `json:"location"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Created != created.UnixMilli() {
		t.Errorf("expected created %d after round trip, got %d", created.UnixMilli(), decoded.Created)
	}
	if decoded.Location.Lat == nil || *decoded.Location.Lat != 1.5 {
		t.Errorf("expected lat 1.5, got %v", decoded.Location.Lat)
	}
	if decoded.Location.Lon == nil || *decoded.Location.Lon != -2.25 {
		t.Errorf("expected lon -2.25, got %v", decoded.Location.Lon)
	}
}

func TestJournalEntryJSONProjectionWithoutLocation(t *testing.T) {
	entry := &JournalEntry{
		ID:        uuid.New(),
		OwnerID:   "u1",
		CreatedAt: time.Now(),
		Category:  "test",
		Emotion:   "testemotion",
		MediaRef:  uuid.New(),
	}

	projection := entry.JSON()
	location, ok := projection["location"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected location map, got %T", projection["location"])
	}
	if location["lat"] != nil || location["lon"] != nil {
		t.Errorf("expected null lat/lon, got %v/%v", location["lat"], location["lon"])
	}
}

func TestJournalEntryView(t *testing.T) {
	entry := &JournalEntry{
		ID:        uuid.New(),
		OwnerID:   "u1",
		CreatedAt: time.Now(),
		Category:  "joy",
		Emotion:   "happy",
		MediaRef:  uuid.New(),
	}

	view := entry.View()
	if view["key"] != entry.ID.String() {
		t.Errorf("expected key %s, got %v", entry.ID.String(), view["key"])
	}
	if view["video_key"] != entry.MediaRef.String() {
		t.Errorf("expected video_key %s, got %v", entry.MediaRef.String(), view["video_key"])
	}
	if _, present := view["location"]; present {
		t.Error("expected no location key for entry without geolocation")
	}
}

func TestBroadcastResultSummary(t *testing.T) {
	result := BroadcastResult{Success: 3, Failure: 1, Attempted: 4, Ceiling: 10}
	if got := result.Summary(); got != "Successfully sent cards to 3 users (1 failed)." {
		t.Errorf("unexpected summary %q", got)
	}

	refused := BroadcastResult{Attempted: 12, Ceiling: 10, QuotaExceeded: true}
	if got := refused.Summary(); got != "Total user count is 12. Aborting broadcast to save your quota" {
		t.Errorf("unexpected quota summary %q", got)
	}
}

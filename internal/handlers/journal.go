package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schemadesign/glassjournal-backend/internal/middleware"
	"github.com/schemadesign/glassjournal-backend/internal/services"
	"github.com/schemadesign/glassjournal-backend/internal/timeline"
)

// journalMailboxKey scopes journal status messages away from the main
// endpoint's messages for the same user.
func journalMailboxKey(userID string) string {
	return userID + "_journal"
}

// ListJournal handles GET /journal: the owner's entries newest first, the
// drained status message and a fresh upload ticket URL.
func ListJournal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	message, err := services.Mailbox.TakeAndClear(ctx, journalMailboxKey(userID))
	if err != nil {
		log.Printf("Failed to read status mailbox for user %s: %v", userID, err)
	}

	entries, err := services.Journals.ListByOwner(ctx, userID)
	if err != nil {
		log.Printf("Failed to list journal entries for user %s: %v", userID, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Failed to list journal entries",
		})
		return
	}

	journals := make([]map[string]interface{}, 0, len(entries))
	for i := range entries {
		journals = append(journals, entries[i].View())
	}

	response := map[string]interface{}{
		"success":  true,
		"user_id":  userID,
		"journals": journals,
	}
	if message != "" {
		response["message"] = message
	}
	if uploadURL, err := services.IssueUploadTicket(ctx, cfg.Host); err != nil {
		log.Printf("Failed to issue upload ticket: %v", err)
	} else {
		response["upload_url"] = uploadURL
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ListJournalJSON handles GET /journal.json: the bare machine-readable
// projection consumed by the device app.
func ListJournalJSON(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	entries, err := services.Journals.ListByOwner(ctx, userID)
	if err != nil {
		log.Printf("Failed to list journal entries for user %s: %v", userID, err)
		http.Error(w, "Failed to list journal entries", http.StatusInternalServerError)
		return
	}

	projections := make([]map[string]interface{}, 0, len(entries))
	for i := range entries {
		projections = append(projections, entries[i].JSON())
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projections)
}

// JournalOperation handles POST /journal. Like the main endpoint: run the
// operation, store the status message, redirect back.
func JournalOperation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	client := middleware.TimelineClient(r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	operation := r.FormValue("operation")
	var message string
	switch operation {
	case "sendPrompt":
		message = sendPrompt(ctx, client, userID)
	default:
		message = operation + " is not yet implemented"
	}

	if err := services.Mailbox.Set(ctx, journalMailboxKey(userID), message, services.DefaultFlashTTL); err != nil {
		log.Printf("Failed to store status message for user %s: %v", userID, err)
	}
	http.Redirect(w, r, "/journal", http.StatusSeeOther)
}

// sendPrompt inserts the "time to record" card that deep-links back into the
// device app.
func sendPrompt(ctx context.Context, client *timeline.Client, userID string) string {
	item := timeline.Item{
		Creator: &timeline.Creator{
			DisplayName: "Glass Journal",
			ID:          "GLASS_JOURNAL",
		},
		Text:         "Time to record!",
		Notification: &timeline.NotificationConfig{Level: "DEFAULT"},
		MenuItems: []timeline.MenuItem{{
			Action:  "OPEN_URI",
			Payload: "com.schemadesign.glassjournal://open/" + userID,
			Values: []timeline.MenuValue{
				{DisplayName: "Record", State: "DEFAULT"},
				{DisplayName: "Launching", State: "PENDING"},
				{DisplayName: "Launched", State: "CONFIRMED"},
			},
		}},
	}
	if err := client.InsertItem(ctx, item); err != nil {
		log.Printf("Failed to insert record prompt for user %s: %v", userID, err)
		return "Unable to insert the record prompt."
	}
	return "A timeline item with action has been inserted."
}

// DeleteJournal handles GET /journal/delete/{id}. Ownership is verified:
// deleting someone else's entry reports not found. On success the backing
// binary is released as well.
func DeleteJournal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	media, err := services.Journals.Delete(ctx, id, userID)
	if err != nil {
		if err == services.ErrNotFound {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to delete journal entry %s: %v", id, err)
		http.Error(w, "Failed to delete journal entry", http.StatusInternalServerError)
		return
	}

	// The entry is gone; blob release failure only leaks backend storage
	// and is logged, not surfaced.
	if mediaService != nil {
		if err := mediaService.Destroy(ctx, media); err != nil {
			log.Printf("Failed to release media for journal entry %s: %v", id, err)
		}
	}

	if err := services.PublishFeedEvent(ctx, services.FeedEvent{
		Type:      services.EventJournalDeleted,
		OwnerID:   userID,
		EntryID:   id.String(),
		Timestamp: time.Now().UTC(),
	}); err != nil {
		log.Printf("Failed to publish feed event: %v", err)
	}

	if err := services.Mailbox.Set(ctx, journalMailboxKey(userID), "Journal deleted", services.DefaultFlashTTL); err != nil {
		log.Printf("Failed to store status message for user %s: %v", userID, err)
	}
	http.Redirect(w, r, "/journal", http.StatusSeeOther)
}

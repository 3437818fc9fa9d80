package handlers

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/schemadesign/glassjournal-backend/internal/models"
	"github.com/schemadesign/glassjournal-backend/internal/services"
)

// mediaFolder is the storage backend folder for journal binaries.
const mediaFolder = "glassjournal"

var (
	errMissingFile     = errors.New("no file provided")
	errInvalidLocation = errors.New("invalid location")
	errMissingOwner    = errors.New("userId is required")
)

// journalForm carries the validated fields of an upload completion request.
type journalForm struct {
	OwnerID  string
	Category string
	Emotion  string
	Lat      *float64
	Lon      *float64
	File     *multipart.FileHeader
}

// parseJournalForm validates the multipart completion request: exactly one
// file field, required identity fields and an optional numeric lat/lon pair
// (both or neither).
func parseJournalForm(r *http.Request) (*journalForm, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errMissingFile
	}
	file.Close()

	form := &journalForm{
		OwnerID:  r.FormValue("userId"),
		Category: r.FormValue("category"),
		Emotion:  r.FormValue("emotion"),
		File:     header,
	}
	if form.OwnerID == "" {
		return nil, errMissingOwner
	}

	latValue := r.FormValue("lat")
	lonValue := r.FormValue("lon")
	if latValue != "" || lonValue != "" {
		if latValue == "" || lonValue == "" {
			return nil, errInvalidLocation
		}
		lat, err := strconv.ParseFloat(latValue, 64)
		if err != nil {
			return nil, errInvalidLocation
		}
		lon, err := strconv.ParseFloat(lonValue, 64)
		if err != nil {
			return nil, errInvalidLocation
		}
		form.Lat = &lat
		form.Lon = &lon
	}

	return form, nil
}

// RequestUpload handles GET /request-upload: issues a single-use ticket URL
// the device form will POST the multipart payload to.
func RequestUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uploadURL, err := services.IssueUploadTicket(ctx, cfg.Host)
	if err != nil {
		log.Printf("Failed to issue upload ticket: %v", err)
		http.Error(w, "Failed to issue upload ticket", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(uploadURL))
}

// CompleteUpload handles POST /upload: the completion callback on a ticket
// URL. The ticket is redeemed first (single use), then the form is validated,
// the binary stored and the journal entry persisted atomically with its media
// record.
func CompleteUpload(w http.ResponseWriter, r *http.Request) {
	if mediaService == nil {
		http.Error(w, "Media storage not initialized", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if err := services.RedeemUploadTicket(ctx, r.URL.Query().Get("ticket")); err != nil {
		if err == services.ErrTicketInvalid {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		log.Printf("Failed to redeem upload ticket: %v", err)
		http.Error(w, "Failed to redeem upload ticket", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form, err := parseJournalForm(r)
	if err != nil {
		switch err {
		case errMissingFile:
			http.Error(w, "No file provided", http.StatusBadRequest)
		case errInvalidLocation:
			http.Error(w, "Invalid location", http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	media, err := mediaService.Store(ctx, form.File, mediaFolder)
	if err != nil {
		log.Printf("Failed to store media for user %s: %v", form.OwnerID, err)
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	entry := models.JournalEntry{
		OwnerID:  form.OwnerID,
		Category: form.Category,
		Emotion:  form.Emotion,
		Lat:      form.Lat,
		Lon:      form.Lon,
	}
	if err := services.Journals.Create(ctx, &entry, media); err != nil {
		log.Printf("Failed to create journal entry for user %s: %v", form.OwnerID, err)
		// No record points at the blob anymore; release it instead of
		// leaving it orphaned in the storage backend.
		if destroyErr := mediaService.Destroy(ctx, media); destroyErr != nil {
			log.Printf("Failed to release media %s: %v", media.Reference, destroyErr)
		}
		http.Error(w, "Failed to create journal entry", http.StatusInternalServerError)
		return
	}

	if err := services.PublishFeedEvent(ctx, services.FeedEvent{
		Type:      services.EventJournalCreated,
		OwnerID:   entry.OwnerID,
		EntryID:   entry.ID.String(),
		Category:  entry.Category,
		Emotion:   entry.Emotion,
		Timestamp: entry.CreatedAt,
	}); err != nil {
		log.Printf("Failed to publish feed event: %v", err)
	}

	// Form submissions from the web page redirect back to the journal;
	// device clients get the opaque media reference.
	if r.FormValue("html") != "" {
		http.Redirect(w, r, "/journal", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(media.Reference.String()))
}

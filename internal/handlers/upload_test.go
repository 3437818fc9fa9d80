package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newUploadRequest builds a multipart POST /upload request with the given
// form fields and, optionally, a small video file part.
func newUploadRequest(t *testing.T, withFile bool, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field %s: %v", name, err)
		}
	}
	if withFile {
		part, err := mw.CreateFormFile("file", "moment.mp4")
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write([]byte("video-bytes")); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to finalize form: %v", err)
	}

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(8 << 20); err != nil {
		t.Fatalf("failed to parse multipart form: %v", err)
	}
	return req
}

func TestParseJournalForm(t *testing.T) {
	req := newUploadRequest(t, true, map[string]string{
		"userId":   "u1",
		"category": "joy",
		"emotion":  "happy",
		"lat":      "10.0",
		"lon":      "20.0",
	})

	form, err := parseJournalForm(req)
	if err != nil {
		t.Fatalf("parseJournalForm error: %v", err)
	}
	if form.OwnerID != "u1" || form.Category != "joy" || form.Emotion != "happy" {
		t.Errorf("unexpected fields %+v", form)
	}
	if form.Lat == nil || *form.Lat != 10.0 {
		t.Errorf("expected lat 10.0, got %v", form.Lat)
	}
	if form.Lon == nil || *form.Lon != 20.0 {
		t.Errorf("expected lon 20.0, got %v", form.Lon)
	}
	if form.File == nil || form.File.Filename != "moment.mp4" {
		t.Errorf("expected file header for moment.mp4, got %+v", form.File)
	}
}

func TestParseJournalFormWithoutLocation(t *testing.T) {
	req := newUploadRequest(t, true, map[string]string{
		"userId":   "u1",
		"category": "test",
		"emotion":  "testemotion",
	})

	form, err := parseJournalForm(req)
	if err != nil {
		t.Fatalf("parseJournalForm error: %v", err)
	}
	if form.Lat != nil || form.Lon != nil {
		t.Errorf("expected no location, got %v/%v", form.Lat, form.Lon)
	}
}

func TestParseJournalFormMissingFile(t *testing.T) {
	req := newUploadRequest(t, false, map[string]string{
		"userId":   "u1",
		"category": "joy",
		"emotion":  "happy",
	})

	if _, err := parseJournalForm(req); err != errMissingFile {
		t.Fatalf("expected errMissingFile, got %v", err)
	}
}

func TestParseJournalFormInvalidLocation(t *testing.T) {
	cases := []map[string]string{
		{"userId": "u1", "lat": "not-a-number", "lon": "20.0"},
		{"userId": "u1", "lat": "10.0", "lon": "east"},
		{"userId": "u1", "lat": "10.0"}, // lon missing
		{"userId": "u1", "lon": "20.0"}, // lat missing
	}
	for _, fields := range cases {
		req := newUploadRequest(t, true, fields)
		if _, err := parseJournalForm(req); err != errInvalidLocation {
			t.Errorf("fields %v: expected errInvalidLocation, got %v", fields, err)
		}
	}
}

func TestParseJournalFormMissingOwner(t *testing.T) {
	req := newUploadRequest(t, true, map[string]string{
		"category": "joy",
		"emotion":  "happy",
	})

	if _, err := parseJournalForm(req); err != errMissingOwner {
		t.Fatalf("expected errMissingOwner, got %v", err)
	}
}

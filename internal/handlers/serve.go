package handlers

import (
	"context"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schemadesign/glassjournal-backend/internal/services"
)

// contentDisposition renders the save-as hint for a served binary.
func contentDisposition(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func serveNotFound(w http.ResponseWriter) {
	http.Error(w, "not found", http.StatusNotFound)
}

// ServeMedia handles GET /serve/{reference}: resolves the opaque reference
// and streams the stored bytes through without buffering. Unresolvable
// references get a bare 404; internal identifiers never appear in the
// response.
func ServeMedia(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "reference")
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		serveNotFound(w)
		return
	}
	reference, err := uuid.Parse(unescaped)
	if err != nil {
		serveNotFound(w)
		return
	}

	if mediaService == nil {
		http.Error(w, "Media storage not initialized", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	media, err := mediaService.Resolve(ctx, reference)
	if err != nil {
		if err == services.ErrNotFound {
			serveNotFound(w)
			return
		}
		log.Printf("Failed to resolve media %s: %v", reference, err)
		http.Error(w, "Failed to resolve media", http.StatusInternalServerError)
		return
	}

	// The stream outlives the lookup timeout; large objects take a while.
	body, err := mediaService.Open(r.Context(), media)
	if err != nil {
		if err == services.ErrNotFound {
			serveNotFound(w)
			return
		}
		log.Printf("Failed to open media %s: %v", reference, err)
		http.Error(w, "Failed to fetch media", http.StatusBadGateway)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", media.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(media.Filename))
	if media.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(media.SizeBytes, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("Failed streaming media %s: %v", reference, err)
	}
}

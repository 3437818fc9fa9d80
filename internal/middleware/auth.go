package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/schemadesign/glassjournal-backend/internal/timeline"
)

type contextKey string

const (
	userIDKey         contextKey = "userID"
	timelineClientKey contextKey = "timelineClient"
)

// requestUserID extracts the caller's user identifier from the request:
// X-User-ID header first, then the userId query/form value.
func requestUserID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("userId"))
}

// CredentialChecker is the part of the credential store the identity
// middleware uses.
type CredentialChecker interface {
	Resolve(ctx context.Context, ownerID string) (*timeline.Client, error)
	HasCredentials(ctx context.Context, ownerID string) (bool, error)
}

// RequireUser resolves the caller's identity and timeline client and stores
// both in the request context. Operations read identity from context only;
// nothing is kept on handler state. Requests without stored credentials get
// a 401; a credential store failure is a 500, not a rejection.
func RequireUser(resolver CredentialChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := requestUserID(r)
			if userID == "" {
				unauthorized(w, "User identity is required")
				return
			}

			client, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				if exists, checkErr := resolver.HasCredentials(r.Context(), userID); checkErr == nil && !exists {
					unauthorized(w, "No stored credentials for this user")
					return
				}
				log.Printf("Failed to resolve credentials for user %s: %v", userID, err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": "Credential lookup failed",
				})
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, timelineClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// TimelineClient returns the per-user timeline client stored by RequireUser.
func TimelineClient(r *http.Request) *timeline.Client {
	client, _ := r.Context().Value(timelineClientKey).(*timeline.Client)
	return client
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	expected := map[string]string{
		headerXContentTypeOptions:     "nosniff",
		headerXFrameOptions:           "DENY",
		headerXXSSProtection:          "1; mode=block",
		headerContentSecurityPolicy:   "default-src 'self'",
		headerStrictTransportSecurity: "max-age=31536000; includeSubDomains",
	}
	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected wrapped handler to run, got %d", w.Code)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/schemadesign/glassjournal-backend/internal/timeline"
)

// stubResolver issues clients against a test server and can be told to fail
// resolution for specific users.
type stubResolver struct {
	apiURL        string
	failResolve   map[string]bool
	resolverCalls int32
}

func (s *stubResolver) Resolve(ctx context.Context, ownerID string) (*timeline.Client, error) {
	atomic.AddInt32(&s.resolverCalls, 1)
	if s.failResolve[ownerID] {
		return nil, errors.New("no stored credentials")
	}
	return timeline.NewClient(s.apiURL, "token-"+ownerID), nil
}

func ownerIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%d", i)
	}
	return ids
}

func TestBroadcastAllSucceed(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	b := NewBroadcaster(&stubResolver{apiURL: server.URL}, 10)
	result := b.Broadcast(context.Background(), ownerIDs(7), timeline.Item{Text: "Hello Everyone!"})

	if got := atomic.LoadInt32(&calls); got != 7 {
		t.Errorf("expected 7 outbound calls, got %d", got)
	}
	if result.Success != 7 || result.Failure != 0 {
		t.Errorf("expected 7/0, got %d/%d", result.Success, result.Failure)
	}
	if result.Success+result.Failure != result.Attempted {
		t.Errorf("success+failure must equal attempted, got %d+%d != %d",
			result.Success, result.Failure, result.Attempted)
	}
	if result.QuotaExceeded {
		t.Error("unexpected quota refusal")
	}
}

func TestBroadcastPartialFailure(t *testing.T) {
	// The server fails dispatches for user-1 and user-3, identified by token.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if strings.HasSuffix(auth, "user-1") || strings.HasSuffix(auth, "user-3") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	b := NewBroadcaster(&stubResolver{apiURL: server.URL}, 10)
	result := b.Broadcast(context.Background(), ownerIDs(5), timeline.Item{Text: "test"})

	if result.Success != 3 || result.Failure != 2 {
		t.Errorf("expected 3/2, got %d/%d", result.Success, result.Failure)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("expected 2 failed ids, got %v", result.Failed)
	}
	failed := map[string]bool{}
	for _, id := range result.Failed {
		failed[id] = true
	}
	if !failed["user-1"] || !failed["user-3"] {
		t.Errorf("expected user-1 and user-3 in failed set, got %v", result.Failed)
	}
}

func TestBroadcastResolutionFailureCountsAsDispatchFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	resolver := &stubResolver{apiURL: server.URL, failResolve: map[string]bool{"user-2": true}}
	b := NewBroadcaster(resolver, 10)
	result := b.Broadcast(context.Background(), ownerIDs(3), timeline.Item{Text: "test"})

	if result.Success != 2 || result.Failure != 1 {
		t.Errorf("expected 2/1, got %d/%d", result.Success, result.Failure)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 outbound calls (none for the unresolved user), got %d", got)
	}
}

func TestBroadcastOverCeilingIssuesZeroCalls(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	resolver := &stubResolver{apiURL: server.URL}
	b := NewBroadcaster(resolver, 10)
	result := b.Broadcast(context.Background(), ownerIDs(11), timeline.Item{Text: "test"})

	if !result.QuotaExceeded {
		t.Fatal("expected quota refusal")
	}
	if result.Attempted != 11 {
		t.Errorf("expected attempted count 11, got %d", result.Attempted)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected zero outbound calls, got %d", got)
	}
	if got := atomic.LoadInt32(&resolver.resolverCalls); got != 0 {
		t.Errorf("expected zero credential resolutions, got %d", got)
	}
	if result.Success != 0 || result.Failure != 0 {
		t.Errorf("expected no counted outcomes, got %d/%d", result.Success, result.Failure)
	}
}

func TestBroadcastAtCeilingStillDispatches(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	b := NewBroadcaster(&stubResolver{apiURL: server.URL}, 10)
	result := b.Broadcast(context.Background(), ownerIDs(10), timeline.Item{Text: "test"})

	if result.QuotaExceeded {
		t.Fatal("ceiling is inclusive; 10 users must dispatch")
	}
	if got := atomic.LoadInt32(&calls); got != 10 {
		t.Errorf("expected 10 outbound calls, got %d", got)
	}
	if result.Success != 10 {
		t.Errorf("expected 10 successes, got %d", result.Success)
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/schemadesign/glassjournal-backend/internal/middleware"
	"github.com/schemadesign/glassjournal-backend/internal/services"
)

// feedUpgrader is the shared upgrader for journal feed connections.
var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// JournalFeedSocket handles GET /ws/journal: a push stream of the caller's
// journal create/delete events. Identity comes from the surrounding
// middleware; each connection only ever sees its own owner's events.
func JournalFeedSocket(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := services.SubscribeFeed(userID)
	defer unsubscribe()

	// Writer goroutine: forward feed events to this connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}()

	// Reader loop: clients send nothing meaningful; this just detects
	// disconnects and keeps the deadline fresh on pongs.
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}

	unsubscribe()
	<-done
}

package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/schemadesign/glassjournal-backend/internal/database"
)

// Feed event types.
const (
	EventJournalCreated = "journal.created"
	EventJournalDeleted = "journal.deleted"
)

// feedChannel is the Redis channel carrying journal feed events, so events
// reach subscribers on every instance.
const feedChannel = "journal:feed"

// FeedEvent is the payload broadcast over Redis and WebSocket when a journal
// entry is created or deleted.
type FeedEvent struct {
	Type      string    `json:"type"`
	OwnerID   string    `json:"owner_id"`
	EntryID   string    `json:"entry_id"`
	Category  string    `json:"category,omitempty"`
	Emotion   string    `json:"emotion,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// feedHub is a registry of per-owner local subscribers.
type feedHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan FeedEvent]struct{}
}

var (
	journalFeed = &feedHub{subscribers: make(map[string]map[chan FeedEvent]struct{})}
	feedStarted sync.Once
)

// PublishFeedEvent publishes an event to the shared Redis channel.
func PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, feedChannel, data).Err()
}

// SubscribeFeed registers a local subscriber for one owner's events. The
// returned function unsubscribes and closes the channel.
func SubscribeFeed(ownerID string) (<-chan FeedEvent, func()) {
	ch := make(chan FeedEvent, 16)

	journalFeed.mu.Lock()
	if journalFeed.subscribers[ownerID] == nil {
		journalFeed.subscribers[ownerID] = make(map[chan FeedEvent]struct{})
	}
	journalFeed.subscribers[ownerID][ch] = struct{}{}
	journalFeed.mu.Unlock()

	unsubscribe := func() {
		journalFeed.mu.Lock()
		if subs, ok := journalFeed.subscribers[ownerID]; ok {
			if _, registered := subs[ch]; registered {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(journalFeed.subscribers, ownerID)
			}
		}
		journalFeed.mu.Unlock()
	}
	return ch, unsubscribe
}

// dispatchFeedEvent fans an event out to the owner's local subscribers.
// Slow consumers are skipped rather than blocking the subscriber loop.
func dispatchFeedEvent(event FeedEvent) {
	journalFeed.mu.RLock()
	defer journalFeed.mu.RUnlock()
	for ch := range journalFeed.subscribers[event.OwnerID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// StartFeedSubscriber starts the background Redis subscriber that feeds local
// WebSocket connections. Safe to call more than once.
func StartFeedSubscriber(ctx context.Context) {
	feedStarted.Do(func() {
		pubsub := database.RedisClient.Subscribe(ctx, feedChannel)
		go func() {
			for msg := range pubsub.Channel() {
				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("Failed to decode feed event: %v", err)
					continue
				}
				dispatchFeedEvent(event)
			}
		}()
	})
}

package services

import (
	"context"
	"log"
	"sync"

	"github.com/schemadesign/glassjournal-backend/internal/models"
	"github.com/schemadesign/glassjournal-backend/internal/timeline"
)

// ClientResolver is the part of the credential store the broadcaster needs.
type ClientResolver interface {
	Resolve(ctx context.Context, ownerID string) (*timeline.Client, error)
}

// Broadcaster fans one timeline item out to a bounded set of users. Each
// per-user dispatch succeeds or fails independently; one user's failure never
// aborts the others.
type Broadcaster struct {
	resolver ClientResolver
	ceiling  int
}

// NewBroadcaster creates a dispatcher refusing broadcasts larger than ceiling.
func NewBroadcaster(resolver ClientResolver, ceiling int) *Broadcaster {
	if ceiling <= 0 {
		ceiling = 10
	}
	return &Broadcaster{resolver: resolver, ceiling: ceiling}
}

// outcome is the per-user result of one dispatch, correlated by owner id.
type outcome struct {
	ownerID string
	err     error
}

// Broadcast sends item to every user in ownerIDs. Above the ceiling it
// performs zero network calls and reports the refusal. Otherwise it issues one
// call per user concurrently, waits for all outcomes, and aggregates exact
// success/failure counts. Failures are logged with the originating user id;
// no retry is attempted.
func (b *Broadcaster) Broadcast(ctx context.Context, ownerIDs []string, item timeline.Item) models.BroadcastResult {
	result := models.BroadcastResult{
		Attempted: len(ownerIDs),
		Ceiling:   b.ceiling,
	}

	if len(ownerIDs) > b.ceiling {
		result.QuotaExceeded = true
		return result
	}

	outcomes := make([]outcome, len(ownerIDs))
	var wg sync.WaitGroup
	for i, ownerID := range ownerIDs {
		wg.Add(1)
		go func(i int, ownerID string) {
			defer wg.Done()
			client, err := b.resolver.Resolve(ctx, ownerID)
			if err != nil {
				outcomes[i] = outcome{ownerID: ownerID, err: err}
				return
			}
			outcomes[i] = outcome{ownerID: ownerID, err: client.InsertItem(ctx, item)}
		}(i, ownerID)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.err == nil {
			result.Success++
			continue
		}
		result.Failure++
		result.Failed = append(result.Failed, o.ownerID)
		log.Printf("Failed to insert item for user %s: %v", o.ownerID, o.err)
	}
	return result
}

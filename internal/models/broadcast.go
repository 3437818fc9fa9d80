package models

import "fmt"

// BroadcastResult aggregates the per-user outcomes of one broadcast. It is
// never persisted; Failed holds the owner ids whose dispatch failed and is
// used for logging only.
type BroadcastResult struct {
	Success       int
	Failure       int
	Failed        []string
	Attempted     int
	Ceiling       int
	QuotaExceeded bool
}

// Summary renders the user-facing status message for the broadcast. Remote
// error detail is never included.
func (r BroadcastResult) Summary() string {
	if r.QuotaExceeded {
		return fmt.Sprintf("Total user count is %d. Aborting broadcast to save your quota", r.Attempted)
	}
	return fmt.Sprintf("Successfully sent cards to %d users (%d failed).", r.Success, r.Failure)
}

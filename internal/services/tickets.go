package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schemadesign/glassjournal-backend/internal/database"
)

const (
	// UploadTicketPrefix is the Redis key prefix for upload tickets.
	UploadTicketPrefix = "upload_ticket:"
	// UploadTicketTTL is how long an issued ticket stays redeemable.
	UploadTicketTTL = 10 * time.Minute
)

// ErrTicketInvalid is returned when redeeming a ticket that was never issued,
// already redeemed, or expired.
var ErrTicketInvalid = errors.New("upload ticket is invalid or expired")

// IssueUploadTicket creates a single-use upload ticket and returns the full
// URL an upload form should POST to.
func IssueUploadTicket(ctx context.Context, host string) (string, error) {
	tokenBytes := make([]byte, 24)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	err := database.RedisClient.Set(ctx, UploadTicketPrefix+token, "1", UploadTicketTTL).Err()
	if err != nil {
		return "", err
	}

	return host + "/upload?ticket=" + token, nil
}

// RedeemUploadTicket consumes a ticket. GETDEL makes redemption single-use:
// a replayed POST to the same ticket URL fails here.
func RedeemUploadTicket(ctx context.Context, token string) error {
	if token == "" {
		return ErrTicketInvalid
	}
	_, err := database.RedisClient.GetDel(ctx, UploadTicketPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrTicketInvalid
		}
		return err
	}
	return nil
}

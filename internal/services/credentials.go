package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/schemadesign/glassjournal-backend/internal/database"
	"github.com/schemadesign/glassjournal-backend/internal/models"
	"github.com/schemadesign/glassjournal-backend/internal/timeline"
	"github.com/schemadesign/glassjournal-backend/pkg/utils"
)

const (
	// CredentialNamespace prefixes every credential document id so the
	// collection can be shared with other apps of the same project.
	CredentialNamespace = "glass"
	// CredentialCollection is the MongoDB collection holding credentials.
	CredentialCollection = "credentials"
)

// CredentialResolver turns stored user identifiers into authenticated
// timeline API clients. The underlying collection is read-only here; the
// device-side authorization flow writes it.
type CredentialResolver struct {
	apiURL string
}

// NewCredentialResolver creates a resolver issuing clients against apiURL.
func NewCredentialResolver(apiURL string) *CredentialResolver {
	return &CredentialResolver{apiURL: apiURL}
}

func credentialKey(ownerID string) string {
	return CredentialNamespace + ":" + ownerID
}

// Resolve looks up the stored credential for ownerID and returns a timeline
// client authorized as that user.
func (r *CredentialResolver) Resolve(ctx context.Context, ownerID string) (*timeline.Client, error) {
	var cred models.Credential
	err := database.DB.Collection(CredentialCollection).
		FindOne(ctx, bson.M{"_id": credentialKey(ownerID)}).
		Decode(&cred)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no stored credentials for user %s", ownerID)
		}
		return nil, fmt.Errorf("credential lookup failed for user %s: %w", ownerID, err)
	}

	token, err := utils.Decrypt(cred.TokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("credential decrypt failed for user %s: %w", ownerID, err)
	}
	if token == "" {
		return nil, fmt.Errorf("empty credential token for user %s", ownerID)
	}

	return timeline.NewClient(r.apiURL, token), nil
}

// HasCredentials reports whether a stored credential exists for ownerID.
func (r *CredentialResolver) HasCredentials(ctx context.Context, ownerID string) (bool, error) {
	count, err := database.DB.Collection(CredentialCollection).
		CountDocuments(ctx, bson.M{"_id": credentialKey(ownerID)})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListOwnerIDs returns the identifiers of every registered user. Used by the
// broadcast pipeline.
func (r *CredentialResolver) ListOwnerIDs(ctx context.Context) ([]string, error) {
	cursor, err := database.DB.Collection(CredentialCollection).
		Find(ctx, bson.M{"_id": bson.M{"$regex": "^" + CredentialNamespace + ":"}})
	if err != nil {
		return nil, fmt.Errorf("credential listing failed: %w", err)
	}
	defer cursor.Close(ctx)

	var creds []models.Credential
	if err := cursor.All(ctx, &creds); err != nil {
		return nil, fmt.Errorf("credential listing failed: %w", err)
	}

	ownerIDs := make([]string, 0, len(creds))
	for _, cred := range creds {
		ownerIDs = append(ownerIDs, cred.OwnerID)
	}
	return ownerIDs, nil
}

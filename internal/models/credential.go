package models

import "time"

// Credential is the stored authorization material for one user of the remote
// timeline API. Documents live in the MongoDB "credentials" collection, keyed
// by "<namespace>:<owner id>". The token is AES-GCM encrypted at rest and the
// collection is read-only to this service; writes happen in the device-side
// authorization flow.
type Credential struct {
	ID             string    `bson:"_id"`
	OwnerID        string    `bson:"owner_id"`
	TokenEncrypted string    `bson:"token_encrypted"`
	CreatedAt      time.Time `bson:"created_at"`
}

package model

import "time"

// ClassLock is an advisory lock document serializing seat reservations for
// a single class. A TTL index on expires_at reaps locks left behind by a
// crashed writer.
type ClassLock struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

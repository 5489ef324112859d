package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RevokedToken records a refresh token blacklisted at logout. Verification
// never consults this collection; the daemon sweeps expired entries.
type RevokedToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JTI       string             `bson:"jti" json:"jti"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	RevokedAt time.Time          `bson:"revoked_at" json:"revoked_at"`
}

package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the system.
// It contains identity and derived profile metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID primitive.ObjectID `json:"id" bson:"_id,omitempty"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" bson:"username"`

	// Email is the user's email address, normalized to lowercase.
	Email string `json:"email" bson:"email"`

	// Avatar is the gravatar URL derived from the email address.
	Avatar string `json:"avatar" bson:"avatar"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" bson:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

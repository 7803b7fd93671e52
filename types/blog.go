package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog is a single post authored by a user.
type Blog struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Content string             `json:"content" bson:"content"`

	// Author references the user who created the post. Set once at
	// creation and never reassigned.
	Author primitive.ObjectID `json:"author" bson:"author"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	// FavoriteCount mirrors len(FavoritedBy). Both are always adjusted
	// in the same atomic update.
	FavoriteCount int32                `json:"favorite_count" bson:"favorite_count"`
	FavoritedBy   []primitive.ObjectID `json:"favorited_by" bson:"favorited_by"`
}

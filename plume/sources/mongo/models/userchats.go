package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatSummary is one entry of a user's chat index: enough to render a chat
// list without loading transcripts. Title is fixed at chat creation.
type ChatSummary struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// UserChats is the per-user index document, one per user id.
type UserChats struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	Chats     []ChatSummary      `json:"chats" bson:"chats"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

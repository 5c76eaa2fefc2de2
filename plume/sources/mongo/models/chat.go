package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Part struct {
	Text string `json:"text" bson:"text"`
}

// Turn is one message exchange unit within a transcript. The image path, if
// any, lives on the turn itself, matching the stored wire shape.
type Turn struct {
	Role  string `json:"role" bson:"role"` // "user" | "model"
	Parts []Part `json:"parts" bson:"parts"`
	Img   string `json:"img,omitempty" bson:"img,omitempty"`
}

// Chat holds the full append-only transcript for one owner.
type Chat struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	History   []Turn             `json:"history" bson:"history"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

package types

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"plume/plume/utils/apperrors"
)

// CreateChatRequest opens a chat with its first user message.
type CreateChatRequest struct {
	Text string `json:"text"`
}

func (r CreateChatRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return apperrors.ErrValidation
	}
	return nil
}

// AppendTurnRequest persists a finished exchange: an optional user question
// (with an optional uploaded image path) and the model's answer. Answer must
// be present but may be the empty string.
type AppendTurnRequest struct {
	Question *string `json:"question,omitempty"`
	Answer   *string `json:"answer"`
	Img      string  `json:"img,omitempty"`
}

func (r AppendTurnRequest) Validate() error {
	if r.Answer == nil {
		return apperrors.ErrValidation
	}
	return nil
}

// ParseChatID validates the id format at the boundary instead of letting the
// store reject it downstream.
func ParseChatID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.ErrValidation
	}
	return oid, nil
}

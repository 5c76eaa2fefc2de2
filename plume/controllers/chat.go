package controllers

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"plume/plume/sources/mongo/models"
	"plume/plume/utils/apperrors"
	"plume/plume/utils/logging"
	"plume/plume/utils/types"
)

const titleLimit = 40

// ChatStore is what the controller needs from the chats collection.
// Satisfied by dao.ChatDAO; tests substitute an in-memory fake.
type ChatStore interface {
	Create(ctx context.Context, userID string, first models.Turn) (primitive.ObjectID, error)
	Get(ctx context.Context, userID string, id primitive.ObjectID) (*models.Chat, error)
	AppendTurns(ctx context.Context, userID string, id primitive.ObjectID, turns []models.Turn) error
}

// ChatIndexStore is what the controller needs from the userchats collection.
type ChatIndexStore interface {
	AddSummary(ctx context.Context, userID string, summary models.ChatSummary) error
	List(ctx context.Context, userID string) ([]models.ChatSummary, error)
}

type ChatController struct {
	chats ChatStore
	index ChatIndexStore
}

func NewChatController(chats ChatStore, index ChatIndexStore) *ChatController {
	return &ChatController{chats: chats, index: index}
}

// CreateChat opens a chat with one user turn and records a summary in the
// caller's index. The two writes are sequential, not transactional: a crash
// in between leaves an orphaned chat that is never listed.
func (c *ChatController) CreateChat(ctx context.Context, userID string, req types.CreateChatRequest) (primitive.ObjectID, error) {
	if err := req.Validate(); err != nil {
		return primitive.NilObjectID, err
	}

	first := models.Turn{
		Role:  models.RoleUser,
		Parts: []models.Part{{Text: req.Text}},
	}
	id, err := c.chats.Create(ctx, userID, first)
	if err != nil {
		return primitive.NilObjectID, err
	}

	summary := models.ChatSummary{
		ID:        id,
		Title:     truncateTitle(req.Text),
		CreatedAt: time.Now().UTC(),
	}
	if err := c.index.AddSummary(ctx, userID, summary); err != nil {
		logging.ErrorLogger.Error("chat created but index update failed",
			zap.String("chat_id", id.Hex()), zap.Error(err))
		return primitive.NilObjectID, err
	}
	return id, nil
}

// ListUserChats returns the caller's chat summaries, empty when the caller
// has none.
func (c *ChatController) ListUserChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	return c.index.List(ctx, userID)
}

// GetChat returns the chat only when the caller owns it.
func (c *ChatController) GetChat(ctx context.Context, userID string, id primitive.ObjectID) (*models.Chat, error) {
	return c.chats.Get(ctx, userID, id)
}

// AppendTurn appends zero or one user turn followed by exactly one model
// turn. The image path, if any, attaches only to the user turn.
func (c *ChatController) AppendTurn(ctx context.Context, userID string, id primitive.ObjectID, req types.AppendTurnRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var turns []models.Turn
	if req.Question != nil && *req.Question != "" {
		turns = append(turns, models.Turn{
			Role:  models.RoleUser,
			Parts: []models.Part{{Text: *req.Question}},
			Img:   req.Img,
		})
	}
	turns = append(turns, models.Turn{
		Role:  models.RoleModel,
		Parts: []models.Part{{Text: *req.Answer}},
	})

	err := c.chats.AppendTurns(ctx, userID, id, turns)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logging.ErrorLogger.Error("append turn failed",
			zap.String("chat_id", id.Hex()), zap.Error(err))
	}
	return err
}

// truncateTitle keeps the first 40 characters of the first user message,
// rune-safe so a multibyte prompt does not split mid-character.
func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	return string(runes[:titleLimit])
}

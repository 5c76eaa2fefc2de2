package dao

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"plume/plume/sources/mongo/models"
	"plume/plume/utils/apperrors"
)

type ChatDAO struct {
	coll *mongo.Collection
}

func NewChatDAO(coll *mongo.Collection) *ChatDAO {
	return &ChatDAO{coll: coll}
}

// Create inserts a chat whose history starts with the given first turn and
// returns the new chat id.
func (dao *ChatDAO) Create(ctx context.Context, userID string, first models.Turn) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	chat := models.Chat{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		History:   []models.Turn{first},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := dao.coll.InsertOne(ctx, chat); err != nil {
		return primitive.NilObjectID, err
	}
	return chat.ID, nil
}

// Get loads a chat scoped to its owner. A chat that does not exist and a
// chat owned by someone else are deliberately indistinguishable.
func (dao *ChatDAO) Get(ctx context.Context, userID string, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := dao.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// AppendTurns pushes turns onto the chat's history in order, scoped to the
// owner. Reports ErrNotFound when no matching chat was modified.
func (dao *ChatDAO) AppendTurns(ctx context.Context, userID string, id primitive.ObjectID, turns []models.Turn) error {
	res, err := dao.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{
			"$push": bson.M{"history": bson.M{"$each": turns}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

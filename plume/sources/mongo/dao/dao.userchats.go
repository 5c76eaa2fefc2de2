package dao

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"plume/plume/sources/mongo/models"
)

type UserChatsDAO struct {
	coll *mongo.Collection
}

func NewUserChatsDAO(coll *mongo.Collection) *UserChatsDAO {
	return &UserChatsDAO{coll: coll}
}

// AddSummary appends a summary to the user's index, creating the index
// document on first use. A single upsert keeps the two original write paths
// (insert-if-absent, push-if-present) in one per-document atomic operation.
func (dao *UserChatsDAO) AddSummary(ctx context.Context, userID string, summary models.ChatSummary) error {
	now := time.Now().UTC()
	_, err := dao.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$push":        bson.M{"chats": summary},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// List returns the user's chat summaries, or an empty slice when the user
// has no index yet.
func (dao *UserChatsDAO) List(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	var doc models.UserChats
	err := dao.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.ChatSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Chats == nil {
		return []models.ChatSummary{}, nil
	}
	return doc.Chats, nil
}

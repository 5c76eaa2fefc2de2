package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"plume/plume/config"
)

// Database is the explicit store handle: opened once at startup, closed on
// shutdown, passed to the DAOs.
type Database struct {
	Client *mongo.Client
	db     *mongo.Database
}

func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Database{
		Client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

func (d *Database) Chats() *mongo.Collection {
	return d.db.Collection("chats")
}

func (d *Database) UserChats() *mongo.Collection {
	return d.db.Collection("userchats")
}

func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, readpref.Primary())
}

func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

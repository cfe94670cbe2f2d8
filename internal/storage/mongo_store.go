package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sessionDoc struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps the session blob as a single document keyed by the
// slot key.
type MongoStore struct {
	collection *mongo.Collection
	key        string
}

func NewMongoStore(db *mongo.Database, key string) *MongoStore {
	return &MongoStore{
		collection: db.Collection("cart_sessions"),
		key:        key,
	}
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func (m *MongoStore) Load(ctx context.Context) ([]byte, error) {
	var doc sessionDoc

	filter := bson.M{"_id": m.key}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return doc.Payload, nil
}

func (m *MongoStore) Save(ctx context.Context, blob []byte) error {
	filter := bson.M{"_id": m.key}
	update := bson.M{"$set": sessionDoc{
		Key:       m.key,
		Payload:   blob,
		UpdatedAt: time.Now(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (m *MongoStore) Clear(ctx context.Context) error {
	filter := bson.M{"_id": m.key}
	if _, err := m.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

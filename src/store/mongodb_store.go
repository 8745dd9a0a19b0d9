package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

const mongoCloseTimeout = 5 * time.Second

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, opError("connect", errors.New("mongo uri is required"))
	}
	if database == "" {
		return nil, opError("connect", errors.New("mongo database name is required"))
	}
	if collection == "" {
		return nil, opError("connect", errors.New("mongo collection name is required"))
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, opError("connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, opError("ping", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (ms *MongoStore) Save(ctx context.Context, userID string, data map[string]any) (Record, error) {
	if err := ValidateDocument(userID, data); err != nil {
		return Record{}, err
	}
	if ms == nil || ms.collection == nil {
		return Record{}, opError("save", errors.New("mongo collection is not configured"))
	}
	now := time.Now().UTC()
	res, err := ms.collection.InsertOne(ctx, bson.M{
		"user_id":    userID,
		"data":       data,
		"created_at": now,
	})
	if err != nil {
		return Record{}, opError("save", err)
	}
	id := fmt.Sprint(res.InsertedID)
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	return Record{ID: id, UserID: userID, Data: data, CreatedAt: now}, nil
}

// List fetches the user's documents by exact user_id and applies the remaining
// filters in process so every backend shares the same semantics.
func (ms *MongoStore) List(ctx context.Context, q Query) ([]Record, error) {
	if ms == nil || ms.collection == nil {
		return nil, opError("list", errors.New("mongo collection is not configured"))
	}
	if q.UserID == "" {
		return nil, opError("list", errors.New("user id is required"))
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := ms.collection.Find(ctx, mongoFilter(q), opts)
	if err != nil {
		return nil, opError("list", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	for cursor.Next(ctx) {
		var doc mongoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, opError("list", err)
		}
		rec, err := doc.toRecord()
		if err != nil {
			return nil, opError("list", err)
		}
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, opError("list", err)
	}
	return filterRecords(records, q), nil
}

// mongoFilter matches on user_id only. documentType is stored as written, in
// any case, so it is compared by Match.
func mongoFilter(q Query) bson.M {
	return bson.M{"user_id": q.UserID}
}

// CreateSchema ensures the user lookup index exists.
func (ms *MongoStore) CreateSchema(ctx context.Context) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	_, err := ms.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("user_created_at"),
	})
	if err != nil {
		return opError("create schema", err)
	}
	return nil
}

type mongoDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"user_id"`
	Data      bson.Raw           `bson:"data"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (doc mongoDocument) toRecord() (Record, error) {
	data, err := plainDocument(doc.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		Data:      data,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

// plainDocument turns a BSON sub-document into the JSON shapes the model
// produced (maps, slices, float64 numbers) instead of driver primitives.
func plainDocument(raw bson.Raw) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(ext, &out); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return out, nil
}

// Close releases the underlying MongoDB client.
func (ms *MongoStore) Close() error {
	if ms == nil || ms.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)

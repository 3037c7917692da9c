package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/finwell/finwell/internal/model"
)

// MongoStore persists records in a single collection that mirrors the
// relational shape; the payload rides inside the document as raw JSON.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoRecord is the document shape for a stored record.
type mongoRecord struct {
	ID           string    `bson:"_id"`
	OwnerKey     string    `bson:"owner_key"`
	Kind         string    `bson:"kind"`
	ContactEmail string    `bson:"contact_email,omitempty"`
	Lang         string    `bson:"lang,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	Payload      string    `bson:"payload"`
}

// NewMongoStore connects to MongoDB and prepares the records
// collection with its secondary indexes.
func NewMongoStore(ctx context.Context, mongoURL, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", errors.Join(ErrStoreUnwritable, err))
	}

	coll := client.Database(database).Collection("records")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_key", Value: 1}}},
		{Keys: bson.D{{Key: "contact_email", Value: 1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
	}
	if _, err := coll.Indexes().CreateMany(connectCtx, indexes); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func toMongoRecord(rec *model.Record) (*mongoRecord, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return &mongoRecord{
		ID:           rec.ID,
		OwnerKey:     rec.OwnerKey,
		Kind:         string(rec.Kind),
		ContactEmail: rec.ContactEmail,
		Lang:         rec.Lang,
		CreatedAt:    rec.CreatedAt.UTC(),
		Payload:      string(payload),
	}, nil
}

func (m *mongoRecord) toRecord() (*model.Record, error) {
	payload, err := model.DecodePayload(model.Kind(m.Kind), []byte(m.Payload))
	if err != nil {
		return nil, err
	}
	return &model.Record{
		ID:           m.ID,
		OwnerKey:     m.OwnerKey,
		Kind:         model.Kind(m.Kind),
		ContactEmail: m.ContactEmail,
		Lang:         m.Lang,
		CreatedAt:    m.CreatedAt,
		Payload:      payload,
	}, nil
}

// Append inserts a new record document.
func (s *MongoStore) Append(ctx context.Context, rec *model.Record) error {
	doc, err := toMongoRecord(rec)
	if err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append record: %w", errors.Join(ErrStoreUnwritable, err))
	}
	return nil
}

// ReadAll returns every record ordered by creation time.
func (s *MongoStore) ReadAll(ctx context.Context) ([]*model.Record, error) {
	return s.find(ctx, bson.D{})
}

// FilterByOwner returns records created under ownerKey.
func (s *MongoStore) FilterByOwner(ctx context.Context, ownerKey string) ([]*model.Record, error) {
	return s.find(ctx, bson.D{{Key: "owner_key", Value: ownerKey}})
}

// FilterByEmail returns records with a matching contact email.
func (s *MongoStore) FilterByEmail(ctx context.Context, email string) ([]*model.Record, error) {
	return s.find(ctx, bson.D{{Key: "contact_email", Value: email}})
}

// FilterByKind returns all records of one kind.
func (s *MongoStore) FilterByKind(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	return s.find(ctx, bson.D{{Key: "kind", Value: string(kind)}})
}

func (s *MongoStore) find(ctx context.Context, filter bson.D) ([]*model.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.Record
	for cursor.Next(ctx) {
		var doc mongoRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		rec, err := doc.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// GetByID retrieves a single record.
func (s *MongoStore) GetByID(ctx context.Context, id string) (*model.Record, error) {
	var doc mongoRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record by ID: %w", err)
	}
	return doc.toRecord()
}

// UpdateByID replaces the payload of an existing record. The kind
// predicate in the filter makes a kind change impossible.
func (s *MongoStore) UpdateByID(ctx context.Context, id string, payload model.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "kind", Value: string(payload.PayloadKind())},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "payload", Value: string(data)}}}}

	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", errors.Join(ErrStoreUnwritable, err))
	}
	if result.MatchedCount == 0 {
		count, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
		if err == nil && count > 0 {
			return ErrKindMismatch
		}
		return ErrRecordNotFound
	}
	return nil
}

// DeleteByID removes the record.
func (s *MongoStore) DeleteByID(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", errors.Join(ErrStoreUnwritable, err))
	}
	if result.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Ping checks mongo connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Drop removes the records collection. Test support.
func (s *MongoStore) Drop(ctx context.Context) error {
	return s.coll.Drop(ctx)
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/hivelog/internal/domain/models"
)

// Repository defines the remote snapshot gateway: one row per user holding
// the entire journal as a single opaque document.
type Repository interface {
	SaveSnapshot(ctx context.Context, userID string, snapshot models.Snapshot) error
	LoadSnapshot(ctx context.Context, userID string) (*models.Snapshot, error)
}

// snapshotDocument is the stored row shape.
type snapshotDocument struct {
	UserID    string          `bson:"_id"`
	Snapshot  models.Snapshot `bson:"snapshot"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "snapshots",
	}, nil
}

// SaveSnapshot upserts the user's snapshot row. Last write wins; no merge
// against concurrent edits from another device is attempted.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, userID string, snapshot models.Snapshot) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	doc := snapshotDocument{
		UserID:    userID,
		Snapshot:  snapshot,
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": userID}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert snapshot for user %s: %w", userID, err)
	}
	return nil
}

// LoadSnapshot fetches the user's snapshot row. A missing row is the empty
// state, not an error.
func (r *MongoDBRepository) LoadSnapshot(ctx context.Context, userID string) (*models.Snapshot, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	var doc snapshotDocument
	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for user %s: %w", userID, err)
	}

	return &doc.Snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

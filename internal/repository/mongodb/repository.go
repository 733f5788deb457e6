package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// Repository defines the interface for low-stock snapshot storage.
type Repository interface {
	SaveLowStockSnapshot(ctx context.Context, snapshot models.LowStockSnapshot) error
	LatestLowStockSnapshot(ctx context.Context) (*models.LowStockSnapshot, error)
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

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "low_stock_snapshots",
	}, nil
}

// SaveLowStockSnapshot stores the outcome of one low-stock check.
func (r *MongoDBRepository) SaveLowStockSnapshot(ctx context.Context, snapshot models.LowStockSnapshot) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert low-stock snapshot: %w", err)
	}
	return nil
}

// LatestLowStockSnapshot returns the most recent snapshot, or nil when none exist.
func (r *MongoDBRepository) LatestLowStockSnapshot(ctx context.Context) (*models.LowStockSnapshot, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	opts := options.FindOne().SetSort(bson.D{{Key: "taken_at", Value: -1}})

	var snapshot models.LowStockSnapshot
	err := collection.FindOne(ctx, bson.D{}, opts).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest low-stock snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

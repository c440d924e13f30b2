package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/memomap/backend/internal/geocode"
	"github.com/anonto42/memomap/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type geocodeCacheEntry struct {
	Key       string         `bson:"_id"`
	Places    []models.Place `bson:"places"`
	ExpiresAt time.Time      `bson:"expires_at"`
	CreatedAt time.Time      `bson:"created_at"`
}

var _ geocode.Cache = (*MongoGeocodeCacheRepository)(nil)

// MongoGeocodeCacheRepository caches reshaped geocoding responses in MongoDB,
// keyed by lookup.
type MongoGeocodeCacheRepository struct {
	collection *mongo.Collection
}

// NewMongoGeocodeCacheRepository creates a new MongoGeocodeCacheRepository
func NewMongoGeocodeCacheRepository(db *mongo.Database) *MongoGeocodeCacheRepository {
	return &MongoGeocodeCacheRepository{collection: db.Collection("geocode_cache")}
}

// EnsureIndexes creates the TTL index that lets MongoDB expire entries.
func (r *MongoGeocodeCacheRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// Get returns the cached places for key. Entries past their expiry are
// ignored even if the TTL monitor has not removed them yet.
func (r *MongoGeocodeCacheRepository) Get(ctx context.Context, key string) ([]models.Place, bool, error) {
	var entry geocodeCacheEntry
	filter := bson.M{"_id": key, "expires_at": bson.M{"$gt": time.Now()}}
	err := r.collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Places, true, nil
}

// Put upserts places under key with an expiry of ttl from now
func (r *MongoGeocodeCacheRepository) Put(ctx context.Context, key string, places []models.Place, ttl time.Duration) error {
	now := time.Now()
	entry := geocodeCacheEntry{
		Key:       key,
		Places:    places,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, entry, options.Replace().SetUpsert(true))
	return err
}

package albums

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "albums"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{{Keys: bson.D{{Key: "user_id", Value: 1}}}}
}

func (r *MongoRepository) Create(ctx context.Context, album *models.Album) error {
	if album.ID == "" {
		album.ID = models.NewID()
	}
	if album.Created.IsZero() {
		album.Created = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, album); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]*models.Album, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*models.Album, 0)
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/dbx"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding users.
const CollectionName = "users"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// Indexes lists the indexes the collection needs. Email and phone are
// unique but sparse, OAuth users may have neither.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "reset_password_token", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.Created.IsZero() {
		user.Created = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return mongoWriteError(err)
	}
	return nil
}

func (r *MongoRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID, "deleted": nil}, user)
	if err != nil {
		return mongoWriteError(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id, "deleted": nil})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email)), "deleted": nil})
}

func (r *MongoRepository) GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"deleted": nil,
		"$or": bson.A{
			bson.M{"provider": provider, "provider_data.id": providerID},
			bson.M{"additional_providers_data." + provider + ".id": providerID},
		},
	})
}

func (r *MongoRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_password_token":   token,
		"reset_password_expires": bson.M{"$gt": now},
		"deleted":                nil,
	})
}

func (r *MongoRepository) List(ctx context.Context, f Filter, skip, limit int) ([]*models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*models.User, 0)
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "deleted": nil}, bson.M{"$set": bson.M{"deleted": at}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	u := &models.User{}
	if err := r.coll.FindOne(ctx, filter).Decode(u); err != nil {
		if dbx.IsMongoNoDocuments(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func mongoFilter(f Filter) bson.M {
	filter := bson.M{"deleted": nil}
	if f.Email != "" {
		filter["email"] = strings.ToLower(f.Email)
	}
	if f.Role != "" {
		filter["roles"] = f.Role
	}
	return filter
}

func mongoWriteError(err error) error {
	if field, ok := dbx.MongoDuplicateKey(err); ok {
		return &common.DuplicateKeyError{Field: field, Err: err}
	}
	return fmt.Errorf("db error: %w", err)
}

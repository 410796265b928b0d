package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/meanstack/internal/server/repositories/admins"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/albums"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultMongoDatabase = "meanstack"

// MongoRepositoryManager vends MongoDB-backed repositories. Migrations
// create the unique indexes the duplicate-key handling relies on.
type MongoRepositoryManager struct {
	client *mongo.Client
	db     *mongo.Database
}

// mongoConnect is a seam for testing mongo.Connect.
var mongoConnect = func(ctx context.Context, opts ...*options.ClientOptions) (*mongo.Client, error) {
	return mongo.Connect(ctx, opts...)
}

func NewMongoRepositoryManager(ctx context.Context, dsn string) (*MongoRepositoryManager, error) {
	cs, err := connstring.ParseAndValidate(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mongo dsn: %w", err)
	}
	name := cs.Database
	if name == "" {
		name = defaultMongoDatabase
	}

	client, err := mongoConnect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, err
	}
	return &MongoRepositoryManager{client: client, db: client.Database(name)}, nil
}

// NewMongoRepositoryManagerFromDB wraps an already connected database.
func NewMongoRepositoryManagerFromDB(db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{client: db.Client(), db: db}
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return users.NewMongoRepository(m.db.Collection(users.CollectionName))
}

func (m *MongoRepositoryManager) Admins() admins.Repository {
	return admins.NewMongoRepository(m.db.Collection(admins.CollectionName))
}

func (m *MongoRepositoryManager) Albums() albums.Repository {
	return albums.NewMongoRepository(m.db.Collection(albums.CollectionName))
}

// InTx runs fn directly: multi-document transactions need a replica set,
// which standalone development servers do not have.
func (m *MongoRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return fn(ctx, Repositories{Users: m.Users(), Admins: m.Admins(), Albums: m.Albums()})
}

func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	for name, idx := range map[string][]mongo.IndexModel{
		users.CollectionName:  users.Indexes(),
		admins.CollectionName: admins.Indexes(),
		albums.CollectionName: albums.Indexes(),
	} {
		if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

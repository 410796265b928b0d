package repomanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoRepositoryManager(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("run migrations creates indexes", func(mt *mtest.T) {
		m := NewMongoRepositoryManagerFromDB(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		require.NoError(mt, m.RunMigrations(context.Background()))
		assert.NotNil(mt, m.Users())
		assert.NotNil(mt, m.Admins())
		assert.NotNil(mt, m.Albums())
	})

	mt.Run("in tx runs fn", func(mt *mtest.T) {
		m := NewMongoRepositoryManagerFromDB(mt.DB)
		called := false
		err := m.InTx(context.Background(), func(ctx context.Context, r Repositories) error {
			called = r.Users != nil && r.Admins != nil
			return nil
		})
		require.NoError(mt, err)
		assert.True(mt, called)
	})
}

func TestNewMongoRepositoryManager(t *testing.T) {
	orig := mongoConnect
	defer func() { mongoConnect = orig }()

	var gotURI string
	mongoConnect = func(ctx context.Context, opts ...*options.ClientOptions) (*mongo.Client, error) {
		gotURI = opts[0].GetURI()
		return nil, errors.New("connect failed")
	}

	_, err := New(context.Background(), "mongodb://localhost:27017/meanstack-test")
	assert.EqualError(t, err, "connect failed")
	assert.Equal(t, "mongodb://localhost:27017/meanstack-test", gotURI)

	_, err = NewMongoRepositoryManager(context.Background(), "mongodb://%zz")
	assert.Error(t, err)
}

// Package repomanager selects the storage backend from the DSN and vends
// repositories bound to it.
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/server/repositories/admins"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/albums"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
)

// Repositories groups repositories that share one database handle, such as
// a transaction.
type Repositories struct {
	Users  users.Repository
	Admins admins.Repository
	Albums albums.Repository
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Admins() admins.Repository
	Albums() albums.Repository
	// InTx runs fn with repositories bound to one transaction where the
	// backend supports it.
	InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// New opens the backend named by the DSN scheme: mongodb:// and
// mongodb+srv:// use MongoDB, postgres:// and postgresql:// use Postgres
// and memory:// keeps data in process memory.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	switch {
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		m, err := NewMongoRepositoryManager(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return m, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		m, err := NewPostgresRepositoryManager(dsn)
		if err != nil {
			return nil, err
		}
		return m, nil
	case strings.HasPrefix(dsn, "memory://"):
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database dsn scheme: %q", schemeOf(dsn))
	}
}

func schemeOf(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i]
	}
	return dsn
}

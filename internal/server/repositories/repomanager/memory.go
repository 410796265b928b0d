package repomanager

import (
	"context"

	"github.com/dmitrijs2005/meanstack/internal/server/repositories/admins"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/albums"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/memory"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Data is lost
// on exit.
type MemoryRepositoryManager struct {
	users  *memory.Users
	admins *memory.Admins
	albums *memory.Albums
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  memory.NewUsers(),
		admins: memory.NewAdmins(),
		albums: memory.NewAlbums(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository   { return m.users }
func (m *MemoryRepositoryManager) Admins() admins.Repository { return m.admins }
func (m *MemoryRepositoryManager) Albums() albums.Repository { return m.albums }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return fn(ctx, Repositories{Users: m.users, Admins: m.admins, Albums: m.albums})
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *MemoryRepositoryManager) Close(context.Context) error         { return nil }

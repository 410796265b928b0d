package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
)

// fakeManager exposes the users repository directly so tests can seed and
// inspect documents.
type fakeManager struct {
	*repomanager.MemoryRepositoryManager
	users users.Repository
}

func newFakeManager() *fakeManager {
	m := repomanager.NewMemoryRepositoryManager()
	return &fakeManager{MemoryRepositoryManager: m, users: m.Users()}
}

// --- other collaborators ---

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeImages struct {
	mu    sync.Mutex
	calls []string
	fail  map[int]bool
}

func (f *fakeImages) Process(_ context.Context, src string, sizes []int, ref string) map[int]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ref)
	out := map[int]string{}
	for _, s := range sizes {
		if f.fail[s] {
			continue
		}
		out[s] = "https://cdn/" + ref + "/x" + strconv.Itoa(s)
	}
	return out
}

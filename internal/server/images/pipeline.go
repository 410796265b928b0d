package images

import (
	"context"
	"os"
	"sync"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/storage"
)

// Pipeline turns a local upload into signed URLs of its resized variants.
type Pipeline struct {
	store  storage.Storage
	logger logging.Logger
}

func NewPipeline(store storage.Storage, logger logging.Logger) *Pipeline {
	return &Pipeline{store: store, logger: logger.With("module", "images")}
}

// Variant resizes src, uploads the result under ref, removes the local copy
// and returns a signed URL for it.
func (p *Pipeline) Variant(ctx context.Context, src string, size int, ref string) (string, error) {
	resized, err := Resize(src, size)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(resized); err != nil && !os.IsNotExist(err) {
			p.logger.Warn(ctx, "removing resized image failed", "path", resized, "error", err)
		}
	}()

	key := p.store.Key(ref, resized)
	if err := p.store.Upload(ctx, key, resized, "image/jpeg"); err != nil {
		return "", err
	}

	return p.store.SignedURL(ctx, key)
}

// Process builds every size concurrently. Failed sizes are logged and left
// out of the result.
func (p *Pipeline) Process(ctx context.Context, src string, sizes []int, ref string) map[int]string {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		urls = make(map[int]string, len(sizes))
	)

	for _, size := range sizes {
		wg.Add(1)
		go func(size int) {
			defer wg.Done()

			url, err := p.Variant(ctx, src, size, ref)
			if err != nil {
				p.logger.Error(ctx, "image variant failed", "path", src, "size", size, "error", err)
				return
			}

			mu.Lock()
			urls[size] = url
			mu.Unlock()
		}(size)
	}

	wg.Wait()
	return urls
}

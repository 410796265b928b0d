package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
)

// Album photo variants.
var albumSizes = []int{200, 720}

type AlbumService struct {
	repomanager repomanager.RepositoryManager
	images      ImageProcessor
	uploadDir   string
	logger      logging.Logger
}

func NewAlbumService(m repomanager.RepositoryManager, images ImageProcessor, uploadDir string, logger logging.Logger) *AlbumService {
	return &AlbumService{
		repomanager: m,
		images:      images,
		uploadDir:   uploadDir,
		logger:      logger.With("module", "album_service"),
	}
}

// Upload resizes every photo and stores them as one album. Sizes that fail
// are left empty on the image.
func (s *AlbumService) Upload(ctx context.Context, userID string, localPaths []string) (*models.Album, error) {
	album := &models.Album{
		ID:      models.NewID(),
		UserID:  userID,
		Images:  make([]models.AlbumImage, 0, len(localPaths)),
		Created: timeNow(),
	}

	for _, p := range localPaths {
		urls := s.images.Process(ctx, p, albumSizes, "photos/"+userID)
		album.Images = append(album.Images, models.AlbumImage{
			Original: PublicUploadURL(s.uploadDir, userID, p),
			X200:     urls[200],
			X720:     urls[720],
		})
	}

	if err := s.repomanager.Albums().Create(ctx, album); err != nil {
		return nil, fmt.Errorf("error creating album: %w", err)
	}

	s.logger.Info(ctx, "album created", "album_id", album.ID, "user_id", userID, "photos", len(localPaths))
	return album, nil
}

func (s *AlbumService) List(ctx context.Context, userID string) ([]*models.Album, error) {
	albums, err := s.repomanager.Albums().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if albums == nil {
		albums = []*models.Album{}
	}
	return albums, nil
}

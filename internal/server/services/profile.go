package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
)

// Profile picture variants.
var profileSizes = []int{100, 256}

// ImageProcessor builds resized variants of a local image and returns
// their URLs by size.
type ImageProcessor interface {
	Process(ctx context.Context, src string, sizes []int, ref string) map[int]string
}

// ProfileEdit holds the editable profile fields. Empty values are left
// unchanged.
type ProfileEdit struct {
	FirstName   string
	LastName    string
	DisplayName string
	Phone       string
}

type ProfileService struct {
	repomanager repomanager.RepositoryManager
	images      ImageProcessor
	uploadDir   string
	logger      logging.Logger

	background sync.WaitGroup
}

func NewProfileService(m repomanager.RepositoryManager, images ImageProcessor, uploadDir string, logger logging.Logger) *ProfileService {
	return &ProfileService{
		repomanager: m,
		images:      images,
		uploadDir:   uploadDir,
		logger:      logger.With("module", "profile_service"),
	}
}

func (s *ProfileService) Edit(ctx context.Context, userID string, in ProfileEdit) (*models.User, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.DisplayName != "" {
		u.DisplayName = in.DisplayName
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}

	return s.save(ctx, u)
}

func (s *ProfileService) AddAddress(ctx context.Context, userID string, a models.Address) (*models.User, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	a.ID = uuid.NewString()
	u.Addresses = append(u.Addresses, a)

	return s.save(ctx, u)
}

func (s *ProfileService) RemoveAddress(ctx context.Context, userID, addressID string) (*models.User, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := u.Addresses[:0]
	found := false
	for _, a := range u.Addresses {
		if a.ID == addressID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return nil, common.NewAppError(common.CodeUserDocNotFound, http.StatusNotFound, "No address with that identifier has been found")
	}
	u.Addresses = kept

	return s.save(ctx, u)
}

// RemoveOAuthProvider unlinks an additional provider account.
func (s *ProfileService) RemoveOAuthProvider(ctx context.Context, userID, provider string) (*models.User, error) {
	if provider == "" {
		return nil, common.NewAppError(common.CodeMissingParams, http.StatusBadRequest, "Invalid provider")
	}

	u, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, ok := u.AdditionalProvidersData[provider]; !ok {
		return u, nil
	}
	delete(u.AdditionalProvidersData, provider)

	return s.save(ctx, u)
}

// ChangePicture points every profile image at the uploaded file and saves
// the user. Resized variants are built in the background and replace the
// placeholders when ready; failures there leave the originals in place.
func (s *ProfileService) ChangePicture(ctx context.Context, userID, localPath string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url := PublicUploadURL(s.uploadDir, u.ID, localPath)
	u.ProfileImageURLs = models.ProfileImageURLs{Original: url, X100: url, X256: url}

	u, err = s.save(ctx, u)
	if err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.resizePicture(bg, u.ID, localPath)
	}()

	return u, nil
}

func (s *ProfileService) resizePicture(ctx context.Context, userID, localPath string) {
	urls := s.images.Process(ctx, localPath, profileSizes, "users/"+userID)
	if len(urls) == 0 {
		return
	}

	repo := s.repomanager.Users()
	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "reloading user after resize failed", "user_id", userID, "error", err)
		return
	}

	if v, ok := urls[100]; ok {
		u.ProfileImageURLs.X100 = v
	}
	if v, ok := urls[256]; ok {
		u.ProfileImageURLs.X256 = v
	}

	if _, err := s.save(ctx, u); err != nil {
		s.logger.Error(ctx, "saving resized picture urls failed", "user_id", userID, "error", err)
	}
}

// Wait blocks until background picture processing has finished.
func (s *ProfileService) Wait() {
	s.background.Wait()
}

func (s *ProfileService) save(ctx context.Context, u *models.User) (*models.User, error) {
	now := timeNow()
	u.Updated = &now

	if err := u.PrepareSave(false); err != nil {
		return nil, err
	}
	if err := s.repomanager.Users().Update(ctx, u); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return u, nil
}

// PublicUploadURL is the URL an uploaded file is served under: the upload
// directory without its leading dot, the owner id and the file name.
func PublicUploadURL(uploadDir, ownerID, localPath string) string {
	dir := strings.TrimPrefix(filepath.ToSlash(uploadDir), ".")
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	return path.Join(dir, ownerID, filepath.Base(localPath))
}

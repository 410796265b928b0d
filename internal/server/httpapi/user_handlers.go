package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/filex"
	"github.com/dmitrijs2005/meanstack/internal/server/images"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// uploadField is the multipart field carrying image uploads.
const uploadField = "newProfilePicture"

var (
	errMissingUpload    = common.Unprocessable(common.CodeLimitUnexpectedFile, `Missing "`+uploadField+`" field`)
	errUnsupportedMedia = common.Unprocessable(common.CodeUnsupportedMediaType, "Only png, jpg, jpeg and gif images are allowed")
	errUploadTooLarge   = common.NewAppError(common.CodeLimitUnexpectedFile, http.StatusRequestEntityTooLarge, "File too large")
)

type profileRequest struct {
	FirstName   string `json:"first_name" validate:"omitempty,person_name"`
	LastName    string `json:"last_name" validate:"omitempty,person_name"`
	DisplayName string `json:"display_name" validate:"omitempty,person_name"`
	Phone       string `json:"phone" validate:"omitempty,phone"`

	Email            any `json:"email" validate:"isdefault"`
	Password         any `json:"password" validate:"isdefault"`
	Roles            any `json:"roles" validate:"isdefault"`
	Provider         any `json:"provider" validate:"isdefault"`
	ProfileImageURLs any `json:"profile_image_urls" validate:"isdefault"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
	VerifyPassword  string `json:"verifyPassword" validate:"required"`
}

type addressRequest struct {
	Name         string `json:"name" validate:"required"`
	State        string `json:"state" validate:"required,uf"`
	Country      string `json:"country" validate:"required"`
	City         string `json:"city" validate:"required"`
	ZipCode      string `json:"zip_code" validate:"required"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	Complement   string `json:"complement"`
}

// caller returns the authenticated user. Routes using it sit behind
// requireUser.
func caller(r *http.Request) *models.User {
	u, _ := UserFromContext(r.Context())
	return u
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, caller(r).Sanitize())
}

func (h *Handler) editProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.profile.Edit(r.Context(), caller(r).ID, services.ProfileEdit{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, u.Sanitize())
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.passwords.ChangePassword(r.Context(), caller(r).ID, req.CurrentPassword, req.NewPassword, req.VerifyPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, msg)
}

func (h *Handler) changePicture(w http.ResponseWriter, r *http.Request) {
	u := caller(r)

	paths, err := h.receiveImages(w, r, u.ID, 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.profile.ChangePicture(r.Context(), u.ID, paths[0])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, updated.Sanitize())
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.profile.AddAddress(r.Context(), caller(r).ID, models.Address{
		Name:         req.Name,
		State:        strings.ToUpper(req.State),
		Country:      req.Country,
		City:         req.City,
		ZipCode:      req.ZipCode,
		Street:       req.Street,
		Number:       req.Number,
		Neighborhood: req.Neighborhood,
		Complement:   req.Complement,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, u.Sanitize())
}

func (h *Handler) removeAddress(w http.ResponseWriter, r *http.Request) {
	u, err := h.profile.RemoveAddress(r.Context(), caller(r).ID, chi.URLParam(r, "addressId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, u.Sanitize())
}

func (h *Handler) removeAccount(w http.ResponseWriter, r *http.Request) {
	u, err := h.profile.RemoveOAuthProvider(r.Context(), caller(r).ID, r.URL.Query().Get("provider"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, u.Sanitize())
}

// receiveImages stores up to maxFiles images of the upload field under
// the owner's upload directory and returns their local paths. maxFiles <= 0
// means no limit.
func (h *Handler) receiveImages(w http.ResponseWriter, r *http.Request, ownerID string, maxFiles int) ([]string, error) {
	limit := h.cfg.Uploads.MaxFileSize
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit*int64(max(maxFiles, 1))+maxBodyBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errUploadTooLarge
		}
		return nil, errMissingUpload
	}

	files := r.MultipartForm.File[uploadField]
	if len(files) == 0 {
		return nil, errMissingUpload
	}
	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}

	for _, fh := range files {
		if !images.IsSupported(fh.Header.Get("Content-Type")) {
			return nil, errUnsupportedMedia
		}
	}

	dir := filepath.Join(h.cfg.Uploads.UserImagePath, ownerID)
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := saveUpload(dir, fh, limit)
		if err != nil {
			for _, saved := range paths {
				_ = os.Remove(saved)
			}
			if errors.Is(err, filex.ErrTooLarge) {
				return nil, errUploadTooLarge
			}
			return nil, err
		}
		paths = append(paths, p)
	}

	return paths, nil
}

func saveUpload(dir string, fh *multipart.FileHeader, limit int64) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return filex.SaveTemp(dir, f, strings.ToLower(filepath.Ext(fh.Filename)), limit)
}

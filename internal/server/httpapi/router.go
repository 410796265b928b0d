package httpapi

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	errRouteNotFound    = common.NewAppError(common.CodeUserDocNotFound, http.StatusNotFound, "Route not found")
	errMethodNotAllowed = common.NewAppError(common.CodeMissingParams, http.StatusMethodNotAllowed, "Method not allowed")
)

// NewRouter wires every route of the API. Protected routes are registered
// with their full paths inside groups so the ACL gate sees the complete
// route pattern.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Socket-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeAppError(w, errRouteNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { writeAppError(w, errMethodNotAllowed) })

	r.Get("/healthz", h.healthz)

	r.Post("/api/v1/signup", h.signup)
	r.Post("/api/v1/signin", h.signin)
	r.Post("/api/v1/admin/signin", h.adminSignin)
	r.Get("/api/v1/auth/{strategy}", h.oauthStart)
	r.Get("/api/v1/auth/{strategy}/callback", h.oauthCallback)
	r.Post("/api/v1/auth/forgot", h.forgot)
	r.Get("/api/v1/auth/reset/{token}", h.validateReset)
	r.Post("/api/v1/auth/reset/{token}", h.reset)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate, h.requireUser, h.authorize)

		r.Get("/api/v1/users/me", h.me)
		r.Put("/api/v1/users", h.editProfile)
		r.Post("/api/v1/users/profile", h.editProfile)
		r.Post("/api/v1/users/password", h.changePassword)
		r.Post("/api/v1/users/picture", h.changePicture)
		r.Post("/api/v1/users/address", h.addAddress)
		r.Delete("/api/v1/users/address/{addressId}", h.removeAddress)
		r.Delete("/api/v1/users/accounts", h.removeAccount)

		r.Post("/api/v1/albums", h.uploadPhotos)
		r.Get("/api/v1/albums", h.listAlbums)

		r.Get("/api/users", h.listUsers)
		r.Get("/api/users/{userId}", h.getUser)
		r.Put("/api/users/{userId}", h.updateUser)
		r.Delete("/api/users/{userId}", h.deleteUser)
	})

	if d.GraphQL != nil {
		r.Handle("/graphql", d.GraphQL)
	}
	if d.Chat != nil {
		r.Handle("/ws/chat", d.Chat)
	}

	r.Get("/public/*", publicFiles(d.Config.Files().Public))
	if dir := d.Config.Uploads.UserImagePath; dir != "" {
		prefix := uploadPrefix(dir)
		r.Get(prefix+"/*", http.StripPrefix(prefix, noListing(http.FileServer(http.Dir(dir)))).ServeHTTP)
	}

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// publicFiles serves exactly the resolved asset files, each under its
// slash-separated relative path.
func publicFiles(paths []string) http.HandlerFunc {
	byURL := make(map[string]string, len(paths))
	for _, p := range paths {
		u := "/" + strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "/")
		byURL[u] = p
	}

	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := byURL[r.URL.Path]
		if !ok {
			writeAppError(w, errRouteNotFound)
			return
		}
		http.ServeFile(w, r, p)
	}
}

// uploadPrefix is the URL prefix of uploaded files, the upload directory
// without its leading dot.
func uploadPrefix(dir string) string {
	p := strings.TrimSuffix(strings.TrimPrefix(filepath.ToSlash(dir), "."), "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			writeAppError(w, errRouteNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

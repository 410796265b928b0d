package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/meanstack/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type adminUserRequest struct {
	FirstName   string    `json:"first_name" validate:"omitempty,person_name"`
	LastName    string    `json:"last_name" validate:"omitempty,person_name"`
	DisplayName string    `json:"display_name" validate:"omitempty,person_name"`
	Roles       *[]string `json:"roles" validate:"omitnil,min=1,dive,oneof=user admin"`

	Email    any `json:"email" validate:"isdefault"`
	Password any `json:"password" validate:"isdefault"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin.ListUsers(r.Context(), services.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, page)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.admin.ResolveUser(r.Context(), caller(r), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, u.Sanitize())
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.admin.ResolveUser(r.Context(), caller(r), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req adminUserRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in := services.UserUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.DisplayName,
	}
	if req.Roles != nil {
		in.Roles = *req.Roles
	}

	u, err = h.admin.UpdateUser(r.Context(), u, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, u.Sanitize())
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.admin.ResolveUser(r.Context(), caller(r), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.admin.DeleteUser(r.Context(), u); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, u.Sanitize())
}

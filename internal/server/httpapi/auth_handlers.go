package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const (
	stateCookie = "oauth_state"
	linkCookie  = "oauth_link"
	stateMaxAge = 600
)

var errUnknownStrategy = common.NewAppError(common.CodeMissingParams, http.StatusNotFound, "Unknown authentication strategy")

type signupRequest struct {
	FirstName string `json:"first_name" validate:"required,person_name"`
	LastName  string `json:"last_name" validate:"required,person_name"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
	Document  string `json:"document" validate:"omitempty,document"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	City      string `json:"city"`
	State     string `json:"state" validate:"omitempty,uf"`
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	NewPassword    string `json:"newPassword" validate:"required,password"`
	VerifyPassword string `json:"verifyPassword" validate:"required"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	payload, err := h.auth.Signup(r.Context(), services.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Document:  req.Document,
		Phone:     req.Phone,
		City:      req.City,
		State:     req.State,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, payload)
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.Message != "" {
		writeSuccess(w, services.Message{Message: res.Message})
		return
	}

	writeSuccess(w, res.Payload)
}

func (h *Handler) adminSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	payload, err := h.auth.AdminSignin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, payload)
}

func (h *Handler) provider(r *http.Request) (*auth.OAuthProvider, bool) {
	p, ok := h.providers[chi.URLParam(r, "strategy")]
	return p, ok && p.Configured()
}

// oauthStart redirects to the provider. A signed-in caller's token is kept
// in a short-lived cookie so the callback links the account instead of
// signing in.
func (h *Handler) oauthStart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(r)
	if !ok {
		h.writeError(w, r, errUnknownStrategy)
		return
	}

	state, err := randomState()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setCookie(w, stateCookie, state, stateMaxAge)

	if token := h.tokens.TokenFromRequest(r); token != "" {
		if res := h.tokens.AuthenticateToken(r.Context(), token); res.Status == auth.Authenticated {
			h.setCookie(w, linkCookie, token, stateMaxAge)
		}
	}

	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(r)
	if !ok {
		h.writeError(w, r, errUnknownStrategy)
		return
	}

	q := r.URL.Query()
	state, err := r.Cookie(stateCookie)
	h.setCookie(w, stateCookie, "", -1)
	if err != nil || state.Value == "" || state.Value != q.Get("state") {
		h.redirectOAuthError(w, r, "invalid oauth state")
		return
	}
	if e := q.Get("error"); e != "" {
		h.redirectOAuthError(w, r, e)
		return
	}

	profile, err := p.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		h.logger.Error(r.Context(), "oauth exchange failed", "provider", p.Name, "error", err)
		h.redirectOAuthError(w, r, "authentication failed")
		return
	}

	var current *models.User
	if c, err := r.Cookie(linkCookie); err == nil && c.Value != "" {
		h.setCookie(w, linkCookie, "", -1)
		if res := h.tokens.AuthenticateToken(r.Context(), c.Value); res.Status == auth.Authenticated {
			current = res.User
		}
	}

	u, err := h.auth.SaveOAuthProfile(r.Context(), profile, current)
	if err != nil {
		h.logger.Warn(r.Context(), "saving oauth profile failed", "provider", p.Name, "error", err)
		h.redirectOAuthError(w, r, common.ToAppError(err).Message)
		return
	}

	payload, err := h.auth.Payload(u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, h.oauthRedirect("data", string(data)), http.StatusMovedPermanently)
}

func (h *Handler) redirectOAuthError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, h.oauthRedirect("error", msg), http.StatusFound)
}

func (h *Handler) oauthRedirect(key, value string) string {
	target := h.cfg.OAuthRedirectURL
	if target == "" {
		target = "/"
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + key + "=" + url.QueryEscape(value)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.UseTLS(),
		SameSite: http.SameSiteLaxMode,
	})
}

func randomState() (string, error) {
	return common.MakeRandHexString(16)
}

func (h *Handler) forgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.passwords.Forgot(r.Context(), req.Email, h.publicURL(r, "/api/v1/auth/reset/"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, msg)
}

// validateReset sends the browser to the reset form or to the invalid
// token page.
func (h *Handler) validateReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	ok, err := h.passwords.ValidateResetToken(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		http.Redirect(w, r, "/password/reset/invalid", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/password/reset/"+url.PathEscape(token), http.StatusFound)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := h.bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	payload, err := h.passwords.Reset(r.Context(), chi.URLParam(r, "token"), req.NewPassword, req.VerifyPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, payload)
}

// publicURL resolves path against the configured domain, or against the
// request host when no domain is set.
func (h *Handler) publicURL(r *http.Request, path string) string {
	domain := h.cfg.Domain
	if domain == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		domain = scheme + "://" + r.Host
	}
	return auth.AbsoluteURL(domain, path)
}

// Package services contains the server-side business logic behind the HTTP
// and GraphQL handlers. Client-visible failures are returned as
// *common.AppError; everything else is wrapped and left to
// common.ToAppError.
package services

import (
	"time"

	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

var timeNow = time.Now

// AuthPayload is returned by every successful sign in.
type AuthPayload struct {
	User  models.SafeUser `json:"user"`
	Token string          `json:"token"`
}

func newPayload(tokens *auth.JWTStrategy, u *models.User) (*AuthPayload, error) {
	token, err := tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &AuthPayload{User: u.Sanitize(), Token: token}, nil
}

// Message is the body of endpoints that only report an outcome.
type Message struct {
	Message string `json:"message"`
}

package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/cryptox"
)

// Admin is an operator account kept apart from regular users.
type Admin struct {
	ID               string           `bson:"_id" json:"_id"`
	FirstName        string           `bson:"first_name" json:"first_name"`
	LastName         string           `bson:"last_name" json:"last_name"`
	DisplayName      string           `bson:"display_name" json:"display_name"`
	Email            string           `bson:"email" json:"email"`
	Password         string           `bson:"password" json:"-"`
	Salt             string           `bson:"salt,omitempty" json:"-"`
	ProfileImageURLs ProfileImageURLs `bson:"profile_image_urls" json:"profile_image_urls"`
	Provider         string           `bson:"provider" json:"provider"`
	Roles            []string         `bson:"roles" json:"roles"`
	CreatedAt        time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `bson:"updated_at" json:"updated_at"`
}

func (a *Admin) Authenticate(password string) bool {
	return cryptox.Authenticate(a.Password, a.Salt, password)
}

func (a *Admin) PrepareSave(passwordChanged bool) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	if a.DisplayName == "" {
		a.DisplayName = strings.TrimSpace(a.FirstName + " " + a.LastName)
	}
	a.Provider = ProviderLocal
	a.Roles = []string{RoleAdmin}
	a.ProfileImageURLs.setDefaults()

	if !emailRe.MatchString(a.Email) {
		return common.Unprocessable(common.CodeInvalidEmail, "The email you passed is not a valid one")
	}

	return preparePassword(a.Provider, &a.Password, &a.Salt, passwordChanged)
}

// AsUser projects the admin onto the user shape used by tokens and
// responses.
func (a *Admin) AsUser() *User {
	return &User{
		ID:               a.ID,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		DisplayName:      a.DisplayName,
		Email:            a.Email,
		ProfileImageURLs: a.ProfileImageURLs,
		Provider:         a.Provider,
		Roles:            a.Roles,
		Created:          a.CreatedAt,
	}
}

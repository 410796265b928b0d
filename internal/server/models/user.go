// Package models defines the persisted documents: users, admins and albums,
// together with the save-time rules they enforce.
package models

import (
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/cryptox"
)

const (
	ProviderLocal    = "local"
	ProviderFacebook = "facebook"
	ProviderGoogle   = "google"

	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultImageURL = "/public/images/common/default.png"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+$`)
	documentRe = regexp.MustCompile(`^[0-9]{11}$`)
)

// ProfileImageURLs points at the original upload and its resized variants.
type ProfileImageURLs struct {
	Original string `bson:"original" json:"original"`
	X100     string `bson:"x100" json:"x100"`
	X256     string `bson:"x256" json:"x256"`
}

type Address struct {
	ID           string `bson:"_id" json:"_id"`
	Name         string `bson:"name" json:"name"`
	State        string `bson:"state" json:"state"`
	Country      string `bson:"country" json:"country"`
	City         string `bson:"city" json:"city"`
	ZipCode      string `bson:"zip_code" json:"zip_code"`
	Street       string `bson:"street" json:"street"`
	Number       string `bson:"number" json:"number"`
	Neighborhood string `bson:"neighborhood" json:"neighborhood"`
	Complement   string `bson:"complement,omitempty" json:"complement,omitempty"`
}

// User is the stored account. Password holds the PBKDF2 digest once the
// user has been saved.
type User struct {
	ID                      string                    `bson:"_id" json:"_id"`
	FirstName               string                    `bson:"first_name" json:"first_name"`
	LastName                string                    `bson:"last_name" json:"last_name"`
	DisplayName             string                    `bson:"display_name" json:"display_name"`
	Email                   string                    `bson:"email,omitempty" json:"email"`
	Document                string                    `bson:"document,omitempty" json:"document,omitempty"`
	Phone                   string                    `bson:"phone,omitempty" json:"phone,omitempty"`
	City                    string                    `bson:"city,omitempty" json:"city,omitempty"`
	State                   string                    `bson:"state,omitempty" json:"state,omitempty"`
	Password                string                    `bson:"password" json:"-"`
	Salt                    string                    `bson:"salt,omitempty" json:"-"`
	ProfileImageURLs        ProfileImageURLs          `bson:"profile_image_urls" json:"profile_image_urls"`
	Provider                string                    `bson:"provider" json:"provider"`
	ProviderData            map[string]any            `bson:"provider_data,omitempty" json:"provider_data,omitempty"`
	AdditionalProvidersData map[string]map[string]any `bson:"additional_providers_data,omitempty" json:"additional_providers_data,omitempty"`
	Roles                   []string                  `bson:"roles" json:"roles"`
	Addresses               []Address                 `bson:"addresses,omitempty" json:"addresses,omitempty"`
	Updated                 *time.Time                `bson:"updated,omitempty" json:"updated,omitempty"`
	Created                 time.Time                 `bson:"created" json:"created"`
	Deleted                 *time.Time                `bson:"deleted,omitempty" json:"-"`
	ResetPasswordToken      string                    `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExpires    *time.Time                `bson:"reset_password_expires,omitempty" json:"-"`
}

// SafeUser is the public view of a User, without credentials.
type SafeUser struct {
	ID                      string                    `json:"_id"`
	FirstName               string                    `json:"first_name"`
	LastName                string                    `json:"last_name"`
	DisplayName             string                    `json:"display_name"`
	Email                   string                    `json:"email"`
	Document                string                    `json:"document,omitempty"`
	Phone                   string                    `json:"phone,omitempty"`
	City                    string                    `json:"city,omitempty"`
	State                   string                    `json:"state,omitempty"`
	ProfileImageURLs        ProfileImageURLs          `json:"profile_image_urls"`
	Provider                string                    `json:"provider"`
	ProviderData            map[string]any            `json:"provider_data,omitempty"`
	AdditionalProvidersData map[string]map[string]any `json:"additional_providers_data,omitempty"`
	Roles                   []string                  `json:"roles"`
	Addresses               []Address                 `json:"addresses,omitempty"`
	Updated                 *time.Time                `json:"updated,omitempty"`
	Created                 time.Time                 `json:"created"`
}

func (u *User) Sanitize() SafeUser {
	return SafeUser{
		ID:                      u.ID,
		FirstName:               u.FirstName,
		LastName:                u.LastName,
		DisplayName:             u.DisplayName,
		Email:                   u.Email,
		Document:                u.Document,
		Phone:                   u.Phone,
		City:                    u.City,
		State:                   u.State,
		ProfileImageURLs:        u.ProfileImageURLs,
		Provider:                u.Provider,
		ProviderData:            u.ProviderData,
		AdditionalProvidersData: u.AdditionalProvidersData,
		Roles:                   slices.Clone(u.Roles),
		Addresses:               u.Addresses,
		Updated:                 u.Updated,
		Created:                 u.Created,
	}
}

// HasRole reports whether the user carries role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Authenticate checks a candidate password against the stored digest.
func (u *User) Authenticate(password string) bool {
	return cryptox.Authenticate(u.Password, u.Salt, password)
}

// PrepareSave normalizes the document, validates it and hashes the password
// when it changed. Callers pass passwordChanged=false on plain re-saves so
// an existing digest is never hashed twice.
func (u *User) PrepareSave(passwordChanged bool) error {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.DisplayName = strings.TrimSpace(u.DisplayName)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Phone = strings.TrimSpace(u.Phone)
	u.Document = strings.TrimSpace(u.Document)
	u.City = strings.TrimSpace(u.City)
	u.State = strings.ToUpper(strings.TrimSpace(u.State))

	if u.Provider == "" {
		u.Provider = ProviderLocal
	}
	if len(u.Roles) == 0 {
		u.Roles = []string{RoleUser}
	}
	if u.DisplayName == "" {
		u.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	u.ProfileImageURLs.setDefaults()

	if err := u.validate(); err != nil {
		return err
	}

	return preparePassword(u.Provider, &u.Password, &u.Salt, passwordChanged)
}

func (u *User) validate() error {
	if u.Provider == ProviderLocal || u.Email != "" {
		if !emailRe.MatchString(u.Email) {
			return common.Unprocessable(common.CodeInvalidEmail, "The email you passed is not a valid one")
		}
	}
	if u.Phone != "" && len(u.Phone) != 10 && len(u.Phone) != 11 {
		return common.Unprocessable(common.CodeInvalidPhone, u.Phone+" is not a valid phone number!")
	}
	if u.Document != "" && !documentRe.MatchString(u.Document) {
		return common.Unprocessable(common.CodeMissingParams, "Document should have 11 digits")
	}
	if u.State != "" && !IsValidState(u.State) {
		return common.Unprocessable(common.CodeMissingParams, u.State+" is not a valid state")
	}
	for _, r := range u.Roles {
		if r != RoleUser && r != RoleAdmin {
			return common.Unprocessable(common.CodeMissingParams, r+" is not a valid role")
		}
	}
	return nil
}

func (p *ProfileImageURLs) setDefaults() {
	if p.Original == "" {
		p.Original = DefaultImageURL
	}
	if p.X100 == "" {
		p.X100 = DefaultImageURL
	}
	if p.X256 == "" {
		p.X256 = DefaultImageURL
	}
}

func preparePassword(provider string, password, salt *string, changed bool) error {
	if provider == ProviderLocal && (changed || *password == "") {
		if cryptox.IsBlacklisted(*password) {
			return &common.AppError{
				Code:    common.CodeBlacklistPassword,
				Status:  http.StatusUnprocessableEntity,
				Message: "The password passed is in our blacklist of passwords",
			}
		}
	}

	if !changed || *password == "" {
		return nil
	}

	s, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	*salt = s
	*password = cryptox.HashPassword(*password, s)
	return nil
}

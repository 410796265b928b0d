package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/dmitrijs2005/meanstack/internal/netx"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

const (
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,first_name,last_name,name,email"
	googleProfileURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// Profile is the provider account normalized across providers. Data keeps
// the raw provider payload and is stored on the user as provider data.
type Profile struct {
	Provider    string
	ID          string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	PictureURL  string
	Data        map[string]any
}

// Credentials configure one provider application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type OAuthProvider struct {
	Name       string
	conf       *oauth2.Config
	profileURL string
	mapProfile func(raw map[string]any) Profile
	client     *http.Client
}

type ProviderOption func(*OAuthProvider)

// WithEndpoints points the provider at different authorization, token and
// profile URLs.
func WithEndpoints(authURL, tokenURL, profileURL string) ProviderOption {
	return func(p *OAuthProvider) {
		p.conf.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		p.profileURL = profileURL
	}
}

func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *OAuthProvider) { p.client = c }
}

func NewFacebookProvider(creds Credentials, domain string, opts ...ProviderOption) *OAuthProvider {
	p := &OAuthProvider{
		Name: models.ProviderFacebook,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  AbsoluteURL(domain, creds.CallbackURL),
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email"},
		},
		profileURL: facebookProfileURL,
		mapProfile: func(raw map[string]any) Profile {
			id := str(raw, "id")
			return Profile{
				ID:          id,
				Email:       str(raw, "email"),
				FirstName:   str(raw, "first_name"),
				LastName:    str(raw, "last_name"),
				DisplayName: str(raw, "name"),
				PictureURL:  "//graph.facebook.com/" + id + "/picture?type=large",
			}
		},
	}
	return p.apply(opts)
}

func NewGoogleProvider(creds Credentials, domain string, opts ...ProviderOption) *OAuthProvider {
	p := &OAuthProvider{
		Name: models.ProviderGoogle,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  AbsoluteURL(domain, creds.CallbackURL),
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		profileURL: googleProfileURL,
		mapProfile: func(raw map[string]any) Profile {
			return Profile{
				ID:          str(raw, "sub"),
				Email:       str(raw, "email"),
				FirstName:   str(raw, "given_name"),
				LastName:    str(raw, "family_name"),
				DisplayName: str(raw, "name"),
				PictureURL:  str(raw, "picture"),
			}
		},
	}
	return p.apply(opts)
}

func (p *OAuthProvider) apply(opts []ProviderOption) *OAuthProvider {
	for _, o := range opts {
		o(p)
	}
	return p
}

// Configured reports whether client credentials were supplied.
func (p *OAuthProvider) Configured() bool {
	return p.conf.ClientID != "" && p.conf.ClientSecret != ""
}

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and fetches the
// account profile with it.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if p.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	}

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", p.Name, err)
	}

	raw := map[string]any{}
	if err := netx.GetJSON(ctx, p.conf.Client(ctx, tok), p.profileURL, &raw); err != nil {
		return nil, fmt.Errorf("%s profile: %w", p.Name, err)
	}

	profile := p.mapProfile(raw)
	if profile.ID == "" {
		return nil, fmt.Errorf("%s profile: missing account id", p.Name)
	}
	profile.Provider = p.Name
	raw["id"] = profile.ID
	raw["accessToken"] = tok.AccessToken
	if tok.RefreshToken != "" {
		raw["refreshToken"] = tok.RefreshToken
	}
	profile.Data = raw

	return &profile, nil
}

// AbsoluteURL resolves a path-only callback against the public domain.
// URLs that already carry a scheme are returned unchanged.
func AbsoluteURL(domain, path string) string {
	if path == "" || domain == "" {
		return path
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if !strings.Contains(domain, "://") {
		domain = "http://" + domain
	}
	return strings.TrimSuffix(domain, "/") + "/" + strings.TrimPrefix(path, "/")
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

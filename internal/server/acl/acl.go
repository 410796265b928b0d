// Package acl decides whether a role may call a route. The table is built
// once from literals and never changes afterwards.
package acl

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

const (
	Guest    = "guest"
	Wildcard = "*"
)

// Rule grants the listed methods on a route pattern to a role. A "*"
// resource with a "*" method grants everything.
type Rule struct {
	Role      string
	Resources []string
	Methods   []string
}

type Table struct {
	grants map[string]map[string]map[string]struct{}
}

var ErrEmptyRoute = errors.New("acl: empty route pattern")

func NewTable(rules ...Rule) *Table {
	t := &Table{grants: map[string]map[string]map[string]struct{}{}}
	for _, r := range rules {
		byRes, ok := t.grants[r.Role]
		if !ok {
			byRes = map[string]map[string]struct{}{}
			t.grants[r.Role] = byRes
		}
		for _, res := range r.Resources {
			methods, ok := byRes[res]
			if !ok {
				methods = map[string]struct{}{}
				byRes[res] = methods
			}
			for _, m := range r.Methods {
				methods[strings.ToUpper(m)] = struct{}{}
			}
		}
	}
	return t
}

// IsAllowed reports whether any of roles may call method on path. No roles
// means guest.
func (t *Table) IsAllowed(roles []string, path, method string) (bool, error) {
	if path == "" {
		return false, ErrEmptyRoute
	}
	if len(roles) == 0 {
		roles = []string{Guest}
	}
	method = strings.ToUpper(method)

	for _, role := range roles {
		byRes := t.grants[role]
		if byRes == nil {
			continue
		}
		if allows(byRes[path], method) {
			return true, nil
		}
		if all, ok := byRes[Wildcard]; ok {
			if _, ok := all[Wildcard]; ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func allows(methods map[string]struct{}, method string) bool {
	if methods == nil {
		return false
	}
	if _, ok := methods[method]; ok {
		return true
	}
	_, ok := methods[Wildcard]
	return ok
}

// Request is one authorization question: who is calling which route and
// with which route parameters.
type Request struct {
	User    *models.User
	Pattern string
	Method  string
	Params  map[string]string
}

// AddressOwnerFunc reports whether userID owns addressID.
type AddressOwnerFunc func(ctx context.Context, userID, addressID string) (bool, error)

// Policy combines the table with the ownership bypasses: a caller may
// always act on their own {userId} and on addresses they own.
type Policy struct {
	table *Table
	owner AddressOwnerFunc
}

// NewPolicy builds a policy. A nil owner checks addresses against the
// caller's loaded document.
func NewPolicy(table *Table, owner AddressOwnerFunc) *Policy {
	return &Policy{table: table, owner: owner}
}

func (p *Policy) Check(ctx context.Context, req Request) (bool, error) {
	var roles []string
	if req.User != nil {
		roles = req.User.Roles

		if id := req.Params["userId"]; id != "" && id == req.User.ID {
			return true, nil
		}
		if addressID := req.Params["addressId"]; addressID != "" {
			ok, err := p.ownsAddress(ctx, req.User, addressID)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}

	return p.table.IsAllowed(roles, req.Pattern, req.Method)
}

func (p *Policy) ownsAddress(ctx context.Context, u *models.User, addressID string) (bool, error) {
	if p.owner != nil {
		return p.owner(ctx, u.ID, addressID)
	}
	for _, a := range u.Addresses {
		if a.ID == addressID {
			return true, nil
		}
	}
	return false, nil
}

// DefaultRules is the policy table of the HTTP API.
func DefaultRules() []Rule {
	userResources := []string{
		"/api/v1/users/me",
		"/api/v1/users",
		"/api/v1/users/profile",
		"/api/v1/users/picture",
		"/api/v1/users/password",
		"/api/v1/users/address",
		"/api/v1/users/address/{addressId}",
		"/api/v1/users/accounts",
		"/api/v1/albums",
	}

	return []Rule{
		{Role: models.RoleUser, Resources: []string{"/api/v1/users/me"}, Methods: []string{http.MethodGet}},
		{Role: models.RoleUser, Resources: []string{"/api/v1/users"}, Methods: []string{http.MethodPut}},
		{Role: models.RoleUser, Resources: []string{
			"/api/v1/users/profile",
			"/api/v1/users/picture",
			"/api/v1/users/password",
			"/api/v1/users/address",
			"/api/v1/albums",
		}, Methods: []string{http.MethodPost}},
		{Role: models.RoleUser, Resources: []string{
			"/api/v1/users/address/{addressId}",
			"/api/v1/users/accounts",
		}, Methods: []string{http.MethodDelete}},
		{Role: models.RoleUser, Resources: []string{"/api/v1/albums"}, Methods: []string{http.MethodGet}},
		{Role: models.RoleAdmin, Resources: append(userResources, "/api/users", "/api/users/{userId}"), Methods: []string{Wildcard}},
	}
}

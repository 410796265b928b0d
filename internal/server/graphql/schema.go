// Package graphql exposes users over GraphQL: queries and the signin
// mutation over HTTP, and the getterUser subscription over a WebSocket.
package graphql

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/users"
	"github.com/dmitrijs2005/meanstack/internal/server/services"
	"github.com/graphql-go/graphql"
)

var errUserNotFound = errors.New("not found any user")

// Signer signs users in; it is satisfied by *services.AuthService.
type Signer interface {
	Signin(ctx context.Context, email, password string) (*services.SigninResult, error)
}

type Resolver struct {
	users  users.Repository
	signer Signer
	broker *Broker
	logger logging.Logger
}

func NewResolver(repo users.Repository, signer Signer, broker *Broker, logger logging.Logger) *Resolver {
	return &Resolver{users: repo, signer: signer, broker: broker, logger: logger.With("module", "graphql")}
}

// gqlError carries the client code of an AppError into the error
// extensions.
type gqlError struct {
	appErr *common.AppError
}

func (e gqlError) Error() string { return e.appErr.Message }

func (e gqlError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.appErr.Code), "status": e.appErr.Status}
}

func toGQLError(err error) error {
	return gqlError{appErr: common.ToAppError(err)}
}

func userValue(u models.SafeUser) map[string]interface{} {
	return map[string]interface{}{
		"_id":          u.ID,
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"display_name": u.DisplayName,
	}
}

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"_id":          &graphql.Field{Type: graphql.String},
		"email":        &graphql.Field{Type: graphql.String},
		"first_name":   &graphql.Field{Type: graphql.String},
		"last_name":    &graphql.Field{Type: graphql.String},
		"display_name": &graphql.Field{Type: graphql.String},
	},
})

var authPayloadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AuthPayload",
	Fields: graphql.Fields{
		"token": &graphql.Field{Type: graphql.String},
		"user":  &graphql.Field{Type: userType},
	},
})

// NewSchema builds the schema bound to r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getUsers": &graphql.Field{
				Type:    graphql.NewList(userType),
				Resolve: r.getUsers,
			},
			"getUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"_id":   &graphql.ArgumentConfig{Type: graphql.String},
					"email": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.getUser,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"signin": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.signin,
			},
		},
	})

	subscription := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"getterUser": &graphql.Field{
				Type: userType,
				Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
					return r.broker.Subscribe(p.Context), nil
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        query,
		Mutation:     mutation,
		Subscription: subscription,
	})
}

func (r *Resolver) getUsers(p graphql.ResolveParams) (interface{}, error) {
	n, err := r.users.Count(p.Context, users.Filter{})
	if err != nil {
		return nil, toGQLError(err)
	}
	if n == 0 {
		return []interface{}{}, nil
	}

	list, err := r.users.List(p.Context, users.Filter{}, 0, int(n))
	if err != nil {
		return nil, toGQLError(err)
	}

	out := make([]interface{}, 0, len(list))
	for _, u := range list {
		out = append(out, userValue(u.Sanitize()))
	}
	return out, nil
}

// getUser looks the user up by id, falling back to email, and publishes
// the result to getterUser subscribers.
func (r *Resolver) getUser(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["_id"].(string)
	email, _ := p.Args["email"].(string)

	var (
		u   *models.User
		err = common.ErrorNotFound
	)
	if id != "" {
		u, err = r.users.GetByID(p.Context, id)
	}
	if errors.Is(err, common.ErrorNotFound) && email != "" {
		u, err = r.users.GetByEmail(p.Context, email)
	}
	if errors.Is(err, common.ErrorNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, toGQLError(err)
	}

	v := userValue(u.Sanitize())
	r.broker.Publish(v)
	return v, nil
}

func (r *Resolver) signin(p graphql.ResolveParams) (interface{}, error) {
	email, _ := p.Args["email"].(string)
	password, _ := p.Args["password"].(string)

	res, err := r.signer.Signin(p.Context, email, password)
	if err != nil {
		return nil, toGQLError(err)
	}
	if res.Message != "" {
		return nil, errors.New(res.Message)
	}

	return map[string]interface{}{
		"token": res.Payload.Token,
		"user":  userValue(res.Payload.User),
	}, nil
}

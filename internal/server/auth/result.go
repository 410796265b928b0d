package auth

import "github.com/dmitrijs2005/meanstack/internal/server/models"

// Status is the outcome of running a strategy against a request.
type Status int

const (
	// Unauthenticated means the request carried no credentials.
	Unauthenticated Status = iota
	Authenticated
	// Failed means credentials were present but rejected; Err says why.
	Failed
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unauthenticated"
	}
}

type Result struct {
	Status Status
	User   *models.User
	Err    error
}

func authenticated(u *models.User) Result { return Result{Status: Authenticated, User: u} }

func failed(err error) Result { return Result{Status: Failed, Err: err} }

package auth

import (
	"context"
)

type userKeyType struct{}

var userKey userKeyType

// User is the identity every request is scoped to. Session issuance lives in
// an external gateway; by the time a request reaches this service the
// identity headers are trusted.
type User struct {
	Username     string
	Organization string
}

func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	return val.(User), true
}

// MustHaveUser returns the user from the context and panics if absent.
// Handlers run behind the identity middleware, so absence is a programming
// error.
func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		panic("missing user in context")
	}
	return user
}

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

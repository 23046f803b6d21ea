package auth

import (
	"net/http"
)

const (
	usernameHeader = "X-Narration-User"
	orgHeader      = "X-Narration-Org"

	defaultUsername = "admin"
	defaultOrg      = "internal"
)

// HeaderAuthenticator extracts the caller identity from trusted headers set
// by the fronting gateway. Requests without identity headers fall back to
// the internal admin identity.
type HeaderAuthenticator struct{}

func NewHeaderAuthenticator() (*HeaderAuthenticator, error) {
	return &HeaderAuthenticator{}, nil
}

func (a *HeaderAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := User{
			Username:     r.Header.Get(usernameHeader),
			Organization: r.Header.Get(orgHeader),
		}
		if user.Username == "" {
			user.Username = defaultUsername
		}
		if user.Organization == "" {
			user.Organization = defaultOrg
		}

		ctx := NewUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

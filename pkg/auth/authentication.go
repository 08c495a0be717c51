package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth/jwt"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/pkg/errors"
)

// Identity is the verified subject of a request
type Identity struct {
	SubjectID string
	Role      policy.Role
}

// Can checks the policy for this identity
func (i Identity) Can(action policy.Action, isOwner bool) bool {
	return policy.CanPerform(i.Role, action, isOwner)
}

// Scope returns the list scope of this identity
func (i Identity) Scope() policy.Scope {
	return policy.ScopeFilter(i.Role, i.SubjectID)
}

// Verifier turns a signed token into an Identity
type Verifier struct {
	Secret string
}

// Verify validates the token and normalizes its role claim
func (v *Verifier) Verify(token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, communication.ErrUnauthenticated
	}

	claims, err := jwt.Verify(token, v.Secret)
	if err != nil {
		return Identity{}, errors.Wrap(communication.ErrInvalidToken, err.Error())
	}

	if claims.Subject == "" {
		return Identity{}, errors.Wrap(communication.ErrInvalidToken, "token has no subject")
	}

	role, err := policy.ParseRole(claims.Role)
	if err != nil {
		return Identity{}, errors.Wrap(communication.ErrInvalidToken, err.Error())
	}

	return Identity{SubjectID: claims.Subject, Role: role}, nil
}

// AuthenticationMiddleware checks if the user login token is valid and responds with an error if it's not the case
type AuthenticationMiddleware struct {
	Verifier        *Verifier
	ResponseManager *communication.ResponseManager
}

type key string

const (
	// KeyIdentity the key for the request variable holding the Identity
	KeyIdentity key = "identity"
)

// Middleware gets called when a request needs to be authenticated
func (m *AuthenticationMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, r *http.Request) {
		identity, err := m.Verifier.Verify(extractTokenStringFromHeader(r))
		if err != nil {
			message := "Token invalid"
			if errors.Is(err, communication.ErrUnauthenticated) {
				message = "No authorization"
			}
			m.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, message, err)
			return
		}

		next.ServeHTTP(writer, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// OptionalMiddleware stores the identity when a valid token is present and lets anonymous requests through
func (m *AuthenticationMiddleware) OptionalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, r *http.Request) {
		token := extractTokenStringFromHeader(r)
		if token == "" {
			next.ServeHTTP(writer, r)
			return
		}

		identity, err := m.Verifier.Verify(token)
		if err != nil {
			m.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, "Token invalid", err)
			return
		}

		next.ServeHTTP(writer, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity stores an Identity in a context
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, KeyIdentity, identity)
}

// IdentityFromContext returns the Identity stored by the middleware
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(KeyIdentity).(Identity)
	return identity, ok
}

// extractTokenStringFromHeader accepts "Bearer <token>" and the bare token the old front end sends
func extractTokenStringFromHeader(r *http.Request) string {
	tokenParts := strings.Fields(r.Header.Get("Authorization"))

	switch len(tokenParts) {
	case 1:
		return tokenParts[0]
	case 2:
		if strings.EqualFold(tokenParts[0], "Bearer") {
			return tokenParts[1]
		}
	}

	return ""
}

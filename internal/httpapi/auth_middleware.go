package httpapi

import (
	"context"
	"net/http"
	"strings"

	"resqnowserver/internal/auth"
	"resqnowserver/internal/domain"
)

type authCtxKey int

const authClaimsKey authCtxKey = iota

// IDTokenVerifier validates a bearer ID token and yields the caller's
// identity.
type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.IDTokenClaims, error)
}

func (a *api) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			WriteDomainError(w, domain.ErrUnauthenticated)
			return
		}

		claims, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			a.logger.Info("rejected bearer token", "err", err)
			WriteDomainError(w, domain.ErrUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func CurrentClaims(ctx context.Context) (*auth.IDTokenClaims, bool) {
	c, ok := ctx.Value(authClaimsKey).(*auth.IDTokenClaims)
	return c, ok
}

// CurrentUID returns the authenticated caller's uid, or "" when the request
// carried no verified token.
func CurrentUID(ctx context.Context) string {
	if c, ok := CurrentClaims(ctx); ok {
		return c.UID
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

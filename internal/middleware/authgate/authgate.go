package authgate

import (
	"context"
	"net/http"
	"strings"

	"feed_service/internal/models"
)

type ctxKey struct{}

// Context is the advisory authentication result attached to every request.
// The gate never rejects; each handler decides whether an unauthenticated
// context is acceptable.
type Context struct {
	IsAuthenticated bool
	Identity        models.Identity
}

type TokenVerifier interface {
	Verify(token string) (models.Identity, error)
}

// New builds the permissive auth gate. A missing header, a non-Bearer
// header, or any verification failure all yield an unauthenticated context
// and the request proceeds.
func New(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(attach(r.Context(), verifier, r.Header.Get("Authorization"))))
		})
	}
}

func attach(ctx context.Context, verifier TokenVerifier, header string) context.Context {
	unauthenticated := Context{}

	if header == "" {
		return context.WithValue(ctx, ctxKey{}, unauthenticated)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return context.WithValue(ctx, ctxKey{}, unauthenticated)
	}

	identity, err := verifier.Verify(parts[1])
	if err != nil {
		return context.WithValue(ctx, ctxKey{}, unauthenticated)
	}

	return context.WithValue(ctx, ctxKey{}, Context{
		IsAuthenticated: true,
		Identity:        identity,
	})
}

// FromContext returns the gate's result for this request. The zero value is
// an unauthenticated context, so handlers behind routers that skip the gate
// still fail closed.
func FromContext(ctx context.Context) Context {
	ac, _ := ctx.Value(ctxKey{}).(Context)
	return ac
}

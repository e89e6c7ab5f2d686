package authgate_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feed_service/internal/lib/jwt"
	"feed_service/internal/middleware/authgate"
	"feed_service/internal/models"
)

const secret = "gatesecret"

func serve(t *testing.T, verifier authgate.TokenVerifier, header string) (authgate.Context, int) {
	t.Helper()

	var captured authgate.Context

	h := authgate.New(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = authgate.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return captured, rec.Code
}

func TestGateWithoutHeader(t *testing.T) {
	tokens := jwt.New(secret, time.Hour)

	ac, code := serve(t, tokens, "")
	if code != http.StatusOK {
		t.Fatalf("gate must never reject, got status %d", code)
	}
	if ac.IsAuthenticated {
		t.Fatal("expected unauthenticated context")
	}
}

func TestGateWithBadTokens(t *testing.T) {
	tokens := jwt.New(secret, time.Hour)

	expiredIssuer := jwt.NewWithClock(secret, time.Hour, func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})
	expired, err := expiredIssuer.Issue(models.Identity{UserID: "u1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"malformed token", "Bearer garbage"},
		{"expired token", "Bearer " + expired},
		{"missing scheme", "garbage"},
		{"wrong scheme", "Basic abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ac, code := serve(t, tokens, tc.header)
			if code != http.StatusOK {
				t.Fatalf("gate must never reject, got status %d", code)
			}
			if ac.IsAuthenticated {
				t.Fatal("expected unauthenticated context")
			}
		})
	}
}

func TestGateWithValidToken(t *testing.T) {
	tokens := jwt.New(secret, time.Hour)

	identity := models.Identity{UserID: "64f0c3e1a2b3c4d5e6f70801", Email: "a@b.com"}

	token, err := tokens.Issue(identity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ac, code := serve(t, tokens, "Bearer "+token)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if !ac.IsAuthenticated {
		t.Fatal("expected authenticated context")
	}
	if ac.Identity != identity {
		t.Fatalf("expected identity %+v, got %+v", identity, ac.Identity)
	}
}

func TestFromContextZeroValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	ac := authgate.FromContext(req.Context())
	if ac.IsAuthenticated {
		t.Fatal("missing gate must read as unauthenticated")
	}
}

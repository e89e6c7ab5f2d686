package jwt

import (
	"errors"
	"fmt"
	"time"

	"feed_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

type claims struct {
	jwt.RegisteredClaims
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

// TokenService issues and verifies signed identity tokens. Issuance and
// verification are pure computations over the signing secret and the clock.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewWithClock is used by tests that need a fixed clock.
func NewWithClock(secret string, ttl time.Duration, now func() time.Time) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}
}

func (s *TokenService) Issue(identity models.Identity) (string, error) {
	const op = "jwt.Issue"

	issuedAt := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
		Email:  identity.Email,
		UserID: identity.UserID,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify checks the signature and validity window of a token. It returns
// ErrTokenExpired once the server clock passes the embedded expiry, and
// ErrTokenMalformed for anything that is not a well-formed, correctly
// signed token.
func (s *TokenService) Verify(tokenStr string) (models.Identity, error) {
	var parsed claims

	token, err := jwt.ParseWithClaims(tokenStr, &parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, ErrTokenExpired
		}
		return models.Identity{}, ErrTokenMalformed
	}

	if !token.Valid || parsed.UserID == "" {
		return models.Identity{}, ErrTokenMalformed
	}

	return models.Identity{
		UserID: parsed.UserID,
		Email:  parsed.Email,
	}, nil
}

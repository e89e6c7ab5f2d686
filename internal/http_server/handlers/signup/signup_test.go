package signup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feed_service/internal/auth"
	"feed_service/internal/http_server/handlers/signup"
	"feed_service/internal/lib/jwt"
	"feed_service/internal/models"
	"feed_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[string]models.User
}

func (f *fakeUserRepo) CreateUser(_ context.Context, email, name string, passHash []byte) (string, error) {
	for _, u := range f.users {
		if u.Email == email {
			return "", storage.ErrUserExists
		}
	}
	id := primitive.NewObjectID()
	f.users[id.Hex()] = models.User{ID: id, Email: email, Name: name, PassHash: passHash}
	return id.Hex(), nil
}

func (f *fakeUserRepo) UpdateStatus(context.Context, string, string) error { return nil }

func (f *fakeUserRepo) UserByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrUserNotFound
}

func (f *fakeUserRepo) UserByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func newHandler() (http.HandlerFunc, *fakeUserRepo) {
	repo := &fakeUserRepo{users: map[string]models.User{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwt.New("testsecret", time.Hour)
	authService := auth.New(log, repo, repo, tokens, bcrypt.MinCost)

	return signup.New(log, validator.New(), authService), repo
}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestSignupCreatesUser(t *testing.T) {
	h, repo := newHandler()

	rec := post(t, h, `{"email":"a@b.com","password":"abcde","name":"Ann"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp signup.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID == "" {
		t.Fatal("expected userId in response")
	}

	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(repo.users))
	}
	u := repo.users[resp.UserID]
	if string(u.PassHash) == "abcde" {
		t.Fatal("password stored in plaintext")
	}
}

func TestSignupValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"short password", `{"email":"a@b.com","password":"abcd","name":"Ann"}`},
		{"invalid email", `{"email":"nope","password":"abcde","name":"Ann"}`},
		{"missing name", `{"email":"a@b.com","password":"abcde"}`},
		{"bad json", `{"email":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, repo := newHandler()

			rec := post(t, h, tc.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(repo.users) != 0 {
				t.Fatal("no user must be created on invalid input")
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	h, _ := newHandler()

	if rec := post(t, h, `{"email":"a@b.com","password":"abcde","name":"Ann"}`); rec.Code != http.StatusCreated {
		t.Fatalf("first signup failed: %d", rec.Code)
	}

	rec := post(t, h, `{"email":"a@b.com","password":"abcde","name":"Ann"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate email, got %d", rec.Code)
	}
}

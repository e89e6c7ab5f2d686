package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"feed_service/internal/auth"
	"feed_service/internal/lib/jwt"
	"feed_service/internal/models"
	"feed_service/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[string]models.User // keyed by hex id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]models.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, email, name string, passHash []byte) (string, error) {
	for _, u := range f.users {
		if u.Email == email {
			return "", storage.ErrUserExists
		}
	}

	id := primitive.NewObjectID()
	f.users[id.Hex()] = models.User{
		ID:       id,
		Email:    email,
		PassHash: passHash,
		Name:     name,
		Status:   "I am new!",
	}

	return id.Hex(), nil
}

func (f *fakeUserRepo) UpdateStatus(_ context.Context, userID, status string) error {
	u, ok := f.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}

	u.Status = status
	f.users[userID] = u

	return nil
}

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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(repo *fakeUserRepo) (*auth.Auth, *jwt.TokenService) {
	tokens := jwt.New("testsecret", time.Hour)
	// MinCost keeps the hashing fast; the cost is configuration, not logic.
	return auth.New(discardLogger(), repo, repo, tokens, bcrypt.MinCost), tokens
}

func TestSignUpHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newService(repo)

	id, err := svc.SignUp(context.Background(), "a@b.com", "Ann", "abcde")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(repo.users))
	}

	user := repo.users[id]
	if string(user.PassHash) == "abcde" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte("abcde")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newService(repo)

	if _, err := svc.SignUp(context.Background(), "a@b.com", "Ann", "abcde"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if _, err := svc.SignUp(context.Background(), "a@b.com", "Ann2", "abcdef"); !errors.Is(err, auth.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newService(repo)

	id, err := svc.SignUp(context.Background(), "a@b.com", "Ann", "abcde")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	token, userID, err := svc.Login(context.Background(), "a@b.com", "abcde")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if userID != id {
		t.Fatalf("expected user id %s, got %s", id, userID)
	}

	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if identity.UserID != id || identity.Email != "a@b.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newService(repo)

	if _, err := svc.SignUp(context.Background(), "a@b.com", "Ann", "abcde"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	token, _, err := svc.Login(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if token != "" {
		t.Fatal("no token must be issued on failed login")
	}

	if _, _, err := svc.Login(context.Background(), "missing@b.com", "abcde"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown email must look like bad credentials, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newService(repo)

	id, err := svc.SignUp(context.Background(), "a@b.com", "Ann", "abcde")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), id, "shipping"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	user, err := svc.User(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Status != "shipping" {
		t.Fatalf("expected status %q, got %q", "shipping", user.Status)
	}

	if err := svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), "x"); !errors.Is(err, storage.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

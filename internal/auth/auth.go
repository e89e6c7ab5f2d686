package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"feed_service/internal/lib/jwt"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/models"
	"feed_service/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      *jwt.TokenService
	bcryptCost  int
}

type UserSaver interface {
	CreateUser(ctx context.Context, email, name string, passHash []byte) (string, error)
	UpdateStatus(ctx context.Context, userID, status string) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokens *jwt.TokenService,
	bcryptCost int,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
	}
}

func (a *Auth) SignUp(ctx context.Context, email, name, password string) (string, error) {
	const op = "auth.SignUp"

	log := a.log.With(slog.String("op", op))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.usrSaver.CreateUser(ctx, email, name, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return "", ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user created", slog.String("uid", id))

	return id, nil
}

// Login checks the credentials and issues a signed identity token. Unknown
// email and wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (token string, userID string, err error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return "", "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return "", "", ErrInvalidCredentials
	}

	uid := user.ID.Hex()

	token, err = a.tokens.Issue(models.Identity{UserID: uid, Email: user.Email})
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("uid", uid))

	return token, uid, nil
}

func (a *Auth) User(ctx context.Context, userID string) (models.User, error) {
	const op = "auth.User"

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (a *Auth) UpdateStatus(ctx context.Context, userID, status string) error {
	const op = "auth.UpdateStatus"

	log := a.log.With(slog.String("op", op))

	if err := a.usrSaver.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}

		log.Error("failed to update status", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

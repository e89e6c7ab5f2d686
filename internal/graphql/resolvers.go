package graphql

import (
	"errors"
	"log/slog"

	"feed_service/internal/auth"
	resp "feed_service/internal/lib/api/response"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/middleware/authgate"
	"feed_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/graphql-go/graphql"
)

type userInput struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required"`
	Password string `validate:"required,min=5"`
}

type postInput struct {
	Title   string `validate:"required,min=5"`
	Content string `validate:"required,min=5"`
}

func (r *Resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.createUser"

	input := p.Args["userInput"].(map[string]interface{})

	in := userInput{
		Email:    stringArg(input, "email"),
		Name:     stringArg(input, "name"),
		Password: stringArg(input, "password"),
	}

	if err := r.validate.Struct(in); err != nil {
		return nil, errValidation(resp.ValidationError(err.(validator.ValidationErrors)).Data)
	}

	userID, err := r.auth.SignUp(p.Context, in.Email, in.Name, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return nil, errValidation([]string{"E-mail address already exists"})
		}

		r.log.With(slog.String("op", op)).Error("failed to sign up user", sl.Err(err))
		return nil, errInternal()
	}

	user, err := r.auth.User(p.Context, userID)
	if err != nil {
		r.log.With(slog.String("op", op)).Error("failed to load created user", sl.Err(err))
		return nil, errInternal()
	}

	return user, nil
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.login"

	token, userID, err := r.auth.Login(p.Context, p.Args["email"].(string), p.Args["password"].(string))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, &opError{message: "Invalid email or password!", code: 401}
		}

		r.log.With(slog.String("op", op)).Error("failed to login user", sl.Err(err))
		return nil, errInternal()
	}

	return map[string]interface{}{
		"token":  token,
		"userId": userID,
	}, nil
}

func (r *Resolver) posts(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.posts"

	page, _ := p.Args["page"].(int)

	posts, total, err := r.feed.List(p.Context, page)
	if err != nil {
		r.log.With(slog.String("op", op)).Error("failed to list posts", sl.Err(err))
		return nil, errInternal()
	}

	return map[string]interface{}{
		"posts":      posts,
		"totalPosts": int(total),
	}, nil
}

func (r *Resolver) post(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.post"

	post, err := r.feed.Get(p.Context, p.Args["id"].(string))
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, errNotFound("No post found!")
		}

		r.log.With(slog.String("op", op)).Error("failed to fetch post", sl.Err(err))
		return nil, errInternal()
	}

	return post, nil
}

func (r *Resolver) user(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.user"

	ac := authgate.FromContext(p.Context)
	if !ac.IsAuthenticated {
		return nil, errNotAuthenticated()
	}

	user, err := r.auth.User(p.Context, ac.Identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, errNotFound("No user found!")
		}

		r.log.With(slog.String("op", op)).Error("failed to load user", sl.Err(err))
		return nil, errInternal()
	}

	return user, nil
}

func (r *Resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.createPost"

	ac := authgate.FromContext(p.Context)
	if !ac.IsAuthenticated {
		return nil, errNotAuthenticated()
	}

	input := p.Args["postInput"].(map[string]interface{})

	in := postInput{
		Title:   stringArg(input, "title"),
		Content: stringArg(input, "content"),
	}

	if err := r.validate.Struct(in); err != nil {
		return nil, errValidation(resp.ValidationError(err.(validator.ValidationErrors)).Data)
	}

	post, err := r.feed.Create(p.Context, ac.Identity, in.Title, in.Content, imageArg(input))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, &opError{message: "Invalid user.", code: 401}
		}

		r.log.With(slog.String("op", op)).Error("failed to create post", sl.Err(err))
		return nil, errInternal()
	}

	return post, nil
}

func (r *Resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.updatePost"

	ac := authgate.FromContext(p.Context)
	if !ac.IsAuthenticated {
		return nil, errNotAuthenticated()
	}

	input := p.Args["postInput"].(map[string]interface{})

	in := postInput{
		Title:   stringArg(input, "title"),
		Content: stringArg(input, "content"),
	}

	if err := r.validate.Struct(in); err != nil {
		return nil, errValidation(resp.ValidationError(err.(validator.ValidationErrors)).Data)
	}

	post, err := r.feed.Update(p.Context, ac.Identity, p.Args["id"].(string), in.Title, in.Content, imageArg(input))
	if err != nil {
		return nil, r.feedError(op, err)
	}

	return post, nil
}

func (r *Resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.deletePost"

	ac := authgate.FromContext(p.Context)
	if !ac.IsAuthenticated {
		return nil, errNotAuthenticated()
	}

	if err := r.feed.Delete(p.Context, ac.Identity, p.Args["id"].(string)); err != nil {
		return nil, r.feedError(op, err)
	}

	return true, nil
}

func (r *Resolver) updateStatus(p graphql.ResolveParams) (interface{}, error) {
	const op = "graphql.updateStatus"

	ac := authgate.FromContext(p.Context)
	if !ac.IsAuthenticated {
		return nil, errNotAuthenticated()
	}

	status, _ := p.Args["status"].(string)
	if status == "" {
		return nil, errValidation([]string{"field Status is required"})
	}

	if err := r.auth.UpdateStatus(p.Context, ac.Identity.UserID, status); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, errNotFound("No user found!")
		}

		r.log.With(slog.String("op", op)).Error("failed to update status", sl.Err(err))
		return nil, errInternal()
	}

	user, err := r.auth.User(p.Context, ac.Identity.UserID)
	if err != nil {
		r.log.With(slog.String("op", op)).Error("failed to load user", sl.Err(err))
		return nil, errInternal()
	}

	return user, nil
}

func (r *Resolver) feedError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrPostNotFound):
		return errNotFound("No post found!")
	case errors.Is(err, auth.ErrNotOwner):
		return errNotAuthorized()
	default:
		r.log.With(slog.String("op", op)).Error("feed operation failed", sl.Err(err))
		return errInternal()
	}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// imageArg reads the optional imageUrl field. Clients that did not replace
// the image send nothing or the literal "undefined"; both mean keep the
// current one.
func imageArg(args map[string]interface{}) string {
	s, _ := args["imageUrl"].(string)
	if s == "undefined" {
		return ""
	}

	return s
}

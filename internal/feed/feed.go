package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feed_service/internal/auth"
	sl "feed_service/internal/lib/logger"
	"feed_service/internal/models"
	"feed_service/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PerPage is the fixed feed page size.
const PerPage = 2

type PostSaver interface {
	SavePost(ctx context.Context, post models.Post) (models.Post, error)
	UpdatePost(ctx context.Context, post models.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddPostRef(ctx context.Context, userID string, postID primitive.ObjectID) error
	RemovePostRef(ctx context.Context, userID string, postID primitive.ObjectID) error
}

type PostProvider interface {
	PostByID(ctx context.Context, id string) (models.Post, error)
	Posts(ctx context.Context, page, perPage int) ([]models.Post, int64, error)
}

type UserProvider interface {
	UserByID(ctx context.Context, id string) (models.User, error)
}

type FileRemover interface {
	Remove(path string) error
}

type EventPublisher interface {
	PublishFeedEvent(ctx context.Context, event models.FeedEvent) error
}

type PageCache interface {
	GetPage(ctx context.Context, page int) ([]models.Post, int64, bool)
	SetPage(ctx context.Context, page int, posts []models.Post, total int64) error
	Invalidate(ctx context.Context) error
}

type Feed struct {
	log          *slog.Logger
	postSaver    PostSaver
	postProvider PostProvider
	usrProvider  UserProvider
	remover      FileRemover
	publisher    EventPublisher
	cache        PageCache
	now          func() time.Time
}

func New(
	log *slog.Logger,
	postSaver PostSaver,
	postProvider PostProvider,
	userProvider UserProvider,
	remover FileRemover,
	publisher EventPublisher,
	cache PageCache,
) *Feed {
	return &Feed{
		log:          log,
		postSaver:    postSaver,
		postProvider: postProvider,
		usrProvider:  userProvider,
		remover:      remover,
		publisher:    publisher,
		cache:        cache,
		now:          time.Now,
	}
}

// Create inserts a post for the identity and keeps the creator's post refs
// consistent. The creator must exist at creation time.
func (f *Feed) Create(ctx context.Context, identity models.Identity, title, content, imageURL string) (models.Post, error) {
	const op = "feed.Create"

	log := f.log.With(slog.String("op", op))

	user, err := f.usrProvider.UserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Post{}, storage.ErrUserNotFound
		}

		log.Error("failed to load creator", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	createdAt := f.now()

	post := models.Post{
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		Creator:   user.ID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	post, err = f.postSaver.SavePost(ctx, post)
	if err != nil {
		log.Error("failed to save post", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := f.postSaver.AddPostRef(ctx, identity.UserID, post.ID); err != nil {
		log.Error("failed to add post ref", sl.Err(err))

		// The record would otherwise survive unreferenced while the caller
		// cleans up the image it points at.
		if delErr := f.postSaver.DeletePost(ctx, post.ID); delErr != nil {
			log.Error("failed to delete unreferenced post", sl.Err(delErr))
		}

		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	f.afterMutation(ctx, models.FeedEvent{Action: models.FeedActionCreated, Post: post})

	log.Info("post created", slog.String("post_id", post.ID.Hex()))

	return post, nil
}

// List returns one page of the feed, newest first, served from the page
// cache when a fresh copy exists.
func (f *Feed) List(ctx context.Context, page int) ([]models.Post, int64, error) {
	const op = "feed.List"

	if page < 1 {
		page = 1
	}

	if posts, total, ok := f.cache.GetPage(ctx, page); ok {
		return posts, total, nil
	}

	posts, total, err := f.postProvider.Posts(ctx, page, PerPage)
	if err != nil {
		f.log.With(slog.String("op", op)).Error("failed to list posts", sl.Err(err))
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := f.cache.SetPage(ctx, page, posts, total); err != nil {
		f.log.With(slog.String("op", op)).Warn("failed to cache page", sl.Err(err))
	}

	return posts, total, nil
}

func (f *Feed) Get(ctx context.Context, id string) (models.Post, error) {
	const op = "feed.Get"

	post, err := f.postProvider.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return models.Post{}, storage.ErrPostNotFound
		}

		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

// Update mutates a post after confirming it exists and the identity owns it.
// A replaced image file is removed only after the record update succeeds, so
// a failed ownership check or store error leaves all files untouched.
func (f *Feed) Update(ctx context.Context, identity models.Identity, id, title, content, imageURL string) (models.Post, error) {
	const op = "feed.Update"

	log := f.log.With(slog.String("op", op))

	post, err := f.Get(ctx, id)
	if err != nil {
		return models.Post{}, err
	}

	if err := auth.CheckOwner(identity, post.Creator.Hex()); err != nil {
		log.Warn("ownership check failed", slog.String("post_id", id))
		return models.Post{}, err
	}

	oldImage := post.ImageURL

	post.Title = title
	post.Content = content
	post.UpdatedAt = f.now()
	if imageURL != "" {
		post.ImageURL = imageURL
	}

	if err := f.postSaver.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return models.Post{}, storage.ErrPostNotFound
		}

		log.Error("failed to update post", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	if post.ImageURL != oldImage {
		f.removeImage(log, oldImage)
	}

	f.afterMutation(ctx, models.FeedEvent{Action: models.FeedActionUpdated, Post: post})

	return post, nil
}

// Delete removes a post, its creator ref and its image file. Ownership is
// checked before any mutation or file side effect.
func (f *Feed) Delete(ctx context.Context, identity models.Identity, id string) error {
	const op = "feed.Delete"

	log := f.log.With(slog.String("op", op))

	post, err := f.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.CheckOwner(identity, post.Creator.Hex()); err != nil {
		log.Warn("ownership check failed", slog.String("post_id", id))
		return err
	}

	if err := f.postSaver.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return storage.ErrPostNotFound
		}

		log.Error("failed to delete post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.postSaver.RemovePostRef(ctx, identity.UserID, post.ID); err != nil {
		log.Error("failed to remove post ref", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	f.removeImage(log, post.ImageURL)

	f.afterMutation(ctx, models.FeedEvent{Action: models.FeedActionDeleted, Post: post})

	log.Info("post deleted", slog.String("post_id", id))

	return nil
}

// removeImage is awaited but non-fatal: the record mutation already
// succeeded, so a stale file only costs disk space.
func (f *Feed) removeImage(log *slog.Logger, path string) {
	if path == "" {
		return
	}

	if err := f.remover.Remove(path); err != nil {
		log.Warn("failed to remove image file", slog.String("path", path), sl.Err(err))
	}
}

func (f *Feed) afterMutation(ctx context.Context, event models.FeedEvent) {
	if err := f.cache.Invalidate(ctx); err != nil {
		f.log.Warn("failed to invalidate feed cache", sl.Err(err))
	}

	if err := f.publisher.PublishFeedEvent(ctx, event); err != nil {
		f.log.Warn("failed to publish feed event", slog.String("action", event.Action), sl.Err(err))
	}
}

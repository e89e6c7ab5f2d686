package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feed_service/internal/config"
	"feed_service/internal/models"
	"feed_service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection
}

func New(ctx context.Context, cfg *config.Config) (*MongoRepo, error) {
	const op = "storage.mongo.New"

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	db := client.Database(cfg.Mongo.DBName)
	users := db.Collection("users")
	posts := db.Collection("posts")

	// Unique email index backs the duplicate-signup check.
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to create email index: %w", op, err)
	}

	return &MongoRepo{client: client, users: users, posts: posts}, nil
}

func (r *MongoRepo) CreateUser(ctx context.Context, email, name string, passHash []byte) (string, error) {
	const op = "storage.mongo.CreateUser"

	user := models.User{
		Email:    email,
		PassHash: passHash,
		Name:     name,
		Status:   "I am new!",
		Posts:    []primitive.ObjectID{},
	}

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", storage.ErrUserExists
		}

		return "", fmt.Errorf("%s: failed to insert user: %w", op, err)
	}

	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (r *MongoRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.mongo.UserByEmail"

	var u models.User

	err := r.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *MongoRepo) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.mongo.UserByID"

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrUserNotFound
	}

	var u models.User

	err = r.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *MongoRepo) UpdateStatus(ctx context.Context, userID, status string) error {
	const op = "storage.mongo.UpdateStatus"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	res, err := r.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (r *MongoRepo) AddPostRef(ctx context.Context, userID string, postID primitive.ObjectID) error {
	const op = "storage.mongo.AddPostRef"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	_, err = r.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "posts", Value: postID}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *MongoRepo) RemovePostRef(ctx context.Context, userID string, postID primitive.ObjectID) error {
	const op = "storage.mongo.RemovePostRef"

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrUserNotFound
	}

	_, err = r.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "posts", Value: postID}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *MongoRepo) SavePost(ctx context.Context, post models.Post) (models.Post, error) {
	const op = "storage.mongo.SavePost"

	res, err := r.posts.InsertOne(ctx, post)
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: failed to insert post: %w", op, err)
	}

	post.ID = res.InsertedID.(primitive.ObjectID)

	return post, nil
}

func (r *MongoRepo) PostByID(ctx context.Context, id string) (models.Post, error) {
	const op = "storage.mongo.PostByID"

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Post{}, storage.ErrPostNotFound
	}

	var p models.Post

	err = r.posts.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, storage.ErrPostNotFound
		}

		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// Posts returns one page of posts, newest first, plus the total count.
func (r *MongoRepo) Posts(ctx context.Context, page, perPage int) ([]models.Post, int64, error) {
	const op = "storage.mongo.Posts"

	total, err := r.posts.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count posts: %w", op, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * perPage)).
		SetLimit(int64(perPage))

	cursor, err := r.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to query posts: %w", op, err)
	}

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to decode posts: %w", op, err)
	}

	return posts, total, nil
}

func (r *MongoRepo) UpdatePost(ctx context.Context, post models.Post) error {
	const op = "storage.mongo.UpdatePost"

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: post.Title},
		{Key: "content", Value: post.Content},
		{Key: "imageUrl", Value: post.ImageURL},
		{Key: "updatedAt", Value: post.UpdatedAt},
	}}}

	res, err := r.posts.UpdateOne(ctx, bson.D{{Key: "_id", Value: post.ID}}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

func (r *MongoRepo) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	const op = "storage.mongo.DeletePost"

	res, err := r.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

func (r *MongoRepo) Close(ctx context.Context) {
	_ = r.client.Disconnect(ctx)
}

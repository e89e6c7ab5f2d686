package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the verified principal attached to a request after token
// verification. It is never persisted.
type Identity struct {
	UserID string
	Email  string
}

type User struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email    string               `bson:"email" json:"email"`
	PassHash []byte               `bson:"password" json:"-"`
	Name     string               `bson:"name" json:"name"`
	Status   string               `bson:"status" json:"status"`
	Posts    []primitive.ObjectID `bson:"posts" json:"posts"`
}

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	ImageURL  string             `bson:"imageUrl" json:"imageUrl"`
	Creator   primitive.ObjectID `bson:"creator" json:"creator"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FeedEvent is published to the message queue on every post mutation.
type FeedEvent struct {
	Action string `json:"action"`
	Post   Post   `json:"post"`
}

const (
	FeedActionCreated = "created"
	FeedActionUpdated = "updated"
	FeedActionDeleted = "deleted"
)

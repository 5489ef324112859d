package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Author        string             `bson:"author" json:"author"`
	PublishedDate string             `bson:"published_date" json:"published_date"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

const (
	BookEntity = "book"
)

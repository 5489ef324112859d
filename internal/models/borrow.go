package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoanPeriodDays is how long a borrowed book may be kept before it is overdue.
const LoanPeriodDays = 14

type Borrow struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	BookID       primitive.ObjectID `bson:"book_id" json:"book_id"`
	StartDate    time.Time          `bson:"start_date" json:"start_date"`
	EndDate      time.Time          `bson:"end_date" json:"end_date"`
	ReturnedDate *time.Time         `bson:"returned_date,omitempty" json:"returned_date,omitempty"`
}

const (
	BorrowEntity = "borrow"
)

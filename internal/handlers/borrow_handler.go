package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akshayak12345/Library-Management-System/internal/constants"
	"github.com/akshayak12345/Library-Management-System/internal/middleware"
	"github.com/akshayak12345/Library-Management-System/internal/models"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

type BorrowHandler struct {
	BookCol     *mongo.Collection
	BorrowCol   *mongo.Collection
	UserCol     *mongo.Collection
	Mailer      utils.Mailer
	AuditLogger utils.Logger
}

// GET /borrowbook/{bookid}
//
// Availability is claimed with a single decrement-if-positive update, so two
// concurrent borrows of the last copy cannot drive quantity negative.
func (h *BorrowHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	bookID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bookid"])
	if err != nil {
		utils.JSONError(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var book models.Book
	if err := h.BookCol.FindOne(r.Context(), bson.M{"_id": bookID}).Decode(&book); err != nil {
		utils.JSONError(w, "The book ID doesnt exist", http.StatusNotFound)
		return
	}

	res := h.BookCol.FindOneAndUpdate(r.Context(),
		bson.M{"_id": bookID, "quantity": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"quantity": -1}},
	)
	if res.Err() != nil {
		utils.JSONError(w, "Book is not available at the moment", http.StatusNotFound)
		return
	}

	now := time.Now()
	borrow := models.Borrow{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		BookID:    bookID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, models.LoanPeriodDays),
	}

	if _, err := h.BorrowCol.InsertOne(r.Context(), borrow); err != nil {
		// Give the claimed copy back before failing.
		_, _ = h.BookCol.UpdateOne(r.Context(),
			bson.M{"_id": bookID},
			bson.M{"$inc": bson.M{"quantity": 1}},
		)
		utils.JSONError(w, "Failed to record borrow", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(r.Context(), models.BorrowEntity, constants.Borrow, borrow)

	json.NewEncoder(w).Encode(borrow)
}

// POST /bookreturn/{bookid}
//
// Closes every open borrow row for this user and book in one update and
// restores quantity by the number of rows closed.
func (h *BorrowHandler) Return(w http.ResponseWriter, r *http.Request) {
	bookID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bookid"])
	if err != nil {
		utils.JSONError(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	result, err := h.BorrowCol.UpdateMany(r.Context(),
		bson.M{
			"book_id":       bookID,
			"user_id":       user.ID,
			"returned_date": nil,
		},
		bson.M{"$set": bson.M{"returned_date": now}},
	)
	if err != nil {
		utils.JSONError(w, "Failed to update borrow records", http.StatusInternalServerError)
		return
	}
	if result.MatchedCount == 0 {
		utils.JSONError(w, "No active borrow record found for this book and user", http.StatusNotFound)
		return
	}

	_, err = h.BookCol.UpdateOne(r.Context(),
		bson.M{"_id": bookID},
		bson.M{"$inc": bson.M{"quantity": result.ModifiedCount}},
	)
	if err != nil {
		utils.JSONError(w, "Failed to update book quantity", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(r.Context(), models.BorrowEntity, constants.Return, bson.M{
		"book_id": bookID.Hex(),
		"user_id": user.ID.Hex(),
		"count":   result.ModifiedCount,
	})

	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "books returned successfully",
		"count":   result.ModifiedCount,
	})
}

// GET /listborrowedbooks?user_id=&start_date=&end_date=
func (h *BorrowHandler) ListBorrowed(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}

	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		userID, err := primitive.ObjectIDFromHex(userIDStr)
		if err != nil {
			utils.JSONError(w, "Invalid user ID", http.StatusBadRequest)
			return
		}
		filter["user_id"] = userID
	}
	if startStr := r.URL.Query().Get("start_date"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			utils.JSONError(w, "Invalid start_date", http.StatusBadRequest)
			return
		}
		filter["start_date"] = bson.M{"$gte": start}
	}
	if endStr := r.URL.Query().Get("end_date"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			utils.JSONError(w, "Invalid end_date", http.StatusBadRequest)
			return
		}
		filter["end_date"] = bson.M{"$lte": end}
	}

	cursor, err := h.BorrowCol.Find(r.Context(), filter)
	if err != nil {
		utils.JSONError(w, "Failed to fetch borrow records", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	borrows := []models.Borrow{}
	if err = cursor.All(r.Context(), &borrows); err != nil {
		utils.JSONError(w, "Error decoding borrow records", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(borrows)
}

// POST /overdue/sendemail
//
// One email per overdue borrow row. A single send failure aborts the whole
// request; there is no partial-success reporting.
func (h *BorrowHandler) NotifyOverdue(w http.ResponseWriter, r *http.Request) {
	today := time.Now()

	cursor, err := h.BorrowCol.Find(r.Context(), bson.M{
		"returned_date": nil,
		"end_date":      bson.M{"$lt": today},
	})
	if err != nil {
		utils.JSONError(w, "Failed to fetch overdue records", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	var overdue []models.Borrow
	if err = cursor.All(r.Context(), &overdue); err != nil {
		utils.JSONError(w, "Error decoding borrow records", http.StatusInternalServerError)
		return
	}

	notified := []string{}
	for _, record := range overdue {
		var user models.User
		if err := h.UserCol.FindOne(r.Context(), bson.M{"_id": record.UserID}).Decode(&user); err != nil {
			continue
		}

		body := fmt.Sprintf("Dear %s,\n\nWe hope you enjoyed reading the book, but you havent returned the book yet. Could you please return the book ASAP.\n\nBest regards,\nLibrary Team", user.Name)
		if err := h.Mailer.Send(user.Email, "Book return is overdue", body); err != nil {
			utils.JSONError(w, "Failed to send email: "+err.Error(), http.StatusInternalServerError)
			return
		}
		notified = append(notified, user.Email)
	}

	h.AuditLogger.Log(r.Context(), models.BorrowEntity, constants.Notify, notified)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "email sent to the below users",
		"users":   notified,
	})
}

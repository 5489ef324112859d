package handlers

import (
	"encoding/json"
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

type ReviewHandler struct {
	ReviewCol   *mongo.Collection
	BookCol     *mongo.Collection
	AuditLogger utils.Logger
}

type AddReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// POST /add/review/{bookid}
func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
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

	var req AddReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	var book models.Book
	if err := h.BookCol.FindOne(r.Context(), bson.M{"_id": bookID}).Decode(&book); err != nil {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}

	// One review per user per book.
	count, err := h.ReviewCol.CountDocuments(r.Context(), bson.M{
		"user_id": user.ID,
		"book_id": bookID,
	})
	if err != nil {
		utils.JSONError(w, "Error checking existing reviews", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		utils.JSONError(w, "You have already reviewed this book", http.StatusBadRequest)
		return
	}

	review := models.Review{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		BookID:    bookID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}

	if _, err := h.ReviewCol.InsertOne(r.Context(), review); err != nil {
		utils.JSONError(w, "Failed to add review", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(r.Context(), models.ReviewEntity, constants.Create, review)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(review)
}

// GET /books/{bookid}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	bookID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bookid"])
	if err != nil {
		utils.JSONError(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	cursor, err := h.ReviewCol.Find(r.Context(), bson.M{"book_id": bookID})
	if err != nil {
		utils.JSONError(w, "Failed to fetch reviews", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	reviews := []models.Review{}
	if err = cursor.All(r.Context(), &reviews); err != nil {
		utils.JSONError(w, "Error decoding reviews", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(reviews)
}

// GET /books/{bookid}/average-rating
//
// average_rating is null, not zero, when the book has no reviews.
func (h *ReviewHandler) AverageRating(w http.ResponseWriter, r *http.Request) {
	bookID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bookid"])
	if err != nil {
		utils.JSONError(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	var book models.Book
	if err := h.BookCol.FindOne(r.Context(), bson.M{"_id": bookID}).Decode(&book); err != nil {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}

	cursor, err := h.ReviewCol.Find(r.Context(), bson.M{"book_id": bookID})
	if err != nil {
		utils.JSONError(w, "Failed to fetch reviews", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	var reviews []models.Review
	if err = cursor.All(r.Context(), &reviews); err != nil {
		utils.JSONError(w, "Error decoding reviews", http.StatusInternalServerError)
		return
	}

	var average *float64
	if len(reviews) > 0 {
		var sum int
		for _, review := range reviews {
			sum += review.Rating
		}
		avg := float64(sum) / float64(len(reviews))
		average = &avg
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":             book.ID,
		"title":          book.Title,
		"average_rating": average,
	})
}

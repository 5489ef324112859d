package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akshayak12345/Library-Management-System/internal/constants"
	"github.com/akshayak12345/Library-Management-System/internal/models"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

// BookPageSize is the fixed page size of the book listing.
const BookPageSize = 3

type BookHandler struct {
	BookCollection *mongo.Collection
	AuditLogger    utils.Logger
}

func NewBookHandler(bookColl *mongo.Collection, logger utils.Logger) *BookHandler {
	return &BookHandler{
		BookCollection: bookColl,
		AuditLogger:    logger,
	}
}

// POST /addbook
func (h *BookHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		utils.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if book.Title == "" || book.Author == "" || book.PublishedDate == "" {
		utils.JSONError(w, "title, author and published_date are required", http.StatusBadRequest)
		return
	}
	if book.Quantity < 0 {
		utils.JSONError(w, "quantity cannot be negative", http.StatusBadRequest)
		return
	}

	book.ID = primitive.NewObjectID()
	book.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.BookCollection.InsertOne(ctx, book); err != nil {
		utils.JSONError(w, "Insert failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(ctx, models.BookEntity, constants.Create, book)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

// GET /getbooks?page=N
//
// A page index past the last page is an error, not an empty page.
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			utils.JSONError(w, "Out of bounds", http.StatusBadRequest)
			return
		}
		page = p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	total, err := h.BookCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.JSONError(w, "Failed to fetch books", http.StatusInternalServerError)
		return
	}

	lastPage := (total + BookPageSize - 1) / BookPageSize
	if lastPage == 0 {
		lastPage = 1
	}
	if int64(page) > lastPage {
		utils.JSONError(w, "Out of bounds", http.StatusBadRequest)
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(page-1) * BookPageSize).
		SetLimit(BookPageSize)

	cursor, err := h.BookCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	books := []models.Book{}
	if err = cursor.All(ctx, &books); err != nil {
		utils.JSONError(w, "Error decoding books", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(books)
}

// PUT /updatebook/{bookid}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bookid"])
	if err != nil {
		utils.JSONError(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	var updateData map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if len(updateData) == 0 {
		utils.JSONError(w, "No update fields provided", http.StatusBadRequest)
		return
	}

	delete(updateData, "_id")
	delete(updateData, "id")

	if quantity, ok := updateData["quantity"]; ok {
		q, ok := quantity.(float64)
		if !ok || q < 0 {
			utils.JSONError(w, "quantity cannot be negative", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := h.BookCollection.UpdateOne(
		ctx,
		bson.M{"_id": bookID},
		bson.M{"$set": updateData},
	)
	if err != nil {
		utils.JSONError(w, "Update failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if result.MatchedCount == 0 {
		utils.JSONError(w, "The book ID doesnt exist", http.StatusNotFound)
		return
	}

	h.AuditLogger.Log(ctx, models.BookEntity, constants.Update, updateData)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "Book updated successfully",
		"modifiedCount": result.ModifiedCount,
	})
}

// DELETE /deletebook/{bookid}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bookid"])
	if err != nil {
		utils.JSONError(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := h.BookCollection.DeleteOne(ctx, bson.M{"_id": bookID})
	if err != nil {
		utils.JSONError(w, "Delete failed", http.StatusInternalServerError)
		return
	}
	if result.DeletedCount == 0 {
		utils.JSONError(w, "The book ID doesnt exist", http.StatusNotFound)
		return
	}

	h.AuditLogger.Log(ctx, models.BookEntity, constants.Delete, bookID.Hex())

	w.WriteHeader(http.StatusNoContent)
}

// GET /books/search?query=
//
// Case-insensitive substring match on title or author; an empty query
// returns the whole catalog.
func (h *BookHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"author": pattern},
		}
	}

	cursor, err := h.BookCollection.Find(ctx, filter)
	if err != nil {
		utils.JSONError(w, "Failed to search books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	results := []models.Book{}
	if err = cursor.All(ctx, &results); err != nil {
		utils.JSONError(w, "Failed to decode books", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(results)
}

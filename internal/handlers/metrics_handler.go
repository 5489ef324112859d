package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MetricsHandler struct {
	BookCol   *mongo.Collection
	UserCol   *mongo.Collection
	BorrowCol *mongo.Collection
}

// GET /admin/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	todayStart := time.Now().Truncate(24 * time.Hour)

	// 1. Catalog size
	totalBooks, _ := h.BookCol.CountDocuments(ctx, bson.M{})

	// 2. Registered users
	totalUsers, _ := h.UserCol.CountDocuments(ctx, bson.M{})

	// 3. Borrows started today
	borrowsToday, _ := h.BorrowCol.CountDocuments(ctx, bson.M{
		"start_date": bson.M{
			"$gte": todayStart,
		},
	})

	// 4. Open and overdue borrows
	now := time.Now()
	openBorrows, _ := h.BorrowCol.CountDocuments(ctx, bson.M{
		"returned_date": nil,
	})
	overdueCount, _ := h.BorrowCol.CountDocuments(ctx, bson.M{
		"end_date":      bson.M{"$lt": now},
		"returned_date": nil,
	})

	json.NewEncoder(w).Encode(map[string]interface{}{
		"total_books":   totalBooks,
		"total_users":   totalUsers,
		"borrows_today": borrowsToday,
		"open_borrows":  openBorrows,
		"overdue_count": overdueCount,
	})
}

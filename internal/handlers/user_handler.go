package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/akshayak12345/Library-Management-System/internal/constants"
	"github.com/akshayak12345/Library-Management-System/internal/middleware"
	"github.com/akshayak12345/Library-Management-System/internal/models"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

type UserHandler struct {
	UserCol     *mongo.Collection
	BorrowCol   *mongo.Collection
	ReviewCol   *mongo.Collection
	AuditLogger utils.Logger
}

func NewUserHandler(userCol, borrowCol, reviewCol *mongo.Collection, logger utils.Logger) *UserHandler {
	return &UserHandler{
		UserCol:     userCol,
		BorrowCol:   borrowCol,
		ReviewCol:   reviewCol,
		AuditLogger: logger,
	}
}

// GET /getuser
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(user)
}

// PUT /updateuser
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var updateData bson.M
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if len(updateData) == 0 {
		utils.JSONError(w, "No update fields provided", http.StatusBadRequest)
		return
	}

	// Role never changes after registration.
	delete(updateData, "role")
	delete(updateData, "_id")
	delete(updateData, "id")

	if password, ok := updateData["password"]; ok {
		passwordStr, ok := password.(string)
		if !ok || passwordStr == "" {
			utils.JSONError(w, "Invalid password", http.StatusBadRequest)
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(passwordStr), bcrypt.DefaultCost)
		if err != nil {
			utils.JSONError(w, "Error hashing password", http.StatusInternalServerError)
			return
		}
		delete(updateData, "password")
		updateData["password_hash"] = string(hashed)
	}

	updateData["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := h.UserCol.UpdateByID(ctx, user.ID, bson.M{"$set": updateData})
	if err != nil {
		utils.JSONError(w, "Update failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		utils.JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	h.AuditLogger.Log(ctx, models.UserEntity, constants.Update, updateData)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"message": "User updated"})
}

// DELETE /deleteuser
//
// Deleting an account also removes its borrow and review records.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := h.UserCol.DeleteOne(ctx, bson.M{"_id": user.ID})
	if err != nil {
		utils.JSONError(w, "Delete failed", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		utils.JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	if h.BorrowCol != nil {
		_, _ = h.BorrowCol.DeleteMany(ctx, bson.M{"user_id": user.ID})
	}
	if h.ReviewCol != nil {
		_, _ = h.ReviewCol.DeleteMany(ctx, bson.M{"user_id": user.ID})
	}

	h.AuditLogger.Log(ctx, models.UserEntity, constants.Delete, user.Email)

	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/akshayak12345/Library-Management-System/internal/constants"
	"github.com/akshayak12345/Library-Management-System/internal/models"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	UserCol     *mongo.Collection
	RevokedCol  *mongo.Collection
	Tokens      *utils.TokenIssuer
	AuditLogger utils.Logger
}

func NewAuthHandler(userCol, revokedCol *mongo.Collection, tokens *utils.TokenIssuer, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		UserCol:     userCol,
		RevokedCol:  revokedCol,
		Tokens:      tokens,
		AuditLogger: logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// POST /register
func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.Username == "" {
		utils.JSONError(w, "email, username and password are required", http.StatusBadRequest)
		return
	}

	role := req.Role
	if role == "" {
		role = string(models.RoleRegular)
	}
	if !models.IsValidRole(role) {
		utils.JSONError(w, "Invalid role", http.StatusBadRequest)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: string(hashed),
		Role:         models.Role(role),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := a.UserCol.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.JSONError(w, "user with this email already exists", http.StatusBadRequest)
			return
		}
		utils.JSONError(w, "Insert failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	a.AuditLogger.Log(ctx, models.UserEntity, constants.Register, user.Email)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// POST /login
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := a.UserCol.FindOne(r.Context(), bson.M{"email": req.Email}).Decode(&user); err != nil {
		utils.JSONError(w, "User with the email doesnt exist", http.StatusNotFound)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	accessToken, err := a.Tokens.IssueAccessToken(user.ID.Hex())
	if err != nil {
		utils.JSONError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := a.Tokens.IssueRefreshToken(user.ID.Hex())
	if err != nil {
		utils.JSONError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		Expires:  time.Now().Add(utils.RefreshTokenTTL),
		HttpOnly: true,
	})

	a.AuditLogger.Log(r.Context(), models.UserEntity, constants.Login, user.Email)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(TokenResponse{Token: accessToken})
}

// POST /refreshtoken
func (a *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		utils.JSONError(w, "Refresh token not found", http.StatusUnauthorized)
		return
	}

	claims, err := a.Tokens.Verify(cookie.Value, utils.TokenTypeRefresh)
	if err != nil {
		utils.JSONError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	accessToken, err := a.Tokens.IssueAccessToken(claims.UserID)
	if err != nil {
		utils.JSONError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(TokenResponse{Token: accessToken})
}

// POST /logout
//
// Blacklisting the refresh token is best-effort: verification never consults
// the revoked_tokens collection, the daemon just sweeps expired entries.
func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		utils.JSONError(w, "Refresh token not found", http.StatusBadRequest)
		return
	}

	if claims, err := a.Tokens.Verify(cookie.Value, utils.TokenTypeRefresh); err == nil {
		userID, _ := primitive.ObjectIDFromHex(claims.UserID)
		revoked := models.RevokedToken{
			JTI:       claims.ID,
			UserID:    userID,
			ExpiresAt: claims.ExpiresAt.Time,
			RevokedAt: time.Now(),
		}
		if a.RevokedCol != nil {
			_, _ = a.RevokedCol.InsertOne(r.Context(), revoked)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	a.AuditLogger.Log(r.Context(), models.UserEntity, constants.Logout, nil)

	w.WriteHeader(http.StatusResetContent)
	json.NewEncoder(w).Encode(map[string]string{"message": "success"})
}

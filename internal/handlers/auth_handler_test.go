package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"

	"github.com/akshayak12345/Library-Management-System/internal/handlers"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

func TestAuthHandler_Register(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	tokens := utils.NewTokenIssuer("test-secret")

	mt.Run("successful registration", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		router := mux.NewRouter()
		router.HandleFunc("/register", handler.Register).Methods("POST")

		reqBody := handlers.RegisterRequest{
			Email:    "test@gmail.com",
			Username: "test",
			Name:     "tester",
			Password: "test",
			Role:     "librarian",
		}
		reqBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusCreated {
			t.Errorf("expected status Created, got %v", res.Status)
		}

		var body map[string]interface{}
		json.NewDecoder(res.Body).Decode(&body)
		if body["email"] != reqBody.Email {
			t.Errorf("expected email %q in response, got %v", reqBody.Email, body["email"])
		}
		if _, ok := body["password_hash"]; ok {
			t.Error("password hash must not be serialized")
		}
	})

	mt.Run("duplicate email rejected", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		router := mux.NewRouter()
		router.HandleFunc("/register", handler.Register).Methods("POST")

		reqBody := handlers.RegisterRequest{
			Email:    "test@gmail.com",
			Username: "test",
			Password: "test",
		}
		reqBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})

	mt.Run("invalid role rejected", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		router := mux.NewRouter()
		router.HandleFunc("/register", handler.Register).Methods("POST")

		reqBody := handlers.RegisterRequest{
			Email:    "test@gmail.com",
			Username: "test",
			Password: "test",
			Role:     "NA",
		}
		reqBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	tokens := utils.NewTokenIssuer("test-secret")

	userID := primitive.NewObjectID()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("test"), bcrypt.DefaultCost)

	mt.Run("valid login returns verifiable token", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: userID},
			{Key: "email", Value: "test@gmail.com"},
			{Key: "password_hash", Value: string(hashed)},
			{Key: "role", Value: "regular"},
		}))

		router := mux.NewRouter()
		router.HandleFunc("/login", handler.Login).Methods("POST")

		reqBody := handlers.LoginRequest{Email: "test@gmail.com", Password: "test"}
		reqBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusCreated {
			t.Fatalf("expected status Created, got %v", res.Status)
		}

		var body handlers.TokenResponse
		json.NewDecoder(res.Body).Decode(&body)

		claims, err := tokens.Verify(body.Token, utils.TokenTypeAccess)
		if err != nil {
			t.Fatalf("issued token failed verification: %v", err)
		}
		if claims.UserID != userID.Hex() {
			t.Errorf("token user id = %q, want %q", claims.UserID, userID.Hex())
		}

		var refreshCookie *http.Cookie
		for _, c := range res.Cookies() {
			if c.Name == "refreshToken" {
				refreshCookie = c
			}
		}
		if refreshCookie == nil || !refreshCookie.HttpOnly {
			t.Error("expected http-only refreshToken cookie")
		}
	})

	mt.Run("wrong password rejected", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: userID},
			{Key: "email", Value: "test@gmail.com"},
			{Key: "password_hash", Value: string(hashed)},
		}))

		router := mux.NewRouter()
		router.HandleFunc("/login", handler.Login).Methods("POST")

		reqBody := handlers.LoginRequest{Email: "test@gmail.com", Password: "wrong"}
		reqBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status Unauthorized, got %v", res.Status)
		}
	})

	mt.Run("unknown email rejected", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		router := mux.NewRouter()
		router.HandleFunc("/login", handler.Login).Methods("POST")

		reqBody := handlers.LoginRequest{Email: "missing@gmail.com", Password: "test"}
		reqBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusNotFound {
			t.Errorf("expected status NotFound, got %v", res.Status)
		}
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	tokens := utils.NewTokenIssuer("test-secret")
	userID := primitive.NewObjectID()

	mt.Run("refresh cookie mints new access token", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		refreshToken, _ := tokens.IssueRefreshToken(userID.Hex())

		router := mux.NewRouter()
		router.HandleFunc("/refreshtoken", handler.Refresh).Methods("POST")

		req := httptest.NewRequest(http.MethodPost, "/refreshtoken", nil)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected status OK, got %v", res.Status)
		}

		var body handlers.TokenResponse
		json.NewDecoder(res.Body).Decode(&body)
		claims, err := tokens.Verify(body.Token, utils.TokenTypeAccess)
		if err != nil {
			t.Fatalf("minted token failed verification: %v", err)
		}
		if claims.UserID != userID.Hex() {
			t.Errorf("token user id = %q, want %q", claims.UserID, userID.Hex())
		}
	})

	mt.Run("access token in cookie rejected", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		accessToken, _ := tokens.IssueAccessToken(userID.Hex())

		router := mux.NewRouter()
		router.HandleFunc("/refreshtoken", handler.Refresh).Methods("POST")

		req := httptest.NewRequest(http.MethodPost, "/refreshtoken", nil)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: accessToken})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status Unauthorized, got %v", res.Status)
		}
	})

	mt.Run("missing cookie rejected", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		router := mux.NewRouter()
		router.HandleFunc("/refreshtoken", handler.Refresh).Methods("POST")

		req := httptest.NewRequest(http.MethodPost, "/refreshtoken", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status Unauthorized, got %v", res.Status)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	tokens := utils.NewTokenIssuer("test-secret")
	userID := primitive.NewObjectID()

	mt.Run("logout blacklists refresh token and clears cookie", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		refreshToken, _ := tokens.IssueRefreshToken(userID.Hex())

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		router := mux.NewRouter()
		router.HandleFunc("/logout", handler.Logout).Methods("POST")

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusResetContent {
			t.Errorf("expected status ResetContent, got %v", res.Status)
		}

		cleared := false
		for _, c := range res.Cookies() {
			if c.Name == "refreshToken" && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Error("expected refreshToken cookie to be cleared")
		}
	})

	mt.Run("logout without cookie rejected", func(mt *mtest.T) {
		handler := handlers.NewAuthHandler(mt.Coll, mt.Coll, tokens, utils.Logger{})

		router := mux.NewRouter()
		router.HandleFunc("/logout", handler.Logout).Methods("POST")

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akshayak12345/Library-Management-System/internal/models"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

type contextKey string

const (
	ContextUserID contextKey = "user_id"
	ContextUser   contextKey = "user"
)

func JSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// JWTAuthMiddleware rejects requests without a valid bearer access token and
// stores the token's user id in the request context.
func JWTAuthMiddleware(tokens *utils.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			claims, err := tokens.Verify(tokenStr, utils.TokenTypeAccess)
			if err != nil {
				utils.JSONError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole resolves the authenticated user and rejects the request unless
// the user's role is in the allow-list. The resolved user is stored in the
// context for handlers that need it.
func RequireRole(userCol *mongo.Collection, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := ResolveUser(r, userCol)
			if err != nil {
				utils.JSONError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			allowed := false
			for _, role := range roles {
				if user.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				utils.JSONError(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ContextUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveUser loads the user referenced by the access token on the request.
func ResolveUser(r *http.Request, userCol *mongo.Collection) (*models.User, error) {
	userIDHex, ok := r.Context().Value(ContextUserID).(string)
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := userCol.FindOne(r.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserFrom returns the user placed in the context by RequireRole.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ContextUser).(*models.User)
	return user, ok
}

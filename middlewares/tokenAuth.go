package middlewares

import (
	"JagannathOPD/utils"
	"context"
	"errors"

	"github.com/gin-gonic/gin"
)

// ContextKey defines a custom context key type to store user details in the context.
type contextKey string

const (
	userIDKey   contextKey = "userID"
	userRoleKey contextKey = "userRole"

	accessTokenHeader = "X-Access-Token"
)

// TokenAuthMiddleware validates the staff access token and adds user details
// to the request context. The token is read from the accessToken query
// parameter or the X-Access-Token header.
func TokenAuthMiddleware(symmetricKey []byte, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.DefaultQuery("accessToken", "")
		if token == "" {
			token = c.GetHeader(accessTokenHeader)
		}
		if token == "" {
			HttpError(c, utils.KindUnauthorized, utils.CodeUnauthorized, "Missing access token")
			return
		}

		claims, err := utils.ValidateToken(symmetricKey, token)
		if err != nil {
			HttpError(c, utils.KindUnauthorized, utils.CodeUnauthorized, "Invalid token")
			return
		}
		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			HttpError(c, utils.KindForbidden, utils.CodeForbidden, "Forbidden: insufficient privileges")
			return
		}

		ctx := context.WithValue(c.Request.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, userRoleKey, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func hasRole(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// ContextWithUser stores a user the way TokenAuthMiddleware does.
func ContextWithUser(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}

// ExtractUserIDFromContext retrieves the userID from the context.
func ExtractUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return userID, nil
}

// ExtractUserRoleFromContext retrieves the user role from the context.
func ExtractUserRoleFromContext(ctx context.Context) (string, error) {
	userRole, ok := ctx.Value(userRoleKey).(string)
	if !ok {
		return "", errors.New("user role not found in context")
	}
	return userRole, nil
}

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthUser represents an authenticated user from JWT
type AuthUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// contextKey is used for storing user in context
type contextKey string

const (
	userContextKey contextKey = "authenticated_user"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware validates HMAC-signed bearer tokens. The sub claim must be
// a UUID and becomes the user id of the request.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Secret), nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			reject := func(code, message string, fields ...zap.Field) error {
				config.Logger.Warn("Request rejected by auth",
					append(fields, zap.String("code", code), zap.String("path", path))...)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": message, "code": code})
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return reject("MISSING_AUTH_HEADER", "Authorization header required")
			}
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				return reject("INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>")
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !token.Valid {
				return reject("INVALID_TOKEN", "Invalid or expired token", zap.Error(err))
			}

			sub, _ := claims.GetSubject()
			if _, err := uuid.Parse(sub); err != nil {
				return reject("INVALID_USER_ID", "Token subject must be a valid UUID", zap.String("sub", sub))
			}

			user := &AuthUser{UserID: sub}
			user.Email, _ = claims["email"].(string)
			user.Role, _ = claims["role"].(string)

			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			c.Set("user_id", sub)

			config.Logger.Debug("User authenticated",
				zap.String("user_id", sub),
				zap.String("path", path))
			return next(c)
		}
	}
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*AuthUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return user, nil
}

// RequireAuth is a helper function to get user or return error response
func RequireAuth(c echo.Context) (*AuthUser, error) {
	user, err := GetUserFromContext(c)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Authentication required",
			"code":  "AUTH_REQUIRED",
		})
	}
	return user, nil
}

// WithUser returns ctx carrying user. Used by tests and internal callers.
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

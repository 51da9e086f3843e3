package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthUser represents an authenticated principal from JWT
type AuthUser struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
}

// IsAdmin reports whether the principal may adjudicate change requests.
func (u *AuthUser) IsAdmin() bool {
	return u.Role == "admin"
}

// IsService reports whether the principal is a trusted internal service.
func (u *AuthUser) IsService() bool {
	return u.Role == "service"
}

const userContextKey = "authenticated_user"

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware creates a middleware that validates HMAC-signed JWT tokens
// and stores the authenticated user on the echo context.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			user, errResponse := authenticate(c, config)
			if user == nil {
				return errResponse
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// OptionalJWTMiddleware authenticates when a bearer token is present but lets
// anonymous requests through. The visit endpoint serves both phases of the
// referral protocol, so it cannot demand a token.
func OptionalJWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}

			user, errResponse := authenticate(c, config)
			if user == nil {
				return errResponse
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func authenticate(c echo.Context, config JWTConfig) (*AuthUser, error) {
	path := c.Request().URL.Path

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		config.Logger.Warn("Missing authorization header",
			zap.String("path", path),
			zap.String("method", c.Request().Method))
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Authorization header required",
			"code":  "MISSING_AUTH_HEADER",
		})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		config.Logger.Warn("Invalid authorization header format",
			zap.String("path", path))
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Invalid authorization header format. Expected: Bearer <token>",
			"code":  "INVALID_AUTH_FORMAT",
		})
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Secret), nil
	})

	if err != nil || !token.Valid {
		config.Logger.Warn("JWT validation failed",
			zap.Error(err),
			zap.String("path", path))
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Invalid or expired token",
			"code":  "INVALID_TOKEN",
		})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Invalid token claims",
			"code":  "INVALID_CLAIMS",
		})
	}

	subject, _ := claims["sub"].(string)
	customerID, err := uuid.Parse(subject)
	if err != nil {
		config.Logger.Warn("JWT subject is not a valid customer id",
			zap.String("sub", subject),
			zap.String("path", path))
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Token subject must be a valid customer id",
			"code":  "INVALID_SUBJECT",
		})
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &AuthUser{
		CustomerID: customerID,
		Email:      email,
		Role:       role,
	}, nil
}

// RequireAuth extracts the authenticated user from the context, returning a
// JSON error response when missing.
func RequireAuth(c echo.Context) (*AuthUser, error) {
	user, ok := c.Get(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Authentication required",
			"code":  "AUTH_REQUIRED",
		})
	}
	return user, nil
}

// OptionalUser returns the authenticated user when present, nil otherwise.
func OptionalUser(c echo.Context) *AuthUser {
	user, _ := c.Get(userContextKey).(*AuthUser)
	return user
}

// RequireAdmin extracts the authenticated user and checks the admin role.
func RequireAdmin(c echo.Context) (*AuthUser, error) {
	user, err := RequireAuth(c)
	if user == nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, c.JSON(http.StatusForbidden, echo.Map{
			"error": "Admin role required",
			"code":  "ADMIN_REQUIRED",
		})
	}
	return user, nil
}

// RequireService extracts the authenticated user and checks for a trusted
// internal caller (service or admin role).
func RequireService(c echo.Context) (*AuthUser, error) {
	user, err := RequireAuth(c)
	if user == nil {
		return nil, err
	}
	if !user.IsService() && !user.IsAdmin() {
		return nil, c.JSON(http.StatusForbidden, echo.Map{
			"error": "Service role required",
			"code":  "SERVICE_REQUIRED",
		})
	}
	return user, nil
}

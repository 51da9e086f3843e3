package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func createValidJWT(customerID uuid.UUID, email, role string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   customerID.String(),
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})

	tokenString, _ := token.SignedString([]byte("test-secret"))
	return tokenString
}

func testConfig() JWTConfig {
	return JWTConfig{
		Secret: "test-secret",
		Logger: zap.NewNop(),
	}
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	customerID := uuid.New()

	e := echo.New()
	middleware := JWTMiddleware(testConfig())

	handler := middleware(func(c echo.Context) error {
		user, err := RequireAuth(c)
		assert.NoError(t, err)
		assert.Equal(t, customerID, user.CustomerID)
		assert.Equal(t, "customer@example.com", user.Email)
		assert.Equal(t, "customer", user.Role)
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/referral/attribution", nil)
	req.Header.Set("Authorization", "Bearer "+createValidJWT(customerID, "customer@example.com", "customer"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	middleware := JWTMiddleware(testConfig())

	handler := middleware(func(c echo.Context) error {
		t.Fatal("handler must not run without a token")
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/referral/attribution", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"malformed token", "Bearer not-a-jwt"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"wrong secret", "Bearer " + func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": uuid.New().String(),
				"exp": time.Now().Add(time.Hour).Unix(),
			})
			s, _ := token.SignedString([]byte("other-secret"))
			return s
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			middleware := JWTMiddleware(testConfig())

			handler := middleware(func(c echo.Context) error {
				t.Fatal("handler must not run with an invalid token")
				return nil
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/referral/attribution", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)

			assert.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestJWTMiddleware_NonUUIDSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenString, _ := token.SignedString([]byte("test-secret"))

	e := echo.New()
	middleware := JWTMiddleware(testConfig())

	handler := middleware(func(c echo.Context) error {
		t.Fatal("handler must not run with a bad subject")
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/referral/attribution", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	t.Run("anonymous request passes through", func(t *testing.T) {
		e := echo.New()
		middleware := OptionalJWTMiddleware(testConfig())

		handler := middleware(func(c echo.Context) error {
			assert.Nil(t, OptionalUser(c))
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/referral/visit/ABCD2345", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("authenticated request carries the user", func(t *testing.T) {
		customerID := uuid.New()
		e := echo.New()
		middleware := OptionalJWTMiddleware(testConfig())

		handler := middleware(func(c echo.Context) error {
			user := OptionalUser(c)
			assert.NotNil(t, user)
			assert.Equal(t, customerID, user.CustomerID)
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/referral/visit/ABCD2345", nil)
		req.Header.Set("Authorization", "Bearer "+createValidJWT(customerID, "customer@example.com", "customer"))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token is still rejected", func(t *testing.T) {
		e := echo.New()
		middleware := OptionalJWTMiddleware(testConfig())

		handler := middleware(func(c echo.Context) error {
			t.Fatal("handler must not run with an invalid token")
			return nil
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/referral/visit/ABCD2345", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireService(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		user     *AuthUser
		wantPass bool
		wantCode int
	}{
		{"service role passes", &AuthUser{CustomerID: uuid.New(), Role: "service"}, true, http.StatusOK},
		{"admin role passes", &AuthUser{CustomerID: uuid.New(), Role: "admin"}, true, http.StatusOK},
		{"customer role is forbidden", &AuthUser{CustomerID: uuid.New(), Role: "customer"}, false, http.StatusForbidden},
		{"unauthenticated is refused", nil, false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/internal/resolve-rider", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.user != nil {
				c.Set(userContextKey, tt.user)
			}

			user, err := RequireService(c)

			assert.NoError(t, err)
			if tt.wantPass {
				assert.NotNil(t, user)
			} else {
				assert.Nil(t, user)
				assert.Equal(t, tt.wantCode, rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()

	t.Run("admin role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/change-requests", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(userContextKey, &AuthUser{CustomerID: uuid.New(), Role: "admin"})

		user, err := RequireAdmin(c)

		assert.NoError(t, err)
		assert.True(t, user.IsAdmin())
	})

	t.Run("unauthenticated context is refused, not dereferenced", func(t *testing.T) {
		// A route outside JWTMiddleware never sets the context user; the
		// helper must answer 401 instead of touching a nil principal.
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/change-requests", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		user, err := RequireAdmin(c)

		assert.Nil(t, user)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("customer role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/change-requests", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(userContextKey, &AuthUser{CustomerID: uuid.New(), Role: "customer"})

		user, err := RequireAdmin(c)

		assert.Nil(t, user)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"dermacare/internal/domain/entity"
	"dermacare/pkg/errors"
)

type stubVerifier struct {
	uid string
	err error
}

func (v *stubVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	return v.uid, v.err
}

type stubUserRepo struct {
	users map[string]*entity.User
}

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, errors.NotFound("User", nil)
}

func (r *stubUserRepo) Update(ctx context.Context, user *entity.User) error {
	return nil
}

func invoke(m *AuthMiddleware, authHeader string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/chat/rooms", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := m.Authenticate(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, reached
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	m := NewAuthMiddleware(&stubVerifier{}, &stubUserRepo{})

	rec, reached := invoke(m, "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	m := NewAuthMiddleware(&stubVerifier{}, &stubUserRepo{})

	rec, reached := invoke(m, "Token abc")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	m := NewAuthMiddleware(&stubVerifier{err: errors.Unauthorized("bad", nil)}, &stubUserRepo{})

	rec, reached := invoke(m, "Bearer expired")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsDeactivatedUser(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*entity.User{
		"u1": {ID: "u1", Role: entity.RoleUser, IsActive: false},
	}}
	m := NewAuthMiddleware(&stubVerifier{uid: "u1"}, repo)

	rec, reached := invoke(m, "Bearer good")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

func TestAuthenticatePassesActiveUser(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*entity.User{
		"u1": {ID: "u1", Role: entity.RoleUser, IsActive: true},
	}}
	m := NewAuthMiddleware(&stubVerifier{uid: "u1"}, repo)

	rec, reached := invoke(m, "Bearer good")
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRestrictTo(t *testing.T) {
	m := NewAuthMiddleware(&stubVerifier{}, &stubUserRepo{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/shipping/methods", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &entity.User{ID: "u1", Role: entity.RoleUser})

	handler := m.RestrictTo(entity.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("user", &entity.User{ID: "admin-1", Role: entity.RoleAdmin})
	_ = handler(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

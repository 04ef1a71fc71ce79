package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts-service/internal/model"
	"contacts-service/internal/service"
	"contacts-service/internal/token"
)

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, email, plaintext string) error {
	return nil
}

func (stubAuthService) ConfirmRegistration(ctx context.Context, email, code string) (*model.User, error) {
	return nil, service.ErrNoPendingRegistration
}

func (stubAuthService) Login(ctx context.Context, email, plaintext string) (string, error) {
	return "", service.ErrInvalidCredentials
}

func (stubAuthService) ResolveIdentity(ctx context.Context, tokenString string) (*model.User, error) {
	return nil, token.ErrInvalidToken
}

func (stubAuthService) RequestPasswordReset(ctx context.Context, email, newPlaintext string) error {
	return service.ErrUserNotFound
}

func (stubAuthService) ConfirmPasswordReset(ctx context.Context, email, code string) error {
	return service.ErrNoPendingReset
}

func (stubAuthService) UpdateAvatar(ctx context.Context, actor *model.User, imageURL string) (*model.User, error) {
	return nil, service.ErrNotAdmin
}

type stubContactService struct{}

func (stubContactService) Create(ctx context.Context, ownerID int64, contact *model.Contact) (*model.Contact, error) {
	return contact, nil
}

func (stubContactService) List(ctx context.Context, ownerID int64) ([]model.Contact, error) {
	return nil, nil
}

func (stubContactService) Get(ctx context.Context, ownerID, contactID int64) (*model.Contact, error) {
	return nil, service.ErrContactNotFound
}

func (stubContactService) Update(ctx context.Context, ownerID, contactID int64, contact *model.Contact) (*model.Contact, error) {
	return nil, service.ErrContactNotFound
}

func (stubContactService) Delete(ctx context.Context, ownerID, contactID int64) error {
	return service.ErrContactNotFound
}

func (stubContactService) Search(ctx context.Context, ownerID int64, query string) ([]model.Contact, error) {
	return nil, nil
}

func (stubContactService) UpcomingBirthdays(ctx context.Context, ownerID int64) ([]model.Contact, error) {
	return nil, nil
}

func newTestApp() *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, NewAuthHandler(stubAuthService{}), NewContactHandler(stubContactService{}), stubAuthService{})
	return app
}

func TestRegisterRoutes_Surface(t *testing.T) {
	app := newTestApp()

	registered := make(map[string]bool)
	for _, route := range app.GetRoutes(true) {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /health",
		"GET /metrics",
		"POST /register",
		"POST /authorize/register",
		"POST /login",
		"POST /resetPassword",
		"POST /authorize/reset",
		"GET /me",
		"POST /updateAvatar",
		"GET /search",
		"GET /birthdays",
		"POST /contacts/",
		"GET /contacts/",
		"GET /contacts/:id",
		"PUT /contacts/:id",
		"DELETE /contacts/:id",
	}

	for _, want := range expected {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestRegisterRoutes_ConfirmationPaths(t *testing.T) {
	app := newTestApp()

	body := `{"email":"alice@example.com","confirmation_code":"deadbeef"}`

	req := httptest.NewRequest(fiber.MethodPost, "/authorize/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodPost, "/authorize/reset", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRegisterRoutes_ProtectedPathsRejectMissingToken(t *testing.T) {
	app := newTestApp()

	for _, path := range []string{"/me", "/search", "/birthdays", "/contacts/"} {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

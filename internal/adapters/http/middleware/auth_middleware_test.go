package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"easyshopas-backend/internal/adapters/persistence/models"
	"easyshopas-backend/internal/config"
	"easyshopas-backend/internal/core/domain"
	"easyshopas-backend/internal/core/services"
	"easyshopas-backend/internal/pkg/password"
	"easyshopas-backend/internal/pkg/token"
	"easyshopas-backend/internal/pkg/totp"
)

// stubUserRepo serves a fixed set of users keyed by ID
type stubUserRepo struct {
	users map[uint]*models.User
}

func (r *stubUserRepo) Create(_ context.Context, user *models.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByUsername(_ context.Context, _ string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetByIdentifier(_ context.Context, _ string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Update(_ context.Context, _ *models.User) error { return nil }
func (r *stubUserRepo) Delete(_ context.Context, _ uint) error         { return nil }

func (r *stubUserRepo) List(_ context.Context, _, _ int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		Auth: config.AuthConfig{
			Secret:           "test-signing-secret",
			Issuer:           "easyshopas-test",
			AccessTokenMins:  30,
			RefreshTokenDays: 7,
			ActionTokenMins:  60,
			IssueRefresh:     true,
			BcryptCost:       4,
		},
	}
}

type testFixture struct {
	app    *fiber.App
	tokens *token.Service
}

// newFixture builds a Fiber app with protected routes over a fixed user set
func newFixture(users ...*models.User) *testFixture {
	cfg := testConfig()
	repo := &stubUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}

	tokens := token.NewService(cfg.Auth)
	authService := services.NewAuthService(
		repo,
		tokens,
		totp.NewEngine(cfg.TOTP),
		password.NewHasher(cfg.Auth.BcryptCost),
		cfg,
	)

	app := fiber.New()
	app.Get("/me", Protected(authService), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalEmail).(string))
	})
	app.Get("/staff", Protected(authService), RequireRoles(domain.RoleAdmin, domain.RoleVendor), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/admin", Protected(authService), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return &testFixture{app: app, tokens: tokens}
}

func (f *testFixture) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func activeUser(id uint, email, role string) *models.User {
	return &models.User{ID: id, Username: "u", Email: email, Role: role, IsActive: true}
}

func TestProtectedRejectsMissingToken(t *testing.T) {
	f := newFixture()

	resp := f.get(t, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsMalformedHeader(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsGarbageToken(t *testing.T) {
	f := newFixture()

	resp := f.get(t, "/me", "not-a-jwt")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsRefreshToken(t *testing.T) {
	user := activeUser(1, "alice@example.com", "user")
	f := newFixture(user)

	refresh, err := f.tokens.IssueRefresh(user.ID, user.Email)
	require.NoError(t, err)

	resp := f.get(t, "/me", refresh)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsDeletedPrincipal(t *testing.T) {
	f := newFixture()

	// Token is well-formed but its principal no longer exists.
	access, err := f.tokens.IssueAccess(42, "ghost@example.com")
	require.NoError(t, err)

	resp := f.get(t, "/me", access)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsInactivePrincipal(t *testing.T) {
	user := &models.User{ID: 1, Username: "u", Email: "alice@example.com", Role: "user", IsActive: false}
	f := newFixture(user)

	access, err := f.tokens.IssueAccess(user.ID, user.Email)
	require.NoError(t, err)

	resp := f.get(t, "/me", access)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestProtectedAcceptsAccessTokenViaCookie(t *testing.T) {
	user := activeUser(1, "alice@example.com", "user")
	f := newFixture(user)

	access, err := f.tokens.IssueAccess(user.ID, user.Email)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesGate(t *testing.T) {
	admin := activeUser(1, "admin@example.com", "admin")
	vendor := activeUser(2, "vendor@example.com", "vendor")
	buyer := activeUser(3, "buyer@example.com", "user")
	f := newFixture(admin, vendor, buyer)

	tokenFor := func(u *models.User) string {
		tok, err := f.tokens.IssueAccess(u.ID, u.Email)
		require.NoError(t, err)
		return tok
	}

	// Every role in the permitted set passes.
	assert.Equal(t, fiber.StatusOK, f.get(t, "/staff", tokenFor(admin)).StatusCode)
	assert.Equal(t, fiber.StatusOK, f.get(t, "/staff", tokenFor(vendor)).StatusCode)

	// A role outside the set is forbidden, not unauthorized.
	assert.Equal(t, fiber.StatusForbidden, f.get(t, "/staff", tokenFor(buyer)).StatusCode)

	// No hierarchy: only admin passes the admin gate.
	assert.Equal(t, fiber.StatusOK, f.get(t, "/admin", tokenFor(admin)).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, f.get(t, "/admin", tokenFor(vendor)).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, f.get(t, "/admin", tokenFor(buyer)).StatusCode)
}

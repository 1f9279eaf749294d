package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"easyshopas-backend/internal/adapters/persistence/models"
	"easyshopas-backend/internal/config"
	"easyshopas-backend/internal/core/domain"
	"easyshopas-backend/internal/pkg/password"
	"easyshopas-backend/internal/pkg/token"
	"easyshopas-backend/internal/pkg/totp"
)

// fakeUserRepo is an in-memory UserRepository for service tests
type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == identifier || u.Username == identifier {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []*models.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
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
		TOTP: config.TOTPConfig{
			Issuer:        "EasyShopas",
			PeriodSeconds: 30,
			SkewSteps:     1,
			Digits:        6,
		},
	}
}

func newTestAuthService(repo *fakeUserRepo, cfg *config.Config) *AuthService {
	return NewAuthService(
		repo,
		token.NewService(cfg.Auth),
		totp.NewEngine(cfg.TOTP),
		password.NewHasher(cfg.Auth.BcryptCost),
		cfg,
	)
}

// registerActiveUser registers and activates a user via the verification flow
func registerActiveUser(t *testing.T, svc *AuthService, username, email, pass string) *RegisterResult {
	t.Helper()
	result, err := svc.Register(context.Background(), &RegisterInput{
		Username: username,
		Email:    email,
		Password: pass,
	})
	require.NoError(t, err)

	_, err = svc.VerifyEmail(context.Background(), result.VerificationToken)
	require.NoError(t, err)
	return result
}

func TestRegisterCreatesInactiveUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, testConfig())

	result, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.VerificationToken)

	stored, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "account must stay inactive until verification")
	assert.Equal(t, "user", stored.Role, "role defaults to user")
	assert.NotEqual(t, "password123", stored.Password, "password must be stored hashed")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())

	_, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = svc.Register(context.Background(), &RegisterInput{
		Username: "alice2", Email: "alice@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())

	_, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "password123", Role: "superadmin",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestLoginWithEmailAndUsername(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	resp, err := svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "alice", resp.User.Username)

	resp, err = svc.Login(context.Background(), &LoginInput{
		Username: "alice", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginFailures(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	// Neither email nor username supplied.
	_, err := svc.Login(context.Background(), &LoginInput{Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)

	// Unknown identity and wrong password collapse to the same failure.
	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "nobody@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())

	_, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	// Correct credentials, unverified account.
	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestLoginWithSecondFactor(t *testing.T) {
	cfg := testConfig()
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, cfg)
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	// Enroll a second factor directly on the stored record.
	engine := totp.NewEngine(cfg.TOTP)
	secret, err := engine.GenerateSecret()
	require.NoError(t, err)
	user, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	user.OTPSecret = &secret

	// Missing code is rejected even with a correct password.
	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSecondFactor)

	// Malformed code is rejected.
	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123", TOTPCode: "12345",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSecondFactor)

	// Current code is accepted.
	code, err := engine.CurrentCode(secret)
	require.NoError(t, err)
	resp, err := svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123", TOTPCode: code,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginWithoutRefreshIssuance(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.IssueRefresh = false
	svc := newTestAuthService(newFakeUserRepo(), cfg)
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	resp, err := svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)
}

func TestRefresh(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	resp, err := svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.AccessToken)
	assert.NotEmpty(t, renewed.RefreshToken)

	// An access token is not accepted on the refresh path.
	_, err = svc.Refresh(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestCurrentUser(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	resp, err := svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	user, err := svc.CurrentUser(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.CurrentUser(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	// A refresh token is not a session credential.
	_, err = svc.CurrentUser(context.Background(), resp.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVerifyEmailActivatesOnce(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, testConfig())

	result, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	user, err := svc.VerifyEmail(context.Background(), result.VerificationToken)
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	// Redeeming the same token again is invalid.
	_, err = svc.VerifyEmail(context.Background(), result.VerificationToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVerifyEmailRejectsSessionTokens(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	resp, err := svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.VerifyEmail(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestPasswordResetFlow(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())
	registerActiveUser(t, svc, "alice", "alice@example.com", "password123")

	_, resetToken, err := svc.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	err = svc.ResetPassword(context.Background(), resetToken, "new-password-456")
	require.NoError(t, err)

	// Old password no longer works, new one does.
	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	resp, err := svc.Login(context.Background(), &LoginInput{
		Email: "alice@example.com", Password: "new-password-456",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())

	_, _, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestResetPasswordRejectsVerificationToken(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), testConfig())

	result, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	// A verification token must not reset a password.
	err = svc.ResetPassword(context.Background(), result.VerificationToken, "new-password-456")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

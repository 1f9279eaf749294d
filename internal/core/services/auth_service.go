package services

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"easyshopas-backend/internal/adapters/persistence/models"
	"easyshopas-backend/internal/adapters/persistence/repositories"
	"easyshopas-backend/internal/config"
	"easyshopas-backend/internal/core/domain"
	"easyshopas-backend/internal/pkg/password"
	"easyshopas-backend/internal/pkg/token"
	"easyshopas-backend/internal/pkg/totp"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *token.Service
	totp     *totp.Engine
	hasher   *password.Hasher
	cfg      *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	tokens *token.Service,
	totpEngine *totp.Engine,
	hasher *password.Hasher,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		totp:     totpEngine,
		hasher:   hasher,
		cfg:      cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role"`
}

// LoginInput represents login input. Either username or email must be set.
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token,omitempty"`
}

// RegisterResult carries the created user and the email-verification token
// the mail flow embeds in the verification link
type RegisterResult struct {
	User              *models.UserResponse
	VerificationToken string
}

// Register registers a new user. The account starts inactive and is
// activated by redeeming the returned email-verification token.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*RegisterResult, error) {
	// 1. Check if username already exists
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	// 2. Check if email already exists
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	// 3. Validate role
	role := domain.Role(input.Role)
	if input.Role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	// 4. Hash password
	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 5. Create user (inactive until email verification)
	user := &models.User{
		Username:    input.Username,
		Email:       input.Email,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
		Password:    hashed,
		Role:        role.String(),
		IsActive:    false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 6. Issue email-verification action token
	verifyToken, err := s.tokens.IssueAction(user.Email, token.PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User registered: %s", user.Username)

	return &RegisterResult{
		User:              user.ToResponse(),
		VerificationToken: verifyToken,
	}, nil
}

// Login authenticates a user: primary credentials first, then the TOTP code
// when the principal has a second factor enrolled
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Resolve identity by email or username
	identifier := input.Email
	if identifier == "" {
		identifier = input.Username
	}
	if identifier == "" {
		return nil, domain.ErrMissingIdentity
	}

	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Do not reveal which field was wrong
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password (same generic failure as an unknown identity)
	if !s.hasher.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 4. Second factor: mandatory iff a secret is enrolled
	if user.TwoFactorEnabled() {
		ok, err := s.totp.Verify(*user.OTPSecret, input.TOTPCode)
		if err != nil || !ok {
			return nil, domain.ErrInvalidSecondFactor
		}
	}

	// 5. Issue tokens
	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Username)
	return resp, nil
}

// Refresh mints a new token pair from a valid refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token (class is checked structurally)
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	// 2. Re-resolve principal
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Username)
	return resp, nil
}

// CurrentUser resolves the principal behind a bearer access token
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	return user, nil
}

// VerifyEmail redeems an email-verification action token and activates the
// account. A token for an unknown or already-active account is invalid.
func (s *AuthService) VerifyEmail(ctx context.Context, actionToken string) (*models.User, error) {
	claims, err := s.tokens.ValidateAction(actionToken, token.PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	if user.IsActive {
		return nil, domain.ErrTokenInvalid
	}

	user.IsActive = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Email verified for user: %s", user.Username)
	return user, nil
}

// RequestPasswordReset issues a password-reset action token for the account
// behind the given email
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", err
	}

	resetToken, err := s.tokens.IssueAction(user.Email, token.PurposeResetPassword)
	if err != nil {
		return nil, "", err
	}

	return user, resetToken, nil
}

// ResetPassword redeems a password-reset action token and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, actionToken, newPassword string) error {
	claims, err := s.tokens.ValidateAction(actionToken, token.PurposeResetPassword)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTokenInvalid
		}
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ Password reset for user: %s", user.Username)
	return nil
}

// issueTokens issues an access token and, when enabled, a refresh token
func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	resp := &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: accessToken,
	}

	// Refresh token issuance is optional per deployment
	if s.cfg.Auth.IssueRefresh {
		refreshToken, err := s.tokens.IssueRefresh(user.ID, user.Email)
		if err != nil {
			return nil, err
		}
		resp.RefreshToken = refreshToken
	}

	return resp, nil
}

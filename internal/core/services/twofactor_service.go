package services

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"easyshopas-backend/internal/adapters/persistence/models"
	"easyshopas-backend/internal/adapters/persistence/repositories"
	"easyshopas-backend/internal/core/domain"
	"easyshopas-backend/internal/pkg/totp"
)

// TwoFactorService manages TOTP enrollment for principals
type TwoFactorService struct {
	userRepo repositories.UserRepository
	totp     *totp.Engine
}

// NewTwoFactorService creates a new two-factor service
func NewTwoFactorService(userRepo repositories.UserRepository, totpEngine *totp.Engine) *TwoFactorService {
	return &TwoFactorService{
		userRepo: userRepo,
		totp:     totpEngine,
	}
}

// EnrollmentResult carries the new secret and its provisioning URI for
// enrollment rendering
type EnrollmentResult struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// Enable generates and persists a new TOTP secret for the user.
// Re-enabling rotates the secret.
func (s *TwoFactorService) Enable(ctx context.Context, userID uint) (*EnrollmentResult, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	user.OTPSecret = &secret
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	uri, err := s.totp.ProvisioningURI(user.Email, secret)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ 2FA enabled for user: %s", user.Username)

	return &EnrollmentResult{
		Secret:          secret,
		ProvisioningURI: uri,
	}, nil
}

// Disable clears the stored secret. Disabling twice is not silently
// accepted: the second call fails with domain.ErrNotEnrolled.
func (s *TwoFactorService) Disable(ctx context.Context, userID uint) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.TwoFactorEnabled() {
		return domain.ErrNotEnrolled
	}

	user.OTPSecret = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ 2FA disabled for user: %s", user.Username)
	return nil
}

// VerifyCode checks a submitted code against the user's enrolled secret
func (s *TwoFactorService) VerifyCode(ctx context.Context, userID uint, code string) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}

	if !user.TwoFactorEnabled() {
		return false, domain.ErrNotEnrolled
	}

	return s.totp.Verify(*user.OTPSecret, code)
}

// QRCode renders the user's enrolled secret as a base64 PNG QR image
func (s *TwoFactorService) QRCode(ctx context.Context, userID uint) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if !user.TwoFactorEnabled() {
		return "", domain.ErrNotEnrolled
	}

	return s.totp.QRCodePNG(user.Email, *user.OTPSecret)
}

// CurrentCode derives the code for the current window of the user's secret,
// used by the email code-delivery flow
func (s *TwoFactorService) CurrentCode(ctx context.Context, user *models.User) (string, error) {
	if !user.TwoFactorEnabled() {
		return "", domain.ErrNotEnrolled
	}
	return s.totp.CurrentCode(*user.OTPSecret)
}

func (s *TwoFactorService) getUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

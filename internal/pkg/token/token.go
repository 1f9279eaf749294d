// Package token issues and verifies the three categories of signed,
// self-contained bearer tokens: access, refresh and single-purpose action
// tokens. All are HS256-signed with a single server-held secret and carry
// an explicit class discriminator, so a token of one category never
// validates as another.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"easyshopas-backend/internal/config"
	"easyshopas-backend/internal/core/domain"
)

// Token classes
const (
	ClassAccess  = "access"
	ClassRefresh = "refresh"
	ClassAction  = "action"
)

// Action token purposes
const (
	PurposeVerifyEmail   = "verify_email"
	PurposeResetPassword = "reset_password"
)

// AccessClaims represents the access token claims
type AccessClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Class  string `json:"class"`
	jwt.RegisteredClaims
}

// RefreshClaims represents the refresh token claims
type RefreshClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Class  string `json:"class"`
	jwt.RegisteredClaims
}

// ActionClaims represents a single-purpose action token. The subject claim
// carries the principal's email; there is deliberately no user_id so an
// action token can never satisfy a session token's claim shape.
type ActionClaims struct {
	Class   string `json:"class"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens. The signing secret and lifetimes are
// fixed at construction; there is no server-side revocation list, so a
// token stays valid until its embedded expiry lapses.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	actionTTL  time.Duration
	now        func() time.Time
}

// NewService creates a token service from auth configuration
func NewService(cfg config.AuthConfig) *Service {
	return &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  time.Duration(cfg.AccessTokenMins) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTokenDays) * 24 * time.Hour,
		actionTTL:  time.Duration(cfg.ActionTokenMins) * time.Minute,
		now:        time.Now,
	}
}

// IssueAccess generates a new access token bound to the principal
func (s *Service) IssueAccess(userID uint, email string) (string, error) {
	now := s.now()
	claims := AccessClaims{
		UserID: userID,
		Email:  email,
		Class:  ClassAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssueRefresh generates a new refresh token bound to the principal
func (s *Service) IssueRefresh(userID uint, email string) (string, error) {
	now := s.now()
	claims := RefreshClaims{
		UserID: userID,
		Email:  email,
		Class:  ClassRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssueAction generates a single-purpose action token for the given email
func (s *Service) IssueAction(email, purpose string) (string, error) {
	now := s.now()
	claims := ActionClaims{
		Class:   ClassAction,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.actionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAccess validates an access token and returns its claims
func (s *Service) ValidateAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Class != ClassAccess || claims.UserID == 0 || claims.Email == "" {
		return nil, domain.ErrTokenInvalid
	}

	return claims, nil
}

// ValidateRefresh validates a refresh token and returns its claims
func (s *Service) ValidateRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Class != ClassRefresh || claims.UserID == 0 || claims.Email == "" {
		return nil, domain.ErrTokenInvalid
	}

	return claims, nil
}

// ValidateAction validates an action token against the expected purpose and
// returns its claims. A token issued for another purpose is invalid here.
func (s *Service) ValidateAction(tokenString, purpose string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Class != ClassAction || claims.Purpose != purpose || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}

	return claims, nil
}

// parse verifies the signature and time claims, collapsing every failure to
// the expired/invalid pair so nothing else leaks to the caller
func (s *Service) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ErrTokenExpired
		}
		return domain.ErrTokenInvalid
	}

	if !token.Valid {
		return domain.ErrTokenInvalid
	}

	return nil
}

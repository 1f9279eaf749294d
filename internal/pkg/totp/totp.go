// Package totp implements the time-based one-time password engine used for
// the optional second authentication factor.
package totp

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"easyshopas-backend/internal/config"
	"easyshopas-backend/internal/core/domain"
)

// secretSize is the number of random bytes behind a generated secret.
// 20 bytes matches the RFC 4226 recommendation for HMAC-SHA1.
const secretSize = 20

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine generates and validates time-window one-time codes. Period and
// skew come from configuration and are shared by generation and
// verification.
type Engine struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewEngine creates a TOTP engine from configuration
func NewEngine(cfg config.TOTPConfig) *Engine {
	digits := otp.DigitsSix
	if cfg.Digits == 8 {
		digits = otp.DigitsEight
	}

	period := cfg.PeriodSeconds
	if period == 0 {
		period = 30
	}

	return &Engine{
		issuer: cfg.Issuer,
		period: period,
		skew:   cfg.SkewSteps,
		digits: digits,
	}
}

// GenerateSecret returns a new cryptographically random base32 secret,
// independent across calls
func (e *Engine) GenerateSecret() (string, error) {
	buf := make([]byte, secretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return b32.EncodeToString(buf), nil
}

// CurrentCode derives the one-time code for the current time window
func (e *Engine) CurrentCode(secret string) (string, error) {
	return e.codeAt(secret, time.Now())
}

// Verify checks a submitted code against the current window, tolerating the
// configured number of adjacent steps for clock skew. An empty secret is a
// configuration error (domain.ErrNotEnrolled), distinct from a wrong code.
func (e *Engine) Verify(secret, code string) (bool, error) {
	return e.verifyAt(secret, code, time.Now())
}

// ProvisioningURI renders the standard otpauth key URI embedding secret,
// account label and issuer, for enrollment rendering
func (e *Engine) ProvisioningURI(account, secret string) (string, error) {
	key, err := e.provisioningKey(account, secret)
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// QRCodePNG renders the provisioning key as a base64-encoded PNG QR image
func (e *Engine) QRCodePNG(account, secret string) (string, error) {
	key, err := e.provisioningKey(account, secret)
	if err != nil {
		return "", err
	}

	img, err := key.Image(256, 256)
	if err != nil {
		return "", fmt.Errorf("failed to render qr image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode qr image: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// codeAt derives the code for the window containing t
func (e *Engine) codeAt(secret string, t time.Time) (string, error) {
	if secret == "" {
		return "", domain.ErrNotEnrolled
	}
	return totp.GenerateCodeCustom(secret, t, e.validateOpts(0))
}

// verifyAt validates a code against the window containing t
func (e *Engine) verifyAt(secret, code string, t time.Time) (bool, error) {
	if secret == "" {
		return false, domain.ErrNotEnrolled
	}
	return totp.ValidateCustom(code, secret, t, e.validateOpts(e.skew))
}

func (e *Engine) validateOpts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    e.period,
		Skew:      skew,
		Digits:    e.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (e *Engine) provisioningKey(account, secret string) (*otp.Key, error) {
	raw, err := b32.DecodeString(secret)
	if err != nil {
		return nil, domain.ErrNotEnrolled
	}

	return totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: account,
		Period:      e.period,
		Secret:      raw,
		Digits:      e.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

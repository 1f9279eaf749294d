package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"easyshopas-backend/internal/adapters/http/middleware"
	"easyshopas-backend/internal/adapters/persistence/models"
	"easyshopas-backend/internal/core/domain"
	"easyshopas-backend/internal/core/services"
	"easyshopas-backend/internal/pkg/response"
)

// TwoFactorHandler handles 2FA enrollment endpoints
type TwoFactorHandler struct {
	twoFactorService *services.TwoFactorService
	mailService      *services.MailService
}

// NewTwoFactorHandler creates a new two-factor handler
func NewTwoFactorHandler(twoFactorService *services.TwoFactorService, mailService *services.MailService) *TwoFactorHandler {
	return &TwoFactorHandler{
		twoFactorService: twoFactorService,
		mailService:      mailService,
	}
}

// VerifyCodeRequest represents a 2FA code verification body
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

// Enable enables 2FA for the current user, rotating any prior secret
// @Summary Enable two-factor authentication
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /2fa/enable [post]
func (h *TwoFactorHandler) Enable(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	result, err := h.twoFactorService.Enable(c.Context(), userID)
	if err != nil {
		return response.ServiceUnavailable(c, "Failed to enable 2FA")
	}

	return response.Success(c, "2FA enabled", result)
}

// Disable disables 2FA for the current user
// @Summary Disable two-factor authentication
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /2fa/disable [post]
func (h *TwoFactorHandler) Disable(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.twoFactorService.Disable(c.Context(), userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnrolled):
			return response.BadRequest(c, "2FA is not enabled for this user")
		default:
			return response.ServiceUnavailable(c, "Failed to disable 2FA")
		}
	}

	return response.Success(c, "2FA disabled", nil)
}

// VerifyCode verifies a submitted TOTP code for the current user
// @Summary Verify a TOTP code
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body VerifyCodeRequest true "TOTP code"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /2fa/verify [post]
func (h *TwoFactorHandler) VerifyCode(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	valid, err := h.twoFactorService.VerifyCode(c.Context(), userID, strings.TrimSpace(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnrolled):
			return response.BadRequest(c, "2FA is not enabled for this user")
		default:
			return response.ServiceUnavailable(c, "Failed to verify code")
		}
	}
	if !valid {
		return response.Unauthorized(c, "Invalid TOTP code")
	}

	return response.Success(c, "2FA verification successful", nil)
}

// QRCode returns the provisioning QR image for the enrolled secret
// @Summary Get enrollment QR code
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /2fa/qr-code [get]
func (h *TwoFactorHandler) QRCode(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	qr, err := h.twoFactorService.QRCode(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnrolled):
			return response.BadRequest(c, "2FA is not enabled for this user")
		default:
			return response.ServiceUnavailable(c, "Failed to render QR code")
		}
	}

	return response.Success(c, "QR code generated", fiber.Map{
		"qr_code": qr,
	})
}

// SendCode emails the current one-time code to the user
// @Summary Send the current TOTP code by email
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /2fa/send-code [post]
func (h *TwoFactorHandler) SendCode(c *fiber.Ctx) error {
	user, ok := c.Locals(middleware.LocalUser).(*models.User)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	code, err := h.twoFactorService.CurrentCode(c.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnrolled):
			return response.BadRequest(c, "2FA is not enabled for this user")
		default:
			return response.ServiceUnavailable(c, "Failed to generate code")
		}
	}

	if err := h.mailService.SendTOTPCode(user, code); err != nil {
		return response.ServiceUnavailable(c, "Failed to send code")
	}

	return response.Success(c, "TOTP code sent to user's email", nil)
}

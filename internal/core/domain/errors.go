package domain

import "errors"

// Authentication errors
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingIdentity     = errors.New("username or email is required")
	ErrInvalidSecondFactor = errors.New("invalid second factor code")
	ErrUserInactive        = errors.New("user account is inactive")
)

// Token errors
var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// Authorization errors
var (
	ErrForbidden = errors.New("forbidden")
)

// Two-factor enrollment errors
var (
	ErrNotEnrolled = errors.New("two-factor authentication is not enabled")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrWrongPassword     = errors.New("current password is incorrect")
	ErrInvalidRole       = errors.New("invalid role")
)

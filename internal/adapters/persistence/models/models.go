package models

import (
	"time"

	"gorm.io/gorm"

	"easyshopas-backend/internal/core/domain"
)

// User represents users table
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName    string         `gorm:"size:100" json:"full_name"`
	PhoneNumber string         `gorm:"size:20" json:"phone_number"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	OTPSecret   *string        `gorm:"size:64" json:"-"`
	Role        string         `gorm:"size:20;default:'user'" json:"role"`
	IsActive    bool           `gorm:"default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// TwoFactorEnabled reports whether a TOTP secret is enrolled. Secret
// presence is the sole signal that a second factor is required at login.
func (u *User) TwoFactorEnabled() bool {
	return u.OTPSecret != nil && *u.OTPSecret != ""
}

// RoleValue returns the user's role as a domain.Role
func (u *User) RoleValue() domain.Role {
	return domain.Role(u.Role)
}

// UserResponse DTO
type UserResponse struct {
	ID               uint      `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name,omitempty"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	Role             string    `json:"role"`
	IsActive         bool      `json:"is_active"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
		PhoneNumber:      u.PhoneNumber,
		Role:             u.Role,
		IsActive:         u.IsActive,
		TwoFactorEnabled: u.TwoFactorEnabled(),
		CreatedAt:        u.CreatedAt,
	}
}

// AutoMigrate runs auto migration for owned tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
	)
}

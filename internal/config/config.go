package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	BaseURL  string
	Database DatabaseConfig
	Auth     AuthConfig
	TOTP     TOTPConfig
	Mail     MailConfig
	Cookie   CookieConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// AuthConfig holds token signing and password hashing configuration.
// The signing secret is loaded once at startup; rotating it invalidates
// every outstanding token.
type AuthConfig struct {
	Secret           string
	Issuer           string
	AccessTokenMins  int
	RefreshTokenDays int
	ActionTokenMins  int
	IssueRefresh     bool
	BcryptCost       int
}

// TOTPConfig holds second-factor configuration. Period and skew are shared
// by code generation and verification.
type TOTPConfig struct {
	Issuer        string
	PeriodSeconds uint
	SkewSteps     uint
	Digits        int
}

// MailConfig holds outbound mail configuration
type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		BaseURL:  getEnv("BASE_URL", "http://localhost:3000"),
		Database: loadDatabaseConfig(),
		Auth:     loadAuthConfig(),
		TOTP:     loadTOTPConfig(),
		Mail:     loadMailConfig(),
		Cookie:   loadCookieConfig(appMode),
	}

	if config.IsProd() && config.Auth.Secret == "" {
		return nil, fmt.Errorf("AUTH_SECRET must be set in production")
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		User:     getEnv("DB_USER", "root"),
		Password: getEnv("DB_PASS", ""),
		DBName:   getEnv("DB_NAME", "easyshopas"),
	}
}

// loadAuthConfig loads token and password hashing config
func loadAuthConfig() AuthConfig {
	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "30"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))
	actionMins, _ := strconv.Atoi(getEnv("ACTION_TOKEN_MINUTES", "60"))
	issueRefresh, _ := strconv.ParseBool(getEnv("AUTH_ISSUE_REFRESH", "true"))
	bcryptCost, _ := strconv.Atoi(getEnv("BCRYPT_COST", "12"))

	return AuthConfig{
		Secret:           getEnv("AUTH_SECRET", "default_secret"),
		Issuer:           getEnv("AUTH_ISSUER", "easyshopas"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
		ActionTokenMins:  actionMins,
		IssueRefresh:     issueRefresh,
		BcryptCost:       bcryptCost,
	}
}

// loadTOTPConfig loads second-factor config
func loadTOTPConfig() TOTPConfig {
	period, _ := strconv.Atoi(getEnv("TOTP_PERIOD_SECONDS", "30"))
	skew, _ := strconv.Atoi(getEnv("TOTP_SKEW_STEPS", "1"))
	digits, _ := strconv.Atoi(getEnv("TOTP_DIGITS", "6"))

	return TOTPConfig{
		Issuer:        getEnv("TOTP_ISSUER", "EasyShopas"),
		PeriodSeconds: uint(period),
		SkewSteps:     uint(skew),
		Digits:        digits,
	}
}

// loadMailConfig loads outbound mail config
func loadMailConfig() MailConfig {
	return MailConfig{
		Host:     getEnv("MAIL_HOST", "smtp.gmail.com"),
		Port:     getEnv("MAIL_PORT", "465"),
		Username: getEnv("MAIL_USERNAME", ""),
		Password: getEnv("MAIL_PASSWORD", ""),
		From:     getEnv("MAIL_FROM", "no-reply@easyshopas.com"),
		FromName: getEnv("MAIL_FROM_NAME", "EasyShopas"),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure := mode == "prod"
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, _ = strconv.ParseBool(v)
	}

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://shop.easyshopas.com"
	}
	return origins
}

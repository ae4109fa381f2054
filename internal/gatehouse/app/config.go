package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PortalURL     string // Externally reachable base URL, used in invite links
	JWTSecret     string // HMAC key for pre-auth and enrollment claims; generated when empty
	TOTPIssuer    string // Issuer shown in authenticator apps
	DatabaseFile  string // Path to the SQLite database file
	PepperFile    string // Path to the password pepper file
	SecureCookies bool   // Set the Secure flag on cookies (any https deployment)

	SessionTTL time.Duration // Browser session lifetime
	CodeTTL    time.Duration // Authorization code lifetime
	AccessTTL  time.Duration // Access token lifetime
	InviteTTL  time.Duration // Invite link lifetime

	AdminEmail    string // Bootstrap admin account, created on first boot
	AdminPassword string

	SMTPHost string // Empty disables outbound mail
	SMTPPort int
	SMTPFrom string
	SMTPUser string
	SMTPPass string

	Env                  string
	LogLevel             string
	LogFormat            string
	Port                 int
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration
}

func LoadConfig() Config {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	return Config{
		PortalURL:     getEnvOrDefault("GATEHOUSE_PORTAL_URL", "http://localhost:8080"),
		JWTSecret:     os.Getenv("GATEHOUSE_JWT_SECRET"),
		TOTPIssuer:    getEnvOrDefault("GATEHOUSE_TOTP_ISSUER", "Gatehouse"),
		DatabaseFile:  getEnvOrDefault("GATEHOUSE_DATABASE_FILE", "gatehouse.db"),
		PepperFile:    getEnvOrDefault("GATEHOUSE_PEPPER_FILE", "pepper"),
		SecureCookies: getEnvBoolOrDefault("GATEHOUSE_SECURE_COOKIES", false),

		SessionTTL: getEnvDurationOrDefault("GATEHOUSE_SESSION_TTL", 7*24*time.Hour),
		CodeTTL:    getEnvDurationOrDefault("GATEHOUSE_CODE_TTL", 5*time.Minute),
		AccessTTL:  getEnvDurationOrDefault("GATEHOUSE_ACCESS_TTL", time.Hour),
		InviteTTL:  getEnvDurationOrDefault("GATEHOUSE_INVITE_TTL", 7*24*time.Hour),

		AdminEmail:    os.Getenv("GATEHOUSE_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("GATEHOUSE_ADMIN_PASSWORD"),

		SMTPHost: os.Getenv("GATEHOUSE_SMTP_HOST"),
		SMTPPort: getEnvIntOrDefault("GATEHOUSE_SMTP_PORT", 587),
		SMTPFrom: os.Getenv("GATEHOUSE_SMTP_FROM"),
		SMTPUser: os.Getenv("GATEHOUSE_SMTP_USER"),
		SMTPPass: os.Getenv("GATEHOUSE_SMTP_PASS"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

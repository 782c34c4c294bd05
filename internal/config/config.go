// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nexshop/identity/internal/mailer"
	"github.com/nexshop/identity/internal/policy"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Risk policy seed (tunable at runtime via the config API)
	AllowThreshold  int
	ReviewThreshold int

	WeightIP         int
	WeightUserAgent  int
	WeightTimezone   int
	WeightLanguage   int
	WeightResolution int
	WeightReputation int

	// IP reputation lookup
	ReputationEnabled            bool
	ReputationAPIKey             string
	ReputationDays               int
	ReputationMaliciousThreshold int

	// Challenge settings
	Challenges          []string // Kinds available for auto-proposal
	OTPIssuer           string
	BiometricSimilarity float64
	ChallengeTTL        time.Duration
	SweepInterval       time.Duration

	// SMTP delivery for email challenges
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	SMTPSecure bool

	// Security
	RateLimitRPM   int
	AllowedOrigins []string

	// Observability
	OTLPEndpoint string
}

// Defaults
const (
	DefaultPort      = "8080"
	DefaultEnv       = "development"
	DefaultLogLevel  = "info"
	DefaultOTPIssuer = "NexShop"
	DefaultRateLimit = 120
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	def := policy.Default()

	cfg := &Config{
		Port:     getEnv("PORT", DefaultPort),
		Env:      getEnv("ENV", DefaultEnv),
		LogLevel: getEnv("LOG_LEVEL", DefaultLogLevel),

		AllowThreshold:  getEnvInt("ALLOW_THRESHOLD", def.AllowThreshold),
		ReviewThreshold: getEnvInt("REVIEW_THRESHOLD", def.ReviewThreshold),

		WeightIP:         getEnvInt("WEIGHT_IP", def.Weights.IP),
		WeightUserAgent:  getEnvInt("WEIGHT_USER_AGENT", def.Weights.UserAgent),
		WeightTimezone:   getEnvInt("WEIGHT_TIMEZONE", def.Weights.Timezone),
		WeightLanguage:   getEnvInt("WEIGHT_LANGUAGE", def.Weights.Language),
		WeightResolution: getEnvInt("WEIGHT_RESOLUTION", def.Weights.Resolution),
		WeightReputation: getEnvInt("WEIGHT_REPUTATION", def.Weights.Reputation),

		ReputationEnabled:            getEnvBool("REPUTATION_ENABLED", false),
		ReputationAPIKey:             os.Getenv("REPUTATION_API_KEY"),
		ReputationDays:               getEnvInt("REPUTATION_DAYS", def.Reputation.Days),
		ReputationMaliciousThreshold: getEnvInt("REPUTATION_MALICIOUS_THRESHOLD", def.Reputation.MaliciousThreshold),

		Challenges:          getEnvList("CHALLENGES", def.Challenges.Available),
		OTPIssuer:           getEnv("OTP_ISSUER", DefaultOTPIssuer),
		BiometricSimilarity: getEnvFloat("BIOMETRIC_SIMILARITY", 0),
		ChallengeTTL:        getEnvDuration("CHALLENGE_TTL", 0),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", 0),

		SMTPHost:   os.Getenv("SMTP_HOST"),
		SMTPPort:   getEnvInt("SMTP_PORT", 587),
		SMTPUser:   os.Getenv("SMTP_USER"),
		SMTPPass:   os.Getenv("SMTP_PASS"),
		SMTPFrom:   os.Getenv("SMTP_FROM"),
		SMTPSecure: getEnvBool("SMTP_SECURE", false),

		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.AllowThreshold < 0 || c.AllowThreshold > 100 {
		return fmt.Errorf("ALLOW_THRESHOLD must be between 0 and 100")
	}
	if c.ReviewThreshold < 0 || c.ReviewThreshold > 100 {
		return fmt.Errorf("REVIEW_THRESHOLD must be between 0 and 100")
	}
	if c.ReviewThreshold > c.AllowThreshold {
		return fmt.Errorf("REVIEW_THRESHOLD must not exceed ALLOW_THRESHOLD")
	}
	if c.BiometricSimilarity < 0 || c.BiometricSimilarity > 1 {
		return fmt.Errorf("BIOMETRIC_SIMILARITY must be between 0 and 1")
	}
	return nil
}

// Policy builds the initial runtime policy from the environment seed.
func (c *Config) Policy() policy.Config {
	return policy.Config{
		AllowThreshold:  c.AllowThreshold,
		ReviewThreshold: c.ReviewThreshold,
		Weights: policy.Weights{
			IP:         c.WeightIP,
			UserAgent:  c.WeightUserAgent,
			Timezone:   c.WeightTimezone,
			Language:   c.WeightLanguage,
			Resolution: c.WeightResolution,
			Reputation: c.WeightReputation,
		},
		Reputation: policy.Reputation{
			Enabled:            c.ReputationEnabled,
			APIKey:             c.ReputationAPIKey,
			Days:               c.ReputationDays,
			MaliciousThreshold: c.ReputationMaliciousThreshold,
		},
		Challenges: policy.Challenges{
			Available: c.Challenges,
		},
	}
}

// SMTP builds the mail transport settings.
func (c *Config) SMTP() mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPass,
		From:     c.SMTPFrom,
		StartTLS: c.SMTPSecure,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

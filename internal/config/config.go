package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string

	// Secrets (from .env)
	APIKey            string
	SupabaseJWTSecret string
	AIAPIKey          string
	WebhookURL        string
	BotName           string
	CORSAllowOrigin   string

	// Server
	APIPort int

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string

	// Trade validator
	AIProvider       string // openai, gemini or noop
	AIModel          string
	AIBaseURL        string
	AIMaxTokens      int
	AITemperature    float64
	AITimeoutSeconds int
	MaxImageBytes    int

	// Rule change stream
	RulesChangeMode  string // listen, poll or off
	RulesPollSeconds int

	// Sessions
	SessionIdleMinutes int

	// Transcript archive
	TranscriptTable string
	AWSRegion       string
	DynamoEndpoint  string

	// Prompts
	PromptsFile string
	Prompts     Prompts

	// Logging
	LogLevel   string
	LogFormat  string
	LogTracing bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName: envStr("APP_NAME", "Maichez Trades"),

		// Secrets
		APIKey:            envStr("API_KEY", ""),
		SupabaseJWTSecret: envStr("SUPABASE_JWT_SECRET", ""),
		AIAPIKey:          envStr("AI_API_KEY", ""),
		WebhookURL:        envStr("WEBHOOK_URL", ""),
		BotName:           envStr("BOT_NAME", "MaichezAssistant"),
		CORSAllowOrigin:   envStr("CORS_ALLOW_ORIGIN", "*"),

		APIPort: envInt("API_PORT", 3001),

		// Database
		DatabaseURL: envStr("DATABASE_URL", ""),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBName:      envStr("DB_NAME", "maichez"),
		DBUser:      envStr("DB_USER", ""),
		DBPassword:  envStr("DB_PASSWORD", ""),

		// Trade validator
		AIProvider:       strings.ToLower(envStr("AI_PROVIDER", "openai")),
		AIModel:          envStr("AI_MODEL", ""),
		AIBaseURL:        envStr("AI_BASE_URL", ""),
		AIMaxTokens:      envInt("AI_MAX_TOKENS", 1024),
		AITemperature:    envFloat("AI_TEMPERATURE", 0.2),
		AITimeoutSeconds: envInt("AI_TIMEOUT_SECONDS", 60),
		MaxImageBytes:    envInt("MAX_IMAGE_BYTES", 5<<20),

		// Rule change stream
		RulesChangeMode:  strings.ToLower(envStr("RULES_CHANGE_MODE", "listen")),
		RulesPollSeconds: envInt("RULES_POLL_SECONDS", 15),

		SessionIdleMinutes: envInt("SESSION_IDLE_MINUTES", 120),

		// Transcript archive
		TranscriptTable: envStr("TRANSCRIPT_TABLE", ""),
		AWSRegion:       envStr("AWS_REGION", "us-east-1"),
		DynamoEndpoint:  envStr("DYNAMODB_ENDPOINT", ""),

		PromptsFile: envStr("ASSISTANT_PROMPTS_FILE", ""),

		// Logging
		LogLevel:   envStr("LOG_LEVEL", "INFO"),
		LogFormat:  envStr("LOG_FORMAT", "json"),
		LogTracing: envBool("LOG_TRACING_ENABLED", false),
	}

	prompts, err := LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}
	cfg.Prompts = prompts

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" && c.DBUser == "" {
		errs = append(errs, "DB_USER or DATABASE_URL is required")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT %d is out of range", c.APIPort))
	}
	switch c.AIProvider {
	case "openai", "gemini":
		if c.AIAPIKey == "" {
			fmt.Printf("[WARN] AI_API_KEY not set — %s validator disabled, replies will be placeholders\n", c.AIProvider)
		}
	case "noop":
	default:
		errs = append(errs, fmt.Sprintf("AI_PROVIDER must be openai, gemini or noop (got %q)", c.AIProvider))
	}
	switch c.RulesChangeMode {
	case "listen", "poll", "off":
	default:
		errs = append(errs, fmt.Sprintf("RULES_CHANGE_MODE must be listen, poll or off (got %q)", c.RulesChangeMode))
	}
	if c.RulesChangeMode == "poll" && c.RulesPollSeconds <= 0 {
		errs = append(errs, "RULES_POLL_SECONDS must be positive in poll mode")
	}
	if c.AITimeoutSeconds <= 0 {
		errs = append(errs, "AI_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxImageBytes < 0 {
		errs = append(errs, "MAX_IMAGE_BYTES must not be negative")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — admin routes have no authentication")
	}
	if c.SupabaseJWTSecret == "" {
		fmt.Println("[WARN] SUPABASE_JWT_SECRET not set — user routes trust the X-User-ID header")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// ValidatorEnabled reports whether a real provider will be called.
func (c *Config) ValidatorEnabled() bool {
	return c.AIProvider != "noop" && c.AIAPIKey != ""
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) Print() {
	fmt.Printf("=== %s Assistant Configuration ===\n", c.AppName)
	fmt.Printf("API Port: %d\n", c.APIPort)
	fmt.Printf("Database: %s\n", boolLabel(c.DatabaseURL != "", "DATABASE_URL", fmt.Sprintf("%s:%d/%s", c.DBHost, c.DBPort, c.DBName)))
	fmt.Println("--------------------------------------")
	fmt.Println("Trade Validator:")
	fmt.Printf("  Provider: %s\n", boolLabel(c.ValidatorEnabled(), c.AIProvider, "noop"))
	fmt.Printf("  Model: %s\n", boolLabel(c.AIModel != "", c.AIModel, "provider default"))
	if c.AIBaseURL != "" {
		fmt.Printf("  Base URL: %s\n", c.AIBaseURL)
	}
	fmt.Printf("  Timeout: %ds\n", c.AITimeoutSeconds)
	fmt.Printf("  Max Image: %d KiB\n", c.MaxImageBytes/1024)
	fmt.Println("--------------------------------------")
	fmt.Printf("Rule Changes: %s\n", c.RulesChangeMode)
	if c.RulesChangeMode == "poll" {
		fmt.Printf("  Poll Interval: %ds\n", c.RulesPollSeconds)
	}
	fmt.Printf("Transcript Archive: %s\n", boolLabel(c.TranscriptTable != "", c.TranscriptTable, "disabled"))
	fmt.Printf("Prompts: %s\n", boolLabel(c.PromptsFile != "", c.PromptsFile, "built-in"))
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Printf("User Auth: %s\n", boolLabel(c.SupabaseJWTSecret != "", "Supabase JWT", "X-User-ID header (dev)"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

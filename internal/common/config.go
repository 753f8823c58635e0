package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Session  SessionConfig  `yaml:"session"`
	Trainer  TrainerConfig  `yaml:"trainer"`
	Report   ReportConfig   `yaml:"report"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// DSN is a SQLite file path (default) or a postgres:// URL.
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"maxConns"`
	MinConns        int32         `yaml:"minConns"`
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `yaml:"maxConnIdleTime"`
	DialTimeout     time.Duration `yaml:"dialTimeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string   `yaml:"httpAddr"`
	GRPCHealthAddr string   `yaml:"grpcHealthAddr"`
	CORSOrigins    []string `yaml:"corsOrigins"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes"`
	// EvalWorkers caps concurrent submission evaluations (scoring calls).
	EvalWorkers   int           `yaml:"evalWorkers"`
	EvalQueueSize int           `yaml:"evalQueueSize"`
	EvalTimeout   time.Duration `yaml:"evalTimeout"`
}

// LLMConfig holds scoring-service configuration
type LLMConfig struct {
	Provider     string        `yaml:"provider"` // openai | gemini
	Mode         string        `yaml:"mode"`     // template | structured
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	BaseURL      string        `yaml:"baseURL"`
	Temperature  float32       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	GeminiAPIKey string        `yaml:"geminiApiKey"`
	GeminiModel  string        `yaml:"geminiModel"`
}

// ScoringConfig controls how unparsable model responses are treated.
type ScoringConfig struct {
	// ZeroFallback records a score of 0 when no score pattern is found instead of
	// failing the submission with SCORE_UNPARSABLE.
	ZeroFallback bool `yaml:"zeroFallback"`
}

// SessionConfig holds submission-session storage configuration
type SessionConfig struct {
	RedisAddr     string        `yaml:"redisAddr"` // empty -> in-memory store
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	TTL           time.Duration `yaml:"ttl"`
}

// TrainerConfig holds trainer dashboard authentication configuration
type TrainerConfig struct {
	PasswordHash string        `yaml:"passwordHash"` // bcrypt
	JWTSecret    string        `yaml:"jwtSecret"`
	TokenTTL     time.Duration `yaml:"tokenTTL"`
}

// ReportConfig holds the fixed branding printed on reports
type ReportConfig struct {
	ProductName  string `yaml:"productName"`
	TrainerName  string `yaml:"trainerName"`
	TrainerRole  string `yaml:"trainerRole"`
	ContactEmail string `yaml:"contactEmail"`
	Website      string `yaml:"website"`
	LinkedIn     string `yaml:"linkedIn"`
	Instagram    string `yaml:"instagram"`
}

// TracingConfig toggles OpenTelemetry tracing
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             "submissions.db",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr:       ":8080",
			GRPCHealthAddr: ":8081",
			CORSOrigins:    []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173"},
			MaxUploadBytes: 5_000_000,
			EvalWorkers:    4,
			EvalQueueSize:  64,
			EvalTimeout:    3 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Mode:        "template",
			Model:       "gpt-4.1-nano",
			BaseURL:     "https://api.openai.com/v1",
			Temperature: 0.7,
			Timeout:     45 * time.Second,
			GeminiModel: "gemini-2.5-flash",
		},
		Session: SessionConfig{
			TTL: 2 * time.Hour,
		},
		Trainer: TrainerConfig{
			TokenTTL: 8 * time.Hour,
		},
		Report: ReportConfig{
			ProductName:  "SkillShareVerify™",
			TrainerName:  "Rohit Krishnan",
			TrainerRole:  "Senior Trainer of Data Science & AI",
			ContactEmail: "rohitkrishnanm@gmail.com",
			Website:      "https://rohitkrishnan.co.in",
			LinkedIn:     "https://www.linkedin.com/in/rohit-krishnan-m",
			Instagram:    "https://www.instagram.com/prof_rohit_/",
		},
		Tracing: TracingConfig{
			ServiceName: "assignment-verifier",
		},
	}
}

// LoadConfig loads defaults, then the optional YAML file named by CONFIG_FILE,
// then environment variables (highest precedence).
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCHealthAddr = getEnv("GRPC_HEALTH_ADDR", c.Server.GRPCHealthAddr)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	c.Server.MaxUploadBytes = int64(getEnvAsInt("MAX_UPLOAD_BYTES", int(c.Server.MaxUploadBytes)))
	c.Server.EvalWorkers = getEnvAsInt("EVAL_WORKERS", c.Server.EvalWorkers)
	c.Server.EvalQueueSize = getEnvAsInt("EVAL_QUEUE_SIZE", c.Server.EvalQueueSize)
	c.Server.EvalTimeout = getEnvAsDuration("EVAL_TIMEOUT", c.Server.EvalTimeout)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Mode = getEnv("LLM_MODE", c.LLM.Mode)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.LLM.GeminiAPIKey)
	c.LLM.GeminiModel = getEnv("GEMINI_MODEL", c.LLM.GeminiModel)

	c.Scoring.ZeroFallback = getEnvAsBool("SCORING_ZERO_FALLBACK", c.Scoring.ZeroFallback)

	c.Session.RedisAddr = getEnv("REDIS_ADDR", c.Session.RedisAddr)
	c.Session.RedisPassword = getEnv("REDIS_PASSWORD", c.Session.RedisPassword)
	c.Session.RedisDB = getEnvAsInt("REDIS_DB", c.Session.RedisDB)
	c.Session.TTL = getEnvAsDuration("SESSION_TTL", c.Session.TTL)

	c.Trainer.PasswordHash = getEnv("TRAINER_PASSWORD_HASH", c.Trainer.PasswordHash)
	c.Trainer.JWTSecret = getEnv("TRAINER_JWT_SECRET", c.Trainer.JWTSecret)
	c.Trainer.TokenTTL = getEnvAsDuration("TRAINER_TOKEN_TTL", c.Trainer.TokenTTL)

	c.Report.ProductName = getEnv("REPORT_PRODUCT_NAME", c.Report.ProductName)
	c.Report.TrainerName = getEnv("REPORT_TRAINER_NAME", c.Report.TrainerName)
	c.Report.TrainerRole = getEnv("REPORT_TRAINER_ROLE", c.Report.TrainerRole)

	c.Tracing.Enabled = getEnvAsBool("TRACING_ENABLED", c.Tracing.Enabled)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return NewAppError(CodeConfig, "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.Mode != "template" && c.LLM.Mode != "structured" {
		return NewAppError(CodeConfig, fmt.Sprintf("unknown LLM_MODE %q", c.LLM.Mode), ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Trainer.PasswordHash != "" && c.Trainer.JWTSecret == "" {
		return NewAppError(CodeConfig, "TRAINER_JWT_SECRET is required when a trainer password is set", ErrInvalidInput)
	}
	return nil
}

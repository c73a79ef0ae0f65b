package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendSQLite  = "sqlite"
	BackendUpstash = "upstash"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS" envDefault:"*"`
	PublicBaseURL  string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	JWTSecretHex   string        `env:"JWT_SECRET"`
	LinkTTL        time.Duration `env:"LINK_TTL" envDefault:"0s"` // 0 means links never expire

	NeynarAPIKey  string `env:"NEYNAR_API_KEY"`
	NeynarBaseURL string `env:"NEYNAR_BASE_URL" envDefault:"https://api.neynar.com"`
	CastChannel   string `env:"CAST_CHANNEL" envDefault:"osrs"`

	BlobToken      string `env:"BLOB_READ_WRITE_TOKEN"`
	BlobBaseURL    string `env:"BLOB_BASE_URL" envDefault:"https://blob.vercel-storage.com"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"8388608"`

	SessionBackend string `env:"SESSION_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"dink-feed.db"`
	UpstashURL     string `env:"UPSTASH_REST_URL"`
	UpstashToken   string `env:"UPSTASH_REST_TOKEN"`

	RulesPath string `env:"RULES_PATH"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	ReadTimeout   time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout  time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout   time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"15s"`

	JWTSecret []byte

	envFileErr      error
	secretGenerated bool
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. Missing .env files are not an error. Load does not
// log; call LogStartup once logging is configured.
func Load(envFiles ...string) (*Config, error) {
	envFileErr := godotenv.Load(envFiles...)

	cfg := &Config{envFileErr: envFileErr}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if cfg.JWTSecretHex != "" {
		secret, err := hex.DecodeString(cfg.JWTSecretHex)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_SECRET format, must be hex-encoded: %w", err)
		}
		cfg.JWTSecret = secret
	} else {
		cfg.JWTSecret = generateSecret()
		cfg.secretGenerated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogStartup reports how the configuration was assembled.
func (c *Config) LogStartup(logger *slog.Logger) {
	if c.envFileErr != nil {
		logger.Info("No .env file found, using process environment")
	}
	if c.secretGenerated {
		logger.Warn("No JWT_SECRET set, generated a temporary secret; webhook links will not survive a restart",
			"secret", hex.EncodeToString(c.JWTSecret))
	} else {
		logger.Info("Loaded JWT secret from environment")
	}
}

func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendUpstash:
		if c.UpstashURL == "" || c.UpstashToken == "" {
			return fmt.Errorf("UPSTASH_REST_URL and UPSTASH_REST_TOKEN are required for the upstash backend")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want sqlite or upstash)", c.SessionBackend)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func generateSecret() []byte {
	secret := make([]byte, 32)
	rand.Read(secret)
	return secret
}

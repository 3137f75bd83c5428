package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	EnvDev        = "dev"
	EnvProduction = "production"

	maxConfigFileSize = 1 << 20
)

var defaultCORSOrigins = "http://localhost:3000,http://localhost:5173,http://localhost:5174"

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	CORSAllowOrigins []string
	LogLevel         string

	DatabaseURL string
	RedisURL    string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool

	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string
	LLMTimeout      time.Duration
	LLMRatePerSec   float64
	LLMBurst        int

	JWTSecret string
	JWTTTL    time.Duration

	UploadMaxBytes      int64
	RetentionDays       int
	CleanupCron         string
	WorkerConcurrency   int
	ScanTranscriptDates bool
}

// IsProduction reports whether the service runs with production guarantees.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads configuration from an optional YAML file (TEAMSYNC_CONFIG) and
// then environment variables, which win.
func Load() (Config, error) {
	loadEnvFiles(".env", "cmd/.env")

	k := koanf.New(".")
	if path := strings.TrimSpace(os.Getenv("TEAMSYNC_CONFIG")); path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	// DATABASE_URL -> database_url, matching the YAML keys.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (Config, error) {
	cfg := Config{
		Port:             getString(k, "port", "8080"),
		Env:              normalizeEnv(getString(k, "env", EnvDev)),
		CORSAllowOrigins: splitAndTrim(getString(k, "cors_allow_origins", defaultCORSOrigins)),
		LogLevel:         getString(k, "log_level", "info"),

		DatabaseURL: getString(k, "database_url", ""),
		RedisURL:    getString(k, "redis_url", ""),

		ObjectStoreType: normalizeStoreType(getString(k, "object_store", "local")),
		LocalStoreDir:   getString(k, "local_store_dir", "./data"),
		AWSRegion:       getString(k, "aws_region", ""),
		S3Bucket:        getString(k, "s3_bucket", ""),
		S3Prefix:        getString(k, "s3_prefix", ""),
		MinioEndpoint:   getString(k, "minio_endpoint", ""),
		MinioAccessKey:  getString(k, "minio_access_key", ""),
		MinioSecretKey:  getString(k, "minio_secret_key", ""),
		MinioBucket:     getString(k, "minio_bucket", "transcripts"),
		MinioUseSSL:     getBool(k, "minio_use_ssl", false),

		LLMProvider:     strings.ToLower(getString(k, "llm_provider", "gemini")),
		LLMModel:        getString(k, "llm_model", ""),
		LLMBaseURL:      getString(k, "llm_base_url", ""),
		OpenAIAPIKey:    getString(k, "openai_api_key", ""),
		AnthropicAPIKey: getString(k, "anthropic_api_key", ""),
		GoogleAPIKey:    getString(k, "google_api_key", ""),
		LLMTimeout:      time.Duration(getInt(k, "llm_timeout_seconds", 60)) * time.Second,
		LLMRatePerSec:   getFloat(k, "llm_rate_per_sec", 2),
		LLMBurst:        getInt(k, "llm_burst", 4),

		JWTSecret: getString(k, "jwt_secret", ""),
		JWTTTL:    time.Duration(getInt(k, "jwt_ttl_hours", 24)) * time.Hour,

		UploadMaxBytes:      int64(getInt(k, "upload_max_bytes", 10<<20)),
		RetentionDays:       getInt(k, "retention_days", 30),
		CleanupCron:         getString(k, "cleanup_cron", "0 2 * * *"),
		WorkerConcurrency:   getInt(k, "worker_concurrency", 4),
		ScanTranscriptDates: getBool(k, "scan_transcript_dates", true),
	}

	if cfg.IsProduction() {
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == "" {
			return Config{}, errors.New("JWT_SECRET is required in production")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func getString(k *koanf.Koanf, key, def string) string {
	if !k.Exists(key) {
		return def
	}
	if val := strings.TrimSpace(k.String(key)); val != "" {
		return val
	}
	return def
}

func getInt(k *koanf.Koanf, key string, def int) int {
	raw := getString(k, key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return def
	}
	return val
}

func getFloat(k *koanf.Koanf, key string, def float64) float64 {
	raw := getString(k, key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		return def
	}
	return val
}

func getBool(k *koanf.Koanf, key string, def bool) bool {
	raw := getString(k, key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return EnvProduction
	default:
		return EnvDev
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names accepted by AUDIT_ENGINE.
const (
	EngineLighthouse = "lighthouse"
	EnginePageSpeed  = "pagespeed"
)

var (
	errInvalidPort      = errors.New("config: invalid PORT number")
	errInvalidEngine    = errors.New("config: AUDIT_ENGINE must be \"lighthouse\" or \"pagespeed\"")
	errMissingOpenAIKey = errors.New("config: OPENAI_API_KEY is required")
	errInvalidTimeout   = errors.New("config: AUDIT_TIMEOUT_SECONDS must be 10-600")
)

// Config holds all application configuration. Values come from an
// optional YAML file (CONFIG_FILE) overridden by environment variables.
type Config struct {
	Port              string `yaml:"port"`
	LogLevel          string `yaml:"log_level"`
	AllowedOrigins    string `yaml:"allowed_origins"`
	Engine            string `yaml:"engine"`
	LighthousePath    string `yaml:"lighthouse_path"`
	PageSpeedEndpoint string `yaml:"pagespeed_endpoint"`
	PageSpeedAPIKey   string `yaml:"pagespeed_api_key"`
	OpenAIEndpoint    string `yaml:"openai_endpoint"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenAIModel       string `yaml:"openai_model"`
	DBPath            string `yaml:"db_path"`
	AuditTimeoutSecs  int    `yaml:"audit_timeout_seconds"`
	PreflightEnabled  bool   `yaml:"preflight_enabled"`
}

// Load reads configuration with sensible defaults, then applies the YAML
// file named by CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Config{
		Port:              "8080",
		LogLevel:          "INFO",
		Engine:            EngineLighthouse,
		LighthousePath:    "lighthouse",
		PageSpeedEndpoint: "https://www.googleapis.com/pagespeedonline/v5/runPagespeed",
		OpenAIEndpoint:    "https://api.openai.com/v1/chat/completions",
		OpenAIModel:       "gpt-3.5-turbo",
		DBPath:            "reports.db",
		AuditTimeoutSecs:  120,
		PreflightEnabled:  true,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	return cfg, cfg.validate()
}

// AuditTimeout returns the per-request pipeline deadline.
func (c Config) AuditTimeout() time.Duration {
	return time.Duration(c.AuditTimeoutSecs) * time.Second
}

// Origins returns the CORS allow-list as a slice.
func (c Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.AllowedOrigins = getEnv("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.Engine = getEnv("AUDIT_ENGINE", cfg.Engine)
	cfg.LighthousePath = getEnv("LIGHTHOUSE_PATH", cfg.LighthousePath)
	cfg.PageSpeedEndpoint = getEnv("PAGESPEED_ENDPOINT", cfg.PageSpeedEndpoint)
	cfg.PageSpeedAPIKey = getEnv("PAGESPEED_API_KEY", cfg.PageSpeedAPIKey)
	cfg.OpenAIEndpoint = getEnv("OPENAI_ENDPOINT", cfg.OpenAIEndpoint)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.AuditTimeoutSecs = getEnvAsInt("AUDIT_TIMEOUT_SECONDS", cfg.AuditTimeoutSecs)
	cfg.PreflightEnabled = getEnvAsBool("PREFLIGHT_ENABLED", cfg.PreflightEnabled)
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.Engine != EngineLighthouse && c.Engine != EnginePageSpeed {
		return fmt.Errorf("%w: got %q", errInvalidEngine, c.Engine)
	}

	if c.OpenAIAPIKey == "" {
		return errMissingOpenAIKey
	}

	if c.AuditTimeoutSecs < 10 || c.AuditTimeoutSecs > 600 {
		return fmt.Errorf("%w: got %d", errInvalidTimeout, c.AuditTimeoutSecs)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}

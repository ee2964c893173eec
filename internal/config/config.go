package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DefaultUser string `yaml:"default_user"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// LLMConfig points at an OpenAI-compatible API.
type LLMConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	Model              string `yaml:"model"`
	TranscriptionModel string `yaml:"transcription_model"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MaxUploadMB: 25,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:     true,
			DefaultUser: "default",
		},
		DB: DBConfig{
			Path: "scopeguard.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			BaseURL:            "https://api.openai.com/v1",
			Model:              "gpt-4o",
			TranscriptionModel: "whisper-1",
			TimeoutSeconds:     120,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("SCOPEGUARD_CONFIG_PATH"))
}

// LoadFrom reads configuration from path (when non-empty) and applies environment overrides.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q: must be http or stdio", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size %d", c.Server.MaxUploadMB)
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		return fmt.Errorf("db path is required")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("SCOPEGUARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("SCOPEGUARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid SCOPEGUARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if sizeStr := os.Getenv("SCOPEGUARD_MAX_UPLOAD_MB"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return fmt.Errorf("invalid SCOPEGUARD_MAX_UPLOAD_MB: %w", err)
		}
		cfg.Server.MaxUploadMB = size
	}
	if mode := os.Getenv("SCOPEGUARD_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("SCOPEGUARD_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid SCOPEGUARD_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if user := os.Getenv("SCOPEGUARD_DEFAULT_USER"); user != "" {
		cfg.Auth.DefaultUser = user
	}
	if dbPath := os.Getenv("SCOPEGUARD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("SCOPEGUARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("SCOPEGUARD_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}

	if key := os.Getenv("SCOPEGUARD_LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}
	if baseURL := os.Getenv("SCOPEGUARD_LLM_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("SCOPEGUARD_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if model := os.Getenv("SCOPEGUARD_LLM_TRANSCRIPTION_MODEL"); model != "" {
		cfg.LLM.TranscriptionModel = model
	}
	if timeoutStr := os.Getenv("SCOPEGUARD_LLM_TIMEOUT_SECONDS"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid SCOPEGUARD_LLM_TIMEOUT_SECONDS: %w", err)
		}
		cfg.LLM.TimeoutSeconds = timeout
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

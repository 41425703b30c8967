package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI   = "openai"
	ProviderVertexAI = "vertexai"

	defaultMaxUploadBytes = 10 << 20
)

// Config holds application configuration
type Config struct {
	Port                  int      `yaml:"port"`
	Provider              string   `yaml:"provider"`
	Model                 string   `yaml:"model"`
	OpenAIAPIKey          string   `yaml:"openai_api_key"`
	OpenAIBaseURL         string   `yaml:"openai_base_url"`
	GoogleCloudProject    string   `yaml:"google_cloud_project"`
	GoogleCloudLocation   string   `yaml:"google_cloud_location"`
	GoogleCredentialsPath string   `yaml:"google_credentials_path"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
	MaxUploadBytes        int64    `yaml:"max_upload_bytes"`
	ServerURL             string   `yaml:"server_url"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Port:                8080,
		Provider:            ProviderOpenAI,
		GoogleCloudLocation: "us-central1",
		MaxUploadBytes:      defaultMaxUploadBytes,
		ServerURL:           "http://localhost:8080",
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/Judica/config.yaml
// On Unix: ~/.config/Judica/config.yaml
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "Judica")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "Judica")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.yaml"), nil
}

// Load loads configuration from the default config path
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path. A missing file yields
// the defaults. A .env file in the working directory is loaded first and
// environment variables override values read from the file.
func LoadFrom(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overrides file values with any environment variables that are set
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid PORT %q", v)
		}
		c.Port = port
	}
	if v := os.Getenv("JUDICA_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid JUDICA_MAX_UPLOAD_BYTES %q", v)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("JUDICA_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}

	overrides := []struct {
		env    string
		target *string
	}{
		{"JUDICA_PROVIDER", &c.Provider},
		{"JUDICA_MODEL", &c.Model},
		{"OPENAI_API_KEY", &c.OpenAIAPIKey},
		{"OPENAI_BASE_URL", &c.OpenAIBaseURL},
		{"GOOGLE_CLOUD_PROJECT", &c.GoogleCloudProject},
		{"GOOGLE_CLOUD_LOCATION", &c.GoogleCloudLocation},
		{"GOOGLE_APPLICATION_CREDENTIALS", &c.GoogleCredentialsPath},
		{"JUDICA_SERVER_URL", &c.ServerURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}

	return nil
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Update applies update to the config file at the default path. See UpdateFile.
func Update(update func(*Config)) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return UpdateFile(configPath, update)
}

// UpdateFile rewrites the config file at path with update applied. Only
// values stored in the file are read back; .env and environment overrides
// are never persisted.
func UpdateFile(path string, update func(*Config)) error {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	update(config)
	return config.SaveTo(path)
}

// Validate checks if the configuration is valid for running the server
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	switch NormalizeProvider(c.Provider) {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("openai_api_key is required for provider %q", c.Provider)
		}
	case ProviderVertexAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required for provider %q", c.Provider)
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required")
		}
		if c.GoogleCredentialsPath != "" {
			if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
				return fmt.Errorf("google credentials file not found: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	return nil
}

// NormalizeProvider maps provider aliases onto their canonical name.
// An empty provider selects OpenAI.
func NormalizeProvider(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	switch p {
	case "", ProviderOpenAI, "gpt":
		return ProviderOpenAI
	case ProviderVertexAI, "vertex", "gemini":
		return ProviderVertexAI
	default:
		return p
	}
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

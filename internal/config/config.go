// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mailer server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultGeminiModel is the text-generation model used when none is configured.
const defaultGeminiModel = "gemini-2.5-flash"

// defaultStagingDir is where uploaded attachment files are kept.
const defaultStagingDir = "temp_attachments"

// Config holds the complete application configuration.
type Config struct {
	Provider string        `yaml:"provider"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	SES      SESConfig     `yaml:"ses"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	Staging  StagingConfig `yaml:"staging"`
	Logging  LoggingConfig `yaml:"logging"`
}

// SMTPConfig holds the outbound SMTP relay configuration.
type SMTPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
}

// SESConfig holds AWS SES v2 configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// GeminiConfig holds the text-generation endpoint configuration.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// StagingConfig holds the attachment staging directory configuration.
type StagingConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// SMTPConfigured returns true if the SMTP sender credentials are set.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.Email != "" && c.SMTP.Password != ""
}

// SESConfigured returns true if the required SES settings are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// GeminiConfigured returns true if a Gemini API key is set.
func (c *Config) GeminiConfigured() bool {
	return c.Gemini.APIKey != ""
}

// SenderAddress returns the sender address for the active provider.
func (c *Config) SenderAddress() string {
	if c.Provider == "ses" || (c.Provider == "" && !c.SMTPConfigured() && c.SESConfigured()) {
		return c.SES.Sender
	}
	return c.SMTP.Email
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SMTP.Host = "smtp.gmail.com"
	c.SMTP.Port = 587
	c.SMTP.SenderName = "Professional Sender"
	c.Gemini.Model = defaultGeminiModel
	c.Staging.Dir = defaultStagingDir
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_EMAIL"); v != "" {
		c.SMTP.Email = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SENDER_NAME"); v != "" {
		c.SMTP.SenderName = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		c.Gemini.BaseURL = v
	}

	if v := os.Getenv("STAGING_DIR"); v != "" {
		c.Staging.Dir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

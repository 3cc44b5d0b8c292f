// Package main provides the AlertBridge server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Zabbix     ZabbixConfig     `yaml:"zabbix"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	WhatsApp   WhatsAppConfig   `yaml:"whatsapp"`
	Recipients RecipientsConfig `yaml:"recipients"`
	AlertLog   AlertLogConfig   `yaml:"alert_log"`
	Verbose    bool             `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address        string `yaml:"address"`         // HTTP listen address (default: :8080)
	MetricsAddress string `yaml:"metrics_address"` // metrics listen address (default: :9091)
	Development    bool   `yaml:"development"`     // include error details in responses
}

// DashboardConfig contains dashboard authentication settings.
type DashboardConfig struct {
	Username       string        `yaml:"username"`  // login username (default: admin)
	Password       string        `yaml:"password"`  // plaintext or bcrypt hash
	JWTSecret      string        `yaml:"-"`         // from BRIDGE_JWT_SECRET
	AccessTokenTTL time.Duration `yaml:"token_ttl"` // default 15m
}

// ZabbixConfig contains monitoring-system settings. Optional: with no URL
// the pipeline skips diagnostic enrichment.
type ZabbixConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"-"` // from ZABBIX_PASSWORD
	Timeout  time.Duration `yaml:"timeout"`
}

// OpenAIConfig contains AI summarizer settings. Optional: with no API key
// alerts go out without analysis.
type OpenAIConfig struct {
	APIKey  string        `yaml:"-"` // from OPENAI_API_KEY
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// WhatsAppConfig contains messaging-gateway settings.
type WhatsAppConfig struct {
	BaseURL   string        `yaml:"base_url"`
	SecretKey string        `yaml:"-"` // from WPP_SECRET_KEY
	Session   string        `yaml:"session"`
	Timeout   time.Duration `yaml:"timeout"`
	SendRate  float64       `yaml:"send_rate"`
	SendBurst int           `yaml:"send_burst"`
}

// RecipientsConfig contains recipient-directory settings.
type RecipientsConfig struct {
	Path  string `yaml:"path"`  // JSON document path (default: data/phones.json)
	Watch bool   `yaml:"watch"` // reload on external file changes
}

// AlertLogConfig contains alert-log settings.
type AlertLogConfig struct {
	Capacity int `yaml:"capacity"` // retained alerts (default: 100)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

// applyEnv pulls secrets from the environment. Secrets never live in the
// YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("BRIDGE_JWT_SECRET"); v != "" {
		c.Dashboard.JWTSecret = v
	}
	if v := os.Getenv("BRIDGE_DASHBOARD_PASSWORD"); v != "" {
		c.Dashboard.Password = v
	}
	if v := os.Getenv("ZABBIX_URL"); v != "" {
		c.Zabbix.URL = v
	}
	if v := os.Getenv("ZABBIX_USER"); v != "" {
		c.Zabbix.Username = v
	}
	if v := os.Getenv("ZABBIX_PASSWORD"); v != "" {
		c.Zabbix.Password = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("WPP_URL"); v != "" {
		c.WhatsApp.BaseURL = v
	}
	if v := os.Getenv("WPP_SECRET_KEY"); v != "" {
		c.WhatsApp.SecretKey = v
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9091"
	}
	if c.Dashboard.Username == "" {
		c.Dashboard.Username = "admin"
	}
	if c.Dashboard.AccessTokenTTL == 0 {
		c.Dashboard.AccessTokenTTL = 15 * time.Minute
	}
	if c.WhatsApp.Session == "" {
		c.WhatsApp.Session = "default"
	}
	if c.Recipients.Path == "" {
		c.Recipients.Path = "data/phones.json"
	}
	if c.AlertLog.Capacity == 0 {
		c.AlertLog.Capacity = 100
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.WhatsApp.BaseURL == "" {
		return fmt.Errorf("whatsapp.base_url is required")
	}
	if c.WhatsApp.SecretKey == "" {
		return fmt.Errorf("WPP_SECRET_KEY environment variable is required")
	}
	if c.Dashboard.JWTSecret == "" {
		return fmt.Errorf("BRIDGE_JWT_SECRET environment variable is required")
	}
	if c.Dashboard.Password == "" {
		return fmt.Errorf("dashboard.password (or BRIDGE_DASHBOARD_PASSWORD) is required")
	}
	if c.Zabbix.URL != "" {
		if c.Zabbix.Username == "" {
			return fmt.Errorf("zabbix.username is required when zabbix.url is set")
		}
		if c.Zabbix.Password == "" {
			return fmt.Errorf("ZABBIX_PASSWORD environment variable is required when zabbix.url is set")
		}
	}
	if c.AlertLog.Capacity < 0 {
		return fmt.Errorf("alert_log.capacity must not be negative")
	}
	return nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/phishscan/")
	v.AddConfigPath("$HOME/.phishscan")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewFromFile creates a configuration instance from an explicit file path
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")

	// Report defaults
	v.SetDefault("reports.output_dir", "outputs/reports")

	// Analysis defaults
	v.SetDefault("analysis.allow_subdomain_match", false)
	v.SetDefault("analysis.archive.max_entries", 256)
	v.SetDefault("analysis.archive.max_total_bytes", 64<<20)
	v.SetDefault("analysis.archive.max_depth", 3)
	v.SetDefault("analysis.thresholds.medium", 20)
	v.SetDefault("analysis.thresholds.high", 50)
	v.SetDefault("analysis.thresholds.critical", 80)

	// map[string]any, not map[string]int: GetStringMap cannot coerce a
	// typed map, which would make the default weight table unreadable.
	v.SetDefault("analysis.weights", map[string]any{
		"spf_fail":                 20,
		"dkim_fail":                15,
		"dmarc_fail":               25,
		"auth_missing":             10,
		"auth_unparseable":         5,
		"from_returnpath_mismatch": 15,
		"display_name_spoof":       20,
		"suspicious_tld":           15,
		"url_shortener":            25,
		"deceptive_keyword":        20,
		"ip_literal_url":           25,
		"nonstandard_port":         10,
		"url_text_mismatch":        20,
		"dangerous_extension":      40,
		"type_extension_mismatch":  15,
		"executable_in_zip":        50,
		"archive_too_large":        30,
		"archive_unreadable":       20,
	})
	v.SetDefault("analysis.suspicious_tlds", []string{
		"tk", "ml", "ga", "cf", "gq", "top", "xyz", "zip",
	})
	v.SetDefault("analysis.url_shorteners", []string{
		"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd", "buff.ly", "rb.gy",
	})
	v.SetDefault("analysis.deceptive_keywords", []string{
		"paypal", "apple", "microsoft", "amazon", "netflix", "docusign", "verify", "secure-login",
	})
	v.SetDefault("analysis.dangerous_extensions", []string{
		".exe", ".bat", ".cmd", ".scr", ".pif", ".js", ".jse", ".vbs", ".wsf", ".jar", ".ps1", ".msi", ".hta", ".lnk",
	})
	v.SetDefault("analysis.known_safe_senders", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets a 64-bit integer value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig holds the logging-related configuration.
type LoggingConfig struct {
	Level string `mapstructure:"log_level"`
}

// UnifiConfig holds everything needed to reach and authenticate with the
// UniFi controller.
type UnifiConfig struct {
	Host      string `mapstructure:"host"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	APIKey    string `mapstructure:"api_key"`
	Site      string `mapstructure:"site"`
	NetworkID string `mapstructure:"network_id"`
	VerifySSL bool   `mapstructure:"verify_ssl"`
}

// Configured reports whether enough settings are present to talk to the
// controller: a host plus either an API key or a username/password pair.
func (c *UnifiConfig) Configured() bool {
	if c.Host == "" {
		return false
	}
	if c.APIKey != "" {
		return true
	}
	return c.Username != "" && c.Password != ""
}

// Config is the top-level configuration struct.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"log"`
	Unifi   UnifiConfig   `mapstructure:"unifi"`
}

// InitConfig performs the initial configuration: setting defaults, specifying the config file, and reading it.
func InitConfig() error {
	// Set defaults for each sub-configuration. Every key needs a default so
	// AutomaticEnv can see it during Unmarshal.
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("log.log_level", "INFO")
	viper.SetDefault("unifi.host", "")
	viper.SetDefault("unifi.username", "")
	viper.SetDefault("unifi.password", "")
	viper.SetDefault("unifi.api_key", "")
	viper.SetDefault("unifi.site", "default")
	viper.SetDefault("unifi.network_id", "")
	viper.SetDefault("unifi.verify_ssl", false)

	// Specify the config file details.
	viper.SetConfigName("config") // Looks for config.yaml
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".") // current directory

	// Read the config file if available.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// If the file is not found, just continue with defaults and env vars.
	}

	// Enable automatic environment variable binding.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The original deployment exposed the SSL toggle without the UNIFI_
	// prefix; keep honoring that name.
	if err := viper.BindEnv("unifi.verify_ssl", "UNIFI_VERIFY_SSL", "VERIFY_SSL"); err != nil {
		return fmt.Errorf("binding verify_ssl env: %w", err)
	}

	return nil
}

// Load unmarshals the configuration into the Config struct.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	config.Unifi.Host = strings.TrimRight(config.Unifi.Host, "/")
	return &config, nil
}

// Package config loads runtime configuration from the environment, with a
// .env file honored for local development. Each entry point validates only
// the keys it actually needs, so the CLI can scrape without a database and
// the server can run without Twitter credentials.
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the binaries read.
type Config struct {
	DatabaseURL    string
	SendGridAPIKey string
	EmailFrom      string
	AppBaseURL     string
	SecretKey      string
	Port           int
	GinMode        string
	LogLevel       string
	LogFormat      string
	ScraperProfile string

	Twitter TwitterConfig
}

// TwitterConfig holds the announcement bot credentials.
type TwitterConfig struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Complete reports whether all four credentials are present.
func (t TwitterConfig) Complete() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessSecret != ""
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	cfg := &Config{
		DatabaseURL:    v.GetString("DATABASE_URL"),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		EmailFrom:      v.GetString("EMAIL_FROM"),
		AppBaseURL:     v.GetString("APP_BASE_URL"),
		SecretKey:      v.GetString("SECRET_KEY"),
		Port:           v.GetInt("PORT"),
		GinMode:        v.GetString("GIN_MODE"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		ScraperProfile: v.GetString("SCRAPER_PROFILE"),
		Twitter: TwitterConfig{
			APIKey:       v.GetString("TWITTER_API_KEY"),
			APISecret:    v.GetString("TWITTER_API_SECRET"),
			AccessToken:  v.GetString("TWITTER_ACCESS_TOKEN"),
			AccessSecret: v.GetString("TWITTER_ACCESS_SECRET"),
		},
	}
	return cfg, nil
}

// RequireDatabase validates the keys needed to reach Postgres.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// RequireMailer validates the keys needed to send email.
func (c *Config) RequireMailer() error {
	var missing []string
	if c.SendGridAPIKey == "" {
		missing = append(missing, "SENDGRID_API_KEY")
	}
	if c.EmailFrom == "" {
		missing = append(missing, "EMAIL_FROM")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

// RequireServer validates everything the subscription service needs.
func (c *Config) RequireServer() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if err := c.RequireMailer(); err != nil {
		return err
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.AppBaseURL == "" {
		return errors.New("APP_BASE_URL is required")
	}
	return nil
}

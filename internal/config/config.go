package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL     string
	Env            string
	RequestTimeout time.Duration
	SessionFile    string

	Weather WeatherConfig
	Google  OAuthConfig
}

type WeatherConfig struct {
	APIKey  string
	BaseURL string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("FISHLOG_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		timeout = 30 * time.Second
	}

	return &Config{
		BackendURL:     getEnv("FISHLOG_BACKEND_URL", "http://127.0.0.1:8090"),
		Env:            getEnv("ENV", "development"),
		RequestTimeout: timeout,
		SessionFile:    getEnv("FISHLOG_SESSION_FILE", defaultSessionFile()),

		Weather: WeatherConfig{
			APIKey:  getEnv("OPENWEATHER_API_KEY", ""),
			BaseURL: getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		},

		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fishlog", "session.json")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

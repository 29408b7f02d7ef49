package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Identity IdentityConfig
	Weather  WeatherConfig
	AI       AIConfig
	Calendar CalendarConfig
	Sync     SyncConfig
	Store    StoreConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for the remote snapshot store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// IdentityConfig contains credentials for the hosted identity provider.
type IdentityConfig struct {
	BaseURL     string
	APIKey      string
	RedirectURL string
}

// WeatherConfig holds the Open-Meteo endpoints. Overridable for tests.
type WeatherConfig struct {
	ForecastBaseURL  string
	GeocodingBaseURL string
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
}

// CalendarConfig configures the native Google Calendar export. When the
// credentials path is empty the exporter only produces fallback URLs.
type CalendarConfig struct {
	CredentialsPath string
	CalendarID      string
}

// SyncConfig holds cloud-sync scheduling settings.
type SyncConfig struct {
	DebounceMillis int
	NightlyCron    string
}

// StoreConfig locates the persisted local key-value store.
type StoreConfig struct {
	DataDir string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	debounce, err := getenvInt("SYNC_DEBOUNCE_MS", 3000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "hivelog"),
		},
		Identity: IdentityConfig{
			BaseURL:     os.Getenv("IDENTITY_BASE_URL"),
			APIKey:      os.Getenv("IDENTITY_API_KEY"),
			RedirectURL: getenvWithDefault("IDENTITY_REDIRECT_URL", "hivelog://auth-callback"),
		},
		Weather: WeatherConfig{
			ForecastBaseURL:  getenvWithDefault("WEATHER_FORECAST_URL", "https://api.open-meteo.com"),
			GeocodingBaseURL: getenvWithDefault("WEATHER_GEOCODING_URL", "https://geocoding-api.open-meteo.com"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Calendar: CalendarConfig{
			CredentialsPath: os.Getenv("GOOGLE_CALENDAR_CREDENTIALS_PATH"),
			CalendarID:      getenvWithDefault("GOOGLE_CALENDAR_ID", "primary"),
		},
		Sync: SyncConfig{
			DebounceMillis: debounce,
			NightlyCron:    getenvWithDefault("SYNC_NIGHTLY_CRON", "0 3 * * *"),
		},
		Store: StoreConfig{
			DataDir: getenvWithDefault("DATA_DIR", "./data"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Identity.BaseURL == "" {
		return errors.New("IDENTITY_BASE_URL must be provided")
	}

	if c.Weather.ForecastBaseURL == "" || c.Weather.GeocodingBaseURL == "" {
		return errors.New("weather endpoints must not be empty")
	}

	if c.Sync.DebounceMillis <= 0 {
		return errors.New("SYNC_DEBOUNCE_MS must be positive")
	}

	if c.Sync.NightlyCron == "" {
		return errors.New("SYNC_NIGHTLY_CRON must be provided")
	}

	if c.Store.DataDir == "" {
		return errors.New("DATA_DIR must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

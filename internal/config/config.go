// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Redis       RedisConfig
	Search      SearchConfig
	Maps        MapsConfig
	Catalog     CatalogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
	AccessLog       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis configuration for the places cache
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns the host:port address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SearchConfig holds search and session configuration
type SearchConfig struct {
	DefaultRadius   float64
	MinRadius       float64
	MaxRadius       float64
	PageSize        int
	SuggestionLimit int
	ShowcaseLimit   int
	EventsTopic     string
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	MaxSessions     int
}

// MapsConfig holds maps provider configuration
type MapsConfig struct {
	APIKey             string
	RegionLatitude     float64
	RegionLongitude    float64
	AutocompleteRadius int
	Country            string
	Language           string
	MinInputLength     int
	AutocompleteTTL    time.Duration
	PlaceTTL           time.Duration
	TravelTTL          time.Duration
}

// CatalogConfig holds the facility catalog location
type CatalogConfig struct {
	FacilitiesFile string
}

// Load loads configuration from an optional .env file and environment variables
func Load() (Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
			AccessLog:       getEnvAsBool("SERVER_ACCESS_LOG", true),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "kosbaliku"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnvAsInt("REDIS_PORT", 6379),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "kosbaliku:"),
		},
		Search: SearchConfig{
			DefaultRadius:   getEnvAsFloat("SEARCH_DEFAULT_RADIUS", 5.0),
			MinRadius:       getEnvAsFloat("SEARCH_MIN_RADIUS", 1.0),
			MaxRadius:       getEnvAsFloat("SEARCH_MAX_RADIUS", 50.0),
			PageSize:        getEnvAsInt("SEARCH_PAGE_SIZE", 10),
			SuggestionLimit: getEnvAsInt("SEARCH_SUGGESTION_LIMIT", 5),
			ShowcaseLimit:   getEnvAsInt("SEARCH_SHOWCASE_LIMIT", 8),
			EventsTopic:     getEnv("SEARCH_EVENTS_TOPIC", "search"),
			SessionTTL:      getEnvAsDuration("SEARCH_SESSION_TTL", 30*time.Minute),
			JanitorInterval: getEnvAsDuration("SEARCH_JANITOR_INTERVAL", 1*time.Minute),
			MaxSessions:     getEnvAsInt("SEARCH_MAX_SESSIONS", 10000),
		},
		Maps: MapsConfig{
			APIKey:             getEnv("MAPS_API_KEY", ""),
			RegionLatitude:     getEnvAsFloat("MAPS_REGION_LAT", -8.4095),
			RegionLongitude:    getEnvAsFloat("MAPS_REGION_LNG", 115.1889),
			AutocompleteRadius: getEnvAsInt("MAPS_AUTOCOMPLETE_RADIUS", 75000),
			Country:            getEnv("MAPS_COUNTRY", "id"),
			Language:           getEnv("MAPS_LANGUAGE", "id"),
			MinInputLength:     getEnvAsInt("MAPS_MIN_INPUT_LENGTH", 2),
			AutocompleteTTL:    getEnvAsDuration("MAPS_AUTOCOMPLETE_TTL", 1*time.Hour),
			PlaceTTL:           getEnvAsDuration("MAPS_PLACE_TTL", 24*time.Hour),
			TravelTTL:          getEnvAsDuration("MAPS_TRAVEL_TTL", 6*time.Hour),
		},
		Catalog: CatalogConfig{
			FacilitiesFile: getEnv("CATALOG_FACILITIES_FILE", ""),
		},
	}

	return config, validate(config)
}

// IsDevelopment reports whether the service runs in development mode
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// validate checks if config is valid
func validate(config Config) error {
	s := config.Search
	if s.MinRadius <= 0 || s.MinRadius > s.MaxRadius {
		return fmt.Errorf("search radius limits are inconsistent: min %.1f, max %.1f", s.MinRadius, s.MaxRadius)
	}
	if s.DefaultRadius < s.MinRadius || s.DefaultRadius > s.MaxRadius {
		return fmt.Errorf("default search radius %.1f outside [%.1f, %.1f]", s.DefaultRadius, s.MinRadius, s.MaxRadius)
	}
	if s.PageSize <= 0 {
		return errors.New("search page size must be positive")
	}

	if config.Maps.APIKey == "" && !config.IsDevelopment() {
		return errors.New("maps API key must be set in non-development environments")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

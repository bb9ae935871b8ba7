package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Geocoder providers.
const (
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Geocoder GeocoderConfig
	Search   SearchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
	RoleClaim string
}

// StorageConfig holds S3-compatible object storage settings.
type StorageConfig struct {
	Region          string
	Bucket          string
	Endpoint        string // optional, for MinIO, R2, DO Spaces
	PublicBaseURL   string // optional, overrides the derived object URL
	AccessKeyID     string
	SecretAccessKey string
}

// GeocoderConfig selects and configures the address geocoding provider.
type GeocoderConfig struct {
	Provider           string
	NominatimURL       string
	NominatimUserAgent string
	MapboxURL          string
	MapboxAccessToken  string
	Timeout            time.Duration
}

// SearchConfig holds the optional Meilisearch mirror settings.
// An empty Host disables indexing.
type SearchConfig struct {
	Host   string
	APIKey string
	Index  string
}

// Enabled reports whether a search index host is configured.
func (s SearchConfig) Enabled() bool {
	return s.Host != ""
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("PORT", "3002")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "rentals")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_ROLE_CLAIM", "custom:role")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("GEOCODER_PROVIDER", GeocoderNominatim)
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("NOMINATIM_USER_AGENT", "RentalsAPI (ops@rentals.local)")
	v.SetDefault("MAPBOX_URL", "https://api.mapbox.com")
	v.SetDefault("GEOCODER_TIMEOUT", "10s")
	v.SetDefault("MEILI_INDEX", "properties")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
			RoleClaim: v.GetString("AUTH_ROLE_CLAIM"),
		},
		Storage: StorageConfig{
			Region:          v.GetString("AWS_REGION"),
			Bucket:          v.GetString("S3_BUCKET_NAME"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			PublicBaseURL:   strings.TrimSuffix(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		Geocoder: GeocoderConfig{
			Provider:           strings.ToLower(v.GetString("GEOCODER_PROVIDER")),
			NominatimURL:       strings.TrimSuffix(v.GetString("NOMINATIM_URL"), "/"),
			NominatimUserAgent: v.GetString("NOMINATIM_USER_AGENT"),
			MapboxURL:          strings.TrimSuffix(v.GetString("MAPBOX_URL"), "/"),
			MapboxAccessToken:  v.GetString("MAPBOX_ACCESS_TOKEN"),
			Timeout:            v.GetDuration("GEOCODER_TIMEOUT"),
		},
		Search: SearchConfig{
			Host:   v.GetString("MEILI_HOST"),
			APIKey: v.GetString("MEILI_API_KEY"),
			Index:  v.GetString("MEILI_INDEX"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.Auth.RoleClaim == "" {
		return fmt.Errorf("AUTH_ROLE_CLAIM must not be empty")
	}

	if c.Storage.Region == "" {
		return fmt.Errorf("AWS_REGION is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("S3_BUCKET_NAME is required")
	}

	switch c.Geocoder.Provider {
	case GeocoderNominatim:
		if c.Geocoder.NominatimUserAgent == "" {
			return fmt.Errorf("NOMINATIM_USER_AGENT is required for the nominatim geocoder")
		}
	case GeocoderMapbox:
		if c.Geocoder.MapboxAccessToken == "" {
			return fmt.Errorf("MAPBOX_ACCESS_TOKEN is required for the mapbox geocoder")
		}
	default:
		return fmt.Errorf("GEOCODER_PROVIDER must be one of %q, %q; got %q",
			GeocoderNominatim, GeocoderMapbox, c.Geocoder.Provider)
	}
	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("GEOCODER_TIMEOUT must be positive")
	}

	if c.Search.Enabled() && c.Search.Index == "" {
		return fmt.Errorf("MEILI_INDEX must not be empty when MEILI_HOST is set")
	}

	return nil
}

// splitList splits a comma-separated string into trimmed, non-empty parts.
func splitList(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

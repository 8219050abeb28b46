package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the crash map service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the HTTP server (markers, map image, monitoring).
// - Source: Path or URL of the crash records CSV.
// - LatColumn, LngColumn: Zero-based columns of latitude and longitude.
// - RefreshInterval: Duration between reloads of the source; zero loads once.
// - FetchTimeout: Timeout of a single HTTP fetch of the source.
// - ReloadPerMinute: How many manual reloads the server accepts per minute.
// - Map: Static map rendering settings.
// - Database: Configuration settings for the optional PostgreSQL database.
type Config struct {
	Env             string         `yaml:"env"`              // Env is the current environment: local, development, production.
	Port            int            `yaml:"port"`             // Port is the HTTP server port.
	Source          string         `yaml:"source"`           // Source is the crash records path or URL.
	LatColumn       int            `yaml:"lat_column"`       // LatColumn is the column index of the latitude.
	LngColumn       int            `yaml:"lng_column"`       // LngColumn is the column index of the longitude.
	RefreshInterval time.Duration  `yaml:"refresh_interval"` // The duration between reloads of the source.
	FetchTimeout    time.Duration  `yaml:"fetch_timeout"`    // Timeout of HTTP fetches.
	ReloadPerMinute int            `yaml:"reload_per_minute"`
	Map             MapConfig      `yaml:"map"`      // Map holds the static map settings.
	Database        PostgresConfig `yaml:"postgres"` // Database holds the postgres database configuration
}

// MapConfig holds the Google Static Maps settings.
type MapConfig struct {
	APIKey     string  `yaml:"api_key"` // The API key for the Maps Static API. Empty disables rendering.
	CenterLat  float64 `yaml:"center_lat"`
	CenterLng  float64 `yaml:"center_lng"`
	Zoom       int     `yaml:"zoom"`
	Size       string  `yaml:"size"`
	MaxMarkers int     `yaml:"max_markers"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address. Empty disables persistence.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// Enabled reports whether a database host is configured.
func (pc PostgresConfig) Enabled() bool {
	return pc.Host != ""
}

// MustLoad loads the configuration from the environment (and an optional .env file)
// and returns a Config struct. It panics on values that cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CRASHMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("source", "../data/cleaned_crash_data.csv")
	v.SetDefault("lat_column", 4)
	v.SetDefault("lng_column", 5)
	v.SetDefault("health_port", 8080)
	v.SetDefault("refresh_interval", "0s")
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("reload_per_minute", 6)
	v.SetDefault("maps_api_key", "")
	v.SetDefault("map_center_lat", 40.7128)
	v.SetDefault("map_center_lng", -74.0060)
	v.SetDefault("map_zoom", 12)
	v.SetDefault("map_size", "640x640")
	v.SetDefault("map_max_markers", 150)

	dbv := viper.New()
	dbv.SetEnvPrefix("DB")
	dbv.AutomaticEnv()
	dbv.SetDefault("port", "5432")

	return &Config{
		Env:             v.GetString("env"),
		Source:          v.GetString("source"),
		LatColumn:       mustInt(v, "lat_column", "failed to parse latitude column from configuration"),
		LngColumn:       mustInt(v, "lng_column", "failed to parse longitude column from configuration"),
		Port:            mustInt(v, "health_port", "failed to parse port for server from configuration"),
		RefreshInterval: mustDuration(v, "refresh_interval", "failed to parse refresh interval from configuration"),
		FetchTimeout:    mustDuration(v, "fetch_timeout", "failed to parse fetch timeout from configuration"),
		ReloadPerMinute: mustInt(v, "reload_per_minute", "failed to parse reload rate from configuration"),
		Map: MapConfig{
			APIKey:     v.GetString("maps_api_key"),
			CenterLat:  mustFloat(v, "map_center_lat", "failed to parse map center from configuration"),
			CenterLng:  mustFloat(v, "map_center_lng", "failed to parse map center from configuration"),
			Zoom:       mustInt(v, "map_zoom", "failed to parse map zoom from configuration"),
			Size:       v.GetString("map_size"),
			MaxMarkers: mustInt(v, "map_max_markers", "failed to parse map marker limit from configuration"),
		},
		Database: PostgresConfig{
			Host:     dbv.GetString("host"),
			Port:     dbv.GetString("port"),
			User:     dbv.GetString("username"),
			Password: dbv.GetString("password"),
			Name:     dbv.GetString("name"),
		},
	}
}

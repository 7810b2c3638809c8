package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath is where Load looks for the optional YAML config
const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Port                  int      `mapstructure:"port"`
		CorsAllowedOrigins    []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods    []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders    []string `mapstructure:"cors_allowed_headers"`
		UploadMaxMB           int      `mapstructure:"upload_max_mb"`
		RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"`
		Timezone              string   `mapstructure:"timezone"`
	} `mapstructure:"server"`

	Session struct {
		Secret       string `mapstructure:"secret"`
		TTLHours     int    `mapstructure:"ttl_hours"`
		CookieName   string `mapstructure:"cookie_name"`
		Issuer       string `mapstructure:"issuer"`
		SweepMinutes int    `mapstructure:"sweep_minutes"`
		SecureCookie bool   `mapstructure:"secure_cookie"`
	} `mapstructure:"session"`

	Redis struct {
		Enabled          bool   `mapstructure:"enabled"`
		Host             string `mapstructure:"host"`
		Port             int    `mapstructure:"port"`
		Password         string `mapstructure:"password"`
		ExportTTLMinutes int    `mapstructure:"export_ttl_minutes"`
	} `mapstructure:"redis"`

	Archive struct {
		Enabled   bool   `mapstructure:"enabled"`
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		Prefix    string `mapstructure:"prefix"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"archive"`

	Monitoring struct {
		Enabled      bool   `mapstructure:"enabled"`
		Port         int    `mapstructure:"port"`
		PasswordHash string `mapstructure:"password_hash"`
	} `mapstructure:"monitoring"`

	Counting struct {
		Locations []string `mapstructure:"locations"`
	} `mapstructure:"counting"`
}

// SessionTTL is how long an idle counting session is kept
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// SweepInterval is how often idle sessions are expired
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepMinutes) * time.Minute
}

// ExportTTL is how long reconciled exports stay cached
func (c *Config) ExportTTL() time.Duration {
	return time.Duration(c.Redis.ExportTTLMinutes) * time.Minute
}

// UploadLimit is the maximum accepted upload size in bytes
func (c *Config) UploadLimit() int64 {
	return int64(c.Server.UploadMaxMB) << 20
}

// RedisAddr is host:port of the export cache
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	cfg, err := LoadFile(DefaultPath)
	if err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}
	return cfg
}

// LoadFile reads the given YAML file, if present, over the defaults and
// applies environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Auto bind environment variables
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)

	if cfg.Session.Secret == "" || cfg.Session.Secret == "${SESSION_SECRET}" {
		cfg.Session.Secret = randomSecret()
		log.Printf("[Config] SESSION_SECRET not set, using a per-process secret; sessions end on restart")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("server.upload_max_mb", 20)
	v.SetDefault("server.request_timeout_seconds", 30)

	v.SetDefault("session.ttl_hours", 12)
	v.SetDefault("session.cookie_name", "stockcount_session")
	v.SetDefault("session.issuer", "stock-count")
	v.SetDefault("session.sweep_minutes", 10)
	v.SetDefault("session.secure_cookie", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.export_ttl_minutes", 10)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.prefix", "stock-count")

	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.port", 9090)

	v.SetDefault("counting.locations", DefaultLocations)
}

// DefaultLocations are offered for every count entry
var DefaultLocations = []string{"Bar 1", "Bar 2", "Store Room 1", "Store Room 2", "Cellar"}

// applyEnv overrides secrets and connection settings from the environment
func applyEnv(cfg *Config) {
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.Session.Secret = secret
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
		cfg.Redis.Enabled = true
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Redis.Port = n
		}
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if key := os.Getenv("ARCHIVE_ACCESS_KEY"); key != "" {
		cfg.Archive.AccessKey = key
	}
	if secret := os.Getenv("ARCHIVE_SECRET_KEY"); secret != "" {
		cfg.Archive.SecretKey = secret
	}

	if hash := os.Getenv("MONITORING_PASSWORD_HASH"); hash != "" {
		cfg.Monitoring.PasswordHash = hash
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("[Config] failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(b)
}

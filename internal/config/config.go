package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/validate"
)

// ProxyConfig carries the default proxy endpoint and credentials used when
// generating profiles and proxy records.
type ProxyConfig struct {
	Host     string
	Username string
	Password string
}

// Complete reports whether every field needed to build a network block is set.
func (p ProxyConfig) Complete() bool {
	return p.Host != "" && p.Username != "" && p.Password != ""
}

// PortRange is the inclusive range of rotation proxy ports.
type PortRange struct {
	Min int `validate:"required|min:1|max:65535"`
	Max int `validate:"required|min:1|max:65535|gteField:Min"`
}

type Config struct {
	MongoURI       string   `validate:"required"`
	MongoDatabase  string   `validate:"required"`
	RedisURI       string   // empty disables Redis; in-process fallbacks are used
	Port           string   `validate:"required"`
	Environment    string   // ENV: production, development, etc.
	AllowedOrigins []string // CORS origins from ALLOWED_ORIGINS
	LogLevel       string   `validate:"required|in:trace,debug,info,warn,error"`

	MultiloginAPIv1   string
	MultiloginAPIv2   string
	MultiloginToken   string
	MultiloginTimeout time.Duration
	MultiloginRetries int

	Proxy ProxyConfig
	Ports PortRange
	Cache CacheConfig
}

type CacheConfig struct {
	SizeMB         int
	ProfileTTL     time.Duration
	ReservationTTL time.Duration
}

func Load() *Config {
	return &Config{
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/profilefarm")),
		MongoDatabase:  getEnv("MONGODB_DB", "profilefarm"),
		RedisURI:       getEnv("REDIS_URI", ""),
		Port:           getEnv("PORT", "8080"),
		Environment:    strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "*")),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),

		MultiloginAPIv1:   strings.TrimRight(getEnv("MULTILOGIN_APIv1", ""), "/"),
		MultiloginAPIv2:   strings.TrimRight(getEnv("MULTILOGIN_APIv2", ""), "/"),
		MultiloginToken:   getEnv("MULTILOGIN_TOKEN", ""),
		MultiloginTimeout: getDuration("MULTILOGIN_TIMEOUT", 30*time.Second),
		MultiloginRetries: getInt("MULTILOGIN_RETRIES", 0),

		Proxy: ProxyConfig{
			Host:     getEnv("PROXY_HOST", ""),
			Username: getEnv("PROXY_USERNAME", ""),
			Password: getEnv("PROXY_PASSWORD", ""),
		},
		Ports: PortRange{
			Min: getInt("PROXY_PORT_MIN", 10200),
			Max: getInt("PROXY_PORT_MAX", 10300),
		},
		Cache: CacheConfig{
			SizeMB:         getInt("CACHE_SIZE_MB", 16),
			ProfileTTL:     getDuration("PROFILE_CACHE_TTL", 10*time.Minute),
			ReservationTTL: getDuration("RESERVATION_TTL", 2*time.Minute),
		},
	}
}

// Validate checks the loaded values before anything connects.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}
	pv := validate.Struct(&c.Ports)
	if !pv.Validate() {
		return errors.New(pv.Errors.One())
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

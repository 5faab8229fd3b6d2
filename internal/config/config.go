package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                   = "PORT"
	envServerReadTimeout      = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout     = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout  = "SERVER_SHUTDOWN_TIMEOUT"
	envBackendURL             = "BACKEND_URL"
	envBackendTimeout         = "BACKEND_TIMEOUT"
	envBackendRetryCount      = "BACKEND_RETRY_COUNT"
	envDevUsers               = "DEV_USERS"
	envJWTSecret              = "JWT_SECRET"
	envSessionCookieName      = "SESSION_COOKIE_NAME"
	envSessionCookieSecure    = "SESSION_COOKIE_SECURE"
	envSessionTTL             = "SESSION_TTL"
	envPermissionFetchTimeout = "PERMISSION_FETCH_TIMEOUT"
	envRedisURL               = "REDIS_URL"
	envPermissionCacheTTL     = "PERMISSION_CACHE_TTL"
	envRoutesFile             = "ROUTES_FILE"
	envLoginPath              = "LOGIN_PATH"
	envForbiddenPath          = "FORBIDDEN_PATH"
	envLogLevel               = "LOG_LEVEL"
	envLogFormat              = "LOG_FORMAT"
	envProfilingEnabled       = "PROFILING_ENABLED"
)

const (
	defaultServerPort             = "8080"
	defaultServerReadTimeout      = 10 * time.Second
	defaultServerWriteTimeout     = 10 * time.Second
	defaultServerShutdown         = 10 * time.Second
	defaultBackendTimeout         = 5 * time.Second
	defaultBackendRetryCount      = 2
	defaultSessionCookieName      = "admin_session"
	defaultSessionCookieSecure    = true
	defaultSessionTTL             = 8 * time.Hour
	defaultPermissionFetchTimeout = 5 * time.Second
	defaultPermissionCacheTTL     = 5 * time.Minute
	defaultLoginPath              = "/auth/login"
	defaultForbiddenPath          = "/forbidden"
	defaultLogLevel               = "info"
	defaultLogFormat              = "json"
	minJWTSecretLength            = 32
	minUniqueCharsInSecret        = 16
	minRepeatedCharThreshold      = 4
	maxRepeatedChars              = 2
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	JWT     JWTConfig
	Session SessionConfig
	Cache   CacheConfig
	Routes  RoutesConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// ProfilingEnabled mounts pprof under /debug/pprof for ROLES:MANAGE holders
	ProfilingEnabled bool
}

// BackendConfig points at the service that authenticates users and computes
// permission sets. An empty URL selects the built-in role presets.
type BackendConfig struct {
	URL        string
	Timeout    time.Duration
	RetryCount int

	// DevUsers lists name:bcrypt-hash:role entries for the built-in backend
	DevUsers string
}

type JWTConfig struct {
	Secret string
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
	FetchTimeout time.Duration
}

// CacheConfig configures the permission snapshot cache; empty RedisURL disables it
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type RoutesConfig struct {
	File          string
	LoginPath     string
	ForbiddenPath string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:             getEnv(envPort, defaultServerPort),
			ReadTimeout:      getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:     getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout:  getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
			ProfilingEnabled: getBoolEnv(envProfilingEnabled, false),
		},
		Backend: BackendConfig{
			URL:        strings.TrimRight(getEnv(envBackendURL, ""), "/"),
			Timeout:    getDurationEnv(envBackendTimeout, defaultBackendTimeout),
			RetryCount: getIntEnv(envBackendRetryCount, defaultBackendRetryCount),
			DevUsers:   getEnv(envDevUsers, ""),
		},
		JWT: JWTConfig{
			Secret: requireEnv(envJWTSecret),
		},
		Session: SessionConfig{
			CookieName:   getEnv(envSessionCookieName, defaultSessionCookieName),
			CookieSecure: getBoolEnv(envSessionCookieSecure, defaultSessionCookieSecure),
			TTL:          getDurationEnv(envSessionTTL, defaultSessionTTL),
			FetchTimeout: getDurationEnv(envPermissionFetchTimeout, defaultPermissionFetchTimeout),
		},
		Cache: CacheConfig{
			RedisURL: getEnv(envRedisURL, ""),
			TTL:      getDurationEnv(envPermissionCacheTTL, defaultPermissionCacheTTL),
		},
		Routes: RoutesConfig{
			File:          getEnv(envRoutesFile, ""),
			LoginPath:     getEnv(envLoginPath, defaultLoginPath),
			ForbiddenPath: getEnv(envForbiddenPath, defaultForbiddenPath),
		},
		Log: LogConfig{
			Level:  getEnv(envLogLevel, defaultLogLevel),
			Format: getEnv(envLogFormat, defaultLogFormat),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf(errJWTSecretRequiredFmt)
	}

	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
	}

	if !hasMinimumEntropy(c.JWT.Secret) {
		return fmt.Errorf(errJWTSecretLowEntropyFmt)
	}

	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf(errBackendURLInvalidFmt, c.Backend.URL)
		}
	}

	if c.Backend.RetryCount < 0 {
		return fmt.Errorf(errNegativeRetryCountFmt)
	}

	for name, d := range map[string]time.Duration{
		envBackendTimeout:         c.Backend.Timeout,
		envSessionTTL:             c.Session.TTL,
		envPermissionFetchTimeout: c.Session.FetchTimeout,
		envPermissionCacheTTL:     c.Cache.TTL,
	} {
		if d <= 0 {
			return fmt.Errorf(errNonPositiveDurationFmt, name)
		}
	}

	if !strings.HasPrefix(c.Routes.LoginPath, "/") {
		return fmt.Errorf(errPathNotAbsoluteFmt, envLoginPath, c.Routes.LoginPath)
	}

	if !strings.HasPrefix(c.Routes.ForbiddenPath, "/") {
		return fmt.Errorf(errPathNotAbsoluteFmt, envForbiddenPath, c.Routes.ForbiddenPath)
	}

	if c.Routes.LoginPath == c.Routes.ForbiddenPath {
		return fmt.Errorf(errPathsCollideFmt)
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf(errLogFormatInvalidFmt, c.Log.Format)
	}

	return nil
}

// UsesBackend reports whether logins and permission fetches go to a remote backend
func (c *Config) UsesBackend() bool {
	return c.Backend.URL != ""
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	if len(charCounts) < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("90s") or a bare number of minutes
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

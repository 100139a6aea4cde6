// Package config loads studio server configuration from flags, environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Remote backend names accepted by Cloud.Backend.
const (
	BackendMemory = "memory"
	BackendMinio  = "minio"
	BackendS3     = "s3"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Server   ServerConfig
	Cloud    CloudConfig
	Builtins BuiltinsConfig
	Sync     SyncConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds local persistence configuration.
type StorageConfig struct {
	// DataPath is the base directory; the badger database lives in DataPath/db.
	DataPath string
}

// DBPath returns the badger directory.
func (s StorageConfig) DBPath() string {
	return filepath.Join(s.DataPath, "db")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// CloudConfig selects and configures the remote store used by cloud sync.
type CloudConfig struct {
	Backend   string
	AccountID string

	// Object storage (minio, s3).
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// Redis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SQLite; an empty path means DataPath/remote.db.
	SQLitePath string

	// KeyPrefix is prepended to every remote object key.
	KeyPrefix string
}

// BuiltinsConfig controls the built-in asset defaults.
type BuiltinsConfig struct {
	// Path overrides the embedded defaults with a directory of YAML files.
	Path  string
	Watch bool
}

// SyncConfig controls sync endpoint throttling.
type SyncConfig struct {
	RatePerMinute int
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("studio", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for local data")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0, SSE streams stay open)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins")

	backend := fs.String("cloud-backend", "", "Remote backend (memory, minio, s3, redis, sqlite)")
	account := fs.String("cloud-account", "", "Account id used to namespace remote objects")
	bucket := fs.String("cloud-bucket", "", "Bucket for minio/s3 backends")
	endpoint := fs.String("cloud-endpoint", "", "Object storage endpoint")
	region := fs.String("cloud-region", "", "Object storage region")
	redisAddr := fs.String("redis-addr", "", "Redis address for the redis backend")
	sqlitePath := fs.String("cloud-sqlite-path", "", "SQLite file for the sqlite backend")

	builtinsPath := fs.String("builtins-path", "", "Directory overriding embedded built-in defaults")
	builtinsWatch := fs.String("builtins-watch", "", "Reload built-ins when the override directory changes")
	syncRate := fs.String("sync-rate", "", "Sync requests per minute per client (default: 6)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Cloud: CloudConfig{
			Backend:       strings.ToLower(getConfigValue(*backend, "CLOUD_BACKEND", BackendMemory)),
			AccountID:     getConfigValue(*account, "CLOUD_ACCOUNT_ID", "local"),
			Bucket:        getConfigValue(*bucket, "CLOUD_BUCKET", "forge-studio"),
			Endpoint:      getConfigValue(*endpoint, "CLOUD_ENDPOINT", ""),
			Region:        getConfigValue(*region, "CLOUD_REGION", "us-east-1"),
			AccessKey:     getConfigValue("", "CLOUD_ACCESS_KEY", ""),
			SecretKey:     getConfigValue("", "CLOUD_SECRET_KEY", ""),
			UseSSL:        getBoolConfigValue("", "CLOUD_USE_SSL", true),
			RedisAddr:     getConfigValue(*redisAddr, "REDIS_ADDR", "localhost:6379"),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
			RedisDB:       getIntConfigValue("", "REDIS_DB", 0),
			SQLitePath:    getConfigValue(*sqlitePath, "CLOUD_SQLITE_PATH", ""),
			KeyPrefix:     getConfigValue("", "CLOUD_KEY_PREFIX", ""),
		},
		Builtins: BuiltinsConfig{
			Path:  getConfigValue(*builtinsPath, "BUILTINS_PATH", ""),
			Watch: getBoolConfigValue(*builtinsWatch, "BUILTINS_WATCH", false),
		},
		Sync: SyncConfig{
			RatePerMinute: getIntConfigValue(*syncRate, "SYNC_RATE_PER_MINUTE", 6),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Cloud.AccountID == "" {
		return errors.New("cloud account id is required")
	}

	switch c.Cloud.Backend {
	case BackendMemory, BackendSQLite:
	case BackendMinio, BackendS3:
		if c.Cloud.Bucket == "" {
			return fmt.Errorf("cloud bucket is required for the %s backend", c.Cloud.Backend)
		}
		if c.Cloud.Backend == BackendMinio && c.Cloud.Endpoint == "" {
			return errors.New("cloud endpoint is required for the minio backend")
		}
	case BackendRedis:
		if c.Cloud.RedisAddr == "" {
			return errors.New("redis address is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid cloud backend: %s (must be memory, minio, s3, redis, or sqlite)", c.Cloud.Backend)
	}

	if c.Sync.RatePerMinute < 1 {
		return fmt.Errorf("sync rate must be at least 1 per minute, got %d", c.Sync.RatePerMinute)
	}

	return nil
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Storage.DataPath, err = expandPath(c.Storage.DataPath, filepath.Join(homeDir, "ForgeStudio")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Cloud.SQLitePath, err = expandPath(c.Cloud.SQLitePath, filepath.Join(c.Storage.DataPath, "remote.db")); err != nil {
		return fmt.Errorf("invalid sqlite path: %w", err)
	}
	if c.Builtins.Path != "" {
		if c.Builtins.Path, err = expandPath(c.Builtins.Path, ""); err != nil {
			return fmt.Errorf("invalid builtins path: %w", err)
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

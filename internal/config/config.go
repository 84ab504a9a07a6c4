// Package config provides application configuration management with support for
// command-line flags, environment variables, .env files, and an optional YAML file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Game      GameConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataDir     string // Holds the database and auth key unless overridden.
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name           string
	Port           string        // default: 8080
	ReadTimeout    time.Duration // default: 15s
	WriteTimeout   time.Duration // default: 15s
	IdleTimeout    time.Duration // default: 60s
	AllowedOrigins []string      // CORS origins, default: *
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string // default: {data dir}/spellbee.db
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes). Loaded at startup.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration // default: 720h
}

// GameConfig holds gameplay tuning that may differ between deployments.
type GameConfig struct {
	// RatingUpdates enables skill estimate updates when games are finalized.
	RatingUpdates bool
	// WordsDir is watched for word list files. Empty disables the watcher.
	WordsDir string
}

// RateLimitConfig holds per-client request limits for public and write routes.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// fileConfig mirrors the YAML configuration file layout.
type fileConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	DataDir     string `yaml:"data_dir"`
	Server      struct {
		Name           string   `yaml:"name"`
		Port           string   `yaml:"port"`
		ReadTimeout    string   `yaml:"read_timeout"`
		WriteTimeout   string   `yaml:"write_timeout"`
		IdleTimeout    string   `yaml:"idle_timeout"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Auth struct {
		AccessTokenDuration string `yaml:"access_token_duration"`
	} `yaml:"auth"`
	Game struct {
		RatingUpdates *bool  `yaml:"rating_updates"`
		WordsDir      string `yaml:"words_dir"`
	} `yaml:"game"`
	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute"`
		Burst             int `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables (a .env file only fills variables that are unset).
// 3. YAML config file (-config or CONFIG_FILE).
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("spellbee", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataDir := fs.String("data-dir", "", "Directory for the database and auth key")
	dbPath := fs.String("db-path", "", "SQLite database path (default: {data-dir}/spellbee.db)")
	serverName := fs.String("server-name", "", "Name for the server")
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 720h)")
	ratingUpdates := fs.String("rating-updates", "", "Update skill ratings when games finish (default: true)")
	wordsDir := fs.String("words-dir", "", "Directory of word list files to import and watch")
	rateLimitRPM := fs.String("rate-limit-rpm", "", "Requests per minute per client on limited routes (default: 120)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Burst size for limited routes (default: 20)")
	configFile := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	var file fileConfig
	if path := getConfigValue(*configFile, "CONFIG_FILE", "", ""); path != "" {
		loaded, err := loadFileConfig(path)
		if err != nil {
			return nil, err
		}
		file = *loaded
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", file.Environment, "development"),
			DataDir:     getConfigValue(*dataDir, "DATA_DIR", file.DataDir, ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", file.LogLevel, "info"),
		},
		Server: ServerConfig{
			Name:           getConfigValue(*serverName, "SERVER_NAME", file.Server.Name, "SpellBee Server"),
			Port:           getConfigValue(*serverPort, "SERVER_PORT", file.Server.Port, "8080"),
			AllowedOrigins: file.Server.AllowedOrigins,
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DB_PATH", file.Database.Path, ""),
		},
		Game: GameConfig{
			RatingUpdates: getBoolConfigValue(*ratingUpdates, "RATING_UPDATES", file.Game.RatingUpdates, true),
			WordsDir:      getConfigValue(*wordsDir, "WORDS_DIR", file.Game.WordsDir, ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getIntConfigValue(*rateLimitRPM, "RATE_LIMIT_RPM", file.RateLimit.RequestsPerMinute, 120),
			Burst:             getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", file.RateLimit.Burst, 20),
		},
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	durations := []struct {
		name   string
		flag   string
		envKey string
		file   string
		def    string
		target *time.Duration
	}{
		{"access token duration", *accessTokenDuration, "ACCESS_TOKEN_DURATION", file.Auth.AccessTokenDuration, "720h", &cfg.Auth.AccessTokenDuration},
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", file.Server.ReadTimeout, "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", file.Server.WriteTimeout, "15s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", file.Server.IdleTimeout, "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.file, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}

	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit requests per minute and burst must be positive")
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty after expansion")
	}

	return nil
}

// expandPaths resolves the data directory and derives the database path from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataDir, err := expandPath(c.App.DataDir, filepath.Join(homeDir, ".spellbee"))
	if err != nil {
		return err
	}
	c.App.DataDir = dataDir

	dbPath, err := expandPath(c.Database.Path, filepath.Join(dataDir, "spellbee.db"))
	if err != nil {
		return err
	}
	c.Database.Path = dbPath

	// An unset words directory stays empty so the watcher remains off.
	if c.Game.WordsDir != "" {
		wordsDir, err := expandPath(c.Game.WordsDir, "")
		if err != nil {
			return err
		}
		c.Game.WordsDir = wordsDir
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

// loadFileConfig reads the YAML configuration file.
func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- Config file path from operator input is expected
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return &fc, nil
}

// getConfigValue returns the first non-empty value from flag, env var, file, or default.
func getConfigValue(flagValue, envKey, fileValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, file, or default.
// Accepts "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, fileValue *bool, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "", "")
	if strValue == "" {
		if fileValue != nil {
			return *fileValue
		}
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, file, or default.
// Unparseable flag or env values fall through to the default.
func getIntConfigValue(flagValue, envKey string, fileValue, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "", "")
	if strValue == "" {
		if fileValue != 0 {
			return fileValue
		}
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like STORAGE_S3_BUCKET
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in several locations so the binary and the tests
// can run from different working directories.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig applies direct env overrides for values still empty
// after placeholder expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Storage.S3.Bucket == "" {
		if val := os.Getenv("RESPONSES_BUCKET"); val != "" {
			cfg.Storage.S3.Bucket = val
		}
	}
	if cfg.Storage.S3.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Storage.S3.Region = val
		}
	}
	if cfg.Fallback.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Fallback.Redis.Address = val
		}
	}
	if cfg.Fallback.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Fallback.Redis.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.BodyLimitBytes == 0 {
		cfg.Server.BodyLimitBytes = 32 << 20
	}

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "s3"
	}

	if cfg.Uploads.UploadURLTTL == 0 {
		cfg.Uploads.UploadURLTTL = 300000 // 5 minutes
	}
	if cfg.Uploads.DownloadURLTTL == 0 {
		cfg.Uploads.DownloadURLTTL = 3600000 // 1 hour
	}
	if cfg.Uploads.MaxFileSize == 0 {
		cfg.Uploads.MaxFileSize = 25 << 20
	}

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "configs/catalog.json"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Storage.Provider {
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required")
		}
	case "memory":
		// nothing to validate
	default:
		return fmt.Errorf("storage.provider must be s3 or memory, got %q", cfg.Storage.Provider)
	}

	if cfg.Fallback.Enabled && cfg.Fallback.Redis.Address == "" {
		return fmt.Errorf("fallback.redis.address is required when fallback is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

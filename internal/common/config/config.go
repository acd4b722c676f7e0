// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	MetricsPort    int `mapstructure:"metrics_port"`
	ReadTimeout    int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout   int `mapstructure:"write_timeout"`    // milliseconds
	BodyLimitBytes int `mapstructure:"body_limit_bytes"` // covers base64 fallback uploads
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	// Provider is "s3" or "memory". Memory is for local development only.
	Provider string   `mapstructure:"provider"`
	S3       S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"` // optional, for S3-compatible stores
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// UploadsConfig holds the upload broker settings.
type UploadsConfig struct {
	UploadURLTTL   int   `mapstructure:"upload_url_ttl"`   // milliseconds
	DownloadURLTTL int   `mapstructure:"download_url_ttl"` // milliseconds
	MaxFileSize    int64 `mapstructure:"max_file_size"`    // bytes
}

// FallbackConfig holds the degraded-mode mirror store settings.
type FallbackConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig points at the externally supplied question catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

package config

import (
	"os"
	"strconv"
)

const (
	// StorageDriverLocal keeps objects in a flat directory on local disk.
	StorageDriverLocal = "local"
	// StorageDriverMinIO keeps objects in an S3-compatible bucket.
	StorageDriverMinIO = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings for the object index.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a database has been configured.
// Without DB_HOST the service runs with a direct filename-to-key index.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	KeyPrefix string
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	Driver   string
	LocalDir string
}

// PDFConfig holds page extraction settings.
type PDFConfig struct {
	// ValidationMode is either "relaxed" or "strict".
	ValidationMode   string
	MaxSelectedPages int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	MaxUploadBytes int
	LogLevel       string
	Storage        StorageConfig
	Database       DatabaseConfig
	MinIO          MinIOConfig
	PDF            PDFConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:3001"),
		Port:           getEnv("PORT", "3001"),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 50*1024*1024),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", StorageDriverLocal),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			KeyPrefix: getEnv("MINIO_KEY_PREFIX", "uploads/"),
		},
		PDF: PDFConfig{
			ValidationMode:   getEnv("PDF_VALIDATION_MODE", "relaxed"),
			MaxSelectedPages: getEnvInt("PDF_MAX_SELECTED_PAGES", 1000),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

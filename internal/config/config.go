package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Storage     StorageConfig     `yaml:"storage"`
	Recognition RecognitionConfig `yaml:"recognition"`
	NATS        NATSConfig        `yaml:"nats"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port                int    `yaml:"port"`
	APIKey              string `yaml:"api_key"`
	MaxUploadMB         int    `yaml:"max_upload_mb"`
	SearchRatePerMinute int    `yaml:"search_rate_per_minute"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
	// URL, when set, takes precedence over the individual fields.
	URL string `yaml:"url"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Storage backend names accepted by StorageConfig.Type.
const (
	StorageMinIO = "minio"
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

type StorageConfig struct {
	Type string `yaml:"type"`
	// URLExpiry bounds presigned URLs minted by object storage backends.
	URLExpiry time.Duration `yaml:"url_expiry"`
	MinIO     MinIOConfig   `yaml:"minio"`
	Local     LocalConfig   `yaml:"local"`
	GCS       GCSConfig     `yaml:"gcs"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type LocalConfig struct {
	BasePath  string `yaml:"base_path"`
	PublicURL string `yaml:"public_url"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
}

type RecognitionConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Server.SearchRatePerMinute == 0 {
		cfg.Server.SearchRatePerMinute = 30
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageMinIO
	}
	if cfg.Storage.URLExpiry == 0 {
		cfg.Storage.URLExpiry = 7 * 24 * time.Hour
	}
	if cfg.Storage.Local.BasePath == "" {
		cfg.Storage.Local.BasePath = "/var/gallery/storage"
	}
	if cfg.Storage.Local.PublicURL == "" {
		cfg.Storage.Local.PublicURL = "/storage"
	}
	if cfg.Recognition.URL == "" {
		cfg.Recognition.URL = "http://localhost:5000"
	}
	if cfg.Recognition.Timeout == 0 {
		cfg.Recognition.Timeout = 120 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GALLERY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GALLERY_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("GALLERY_DB_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("GALLERY_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GALLERY_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("GALLERY_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GALLERY_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GALLERY_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GALLERY_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("GALLERY_STORAGE_LOCAL_PATH"); v != "" {
		cfg.Storage.Local.BasePath = v
	}
	if v := os.Getenv("GALLERY_MINIO_ENDPOINT"); v != "" {
		cfg.Storage.MinIO.Endpoint = v
	}
	if v := os.Getenv("GALLERY_MINIO_ACCESS_KEY"); v != "" {
		cfg.Storage.MinIO.AccessKey = v
	}
	if v := os.Getenv("GALLERY_MINIO_SECRET_KEY"); v != "" {
		cfg.Storage.MinIO.SecretKey = v
	}
	if v := os.Getenv("GALLERY_MINIO_BUCKET"); v != "" {
		cfg.Storage.MinIO.Bucket = v
	}
	if v := os.Getenv("GALLERY_GCS_BUCKET"); v != "" {
		cfg.Storage.GCS.Bucket = v
	}
	if v := os.Getenv("GALLERY_GCS_CREDENTIALS_FILE"); v != "" {
		cfg.Storage.GCS.CredentialsFile = v
	}
	if v := os.Getenv("GALLERY_RECOGNITION_URL"); v != "" {
		cfg.Recognition.URL = v
	}
	if v := os.Getenv("GALLERY_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("GALLERY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

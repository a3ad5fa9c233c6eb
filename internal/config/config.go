package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	MinIO       MinIOConfig       `yaml:"minio"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Faces       FacesConfig       `yaml:"faces"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// RecognitionConfig points at the remote face-recognition service.
type RecognitionConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// FacesConfig tunes the face identity pipeline. Thresholds are percentages
// in the 0-100 range used by the recognition service.
type FacesConfig struct {
	// DetectionThreshold is the minimum confidence for a detected face to
	// be kept (default 90).
	DetectionThreshold float64 `yaml:"detection_threshold"`
	// AutoTagThreshold is the similarity at or above which a match is
	// applied without confirmation (default 90).
	AutoTagThreshold float64 `yaml:"auto_tag_threshold"`
	// SuggestThreshold is the similarity at or above which a match is
	// offered as a suggestion (default 80).
	SuggestThreshold float64 `yaml:"suggest_threshold"`
	// MaxFacesPerPhoto caps detection results per photo (default 10).
	MaxFacesPerPhoto int `yaml:"max_faces_per_photo"`
	// MaxSearchResults caps similarity search results (default 5).
	MaxSearchResults int `yaml:"max_search_results"`
	// MaxBulkPhotos caps a single bulk detection request (default 20).
	MaxBulkPhotos int `yaml:"max_bulk_photos"`
	// CollectionPrefix prefixes the deterministic external collection id.
	CollectionPrefix string `yaml:"collection_prefix"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
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
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Faces.DetectionThreshold == 0 {
		cfg.Faces.DetectionThreshold = 90
	}
	if cfg.Faces.AutoTagThreshold == 0 {
		cfg.Faces.AutoTagThreshold = 90
	}
	if cfg.Faces.SuggestThreshold == 0 {
		cfg.Faces.SuggestThreshold = 80
	}
	if cfg.Faces.MaxFacesPerPhoto == 0 {
		cfg.Faces.MaxFacesPerPhoto = 10
	}
	if cfg.Faces.MaxSearchResults == 0 {
		cfg.Faces.MaxSearchResults = 5
	}
	if cfg.Faces.MaxBulkPhotos == 0 {
		cfg.Faces.MaxBulkPhotos = 20
	}
	if cfg.Faces.CollectionPrefix == "" {
		cfg.Faces.CollectionPrefix = "picai"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PICAI_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PICAI_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("PICAI_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PICAI_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PICAI_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PICAI_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PICAI_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PICAI_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("PICAI_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("PICAI_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("PICAI_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("PICAI_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("PICAI_RECOGNITION_URL"); v != "" {
		cfg.Recognition.BaseURL = v
	}
	if v := os.Getenv("PICAI_RECOGNITION_API_KEY"); v != "" {
		cfg.Recognition.APIKey = v
	}
}

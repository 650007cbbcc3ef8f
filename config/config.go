package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DirName is the per-project state directory.
const DirName = ".docrag"

// Config holds all configuration for docrag.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	DataDir string `yaml:"data_dir"` // relative paths resolve against the project root
	Metric  string `yaml:"metric" validate:"omitempty,oneof=cosine inner_product"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=hashing openai"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension" validate:"gt=0"`
	BatchSize int    `yaml:"batch_size" validate:"gte=0"`
	CacheSize int    `yaml:"cache_size" validate:"gte=0"` // 0 disables the embedding cache
}

// GenerationConfig holds generation backend configuration.
type GenerationConfig struct {
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	Default string        `yaml:"default"` // backend preselected by CLI commands
	Gemini  BackendConfig `yaml:"gemini"`
	Mistral BackendConfig `yaml:"mistral"`
}

// BackendConfig holds one generation provider's settings.
type BackendConfig struct {
	Model     string `yaml:"model" validate:"required"`
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK    int    `yaml:"top_k" validate:"gt=0"`
	Persona string `yaml:"persona"`
}

// IngestConfig holds bulk ingestion configuration.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
	MaxBytes int64    `yaml:"max_bytes" validate:"gte=0"` // larger files are skipped; 0 means no limit

	// ChunkWords splits files into passages of about this many words; 0
	// stores each file as one document.
	ChunkWords   int `yaml:"chunk_words" validate:"gte=0"`
	ChunkOverlap int `yaml:"chunk_overlap" validate:"gte=0"`
}

// LoggingConfig holds event log configuration.
type LoggingConfig struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	SessionTTL     time.Duration `yaml:"session_ttl" validate:"gt=0"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir: DirName,
			Metric:  "cosine",
		},
		Embedding: EmbeddingConfig{
			Provider:  "hashing",
			Model:     "hashing-v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 64,
			CacheSize: 1024,
		},
		Generation: GenerationConfig{
			Timeout: 60 * time.Second,
			Gemini: BackendConfig{
				Model:     "gemini-1.5-flash",
				APIKeyEnv: "GEMINI_API_KEY",
			},
			Mistral: BackendConfig{
				Model:     "mistral-large-latest",
				APIKeyEnv: "MISTRAL_API_KEY",
			},
		},
		Retrieve: RetrieveConfig{
			TopK:    3,
			Persona: "Professional",
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.git/**", "**/" + DirName + "/**", "**/node_modules/**", "**/vendor/**"},
			MaxBytes: 4 << 20,
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    filepath.Join(DirName, "events.log"),
			Console: false,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 90 * time.Second,
			SessionTTL:     time.Hour,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load loads configuration from a YAML file and validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docrag.yaml,
// then .docrag/config.yaml). A .env file in dir is loaded into the
// environment first so API keys can live there.
func LoadFromDir(dir string) (*Config, error) {
	LoadEnv(dir)

	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnv loads dir/.env if present. Variables already set win.
func LoadEnv(dir string) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir resolves the store directory against the project root.
func (c *Config) DataDir(root string) string {
	if filepath.IsAbs(c.Store.DataDir) {
		return c.Store.DataDir
	}
	return filepath.Join(root, c.Store.DataDir)
}

// StorePath returns the path to the document database.
func (c *Config) StorePath(root string) string {
	return filepath.Join(c.DataDir(root), "docrag.db")
}

// LogPath resolves the event log file against the project root.
func (c *Config) LogPath(root string) string {
	if c.Logging.File == "" || filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(root, c.Logging.File)
}

// EnsureDataDir ensures the store directory exists.
func (c *Config) EnsureDataDir(root string) error {
	return os.MkdirAll(c.DataDir(root), 0755)
}

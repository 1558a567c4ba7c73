package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	IndexDir  string           `json:"index_dir"`
	FileStore FileStoreConfig  `json:"file_store"`
	Chunking  ChunkingConfig   `json:"chunking"`
	Limits    LimitsConfig     `json:"limits"`
	AI        AIConfig         `json:"ai"`
	Cache     CacheConfig      `json:"cache"`
	CORS      []string         `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ChunkingConfig struct {
	SizeChars    int `json:"size_chars"`
	OverlapChars int `json:"overlap_chars"`
}

type LimitsConfig struct {
	MaxTextChars int `json:"max_text_chars"`
	MaxChunks    int `json:"max_chunks"`
	TopKDefault  int `json:"top_k_default"`
	MaxTopK      int `json:"max_top_k"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	TimeoutSeconds int              `json:"timeout_seconds"`
	Retries        int              `json:"retries"`
	Generate       []ProviderConfig `json:"generate"`
	Embed          []ProviderConfig `json:"embed"`
}

type CacheConfig struct {
	LRUSize       int    `json:"lru_size"`
	LRUTTLMinutes int    `json:"lru_ttl_minutes"`
	DBMaxAgeDays  int    `json:"db_max_age_days"`
	CleanupCron   string `json:"cleanup_cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database.dsn or database.db_name is required")
	}
	if cfg.IndexDir == "" {
		return nil, fmt.Errorf("index_dir is required")
	}
	if len(cfg.AI.Generate) == 0 {
		return nil, fmt.Errorf("at least one ai.generate provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Chunking.SizeChars <= 0 {
		cfg.Chunking.SizeChars = 2500
	}
	if cfg.Chunking.OverlapChars <= 0 {
		cfg.Chunking.OverlapChars = 250
	}
	if cfg.Limits.MaxTextChars <= 0 {
		cfg.Limits.MaxTextChars = 60000
	}
	if cfg.Limits.MaxChunks <= 0 {
		cfg.Limits.MaxChunks = 64
	}
	if cfg.Limits.TopKDefault <= 0 {
		cfg.Limits.TopKDefault = 6
	}
	if cfg.Limits.MaxTopK <= 0 {
		cfg.Limits.MaxTopK = 12
	}
	if cfg.Limits.TopKDefault > cfg.Limits.MaxTopK {
		cfg.Limits.TopKDefault = cfg.Limits.MaxTopK
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 20
	}
	if cfg.AI.Retries < 0 {
		cfg.AI.Retries = 0
	}
	if cfg.AI.Retries == 0 {
		cfg.AI.Retries = 1
	}
	if cfg.Cache.LRUSize <= 0 {
		cfg.Cache.LRUSize = 10000
	}
	if cfg.Cache.LRUTTLMinutes <= 0 {
		cfg.Cache.LRUTTLMinutes = 120
	}
	if cfg.Cache.DBMaxAgeDays <= 0 {
		cfg.Cache.DBMaxAgeDays = 30
	}
	if cfg.Cache.CleanupCron == "" {
		cfg.Cache.CleanupCron = "30 3 * * *"
	}
	return &cfg, nil
}

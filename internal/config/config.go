package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	// DefaultServerURL is the relay base URL client tooling falls back to
	// when SPEAR_SERVER is unset.
	DefaultServerURL = "http://localhost:3000"
)

type ServerConfig struct {
	Addr          string `toml:"addr"`
	Storage       string `toml:"storage"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	// RedisAddr enables the identity lookup cache; empty disables it.
	RedisAddr string `toml:"redis_addr"`
}

// LoadServerConfig reads the optional TOML file at path (empty path skips
// the file), applies SPEAR_* environment overrides, then defaults.
func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return ServerConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	applyEnv(&cfg.Addr, "SPEAR_ADDR")
	applyEnv(&cfg.Storage, "SPEAR_STORAGE")
	applyEnv(&cfg.MongoURI, "SPEAR_MONGO_URI")
	applyEnv(&cfg.MongoDatabase, "SPEAR_MONGO_DB")
	applyEnv(&cfg.RedisAddr, "SPEAR_REDIS_ADDR")

	if cfg.Addr == "" {
		cfg.Addr = ":3000"
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageMongo
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = "mongodb://localhost:27017"
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "spear"
	}

	if cfg.Storage != StorageMongo && cfg.Storage != StorageMemory {
		return ServerConfig{}, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
	return cfg, nil
}

// ServerURL returns the relay base URL for client tooling.
func ServerURL() string {
	if url := os.Getenv("SPEAR_SERVER"); url != "" {
		return url
	}
	return DefaultServerURL
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// RedisConfig contains connection details for the semantic cache store.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// QdrantConfig contains connection details for the document index.
type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LLMConfig selects and configures the embedding and generation providers.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "gemini" or "ollama"
	Project        string `yaml:"project"`
	Location       string `yaml:"location"`
	ChatModel      string `yaml:"chat_model"`
	FallbackModel  string `yaml:"fallback_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	OllamaBaseURL  string `yaml:"ollama_base_url"`
	EmbeddingDim   int    `yaml:"embedding_dim"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// CacheConfig configures the semantic response cache.
type CacheConfig struct {
	Backend   string  `yaml:"backend"` // "redis" or "memory"
	Threshold float32 `yaml:"threshold"`
	Capacity  int     `yaml:"capacity"`
	TTLSecs   int     `yaml:"ttl_secs"`
}

// ChatConfig bounds sessions and tunes the answer pipeline.
type ChatConfig struct {
	TopK         int     `yaml:"top_k"`
	MaxExchanges int     `yaml:"max_exchanges"`
	SlowLogSecs  float64 `yaml:"slow_log_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server ServerConfig        `yaml:"server"`
	Redis  RedisConfig         `yaml:"redis"`
	Qdrant QdrantConfig        `yaml:"qdrant"`
	LLM    LLMConfig           `yaml:"llm"`
	Cache  CacheConfig         `yaml:"cache"`
	Chat   ChatConfig          `yaml:"chat"`
	Access map[string][]string `yaml:"access"` // email -> allowed collections
}

// Load reads a config from the given path. A missing file yields
// defaults. Defaults are seeded before unmarshalling, so keys absent
// from the file keep their default while explicit values, including
// explicit zeros, always win.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables.
// Environment always wins over the file.
func (c *AppConfig) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		c.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Qdrant.Port = p
		}
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.LLM.Project = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		c.LLM.Location = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.LLM.OllamaBaseURL = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CACHE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			c.Cache.Threshold = float32(f)
		}
	}
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Port: "8080"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Qdrant: QdrantConfig{Host: "localhost", Port: 6334},
		LLM: LLMConfig{
			Provider:       "gemini",
			ChatModel:      "gemini-2.5-flash",
			FallbackModel:  "gemini-1.5-flash",
			EmbeddingModel: "text-embedding-004",
			OllamaBaseURL:  "http://localhost:11434",
			EmbeddingDim:   768,
			TimeoutSecs:    25,
		},
		Cache: CacheConfig{
			Backend:   "redis",
			Threshold: 0.90,
			Capacity:  512,
		},
		Chat: ChatConfig{
			TopK:         3,
			MaxExchanges: 3,
			SlowLogSecs:  2.0,
		},
	}
}

// Package config loads and saves the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Store      StoreConfig      `yaml:"store"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retriever  RetrieverConfig  `yaml:"retriever"`
	LLM        LLMConfig        `yaml:"llm"`
	Sandbox    SandboxConfig    `yaml:"sandbox"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type EmbedderConfig struct {
	// Type selects the embedding backend: "openai" or "tfidf".
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

type OpenAIEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

type StoreConfig struct {
	// Type selects the vector store: "chromem", "qdrant" or "memory".
	Type       string        `yaml:"type"`
	Path       string        `yaml:"path"`
	Collection string        `yaml:"collection"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

type RetrieverConfig struct {
	TopK       int    `yaml:"top_k"`
	DefaultPDF string `yaml:"default_pdf"`
}

type LLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type SandboxConfig struct {
	MaxSteps    uint64 `yaml:"max_steps"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Embedder.Type == "" {
		c.Embedder.Type = "openai"
	}
	if c.Embedder.OpenAI == nil {
		c.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
	if c.Embedder.OpenAI.BaseURL == "" {
		c.Embedder.OpenAI.BaseURL = "http://localhost:11434/v1"
	}
	if c.Embedder.OpenAI.APIKeyEnv == "" {
		c.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Embedder.OpenAI.Model == "" {
		c.Embedder.OpenAI.Model = "nomic-embed-text"
	}
	if c.Embedder.OpenAI.BatchSize == 0 {
		c.Embedder.OpenAI.BatchSize = 32
	}
	if c.Store.Type == "" {
		c.Store.Type = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/vectors"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "manual_chunks"
	}
	if c.Chunker.ChunkSize == 0 {
		c.Chunker.ChunkSize = 600
	}
	if c.Chunker.Overlap == 0 {
		c.Chunker.Overlap = 100
	}
	if c.Retriever.TopK == 0 {
		c.Retriever.TopK = 4
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "mistral"
	}
	if c.LLM.TimeoutSecs == 0 {
		c.LLM.TimeoutSecs = 120
	}
	if c.Sandbox.MaxSteps == 0 {
		c.Sandbox.MaxSteps = 10_000_000
	}
	if c.Sandbox.TimeoutSecs == 0 {
		c.Sandbox.TimeoutSecs = 10
	}
	if c.Summarizer.MaxSentences == 0 {
		c.Summarizer.MaxSentences = 5
	}
}

// Load reads the file at path, filling defaults for anything unset. A missing
// file yields the defaults without error.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultPath is the per-user config location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "seqassist", "config.yaml"), nil
}

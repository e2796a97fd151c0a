package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig points at one model backend, either "ollama" or an
// OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RAGConfig tunes retrieval and chunking.
type RAGConfig struct {
	// TopK is the number of context passages considered per question.
	// Larger values trade precision for recall and lengthen the prompt.
	TopK int `yaml:"top_k"`
	// BreakpointPercentile sets chunk boundaries where the cosine
	// distance between consecutive sentences exceeds this percentile
	// of the document's distance distribution.
	BreakpointPercentile float64 `yaml:"breakpoint_percentile"`
	// Contextual enables situating each passage within the document
	// via the chat model before embedding.
	Contextual     bool   `yaml:"contextual"`
	PromptTemplate string `yaml:"prompt_template"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend string `yaml:"backend"` // "memory" or "postgres"
	DSN     string `yaml:"dsn"`
	Debug   bool   `yaml:"debug"`
}

type Config struct {
	EmbedLLM LLMConfig   `yaml:"embed_llm"`
	ChatLLM  LLMConfig   `yaml:"chat_llm"`
	RAG      RAGConfig   `yaml:"rag"`
	Index    IndexConfig `yaml:"index"`
}

const (
	defaultTopK                 = 3
	defaultBreakpointPercentile = 95
	defaultTimeoutSeconds       = 60
	defaultOllamaURL            = "http://localhost:11434"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config usable without a config file: local Ollama
// for both models, in-memory index.
func Default() *Config {
	cfg := &Config{
		EmbedLLM: LLMConfig{Provider: "ollama", BaseURL: defaultOllamaURL, Model: "nomic-embed-text"},
		ChatLLM:  LLMConfig{Provider: "ollama", BaseURL: defaultOllamaURL, Model: "deepseek-r1:7b"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.BreakpointPercentile <= 0 || cfg.RAG.BreakpointPercentile > 100 {
		cfg.RAG.BreakpointPercentile = defaultBreakpointPercentile
	}
	if cfg.ChatLLM.TimeoutSeconds <= 0 {
		cfg.ChatLLM.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "memory"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.ChatLLM.Provider == "" {
		cfg.ChatLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.Key == "" {
		cfg.EmbedLLM.Key = os.Getenv("OPENROUTER_KEY")
	}
	if cfg.ChatLLM.Key == "" {
		cfg.ChatLLM.Key = os.Getenv("OPENROUTER_KEY")
	}
}

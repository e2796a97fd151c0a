package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.RAG.TopK != defaultTopK {
		t.Errorf("top_k = %d, want %d", cfg.RAG.TopK, defaultTopK)
	}
	if cfg.RAG.BreakpointPercentile != defaultBreakpointPercentile {
		t.Errorf("breakpoint_percentile = %v", cfg.RAG.BreakpointPercentile)
	}
	if cfg.ChatLLM.TimeoutSeconds != defaultTimeoutSeconds {
		t.Errorf("timeout_seconds = %d", cfg.ChatLLM.TimeoutSeconds)
	}
	if cfg.Index.Backend != "memory" {
		t.Errorf("index backend = %q", cfg.Index.Backend)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
embed_llm:
  provider: openai
  base_url: https://openrouter.ai/api
  model: text-embedding-3-small
chat_llm:
  model: some-model
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.EmbedLLM.Provider != "openai" {
		t.Errorf("provider = %q", cfg.EmbedLLM.Provider)
	}
	if cfg.RAG.TopK != defaultTopK {
		t.Errorf("top_k default not applied: %d", cfg.RAG.TopK)
	}
	if cfg.ChatLLM.Provider != "ollama" {
		t.Errorf("chat provider default not applied: %q", cfg.ChatLLM.Provider)
	}
	if cfg.ChatLLM.TimeoutSeconds != defaultTimeoutSeconds {
		t.Errorf("timeout default not applied: %d", cfg.ChatLLM.TimeoutSeconds)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("embed_llm: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("Embedding.Model = %q, want nomic-embed-text", cfg.Embedding.Model)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "0.0.0.0:8000" {
		t.Errorf("ListenAddr = %q, want 0.0.0.0:8000", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DIARYML_BIND", "127.0.0.1")
	t.Setenv("DIARYML_PORT", "9100")
	t.Setenv("DIARYML_LLM_PROVIDER", "openai")
	t.Setenv("DIARYML_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("DIARYML_OLLAMA_URL", "http://box:11434")

	cfg := Load()
	if cfg.Server.Bind != "127.0.0.1" || cfg.Server.Port != 9100 {
		t.Errorf("server = %s:%d, want 127.0.0.1:9100", cfg.Server.Bind, cfg.Server.Port)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	// Ollama URL applies to both chat and embedding
	if cfg.LLM.OllamaURL != "http://box:11434" || cfg.Embedding.OllamaURL != "http://box:11434" {
		t.Errorf("ollama urls = %q, %q", cfg.LLM.OllamaURL, cfg.Embedding.OllamaURL)
	}
}

func TestLoadBadPortKeepsDefault(t *testing.T) {
	t.Setenv("DIARYML_PORT", "not-a-port")

	cfg := Load()
	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d, want default 8000 for bad value", cfg.Server.Port)
	}
}

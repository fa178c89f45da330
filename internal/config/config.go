// Package config loads DiaryML settings from the environment, with
// optional .env files for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all DiaryML configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Uploads   UploadsConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
}

type ServerConfig struct {
	Bind string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type UploadsConfig struct {
	Dir string
}

type LLMConfig struct {
	Provider  string // "openai", "ollama", "llama-cli", "mock"
	Model     string
	BaseURL   string // OpenAI-compatible endpoint override (LM Studio, llama-server, hosted)
	APIKey    string
	OllamaURL string
	LlamaBin  string // llama-cli binary, for the subprocess provider
	ModelPath string // GGUF model file, for the subprocess provider
}

type EmbeddingConfig struct {
	OllamaURL string
	Model     string
}

// Default returns a Config with sensible defaults. The server binds all
// interfaces so phones on the same network can sync.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "0.0.0.0",
			Port: 8000,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Uploads: UploadsConfig{
			Dir: "", // resolved at runtime next to the database
		},
		LLM: LLMConfig{
			Provider:  "ollama",
			Model:     "llama3.2",
			OllamaURL: "http://localhost:11434",
		},
		Embedding: EmbeddingConfig{
			OllamaURL: "http://localhost:11434",
			Model:     "nomic-embed-text",
		},
	}
}

// Load builds the config from .env.local, .env, and the process
// environment. Values already set in the environment always win; missing
// .env files are fine.
func Load() Config {
	godotenv.Load(".env.local")
	godotenv.Load(".env")

	cfg := Default()
	if v := os.Getenv("DIARYML_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("DIARYML_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DIARYML_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DIARYML_UPLOADS"); v != "" {
		cfg.Uploads.Dir = v
	}
	if v := os.Getenv("DIARYML_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DIARYML_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DIARYML_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("DIARYML_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("DIARYML_OLLAMA_URL"); v != "" {
		cfg.LLM.OllamaURL = v
		cfg.Embedding.OllamaURL = v
	}
	if v := os.Getenv("DIARYML_LLAMA_BIN"); v != "" {
		cfg.LLM.LlamaBin = v
	}
	if v := os.Getenv("DIARYML_MODEL_PATH"); v != "" {
		cfg.LLM.ModelPath = v
	}
	if v := os.Getenv("DIARYML_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	return cfg
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

package server

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wedsmoker/DiaryML/internal/llm"
	"github.com/wedsmoker/DiaryML/internal/store"
)

// handleListModels reports the active provider and the models it could
// switch to. Ollama is asked for its tags; the llama-cli provider lists
// GGUF files next to the configured one.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	s.llmMu.RLock()
	cfg := s.llmCfg
	loaded := s.llm != nil
	s.llmMu.RUnlock()

	current := cfg.Model
	if cfg.Provider == "llama-cli" {
		current = filepath.Base(cfg.ModelPath)
	}

	models := []string{}
	switch cfg.Provider {
	case "ollama":
		if tags, err := llm.ListOllamaModels(cfg.OllamaURL); err == nil {
			models = tags
		} else {
			log.Printf("list ollama models: %v", err)
		}
	case "llama-cli":
		models = ggufSiblings(cfg.ModelPath)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"provider": cfg.Provider,
		"current":  current,
		"loaded":   loaded,
		"models":   models,
	})
}

// ggufSiblings lists GGUF files in the same directory as path, vision
// projector files excluded.
func ggufSiblings(path string) []string {
	if path == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.gguf"))
	if err != nil {
		return nil
	}
	var names []string
	for _, m := range matches {
		name := filepath.Base(m)
		if strings.Contains(strings.ToLower(name), "mmproj") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type switchModelRequest struct {
	Model string `json:"model"`
}

// handleSwitchModel swaps the active model within the current provider
// and records the choice so restarts keep it.
func (s *Server) handleSwitchModel(w http.ResponseWriter, r *http.Request) {
	var req switchModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		http.Error(w, `{"error":"model is required"}`, http.StatusBadRequest)
		return
	}

	s.llmMu.Lock()
	cfg := s.llmCfg
	s.llmMu.Unlock()

	switch cfg.Provider {
	case "llama-cli":
		path := filepath.Join(filepath.Dir(cfg.ModelPath), filepath.Base(model))
		if _, err := os.Stat(path); err != nil {
			http.Error(w, `{"error":"model file not found"}`, http.StatusNotFound)
			return
		}
		cfg.ModelPath = path
	default:
		cfg.Model = model
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	s.llmMu.Lock()
	s.llm = client
	s.llmCfg = cfg
	s.llmMu.Unlock()

	if err := s.db.SetMeta(store.MetaActiveModel, model); err != nil {
		log.Printf("persist active model: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"message":  "Successfully switched to " + model,
		"provider": cfg.Provider,
		"model":    model,
	})
}

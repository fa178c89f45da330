package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wedsmoker/DiaryML/internal/config"
	"github.com/wedsmoker/DiaryML/internal/llm"
	"github.com/wedsmoker/DiaryML/internal/rag"
	"github.com/wedsmoker/DiaryML/internal/server"
	"github.com/wedsmoker/DiaryML/internal/store"
)

// backfillInterval is how often the index retries entries that could not
// be embedded, e.g. while Ollama was down.
const backfillInterval = 15 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	dbPath, uploadsDir, err := dataPaths(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// A model switched at runtime survives restarts via the meta table.
	if model, ok, err := db.GetMeta(store.MetaActiveModel); err == nil && ok {
		if cfg.LLM.Provider == "llama-cli" && cfg.LLM.ModelPath != "" {
			cfg.LLM.ModelPath = filepath.Join(filepath.Dir(cfg.LLM.ModelPath), filepath.Base(model))
		} else {
			cfg.LLM.Model = model
		}
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: LLM not configured (%v), chat disabled\n", err)
		llmClient = nil
	} else {
		fmt.Fprintf(os.Stderr, "  llm: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	}

	// Detect and configure embedder
	var index *rag.Index
	{
		ollamaURL := cfg.Embedding.OllamaURL
		if ollamaURL == "" {
			ollamaURL = "http://localhost:11434"
		}
		embeddingModel := cfg.Embedding.Model
		if embeddingModel == "" {
			embeddingModel = "nomic-embed-text"
		}

		if rag.ProbeOllama(ollamaURL, embeddingModel) {
			index = rag.New(db, rag.NewOllamaEmbedder(ollamaURL, embeddingModel, 768))
			fmt.Fprintf(os.Stderr, "  embedder: ollama (%s)\n", embeddingModel)
		} else {
			emb, tfidfErr := rag.NewTFIDFEmbedder(db, 512)
			if tfidfErr != nil {
				fmt.Fprintf(os.Stderr, "warning: tfidf embedder init failed: %v\n", tfidfErr)
			} else {
				index = rag.New(db, emb)
				fmt.Fprintf(os.Stderr, "  embedder: tfidf (fallback)\n")
			}
		}

		// Embed any entries missing vectors, now and periodically
		if index != nil {
			index.StartBackfill(backfillInterval)
			defer index.Stop()
		}
	}

	srv := server.New(db, server.Options{
		Version:    VersionString(),
		UploadsDir: uploadsDir,
		LLM:        llmClient,
		LLMConfig:  cfg.LLM,
		Index:      index,
	})
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "diaryml serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  uploads: %s\n", uploadsDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

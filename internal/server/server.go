package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wedsmoker/DiaryML/internal/analytics"
	"github.com/wedsmoker/DiaryML/internal/config"
	"github.com/wedsmoker/DiaryML/internal/llm"
	"github.com/wedsmoker/DiaryML/internal/rag"
	"github.com/wedsmoker/DiaryML/internal/store"
	"github.com/wedsmoker/DiaryML/internal/temporal"
)

// Server is the diaryml HTTP API server.
type Server struct {
	db         *store.DB
	router     chi.Router
	version    string
	started    time.Time
	uploadsDir string

	index     *rag.Index
	temporal  *temporal.Intelligence
	analytics *analytics.Analytics

	llmMu  sync.RWMutex
	llm    llm.Client
	llmCfg config.LLMConfig

	authMu   sync.Mutex
	unlocked bool
}

// Options wires the server's collaborators. LLM and Index may be nil:
// chat degrades to a fallback message and retrieval is skipped.
type Options struct {
	Version    string
	UploadsDir string
	LLM        llm.Client
	LLMConfig  config.LLMConfig
	Index      *rag.Index
}

// New creates a new Server over the given database.
func New(db *store.DB, opts Options) *Server {
	uploads := opts.UploadsDir
	if uploads == "" {
		uploads = "uploads"
	}
	s := &Server{
		db:         db,
		version:    opts.Version,
		started:    time.Now(),
		uploadsDir: uploads,
		index:      opts.Index,
		llm:        opts.LLM,
		llmCfg:     opts.LLMConfig,
		temporal:   temporal.New(&journalSource{db: db}, temporal.Config{}),
		analytics:  analytics.New(db),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/unlock", s.handleUnlock)
		r.Get("/status", s.handleStatus)
		r.Post("/mobile/login", s.handleMobileLogin)

		// Everything below needs the diary unlocked, or a valid
		// mobile bearer token.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/entries", s.handleCreateEntry)
			r.Get("/entries", s.handleListEntries)
			r.Get("/entries/{entryID}", s.handleGetEntry)
			r.Put("/entries/{entryID}", s.handleUpdateEntry)
			r.Delete("/entries/{entryID}", s.handleDeleteEntry)
			r.Get("/search", s.handleSearch)

			r.Post("/chat", s.handleChat)
			r.Get("/chat/sessions", s.handleListChatSessions)
			r.Post("/chat/sessions", s.handleCreateChatSession)
			r.Get("/chat/sessions/{sessionID}", s.handleGetChatSession)
			r.Delete("/chat/sessions/{sessionID}", s.handleDeleteChatSession)
			r.Post("/chat/sessions/{sessionID}/clear", s.handleClearChatSession)
			r.Get("/daily-greeting", s.handleDailyGreeting)

			r.Get("/analytics/mood-timeline", s.handleMoodTimeline)
			r.Get("/analytics/projects", s.handleProjects)
			r.Get("/analytics/comprehensive", s.handleComprehensive)
			r.Get("/analytics/streak", s.handleStreak)
			r.Get("/analytics/productivity", s.handleProductivity)
			r.Get("/analytics/temporal-moods", s.handleTemporalMoods)

			r.Get("/insights", s.handleInsights)
			r.Get("/insights/mood-cycles", s.handleMoodCycles)
			r.Get("/insights/project-momentum", s.handleProjectMomentum)
			r.Get("/insights/emotional-triggers", s.handleEmotionalTriggers)

			r.Get("/models", s.handleListModels)
			r.Post("/models/switch", s.handleSwitchModel)

			r.Get("/backup", s.handleBackup)
			r.Post("/restore", s.handleRestore)

			r.Post("/mobile/sync", s.handleMobileSync)
			r.Get("/mobile/entries/recent", s.handleMobileRecent)
			r.Get("/mobile/insights/summary", s.handleMobileSummary)
		})
	})

	// Uploaded images by filename, then the embedded web UI for
	// everything else.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.uploadsDir))))
	r.Get("/*", spaHandler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}
	schema, _ := s.db.SchemaVersion()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"schema":  schema,
		"db_path": s.db.Path,
	})
}

// currentLLM returns the active provider, nil when none is configured.
func (s *Server) currentLLM() llm.Client {
	s.llmMu.RLock()
	defer s.llmMu.RUnlock()
	return s.llm
}

// queryInt parses an integer query parameter, falling back on def when
// absent or malformed. Callers that care about sign check it themselves.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

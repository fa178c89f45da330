package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/llm"
	"github.com/wedsmoker/DiaryML/internal/recommend"
	"github.com/wedsmoker/DiaryML/internal/store"
)

// chatContextEntries is how many retrieved entries go into a chat prompt.
// Small on purpose so local models keep room for the conversation.
const chatContextEntries = 3

// chatNotLoadedMessage is returned when no LLM provider is configured.
const chatNotLoadedMessage = "The AI companion is not loaded right now. " +
	"Journaling, search and analytics all work without it. " +
	"Configure a provider (ollama, openai or a local GGUF model) to enable chat."

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatSessionPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type chatMessagePayload struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func toSessionPayload(s store.ChatSession) chatSessionPayload {
	return chatSessionPayload{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt.Format(entryTimeLayout),
		UpdatedAt: s.UpdatedAt.Format(entryTimeLayout),
	}
}

// handleChat answers one companion message: persist the user turn,
// gather mood and retrieval context, complete, persist the reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}

	client := s.currentLLM()
	if client == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"response":     chatNotLoadedMessage,
			"mood_context": map[string]float64{},
		})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
		if _, err := s.db.CreateChatSession(sessionID); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
	} else if session, err := s.db.GetChatSession(sessionID); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	} else if session == nil {
		http.Error(w, `{"error":"chat session not found"}`, http.StatusNotFound)
		return
	}

	// History before this turn; the new message goes into the prompt as
	// the question, not as history.
	history, err := s.db.ChatMessages(sessionID, 0)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	if _, err := s.db.AppendChatMessage(sessionID, "user", message); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if err := s.db.SetChatTitleIfNew(sessionID, sessionTitle(message)); err != nil {
		log.Printf("set chat title: %v", err)
	}

	moodContext := s.recentMoodContext()

	var past []llm.PastEntry
	if s.index != nil {
		ctxEntries, err := s.index.ContextEntries(r.Context(), message, chatContextEntries)
		if err != nil {
			log.Printf("chat retrieval: %v", err)
		}
		for _, ce := range ctxEntries {
			past = append(past, llm.PastEntry{
				Date:    ce.Timestamp.Format("2006-01-02"),
				Mood:    ce.DominantMood,
				Excerpt: excerpt(ce.Content, 300),
			})
		}
	}

	turns := make([]llm.ChatTurn, len(history))
	for i, m := range history {
		turns[i] = llm.ChatTurn{Role: m.Role, Content: m.Content}
	}

	prompt := llm.ChatPrompt(message, past, turns)
	resp, err := client.Complete(r.Context(), prompt)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	reply := strings.TrimSpace(resp.Content)

	if _, err := s.db.AppendChatMessage(sessionID, "assistant", reply); err != nil {
		log.Printf("save assistant message: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"response":     reply,
		"session_id":   sessionID,
		"mood_context": moodContext,
	})
}

func (s *Server) handleListChatSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.db.ListChatSessions(queryInt(r, "limit", 50))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	out := make([]chatSessionPayload, len(sessions))
	for i, sess := range sessions {
		out[i] = toSessionPayload(sess)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"sessions": out})
}

func (s *Server) handleCreateChatSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	if _, err := s.db.CreateChatSession(id); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"message":    "New chat session created",
	})
}

func (s *Server) handleGetChatSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	session, err := s.db.GetChatSession(id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, `{"error":"chat session not found"}`, http.StatusNotFound)
		return
	}

	messages, err := s.db.ChatMessages(id, 0)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	out := make([]chatMessagePayload, len(messages))
	for i, m := range messages {
		out[i] = chatMessagePayload{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(entryTimeLayout),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"messages": out})
}

func (s *Server) handleDeleteChatSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.db.DeleteChatSession(id); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"chat session not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Chat session deleted",
	})
}

func (s *Server) handleClearChatSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.db.ClearChatMessages(id); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Chat cleared",
	})
}

// handleDailyGreeting returns the rule-based greeting and suggestions,
// with the greeting line optionally rewritten by the LLM.
func (s *Server) handleDailyGreeting(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	projects, err := s.db.ActiveProjects(now.AddDate(0, 0, -90))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	media, err := s.db.MediaMentionsBetween(now.AddDate(0, 0, -30), now)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	moodState := s.recentMoodContext()

	sugg := recommend.Daily(recommend.Input{
		Now:      now,
		Projects: projects,
		Mood:     toScores(moodState),
		Media:    media,
	})

	greeting := sugg.Greeting
	if client := s.currentLLM(); client != nil {
		if rewritten := s.llmGreeting(r, now); rewritten != "" {
			greeting = rewritten
			sugg.Greeting = rewritten
		}
	}

	names := make([]string, 0, 3)
	for _, p := range projects {
		names = append(names, p.Name)
		if len(names) == 3 {
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"greeting":        greeting,
		"suggestions":     sugg,
		"mood_state":      moodState,
		"active_projects": names,
	})
}

// llmGreeting asks the active model for a greeting line. Any failure
// returns "" and the rule-based greeting stands.
func (s *Server) llmGreeting(r *http.Request, now time.Time) string {
	client := s.currentLLM()
	if client == nil {
		return ""
	}
	entries, err := s.db.RecentEntries(5)
	if err != nil {
		return ""
	}
	recent := make([]llm.PastEntry, 0, len(entries))
	for _, e := range entries {
		mood := ""
		if tag, ok := e.Emotions.Dominant(); ok {
			mood = string(tag)
		}
		recent = append(recent, llm.PastEntry{
			Date:    e.Timestamp.Format("2006-01-02"),
			Mood:    mood,
			Excerpt: excerpt(e.Content, 200),
		})
	}

	resp, err := client.Complete(r.Context(), llm.DailyGreetingPrompt(now.Weekday().String(), recent))
	if err != nil {
		log.Printf("greeting completion: %v", err)
		return ""
	}
	return strings.TrimSpace(resp.Content)
}

// recentMoodContext averages the moods of the last five entries.
func (s *Server) recentMoodContext() map[string]float64 {
	entries, err := s.db.RecentEntries(5)
	if err != nil {
		log.Printf("recent mood context: %v", err)
		return map[string]float64{}
	}

	totals := map[string]float64{}
	counts := map[string]int{}
	for _, e := range entries {
		for tag, score := range e.Emotions {
			totals[string(tag)] += score
			counts[string(tag)]++
		}
	}

	out := make(map[string]float64, len(totals))
	for tag, sum := range totals {
		out[tag] = sum / float64(counts[tag])
	}
	return out
}

func toScores(m map[string]float64) emotion.Scores {
	if len(m) == 0 {
		return nil
	}
	scores := make(emotion.Scores, len(m))
	for tag, v := range m {
		scores[emotion.Tag(tag)] = v
	}
	return scores
}

// sessionTitle derives a session title from its first message.
func sessionTitle(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if len(title) > 50 {
		title = strings.TrimSpace(title[:50]) + "..."
	}
	return title
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wedsmoker/DiaryML/internal/store"
)

// projectPayload is the JSON shape of an active project.
type projectPayload struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Mentions      int    `json:"mentions"`
	FirstMention  string `json:"first_mention"`
	LastMention   string `json:"last_mention"`
	DaysSinceLast int    `json:"days_since_last"`
}

func toProjectPayloads(projects []store.ProjectActivity, now time.Time) []projectPayload {
	out := make([]projectPayload, len(projects))
	for i, p := range projects {
		out[i] = projectPayload{
			Name:          p.Name,
			Type:          p.Type,
			Mentions:      p.Mentions,
			FirstMention:  p.FirstMention.Format(entryTimeLayout),
			LastMention:   p.LastMention.Format(entryTimeLayout),
			DaysSinceLast: int(now.Sub(p.LastMention).Hours() / 24),
		}
	}
	return out
}

func (s *Server) handleMoodTimeline(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.analytics.TemporalMoodPatterns(queryInt(r, "days", 30))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"timeline": patterns.Days})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	projects, err := s.db.ActiveProjects(now.AddDate(0, 0, -90))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"projects": toProjectPayloads(projects, now),
	})
}

func (s *Server) handleComprehensive(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Comprehensive()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.analytics.WritingStreak()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(streak)
}

func (s *Server) handleProductivity(w http.ResponseWriter, r *http.Request) {
	score, err := s.analytics.ProductivityScore()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(score)
}

func (s *Server) handleTemporalMoods(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.analytics.TemporalMoodPatterns(queryInt(r, "days", 30))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(patterns)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wedsmoker/DiaryML/internal/store"
	"github.com/wedsmoker/DiaryML/internal/temporal"
)

// journalSource adapts the store to the temporal analyzers' Source.
type journalSource struct {
	db *store.DB
}

func (j *journalSource) EntriesBetween(from, to time.Time) ([]temporal.Entry, error) {
	entries, err := j.db.EntriesBetween(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]temporal.Entry, len(entries))
	for i, e := range entries {
		out[i] = temporal.Entry{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Content:   e.Content,
			Emotions:  e.Emotions,
		}
	}
	return out, nil
}

func (j *journalSource) MentionsBetween(from, to time.Time) ([]temporal.Mention, error) {
	mentions, err := j.db.ProjectMentionsBetween(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]temporal.Mention, len(mentions))
	for i, m := range mentions {
		out[i] = temporal.Mention{
			EntryID:   m.EntryID,
			Project:   m.Name,
			Type:      m.Type,
			Timestamp: m.Timestamp,
		}
	}
	return out, nil
}

// insightDays resolves the days query parameter, defaulting to the
// configured window. A malformed value gets a 400 and ok=false; zero and
// negative values pass through so the analyzers can reject them.
func (s *Server) insightDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return s.temporal.Config.DefaultWindowDays, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, `{"error":"days must be an integer"}`, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// insightError maps analyzer validation errors to 400, everything else
// to 500.
func insightError(w http.ResponseWriter, err error) {
	var ve *temporal.ValidationError
	if errors.As(err, &ve) {
		http.Error(w, `{"error":"`+ve.Msg+`"}`, http.StatusBadRequest)
		return
	}
	http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	days, ok := s.insightDays(w, r)
	if !ok {
		return
	}
	report, err := s.temporal.Insights(days)
	if err != nil {
		insightError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleMoodCycles(w http.ResponseWriter, r *http.Request) {
	days, ok := s.insightDays(w, r)
	if !ok {
		return
	}
	result, err := s.temporal.MoodCycles(days)
	if err != nil {
		insightError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleProjectMomentum(w http.ResponseWriter, r *http.Request) {
	days, ok := s.insightDays(w, r)
	if !ok {
		return
	}
	result, err := s.temporal.ProjectMomentum(days)
	if err != nil {
		insightError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleEmotionalTriggers(w http.ResponseWriter, r *http.Request) {
	days, ok := s.insightDays(w, r)
	if !ok {
		return
	}
	result, err := s.temporal.EmotionalTriggers(days)
	if err != nil {
		insightError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

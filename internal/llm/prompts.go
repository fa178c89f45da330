package llm

import (
	"fmt"
	"strings"
)

// History condensation budgets. Recent turns go through verbatim; older
// turns shrink so prompts stay inside small local-model context windows.
const (
	historyKeepFull = 4
	historyFullMax  = 1000
	historyMidMax   = 200
)

// PastEntry is a retrieved journal entry summarized into a chat prompt.
type PastEntry struct {
	Date    string // YYYY-MM-DD
	Mood    string // dominant emotion, may be empty
	Excerpt string
}

// ChatTurn is one prior message in a chat session.
type ChatTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

const companionPersona = "You are a warm, attentive journaling companion. " +
	"You help the writer reflect on their own words without judging them. " +
	"Ground every observation in the entries provided; if the entries don't " +
	"cover something, say so instead of inventing. Keep replies short and conversational."

// ChatPrompt builds the full prompt for a companion chat reply.
func ChatPrompt(question string, entries []PastEntry, history []ChatTurn) string {
	var b strings.Builder
	b.WriteString(companionPersona)
	b.WriteString("\n\n")

	if len(entries) > 0 {
		b.WriteString("Relevant past entries:\n")
		writePastEntries(&b, entries)
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range CondenseHistory(history) {
			label := "Writer"
			if turn.Role == "assistant" {
				label = "Companion"
			}
			fmt.Fprintf(&b, "%s: %s\n", label, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Writer: %s\nCompanion:", question)
	return b.String()
}

// DailyGreetingPrompt asks for a short morning check-in grounded in the
// writer's recent entries.
func DailyGreetingPrompt(dayName string, recent []PastEntry) string {
	var b strings.Builder
	b.WriteString("You are a warm journaling companion writing a one-paragraph morning greeting.\n\n")

	if len(recent) > 0 {
		b.WriteString("Recent entries:\n")
		writePastEntries(&b, recent)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "It is %s. Write 2-3 sentences greeting the writer, "+
		"picking up at most one thread from the recent entries. "+
		"No bullet points, no advice unless an entry asked for some.", dayName)
	return b.String()
}

// CondenseHistory shortens a chat history. The last few turns are kept
// nearly whole, older turns shrink to a stub.
func CondenseHistory(history []ChatTurn) []ChatTurn {
	out := make([]ChatTurn, 0, len(history))
	cutoff := len(history) - historyKeepFull
	for i, turn := range history {
		limit := historyFullMax
		if i < cutoff {
			limit = historyMidMax
		}
		out = append(out, ChatTurn{Role: turn.Role, Content: truncate(turn.Content, limit)})
	}
	return out
}

func writePastEntries(b *strings.Builder, entries []PastEntry) {
	for _, e := range entries {
		if e.Mood != "" {
			fmt.Fprintf(b, "- [%s, feeling %s] %s\n", e.Date, e.Mood, e.Excerpt)
		} else {
			fmt.Fprintf(b, "- [%s] %s\n", e.Date, e.Excerpt)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package llm

import (
	"strings"
	"testing"
)

func TestChatPrompt(t *testing.T) {
	entries := []PastEntry{
		{Date: "2025-06-10", Mood: "joy", Excerpt: "Beach day with friends."},
		{Date: "2025-06-12", Excerpt: "Quiet evening reading."},
	}
	history := []ChatTurn{
		{Role: "user", Content: "How was my week?"},
		{Role: "assistant", Content: "Mostly upbeat, from what you wrote."},
	}
	prompt := ChatPrompt("What made me happiest?", entries, history)

	for _, want := range []string{
		"Relevant past entries:",
		"- [2025-06-10, feeling joy] Beach day with friends.",
		"- [2025-06-12] Quiet evening reading.",
		"Conversation so far:",
		"Writer: How was my week?",
		"Companion: Mostly upbeat, from what you wrote.",
		"Writer: What made me happiest?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(prompt, "Companion:") {
		t.Errorf("prompt should end with the companion cue, got ...%q", prompt[len(prompt)-20:])
	}
}

func TestChatPromptNoContext(t *testing.T) {
	prompt := ChatPrompt("Hello", nil, nil)
	if strings.Contains(prompt, "Relevant past entries:") {
		t.Error("empty entries should not emit the entries section")
	}
	if strings.Contains(prompt, "Conversation so far:") {
		t.Error("empty history should not emit the history section")
	}
	if !strings.Contains(prompt, "Writer: Hello") {
		t.Error("prompt missing the question")
	}
}

func TestDailyGreetingPrompt(t *testing.T) {
	prompt := DailyGreetingPrompt("Saturday", []PastEntry{
		{Date: "2025-06-13", Mood: "sadness", Excerpt: "Rough day at work."},
	})
	if !strings.Contains(prompt, "It is Saturday.") {
		t.Error("prompt missing day name")
	}
	if !strings.Contains(prompt, "Rough day at work.") {
		t.Error("prompt missing the recent entry")
	}
}

func TestCondenseHistory(t *testing.T) {
	long := strings.Repeat("a", 1500)
	history := []ChatTurn{
		{Role: "user", Content: long},
		{Role: "assistant", Content: long},
		{Role: "user", Content: long},
		{Role: "assistant", Content: long},
		{Role: "user", Content: long},
		{Role: "assistant", Content: long},
	}
	out := CondenseHistory(history)
	if len(out) != len(history) {
		t.Fatalf("len = %d, want %d", len(out), len(history))
	}
	// First two turns fall outside the keep-full window.
	for i := 0; i < 2; i++ {
		if len(out[i].Content) != historyMidMax+3 {
			t.Errorf("turn %d len = %d, want %d", i, len(out[i].Content), historyMidMax+3)
		}
	}
	// Recent turns keep the larger budget.
	for i := 2; i < 6; i++ {
		if len(out[i].Content) != historyFullMax+3 {
			t.Errorf("turn %d len = %d, want %d", i, len(out[i].Content), historyFullMax+3)
		}
	}
}

func TestCondenseHistoryShort(t *testing.T) {
	history := []ChatTurn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	out := CondenseHistory(history)
	if out[0].Content != "hi" || out[1].Content != "hello" {
		t.Errorf("short history should pass through unchanged, got %+v", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 4); got != "abcd..." {
		t.Errorf("truncate = %q", got)
	}
}

package store

import (
	"errors"
	"strings"
	"testing"
)

func TestChatSessionLifecycle(t *testing.T) {
	db := testDB(t)

	s, err := db.CreateChatSession("sess-a")
	if err != nil {
		t.Fatalf("CreateChatSession: %v", err)
	}
	if s.Title != "New chat" {
		t.Errorf("Title = %q, want New chat", s.Title)
	}

	got, err := db.GetChatSession("sess-a")
	if err != nil {
		t.Fatalf("GetChatSession: %v", err)
	}
	if got == nil || got.ID != "sess-a" {
		t.Fatalf("GetChatSession = %v, want sess-a", got)
	}

	missing, err := db.GetChatSession("nope")
	if err != nil {
		t.Fatalf("GetChatSession missing: %v", err)
	}
	if missing != nil {
		t.Errorf("GetChatSession(nope) = %v, want nil", missing)
	}

	if err := db.DeleteChatSession("sess-a"); err != nil {
		t.Fatalf("DeleteChatSession: %v", err)
	}
	if err := db.DeleteChatSession("sess-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestAppendChatMessageTruncates(t *testing.T) {
	db := testDB(t)
	if _, err := db.CreateChatSession("sess-b"); err != nil {
		t.Fatalf("CreateChatSession: %v", err)
	}

	huge := strings.Repeat("x", maxMessageSize+500)
	m, err := db.AppendChatMessage("sess-b", "user", huge)
	if err != nil {
		t.Fatalf("AppendChatMessage: %v", err)
	}
	if len(m.Content) != maxMessageSize {
		t.Errorf("len(Content) = %d, want %d", len(m.Content), maxMessageSize)
	}
}

func TestChatMessagesOrderAndCascade(t *testing.T) {
	db := testDB(t)
	if _, err := db.CreateChatSession("sess-c"); err != nil {
		t.Fatalf("CreateChatSession: %v", err)
	}

	for _, turn := range []struct{ role, content string }{
		{"user", "how was my week?"},
		{"assistant", "mostly upbeat, a dip on wednesday"},
		{"user", "what helped?"},
	} {
		if _, err := db.AppendChatMessage("sess-c", turn.role, turn.content); err != nil {
			t.Fatalf("AppendChatMessage: %v", err)
		}
	}

	msgs, err := db.ChatMessages("sess-c", 0)
	if err != nil {
		t.Fatalf("ChatMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles = %q, %q; want user, assistant", msgs[0].Role, msgs[1].Role)
	}
	if msgs[2].Content != "what helped?" {
		t.Errorf("last message = %q, want the third turn", msgs[2].Content)
	}

	if err := db.DeleteChatSession("sess-c"); err != nil {
		t.Fatalf("DeleteChatSession: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM chat_messages").Scan(&n); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if n != 0 {
		t.Errorf("messages after session delete = %d, want 0", n)
	}
}

func TestSetChatTitleIfNew(t *testing.T) {
	db := testDB(t)
	if _, err := db.CreateChatSession("sess-d"); err != nil {
		t.Fatalf("CreateChatSession: %v", err)
	}

	if err := db.SetChatTitleIfNew("sess-d", "how was my week?"); err != nil {
		t.Fatalf("SetChatTitleIfNew: %v", err)
	}
	s, err := db.GetChatSession("sess-d")
	if err != nil {
		t.Fatalf("GetChatSession: %v", err)
	}
	if s.Title != "how was my week?" {
		t.Errorf("Title = %q, want first message", s.Title)
	}

	// Second set is a no-op
	if err := db.SetChatTitleIfNew("sess-d", "something else"); err != nil {
		t.Fatalf("SetChatTitleIfNew second: %v", err)
	}
	s, err = db.GetChatSession("sess-d")
	if err != nil {
		t.Fatalf("GetChatSession: %v", err)
	}
	if s.Title != "how was my week?" {
		t.Errorf("Title overwritten to %q", s.Title)
	}
}

func TestListChatSessionsOrder(t *testing.T) {
	db := testDB(t)
	if _, err := db.CreateChatSession("sess-old"); err != nil {
		t.Fatalf("CreateChatSession: %v", err)
	}
	if _, err := db.CreateChatSession("sess-new"); err != nil {
		t.Fatalf("CreateChatSession: %v", err)
	}

	// Touching the old session moves it to the front
	if _, err := db.Exec(
		"UPDATE chat_sessions SET updated_at = '2030-01-01T00:00:00' WHERE id = 'sess-old'",
	); err != nil {
		t.Fatalf("touch: %v", err)
	}

	sessions, err := db.ListChatSessions(10)
	if err != nil {
		t.Fatalf("ListChatSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len = %d, want 2", len(sessions))
	}
	if sessions[0].ID != "sess-old" {
		t.Errorf("sessions[0] = %q, want sess-old after touch", sessions[0].ID)
	}
}

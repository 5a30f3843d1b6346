package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/conversation"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "turns.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecentTurns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	turns := []domain.Turn{
		{Timestamp: base, Role: domain.RoleUser, Content: "check on me"},
		{Timestamp: base.Add(time.Second), Role: domain.RoleAssistant, Content: "what are you doing?"},
		{Timestamp: base.Add(2 * time.Second), Role: domain.RoleUser, Content: "writing tests"},
	}
	for _, turn := range turns {
		if err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	got, err := s.RecentTurns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d turns, want 3", len(got))
	}
	for i := range turns {
		if got[i].Role != turns[i].Role || got[i].Content != turns[i].Content {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], turns[i])
		}
	}
}

func TestRecentTurnsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		turn := domain.Turn{
			Timestamp: time.Now(),
			Role:      domain.RoleUser,
			Content:   string(rune('a' + i)),
		}
		if err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	got, err := s.RecentTurns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d turns, want 2", len(got))
	}
	// The newest two, oldest first.
	if got[0].Content != "d" || got[1].Content != "e" {
		t.Errorf("got %q then %q, want d then e", got[0].Content, got[1].Content)
	}
}

// TestHistorySurvivesRestart covers the archive's purpose: turns written by
// one process feed the next process's prompt history block.
func TestHistorySurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "turns.db")
	ctx := context.Background()

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	turns := []domain.Turn{
		{Timestamp: time.Now(), Role: domain.RoleUser, Content: "check on me"},
		{Timestamp: time.Now(), Role: domain.RoleAssistant, Content: "How is the report going?"},
	}
	for _, turn := range turns {
		if err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()

	archived, err := reopened.RecentTurns(ctx, conversation.PromptTurns)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	log := conversation.NewLog()
	log.Restore(archived)

	history := log.FormatHistory()
	if !strings.Contains(history, "User: check on me") {
		t.Errorf("history missing archived user turn: %q", history)
	}
	if !strings.Contains(history, "Assistant: How is the report going?") {
		t.Errorf("history missing archived assistant turn: %q", history)
	}
}

func TestRecentTurnsEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.RecentTurns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d turns from empty store", len(got))
	}
}

// Package conversation holds the bounded in-memory turn history, its
// rendering into a prompt block, and its JSON snapshot export.
package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
)

const (
	// maxTurns bounds the in-memory history; oldest turns are evicted first.
	maxTurns = 500
	// PromptTurns is how many recent turns are rendered into the system
	// prompt for the next session.
	PromptTurns = 10
)

// Log is an append-only, bounded conversation history. Appends come only
// from the receive loop; reads may come from anywhere.
type Log struct {
	mu    sync.Mutex
	turns []domain.Turn
	now   func() time.Time
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append records one turn, evicting the oldest when the bound is exceeded.
func (l *Log) Append(role domain.Role, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, domain.Turn{
		Timestamp: l.now(),
		Role:      role,
		Content:   content,
	})
	if len(l.turns) > maxTurns {
		l.turns = l.turns[len(l.turns)-maxTurns:]
	}
}

// Restore replaces the log contents with previously archived turns,
// keeping their original timestamps. Used at startup so the prompt history
// block carries over across process restarts.
func (l *Log) Restore(turns []domain.Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	l.turns = append(l.turns[:0], turns...)
}

// Len returns the number of stored turns.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Recent returns a copy of the most recent n turns in chronological order.
func (l *Log) Recent(n int) []domain.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.turns) {
		n = len(l.turns)
	}
	out := make([]domain.Turn, n)
	copy(out, l.turns[len(l.turns)-n:])
	return out
}

// FormatHistory renders the most recent turns as a transcript block for
// injection into the next session's system prompt. Returns "" when the log
// is empty.
func (l *Log) FormatHistory() string {
	recent := l.Recent(PromptTurns)
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n--- Previous Conversation Summary ---\n")
	for _, t := range recent {
		b.WriteString(titleCase(string(t.Role)))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	b.WriteString("--- End of Conversation Summary ---\n")
	return b.String()
}

// SaveSnapshot writes the full history as a JSON array to path, creating
// parent directories and replacing the file atomically. When path is empty a
// timestamped file under dir is used.
func (l *Log) SaveSnapshot(dir, path string) (string, error) {
	if path == "" {
		path = filepath.Join(dir, "conversation_history_"+l.now().Format("20060102_150405")+".json")
	} else if filepath.Dir(path) == "." {
		path = filepath.Join(dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating history dir: %w", err)
	}

	l.mu.Lock()
	turns := make([]domain.Turn, len(l.turns))
	copy(turns, l.turns)
	l.mu.Unlock()

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling history: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replacing history file: %w", err)
	}
	return path, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

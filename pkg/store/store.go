// Package store defines the persistence contract for conversation turns.
package store

import (
	"context"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
)

// TurnStore archives conversation turns across process restarts. Writes are
// best effort from the agent's perspective: archive failures are logged and
// never abort a check-in cycle.
type TurnStore interface {
	// AppendTurn persists one turn.
	AppendTurn(ctx context.Context, turn domain.Turn) error

	// RecentTurns returns up to limit of the most recent turns in
	// chronological order.
	RecentTurns(ctx context.Context, limit int) ([]domain.Turn, error)

	// Close releases the underlying storage.
	Close() error
}

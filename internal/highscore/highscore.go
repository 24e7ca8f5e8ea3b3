// Package highscore keeps the best completion time per board configuration.
package highscore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

// NoScore is reported for keys that have no recorded time yet.
const NoScore = -1

var ErrNotFound = errors.New("score not found")

// Store maps string keys to a time in whole seconds. Get returns
// [ErrNotFound] for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (int, error)
	Set(ctx context.Context, key string, seconds int) error
}

func Key(params mines.GameParams) string {
	return params.Seed()
}

func PlayerKey(username string, params mines.GameParams) string {
	return username + "@" + params.Seed()
}

// Board is safe for concurrent use. Submit holds a lock across its read and
// write, so a slower time never overwrites a faster one within a process.
type Board struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
}

func NewBoard(store Store, logger *slog.Logger) *Board {
	return &Board{store: store, logger: logger}
}

// Best returns the recorded time for key or [NoScore].
func (b *Board) Best(ctx context.Context, key string) (int, error) {
	seconds, err := b.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return NoScore, nil
	}
	if err != nil {
		return NoScore, fmt.Errorf("unable to read best time for %s: %w", key, err)
	}
	return seconds, nil
}

// Submit records seconds under key if it beats the current best.
func (b *Board) Submit(ctx context.Context, key string, seconds int) (improved bool, err error) {
	if seconds < 0 {
		return false, fmt.Errorf("negative time %d", seconds)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	best, err := b.Best(ctx, key)
	if err != nil {
		return false, err
	}
	if best != NoScore && best <= seconds {
		return false, nil
	}
	if err := b.store.Set(ctx, key, seconds); err != nil {
		return false, fmt.Errorf("unable to store best time for %s: %w", key, err)
	}
	b.logger.Debug("new best time", "key", key, "seconds", seconds, "previous", best)
	return true, nil
}

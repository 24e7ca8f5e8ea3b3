// Package session keeps the games played through the server in memory.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var ErrNotFound = errors.New("game session not found")

// Session wraps a game with its owner and timings. All access to the game
// goes through Do, which serializes moves.
type Session struct {
	ID    uuid.UUID
	Owner string

	mu         sync.Mutex
	game       *mines.Game
	now        func() time.Time
	startedAt  time.Time
	endedAt    time.Time
	lastActive time.Time
}

// Result is what a move produced.
type Result struct {
	Snapshot mines.Snapshot
	// Finished is set only by the move that ended the game.
	Finished bool
	Elapsed  time.Duration
}

type Info struct {
	ID        uuid.UUID        `json:"id"`
	Owner     string           `json:"owner,omitempty"`
	Params    mines.GameParams `json:"params"`
	StartedAt *time.Time       `json:"started_at,omitempty"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
	Elapsed   int              `json:"elapsed"`
}

// Do runs fn with exclusive access to the game and updates the timings from
// the status change it caused.
func (s *Session) Do(fn func(*mines.Game) (mines.Snapshot, error)) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lastActive = now

	before := s.game.Status()
	snapshot, err := fn(s.game)
	after := s.game.Status()

	switch {
	case after == mines.NotStarted:
		s.startedAt, s.endedAt = time.Time{}, time.Time{}
	case before == mines.NotStarted:
		s.startedAt = now
	}
	finished := !before.Terminal() && after.Terminal()
	if finished {
		s.endedAt = now
	}

	return Result{
		Snapshot: snapshot,
		Finished: finished,
		Elapsed:  s.elapsed(now),
	}, err
}

func (s *Session) Snapshot() mines.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

func (s *Session) Params() mines.GameParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Params()
}

func (s *Session) elapsed(now time.Time) time.Duration {
	switch {
	case s.startedAt.IsZero():
		return 0
	case !s.endedAt.IsZero():
		return s.endedAt.Sub(s.startedAt)
	default:
		return now.Sub(s.startedAt)
	}
}

// Elapsed is the time since the first reveal, frozen once the game ends.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed(s.now())
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		ID:      s.ID,
		Owner:   s.Owner,
		Params:  s.game.Params(),
		Elapsed: int(s.elapsed(s.now()) / time.Second),
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		info.StartedAt = &startedAt
	}
	if !s.endedAt.IsZero() {
		endedAt := s.endedAt
		info.EndedAt = &endedAt
	}
	return info
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithGameOptions are applied to every game the registry creates.
func WithGameOptions(opts ...mines.Option) Option {
	return func(r *Registry) {
		r.gameOpts = append(r.gameOpts, opts...)
	}
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *slog.Logger
	now      func() time.Time
	gameOpts []mines.Option
}

func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new game. Each game gets its own random source unless a
// generator was set through [WithGameOptions].
func (r *Registry) Create(params mines.GameParams, owner string) (*Session, error) {
	opts := append([]mines.Option{
		mines.WithRand(mines.NewRand()),
		mines.WithLogger(r.logger),
	}, r.gameOpts...)
	game, err := mines.NewGame(params, opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.New(),
		Owner:      owner,
		game:       game,
		now:        r.now,
		lastActive: r.now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("created game session", "id", s.ID, "params", params, "owner", owner)
	return s, nil
}

func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Lookup parses id and returns its session.
func (r *Registry) Lookup(id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return r.Get(parsed)
}

func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions untouched for longer than maxIdle and reports how
// many were dropped.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			pruned++
		}
	}
	return pruned
}

// Janitor prunes idle sessions every interval until ctx is done.
func (r *Registry) Janitor(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Prune(maxIdle); n > 0 {
				r.logger.Info("pruned idle game sessions", "count", n, "left", r.Len())
			}
		}
	}
}

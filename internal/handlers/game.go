package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/middleware"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

type move func(*mines.Game) (mines.Snapshot, error)

type GameHandler struct {
	logger   *slog.Logger
	sessions *session.Registry
	scores   *highscore.Board
	ws       *config.WebSocket
}

func NewGameHandler(
	logger *slog.Logger,
	sessions *session.Registry,
	scores *highscore.Board,
	ws *config.WebSocket,
) *GameHandler {
	return &GameHandler{
		logger:   logger,
		sessions: sessions,
		scores:   scores,
		ws:       ws,
	}
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseNewGameDTO(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	params, err := dto.GameParams()
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	var owner string
	if claims, ok := middleware.PlayerClaims(r.Context()); ok {
		owner = claims.Username
	}

	s, err := g.sessions.Create(params, owner)
	if err != nil {
		sendFailure(w, g.logger, err)
		return
	}

	sendJSONOrLog(w, g.logger, http.StatusCreated, GameDTO{
		Info:     s.Info(),
		Snapshot: s.Snapshot(),
	})
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s, err := g.sessions.Lookup(r.PathValue("id"))
	if err != nil {
		sendFailure(w, g.logger, err)
		return
	}
	sendJSONOrLog(w, g.logger, http.StatusOK, GameDTO{
		Info:     s.Info(),
		Snapshot: s.Snapshot(),
	})
}

func (g GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, err := g.sessions.Lookup(r.PathValue("id"))
	if err != nil {
		sendFailure(w, g.logger, err)
		return
	}
	g.sessions.Delete(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (g GameHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	g.handlePointMove(w, r, func(row, col int) move {
		return func(game *mines.Game) (mines.Snapshot, error) {
			return game.Reveal(row, col)
		}
	})
}

func (g GameHandler) Flag(w http.ResponseWriter, r *http.Request) {
	g.handlePointMove(w, r, func(row, col int) move {
		return func(game *mines.Game) (mines.Snapshot, error) {
			return game.ToggleFlag(row, col)
		}
	})
}

func (g GameHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := g.sessions.Lookup(r.PathValue("id"))
	if err != nil {
		sendFailure(w, g.logger, err)
		return
	}
	g.play(w, r, s, resetGame)
}

func resetGame(game *mines.Game) (mines.Snapshot, error) {
	return game.Reset(), nil
}

func (g GameHandler) handlePointMove(
	w http.ResponseWriter, r *http.Request, newMove func(row, col int) move,
) {
	point, err := ParsePointDTO(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	s, err := g.sessions.Lookup(r.PathValue("id"))
	if err != nil {
		sendFailure(w, g.logger, err)
		return
	}

	g.play(w, r, s, newMove(point.Row, point.Col))
}

func (g GameHandler) play(w http.ResponseWriter, r *http.Request, s *session.Session, m move) {
	dto, err := g.apply(r.Context(), s, m)
	if err != nil {
		sendFailure(w, g.logger, err)
		return
	}
	sendJSONOrLog(w, g.logger, http.StatusOK, dto)
}

// apply runs m on the session and records the time of a won game.
func (g GameHandler) apply(ctx context.Context, s *session.Session, m move) (*GameDTO, error) {
	res, err := s.Do(m)
	if err != nil {
		return nil, err
	}

	dto := &GameDTO{Info: s.Info(), Snapshot: res.Snapshot}
	if res.Finished && res.Snapshot.Status == mines.Won {
		dto.NewBest = g.recordWin(ctx, s, res.Elapsed)
	}
	return dto, nil
}

// recordWin reports whether the time beat the global best. Store failures
// are logged and never fail the move.
func (g GameHandler) recordWin(ctx context.Context, s *session.Session, elapsed time.Duration) bool {
	params := s.Params()
	seconds := int(elapsed / time.Second)

	improved, err := g.scores.Submit(ctx, highscore.Key(params), seconds)
	if err != nil {
		g.logger.Error("unable to submit best time", slog.Any("error", err))
	}

	if s.Owner != "" {
		_, err := g.scores.Submit(ctx, highscore.PlayerKey(s.Owner, params), seconds)
		if err != nil {
			g.logger.Error("unable to submit player best time", slog.Any("error", err))
		}
	}

	g.logger.Info(
		"game won",
		slog.String("id", s.ID.String()),
		slog.String("seed", params.Seed()),
		slog.Int("seconds", seconds),
		slog.Bool("newBest", improved),
	)
	return improved
}

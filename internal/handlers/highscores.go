package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/repository"
)

// BestTimeLister lists stored records. The Postgres queries implement it.
type BestTimeLister interface {
	ListBestTimes(ctx context.Context, filter repository.BestTimeFilter) ([]repository.BestTime, error)
}

type HighscoreHandler struct {
	logger *slog.Logger
	scores *highscore.Board
	lister BestTimeLister
}

// NewHighscoreHandler accepts a nil lister, in which case listing is not
// available.
func NewHighscoreHandler(
	logger *slog.Logger, scores *highscore.Board, lister BestTimeLister,
) *HighscoreHandler {
	return &HighscoreHandler{logger: logger, scores: scores, lister: lister}
}

func (h HighscoreHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseHighscoreDTO(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}

	params, err := mines.ParseSeed(dto.Seed)
	if err != nil {
		sendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}

	key := highscore.Key(*params)
	if dto.Username != "" {
		key = highscore.PlayerKey(dto.Username, *params)
	}

	seconds, err := h.scores.Best(r.Context(), key)
	if err != nil {
		sendFailure(w, h.logger, err)
		return
	}

	sendJSONOrLog(w, h.logger, http.StatusOK, BestTimeDTO{Key: key, Seconds: seconds})
}

func (h HighscoreHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	filter := repository.BestTimeFilter{}
	if query := r.URL.Query(); query.Has("prefix") {
		prefix := query.Get("prefix")
		filter.Prefix = &prefix
	}

	bestTimes, err := h.lister.ListBestTimes(r.Context(), filter)
	if err != nil {
		h.logger.Error(
			"unable to list best times",
			slog.Any("error", err),
			slog.Any("filter", filter),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	dtos := make([]BestTimeDTO, len(bestTimes))
	for i, bt := range bestTimes {
		dtos[i] = BestTimeDTO{Key: bt.Key, Seconds: bt.Seconds}
	}
	sendJSONOrLog(w, h.logger, http.StatusOK, dtos)
}

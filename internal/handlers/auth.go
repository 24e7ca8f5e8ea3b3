package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/middleware"
	"github.com/vancomm/minesweeper-engine/internal/repository"
)

// Players is the part of the player repository the auth handlers use.
type Players interface {
	CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(ctx context.Context, username string) (*repository.Player, error)
}

type AuthHandler struct {
	logger  *slog.Logger
	players Players
	cookies *config.Cookies
}

func NewAuthHandler(
	logger *slog.Logger,
	players Players,
	cookies *config.Cookies,
) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		players: players,
		cookies: cookies,
	}
}

type PlayerInfo struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

var (
	ErrBadAuthBody        = errors.New("request body must contain url-encoded username and password")
	ErrBadPasswordTooLong = errors.New("password too long")
	ErrBadCredentials     = errors.New("wrong username or password")
)

func (a AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.logger, http.StatusOK, Status{LoggedIn: false})
		return
	}

	a.logger.Debug("refresh cookies", slog.String("username", claims.Username))
	if err := a.cookies.Issue(w, claims.PlayerId, claims.Username); err != nil {
		a.logger.Error("unable to refresh cookies", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sendJSONOrLog(w, a.logger, http.StatusOK, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{claims.PlayerId, claims.Username},
	})
}

func parseCredentials(r *http.Request) (username, password string, err error) {
	if err := r.ParseForm(); err != nil {
		return "", "", ErrBadAuthBody
	}
	username = r.FormValue("username")
	password = r.FormValue("password")
	if username == "" || password == "" {
		return "", "", ErrBadAuthBody
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return "", "", ErrBadPasswordTooLong
	}
	return username, password, nil
}

func (a AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username, password, err := parseCredentials(r)
	if err != nil {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		a.logger.Error("unable to hash password", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	player, err := a.players.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrUsernameTaken) {
		sendErrorOrLog(w, a.logger, http.StatusConflict, err)
		return
	}
	if err != nil {
		a.logger.Error("unable to insert player", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := a.cookies.Issue(w, player.PlayerId, player.Username); err != nil {
		a.logger.Error("unable to issue cookies", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sendJSONOrLog(w, a.logger, http.StatusCreated, PlayerInfo{player.PlayerId, player.Username})
}

func (a AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, err := parseCredentials(r)
	if err != nil {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, err)
		return
	}

	player, err := a.players.FetchPlayer(r.Context(), username)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		sendErrorOrLog(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}
	if err != nil {
		a.logger.Error("unable to fetch player", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	err = bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(password))
	if err != nil {
		sendErrorOrLog(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}

	if err := a.cookies.Issue(w, player.PlayerId, player.Username); err != nil {
		a.logger.Error("unable to issue cookies", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sendJSONOrLog(w, a.logger, http.StatusOK, PlayerInfo{player.PlayerId, player.Username})
}

func (a AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

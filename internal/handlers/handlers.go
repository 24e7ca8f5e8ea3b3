package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

func SendJSON(w http.ResponseWriter, statusCode int, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, logger *slog.Logger, statusCode int, v any) {
	_, err := SendJSON(w, statusCode, v)
	if err != nil {
		logger.Error(
			"unable to send response",
			slog.Any("response", v),
			slog.Any("error", err),
		)
	}
}

func sendErrorOrLog(w http.ResponseWriter, logger *slog.Logger, statusCode int, err error) {
	sendJSONOrLog(w, logger, statusCode, wrapError(err))
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

// statusFor maps engine and session errors to HTTP status codes.
func statusFor(err error) int {
	var assertion mines.AssertionError
	switch {
	case errors.As(err, &assertion):
		return http.StatusInternalServerError
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mines.ErrInvalidConfiguration),
		errors.Is(err, mines.ErrOutOfBounds),
		errors.Is(err, mines.ErrTooManyMines):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sendFailure reports err to the client, hiding the details of internal
// errors.
func sendFailure(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
		sendErrorOrLog(w, logger, status, errors.New(http.StatusText(status)))
		return
	}
	sendErrorOrLog(w, logger, status, err)
}

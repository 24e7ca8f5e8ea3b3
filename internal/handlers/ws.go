package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

type wsCommand string

const (
	wsFetch  wsCommand = "g"
	wsReveal wsCommand = "r"
	wsFlag   wsCommand = "f"
	wsReset  wsCommand = "n"
)

var errUnknownCommand = errors.New("unknown command")

func parseRowCol(args []string) (row int, col int, err error) {
	if len(args) != 2 {
		err = fmt.Errorf("expected two arguments, got %d", len(args))
		return
	}
	if row, err = strconv.Atoi(args[0]); err != nil {
		err = fmt.Errorf("row must be an int")
		return
	}
	if col, err = strconv.Atoi(args[1]); err != nil {
		err = fmt.Errorf("col must be an int")
		return
	}
	return
}

// parseCommand turns one line like "r 3 4" into a move. A nil move with a
// nil error only asks for the current state.
func parseCommand(line string) (move, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, errUnknownCommand
	}
	cmd, args := wsCommand(tokens[0]), tokens[1:]
	switch cmd {
	case wsFetch:
		return nil, nil
	case wsReset:
		return resetGame, nil
	case wsReveal, wsFlag:
		row, col, err := parseRowCol(args)
		if err != nil {
			return nil, err
		}
		if cmd == wsReveal {
			return func(g *mines.Game) (mines.Snapshot, error) {
				return g.Reveal(row, col)
			}, nil
		}
		return func(g *mines.Game) (mines.Snapshot, error) {
			return g.ToggleFlag(row, col)
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownCommand, cmd)
	}
}

// wsRunGameLoop executes every line of each text message as a command and
// answers with the resulting game state, or with an error object.
func (g GameHandler) wsRunGameLoop(
	ctx context.Context, conn *websocket.Conn, s *session.Session,
) error {
	for {
		mt, buf, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			return nil
		}

		var reply any = GameDTO{Info: s.Info(), Snapshot: s.Snapshot()}

		message := strings.TrimSpace(string(buf))
		for _, line := range strings.Split(message, "\n") {
			m, err := parseCommand(line)
			if err != nil {
				reply = wrapError(err)
				break
			}
			if m == nil {
				continue
			}
			dto, err := g.apply(ctx, s, m)
			if err != nil {
				if statusFor(err) == http.StatusInternalServerError {
					return err
				}
				reply = wrapError(err)
				break
			}
			reply = dto
		}

		if err := conn.WriteJSON(reply); err != nil {
			return fmt.Errorf("unable to write json: %w", err)
		}
	}
}

func (g GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	s, err := g.sessions.Lookup(r.PathValue("id"))
	if err != nil {
		sendFailure(w, g.logger, err)
		return
	}

	conn, err := g.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		g.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	g.logger.Debug("established WS connection", slog.String("id", s.ID.String()))

	err = g.wsRunGameLoop(r.Context(), conn, s)
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		g.logger.Warn("error in ws loop", slog.Any("error", err))
	}
}

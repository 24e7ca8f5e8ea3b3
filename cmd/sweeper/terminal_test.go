package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/store"
)

func newTestTerminal(t *testing.T, input string) (*terminal, *bytes.Buffer, *highscore.Board) {
	t.Helper()
	log.SetOutput(io.Discard)

	params, gen, err := mines.ParseLayout("*../.../..*")
	require.NoError(t, err)
	game, err := mines.NewGame(params, mines.WithGenerator(gen))
	require.NoError(t, err)

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), "best_times")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	board := highscore.NewBoard(store.Scores{Store: s}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var out bytes.Buffer
	term := newTerminal(strings.NewReader(input), &out, game, board)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	term.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return term, &out, board
}

func TestTerminalWin(t *testing.T) {
	input := "h\nr 0 1\nf 0 0\nr 1 0\nr 1 1\nr 1 2\nr 2 1\nr 0 2\nr 2 0\nq\nr 2 2\n"
	term, out, board := newTestTerminal(t, input)

	require.NoError(t, term.run(context.Background()))

	assert.Contains(t, out.String(), "3:3:2: no best time yet")
	assert.Contains(t, out.String(), "commands:")
	assert.Contains(t, out.String(), "You won in 1s!")
	assert.Contains(t, out.String(), "New best time!")
	assert.NotContains(t, out.String(), "Boom!", "input after q is ignored")
	assert.Equal(t, mines.Won, term.game.Status())

	best, err := board.Best(context.Background(), "3:3:2")
	require.NoError(t, err)
	assert.Equal(t, 1, best)
}

func TestTerminalPracticeWinNotRecorded(t *testing.T) {
	input := "r 0 1\nr 1 0\nr 1 1\nr 1 2\nr 2 1\nr 0 2\nr 2 0\n"
	term, out, board := newTestTerminal(t, input)
	term.practice = true

	require.NoError(t, term.run(context.Background()))

	assert.Equal(t, mines.Won, term.game.Status())
	assert.Contains(t, out.String(), "You won in 1s!")
	assert.Contains(t, out.String(), "Practice board, time not recorded.")
	assert.NotContains(t, out.String(), "New best time!")

	best, err := board.Best(context.Background(), "3:3:2")
	require.NoError(t, err)
	assert.Equal(t, highscore.NoScore, best)
}

func TestTerminalLossAndErrors(t *testing.T) {
	input := "x\nr 1\nr 5 5\nr 1 1\nr 2 2\nn\n"
	term, out, _ := newTestTerminal(t, input)

	require.NoError(t, term.run(context.Background()))

	assert.Contains(t, out.String(), `unknown command "x"`)
	assert.Contains(t, out.String(), "expected ROW COL")
	assert.Contains(t, out.String(), "out of bounds")
	assert.Contains(t, out.String(), "Boom!")
	assert.Equal(t, mines.NotStarted, term.game.Status(), "n starts over")
	assert.True(t, term.started.IsZero())
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/mines"
)

const help = `commands:
  r ROW COL   reveal a cell
  f ROW COL   toggle a flag
  n           new game
  q           quit
`

var errQuit = errors.New("quit")

type terminal struct {
	in      *bufio.Scanner
	out     io.Writer
	game    *mines.Game
	board   *highscore.Board
	now     func() time.Time
	started time.Time

	// practice games are played on a fixed layout and never scored
	practice bool
}

func newTerminal(in io.Reader, out io.Writer, game *mines.Game, board *highscore.Board) *terminal {
	return &terminal{
		in:    bufio.NewScanner(in),
		out:   out,
		game:  game,
		board: board,
		now:   time.Now,
	}
}

func (t *terminal) run(ctx context.Context) error {
	t.printBest(ctx)
	fmt.Fprint(t.out, t.game.Snapshot())
	fmt.Fprint(t.out, "> ")

	for t.in.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		err := t.execute(ctx, strings.TrimSpace(t.in.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(t.out, err)
		}
		fmt.Fprint(t.out, "> ")
	}
	return t.in.Err()
}

func (t *terminal) execute(ctx context.Context, line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil
	}

	switch cmd, args := tokens[0], tokens[1:]; cmd {
	case "q":
		return errQuit
	case "h", "?":
		fmt.Fprint(t.out, help)
		return nil
	case "n":
		t.started = time.Time{}
		fmt.Fprint(t.out, t.game.Reset())
		return nil
	case "r", "f":
		row, col, err := parseRowCol(args)
		if err != nil {
			return err
		}
		before := t.game.Status()
		var snapshot mines.Snapshot
		if cmd == "r" {
			snapshot, err = t.game.Reveal(row, col)
		} else {
			snapshot, err = t.game.ToggleFlag(row, col)
		}
		if err != nil {
			return err
		}
		fmt.Fprint(t.out, snapshot)
		t.afterMove(ctx, before, snapshot.Status)
		return nil
	default:
		return fmt.Errorf("unknown command %q, try h", cmd)
	}
}

func (t *terminal) afterMove(ctx context.Context, before, after mines.Status) {
	if before == mines.NotStarted && after != mines.NotStarted {
		t.started = t.now()
	}
	if before.Terminal() || !after.Terminal() {
		return
	}

	if after == mines.Lost {
		fmt.Fprintln(t.out, "Boom! Game over, n for a new one.")
		return
	}

	seconds := int(t.now().Sub(t.started) / time.Second)
	fmt.Fprintf(t.out, "You won in %ds!\n", seconds)

	if t.practice {
		fmt.Fprintln(t.out, "Practice board, time not recorded.")
		log.WithField("seconds", seconds).Info("practice game won")
		return
	}

	key := highscore.Key(t.game.Params())
	improved, err := t.board.Submit(ctx, key, seconds)
	if err != nil {
		log.WithError(err).Error("unable to save best time")
		return
	}
	if improved {
		fmt.Fprintln(t.out, "New best time!")
	}
	log.WithFields(logrus.Fields{
		"seed":     key,
		"seconds":  seconds,
		"improved": improved,
	}).Info("game won")
}

func (t *terminal) printBest(ctx context.Context) {
	key := highscore.Key(t.game.Params())
	best, err := t.board.Best(ctx, key)
	if err != nil {
		log.WithError(err).Warn("unable to read best time")
		return
	}
	if best == highscore.NoScore {
		fmt.Fprintf(t.out, "%s: no best time yet\n", key)
		return
	}
	fmt.Fprintf(t.out, "%s: best time %ds\n", key, best)
}

func parseRowCol(args []string) (row int, col int, err error) {
	if len(args) != 2 {
		err = fmt.Errorf("expected ROW COL")
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

package mines

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

var Log *slog.Logger = slog.Default()

type Status int8

const (
	NotStarted Status = iota
	InProgress
	Won
	Lost
)

var statusNames = [...]string{
	NotStarted: "not_started",
	InProgress: "in_progress",
	Won:        "won",
	Lost:       "lost",
}

func (s Status) String() string {
	if 0 <= s && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int8(s))
}

func (s Status) Terminal() bool {
	return s == Won || s == Lost
}

// [Status] implements [encoding.TextMarshaler]
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown game status %q", text)
}

type Option func(*Game)

func WithRand(r *rand.Rand) Option {
	return func(g *Game) {
		g.gen = NewRandomGenerator(r)
	}
}

func WithGenerator(gen Generator) Option {
	return func(g *Game) {
		g.gen = gen
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Game) {
		g.log = logger
	}
}

// Game is a single minesweeper game. Mines are planted on the first reveal,
// never under the revealed cell. A Game is not safe for concurrent use.
type Game struct {
	params         GameParams
	grid           Grid
	status         Status
	minesRemaining int
	started        bool
	exploded       *Point
	gen            Generator
	log            *slog.Logger
}

func NewGame(params GameParams, opts ...Option) (*Game, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		params: params,
		log:    Log,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.gen == nil {
		g.gen = NewRandomGenerator(NewRand())
	}
	g.reset()
	return g, nil
}

func (g *Game) Params() GameParams  { return g.params }
func (g *Game) Status() Status      { return g.status }
func (g *Game) MinesRemaining() int { return g.minesRemaining }
func (g *Game) Started() bool       { return g.started }

func (g *Game) reset() {
	g.grid = NewGrid(g.params.Height, g.params.Width)
	g.status = NotStarted
	g.minesRemaining = g.params.MineCount
	g.started = false
	g.exploded = nil
}

// Reset discards the current grid and starts over with the same params.
func (g *Game) Reset() Snapshot {
	g.reset()
	return g.Snapshot()
}

// Reconfigure resets the game with new params. Invalid params leave the game
// as it was.
func (g *Game) Reconfigure(params GameParams) (Snapshot, error) {
	if err := params.Validate(); err != nil {
		return g.Snapshot(), err
	}
	g.params = params
	g.reset()
	return g.Snapshot(), nil
}

func (g *Game) checkBounds(row, col int) error {
	if !g.params.PointInBounds(row, col) {
		return fmt.Errorf(
			"%w: (%d,%d) on a %dx%d grid",
			ErrOutOfBounds, row, col, g.params.Height, g.params.Width,
		)
	}
	return nil
}

func (g *Game) Reveal(row, col int) (Snapshot, error) {
	if err := g.checkBounds(row, col); err != nil {
		return g.Snapshot(), err
	}
	if err := g.reveal(Point{row, col}); err != nil {
		return g.Snapshot(), err
	}
	return g.Snapshot(), nil
}

func (g *Game) ToggleFlag(row, col int) (Snapshot, error) {
	if err := g.checkBounds(row, col); err != nil {
		return g.Snapshot(), err
	}
	g.toggleFlag(Point{row, col})
	return g.Snapshot(), nil
}

func (g *Game) plant(start Point) error {
	grid, err := g.gen.Generate(g.params, start)
	if err != nil {
		return fmt.Errorf("unable to generate grid: %w", err)
	}
	if grid.Height() != g.params.Height || grid.Width() != g.params.Width {
		return AssertionError{"generated grid has wrong dimensions"}
	}
	if grid.Count(isMine) != g.params.MineCount {
		return AssertionError{"generated grid has wrong mine count"}
	}
	if grid.At(start).IsMine {
		return AssertionError{"mine in starting cell"}
	}
	g.grid = grid
	g.started = true
	g.log.Debug("planted mines", "params", g.params, "start", start)
	return nil
}

func (g *Game) reveal(p Point) error {
	if g.status.Terminal() {
		return nil
	}
	if cell := g.grid.At(p); cell.IsRevealed || cell.IsFlagged {
		return nil
	}

	if !g.started {
		if err := g.plant(p); err != nil {
			return err
		}
	}

	cell := g.grid.At(p)
	if cell.IsMine {
		g.status = Lost
		g.exploded = &p
		g.grid.revealAll()
		g.log.Debug("game lost", "exploded", p)
		return nil
	}

	cell.IsFlagged = false
	cell.IsRevealed = true
	if cell.IsEmpty {
		g.floodFill(p)
	}

	/*
	 * If exactly as many cells are still covered as there are mines,
	 * the player has won.
	 */
	if g.grid.Count(isHidden) == g.params.MineCount {
		g.win()
		return nil
	}

	g.status = InProgress
	return nil
}

// floodFill opens every cell reachable from start through empty cells. The
// revealed flag doubles as the visited marker, so each cell is pushed once.
func (g *Game) floodFill(start Point) {
	height, width := g.params.Height, g.params.Width
	todo := []Point{start}
	for len(todo) > 0 {
		p := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		for q := range Neighbors(p, height, width) {
			cell := g.grid.At(q)
			if cell.IsRevealed || cell.IsFlagged || cell.IsMine {
				continue
			}
			cell.IsRevealed = true
			if cell.IsEmpty {
				todo = append(todo, q)
			}
		}
	}
}

func (g *Game) toggleFlag(p Point) {
	if !g.started || g.status.Terminal() {
		return
	}
	cell := g.grid.At(p)
	if cell.IsRevealed {
		return
	}

	if cell.IsFlagged {
		cell.IsFlagged = false
		g.minesRemaining++
		return
	}

	if g.minesRemaining == 0 {
		return
	}
	cell.IsFlagged = true
	g.minesRemaining--

	if g.minesRemaining == 0 && g.flagsMatchMines() {
		g.win()
	}
}

func (g *Game) flagsMatchMines() bool {
	for cell := range g.grid.Cells() {
		if cell.IsFlagged != cell.IsMine {
			return false
		}
	}
	return true
}

func (g *Game) win() {
	g.status = Won
	g.grid.revealAll()
	g.log.Debug("game won", "params", g.params)
}

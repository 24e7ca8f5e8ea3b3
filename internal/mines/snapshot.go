package mines

import (
	"fmt"
	"strconv"
	"strings"
)

// CellView is what a player may know about a cell. Mine and
// NeighborMineCount are only filled in for revealed cells.
type CellView struct {
	Revealed          bool `json:"revealed"`
	Flagged           bool `json:"flagged"`
	Mine              bool `json:"mine"`
	Exploded          bool `json:"exploded,omitempty"`
	NeighborMineCount int  `json:"neighbor_mine_count"`
}

type Snapshot struct {
	Height         int          `json:"height"`
	Width          int          `json:"width"`
	MineCount      int          `json:"mine_count"`
	MinesRemaining int          `json:"mines_remaining"`
	Status         Status       `json:"status"`
	Cells          [][]CellView `json:"cells"`
}

// Snapshot copies the player-visible state. The result shares nothing with
// the game and stays valid after further moves.
func (g *Game) Snapshot() Snapshot {
	cells := make([][]CellView, len(g.grid))
	for row := range g.grid {
		cells[row] = make([]CellView, len(g.grid[row]))
		for col, cell := range g.grid[row] {
			view := CellView{
				Revealed: cell.IsRevealed,
				Flagged:  cell.IsFlagged,
			}
			if cell.IsRevealed {
				view.Mine = cell.IsMine
				view.NeighborMineCount = cell.NeighborMineCount
			}
			cells[row][col] = view
		}
	}
	if g.exploded != nil {
		cells[g.exploded.Row][g.exploded.Col].Exploded = true
	}
	return Snapshot{
		Height:         g.params.Height,
		Width:          g.params.Width,
		MineCount:      g.params.MineCount,
		MinesRemaining: g.minesRemaining,
		Status:         g.status,
		Cells:          cells,
	}
}

func (s Snapshot) At(row, col int) CellView {
	return s.Cells[row][col]
}

type CellState int8

const (
	Unknown          CellState = -2
	Flagged          CellState = -1
	CorrectlyFlagged CellState = 64
	ExplodedMine     CellState = 65
	FalselyFlagged   CellState = 66
	UnflaggedMine    CellState = 67
	/*
	 * 0 to 8 mean the cell is open and has that many mines around it.
	 * Values from 64 up only appear once the game is over.
	 */
)

func (v CellView) State() CellState {
	switch {
	case !v.Revealed && v.Flagged:
		return Flagged
	case !v.Revealed:
		return Unknown
	case v.Exploded:
		return ExplodedMine
	case v.Mine && v.Flagged:
		return CorrectlyFlagged
	case v.Mine:
		return UnflaggedMine
	case v.Flagged:
		return FalselyFlagged
	default:
		return CellState(v.NeighborMineCount)
	}
}

func (s CellState) String() string {
	switch {
	case s == Unknown:
		return "#"
	case s == Flagged, s == CorrectlyFlagged:
		return "F"
	case s == ExplodedMine:
		return "X"
	case s == FalselyFlagged:
		return "x"
	case s == UnflaggedMine:
		return "*"
	case s == 0:
		return "."
	case 1 <= s && s <= 8:
		return strconv.Itoa(int(s))
	default:
		return "!"
	}
}

// String draws the board with row and column numbers.
func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3s", "")
	for col := range s.Width {
		fmt.Fprintf(&b, "%2d", col%100)
	}
	fmt.Fprint(&b, "\n")
	for row := range s.Height {
		fmt.Fprintf(&b, "%3d", row)
		for col := range s.Width {
			fmt.Fprintf(&b, "%2s", s.Cells[row][col].State())
		}
		fmt.Fprint(&b, "\n")
	}
	fmt.Fprintf(&b, "%s, %d mines left\n", s.Status, s.MinesRemaining)
	return b.String()
}

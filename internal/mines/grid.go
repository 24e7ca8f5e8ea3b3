package mines

import (
	"fmt"
	"iter"
)

type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

type Cell struct {
	Row, Col          int
	IsMine            bool
	NeighborMineCount int
	IsEmpty           bool // !IsMine && NeighborMineCount == 0
	IsRevealed        bool
	IsFlagged         bool
}

// Grid is addressed as grid[row][col]. Every row has the same length.
type Grid [][]Cell

func NewGrid(height, width int) Grid {
	grid := make(Grid, height)
	for row := range height {
		grid[row] = make([]Cell, width)
		for col := range width {
			grid[row][col] = Cell{Row: row, Col: col}
		}
	}
	return grid
}

func (g Grid) Height() int {
	return len(g)
}

func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) InBounds(p Point) bool {
	return 0 <= p.Row && p.Row < g.Height() && 0 <= p.Col && p.Col < g.Width()
}

func (g Grid) At(p Point) *Cell {
	return &g[p.Row][p.Col]
}

// Cells iterates over every cell in row-major order.
func (g Grid) Cells() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for row := range g {
			for col := range g[row] {
				if !yield(&g[row][col]) {
					return
				}
			}
		}
	}
}

func (g Grid) Count(match func(*Cell) bool) (n int) {
	for cell := range g.Cells() {
		if match(cell) {
			n++
		}
	}
	return
}

func (g Grid) Mines() []Point {
	var mines []Point
	for cell := range g.Cells() {
		if cell.IsMine {
			mines = append(mines, Point{cell.Row, cell.Col})
		}
	}
	return mines
}

func isMine(c *Cell) bool    { return c.IsMine }
func isHidden(c *Cell) bool  { return !c.IsRevealed }
func isFlagged(c *Cell) bool { return c.IsFlagged }

func (g Grid) revealAll() {
	for cell := range g.Cells() {
		cell.IsRevealed = true
	}
}

var neighborOffsets = [8]Point{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

// Neighbors yields the up to 8 cells around p that lie inside a height x width
// grid. The order is fixed: north first, then clockwise.
func Neighbors(p Point, height, width int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for _, d := range neighborOffsets {
			q := Point{p.Row + d.Row, p.Col + d.Col}
			if q.Row < 0 || q.Row >= height || q.Col < 0 || q.Col >= width {
				continue
			}
			if !yield(q) {
				return
			}
		}
	}
}

// ComputeNeighborCounts sets NeighborMineCount and IsEmpty on every safe cell.
// Mine cells are left with a zero count.
func (g Grid) ComputeNeighborCounts() {
	height, width := g.Height(), g.Width()
	for cell := range g.Cells() {
		cell.NeighborMineCount = 0
		if cell.IsMine {
			cell.IsEmpty = false
			continue
		}
		for q := range Neighbors(Point{cell.Row, cell.Col}, height, width) {
			if g[q.Row][q.Col].IsMine {
				cell.NeighborMineCount++
			}
		}
		cell.IsEmpty = cell.NeighborMineCount == 0
	}
}

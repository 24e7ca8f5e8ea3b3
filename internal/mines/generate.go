package mines

import (
	"fmt"
	"hash/maphash"
	"math/rand/v2"
	"slices"
	"strings"
)

func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// PlantMines marks mineCount more cells as mines, picked uniformly among the
// cells that are neither mines already nor listed in exclude. Neighbor counts
// are not touched.
func (g Grid) PlantMines(r *rand.Rand, mineCount int, exclude ...Point) error {
	if mineCount < 0 {
		return fmt.Errorf("%w: negative mine count %d", ErrInvalidConfiguration, mineCount)
	}

	/*
	 * Write down the list of possible mine locations.
	 */
	candidates := make([]Point, 0, g.Height()*g.Width())
	for cell := range g.Cells() {
		p := Point{cell.Row, cell.Col}
		if !cell.IsMine && !slices.Contains(exclude, p) {
			candidates = append(candidates, p)
		}
	}
	if mineCount > len(candidates) {
		return fmt.Errorf(
			"%w: %d mines requested, %d cells available",
			ErrTooManyMines, mineCount, len(candidates),
		)
	}

	/*
	 * Now pick n off the list at random.
	 */
	k := len(candidates)
	for range mineCount {
		i := r.IntN(k)
		g.At(candidates[i]).IsMine = true
		k--
		candidates[i] = candidates[k]
	}

	return nil
}

// GenerateBoard builds a fresh grid with mineCount mines, none of them on the
// excluded cells, and fills in neighbor counts.
func GenerateBoard(r *rand.Rand, height, width, mineCount int, exclude ...Point) (Grid, error) {
	grid := NewGrid(height, width)
	if err := grid.PlantMines(r, mineCount, exclude...); err != nil {
		return nil, err
	}
	grid.ComputeNeighborCounts()
	return grid, nil
}

// Generator produces the grid for a game once the first cell is opened.
type Generator interface {
	Generate(params GameParams, start Point) (Grid, error)
}

type RandomGenerator struct {
	rnd *rand.Rand
}

func NewRandomGenerator(r *rand.Rand) RandomGenerator {
	return RandomGenerator{rnd: r}
}

func (g RandomGenerator) Generate(params GameParams, start Point) (Grid, error) {
	height, width, mineCount := params.Unpack()
	return GenerateBoard(g.rnd, height, width, mineCount, start)
}

// LayoutGenerator plants mines at fixed positions regardless of the first
// click.
type LayoutGenerator []Point

func (l LayoutGenerator) Generate(params GameParams, start Point) (Grid, error) {
	if len(l) != params.MineCount {
		return nil, fmt.Errorf(
			"%w: layout has %d mines, params want %d",
			ErrInvalidConfiguration, len(l), params.MineCount,
		)
	}
	grid := NewGrid(params.Height, params.Width)
	for _, p := range l {
		if !grid.InBounds(p) {
			return nil, fmt.Errorf("%w: layout mine at %s", ErrOutOfBounds, p)
		}
		if grid.At(p).IsMine {
			return nil, fmt.Errorf("%w: duplicate layout mine at %s", ErrInvalidConfiguration, p)
		}
		grid.At(p).IsMine = true
	}
	grid.ComputeNeighborCounts()
	return grid, nil
}

// ParseLayout reads a board drawn with '*' for mines and '.' for safe cells,
// rows separated by newlines or '/'.
func ParseLayout(s string) (GameParams, LayoutGenerator, error) {
	rows := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '/'
	})
	var (
		params GameParams
		layout LayoutGenerator
	)
	for row, line := range rows {
		line = strings.TrimSpace(line)
		if row == 0 {
			params.Width = len(line)
		} else if len(line) != params.Width {
			return params, nil, fmt.Errorf(
				"%w: layout row %d has %d cells, want %d",
				ErrInvalidConfiguration, row, len(line), params.Width,
			)
		}
		for col, c := range line {
			switch c {
			case '*':
				layout = append(layout, Point{row, col})
			case '.':
			default:
				return params, nil, fmt.Errorf(
					"%w: unexpected %q in layout", ErrInvalidConfiguration, c,
				)
			}
		}
	}
	params.Height = len(rows)
	params.MineCount = len(layout)
	if err := params.Validate(); err != nil {
		return params, nil, err
	}
	return params, layout, nil
}

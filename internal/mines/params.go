package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type GameParams struct {
	Height    int `json:"height"`
	Width     int `json:"width"`
	MineCount int `json:"mine_count"`
}

var Presets = map[string]GameParams{
	"beginner":     {Height: 9, Width: 9, MineCount: 10},
	"intermediate": {Height: 16, Width: 16, MineCount: 40},
	"expert":       {Height: 16, Width: 30, MineCount: 99},
}

func Preset(name string) (GameParams, error) {
	p, ok := Presets[strings.ToLower(name)]
	if !ok {
		return GameParams{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfiguration, name)
	}
	return p, nil
}

func (p GameParams) Unpack() (h int, w int, mc int) {
	return p.Height, p.Width, p.MineCount
}

// MaxCells bounds height*width of any board.
const MaxCells = 1 << 16

// Validate rejects non-positive dimensions, boards larger than [MaxCells] and
// boards that would be all mines.
func (p GameParams) Validate() error {
	if p.Height <= 0 || p.Width <= 0 {
		return fmt.Errorf(
			"%w: dimensions must be positive (height = %d, width = %d)",
			ErrInvalidConfiguration, p.Height, p.Width,
		)
	}
	// division keeps huge dimensions from overflowing the product
	if p.Height > MaxCells/p.Width {
		return fmt.Errorf(
			"%w: board larger than %d cells (height = %d, width = %d)",
			ErrInvalidConfiguration, MaxCells, p.Height, p.Width,
		)
	}
	if p.MineCount < 0 || p.MineCount >= p.Height*p.Width {
		return fmt.Errorf(
			"%w: mine count must be in [0, %d) (mine_count = %d)",
			ErrInvalidConfiguration, p.Height*p.Width, p.MineCount,
		)
	}
	return nil
}

// Seed encodes the params as "height:width:mines".
func (p GameParams) Seed() string {
	return fmt.Sprintf("%d:%d:%d", p.Height, p.Width, p.MineCount)
}

// ParseSeed reads exactly "height:width:mines".
func ParseSeed(seed string) (*GameParams, error) {
	parts := strings.Split(seed, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf(
			`invalid game params seed %q: want 3 fields, got %d`, seed, len(parts),
		)
	}
	var values [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf(`invalid game params seed %q: %w`, seed, err)
		}
		values[i] = v
	}
	return &GameParams{Height: values[0], Width: values[1], MineCount: values[2]}, nil
}

func (p GameParams) PointInBounds(row, col int) bool {
	return 0 <= row && row < p.Height && 0 <= col && col < p.Width
}

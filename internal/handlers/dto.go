package handlers

import (
	"errors"
	"fmt"

	"github.com/gorilla/schema"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

var ErrMissingParams = errors.New("either preset or height, width and mine_count are required")

type NewGameDTO struct {
	Preset    string `schema:"preset"`
	Height    *int   `schema:"height"`
	Width     *int   `schema:"width"`
	MineCount *int   `schema:"mine_count"`
}

func ParseNewGameDTO(src map[string][]string) (NewGameDTO, error) {
	var dto NewGameDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

// GameParams resolves the preset or the explicit dimensions. Validation is
// left to the engine.
func (dto NewGameDTO) GameParams() (mines.GameParams, error) {
	if dto.Preset != "" {
		return mines.Preset(dto.Preset)
	}
	if dto.Height == nil || dto.Width == nil || dto.MineCount == nil {
		return mines.GameParams{}, ErrMissingParams
	}
	return mines.GameParams{
		Height:    *dto.Height,
		Width:     *dto.Width,
		MineCount: *dto.MineCount,
	}, nil
}

type PointDTO struct {
	Row int `schema:"row,required"`
	Col int `schema:"col,required"`
}

func ParsePointDTO(src map[string][]string) (PointDTO, error) {
	var dto PointDTO
	if err := decoder.Decode(&dto, src); err != nil {
		return dto, fmt.Errorf("row and col must be integers: %w", err)
	}
	return dto, nil
}

type HighscoreDTO struct {
	Seed     string `schema:"seed,required"`
	Username string `schema:"username"`
}

func ParseHighscoreDTO(src map[string][]string) (HighscoreDTO, error) {
	var dto HighscoreDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type GameDTO struct {
	session.Info
	Snapshot mines.Snapshot `json:"snapshot"`
	NewBest  bool           `json:"new_best,omitempty"`
}

type BestTimeDTO struct {
	Key     string `json:"key"`
	Seconds int    `json:"seconds"`
}

package mines

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid game configuration")
	ErrOutOfBounds          = errors.New("cell out of bounds")
	ErrTooManyMines         = errors.New("not enough free cells for mines")
)

// AssertionError reports a broken internal contract, e.g. a [Generator]
// that planted a mine under the first click.
type AssertionError struct {
	message string
}

// [AssertionError] implements [error]
func (e AssertionError) Error() string {
	return e.message
}

package tilepack

import (
	"errors"
	"fmt"
)

// DocumentNotFoundError is returned when a level document doesn't exist.
type DocumentNotFoundError struct {
	Level LevelRef
	Err   error
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("level %d: document %s not found: %v", e.Level.Index, e.Level.Path, e.Err)
}

func (e *DocumentNotFoundError) Unwrap() error { return e.Err }

// DocumentParseError is returned when a level document is not well formed.
type DocumentParseError struct {
	Level LevelRef
	Err   error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("level %d: parsing %s: %v", e.Level.Index, e.Level.Path, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// LayerNotFoundError is returned when a document has no layer of the
// configured name.
type LayerNotFoundError struct {
	Level LevelRef
	Layer string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("level %d: no layer named %q in %s", e.Level.Index, e.Layer, e.Level.Path)
}

// TileRangeError is returned when a tile code doesn't fit in a byte.
type TileRangeError struct {
	Level LevelRef
	Row   int
	Col   int
	Code  int
}

func (e *TileRangeError) Error() string {
	return fmt.Sprintf("level %d: tile code %d at (%d,%d) does not fit in a byte", e.Level.Index, e.Code, e.Row, e.Col)
}

// IOWriteError is returned when the output can't be opened, written or
// published.
type IOWriteError struct {
	Path string
	Err  error
}

func (e *IOWriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *IOWriteError) Unwrap() error { return e.Err }

// Stage names the step of the run an error came from: "load", "parse",
// "layer", "tile" or "write". Anything else is "run".
func Stage(err error) string {
	var (
		notFound *DocumentNotFoundError
		parse    *DocumentParseError
		layer    *LayerNotFoundError
		tile     *TileRangeError
		write    *IOWriteError
	)
	switch {
	case errors.As(err, &notFound):
		return "load"
	case errors.As(err, &parse):
		return "parse"
	case errors.As(err, &layer):
		return "layer"
	case errors.As(err, &tile):
		return "tile"
	case errors.As(err, &write):
		return "write"
	}
	return "run"
}

package tilepack

import (
	"fmt"
	"io"
)

// Grid is a square canonical grid of one byte tile codes, row major.
type Grid struct {
	size  int
	tiles []byte
}

// NewGrid returns a size x size grid with every tile set to 0.
func NewGrid(size int) *Grid {
	return &Grid{size: size, tiles: make([]byte, size*size)}
}

// Size returns the side of the grid in tiles.
func (g *Grid) Size() int {
	return g.size
}

// At returns the tile code at (row, col).
func (g *Grid) At(row, col int) byte {
	return g.tiles[row*g.size+col]
}

// Set the tile code at (row, col).
func (g *Grid) Set(row, col int, code byte) {
	g.tiles[row*g.size+col] = code
}

// Bytes returns the serialised grid. The slice is shared with the grid.
func (g *Grid) Bytes() []byte {
	return g.tiles
}

// WriteTo writes the grid row major, one byte per tile.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(g.tiles)
	return int64(n), err
}

// Project copies layer `l` of `doc` onto a fresh size x size grid.
//
// We walk the canonical grid's own coordinates, so sources smaller than the
// grid are padded with 0 and larger ones are cropped. Note the source index
// uses the document width as stride, the grid uses `size`.
//
// Codes outside 0-255 are a *TileRangeError unless mask is set, in which case
// only the low byte is kept.
func Project(ref LevelRef, doc *Document, l *Layer, size int, mask bool) (*Grid, error) {
	g := NewGrid(size)

	for row := 0; row < size; row++ {
		if row >= doc.Height {
			break
		}
		for col := 0; col < size; col++ {
			if col >= doc.Width {
				break
			}

			index := row*doc.Width + col
			if index >= len(l.Data) {
				return nil, &DocumentParseError{
					Level: ref,
					Err:   fmt.Errorf("layer %q has %d tiles, want %d", l.Name, len(l.Data), doc.Width*doc.Height),
				}
			}

			code := l.Data[index]
			if code < 0 || code > 0xff {
				if !mask {
					return nil, &TileRangeError{Level: ref, Row: row, Col: col, Code: code}
				}
				code &= 0xff
			}
			g.Set(row, col, byte(code))
		}
	}

	return g, nil
}

// ReadGrids decodes a packed stream of size x size blocks.
func ReadGrids(r io.Reader, size int) ([]*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid grid size %d", size)
	}

	grids := []*Grid{}
	for {
		g := NewGrid(size)
		n, err := io.ReadFull(r, g.tiles)
		if err == io.EOF {
			return grids, nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("trailing %d bytes after block %d, want %d", n, len(grids), size*size)
		}
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
}

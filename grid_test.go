package tilepack

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqDocument returns a w x h document whose "map" layer holds f(row, col)
func seqDocument(w, h int, f func(row, col int) int) *Document {
	data := make([]int, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			data[row*w+col] = f(row, col)
		}
	}
	return &Document{
		Width:  w,
		Height: h,
		Layers: []*Layer{
			{Name: "objects"},
			{Name: "map", Data: data},
		},
	}
}

func project(t *testing.T, doc *Document, size int) *Grid {
	l, ok := doc.Layer("map")
	require.True(t, ok)
	g, err := Project(LevelRef{Index: 1}, doc, l, size, false)
	require.Nil(t, err)
	return g
}

func TestProjectPads(t *testing.T) {
	doc := &Document{Width: 2, Height: 2, Layers: []*Layer{{Name: "map", Data: []int{1, 2, 3, 4}}}}

	g := project(t, doc, 4)

	assert.Equal(t, []byte{
		1, 2, 0, 0,
		3, 4, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}, g.Bytes())
}

func TestProjectCrops(t *testing.T) {
	doc := seqDocument(40, 40, func(row, col int) int {
		if row >= 32 || col >= 32 {
			return 0xff
		}
		return (row + col) % 200
	})

	g := project(t, doc, 32)

	assert.Equal(t, 32*32, len(g.Bytes()))
	for row := 0; row < 32; row++ {
		for col := 0; col < 32; col++ {
			assert.Equal(t, byte((row+col)%200), g.At(row, col))
		}
	}
	assert.NotContains(t, g.Bytes(), byte(0xff))
}

func TestProjectStrides(t *testing.T) {
	doc := seqDocument(10, 5, func(row, col int) int { return 0 })
	l, _ := doc.Layer("map")
	l.Data[3*10+7] = 42

	g := project(t, doc, 32)

	assert.Equal(t, byte(42), g.Bytes()[3*32+7])
	assert.Equal(t, byte(42), g.At(3, 7))
	for i, b := range g.Bytes() {
		if i != 103 {
			assert.Equal(t, byte(0), b, "offset %d", i)
		}
	}
}

func TestProjectEmptyDocument(t *testing.T) {
	doc := &Document{Layers: []*Layer{{Name: "map"}}}

	g := project(t, doc, 8)

	assert.Equal(t, make([]byte, 64), g.Bytes())
}

func TestProjectTileRange(t *testing.T) {
	doc := &Document{Width: 2, Height: 1, Layers: []*Layer{{Name: "map", Data: []int{7, 300}}}}
	l, _ := doc.Layer("map")

	_, err := Project(LevelRef{Index: 3}, doc, l, 4, false)

	rerr, ok := err.(*TileRangeError)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, 3, rerr.Level.Index)
	assert.Equal(t, 0, rerr.Row)
	assert.Equal(t, 1, rerr.Col)
	assert.Equal(t, 300, rerr.Code)
	assert.Equal(t, "tile", Stage(err))

	g, err := Project(LevelRef{Index: 3}, doc, l, 4, true)
	require.Nil(t, err)
	assert.Equal(t, byte(7), g.At(0, 0))
	assert.Equal(t, byte(300&0xff), g.At(0, 1))
}

func TestProjectShortData(t *testing.T) {
	doc := &Document{Width: 3, Height: 3, Layers: []*Layer{{Name: "map", Data: []int{1, 2, 3}}}}
	l, _ := doc.Layer("map")

	_, err := Project(LevelRef{Index: 1}, doc, l, 4, false)

	_, ok := err.(*DocumentParseError)
	assert.True(t, ok, "got %v", err)
}

func TestReadGrids(t *testing.T) {
	buf := bytes.Buffer{}
	a := NewGrid(2)
	a.Set(0, 1, 9)
	b := NewGrid(2)
	b.Set(1, 0, 5)
	a.WriteTo(&buf)
	b.WriteTo(&buf)

	grids, err := ReadGrids(bytes.NewReader(buf.Bytes()), 2)

	require.Nil(t, err)
	require.Equal(t, 2, len(grids))
	assert.Equal(t, a.Bytes(), grids[0].Bytes())
	assert.Equal(t, b.Bytes(), grids[1].Bytes())

	_, err = ReadGrids(bytes.NewReader(buf.Bytes()[:6]), 2)
	assert.NotNil(t, err)
}

package tilepack

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
)

// RenderOptions controls how a packed grid is previewed.
type RenderOptions struct {
	// size of each tile in px (before scaling)
	TilePx int

	// draw a line between tiles
	GridLines bool

	// multiply the final image size by this (nearest neighbour), <= 1 is no-op
	Scale int
}

// DefaultRenderOptions returns 8px tiles with grid lines & no scaling.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{TilePx: 8, GridLines: true, Scale: 1}
}

// TileColor returns the preview colour for a tile code.
// 0 (the empty tile) is black, anything else is spread around the hue wheel
// so neighbouring codes are easy to tell apart.
func TileColor(code byte) color.RGBA {
	if code == 0 {
		return color.RGBA{0, 0, 0, 0xff}
	}
	h := float64((int(code)*47)%360) / 60
	x := 1 - abs(mod2(h)-1)

	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = 1, x, 0
	case 1:
		r, g, b = x, 1, 0
	case 2:
		r, g, b = 0, 1, x
	case 3:
		r, g, b = 0, x, 1
	case 4:
		r, g, b = x, 0, 1
	default:
		r, g, b = 1, 0, x
	}

	// darken odd codes a little
	v := 0.95
	if code%2 == 1 {
		v = 0.7
	}
	return color.RGBA{uint8(r * v * 255), uint8(g * v * 255), uint8(b * v * 255), 0xff}
}

// Render draws a preview image of the given grid.
func Render(g *Grid, opts *RenderOptions) image.Image {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	px := opts.TilePx
	if px < 1 {
		px = 1
	}

	side := g.Size() * px
	dc := gg.NewContext(side, side)

	for row := 0; row < g.Size(); row++ {
		for col := 0; col < g.Size(); col++ {
			dc.SetColor(TileColor(g.At(row, col)))
			dc.DrawRectangle(float64(col*px), float64(row*px), float64(px), float64(px))
			dc.Fill()
		}
	}

	if opts.GridLines && px > 2 {
		dc.SetRGBA(1, 1, 1, 0.15)
		dc.SetLineWidth(1)
		for i := 1; i < g.Size(); i++ {
			p := float64(i * px)
			dc.DrawLine(p, 0, p, float64(side))
			dc.DrawLine(0, p, float64(side), p)
		}
		dc.Stroke()
	}

	img := dc.Image()
	if opts.Scale > 1 {
		img = resize.Resize(uint(side*opts.Scale), uint(side*opts.Scale), img, resize.NearestNeighbor)
	}
	return img
}

// SavePNG to disk
func SavePNG(fpath string, in image.Image) error {
	return gg.SavePNG(fpath, in)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// mod2 returns f modulo 2
func mod2(f float64) float64 {
	return f - 2*float64(int(f/2))
}

// Package render draws the typeahead dropdown and annotated text on a terminal grid.
package render

import (
	"github.com/mattn/go-runewidth"
)

// Rect is an on-screen rectangle in terminal cells.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

func (r Rect) Bottom() int {
	return r.Top + r.Height
}

// Geometry measures rune offsets of a text laid out from Origin, one line per row.
// Wide runes take two columns; tabs expand to TabWidth columns.
type Geometry struct {
	Text     string
	OriginX  int
	OriginY  int
	TabWidth int
}

// Rect returns the cell rectangle of the rune at offset. Offsets past the end
// measure the empty cell after the last rune.
func (g Geometry) Rect(offset int) Rect {
	x, y := g.OriginX, g.OriginY
	i := 0
	for _, r := range g.Text {
		if i == offset {
			return Rect{Left: x, Top: y, Width: max(g.width(r), 1), Height: 1}
		}
		if r == '\n' {
			x, y = g.OriginX, y+1
		} else {
			x += g.width(r)
		}
		i++
	}
	return Rect{Left: x, Top: y, Width: 1, Height: 1}
}

func (g Geometry) width(r rune) int {
	switch r {
	case '\n':
		return 0
	case '\t':
		if g.TabWidth > 0 {
			return g.TabWidth
		}
		return 4
	default:
		return runewidth.RuneWidth(r)
	}
}

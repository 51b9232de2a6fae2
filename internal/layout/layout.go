package layout

import (
	"errors"
	"fmt"
)

// Sentinel errors for layout calculations. These indicate configuration or
// programming errors, not runtime conditions, and are fatal at the call site.
var (
	// ErrInvalidIndex is returned for a negative division index.
	ErrInvalidIndex = errors.New("layout: division index must be non-negative")

	// ErrTileOutOfRange is returned when a tile index falls outside the grid.
	ErrTileOutOfRange = errors.New("layout: tile index out of range")

	// ErrInvalidDivision is returned for a division with non-positive dimensions.
	ErrInvalidDivision = errors.New("layout: division dimensions must be positive")
)

// Division describes the on-screen grid as columns x rows.
//
// A Division is derived from a single configuration index and is immutable
// once computed. The growth rule favours a "wide" screen: each index step
// adds a column while columns <= rows, otherwise a row.
//
// Sample indices:
//
//	0 -> 1x1
//	1 -> 2x1
//	2 -> 2x2
//	3 -> 3x2
//	4 -> 3x3
type Division struct {
	Columns int
	Rows    int
}

// ComputeDivision derives the grid division from a division index.
//
// Returns ErrInvalidIndex for negative indices.
func ComputeDivision(index int) (Division, error) {
	if index < 0 {
		return Division{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	d := Division{Columns: 1, Rows: 1}
	for ; index > 0; index-- {
		if d.Columns <= d.Rows {
			d.Columns++
		} else {
			d.Rows++
		}
	}
	return d, nil
}

// Tiles returns the number of visible tiles in the division.
func (d Division) Tiles() int {
	return d.Columns * d.Rows
}

// Position maps a tile index to its (column, row) grid position.
func (d Division) Position(tile int) (col, row int, err error) {
	if d.Columns <= 0 || d.Rows <= 0 {
		return 0, 0, ErrInvalidDivision
	}
	if tile < 0 || tile >= d.Tiles() {
		return 0, 0, fmt.Errorf("%w: tile %d of %d", ErrTileOutOfRange, tile, d.Tiles())
	}
	return tile % d.Columns, tile / d.Columns, nil
}

// Geometry produces the normalized geometry string for one tile, in the
// form consumed by the rendering engine, e.g. "50%x100%+0+0" for the left
// half of a two-way split.
//
// Width and height are integer percentages of the whole screen. Edge tiles
// anchor to the screen edge ("+0" left/top, "-0" right/bottom); interior
// tiles use a computed percentage offset.
func (d Division) Geometry(tile int) (string, error) {
	col, row, err := d.Position(tile)
	if err != nil {
		return "", err
	}
	return GeometryOf(d.Columns, d.Rows, col, row)
}

// GeometryOf builds a geometry string from explicit grid coordinates.
//
// Returns ErrInvalidDivision if either dimension is non-positive and
// ErrTileOutOfRange if the position falls outside the grid.
func GeometryOf(columns, rows, col, row int) (string, error) {
	if columns <= 0 || rows <= 0 {
		return "", ErrInvalidDivision
	}
	if col < 0 || col >= columns || row < 0 || row >= rows {
		return "", fmt.Errorf("%w: position (%d,%d) in %dx%d", ErrTileOutOfRange, col, row, columns, rows)
	}

	geo := fmt.Sprintf("%d%%x%d%%", 100/columns, 100/rows)
	geo += anchor(columns, col)
	geo += anchor(rows, row)
	return geo, nil
}

// anchor renders the position component along one axis.
func anchor(div, pos int) string {
	switch {
	case pos == 0:
		return "+0"
	case pos < div-1:
		return fmt.Sprintf("+%d%%", 100*pos/div)
	default:
		return "-0"
	}
}

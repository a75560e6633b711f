package planner

import (
	"fmt"

	"potager/pkg/domain"
)

// Resolve returns the first plot, in list order, whose region covers the
// absolute garden cell. Plots without a recorded position sit at (0,0). When
// plots overlap the earlier one wins.
func Resolve(plots []domain.Plot, positions map[string]domain.Position, row, col int) (domain.Plot, domain.Position, bool) {
	for _, plot := range plots {
		pos := domain.PositionFor(positions, plot.ID)
		if plot.Region(pos).Contains(row, col) {
			return plot, pos, true
		}
	}
	return domain.Plot{}, domain.Position{}, false
}

// RelativeIndex maps an absolute garden cell to the plot's grid index. The
// cell must lie inside the plot's region; anything else is a caller bug and
// panics.
func RelativeIndex(plot domain.Plot, pos domain.Position, row, col int) int {
	if !plot.Region(pos).Contains(row, col) {
		panic(fmt.Sprintf("planner: cell (%d,%d) outside plot %s at (%d,%d) size %dx%d",
			row, col, plot.ID, pos.Row, pos.Col, plot.Rows, plot.Cols))
	}
	return domain.CellIndex(row-pos.Row, col-pos.Col, plot.Cols)
}

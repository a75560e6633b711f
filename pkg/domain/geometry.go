package domain

// Rect is a half-open region of garden cells: [Row, Row+Rows) x [Col, Col+Cols).
type Rect struct {
	Row, Col   int
	Rows, Cols int
}

// Region returns the garden cells a plot occupies when anchored at pos.
func (p Plot) Region(pos Position) Rect {
	return Rect{Row: pos.Row, Col: pos.Col, Rows: p.Rows, Cols: p.Cols}
}

// Contains reports whether the absolute cell lies inside the region.
func (r Rect) Contains(row, col int) bool {
	return row >= r.Row && row < r.Row+r.Rows && col >= r.Col && col < r.Col+r.Cols
}

// Overlaps reports whether two regions share at least one cell.
func (r Rect) Overlaps(other Rect) bool {
	if r.Rows <= 0 || r.Cols <= 0 || other.Rows <= 0 || other.Cols <= 0 {
		return false
	}
	return r.Row < other.Row+other.Rows && other.Row < r.Row+r.Rows &&
		r.Col < other.Col+other.Cols && other.Col < r.Col+r.Cols
}

// Within reports whether the region fits inside the garden.
func (r Rect) Within(g Garden) bool {
	return r.Row >= 0 && r.Col >= 0 && r.Row+r.Rows <= g.Rows && r.Col+r.Cols <= g.Cols
}

// PositionFor looks up a plot's anchor, defaulting to (0,0) when unrecorded.
func PositionFor(positions map[string]Position, plotID string) Position {
	if pos, ok := positions[plotID]; ok {
		return pos
	}
	return Position{PlotID: plotID}
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CellAssignment places a crop on a single plot cell.
type CellAssignment struct {
	Emoji    string `json:"emoji"`
	CropID   string `json:"crop_id,omitempty"`
	CropName string `json:"crop_name,omitempty"`
}

// Equal reports whether two assignments reference the same crop.
func (c *CellAssignment) Equal(other *CellAssignment) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}
	return *c == *other
}

// UnmarshalJSON accepts the structured form as well as the legacy
// "emoji,crop_id,crop_name" string token.
func (c *CellAssignment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var token string
		if err := json.Unmarshal(data, &token); err != nil {
			return err
		}
		parsed, err := ParseCellToken(token)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	type plain CellAssignment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CellAssignment(p)
	return nil
}

// ParseCellToken decodes the legacy comma-joined cell token. A token without
// commas is a bare emoji.
func ParseCellToken(token string) (CellAssignment, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return CellAssignment{}, fmt.Errorf("empty cell token")
	}
	parts := strings.SplitN(token, ",", 3)
	out := CellAssignment{Emoji: parts[0]}
	if len(parts) > 1 {
		out.CropID = parts[1]
	}
	if len(parts) > 2 {
		out.CropName = parts[2]
	}
	return out, nil
}

// Grid is a flat row-major sequence of cells; nil entries are empty cells.
type Grid []*CellAssignment

// UnmarshalJSON treats null and "" entries as empty cells.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*g = nil
		return nil
	}
	out := make(Grid, len(raw))
	for i, entry := range raw {
		trimmed := bytes.TrimSpace(entry)
		if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
			continue
		}
		var cell CellAssignment
		if err := json.Unmarshal(trimmed, &cell); err != nil {
			return fmt.Errorf("cell %d: %w", i, err)
		}
		out[i] = &cell
	}
	*g = out
	return nil
}

// NewGrid returns an all-empty grid of rows*cols cells.
func NewGrid(rows, cols int) Grid {
	if rows <= 0 || cols <= 0 {
		return Grid{}
	}
	return make(Grid, rows*cols)
}

// Clone deep-copies the grid.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, cell := range g {
		if cell != nil {
			cp := *cell
			out[i] = &cp
		}
	}
	return out
}

// Resize returns a copy of the grid holding exactly size cells: extra cells
// are dropped and missing ones are empty.
func (g Grid) Resize(size int) Grid {
	if size < 0 {
		size = 0
	}
	out := make(Grid, size)
	for i := 0; i < size && i < len(g); i++ {
		if g[i] != nil {
			cp := *g[i]
			out[i] = &cp
		}
	}
	return out
}

// Filled counts the populated cells.
func (g Grid) Filled() int {
	n := 0
	for _, cell := range g {
		if cell != nil {
			n++
		}
	}
	return n
}

// CellIndex converts plot-local coordinates into a grid index.
func CellIndex(row, col, cols int) int { return row*cols + col }

// CellCoord converts a grid index into plot-local coordinates.
func CellCoord(index, cols int) (row, col int) { return index / cols, index % cols }

// ClampSide bounds a requested dimension into [lo, hi].
func ClampSide(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

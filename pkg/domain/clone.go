package domain

// Clone deep-copies the plot including its grid.
func (p Plot) Clone() Plot {
	p.Grid = p.Grid.Clone()
	return p
}

// Clone deep-copies the version snapshot.
func (v Version) Clone() Version {
	out := v
	if v.Plots != nil {
		out.Plots = make([]PlotRef, len(v.Plots))
		copy(out.Plots, v.Plots)
	}
	if v.Positions != nil {
		out.Positions = make(map[string]Position, len(v.Positions))
		for k, pos := range v.Positions {
			out.Positions[k] = pos
		}
	}
	if v.Cells != nil {
		out.Cells = make(map[string]Grid, len(v.Cells))
		for k, g := range v.Cells {
			out.Cells[k] = g.Clone()
		}
	}
	return out
}

package core

import (
	"context"
	"fmt"

	"potager/pkg/domain"
)

// NewPlotOverlapRule warns when a moved or resized plot shares garden cells
// with another plot. Overlap is allowed; the earlier plot wins when resolving
// a cell.
func NewPlotOverlapRule() domain.Rule {
	return plotOverlapRule{}
}

type plotOverlapRule struct{}

func (plotOverlapRule) Name() string { return "plot_overlap" }

func (plotOverlapRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := touchedPlots(changes)
	res := domain.Result{}
	if len(touched) == 0 {
		return res, nil
	}
	plots := view.ListPlots()
	positions := positionIndex(view.ListPositions())
	for _, plot := range plots {
		if !touched[plot.ID] {
			continue
		}
		region := plot.Region(domain.PositionFor(positions, plot.ID))
		for _, other := range plots {
			if other.ID == plot.ID {
				continue
			}
			if !region.Overlaps(other.Region(domain.PositionFor(positions, other.ID))) {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "plot_overlap",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("plot %s overlaps plot %s", plot.Name, other.Name),
				Entity:   domain.EntityPosition,
				EntityID: plot.ID,
			})
		}
	}
	return res, nil
}

// touchedPlots collects the plot ids whose extent or anchor changed.
func touchedPlots(changes []domain.Change) map[string]bool {
	out := make(map[string]bool)
	for _, change := range changes {
		switch v := change.After.(type) {
		case domain.Plot:
			if change.Action == domain.ActionCreate || plotExtentChanged(change.Before, v) {
				out[v.ID] = true
			}
		case domain.Position:
			out[v.PlotID] = true
		}
	}
	return out
}

func plotExtentChanged(before any, after domain.Plot) bool {
	prev, ok := before.(domain.Plot)
	if !ok {
		return true
	}
	return prev.Rows != after.Rows || prev.Cols != after.Cols
}

func positionIndex(list []domain.Position) map[string]domain.Position {
	out := make(map[string]domain.Position, len(list))
	for _, pos := range list {
		out[pos.PlotID] = pos
	}
	return out
}

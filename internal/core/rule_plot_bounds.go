package core

import (
	"context"
	"fmt"

	"potager/pkg/domain"
)

// NewPlotBoundsRule warns when a plot extends past the garden edge, either
// because it moved or because the garden shrank.
func NewPlotBoundsRule() domain.Rule {
	return plotBoundsRule{}
}

type plotBoundsRule struct{}

func (plotBoundsRule) Name() string { return "plot_bounds" }

func (plotBoundsRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := touchedPlots(changes)
	resized := false
	for _, change := range changes {
		if change.Entity == domain.EntityGarden {
			resized = true
		}
	}
	res := domain.Result{}
	if len(touched) == 0 && !resized {
		return res, nil
	}
	garden := view.Garden()
	positions := positionIndex(view.ListPositions())
	for _, plot := range view.ListPlots() {
		if !resized && !touched[plot.ID] {
			continue
		}
		region := plot.Region(domain.PositionFor(positions, plot.ID))
		if region.Within(garden) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "plot_bounds",
			Severity: domain.SeverityWarn,
			Message: fmt.Sprintf("plot %s at (%d,%d) extends past the %dx%d garden",
				plot.Name, region.Row, region.Col, garden.Rows, garden.Cols),
			Entity:   domain.EntityPosition,
			EntityID: plot.ID,
		})
	}
	return res, nil
}

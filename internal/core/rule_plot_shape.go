package core

import (
	"context"
	"fmt"

	"potager/pkg/domain"
)

// NewPlotShapeRule blocks commits that leave a plot outside the supported
// dimensions or with a grid that does not hold rows*cols cells.
func NewPlotShapeRule() domain.Rule {
	return plotShapeRule{}
}

type plotShapeRule struct{}

func (plotShapeRule) Name() string { return "plot_shape" }

func (plotShapeRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, plot := range view.ListPlots() {
		var msg string
		switch {
		case plot.Rows < domain.MinPlotSide || plot.Rows > domain.MaxPlotSide,
			plot.Cols < domain.MinPlotSide || plot.Cols > domain.MaxPlotSide:
			msg = fmt.Sprintf("plot %s has unsupported dimensions %dx%d", plot.Name, plot.Rows, plot.Cols)
		case len(plot.Grid) != plot.Size():
			msg = fmt.Sprintf("plot %s grid holds %d cells, want %d", plot.Name, len(plot.Grid), plot.Size())
		default:
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "plot_shape",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityPlot,
			EntityID: plot.ID,
		})
	}
	return res, nil
}

package planner

import (
	"context"
	"fmt"

	"potager/pkg/domain"
)

// EditCell toggles a cell of the selected plot, in plot-local coordinates. A
// populated cell is cleared whatever crop is selected; an empty cell receives
// the selected crop. The working grid is updated first and reverted when the
// backend rejects the write. It returns the cell's new content.
func (e *Engine) EditCell(ctx context.Context, row, col int) (*domain.CellAssignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editCell(ctx, row, col)
}

// EditGardenCell edits the plot covering an absolute garden cell, selecting
// that plot first.
func (e *Engine) EditGardenCell(ctx context.Context, row, col int) (*domain.CellAssignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	plot, pos, ok := Resolve(e.plots, e.positions, row, col)
	if !ok {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrNoPlotAtCell, row, col)
	}
	e.selectedPlot = plot.ID
	localRow, localCol := domain.CellCoord(RelativeIndex(plot, pos, row, col), plot.Cols)
	return e.editCell(ctx, localRow, localCol)
}

func (e *Engine) editCell(ctx context.Context, row, col int) (*domain.CellAssignment, error) {
	if e.selectedPlot == "" {
		return nil, ErrNoPlotSelected
	}
	i := e.plotIndex(e.selectedPlot)
	if i < 0 {
		return nil, ErrNoPlotSelected
	}
	plot := &e.plots[i]
	if row < 0 || row >= plot.Rows || col < 0 || col >= plot.Cols {
		return nil, fmt.Errorf("%w: (%d,%d) in %dx%d plot", ErrCellOutOfRange, row, col, plot.Rows, plot.Cols)
	}
	idx := domain.CellIndex(row, col, plot.Cols)
	previous := plot.Grid[idx]

	var next *domain.CellAssignment
	if previous == nil {
		crop, ok := e.findCrop(e.selectedCrop)
		if !ok {
			return nil, ErrNoCropSelected
		}
		next = crop.Assignment()
	}

	plot.Grid[idx] = next
	if _, err := e.backend.SetCell(ctx, plot.ID, row, col, next); err != nil {
		e.plots[i].Grid[idx] = previous
		e.logger.Warn("cell edit reverted", "plot_id", plot.ID, "row", row, "col", col, "error", err)
		return nil, fmt.Errorf("save cell: %w", err)
	}
	if next == nil {
		return nil, nil
	}
	cp := *next
	return &cp, nil
}

// MovePlot anchors a plot at a new garden cell. The working position changes
// immediately and is restored when the backend fails. Overlap and bounds
// warnings from the store are returned alongside a successful move.
func (e *Engine) MovePlot(ctx context.Context, plotID string, row, col int) ([]domain.Violation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.plotIndex(plotID) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlot, plotID)
	}
	previous, existed := e.positions[plotID]
	next := domain.Position{PlotID: plotID, Row: row, Col: col}
	e.positions[plotID] = next

	stored, warnings, err := e.backend.SetPosition(ctx, next)
	if err != nil {
		if existed {
			e.positions[plotID] = previous
		} else {
			delete(e.positions, plotID)
		}
		e.logger.Warn("plot move reverted", "plot_id", plotID, "error", err)
		return nil, fmt.Errorf("save position: %w", err)
	}
	e.positions[plotID] = stored
	return warnings, nil
}

// CreatePlot creates a plot through the backend and appends it to the list.
func (e *Engine) CreatePlot(ctx context.Context, name string, rows, cols int) (domain.Plot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	plot, err := e.backend.CreatePlot(ctx, name, rows, cols)
	if err != nil {
		return domain.Plot{}, fmt.Errorf("create plot: %w", err)
	}
	e.plots = append(e.plots, normalizePlots([]domain.Plot{plot})...)
	return plot.Clone(), nil
}

// DeletePlot removes a plot. Its position stays recorded, as it does in the
// store.
func (e *Engine) DeletePlot(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.backend.DeletePlot(ctx, id); err != nil {
		return fmt.Errorf("delete plot: %w", err)
	}
	if i := e.plotIndex(id); i >= 0 {
		e.plots = append(e.plots[:i], e.plots[i+1:]...)
	}
	if e.selectedPlot == id {
		e.selectedPlot = ""
	}
	return nil
}

// ResizeGarden changes the garden dimensions; the store clamps them.
func (e *Engine) ResizeGarden(ctx context.Context, rows, cols int) (domain.Garden, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	garden, err := e.backend.SetGardenSize(ctx, domain.Garden{Rows: rows, Cols: cols})
	if err != nil {
		return domain.Garden{}, fmt.Errorf("resize garden: %w", err)
	}
	e.garden = garden
	return garden, nil
}

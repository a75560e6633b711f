package core

import (
	"context"
	"fmt"

	"potager/pkg/domain"
)

// ListPlots returns plots with their grids in creation order.
func (s *Service) ListPlots(ctx context.Context) ([]Plot, error) {
	var out []Plot
	err := s.read(ctx, "plot.list", func(view TransactionView) error {
		out = view.ListPlots()
		return nil
	})
	return out, err
}

// GetPlot fetches one plot.
func (s *Service) GetPlot(ctx context.Context, id string) (Plot, error) {
	var out Plot
	err := s.read(ctx, "plot.get", func(view TransactionView) error {
		p, ok := view.FindPlot(id)
		if !ok {
			return ErrNotFound{Entity: EntityPlot, ID: id}
		}
		out = p
		return nil
	})
	return out, err
}

// CreatePlot stores an empty plot. Dimensions are clamped into the supported
// range.
func (s *Service) CreatePlot(ctx context.Context, name string, rows, cols int) (Plot, Result, error) {
	if err := required("name", name); err != nil {
		return Plot{}, Result{}, err
	}
	plot := Plot{
		Name: name,
		Rows: domain.ClampSide(rows, domain.MinPlotSide, domain.MaxPlotSide),
		Cols: domain.ClampSide(cols, domain.MinPlotSide, domain.MaxPlotSide),
	}
	var created Plot
	res, err := s.write(ctx, "plot.create", EntityPlot, domain.ActionCreate, func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreatePlot(plot)
		return created.ID, err
	})
	return created, res, err
}

// DeletePlot removes a plot. Positions and versions referring to it are kept.
func (s *Service) DeletePlot(ctx context.Context, id string) (Result, error) {
	return s.write(ctx, "plot.delete", EntityPlot, domain.ActionDelete, func(tx Transaction) (string, error) {
		if _, ok := tx.FindPlot(id); !ok {
			return id, ErrNotFound{Entity: EntityPlot, ID: id}
		}
		return id, tx.DeletePlot(id)
	})
}

// SetCell writes one cell of a plot; a nil cell clears it. Placing a crop
// from the catalog on a cell that did not already hold it increments the
// crop's usage count.
func (s *Service) SetCell(ctx context.Context, plotID string, row, col int, cell *CellAssignment) (Plot, Result, error) {
	if cell != nil {
		if err := required("cell.emoji", cell.Emoji); err != nil {
			return Plot{}, Result{}, err
		}
	}
	var updated Plot
	res, err := s.write(ctx, "plot.set_cell", EntityPlot, domain.ActionUpdate, func(tx Transaction) (string, error) {
		plot, ok := tx.FindPlot(plotID)
		if !ok {
			return plotID, ErrNotFound{Entity: EntityPlot, ID: plotID}
		}
		if row < 0 || row >= plot.Rows || col < 0 || col >= plot.Cols {
			return plotID, ValidationError{
				Field:   "row/col",
				Message: fmt.Sprintf("cell (%d,%d) outside %dx%d plot", row, col, plot.Rows, plot.Cols),
			}
		}
		idx := domain.CellIndex(row, col, plot.Cols)
		previous := plot.Grid[idx]
		var err error
		updated, err = tx.UpdatePlot(plotID, func(p *Plot) error {
			if cell == nil {
				p.Grid[idx] = nil
				return nil
			}
			cp := *cell
			p.Grid[idx] = &cp
			return nil
		})
		if err != nil {
			return plotID, err
		}
		if cell != nil && cell.CropID != "" && !cell.Equal(previous) {
			if crop, ok := tx.Snapshot().FindCrop(cell.CropID); ok {
				crop.UsageCount++
				if _, err := tx.PutCrop(crop); err != nil {
					return plotID, err
				}
			}
		}
		return plotID, nil
	})
	return updated, res, err
}

// ListPositions returns every recorded plot anchor, including anchors of
// deleted plots.
func (s *Service) ListPositions(ctx context.Context) ([]Position, error) {
	var out []Position
	err := s.read(ctx, "position.list", func(view TransactionView) error {
		out = view.ListPositions()
		return nil
	})
	return out, err
}

// SetPosition anchors an existing plot inside the garden. Overlap and
// out-of-garden placements are accepted and reported as warnings.
func (s *Service) SetPosition(ctx context.Context, pos Position) (Position, Result, error) {
	if err := required("plot_id", pos.PlotID); err != nil {
		return Position{}, Result{}, err
	}
	if pos.Row < 0 || pos.Col < 0 {
		return Position{}, Result{}, ValidationError{Field: "row/col", Message: "must be non-negative"}
	}
	var stored Position
	res, err := s.write(ctx, "position.set", EntityPosition, domain.ActionUpdate, func(tx Transaction) (string, error) {
		if _, ok := tx.FindPlot(pos.PlotID); !ok {
			return pos.PlotID, ErrNotFound{Entity: EntityPlot, ID: pos.PlotID}
		}
		var err error
		stored, err = tx.SetPosition(pos)
		return pos.PlotID, err
	})
	return stored, res, err
}

// GardenSize returns the garden dimensions.
func (s *Service) GardenSize(ctx context.Context) (Garden, error) {
	var out Garden
	err := s.read(ctx, "garden.get", func(view TransactionView) error {
		out = view.Garden()
		return nil
	})
	return out, err
}

// SetGardenSize resizes the garden, clamping each side into the supported
// range. Plots left outside the new edge are reported as warnings.
func (s *Service) SetGardenSize(ctx context.Context, size Garden) (Garden, Result, error) {
	size = Garden{
		Rows: domain.ClampSide(size.Rows, domain.MinGardenSide, domain.MaxGardenSide),
		Cols: domain.ClampSide(size.Cols, domain.MinGardenSide, domain.MaxGardenSide),
	}
	var stored Garden
	res, err := s.write(ctx, "garden.set", EntityGarden, domain.ActionUpdate, func(tx Transaction) (string, error) {
		var err error
		stored, err = tx.SetGarden(size)
		return "", err
	})
	return stored, res, err
}

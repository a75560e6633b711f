// Package local adapts the core service to the planner Backend so the planner
// can run in-process without the REST server.
package local

import (
	"context"
	"io"

	"potager/internal/core"
	"potager/internal/planner"
	"potager/pkg/domain"
)

// Backend calls the service directly.
type Backend struct {
	svc *core.Service
}

var _ planner.Backend = (*Backend)(nil)

// New wraps svc.
func New(svc *core.Service) *Backend {
	return &Backend{svc: svc}
}

func (b *Backend) ListCrops(ctx context.Context) ([]domain.Crop, error) {
	return b.svc.ListCrops(ctx)
}

func (b *Backend) ListCultures(ctx context.Context) ([]domain.Culture, error) {
	return b.svc.ListCultures(ctx)
}

func (b *Backend) ListPlots(ctx context.Context) ([]domain.Plot, error) {
	return b.svc.ListPlots(ctx)
}

func (b *Backend) ListPositions(ctx context.Context) ([]domain.Position, error) {
	return b.svc.ListPositions(ctx)
}

func (b *Backend) GardenSize(ctx context.Context) (domain.Garden, error) {
	return b.svc.GardenSize(ctx)
}

func (b *Backend) ListVersions(ctx context.Context) ([]domain.Version, error) {
	return b.svc.ListVersions(ctx)
}

func (b *Backend) SetCell(ctx context.Context, plotID string, row, col int, cell *domain.CellAssignment) (domain.Plot, error) {
	plot, _, err := b.svc.SetCell(ctx, plotID, row, col, cell)
	return plot, err
}

func (b *Backend) SetPosition(ctx context.Context, pos domain.Position) (domain.Position, []domain.Violation, error) {
	stored, res, err := b.svc.SetPosition(ctx, pos)
	if err != nil {
		return domain.Position{}, nil, err
	}
	return stored, res.Warnings(), nil
}

func (b *Backend) SetGardenSize(ctx context.Context, size domain.Garden) (domain.Garden, error) {
	g, _, err := b.svc.SetGardenSize(ctx, size)
	return g, err
}

func (b *Backend) CreatePlot(ctx context.Context, name string, rows, cols int) (domain.Plot, error) {
	p, _, err := b.svc.CreatePlot(ctx, name, rows, cols)
	return p, err
}

func (b *Backend) DeletePlot(ctx context.Context, id string) error {
	_, err := b.svc.DeletePlot(ctx, id)
	return err
}

func (b *Backend) CreateVersion(ctx context.Context, v domain.Version) (domain.Version, error) {
	created, _, err := b.svc.CreateVersion(ctx, v)
	return created, err
}

func (b *Backend) ImportVersion(ctx context.Context, v domain.Version) (domain.Version, error) {
	created, _, err := b.svc.ImportVersion(ctx, v)
	return created, err
}

// PopularCrops lists the catalog by usage.
func (b *Backend) PopularCrops(ctx context.Context, limit int) ([]domain.Crop, error) {
	return b.svc.PopularCrops(ctx, limit)
}

func (b *Backend) CreateCulture(ctx context.Context, c domain.Culture) (domain.Culture, error) {
	created, _, err := b.svc.CreateCulture(ctx, c)
	return created, err
}

func (b *Backend) ImportCultures(ctx context.Context, cultures []domain.Culture) ([]domain.Culture, error) {
	created, _, err := b.svc.ImportCultures(ctx, cultures)
	return created, err
}

func (b *Backend) DeleteCulture(ctx context.Context, id string) error {
	_, err := b.svc.DeleteCulture(ctx, id)
	return err
}

// ExportVersion writes the stored version document for id to w. Local exports
// are not archived, so the returned URL is always empty.
func (b *Backend) ExportVersion(ctx context.Context, id string, w io.Writer) (string, error) {
	v, err := b.svc.GetVersion(ctx, id)
	if err != nil {
		return "", err
	}
	return "", planner.EncodeVersion(w, v)
}

package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"potager/pkg/domain"
)

// fakeBackend is an in-memory Backend with injectable failures.
type fakeBackend struct {
	garden    domain.Garden
	plots     []domain.Plot
	positions []domain.Position
	crops     []domain.Crop
	cultures  []domain.Culture
	versions  []domain.Version

	failSetCell     error
	failSetPosition error
	failList        error
	warnings        []domain.Violation

	cellCalls int
	seq       int
	now       time.Time
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{garden: domain.DefaultGarden(), now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeBackend) ListCrops(context.Context) ([]domain.Crop, error) { return f.crops, f.failList }
func (f *fakeBackend) ListCultures(context.Context) ([]domain.Culture, error) {
	return f.cultures, f.failList
}
func (f *fakeBackend) ListPlots(context.Context) ([]domain.Plot, error) { return f.plots, f.failList }
func (f *fakeBackend) ListPositions(context.Context) ([]domain.Position, error) {
	return f.positions, f.failList
}
func (f *fakeBackend) GardenSize(context.Context) (domain.Garden, error) { return f.garden, f.failList }
func (f *fakeBackend) ListVersions(context.Context) ([]domain.Version, error) {
	return f.versions, f.failList
}

func (f *fakeBackend) SetCell(_ context.Context, plotID string, row, col int, cell *domain.CellAssignment) (domain.Plot, error) {
	f.cellCalls++
	if f.failSetCell != nil {
		return domain.Plot{}, f.failSetCell
	}
	for i := range f.plots {
		if f.plots[i].ID == plotID {
			f.plots[i].Grid[domain.CellIndex(row, col, f.plots[i].Cols)] = cell
			return f.plots[i].Clone(), nil
		}
	}
	return domain.Plot{}, fmt.Errorf("plot %s not found", plotID)
}

func (f *fakeBackend) SetPosition(_ context.Context, pos domain.Position) (domain.Position, []domain.Violation, error) {
	if f.failSetPosition != nil {
		return domain.Position{}, nil, f.failSetPosition
	}
	f.positions = append(f.positions, pos)
	return pos, f.warnings, nil
}

func (f *fakeBackend) SetGardenSize(_ context.Context, size domain.Garden) (domain.Garden, error) {
	size.Rows = domain.ClampSide(size.Rows, domain.MinGardenSide, domain.MaxGardenSide)
	size.Cols = domain.ClampSide(size.Cols, domain.MinGardenSide, domain.MaxGardenSide)
	f.garden = size
	return size, nil
}

func (f *fakeBackend) CreatePlot(_ context.Context, name string, rows, cols int) (domain.Plot, error) {
	if name == "" {
		return domain.Plot{}, errors.New("name required")
	}
	f.seq++
	p := domain.Plot{Base: domain.Base{ID: fmt.Sprintf("plot-%d", f.seq)}, Name: name, Rows: rows, Cols: cols, Seq: f.seq, Grid: domain.NewGrid(rows, cols)}
	f.plots = append(f.plots, p)
	return p.Clone(), nil
}

func (f *fakeBackend) DeletePlot(_ context.Context, id string) error {
	for i, p := range f.plots {
		if p.ID == id {
			f.plots = append(f.plots[:i], f.plots[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("plot %s not found", id)
}

func (f *fakeBackend) CreateVersion(_ context.Context, v domain.Version) (domain.Version, error) {
	f.seq++
	f.now = f.now.Add(time.Minute)
	v = v.Clone()
	v.ID = fmt.Sprintf("version-%d", f.seq)
	v.CreatedAt = f.now
	f.versions = append(f.versions, v)
	return v.Clone(), nil
}

func (f *fakeBackend) ImportVersion(ctx context.Context, v domain.Version) (domain.Version, error) {
	return f.CreateVersion(ctx, v)
}

func (f *fakeBackend) addPlot(id string, rows, cols int) domain.Plot {
	f.seq++
	p := domain.Plot{Base: domain.Base{ID: id}, Name: id, Rows: rows, Cols: cols, Seq: f.seq, Grid: domain.NewGrid(rows, cols)}
	f.plots = append(f.plots, p)
	return p
}

var (
	tomato = domain.Crop{ID: "tomate", Name: "Tomate", Emoji: "🍅"}
	carrot = domain.Crop{ID: "carotte", Name: "Carotte", Emoji: "🥕"}
)

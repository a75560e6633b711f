// Package planner holds the garden planner state and the commands that edit
// it. The Engine talks to the stores through a Backend and keeps a working
// copy of the garden so commands can be applied optimistically.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"potager/pkg/domain"
)

// Backend is the store surface the engine consumes. The HTTP client and the
// in-process adapter both implement it.
type Backend interface {
	ListCrops(ctx context.Context) ([]domain.Crop, error)
	ListCultures(ctx context.Context) ([]domain.Culture, error)
	ListPlots(ctx context.Context) ([]domain.Plot, error)
	ListPositions(ctx context.Context) ([]domain.Position, error)
	GardenSize(ctx context.Context) (domain.Garden, error)
	ListVersions(ctx context.Context) ([]domain.Version, error)

	SetCell(ctx context.Context, plotID string, row, col int, cell *domain.CellAssignment) (domain.Plot, error)
	SetPosition(ctx context.Context, pos domain.Position) (domain.Position, []domain.Violation, error)
	SetGardenSize(ctx context.Context, size domain.Garden) (domain.Garden, error)
	CreatePlot(ctx context.Context, name string, rows, cols int) (domain.Plot, error)
	DeletePlot(ctx context.Context, id string) error
	CreateVersion(ctx context.Context, v domain.Version) (domain.Version, error)
	ImportVersion(ctx context.Context, v domain.Version) (domain.Version, error)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNow overrides the time source used for deadlines.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine owns the planner state. Commands run one at a time.
type Engine struct {
	mu      sync.Mutex
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	garden    domain.Garden
	plots     []domain.Plot
	positions map[string]domain.Position
	crops     []domain.Crop
	cultures  []domain.Culture
	versions  []domain.Version

	selectedPlot string
	selectedCrop string
	current      string
}

// New returns an empty engine; call Load to populate it.
func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:   backend,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		garden:    domain.DefaultGarden(),
		positions: map[string]domain.Position{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State is a copy of the engine state.
type State struct {
	Garden       domain.Garden
	Plots        []domain.Plot
	Positions    map[string]domain.Position
	Crops        []domain.Crop
	Cultures     []domain.Culture
	Versions     []domain.Version
	SelectedPlot string
	SelectedCrop string
	// CurrentVersion is the id of the last restored or created version.
	CurrentVersion string
}

// State returns a deep copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := State{
		Garden:         e.garden,
		Plots:          clonePlots(e.plots),
		Positions:      clonePositions(e.positions),
		Crops:          append([]domain.Crop(nil), e.crops...),
		Cultures:       append([]domain.Culture(nil), e.cultures...),
		Versions:       make([]domain.Version, len(e.versions)),
		SelectedPlot:   e.selectedPlot,
		SelectedCrop:   e.selectedCrop,
		CurrentVersion: e.current,
	}
	for i, v := range e.versions {
		st.Versions[i] = v.Clone()
	}
	return st
}

// Load fetches the garden, plots, positions, crops, cultures and versions,
// then restores the most recently created version when there is one.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	garden, err := e.backend.GardenSize(ctx)
	if err != nil {
		return fmt.Errorf("load garden: %w", err)
	}
	plots, err := e.backend.ListPlots(ctx)
	if err != nil {
		return fmt.Errorf("load plots: %w", err)
	}
	positions, err := e.backend.ListPositions(ctx)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	crops, err := e.backend.ListCrops(ctx)
	if err != nil {
		return fmt.Errorf("load crops: %w", err)
	}
	cultures, err := e.backend.ListCultures(ctx)
	if err != nil {
		return fmt.Errorf("load cultures: %w", err)
	}
	versions, err := e.backend.ListVersions(ctx)
	if err != nil {
		return fmt.Errorf("load versions: %w", err)
	}

	e.garden = garden
	e.plots = normalizePlots(plots)
	e.positions = make(map[string]domain.Position, len(positions))
	for _, pos := range positions {
		e.positions[pos.PlotID] = pos
	}
	e.crops = crops
	e.cultures = cultures
	e.setVersions(versions)
	e.current = ""
	if e.selectedPlot != "" && e.plotIndex(e.selectedPlot) < 0 {
		e.selectedPlot = ""
	}

	if len(e.versions) > 0 {
		latest := e.versions[0]
		e.restore(latest)
		e.logger.Info("restored latest version", "version_id", latest.ID, "name", latest.Name)
	}
	return nil
}

// SelectPlot selects the plot cell edits apply to; an empty id deselects.
func (e *Engine) SelectPlot(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != "" && e.plotIndex(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlot, id)
	}
	e.selectedPlot = id
	return nil
}

// SelectCrop selects the crop placed on empty cells; an empty id deselects.
func (e *Engine) SelectCrop(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != "" {
		if _, ok := e.findCrop(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCrop, id)
		}
	}
	e.selectedCrop = id
	return nil
}

// UpcomingDeadlines runs Deadlines over the loaded cultures for today.
func (e *Engine) UpcomingDeadlines() []Deadline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Deadlines(e.cultures, e.now())
}

func (e *Engine) plotIndex(id string) int {
	for i, p := range e.plots {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findCrop(id string) (domain.Crop, bool) {
	for _, c := range e.crops {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Crop{}, false
}

// setVersions stores versions newest first; equal timestamps keep input order.
func (e *Engine) setVersions(versions []domain.Version) {
	out := make([]domain.Version, len(versions))
	for i, v := range versions {
		out[i] = v.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	e.versions = out
}

// normalizePlots copies plots, fixing any grid whose length drifted from
// rows*cols.
func normalizePlots(plots []domain.Plot) []domain.Plot {
	out := make([]domain.Plot, len(plots))
	for i, p := range plots {
		p = p.Clone()
		if len(p.Grid) != p.Size() {
			p.Grid = p.Grid.Resize(p.Size())
		}
		out[i] = p
	}
	return out
}

func clonePlots(plots []domain.Plot) []domain.Plot {
	out := make([]domain.Plot, len(plots))
	for i, p := range plots {
		out[i] = p.Clone()
	}
	return out
}

func clonePositions(in map[string]domain.Position) map[string]domain.Position {
	out := make(map[string]domain.Position, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Package memory provides an in-memory implementation of the garden
// persistence store used for tests, ephemeral environments, and as the
// transactional core of the durable backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"potager/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Crop aliases domain.Crop for in-memory persistence operations.
	Crop = domain.Crop
	// Culture aliases domain.Culture.
	Culture = domain.Culture
	// Plot aliases domain.Plot.
	Plot = domain.Plot
	// Position aliases domain.Position.
	Position = domain.Position
	// Garden aliases domain.Garden.
	Garden = domain.Garden
	// Version aliases domain.Version.
	Version = domain.Version
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	crops     map[string]Crop
	cultures  map[string]Culture
	plots     map[string]Plot
	positions map[string]Position
	garden    Garden
	versions  map[string]Version
}

// Snapshot captures a point-in-time clone of the store state. Each field is
// persisted as its own bucket by the durable backends.
type Snapshot struct {
	Crops     map[string]Crop     `json:"crops"`
	Cultures  map[string]Culture  `json:"cultures"`
	Plots     map[string]Plot     `json:"plots"`
	Positions map[string]Position `json:"positions"`
	Garden    Garden              `json:"garden"`
	Versions  map[string]Version  `json:"versions"`
}

func newMemoryState() memoryState {
	return memoryState{
		crops:     make(map[string]Crop),
		cultures:  make(map[string]Culture),
		plots:     make(map[string]Plot),
		positions: make(map[string]Position),
		garden:    domain.DefaultGarden(),
		versions:  make(map[string]Version),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{
		Crops:     cloned.crops,
		Cultures:  cloned.cultures,
		Plots:     cloned.plots,
		Positions: cloned.positions,
		Garden:    cloned.garden,
		Versions:  cloned.versions,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Crops {
		state.crops[k] = v
	}
	for k, v := range s.Cultures {
		state.cultures[k] = v
	}
	for k, v := range s.Plots {
		state.plots[k] = v.Clone()
	}
	for k, v := range s.Positions {
		state.positions[k] = v
	}
	state.garden = s.Garden
	for k, v := range s.Versions {
		state.versions[k] = v.Clone()
	}
	return state
}

// migrateSnapshot normalizes persisted data written by older builds: map keys
// are reconciled with record ids, plot dimensions and grids are brought back
// within bounds, and plots missing a creation ordinal are numbered in
// creation order.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Garden.Rows == 0 && snapshot.Garden.Cols == 0 {
		snapshot.Garden = domain.DefaultGarden()
	}
	snapshot.Garden.Rows = domain.ClampSide(snapshot.Garden.Rows, domain.MinGardenSide, domain.MaxGardenSide)
	snapshot.Garden.Cols = domain.ClampSide(snapshot.Garden.Cols, domain.MinGardenSide, domain.MaxGardenSide)

	for id, crop := range snapshot.Crops {
		if crop.ID == "" {
			crop.ID = id
		}
		snapshot.Crops[id] = crop
	}
	for id, culture := range snapshot.Cultures {
		if culture.ID == "" {
			culture.ID = id
		}
		snapshot.Cultures[id] = culture
	}

	maxSeq := 0
	var unnumbered []Plot
	for id, plot := range snapshot.Plots {
		if plot.ID == "" {
			plot.ID = id
		}
		plot.Rows = domain.ClampSide(plot.Rows, domain.MinPlotSide, domain.MaxPlotSide)
		plot.Cols = domain.ClampSide(plot.Cols, domain.MinPlotSide, domain.MaxPlotSide)
		if len(plot.Grid) != plot.Size() {
			plot.Grid = plot.Grid.Resize(plot.Size())
		}
		if plot.Seq > maxSeq {
			maxSeq = plot.Seq
		}
		if plot.Seq == 0 {
			unnumbered = append(unnumbered, plot)
		}
		snapshot.Plots[id] = plot
	}
	sort.Slice(unnumbered, func(i, j int) bool {
		if !unnumbered[i].CreatedAt.Equal(unnumbered[j].CreatedAt) {
			return unnumbered[i].CreatedAt.Before(unnumbered[j].CreatedAt)
		}
		return unnumbered[i].ID < unnumbered[j].ID
	})
	for _, plot := range unnumbered {
		maxSeq++
		plot.Seq = maxSeq
		snapshot.Plots[plot.ID] = plot
	}

	for id, pos := range snapshot.Positions {
		if pos.PlotID == "" {
			pos.PlotID = id
		}
		if pos.Row < 0 {
			pos.Row = 0
		}
		if pos.Col < 0 {
			pos.Col = 0
		}
		snapshot.Positions[id] = pos
	}
	for id, version := range snapshot.Versions {
		if version.ID == "" {
			version.ID = id
		}
		snapshot.Versions[id] = version
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.crops {
		cloned.crops[k] = v
	}
	for k, v := range s.cultures {
		cloned.cultures[k] = v
	}
	for k, v := range s.plots {
		cloned.plots[k] = v.Clone()
	}
	for k, v := range s.positions {
		cloned.positions[k] = v
	}
	cloned.garden = s.garden
	for k, v := range s.versions {
		cloned.versions[k] = v.Clone()
	}
	return cloned
}

func (s memoryState) nextPlotSeq() int {
	maxSeq := 0
	for _, p := range s.plots {
		if p.Seq > maxSeq {
			maxSeq = p.Seq
		}
	}
	return maxSeq + 1
}

// Store provides an in-memory transactional store for the garden domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc replaces the clock used to stamp records.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy is committed only when fn succeeds and no blocking rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindPlot exposes plot lookup within the transaction scope.
func (tx *transaction) FindPlot(id string) (Plot, bool) {
	p, ok := tx.state.plots[id]
	if !ok {
		return Plot{}, false
	}
	return p.Clone(), true
}

// FindCulture exposes culture lookup within the transaction scope.
func (tx *transaction) FindCulture(id string) (Culture, bool) {
	c, ok := tx.state.cultures[id]
	return c, ok
}

// PutCrop inserts or replaces a catalog crop.
func (tx *transaction) PutCrop(c Crop) (Crop, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	before, exists := tx.state.crops[c.ID]
	tx.state.crops[c.ID] = c
	if exists {
		tx.recordChange(Change{Entity: domain.EntityCrop, Action: domain.ActionUpdate, Before: before, After: c})
	} else {
		tx.recordChange(Change{Entity: domain.EntityCrop, Action: domain.ActionCreate, After: c})
	}
	return c, nil
}

// DeleteCrop removes a catalog crop. Cells already referencing it keep their
// denormalized emoji and name.
func (tx *transaction) DeleteCrop(id string) error {
	current, ok := tx.state.crops[id]
	if !ok {
		return fmt.Errorf("crop %q not found", id)
	}
	delete(tx.state.crops, id)
	tx.recordChange(Change{Entity: domain.EntityCrop, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateCulture stores a new culture.
func (tx *transaction) CreateCulture(c Culture) (Culture, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := tx.state.cultures[c.ID]; exists {
		return Culture{}, fmt.Errorf("culture %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.cultures[c.ID] = c
	tx.recordChange(Change{Entity: domain.EntityCulture, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateCulture mutates a culture using the provided mutator function.
func (tx *transaction) UpdateCulture(id string, mutator func(*Culture) error) (Culture, error) {
	current, ok := tx.state.cultures[id]
	if !ok {
		return Culture{}, fmt.Errorf("culture %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Culture{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.cultures[id] = current
	tx.recordChange(Change{Entity: domain.EntityCulture, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteCulture removes a culture from the transaction state.
func (tx *transaction) DeleteCulture(id string) error {
	current, ok := tx.state.cultures[id]
	if !ok {
		return fmt.Errorf("culture %q not found", id)
	}
	delete(tx.state.cultures, id)
	tx.recordChange(Change{Entity: domain.EntityCulture, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreatePlot stores a new plot, assigning the next creation ordinal and an
// all-empty grid sized to its dimensions.
func (tx *transaction) CreatePlot(p Plot) (Plot, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := tx.state.plots[p.ID]; exists {
		return Plot{}, fmt.Errorf("plot %q already exists", p.ID)
	}
	p.Seq = tx.state.nextPlotSeq()
	p.Grid = p.Grid.Resize(p.Size())
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.plots[p.ID] = p.Clone()
	tx.recordChange(Change{Entity: domain.EntityPlot, Action: domain.ActionCreate, After: p.Clone()})
	return p.Clone(), nil
}

// UpdatePlot mutates a plot. Identity and ordinal are preserved and the grid
// is re-sized to the (possibly changed) dimensions.
func (tx *transaction) UpdatePlot(id string, mutator func(*Plot) error) (Plot, error) {
	current, ok := tx.state.plots[id]
	if !ok {
		return Plot{}, fmt.Errorf("plot %q not found", id)
	}
	before := current.Clone()
	working := current.Clone()
	if err := mutator(&working); err != nil {
		return Plot{}, err
	}
	working.ID = id
	working.Seq = before.Seq
	working.CreatedAt = before.CreatedAt
	working.UpdatedAt = tx.now
	if len(working.Grid) != working.Size() {
		working.Grid = working.Grid.Resize(working.Size())
	}
	tx.state.plots[id] = working.Clone()
	tx.recordChange(Change{Entity: domain.EntityPlot, Action: domain.ActionUpdate, Before: before, After: working.Clone()})
	return working.Clone(), nil
}

// DeletePlot removes a plot. Its recorded position is left in place and
// resolves to nothing until a plot with the same id reappears.
func (tx *transaction) DeletePlot(id string) error {
	current, ok := tx.state.plots[id]
	if !ok {
		return fmt.Errorf("plot %q not found", id)
	}
	delete(tx.state.plots, id)
	tx.recordChange(Change{Entity: domain.EntityPlot, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// SetPosition records the garden anchor of a plot, replacing any prior one.
func (tx *transaction) SetPosition(pos Position) (Position, error) {
	if pos.PlotID == "" {
		return Position{}, fmt.Errorf("position requires a plot id")
	}
	before, existed := tx.state.positions[pos.PlotID]
	tx.state.positions[pos.PlotID] = pos
	change := Change{Entity: domain.EntityPosition, Action: domain.ActionCreate, After: pos}
	if existed {
		change.Action = domain.ActionUpdate
		change.Before = before
	}
	tx.recordChange(change)
	return pos, nil
}

// SetGarden replaces the garden dimensions.
func (tx *transaction) SetGarden(g Garden) (Garden, error) {
	before := tx.state.garden
	tx.state.garden = g
	tx.recordChange(Change{Entity: domain.EntityGarden, Action: domain.ActionUpdate, Before: before, After: g})
	return g, nil
}

// CreateVersion stores an immutable snapshot. A zero CreatedAt is stamped
// with the transaction time.
func (tx *transaction) CreateVersion(v Version) (Version, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if _, exists := tx.state.versions[v.ID]; exists {
		return Version{}, fmt.Errorf("version %q already exists", v.ID)
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = tx.now
	}
	if v.Positions == nil {
		v.Positions = map[string]Position{}
	}
	if v.Cells == nil {
		v.Cells = map[string]domain.Grid{}
	}
	tx.state.versions[v.ID] = v.Clone()
	tx.recordChange(Change{Entity: domain.EntityVersion, Action: domain.ActionCreate, After: v.Clone()})
	return v.Clone(), nil
}

// ListCrops returns catalog crops ordered by name.
func (v transactionView) ListCrops() []Crop {
	out := make([]Crop, 0, len(v.state.crops))
	for _, c := range v.state.crops {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindCrop looks up a catalog crop.
func (v transactionView) FindCrop(id string) (Crop, bool) {
	c, ok := v.state.crops[id]
	return c, ok
}

// ListCultures returns cultures ordered by sow date then name.
func (v transactionView) ListCultures() []Culture {
	out := make([]Culture, 0, len(v.state.cultures))
	for _, c := range v.state.cultures {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SowDate != out[j].SowDate {
			return out[i].SowDate < out[j].SowDate
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindCulture looks up a culture.
func (v transactionView) FindCulture(id string) (Culture, bool) {
	c, ok := v.state.cultures[id]
	return c, ok
}

// ListPlots returns plots in creation order.
func (v transactionView) ListPlots() []Plot {
	out := make([]Plot, 0, len(v.state.plots))
	for _, p := range v.state.plots {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindPlot looks up a plot.
func (v transactionView) FindPlot(id string) (Plot, bool) {
	p, ok := v.state.plots[id]
	if !ok {
		return Plot{}, false
	}
	return p.Clone(), true
}

// ListPositions returns every recorded anchor ordered by plot id.
func (v transactionView) ListPositions() []Position {
	out := make([]Position, 0, len(v.state.positions))
	for _, p := range v.state.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlotID < out[j].PlotID })
	return out
}

// Garden returns the garden dimensions.
func (v transactionView) Garden() Garden {
	return v.state.garden
}

// ListVersions returns versions, most recent first.
func (v transactionView) ListVersions() []Version {
	out := make([]Version, 0, len(v.state.versions))
	for _, ver := range v.state.versions {
		out = append(out, ver.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindVersion looks up a version.
func (v transactionView) FindVersion(id string) (Version, bool) {
	ver, ok := v.state.versions[id]
	if !ok {
		return Version{}, false
	}
	return ver.Clone(), true
}

// Read helpers ---------------------------------------------------------------

// ListPlots returns plots from committed state in creation order.
func (s *Store) ListPlots() []Plot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListPlots()
}

// GetPlot retrieves a plot from committed state.
func (s *Store) GetPlot(id string) (Plot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindPlot(id)
}

// ListCultures returns cultures from committed state.
func (s *Store) ListCultures() []Culture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListCultures()
}

// ListVersions returns versions from committed state, most recent first.
func (s *Store) ListVersions() []Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListVersions()
}

// Package domain defines the persistent garden entities, value types, and
// rule evaluation primitives used by potager.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityCrop identifies a crop catalog entry.
	EntityCrop EntityType = "crop"
	// EntityCulture identifies a planted culture record.
	EntityCulture EntityType = "culture"
	// EntityPlot identifies a plot (parcelle) record.
	EntityPlot EntityType = "plot"
	// EntityPosition identifies the anchor of a plot inside the garden.
	EntityPosition EntityType = "plot_position"
	// EntityGarden identifies the garden (potager) sizing singleton.
	EntityGarden EntityType = "garden"
	// EntityVersion identifies an immutable layout snapshot.
	EntityVersion EntityType = "version"
)

// Plot and garden dimension limits. Requests outside these ranges are clamped.
const (
	MinPlotSide   = 1
	MaxPlotSide   = 20
	MinGardenSide = 1
	MaxGardenSide = 100

	DefaultGardenRows = 10
	DefaultGardenCols = 10
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn reports a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Crop is a reusable catalog definition referenced when assigning cells.
type Crop struct {
	ID         string `json:"id" yaml:"id" toml:"id"`
	Name       string `json:"name" yaml:"name" toml:"name"`
	Emoji      string `json:"emoji" yaml:"emoji" toml:"emoji"`
	UsageCount int    `json:"usage_count" yaml:"usage_count" toml:"usage_count"`
}

// Assignment returns the cell token placing this crop.
func (c Crop) Assignment() *CellAssignment {
	return &CellAssignment{Emoji: c.Emoji, CropID: c.ID, CropName: c.Name}
}

// Culture is a single planted crop instance with its own date timeline.
// Dates are calendar dates formatted YYYY-MM-DD; optional ones may be empty.
type Culture struct {
	Base
	Name            string `json:"name"`
	SowDate         string `json:"sow_date"`
	TransplantDate  string `json:"transplant_date,omitempty"`
	HarvestDate     string `json:"harvest_date,omitempty"`
	CultivationType string `json:"cultivation_type"`
	Comment         string `json:"comment,omitempty"`
	Color           string `json:"color"`
	Emoji           string `json:"emoji"`
}

// Plot is a named rectangular grid of cells. Grid always holds Rows*Cols
// entries in row-major order.
type Plot struct {
	Base
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
	// Seq is the creation ordinal; plot lists are ordered by it.
	Seq  int  `json:"seq"`
	Grid Grid `json:"grid"`
}

// Size returns the number of cells in the plot.
func (p Plot) Size() int { return p.Rows * p.Cols }

// Position anchors a plot's top-left cell inside the garden grid. PlotID is a
// weak reference: the plot may have been deleted since.
type Position struct {
	PlotID string `json:"plot_id"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// Garden is the overall rectangular area plots are positioned in.
type Garden struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// DefaultGarden returns the size used before any explicit resize.
func DefaultGarden() Garden {
	return Garden{Rows: DefaultGardenRows, Cols: DefaultGardenCols}
}

// PlotRef is the plot metadata captured in a version snapshot.
type PlotRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// Ref returns the snapshot metadata for the plot.
func (p Plot) Ref() PlotRef {
	return PlotRef{ID: p.ID, Name: p.Name, Rows: p.Rows, Cols: p.Cols}
}

// Version is an immutable, named capture of the plot list, plot positions and
// per-plot grids at a point in time.
type Version struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	CreatedAt time.Time           `json:"created_at"`
	Plots     []PlotRef           `json:"plots"`
	Positions map[string]Position `json:"positions"`
	Cells     map[string]Grid     `json:"cells"`
}

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any violation blocks commit.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

package core

import "potager/pkg/domain"

type (
	// Crop aliases domain.Crop.
	Crop = domain.Crop
	// Culture aliases domain.Culture.
	Culture = domain.Culture
	// Plot aliases domain.Plot.
	Plot = domain.Plot
	// PlotRef aliases domain.PlotRef.
	PlotRef = domain.PlotRef
	// Position aliases domain.Position.
	Position = domain.Position
	// Garden aliases domain.Garden.
	Garden = domain.Garden
	// Version aliases domain.Version.
	Version = domain.Version
	// Grid aliases domain.Grid.
	Grid = domain.Grid
	// CellAssignment aliases domain.CellAssignment.
	CellAssignment = domain.CellAssignment
	// Change aliases domain.Change.
	Change = domain.Change
	// Result aliases domain.Result.
	Result = domain.Result
	// Violation aliases domain.Violation.
	Violation = domain.Violation
	// Rule aliases domain.Rule.
	Rule = domain.Rule
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
	// EntityType aliases domain.EntityType.
	EntityType = domain.EntityType
)

const (
	EntityCrop     = domain.EntityCrop
	EntityCulture  = domain.EntityCulture
	EntityPlot     = domain.EntityPlot
	EntityPosition = domain.EntityPosition
	EntityGarden   = domain.EntityGarden
	EntityVersion  = domain.EntityVersion
)

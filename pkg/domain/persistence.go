package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	PutCrop(Crop) (Crop, error)
	DeleteCrop(id string) error
	CreateCulture(Culture) (Culture, error)
	UpdateCulture(id string, mutator func(*Culture) error) (Culture, error)
	DeleteCulture(id string) error
	CreatePlot(Plot) (Plot, error)
	UpdatePlot(id string, mutator func(*Plot) error) (Plot, error)
	DeletePlot(id string) error
	SetPosition(Position) (Position, error)
	SetGarden(Garden) (Garden, error)
	CreateVersion(Version) (Version, error)
	FindPlot(id string) (Plot, bool)
	FindCulture(id string) (Culture, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	ListCrops() []Crop
	FindCrop(id string) (Crop, bool)
	ListCultures() []Culture
	ListVersions() []Version
	FindVersion(id string) (Version, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}

package core

import (
	"context"
	"fmt"

	"potager/pkg/domain"
)

// ListVersions returns snapshots newest first.
func (s *Service) ListVersions(ctx context.Context) ([]Version, error) {
	var out []Version
	err := s.read(ctx, "version.list", func(view TransactionView) error {
		out = view.ListVersions()
		return nil
	})
	return out, err
}

// GetVersion fetches one snapshot.
func (s *Service) GetVersion(ctx context.Context, id string) (Version, error) {
	var out Version
	err := s.read(ctx, "version.get", func(view TransactionView) error {
		v, ok := view.FindVersion(id)
		if !ok {
			return ErrNotFound{Entity: EntityVersion, ID: id}
		}
		out = v
		return nil
	})
	return out, err
}

// CreateVersion stores a snapshot document under a fresh id and timestamp.
func (s *Service) CreateVersion(ctx context.Context, v Version) (Version, Result, error) {
	return s.storeVersion(ctx, "version.create", v)
}

// ImportVersion stores a previously exported document as a new snapshot.
func (s *Service) ImportVersion(ctx context.Context, v Version) (Version, Result, error) {
	return s.storeVersion(ctx, "version.import", v)
}

func (s *Service) storeVersion(ctx context.Context, op string, v Version) (Version, Result, error) {
	normalized, err := NormalizeVersion(v)
	if err != nil {
		return Version{}, Result{}, err
	}
	normalized.ID = ""
	normalized.CreatedAt = s.clock.Now()
	if normalized.Name == "" {
		normalized.Name = "Version " + normalized.CreatedAt.Format("2006-01-02 15:04")
	}
	var created Version
	res, err := s.write(ctx, op, EntityVersion, domain.ActionCreate, func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateVersion(normalized)
		return created.ID, err
	})
	return created, res, err
}

// NormalizeVersion checks the plot list of a snapshot document and returns a
// copy in which every plot's grid holds exactly rows*cols cells. Grids and
// positions of plots missing from the list are kept as weak references.
func NormalizeVersion(v Version) (Version, error) {
	out := v.Clone()
	seen := make(map[string]struct{}, len(out.Plots))
	for i, ref := range out.Plots {
		field := fmt.Sprintf("plots[%d]", i)
		if err := required(field+".id", ref.ID); err != nil {
			return Version{}, err
		}
		if ref.Rows <= 0 || ref.Cols <= 0 {
			return Version{}, ValidationError{Field: field, Message: fmt.Sprintf("invalid dimensions %dx%d", ref.Rows, ref.Cols)}
		}
		if _, dup := seen[ref.ID]; dup {
			return Version{}, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate plot id %q", ref.ID)}
		}
		seen[ref.ID] = struct{}{}
	}
	if out.Positions == nil {
		out.Positions = map[string]Position{}
	}
	for id, pos := range out.Positions {
		pos.PlotID = id
		out.Positions[id] = pos
	}
	if out.Cells == nil {
		out.Cells = map[string]Grid{}
	}
	for _, ref := range out.Plots {
		out.Cells[ref.ID] = out.Cells[ref.ID].Resize(ref.Rows * ref.Cols)
	}
	return out, nil
}

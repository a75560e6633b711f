package core

import (
	"context"
	"fmt"
	"sort"

	"potager/pkg/domain"
)

// ListCrops returns the catalog ordered by name.
func (s *Service) ListCrops(ctx context.Context) ([]Crop, error) {
	var out []Crop
	err := s.read(ctx, "crop.list", func(view TransactionView) error {
		out = view.ListCrops()
		return nil
	})
	return out, err
}

// PopularCrops returns crops by usage count descending, ties by name. A
// non-positive limit returns the whole catalog.
func (s *Service) PopularCrops(ctx context.Context, limit int) ([]Crop, error) {
	var out []Crop
	err := s.read(ctx, "crop.popular", func(view TransactionView) error {
		out = view.ListCrops()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SyncCrops makes the stored catalog match crops: entries are upserted by id
// keeping their accumulated usage count, and crops absent from the list are
// removed. Cells already holding a removed crop keep their emoji and name.
func (s *Service) SyncCrops(ctx context.Context, crops []Crop) (Result, error) {
	seen := make(map[string]struct{}, len(crops))
	for i, crop := range crops {
		field := fmt.Sprintf("crops[%d]", i)
		if err := required(field+".id", crop.ID); err != nil {
			return Result{}, err
		}
		if err := required(field+".name", crop.Name); err != nil {
			return Result{}, err
		}
		if err := required(field+".emoji", crop.Emoji); err != nil {
			return Result{}, err
		}
		if _, dup := seen[crop.ID]; dup {
			return Result{}, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate crop id %q", crop.ID)}
		}
		seen[crop.ID] = struct{}{}
	}
	return s.write(ctx, "crop.sync", EntityCrop, domain.ActionUpdate, func(tx Transaction) (string, error) {
		view := tx.Snapshot()
		for _, existing := range view.ListCrops() {
			if _, keep := seen[existing.ID]; !keep {
				if err := tx.DeleteCrop(existing.ID); err != nil {
					return "", err
				}
			}
		}
		for _, crop := range crops {
			if existing, ok := view.FindCrop(crop.ID); ok {
				crop.UsageCount = existing.UsageCount
			}
			if _, err := tx.PutCrop(crop); err != nil {
				return crop.ID, err
			}
		}
		return "", nil
	})
}
